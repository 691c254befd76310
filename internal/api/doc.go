// Package api handles incoming HTTP requests: routing, payload validation,
// and response formatting. It adapts HTTP concerns onto the task, category,
// and authentication services without holding any business logic itself.
package api
