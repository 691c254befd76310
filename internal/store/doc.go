// Package store defines the persistence interfaces and sentinel errors used
// by the service layer. Concrete implementations live under
// internal/platform/postgres.
package store
