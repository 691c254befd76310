// Package service implements the application's business operations over the
// store interfaces: the task lifecycle state machine and the category ledger
// with its denormalized task counts.
package service
