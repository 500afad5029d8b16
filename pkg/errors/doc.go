// Package errors provides standardized error definitions for the relay.
// All sentinel errors are centralized here so callers can match them with
// errors.Is across package boundaries.
package errors
