// Package errors provides classified error primitives used across commentlink.
//
// Resolution failures of individual links are never errors: they are statuses on
// commentlink.Result. This package covers the surrounding tooling (configuration,
// workspace walking, report storage, event publishing) where an operation can fail
// as a whole.
//
// Example usage:
//
//	err := errors.WrapError(cause, errors.CategoryStorage, "save scan batch").
//		WithContext("batch_id", batchID).
//		Build()
package errors
