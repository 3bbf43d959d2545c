// Package errors provides standardized error handling for the live board.
//
// # Error Classification
//
// Errors fall into three classes:
//
//   - Transient: connection issues, publish timeouts (retry recommended)
//   - Invalid: malformed payloads, failed request validation (do not retry)
//   - Fatal: bad or missing configuration (stop processing)
//
// Classification integrates with Go's standard error handling: errors.Is(),
// errors.As(), and wrapping chains all work as expected.
//
// # Usage
//
// Wrap errors at component boundaries with the classification helpers:
//
//	if err := publisher.Publish(ctx, subject, data); err != nil {
//	    return errors.WrapTransient(err, "Relay", "SubmitDelete", "publish command")
//	}
//
// Callers branch on class, never on message text:
//
//	if errors.IsInvalid(err) {
//	    // reject, do not retry
//	}
package errors
