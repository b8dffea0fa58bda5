// Package errors provides structured errors for the snapwire codecs.
//
// Every protocol condition is reported as an *Error carrying a registered
// code, a category and a Kind. The Kind tells the surrounding session logic
// what to do with the failure:
//
//   - KindFatal: the message structure is corrupt or the caller broke a
//     protocol precondition (overflow without permission, entity number 0,
//     negative checksum sequence, direction index out of range). The
//     operation is aborted and the connection should be dropped.
//   - KindSoft: the content is degraded but processing may continue
//     (overflow with permission, rejected info-string write, end of message).
//
// # Error Categories
//
//   - buffer: SizeBuffer reservations
//   - protocol: primitive and delta codecs
//   - info: info-string mutation
//   - checksum: keyed sequence checksum
//   - demo: demo recording and playback
//   - config: snapwire.json loading
//   - cli: command-line usage
//
// # Usage
//
//	err := errors.New("P001").Wrap(protocol.ErrEntityNumber)
//	if errors.IsFatal(err) {
//	    // drop the connection
//	}
//
// Package-level sentinel errors stay reachable through Unwrap, so callers
// can still use the standard library's errors.Is on the result.
package errors
