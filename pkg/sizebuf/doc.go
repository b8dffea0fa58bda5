// Package sizebuf implements the fixed-capacity message buffer shared by the
// network channel and local snapshot storage.
//
// A Buffer is bound to caller-owned storage. Writers reserve space at the
// write cursor with GetSpace; readers walk a separate read cursor with Next.
//
// # Overflow Policy
//
// Running out of space is fatal unless the buffer was created with
// AllowOverflow. Fixed protocol headers must never be truncated silently, so
// the default is to refuse the reservation and return a fatal error. Buffers
// used for best-effort broadcasts set AllowOverflow: the message written so
// far is discarded, Overflowed reports true, and the remaining writes of the
// message land in the reused region at offset 0.
//
// # Reading
//
// Reads past the written length never fail. Next reports ok=false and
// still advances the read cursor so that a parse loop sees the end of the
// message through its sentinel values. Overrun reports that state.
//
// A Buffer is not safe for concurrent use.
package sizebuf
