package protocol

// Protocol limits.
const (
	// ProtocolVersion is the wire revision implemented by this package.
	ProtocolVersion = 34

	// MaxMsgLen is the default message buffer capacity for one datagram.
	MaxMsgLen = 1400

	// MaxStringLen bounds ReadString, including room for the terminator.
	MaxStringLen = 2048

	// MaxEntities is the exclusive upper bound of entity numbers.
	// Number 0 is never valid on the wire.
	MaxEntities = 1024

	// NumVertexNormals is the size of the direction table.
	NumVertexNormals = 162
)
