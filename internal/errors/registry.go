package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Kind     Kind
	Message  string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Buffer Errors (B001-B099)
	// ============================================

	"B001": {
		Category: CategoryBuffer,
		Kind:     KindFatal,
		Message:  "Overflow without allowOverflow set",
	},
	"B002": {
		Category: CategoryBuffer,
		Kind:     KindFatal,
		Message:  "Reservation is larger than the whole buffer",
	},
	"B003": {
		Category: CategoryBuffer,
		Kind:     KindSoft,
		Message:  "Buffer overflowed, message discarded",
	},

	// ============================================
	// Protocol Errors (P001-P099)
	// ============================================

	"P001": {
		Category: CategoryProtocol,
		Kind:     KindFatal,
		Message:  "Entity number out of range",
	},
	"P002": {
		Category: CategoryProtocol,
		Kind:     KindFatal,
		Message:  "Direction index out of range",
	},
	"P003": {
		Category: CategoryProtocol,
		Kind:     KindFatal,
		Message:  "Value out of range for wire type",
	},
	"P004": {
		Category: CategoryProtocol,
		Kind:     KindSoft,
		Message:  "Read past end of message",
	},
	"P005": {
		Category: CategoryProtocol,
		Kind:     KindFatal,
		Message:  "Removal of an entity that is not in the old frame",
	},
	"P006": {
		Category: CategoryProtocol,
		Kind:     KindFatal,
		Message:  "Entity list is not sorted by number",
	},

	// ============================================
	// Info String Errors (I001-I099)
	// ============================================

	"I001": {
		Category: CategoryInfo,
		Kind:     KindSoft,
		Message:  "Info key or value contains a forbidden character",
	},
	"I002": {
		Category: CategoryInfo,
		Kind:     KindSoft,
		Message:  "Info keys and values must be shorter than the token limit",
	},
	"I003": {
		Category: CategoryInfo,
		Kind:     KindSoft,
		Message:  "Info string length exceeded",
	},

	// ============================================
	// Checksum Errors (C001-C099)
	// ============================================

	"C001": {
		Category: CategoryChecksum,
		Kind:     KindFatal,
		Message:  "Checksum sequence is negative",
	},

	// ============================================
	// Demo Errors (D001-D099)
	// ============================================

	"D001": {
		Category: CategoryDemo,
		Kind:     KindSoft,
		Message:  "Demo ended without an end marker",
	},
	"D002": {
		Category: CategoryDemo,
		Kind:     KindFatal,
		Message:  "Demo message larger than the message buffer",
	},
	"D003": {
		Category: CategoryDemo,
		Kind:     KindFatal,
		Message:  "Demo storage failed",
	},

	// ============================================
	// Config Errors (F001-F099)
	// ============================================

	"F001": {
		Category: CategoryConfig,
		Kind:     KindFatal,
		Message:  "Invalid configuration",
	},
	"F002": {
		Category: CategoryConfig,
		Kind:     KindFatal,
		Message:  "Configuration file could not be parsed",
	},
}

// Lookup returns the template registered for code.
func Lookup(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}
