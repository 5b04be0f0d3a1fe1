package logger

// ErrorEntry mirrors errorEntry for assertions.
type ErrorEntry = errorEntry

var (
	CollectErrorEntries = collectErrorEntries
	FormatErrorEntries  = formatErrorEntries
)

// Message returns the entry message.
func (e errorEntry) Message() string { return e.message }

// Meta returns the entry metadata.
func (e errorEntry) Meta() map[string]any { return e.metadata }
