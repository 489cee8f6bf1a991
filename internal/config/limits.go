package config

const (
	// MaxNodeNameLength is the maximum length for file and folder names.
	// Limited to 255 to fit in VARCHAR(255).
	MaxNodeNameLength = 255

	// DefaultAutocompleteLimit caps the number of autocomplete suggestions.
	DefaultAutocompleteLimit = 10

	// MaxRequestBodySize bounds JSON request bodies (1MB). Nodes carry metadata only.
	MaxRequestBodySize = 1 << 20
)
