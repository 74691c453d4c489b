package driven

// ConfigStore provides flat, dot-keyed access to application configuration
// ("llm.model", "limits.max_daily_queries"). Typed getters return the zero
// value for missing keys and for values that do not convert.
type ConfigStore interface {
	// Get returns the raw value and whether the key is set.
	Get(key string) (any, bool)

	GetString(key string) string

	// GetInt accepts integers, whole floats and numeric strings.
	GetInt(key string) int

	// GetFloat accepts floats, integers and numeric strings.
	GetFloat(key string) float64

	// GetBool accepts booleans and "true"/"false" style strings.
	GetBool(key string) bool

	// Set stores a value and persists it immediately.
	Set(key string, value any) error

	// Save persists the current configuration.
	Save() error

	// Load re-reads configuration, discarding unsaved values.
	Load() error

	// Path identifies where the configuration lives.
	Path() string
}
