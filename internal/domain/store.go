package domain

// KeyValueStore is the durable key-value area holding the profile aggregates.
// Values are opaque bytes (JSON in practice).
type KeyValueStore interface {
	// Get returns (value, true, nil) on hit, (nil, false, nil) when absent
	Get(key string) ([]byte, bool, error)

	// Set writes a single key
	Set(key string, value []byte) error

	// SetMany writes all keys in one transaction; either all or none are stored
	SetMany(values map[string][]byte) error

	// Delete removes keys; absent keys are ignored
	Delete(keys ...string) error

	Close() error
}
