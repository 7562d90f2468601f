package ids

import "github.com/segmentio/ksuid"

// New returns a fresh sortable identifier for persisted entities.
func New() string {
	return ksuid.New().String()
}
