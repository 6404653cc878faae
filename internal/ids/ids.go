package ids

import "github.com/segmentio/ksuid"

// New returns a sortable unique ID for entities (users, sessions, items).
func New() string {
	return ksuid.New().String()
}
