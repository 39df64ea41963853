package model

import "github.com/oklog/ulid/v2"

// NewID returns a fresh ULID string. ULIDs sort lexically by creation
// time, which keeps task tie-breaking by creation order a plain string
// comparison.
func NewID() string {
	return ulid.Make().String()
}
