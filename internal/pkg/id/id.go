package id

import (
	"crypto/rand"

	"github.com/oklog/ulid/v2"
)

// New generates a new ULID string. ULIDs sort by creation time, which keeps
// scans of the products and orders tables roughly chronological.
func New() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}
