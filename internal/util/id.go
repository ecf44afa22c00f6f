package util

import (
	"crypto/rand"
	"encoding/hex"
)

// NewID returns a random identifier such as "itm_3f2a…". The prefix makes
// IDs self-describing in logs and audit rows.
func NewID(prefix string) string {
	bytes := make([]byte, 16)
	_, _ = rand.Read(bytes)
	if prefix == "" {
		return hex.EncodeToString(bytes)
	}
	return prefix + "_" + hex.EncodeToString(bytes)
}
