package engine

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
)

// NewReference returns a fresh reservation reference of the form
// R-XXXXXXXXXX: ten upper-case hex characters from a cryptographically
// secure source, unguessable and safe for external display.  The
// scheme is an implementation detail, not a contract.
func NewReference() (string, error) {
	buf := make([]byte, 5) // 5 bytes -> 10 hex chars
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return "R-" + strings.ToUpper(hex.EncodeToString(buf)), nil
}
