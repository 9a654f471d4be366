package chain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// DigestDomain prefixes every resolution digest. The version suffix changes
// whenever the digest input changes shape.
const DigestDomain = "parttrack/resolution/v1"

// Digest returns a hex SHA-256 over the JSON form of r, separated from the
// domain by a null byte. Two resolutions digest equally exactly when their
// chains, effective state, duplicates, roots, loops and last update match.
func Digest(r Result) (string, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("digest resolution: %w", err)
	}
	h := sha256.New()
	h.Write([]byte(DigestDomain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil)), nil
}
