package journal

import (
	"crypto/sha256"
	"encoding/hex"
)

// DomainEntry prefixes journal entry hashes. The version suffix allows
// the identity scheme to change without colliding with old IDs.
const DomainEntry = "velirion/presale/entry/v1"

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}
