package tag

import (
	"crypto/sha256"
	"encoding/hex"
)

// DomainHeader is the domain prefix for header image digests.
// The version suffix leaves room for a future algorithm change.
const DomainHeader = "tagproxy/header/v1"

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The NUL separator keeps the domain/data boundary unambiguous.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Digest returns the content digest of a binary header image.
// Two headers with identical entries have identical digests.
func Digest(image []byte) string {
	return hashWithDomain(DomainHeader, image)
}
