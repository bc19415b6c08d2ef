package crypto

import (
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/blake2b"

	"groupkeys/internal/domain"
)

const (
	fingerprintLabel = "groupkeys/fingerprint/v1"
	fingerprintBytes = 10
)

// Fingerprint covers both published identity keys. It is rendered as five
// space-separated groups of four hex digits.
func Fingerprint(xpub domain.X25519Public, edpub domain.Ed25519Public) domain.Fingerprint {
	h, _ := blake2b.New(fingerprintBytes, nil)
	_, _ = h.Write([]byte(fingerprintLabel))
	_, _ = h.Write(xpub[:])
	_, _ = h.Write(edpub[:])
	digits := hex.EncodeToString(h.Sum(nil))

	groups := make([]string, 0, len(digits)/4)
	for i := 0; i < len(digits); i += 4 {
		groups = append(groups, digits[i:i+4])
	}
	return domain.Fingerprint(strings.Join(groups, " "))
}
