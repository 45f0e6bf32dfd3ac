package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const signaturePrefix = "sha256="

func mac(secret string, payload []byte) []byte {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(payload)
	return h.Sum(nil)
}

// Sign returns the X-Vivo-Signature value for payload: "sha256=" followed by
// the hex HMAC-SHA256 under secret.
func Sign(secret string, payload []byte) string {
	return signaturePrefix + hex.EncodeToString(mac(secret, payload))
}

// Verify checks a signature produced by Sign. Receivers often strip the
// scheme or upper-case the digest, so both forms are accepted.
func Verify(secret string, payload []byte, signature string) bool {
	digest := strings.TrimSpace(signature)
	if len(digest) >= len(signaturePrefix) && strings.EqualFold(digest[:len(signaturePrefix)], signaturePrefix) {
		digest = digest[len(signaturePrefix):]
	}
	got, err := hex.DecodeString(digest)
	if err != nil || len(got) != sha256.Size {
		return false
	}
	return hmac.Equal(got, mac(secret, payload))
}
