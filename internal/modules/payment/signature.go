package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// SignatureField is the notification field that carries the signature.
const SignatureField = "hmac"

// Verifier checks HitPay webhook signatures with the shared salt.
type Verifier struct {
	salt []byte
}

func NewVerifier(salt string) *Verifier {
	return &Verifier{salt: []byte(salt)}
}

// Sign returns the hex HMAC-SHA256 of fields: every key except "hmac", sorted
// byte-wise, joined as key+value with no separator.
func (v *Verifier) Sign(fields map[string]string) string {
	return hex.EncodeToString(v.mac(fields))
}

// Verify reports whether signature matches fields. The comparison is
// constant time.
func (v *Verifier) Verify(fields map[string]string, signature string) bool {
	got, err := hex.DecodeString(strings.TrimSpace(signature))
	if err != nil || len(got) == 0 {
		return false
	}
	return hmac.Equal(v.mac(fields), got)
}

func (v *Verifier) mac(fields map[string]string) []byte {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		if k == SignatureField {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteString(fields[k])
	}

	m := hmac.New(sha256.New, v.salt)
	m.Write([]byte(b.String()))
	return m.Sum(nil)
}
