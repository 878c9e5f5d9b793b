package token

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// Signer produces and checks the signature of compact tokens
type Signer interface {
	Sign(claims jwt.MapClaims) (string, error)
	// Keyfunc picks the verification key for a parsed token
	Keyfunc(token *jwt.Token) (any, error)
	Method() jwt.SigningMethod
}

// HMACSigner signs with HS256 under the current secret and still accepts
// tokens signed with any of the previous ones. Tokens name their secret
// through the "kid" header.
type HMACSigner struct {
	current string
	keys    map[string][]byte
}

var _ Signer = (*HMACSigner)(nil)

func NewHMACSigner(secret string, previous ...string) *HMACSigner {
	h := &HMACSigner{current: keyID(secret), keys: make(map[string][]byte, len(previous)+1)}
	h.keys[h.current] = []byte(secret)
	for _, p := range previous {
		if p != "" {
			h.keys[keyID(p)] = []byte(p)
		}
	}
	return h
}

// keyID names a secret without revealing it
func keyID(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:6])
}

func (h *HMACSigner) Sign(claims jwt.MapClaims) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	t.Header["kid"] = h.current
	signed, err := t.SignedString(h.keys[h.current])
	return signed, errors.Wrap(err, "HMACSigner.Sign")
}

// Keyfunc uses the secret named by "kid"; tokens without one are checked
// against the current secret.
func (h *HMACSigner) Keyfunc(t *jwt.Token) (any, error) {
	if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, errors.Errorf("HMACSigner.Keyfunc unexpected signing method %v", t.Header["alg"])
	}
	kid, _ := t.Header["kid"].(string)
	if kid == "" {
		kid = h.current
	}
	key, ok := h.keys[kid]
	if !ok {
		return nil, errors.Errorf("HMACSigner.Keyfunc unknown key %q", kid)
	}
	return key, nil
}

func (h *HMACSigner) Method() jwt.SigningMethod {
	return jwt.SigningMethodHS256
}
