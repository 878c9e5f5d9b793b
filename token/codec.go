package token

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"unicode/utf8"

	"github.com/golang-jwt/jwt/v5"
	hmserrors "github.com/jrsteele09/go-hms-admin/internal/errors"
	"github.com/pkg/errors"
)

var urlAlphabet = strings.NewReplacer("-", "+", "_", "/")

// Decode returns the payload claims of a compact token (header.payload.signature).
// The signature is not checked, the backend is the trust boundary.
// Any malformed input yields ErrMalformedToken.
func Decode(raw string) (Claims, error) {
	parts := strings.Split(strings.TrimSpace(raw), ".")
	if len(parts) < 2 {
		return nil, errors.Wrap(hmserrors.ErrMalformedToken, "token.Decode segments")
	}

	payload := urlAlphabet.Replace(parts[1])
	if rem := len(payload) % 4; rem != 0 {
		payload += strings.Repeat("=", 4-rem)
	}

	decoded, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, errors.Wrapf(hmserrors.ErrMalformedToken, "token.Decode base64: %v", err)
	}
	if !utf8.Valid(decoded) {
		return nil, errors.Wrap(hmserrors.ErrMalformedToken, "token.Decode payload is not utf-8")
	}

	var claims Claims
	if err := json.Unmarshal(decoded, &claims); err != nil {
		return nil, errors.Wrapf(hmserrors.ErrMalformedToken, "token.Decode json: %v", err)
	}
	if claims == nil {
		return nil, errors.Wrap(hmserrors.ErrMalformedToken, "token.Decode empty payload")
	}
	return claims, nil
}

// Encode signs the claims into a compact token.
func Encode(claims Claims, signer Signer) (string, error) {
	if signer == nil {
		return "", errors.New("token.Encode nil signer")
	}
	return signer.Sign(jwt.MapClaims(claims))
}

// Verify parses a compact token and validates its signature and time claims.
// Only the mock backend calls this; clients use Decode.
func Verify(raw string, signer Signer, options ...jwt.ParserOption) (Claims, error) {
	options = append(options, jwt.WithValidMethods([]string{signer.Method().Alg()}))
	parsed, err := jwt.Parse(raw, signer.Keyfunc, options...)
	if err != nil {
		return nil, errors.Wrap(err, "token.Verify Parse")
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return nil, errors.New("token.Verify error extracting claims")
	}
	return Claims(claims), nil
}
