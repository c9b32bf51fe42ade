package subsonic

import (
	"crypto/md5"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
	"net/url"

	"github.com/mthorne/subwave/internal/domain/model"
)

// saltAlphabet is the character set salts are drawn from.
const saltAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ1234567890"

// DefaultSaltLength is the salt length used unless a client overrides it.
const DefaultSaltLength = 8

// authParams builds the authentication query parameters for a credential.
// For a password credential this generates a fresh random salt and emits
// {u, s, t} with t = md5(password + salt); the raw password is never
// emitted, and the token is intentionally different on every call so the
// literal hash cannot be replayed. For an API key credential it emits
// {apiKey}.
func authParams(cred model.Credential, saltLength int) (url.Values, error) {
	params := url.Values{}

	switch c := cred.(type) {
	case model.PasswordCredential:
		salt, err := generateSalt(saltLength)
		if err != nil {
			return nil, fmt.Errorf("generate salt: %w", err)
		}
		params.Set("u", c.Username)
		params.Set("s", salt)
		params.Set("t", md5Hex(c.Password+salt))
	case model.APIKeyCredential:
		params.Set("apiKey", c.Key)
	default:
		return nil, &model.ConfigurationError{Reason: fmt.Sprintf("unsupported credential type %T", cred)}
	}

	return params, nil
}

// generateSalt draws length characters from saltAlphabet using crypto/rand.
func generateSalt(length int) (string, error) {
	if length <= 0 {
		length = DefaultSaltLength
	}
	max := big.NewInt(int64(len(saltAlphabet)))
	salt := make([]byte, length)
	for i := range salt {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		salt[i] = saltAlphabet[n.Int64()]
	}
	return string(salt), nil
}

// md5Hex hashes a string through MD5 and hex-encodes the digest. Yes, MD5
// is broken; the Subsonic token scheme mandates it and will not change.
func md5Hex(input string) string {
	sum := md5.Sum([]byte(input))
	return hex.EncodeToString(sum[:])
}
