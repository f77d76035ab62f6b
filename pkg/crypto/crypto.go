package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// uinAlphabet avoids ambiguous characters so issued identifiers survive
// transcription from printed cards.
const uinAlphabet = "ABCDEFGHJKMNPQRSTVWXYZ0123456789"

// GenerateToken returns a random URL-safe token of the requested byte length.
func GenerateToken(length int) (string, error) {
	if length <= 0 {
		return "", errors.New("crypto: token length must be positive")
	}

	buffer := make([]byte, length)
	if _, err := rand.Read(buffer); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buffer), nil
}

// GenerateUIN produces a unique identification number of the form
// UIN-XXXXXXXXXXXX using an unambiguous alphabet.
func GenerateUIN() (string, error) {
	return generateIdentifier("UIN", 12)
}

// IsValidUIN reports whether s has the issued identifier shape:
// UIN- followed by twelve characters of the unambiguous alphabet.
func IsValidUIN(s string) bool {
	const prefix = "UIN-"
	if len(s) != len(prefix)+12 || s[:len(prefix)] != prefix {
		return false
	}
	for _, r := range s[len(prefix):] {
		if !strings.ContainsRune(uinAlphabet, r) {
			return false
		}
	}
	return true
}

func generateIdentifier(prefix string, length int) (string, error) {
	buffer := make([]byte, length)
	if _, err := rand.Read(buffer); err != nil {
		return "", err
	}

	out := make([]byte, length)
	for i, b := range buffer {
		out[i] = uinAlphabet[int(b)%len(uinAlphabet)]
	}

	return fmt.Sprintf("%s-%s", prefix, string(out)), nil
}
