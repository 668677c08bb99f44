package api

import (
	"crypto/rand"
	"math/big"
	"regexp"
)

const (
	idLength = 24
	charset  = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	translationIDPrefix = "tr_"
)

var translationIDPattern = regexp.MustCompile(`^tr_[a-zA-Z0-9]{24}$`)

// NewTranslationID generates a new translation ID with the "tr_" prefix
// followed by 24 cryptographically random alphanumeric characters. The same
// ID names the session in logs and the history record it produces.
func NewTranslationID() string {
	return translationIDPrefix + randomAlphanumeric(idLength)
}

// ValidateTranslationID checks whether the given string is a valid
// translation ID.
func ValidateTranslationID(id string) bool {
	return translationIDPattern.MatchString(id)
}

func randomAlphanumeric(n int) string {
	max := big.NewInt(int64(len(charset)))
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic("crypto/rand failed: " + err.Error())
		}
		b[i] = charset[idx.Int64()]
	}
	return string(b)
}
