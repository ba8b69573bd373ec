package api

import (
	"crypto/rand"
	"math/big"
	"regexp"
)

const (
	idLength = 24
	charset  = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	responseIDPrefix     = "resp_"
	messageItemIDPrefix  = "msg_"
	functionCallIDPrefix = "fc_"
)

var (
	responseIDPattern = regexp.MustCompile(`^resp_[a-zA-Z0-9]{24}$`)
	itemIDPattern      = regexp.MustCompile(`^(msg|fc)_[a-zA-Z0-9]{24}$`)
)

// NewResponseID generates the per-request response id, prefix "resp_"
// followed by 24 cryptographically random alphanumeric characters.
func NewResponseID() string {
	return responseIDPrefix + randomAlphanumeric(idLength)
}

// NewMessageItemID generates an id for a message output item, prefix "msg_".
func NewMessageItemID() string {
	return messageItemIDPrefix + randomAlphanumeric(idLength)
}

// NewFunctionCallItemID generates an id for a function-call output item,
// prefix "fc_".
func NewFunctionCallItemID() string {
	return functionCallIDPrefix + randomAlphanumeric(idLength)
}

// ValidateResponseID checks whether id matches the response-id wire format.
func ValidateResponseID(id string) bool {
	return responseIDPattern.MatchString(id)
}

// ValidateItemID checks whether id matches one of the item-id wire formats.
func ValidateItemID(id string) bool {
	return itemIDPattern.MatchString(id)
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
