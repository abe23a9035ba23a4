package utils

import (
	"math/rand"
)

const inviteCodeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateInviteCode returns a new invite code using a stable NA prefix
// followed by five characters from the uppercase alphanumeric charset.
// Codes issued during early access use the same format so lookups stay
// compatible.
func GenerateInviteCode() string {
	suffix := make([]byte, 5)
	for i := range suffix {
		suffix[i] = inviteCodeCharset[rand.Intn(len(inviteCodeCharset))]
	}
	return "NA" + string(suffix)
}
