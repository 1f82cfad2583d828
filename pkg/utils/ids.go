package utils

import (
	"crypto/rand"
	"fmt"
	"time"
)

const idAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// ConversationID renders conv_<unixMillis>_<9 random chars>.
func ConversationID(at time.Time) string {
	return fmt.Sprintf("conv_%d_%s", at.UnixMilli(), RandomString(9))
}

// RandomString returns n lowercase alphanumerics.
func RandomString(n int) string {
	buf := make([]byte, n)
	_, _ = rand.Read(buf)
	for i, b := range buf {
		buf[i] = idAlphabet[int(b)%len(idAlphabet)]
	}
	return string(buf)
}
