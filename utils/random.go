package utils

import (
	"crypto/rand"
	"fmt"
	"time"
)

const base36Charset = "0123456789abcdefghijklmnopqrstuvwxyz"

// TicketTokenPrefix is the fixed prefix of every entry pass payload.
const TicketTokenPrefix = "EVT"

// NewTicketToken builds the payload encoded into a purchase QR code:
// "EVT-" + millisecond timestamp + "-" + 9 random base36 characters.
// The scanning flow matches this value against purchases.qr_code, so the
// format must stay stable.
func NewTicketToken(now time.Time) (string, error) {
	suffix, err := RandomBase36(9)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%d-%s", TicketTokenPrefix, now.UnixMilli(), suffix), nil
}

// RandomBase36 returns n random characters from [0-9a-z].
func RandomBase36(n int) (string, error) {
	code := make([]byte, n)

	if _, err := rand.Read(code); err != nil {
		return "", err
	}

	for i := 0; i < n; i++ {
		code[i] = base36Charset[int(code[i])%len(base36Charset)]
	}

	return string(code), nil
}
