package utils

import (
	"crypto/rand"
	"fmt"
	"time"
)

// bookingCodeAlphabet deliberately omits easily confused characters
// such as 0/O and 1/I so codes read cleanly off a ticket.
const bookingCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// NewBookingCode returns a human-readable booking reference of the form
// BOOK-<unix-seconds>-<9 random characters>. The timestamp keeps codes
// roughly sortable while the random suffix makes them unguessable.
func NewBookingCode() (string, error) {
	buf := make([]byte, 9)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = bookingCodeAlphabet[int(b)%len(bookingCodeAlphabet)]
	}
	return fmt.Sprintf("BOOK-%d-%s", time.Now().UTC().Unix(), buf), nil
}
