package ledger

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
)

// Fiş kodu: 6 karakterlik büyük harf hex (ör: "A3F09C").
// Çakışma ihtimaline karşı üretim maxCodeAttempts kez denenir.
const maxCodeAttempts = 5

func newReceiptCode() (string, error) {
	buf := make([]byte, 3)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return strings.ToUpper(hex.EncodeToString(buf)), nil
}
