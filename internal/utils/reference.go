package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// NewReservationReference builds a human-readable, unique booking reference
// such as "RSV-20240921-4F2A9C": the check-in date plus a random hex suffix.
// The date prefix makes references easy to eyeball at the front desk; the
// random suffix (crypto/rand) makes collisions practically impossible, and
// the unique index on reservations.reference catches the rest.
func NewReservationReference(checkIn time.Time) (string, error) {
	buf := make([]byte, 3)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	suffix := strings.ToUpper(hex.EncodeToString(buf))
	return fmt.Sprintf("RSV-%s-%s", checkIn.UTC().Format("20060102"), suffix), nil
}
