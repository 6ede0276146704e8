package utils

import (
	"crypto/rand"
	"math/big"
)

// ReferenceLength is the fixed length of participant reference numbers.
const ReferenceLength = 12

// CodeLength is the fixed length of email verification codes.
const CodeLength = 6

// referenceAlphabet deliberately drops 0/O and 1/I so reference numbers
// survive being read aloud or retyped from a printed ticket.
const referenceAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// NewReferenceNumber returns a fixed-length, URL-safe reference number
// drawn from crypto/rand. With a 32-symbol alphabet and 12 positions the
// keyspace is 32^12 (~10^18), so collisions at portal scale are vanishingly
// rare; the database still enforces uniqueness as a hard constraint and the
// caller retries on a collision.
func NewReferenceNumber() (string, error) {
	return randomFrom(referenceAlphabet, ReferenceLength)
}

// NewNumericCode returns a uniformly random string of CodeLength ASCII
// digits for email verification. Each digit is drawn independently from
// crypto/rand so the code is not predictable from time or subject id.
func NewNumericCode() (string, error) {
	return randomFrom("0123456789", CodeLength)
}

func randomFrom(alphabet string, length int) (string, error) {
	max := big.NewInt(int64(len(alphabet)))
	b := make([]byte, length)
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = alphabet[n.Int64()]
	}
	return string(b), nil
}
