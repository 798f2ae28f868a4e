package bytex

import (
	"fmt"

	"golang.org/x/exp/rand"
)

const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

const (
	MinRecordKey = 1
	MaxRecordKey = 1000000
)

// RandomPayload returns length random upper case latin letters
func RandomPayload(r *rand.Rand, length int) string {
	b := make([]byte, length)
	for i := range b {
		b[i] = charset[r.Intn(len(charset))]
	}
	return string(b)
}

// RandomKey returns a key in [MinRecordKey, MaxRecordKey)
func RandomKey(r *rand.Rand) int {
	return MinRecordKey + r.Intn(MaxRecordKey-MinRecordKey)
}

// RandomRecord formats a `<key>.<payload>` line without separator
func RandomRecord(r *rand.Rand, payloadLen int) string {
	return fmt.Sprintf("%d.%s", RandomKey(r), RandomPayload(r, payloadLen))
}

// RandomRecords returns n records, handy for test inputs
func RandomRecords(r *rand.Rand, n, payloadLen int) []string {
	lines := make([]string, n)
	for i := range lines {
		lines[i] = RandomRecord(r, payloadLen)
	}
	return lines
}
