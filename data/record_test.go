package data

import (
	"errors"
	"testing"

	"github.com/phase1912/BigFileSorterGenerator/public"
	"github.com/phase1912/BigFileSorterGenerator/public/utils/bytex"
	"github.com/stretchr/testify/assert"
	"golang.org/x/exp/rand"
	"golang.org/x/exp/slices"
)

func TestParseRecord(t *testing.T) {
	rec := ParseRecord("415.Apple")
	assert.Equal(t, int64(415), rec.Key)
	assert.Equal(t, "Apple", rec.Payload)
	assert.Equal(t, "415.Apple", rec.Line)

	// no separator, the whole line is the payload
	rec = ParseRecord("hello")
	assert.Equal(t, int64(0), rec.Key)
	assert.Equal(t, "hello", rec.Payload)

	// only the first separator splits
	rec = ParseRecord("7.a.b")
	assert.Equal(t, int64(7), rec.Key)
	assert.Equal(t, "a.b", rec.Payload)

	// unparsable key falls back to 0
	rec = ParseRecord("x1.kiwi")
	assert.Equal(t, int64(0), rec.Key)
	assert.Equal(t, "kiwi", rec.Payload)

	rec = ParseRecord(" -12 .neg")
	assert.Equal(t, int64(-12), rec.Key)

	rec = ParseRecord("")
	assert.Equal(t, "", rec.Payload)
}

func TestParseRecordStrict(t *testing.T) {
	rec, err := ParseRecordStrict("5.kiwi")
	assert.Nil(t, err)
	assert.Equal(t, int64(5), rec.Key)

	_, err = ParseRecordStrict("hello")
	assert.Nil(t, err)

	_, err = ParseRecordStrict("five.kiwi")
	var formatErr *public.FormatError
	assert.True(t, errors.As(err, &formatErr))
	assert.Equal(t, "five.kiwi", formatErr.Line)

	_, err = ParseRecordStrict(".kiwi")
	assert.NotNil(t, err)
}

func TestCompare(t *testing.T) {
	// payload first
	assert.Equal(t, -1, CompareLines("3.apple", "1.banana"))
	assert.Equal(t, 1, CompareLines("1.banana", "3.apple"))

	// numeric tie break, not lexical
	assert.Equal(t, -1, CompareLines("2.kiwi", "5.kiwi"))
	assert.Equal(t, -1, CompareLines("9.kiwi", "10.kiwi"))

	// case insensitive payload
	assert.Equal(t, 0, CompareLines("1.Apple", "1.aPPLE"))
	assert.Equal(t, -1, CompareLines("1.APPLE", "2.apple"))

	// a prefix sorts first
	assert.Equal(t, -1, CompareLines("9.app", "1.apple"))

	// ordinal, not locale: '_' (0x5F) sorts after upper cased letters
	assert.Equal(t, -1, CompareLines("1.z", "1._"))

	// non ascii runes are upper cased too
	assert.Equal(t, 0, CompareLines("1.éclair", "1.ÉCLAIR"))
	assert.Equal(t, 1, CompareLines("1.éclair", "1.zebra"))

	assert.Equal(t, 0, CompareLines("4.same", "4.same"))
}

func TestCompare_NoSeparatorInterleaves(t *testing.T) {
	lines := []string{"2.hello", "hello", "1.hello", "1.apple", "0.zoo"}
	records := make([]Record, len(lines))
	for i, line := range lines {
		records[i] = ParseRecord(line)
	}
	slices.SortStableFunc(records, Compare)

	var got []string
	for _, rec := range records {
		got = append(got, rec.Line)
	}
	assert.Equal(t, []string{"1.apple", "hello", "1.hello", "2.hello", "0.zoo"}, got)
}

func TestCompare_Consistency(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	var records []Record
	for i := 0; i < 200; i++ {
		// short payloads from a tiny alphabet give plenty of ties
		line := bytex.RandomRecord(r, 1+r.Intn(2))
		if i%3 == 0 {
			line = bytex.RandomPayload(r, 1)
		}
		records = append(records, ParseRecord(line))
	}

	for _, a := range records {
		assert.Equal(t, 0, Compare(a, a))
		for _, b := range records {
			assert.Equal(t, Compare(a, b), -Compare(b, a))
		}
	}

	// transitivity over a sample
	for i := 0; i < 60; i++ {
		for j := 0; j < 60; j++ {
			for k := 0; k < 60; k++ {
				a, b, c := records[i], records[j], records[k]
				if Compare(a, b) <= 0 && Compare(b, c) <= 0 {
					assert.LessOrEqual(t, Compare(a, c), 0)
				}
			}
		}
	}
}
