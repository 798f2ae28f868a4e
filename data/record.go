package data

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/phase1912/BigFileSorterGenerator/public"
)

// Record is one line of input split into its integer key and payload.
// Line keeps the original text, which is what gets written back out.
type Record struct {
	Key     int64
	Payload string
	Line    string
}

// ParseRecord splits line on the first separator. An unparsable key or a
// missing separator falls back to key 0, the whole line being the payload
// in the latter case.
func ParseRecord(line string) Record {
	rec, _ := parseRecord(line)
	return rec
}

// ParseRecordStrict is ParseRecord that reports a *public.FormatError when
// the text before the separator is not an integer. Lines without a
// separator are still valid.
func ParseRecordStrict(line string) (Record, error) {
	return parseRecord(line)
}

func parseRecord(line string) (Record, error) {
	idx := strings.IndexByte(line, public.RecordSeparator)
	if idx < 0 {
		return Record{Payload: line, Line: line}, nil
	}
	rec := Record{Payload: line[idx+1:], Line: line}
	key, err := strconv.ParseInt(strings.TrimSpace(line[:idx]), 10, 64)
	if err != nil {
		return rec, &public.FormatError{Line: line, Err: err}
	}
	rec.Key = key
	return rec, nil
}

// Compare orders records by payload, case-insensitively by code point, then
// by key ascending. It returns -1, 0 or +1.
func Compare(a, b Record) int {
	if c := comparePayload(a.Payload, b.Payload); c != 0 {
		return c
	}
	switch {
	case a.Key < b.Key:
		return -1
	case a.Key > b.Key:
		return 1
	default:
		return 0
	}
}

// CompareLines parses both lines leniently and compares them
func CompareLines(a, b string) int {
	return Compare(ParseRecord(a), ParseRecord(b))
}

// comparePayload upper cases rune by rune with simple case mapping and
// compares ordinals. A proper prefix sorts first.
func comparePayload(a, b string) int {
	for len(a) > 0 && len(b) > 0 {
		ca, cb := a[0], b[0]
		if ca < utf8.RuneSelf && cb < utf8.RuneSelf {
			if ca == cb {
				a, b = a[1:], b[1:]
				continue
			}
			if 'a' <= ca && ca <= 'z' {
				ca -= 'a' - 'A'
			}
			if 'a' <= cb && cb <= 'z' {
				cb -= 'a' - 'A'
			}
			if ca != cb {
				if ca < cb {
					return -1
				}
				return 1
			}
			a, b = a[1:], b[1:]
			continue
		}

		ra, na := utf8.DecodeRuneInString(a)
		rb, nb := utf8.DecodeRuneInString(b)
		if ra != rb {
			ua, ub := unicode.ToUpper(ra), unicode.ToUpper(rb)
			if ua != ub {
				if ua < ub {
					return -1
				}
				return 1
			}
		}
		a, b = a[na:], b[nb:]
	}

	switch {
	case len(a) == 0 && len(b) == 0:
		return 0
	case len(a) == 0:
		return -1
	default:
		return 1
	}
}
