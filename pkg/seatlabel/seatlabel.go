// Package seatlabel converts human seat labels such as "AB12" to and from
// (row, column) pairs. Rows use bijective base-26 letters: A=1 ... Z=26, AA=27.
package seatlabel

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// MaxLength is the longest accepted label, letters and digits combined.
const MaxLength = 7

var (
	ErrInvalidFormat = errors.New("invalid seat format")
	ErrOutOfRange    = errors.New("seat out of range")
)

// Seat is a decoded seat position. Row and Column are 1-based.
type Seat struct {
	Row    int
	Column int
}

// Label returns the canonical label of the seat.
func (s Seat) Label() string {
	return Format(s.Row, s.Column)
}

// Parse splits the leading letter run from the trailing digit run and decodes
// both. Lowercase ASCII letters are accepted. Non-ASCII input is rejected
// before case folding, so "ı1" or "ſ1" never fold into I1 or S1.
func Parse(label string) (Seat, error) {
	if label == "" || len(label) > MaxLength {
		return Seat{}, fmt.Errorf("%w: %q must be 1-%d characters", ErrInvalidFormat, label, MaxLength)
	}

	for i := 0; i < len(label); i++ {
		if label[i] >= utf8.RuneSelf {
			return Seat{}, fmt.Errorf("%w: %q is not ASCII", ErrInvalidFormat, label)
		}
	}
	upper := strings.ToUpper(label)

	split := 0
	for split < len(upper) && isLetter(upper[split]) {
		split++
	}
	letters, digits := upper[:split], upper[split:]
	if letters == "" || digits == "" {
		return Seat{}, fmt.Errorf("%w: %q needs row letters followed by column digits", ErrInvalidFormat, label)
	}
	for i := 0; i < len(digits); i++ {
		if !isDigit(digits[i]) {
			return Seat{}, fmt.Errorf("%w: %q has unexpected character %q", ErrInvalidFormat, label, digits[i])
		}
	}

	column, err := strconv.Atoi(digits)
	if err != nil || column < 1 {
		return Seat{}, fmt.Errorf("%w: %q has no usable column number", ErrInvalidFormat, label)
	}

	row, err := RowNumber(letters)
	if err != nil {
		return Seat{}, err
	}

	return Seat{Row: row, Column: column}, nil
}

// Validate parses label and checks it against a hall of rows x seatsPerRow.
func Validate(label string, rows, seatsPerRow int) (Seat, error) {
	seat, err := Parse(label)
	if err != nil {
		return Seat{}, err
	}

	if seat.Row > rows || seat.Column > seatsPerRow {
		return Seat{}, fmt.Errorf("%w: %s is outside %d rows x %d seats", ErrOutOfRange, seat.Label(), rows, seatsPerRow)
	}

	return seat, nil
}

// Canonical returns the stored form of label ("aa07" -> "AA7").
func Canonical(label string) (string, error) {
	seat, err := Parse(label)
	if err != nil {
		return "", err
	}
	return seat.Label(), nil
}

// RowNumber decodes uppercase row letters.
func RowNumber(letters string) (int, error) {
	if letters == "" {
		return 0, fmt.Errorf("%w: empty row", ErrInvalidFormat)
	}

	n := 0
	for i := 0; i < len(letters); i++ {
		if !isLetter(letters[i]) {
			return 0, fmt.Errorf("%w: %q is not a row", ErrInvalidFormat, letters)
		}
		n = n*26 + int(letters[i]-'A') + 1
	}
	return n, nil
}

// RowLetters is the inverse of RowNumber. It returns "" for n < 1.
func RowLetters(n int) string {
	var buf []byte
	for n > 0 {
		n--
		buf = append(buf, byte('A'+n%26))
		n /= 26
	}
	for i, j := 0, len(buf)-1; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}
	return string(buf)
}

// Format builds the canonical label for a 1-based row and column.
func Format(row, column int) string {
	return RowLetters(row) + strconv.Itoa(column)
}

func isLetter(c byte) bool { return c >= 'A' && c <= 'Z' }

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
