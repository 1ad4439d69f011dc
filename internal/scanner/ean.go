package scanner

import (
	"errors"
	"strings"
)

// ErrNotFound reports a frame that held no barcode. It is expected on every
// noisy frame and is not fatal to a session.
var ErrNotFound = errors.New("no barcode found in frame")

// Format identifies a barcode symbology.
type Format int

const (
	FormatUnknown Format = iota
	FormatEAN13
	FormatEAN8
)

// String returns the symbology name.
func (f Format) String() string {
	switch f {
	case FormatEAN13:
		return "EAN_13"
	case FormatEAN8:
		return "EAN_8"
	default:
		return "UNKNOWN"
	}
}

// Result is one decoded barcode.
type Result struct {
	Text     string
	Format   Format
	DeviceID string
}

// Decode validates one frame. Surrounding whitespace is ignored. A 12-digit
// UPC-A code is returned as the equivalent EAN-13 with a leading zero.
func Decode(frame string) (Result, error) {
	code := strings.TrimSpace(frame)

	var format Format
	switch len(code) {
	case 13:
		format = FormatEAN13
	case 12:
		format = FormatEAN13
		code = "0" + code
	case 8:
		format = FormatEAN8
	default:
		return Result{}, ErrNotFound
	}

	if !validChecksum(code) {
		return Result{}, ErrNotFound
	}
	return Result{Text: code, Format: format}, nil
}

// validChecksum checks the GTIN check digit. Weights alternate 3,1 from the
// digit next to the check digit, which covers EAN-8 and EAN-13 alike.
func validChecksum(code string) bool {
	sum := 0
	last := len(code) - 1
	for i := 0; i < len(code); i++ {
		c := code[i]
		if c < '0' || c > '9' {
			return false
		}
		if i == last {
			break
		}
		d := int(c - '0')
		if (last-i)%2 == 1 {
			d *= 3
		}
		sum += d
	}
	check := (10 - sum%10) % 10
	return int(code[last]-'0') == check
}
