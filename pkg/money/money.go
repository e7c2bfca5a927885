// Package money converts between integer euro cents and the de-AT display
// strings the POS screens show.
package money

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"
)

var ErrInvalidAmount = errors.New("invalid amount")

const dateTimeLayout = "15:04 • 02.01.2006"

var maxCents = decimal.NewFromInt(math.MaxInt64)

// FormatEUR renders cents as "€ 1.234,50".
func FormatEUR(cents int64) string {
	sign := ""
	u := uint64(cents)
	if cents < 0 {
		sign = "-"
		u = uint64(-cents)
	}
	return fmt.Sprintf("%s€ %s,%02d", sign, groupThousands(u/100), u%100)
}

// ParseEUR accepts "3", "3.5", "3,5", "€ 3,50" and "€ 1.234,50". When a comma
// is present it is the decimal separator and dots are thousands separators.
// The result is rounded half away from zero to whole cents.
func ParseEUR(input string) (int64, error) {
	cleaned := strings.Map(func(r rune) rune {
		if r == '€' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, input)
	if cleaned == "" {
		return 0, errors.Wrapf(ErrInvalidAmount, "parse %q", input)
	}

	if strings.Contains(cleaned, ",") {
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.Replace(cleaned, ",", ".", 1)
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return 0, errors.Wrapf(ErrInvalidAmount, "parse %q", input)
	}

	cents := d.Shift(2).Round(0)
	if cents.Abs().GreaterThan(maxCents) {
		return 0, errors.Wrapf(ErrInvalidAmount, "out of range %q", input)
	}
	return cents.IntPart(), nil
}

// FormatDateTime renders an epoch-millisecond timestamp as "15:04 • 02.01.2006".
func FormatDateTime(ms int64, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return time.UnixMilli(ms).In(loc).Format(dateTimeLayout)
}

func groupThousands(n uint64) string {
	s := strconv.FormatUint(n, 10)
	if len(s) <= 3 {
		return s
	}

	var b strings.Builder
	head := len(s) % 3
	if head > 0 {
		b.WriteString(s[:head])
	}
	for i := head; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
