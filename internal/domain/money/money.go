// Package money converts user-facing decimal amounts to integer cents and
// computes percentages of cent totals.
package money

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/rpggio/probill/internal/domain/errkind"
	"github.com/shopspring/decimal"
)

var (
	// ErrMalformedAmount indicates the input is not a decimal number.
	ErrMalformedAmount = errkind.New(errkind.ErrInvalidAmount, "amount is not a decimal number")
	// ErrNegativeAmount indicates a negative amount.
	ErrNegativeAmount = errkind.New(errkind.ErrInvalidAmount, "amount must not be negative")
	// ErrAmountTooLarge indicates the amount does not fit in int64 cents.
	ErrAmountTooLarge = errkind.New(errkind.ErrInvalidAmount, "amount is too large")
	// ErrMalformedPercent indicates the input is not a decimal percentage.
	ErrMalformedPercent = errkind.New(errkind.ErrInvalidPercent, "percent is not a decimal number")
	// ErrPercentOutOfRange indicates a percentage outside (0,100].
	ErrPercentOutOfRange = errkind.New(errkind.ErrInvalidPercent, "percent must be greater than 0 and at most 100")
)

var (
	hundred      = decimal.NewFromInt(100)
	maxCents     = decimal.NewFromInt(math.MaxInt64)
	plainDecimal = regexp.MustCompile(`^(\d+(\.\d*)?|\.\d+)$`)
	groupingRune = strings.NewReplacer(" ", "", "\u00a0", "", "\u202f", "", "'", "", "_", "")
)

// ParseDecimalToCents parses a locale-formatted decimal string ("12.50",
// "12,50", "1 234,56", "1,234.56") into cents, rounding half away from zero.
func ParseDecimalToCents(input string) (int64, error) {
	value, err := parseDecimal(input)
	if err != nil {
		if errors.Is(err, errNegative) {
			return 0, ErrNegativeAmount
		}
		return 0, fmt.Errorf("%w: %q", ErrMalformedAmount, input)
	}

	cents := value.Mul(hundred).Round(0)
	if cents.GreaterThan(maxCents) {
		return 0, ErrAmountTooLarge
	}
	return cents.IntPart(), nil
}

// ParsePercent parses a locale-formatted percentage ("12,5", "50 %") and
// checks it lies in (0,100].
func ParsePercent(input string) (decimal.Decimal, error) {
	trimmed := strings.TrimSuffix(strings.TrimSpace(input), "%")
	value, err := parseDecimal(trimmed)
	if err != nil {
		if errors.Is(err, errNegative) {
			return decimal.Zero, ErrPercentOutOfRange
		}
		return decimal.Zero, fmt.Errorf("%w: %q", ErrMalformedPercent, input)
	}
	if err := CheckPercent(value); err != nil {
		return decimal.Zero, err
	}
	return value, nil
}

// CheckPercent reports ErrPercentOutOfRange unless 0 < percent <= 100.
func CheckPercent(percent decimal.Decimal) error {
	if !percent.IsPositive() || percent.GreaterThan(hundred) {
		return ErrPercentOutOfRange
	}
	return nil
}

// PercentOf returns round(totalCents * percent / 100).
func PercentOf(totalCents int64, percent decimal.Decimal) (int64, error) {
	if err := CheckPercent(percent); err != nil {
		return 0, err
	}
	if totalCents < 0 {
		return 0, ErrNegativeAmount
	}
	return decimal.NewFromInt(totalCents).Mul(percent).Div(hundred).Round(0).IntPart(), nil
}

// FormatCents renders cents as a plain decimal string, e.g. 123456 -> "1234.56".
func FormatCents(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}

var (
	errNegative  = errors.New("negative amount")
	errMalformed = errors.New("malformed decimal")
)

func parseDecimal(input string) (decimal.Decimal, error) {
	s := groupingRune.Replace(strings.TrimSpace(input))
	s = strings.TrimPrefix(s, "+")
	if strings.HasPrefix(s, "-") {
		if _, err := parseDecimal(s[1:]); err == nil {
			return decimal.Zero, errNegative
		}
		return decimal.Zero, errMalformed
	}

	s = normalizeSeparators(s)
	if !plainDecimal.MatchString(s) {
		return decimal.Zero, errMalformed
	}
	return decimal.NewFromString(s)
}

// normalizeSeparators rewrites s so that "." is the only decimal separator
// and grouping separators are gone. When both "," and "." occur, the last one
// is the decimal separator. A single "," or "." is a decimal separator; a
// repeated one is a grouping separator.
func normalizeSeparators(s string) string {
	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")

	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			return strings.Replace(s, ",", ".", 1)
		}
		return strings.ReplaceAll(s, ",", "")
	case lastComma >= 0:
		if strings.Count(s, ",") > 1 {
			return strings.ReplaceAll(s, ",", "")
		}
		return strings.Replace(s, ",", ".", 1)
	case lastDot >= 0 && strings.Count(s, ".") > 1:
		return strings.ReplaceAll(s, ".", "")
	}
	return s
}
