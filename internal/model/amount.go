package model

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidAmount indicates a value that cannot be read as a monetary amount.
var ErrInvalidAmount = errors.New("invalid amount")

// maxAmount keeps amount arithmetic far away from int64 overflow.
const maxAmount = Amount(math.MaxInt64 / 1000)

// Amount is a monetary value in minor units (cents).
// It is encoded in JSON as a plain number with up to two decimals.
type Amount int64

// ParseAmount reads a decimal string such as "12", "12.5" or "-3.75".
// A third decimal digit rounds half-up; further digits are ignored.
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}

	if strings.ContainsAny(s, "eE") {
		return parseExponent(s)
	}

	negative := false
	switch s[0] {
	case '-':
		negative = true
		s = s[1:]
	case '+':
		s = s[1:]
	}

	intPart, fracPart, _ := strings.Cut(s, ".")
	if intPart == "" && fracPart == "" {
		return 0, ErrInvalidAmount
	}
	if intPart == "" {
		intPart = "0"
	}
	if !allDigits(intPart) || !allDigits(fracPart) {
		return 0, ErrInvalidAmount
	}

	units, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil || Amount(units) > maxAmount/100 {
		return 0, ErrInvalidAmount
	}

	var cents int64
	if len(fracPart) > 0 {
		cents = int64(fracPart[0]-'0') * 10
	}
	if len(fracPart) > 1 {
		cents += int64(fracPart[1] - '0')
	}
	if len(fracPart) > 2 && fracPart[2] >= '5' {
		cents++
	}

	amount := Amount(units*100 + cents)
	if negative {
		amount = -amount
	}
	return amount, nil
}

func parseExponent(s string) (Amount, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, ErrInvalidAmount
	}
	cents := math.Round(f * 100)
	if math.Abs(cents) > float64(maxAmount) {
		return 0, ErrInvalidAmount
	}
	return Amount(cents), nil
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Cents returns the amount in minor units.
func (a Amount) Cents() int64 {
	return int64(a)
}

// Float64 returns the amount in major units for display only.
func (a Amount) Float64() float64 {
	return float64(a) / 100
}

// String formats the amount with exactly two decimals, e.g. "12.50".
func (a Amount) String() string {
	sign := ""
	v := int64(a)
	if v < 0 {
		sign = "-"
		v = -v
	}
	frac := strconv.FormatInt(v%100, 10)
	if len(frac) == 1 {
		frac = "0" + frac
	}
	return sign + strconv.FormatInt(v/100, 10) + "." + frac
}

// MarshalJSON encodes the amount as the shortest decimal number: 200, 12.5, 0.05.
func (a Amount) MarshalJSON() ([]byte, error) {
	s := a.String()
	s = strings.TrimSuffix(s, "0")
	s = strings.TrimSuffix(s, "0")
	s = strings.TrimSuffix(s, ".")
	return []byte(s), nil
}

// UnmarshalJSON accepts a JSON number or a numeric string.
// Browser forms post amounts as strings, so both must work.
func (a *Amount) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		unquoted, err := strconv.Unquote(s)
		if err != nil {
			return ErrInvalidAmount
		}
		s = unquoted
	}

	parsed, err := ParseAmount(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// MarshalYAML encodes the amount as a decimal number like MarshalJSON.
func (a Amount) MarshalYAML() (any, error) {
	return a.Float64(), nil
}
