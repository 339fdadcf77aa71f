package core

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

var ErrInvalidAmount = errors.New("invalid amount")

// ParseAmount converts a decimal string to a float amount.
//
// Only the dot decimal separator is accepted, so "1,234" is an error
// rather than a silently misread amount. Surrounding whitespace is ignored
// and the sign is not restricted. NaN and infinities are rejected since
// they cannot be stored or encoded as JSON.
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	if err := CheckAmount(v); err != nil {
		return 0, err
	}
	return v, nil
}

// CheckAmount rejects values that are not finite.
func CheckAmount(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ErrInvalidAmount
	}
	return nil
}
