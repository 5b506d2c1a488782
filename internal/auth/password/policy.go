package password

import (
	"fmt"
	"unicode"

	dErrors "smartparking/pkg/domain-errors"
)

// Policy checks a candidate password before it is hashed.
type Policy interface {
	Check(plaintext string) error
}

// SimplePolicy only enforces a minimum length.
type SimplePolicy struct {
	MinLength int
}

func (p SimplePolicy) Check(plaintext string) error {
	minLen := p.MinLength
	if minLen == 0 {
		minLen = 6
	}
	if len([]rune(plaintext)) < minLen {
		return dErrors.Validation("password", fmt.Sprintf("must be at least %d characters", minLen))
	}
	return nil
}

// StrongPolicy requires upper and lower case letters, a digit and a symbol.
type StrongPolicy struct {
	MinLength int
}

func (p StrongPolicy) Check(plaintext string) error {
	minLen := p.MinLength
	if minLen == 0 {
		minLen = MinLength
	}
	if len([]rune(plaintext)) < minLen {
		return dErrors.Validation("password", fmt.Sprintf("must be at least %d characters", minLen))
	}

	var upper, lower, digit, symbol bool
	for _, r := range plaintext {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r) || unicode.IsSpace(r):
			symbol = true
		}
	}
	switch {
	case !upper:
		return dErrors.Validation("password", "must include an uppercase letter")
	case !lower:
		return dErrors.Validation("password", "must include a lowercase letter")
	case !digit:
		return dErrors.Validation("password", "must include a digit")
	case !symbol:
		return dErrors.Validation("password", "must include a special character")
	}
	return nil
}
