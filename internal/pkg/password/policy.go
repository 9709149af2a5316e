package password

import (
	"fmt"
	"strings"

	"github.com/storefront-api/internal/domain"
)

// Symbols is the set of special characters a password may contain.
const Symbols = "@$!%*?&"

// Policy is a named strength rule. The change-password and reset-password
// flows each carry their own policy and the two are configured separately.
type Policy struct {
	Name          string
	MinLength     int
	RequireLetter bool
	RequireUpper  bool
	RequireLower  bool
	RequireDigit  bool
	RequireSymbol bool
	Message       string
}

// ChangePolicy requires a letter, a digit and a symbol.
func ChangePolicy(minLength int) Policy {
	return Policy{
		Name:          "change-password",
		MinLength:     minLength,
		RequireLetter: true,
		RequireDigit:  true,
		RequireSymbol: true,
		Message:       fmt.Sprintf("New password must be at least %d characters long, include a letter, a number, and a special character", minLength),
	}
}

// ResetPolicy requires an upper-case letter, a lower-case letter and a digit.
func ResetPolicy(minLength int) Policy {
	return Policy{
		Name:         "reset-password",
		MinLength:    minLength,
		RequireUpper: true,
		RequireLower: true,
		RequireDigit: true,
		Message:      fmt.Sprintf("Password must be at least %d characters long, and include at least one uppercase letter, one lowercase letter, and one number", minLength),
	}
}

// Check returns a validation error carrying the policy message when pw does not comply.
// Only ASCII letters, digits and Symbols are accepted.
func (p Policy) Check(pw string) error {
	var letter, upper, lower, digit, symbol bool
	n := 0
	for _, r := range pw {
		n++
		switch {
		case r >= 'A' && r <= 'Z':
			letter, upper = true, true
		case r >= 'a' && r <= 'z':
			letter, lower = true, true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(Symbols, r):
			symbol = true
		default:
			return p.fail()
		}
	}
	if n < p.MinLength ||
		(p.RequireLetter && !letter) ||
		(p.RequireUpper && !upper) ||
		(p.RequireLower && !lower) ||
		(p.RequireDigit && !digit) ||
		(p.RequireSymbol && !symbol) {
		return p.fail()
	}
	return nil
}

func (p Policy) fail() error {
	return domain.NewError(domain.ErrValidation, p.Message)
}
