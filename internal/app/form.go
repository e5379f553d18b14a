package app

import (
	"fmt"

	"github.com/charmbracelet/bubbles/textinput"
)

// numericValidator constrains a mix field to a non-negative number while it
// is being typed: digits plus at most one decimal point, digits only for
// integer fields. Rejecting the minus sign makes negative entry impossible.
func numericValidator(integer bool) textinput.ValidateFunc {
	return func(s string) error {
		seenDot := false
		for _, r := range s {
			if r == '.' {
				if integer {
					return fmt.Errorf("must be a whole number")
				}
				if seenDot {
					return fmt.Errorf("only one decimal point allowed")
				}
				seenDot = true
				continue
			}
			if r < '0' || r > '9' {
				return fmt.Errorf("must be a non-negative number")
			}
		}
		return nil
	}
}
