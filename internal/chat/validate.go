package chat

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// MaxNameLength is the longest display name accepted, counted in characters.
const MaxNameLength = 50

var (
	nameValidator = validator.New(validator.WithRequiredStructEnabled())
	nameRule      = fmt.Sprintf("required,max=%d", MaxNameLength)
)

// ValidateName trims name and checks it against the display name rules.
// It returns the trimmed name and a *ValidationError when the name is
// rejected.
func ValidateName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)

	err := nameValidator.Var(trimmed, nameRule)
	if err == nil {
		return trimmed, nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		switch fieldErrs[0].Tag() {
		case "required":
			return trimmed, &ValidationError{Kind: EmptyName, Name: trimmed}
		case "max":
			return trimmed, &ValidationError{Kind: NameTooLong, Name: trimmed}
		}
	}
	return trimmed, fmt.Errorf("validate name: %w", err)
}
