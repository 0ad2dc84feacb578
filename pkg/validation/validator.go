package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	// validate is a singleton validator instance
	validate *validator.Validate

	// Validation constants
	MaxNameLength = 256
	MaxTypeLength = 128

	// Regular expressions
	namePattern = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9_./:\-]*$`)
	typePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

// SortModes lists the accepted spellings of a topological sort mode.
var SortModes = []string{"0", "1", "2", "bfs", "dfs", "rdfs"}

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("irname", func(fl validator.FieldLevel) bool {
		return ValidateName(fl.Field().String()) == nil
	})
	_ = validate.RegisterValidation("optype", func(fl validator.FieldLevel) bool {
		return ValidateOpType(fl.Field().String()) == nil
	})
	_ = validate.RegisterValidation("sortmode", func(fl validator.FieldLevel) bool {
		return ValidateSortMode(fl.Field().String()) == nil
	})
}

// Struct validates v using its struct tags. Besides the built-in tags it
// understands irname, optype and sortmode.
func Struct(v any) error {
	if v == nil {
		return errors.New("value cannot be nil")
	}
	if err := validate.Struct(v); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// ValidateName validates a graph, node or subgraph name
func ValidateName(name string) error {
	if name == "" {
		return errors.New("name cannot be empty")
	}
	if len(name) > MaxNameLength {
		return fmt.Errorf("name '%s' exceeds maximum length of %d characters", name, MaxNameLength)
	}
	if !namePattern.MatchString(name) {
		return fmt.Errorf("name '%s' contains invalid characters (alphanumeric, underscore, '.', '/', ':' and '-' allowed)", name)
	}
	return nil
}

// ValidateOpType validates an operation type string
func ValidateOpType(typ string) error {
	if typ == "" {
		return errors.New("operation type cannot be empty")
	}
	if len(typ) > MaxTypeLength {
		return fmt.Errorf("operation type '%s' exceeds maximum length of %d characters", typ, MaxTypeLength)
	}
	if !typePattern.MatchString(typ) {
		return fmt.Errorf("operation type '%s' is invalid (must start with letter or underscore, followed by alphanumeric or underscore)", typ)
	}
	return nil
}

// ValidateSortMode validates a topological sort mode. Empty means unset.
func ValidateSortMode(mode string) error {
	if mode == "" {
		return nil
	}
	m := strings.ToLower(strings.TrimSpace(mode))
	for _, allowed := range SortModes {
		if m == allowed {
			return nil
		}
	}
	return fmt.Errorf("sort mode %q must be one of %v", mode, SortModes)
}

// formatValidationError converts validator errors to a more user-friendly format
func formatValidationError(err error) error {
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	// Return the first validation error in a user-friendly format
	for _, e := range validationErrs {
		field := e.Namespace()
		tag := e.Tag()
		param := e.Param()

		switch tag {
		case "required":
			return fmt.Errorf("%s: field is required", field)
		case "min":
			return fmt.Errorf("%s: must be at least %s", field, param)
		case "max":
			return fmt.Errorf("%s: must not exceed %s", field, param)
		case "oneof":
			return fmt.Errorf("%s: must be one of [%s]", field, param)
		case "irname":
			return fmt.Errorf("%s: %w", field, ValidateName(fmt.Sprint(e.Value())))
		case "optype":
			return fmt.Errorf("%s: %w", field, ValidateOpType(fmt.Sprint(e.Value())))
		case "sortmode":
			return fmt.Errorf("%s: %w", field, ValidateSortMode(fmt.Sprint(e.Value())))
		default:
			return fmt.Errorf("%s: validation failed (%s)", field, tag)
		}
	}

	return err
}
