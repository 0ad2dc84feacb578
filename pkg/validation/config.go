package validation

import (
	"errors"
	"fmt"
)

// FieldError is one failed check on a named field.
type FieldError struct {
	Scope   string
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s.%s: %s", e.Scope, e.Field, e.Message)
}

// Checker collects field errors for cross-field rules that struct tags
// cannot express. Every check runs; Err reports them all.
type Checker struct {
	scope string
	errs  []error
}

// NewChecker creates a Checker whose errors are prefixed with scope.
func NewChecker(scope string) *Checker {
	return &Checker{scope: scope}
}

func (c *Checker) fail(field, format string, args ...any) {
	c.errs = append(c.errs, &FieldError{Scope: c.scope, Field: field, Message: fmt.Sprintf(format, args...)})
}

// Require fails when value is empty.
func (c *Checker) Require(field, value string) *Checker {
	if value == "" {
		c.fail(field, "required field is empty")
	}
	return c
}

// Names checks that every entry is a valid IR name and that none repeats.
func (c *Checker) Names(field string, values []string) *Checker {
	seen := make(map[string]int, len(values))
	for i, v := range values {
		if err := ValidateName(v); err != nil {
			c.fail(fmt.Sprintf("%s[%d]", field, i), "%v", err)
			continue
		}
		if j, dup := seen[v]; dup {
			c.fail(fmt.Sprintf("%s[%d]", field, i), "%q repeats %s[%d]", v, field, j)
			continue
		}
		seen[v] = i
	}
	return c
}

// SortMode fails for a non-empty value that is not a known sort mode.
func (c *Checker) SortMode(field, value string) *Checker {
	if value == "" {
		return c
	}
	if err := ValidateSortMode(value); err != nil {
		c.fail(field, "%v", err)
	}
	return c
}

// Check records the error returned by fn, if any.
func (c *Checker) Check(field string, fn func() error) *Checker {
	if err := fn(); err != nil {
		c.errs = append(c.errs, fmt.Errorf("%s.%s: %w", c.scope, field, err))
	}
	return c
}

// If runs checks only when cond holds.
func (c *Checker) If(cond bool, checks func(*Checker)) *Checker {
	if cond {
		checks(c)
	}
	return c
}

// Err returns nil, the single failure, or all failures joined.
func (c *Checker) Err() error {
	switch len(c.errs) {
	case 0:
		return nil
	case 1:
		return c.errs[0]
	}
	return fmt.Errorf("%s: %d validation errors: %w", c.scope, len(c.errs), errors.Join(c.errs...))
}

// Validatable is implemented by types that check themselves.
type Validatable interface {
	Validate() error
}

// ValidateConfig validates any type that implements Validatable.
func ValidateConfig(config Validatable) error {
	if config == nil {
		return errors.New("config cannot be nil")
	}
	return config.Validate()
}

// DefaultOr returns value unless it is the zero value.
func DefaultOr[T comparable](value, defaultValue T) T {
	var zero T
	if value == zero {
		return defaultValue
	}
	return value
}
