package extract

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validatable is implemented by records with rules that struct tags cannot
// express, such as cross-field or cross-record checks.
type Validatable interface {
	Validate() error
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report fields by their JSON names, which is what the model sees
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// check runs tag validation, the target's own Validate method and the hook,
// stopping at the first failing stage.
func check(target any, hook func() error) error {
	if err := validate.Struct(target); err != nil {
		var invalid *validator.InvalidValidationError
		if !errors.As(err, &invalid) {
			return describe(err)
		}
	}
	if v, ok := target.(Validatable); ok {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	if hook != nil {
		return hook()
	}
	return nil
}

func describe(err error) error {
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return err
	}
	lines := make([]string, 0, len(ves))
	for _, fe := range ves {
		msg := fmt.Sprintf("%s: failed the %q rule", fe.Namespace(), fe.Tag())
		if fe.Param() != "" {
			msg += fmt.Sprintf(" (%s)", fe.Param())
		}
		msg += fmt.Sprintf(", got %v", fe.Value())
		lines = append(lines, msg)
	}
	return errors.New(strings.Join(lines, "\n"))
}
