package cli

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/JonMunkholm/PharmaDash/internal/core"
	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

// newValidator reports fields by their flag tag, so errors name the flag
// the user typed.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return fld.Tag.Get("flag")
	})
	return v
}

type exportFlags struct {
	Format string `flag:"format" validate:"oneof=csv xlsx"`
	Out    string `flag:"out" validate:"required"`
}

type rowsFlags struct {
	Limit   int      `flag:"limit" validate:"gte=0"`
	Columns []string `flag:"column" validate:"dive,required"`
}

// checkFlags validates a flag struct and joins the failures into one error.
func checkFlags(flags any) error {
	err := validate.Struct(flags)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, flagErrorMessage(fe))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func flagErrorMessage(fe validator.FieldError) string {
	name := fe.Field()
	if i := strings.IndexByte(name, '['); i >= 0 {
		name = name[:i]
	}
	name = "--" + name
	switch fe.Tag() {
	case "required":
		return name + " must not be empty"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s (got %q)", name, strings.ReplaceAll(fe.Param(), " ", ", "), fe.Value())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", name, fe.Param())
	default:
		return name + " is invalid"
	}
}

func validateExport(f exportFlags) error {
	if err := checkFlags(f); err != nil {
		if !core.ValidFormat(f.Format) {
			return fmt.Errorf("%w: %v", core.ErrUnsupportedFormat, err)
		}
		return err
	}
	return nil
}
