package paramset

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/deshima-dev/desim/internal/domain"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks every parameter against its physical bounds and reports
// the first violation by parameter name.
func Validate(p domain.Params) error {
	err := validate.Struct(p)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &domain.OpError{Op: "paramset.validate", Kind: domain.KindExecution, Err: err}
	}

	fe := verrs[0]
	return domain.InvalidParam("paramset.validate", fe.Field(), describe(fe))
}

// Struct validates any DTO carrying `validate` tags with the shared validator.
func Struct(v any) error {
	return validate.Struct(v)
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "gt":
		return fmt.Sprintf("must be > %s, got %v", fe.Param(), fe.Value())
	case "gte":
		return fmt.Sprintf("must be >= %s, got %v", fe.Param(), fe.Value())
	case "lte":
		return fmt.Sprintf("must be <= %s, got %v", fe.Param(), fe.Value())
	case "lt":
		return fmt.Sprintf("must be < %s, got %v", fe.Param(), fe.Value())
	case "required":
		return "is required"
	default:
		return fmt.Sprintf("failed %s=%s", fe.Tag(), fe.Param())
	}
}
