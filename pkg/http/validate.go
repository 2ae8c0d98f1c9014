package http

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report fields by their JSON names so errors match the request body.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		switch name {
		case "-":
			return ""
		case "":
			return f.Name
		}
		return name
	})
	return v
}

// ReadAndValidateRequest binds, defaults and validates the request body. It
// returns nil on success, otherwise a []ValidationError suitable for a 400
// envelope.
func ReadAndValidateRequest(c echo.Context, req interface{}) interface{} {
	if err := c.Bind(req); err != nil {
		return toValidationErrors(err)
	}

	// Zero-valued fields with a default tag take the default.
	if err := defaults.Set(req); err != nil {
		return toValidationErrors(err)
	}

	if err := validate.StructCtx(c.Request().Context(), req); err != nil {
		return toValidationErrors(err)
	}
	return nil
}

func toValidationErrors(err error) []ValidationError {
	var ves validator.ValidationErrors
	if errors.As(err, &ves) {
		out := make([]ValidationError, 0, len(ves))
		for _, fe := range ves {
			msg, params := describe(fe)
			out = append(out, ValidationError{
				Code:    "ERR_" + strings.ToUpper(fe.Tag()),
				Field:   fe.Field(),
				Message: msg,
				Params:  params,
			})
		}
		return out
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		return []ValidationError{{Code: "ERR_BIND", Message: fmt.Sprint(he.Message)}}
	}
	return []ValidationError{{Code: "ERR_UNKNOWN", Message: err.Error()}}
}

// describe renders a human message and the rule's parameters for one failed
// field.
func describe(fe validator.FieldError) (string, map[string]interface{}) {
	field, param := fe.Field(), fe.Param()
	unit := ""
	if fe.Kind() == reflect.String {
		unit = " characters"
	}

	switch fe.Tag() {
	case "required":
		return field + " is required", nil
	case "min":
		return fmt.Sprintf("%s must be at least %s%s", field, param, unit), map[string]interface{}{"min": param}
	case "max":
		return fmt.Sprintf("%s must be at most %s%s", field, param, unit), map[string]interface{}{"max": param}
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, param), map[string]interface{}{"min": param}
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, param), map[string]interface{}{"max": param}
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(param, " ", ", ")),
			map[string]interface{}{"options": strings.Fields(param)}
	default:
		return fmt.Sprintf("%s failed validation: %s", field, fe.Tag()), nil
	}
}
