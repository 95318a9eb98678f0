package errors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// FieldErrors flattens validator errors into json-field -> message.
// ok is false when err did not come from the validator.
func FieldErrors(err error) (map[string]string, bool) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, false
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fieldName(fe)] = fieldMessage(fe)
	}
	return fields, true
}

// RespondWithBindError answers a failed ShouldBind*: per-field messages
// when the validator produced them, a generic 400 otherwise.
func RespondWithBindError(c *gin.Context, err error) {
	if fields, ok := FieldErrors(err); ok {
		RespondWithValidationError(c, fields)
		return
	}
	BadRequest(c, ValidationInvalidInput, "Request body is malformed")
}

func fieldName(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		ns = ns[i+1:]
	}
	if ns == "" {
		ns = fe.Field()
	}
	return toSnake(ns)
}

func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 && s[i-1] != '.' {
				b.WriteByte('_')
			}
			b.WriteRune(r + ('a' - 'A'))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "len":
		return fmt.Sprintf("must have length %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "eqfield":
		return fmt.Sprintf("must match %s", toSnake(fe.Param()))
	case "hexcolor":
		return "must be a #RRGGBB color"
	case "fqdn":
		return "must be a valid domain name"
	case "slug":
		return "may only contain lowercase letters, digits and single hyphens"
	case "menu_template":
		return "is not a known template"
	case "gte", "lte", "gt", "lt":
		return fmt.Sprintf("must be %s %s", fe.Tag(), fe.Param())
	default:
		return "is invalid"
	}
}
