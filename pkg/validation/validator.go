package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Init configures the global validator used by Gin's binding.
// Presence checks for account fields are done by the application layer so the
// tags here only constrain format. Errors are keyed by JSON field name.
func Init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		v.RegisterAlias("uname", "max=30,excludesall=/@")
	}
}

// ToDetails converts binding errors into a field -> message map for the
// error envelope's details.
func ToDetails(err error) map[string]string {
	if err == nil {
		return nil
	}

	var se *json.SyntaxError
	var ute *json.UnmarshalTypeError
	if errors.As(err, &se) || errors.As(err, &ute) {
		return map[string]string{"payload": "invalid json"}
	}
	if errors.Is(err, http.ErrNotMultipart) || errors.Is(err, http.ErrMissingBoundary) {
		return map[string]string{"payload": "expected multipart/form-data"}
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			out[fe.Field()] = message(fe)
		}
		return out
	}
	return map[string]string{"payload": "invalid payload"}
}

func message(fe validator.FieldError) string {
	param := fe.Param()
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "uname":
		return "must be at most 30 characters without slashes or @"
	case "url", "http_url":
		return "must be a valid URL"
	case "uuid", "uuid4":
		return "must be a valid UUID"
	case "oneof":
		return "must be one of: " + strings.Join(strings.Fields(param), ", ")
	case "min", "max", "len":
		return sizeMessage(fe.Tag(), param, fe.Kind())
	case "excludesall":
		return "must not contain any of '" + param + "'"
	}
	if param != "" {
		return fmt.Sprintf("failed '%s=%s'", fe.Tag(), param)
	}
	return fmt.Sprintf("failed '%s'", fe.Tag())
}

func sizeMessage(tag, param string, k reflect.Kind) string {
	unit := " characters"
	switch k {
	case reflect.Slice, reflect.Array, reflect.Map:
		unit = " items"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		unit = ""
	}
	switch tag {
	case "min":
		return "must be at least " + param + unit
	case "max":
		return "must be at most " + param + unit
	default:
		return "must be exactly " + param + unit
	}
}
