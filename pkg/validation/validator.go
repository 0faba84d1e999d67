package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Init configures the global validator used by Gin's binding.
// - Uses JSON tag names in errors.
// - Registers alias tags for account fields.
func Init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		Register(v)
	}
}

// Register applies the tag name func and aliases to v. Exposed for tests.
func Register(v *validator.Validate) {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterAlias("role", "oneof=customer business")
	v.RegisterAlias("phone", "max=20")
	v.RegisterAlias("bizname", "max=120")
}

// ToDetails converts binding errors into field -> messages, the same shape
// service-level validation errors use.
func ToDetails(err error) map[string][]string {
	if err == nil {
		return nil
	}

	if errors.Is(err, io.EOF) {
		return map[string][]string{"payload": {"Request body is empty."}}
	}

	var se *json.SyntaxError
	var ute *json.UnmarshalTypeError
	if errors.As(err, &ute) && ute.Field != "" {
		return map[string][]string{ute.Field: {"Incorrect type. Expected " + ute.Type.String() + "."}}
	}
	if errors.As(err, &se) || errors.As(err, &ute) {
		return map[string][]string{"payload": {"Invalid JSON."}}
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := make(map[string][]string, len(verrs))
		for _, fe := range verrs {
			field := fe.Field()
			out[field] = append(out[field], formatFieldError(fe))
		}
		return out
	}

	return map[string][]string{"payload": {"Invalid payload."}}
}

func formatFieldError(fe validator.FieldError) string {
	tag := fe.Tag()
	param := fe.Param()

	switch tag {
	case "required":
		return "This field is required."
	case "required_if":
		return "This field is required when " + param + "."
	case "email":
		return "Enter a valid email address."
	case "url", "http_url":
		return "Enter a valid URL."
	case "uuid", "uuid4":
		return "Must be a valid UUID."
	case "hexadecimal":
		return "Must be hexadecimal."
	case "len":
		return fmt.Sprintf("Ensure this field has exactly %s characters.", param)
	case "min":
		if isNumberKind(fe.Kind()) {
			return "Ensure this value is greater than or equal to " + param + "."
		}
		return fmt.Sprintf("Ensure this field has at least %s characters.", param)
	case "max":
		if isNumberKind(fe.Kind()) {
			return "Ensure this value is less than or equal to " + param + "."
		}
		return fmt.Sprintf("Ensure this field has no more than %s characters.", param)
	case "eqfield":
		return "Must match " + param + "."
	case "oneof":
		return fmt.Sprintf("%q is not a valid choice.", fmt.Sprint(fe.Value()))
	case "role":
		return fmt.Sprintf("%q is not a valid choice.", fmt.Sprint(fe.Value()))
	case "phone", "bizname":
		return "Ensure this field has no more than " + aliasMax(tag) + " characters."
	default:
		if param != "" {
			return fmt.Sprintf("Failed validation %q (%s).", tag, param)
		}
		return fmt.Sprintf("Failed validation %q.", tag)
	}
}

func aliasMax(tag string) string {
	if tag == "phone" {
		return "20"
	}
	return "120"
}

func isNumberKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}
