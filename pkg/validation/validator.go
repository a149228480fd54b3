package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var usernameRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_.-]*$`)

var (
	engine     *validator.Validate
	engineOnce sync.Once
)

// FieldErrors maps a field's json name to a human readable message.
type FieldErrors map[string]string

// Add records msg for field unless the field already has a message.
func (fe FieldErrors) Add(field, msg string) {
	if _, ok := fe[field]; !ok {
		fe[field] = msg
	}
}

// Merge copies other into fe without overwriting existing messages.
func (fe FieldErrors) Merge(other map[string]string) {
	for k, v := range other {
		fe.Add(k, v)
	}
}

func (fe FieldErrors) Empty() bool { return len(fe) == 0 }

// configure applies our tag name func, custom rules and aliases to v.
func configure(v *validator.Validate) {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernameRe.MatchString(fl.Field().String())
	})
	v.RegisterAlias("strongpwd", "min=8,containsany=!@#$%^&*(),containsany=0123456789,containsany=ABCDEFGHIJKLMNOPQRSTUVWXYZ,containsany=abcdefghijklmnopqrstuvwxyz")
}

// Init configures the global validator used by Gin's binding.
func Init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		configure(v)
	}
}

// Engine returns the process-wide validator used by the application services.
func Engine() *validator.Validate {
	engineOnce.Do(func() {
		engine = validator.New(validator.WithRequiredStructEnabled())
		configure(engine)
	})
	return engine
}

// Struct validates s and returns every failing field at once.
// A nil result means s is valid.
func Struct(s any) FieldErrors {
	err := Engine().Struct(s)
	if err == nil {
		return nil
	}
	return FieldErrors(ToDetails(err))
}

// ToDetails converts validation/binding errors into a map[field]message suitable for API error.details.
func ToDetails(err error) map[string]string {
	if err == nil {
		return nil
	}

	// Invalid JSON payloads
	var se *json.SyntaxError
	var ute *json.UnmarshalTypeError
	if errors.As(err, &se) || errors.As(err, &ute) {
		return map[string]string{"payload": "invalid json"}
	}

	// Validation errors from validator.v10
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			field := fe.Field()
			out[field] = formatFieldError(fe)
		}
		return out
	}

	// Fallback
	return map[string]string{"payload": "invalid payload"}
}

func formatFieldError(fe validator.FieldError) string {
	param := fe.Param()

	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "min":
		return "must be at least " + param + " characters long"
	case "max":
		return "must be at most " + param + " characters long"
	case "eqfield":
		return "must match " + strings.ToLower(param)
	case "containsany":
		return "must contain at least one of '" + param + "'"
	case "strongpwd":
		return "must be at least 8 characters with uppercase, lowercase, number and special character"
	case "username":
		return "must start with a letter and contain only letters, numbers, '_', '.' or '-'"
	default:
		if param != "" {
			return fmt.Sprintf("failed %s=%s", fe.Tag(), param)
		}
		return "failed " + fe.Tag()
	}
}
