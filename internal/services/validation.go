package services

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

// validate is shared by every service; validator.Validate caches struct metadata and
// is safe for concurrent use.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Registration only fails for empty tags or nil funcs.
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	_ = v.RegisterValidation("inphone", func(fl validator.FieldLevel) bool {
		return ValidPhone(fl.Field().String())
	})
	return v
}

// fieldMessages maps a failed rule onto a client message. Keys are tried as
// "Field.tag", then "Field", then each enclosing struct field from the innermost out
// (so a nested struct can share one message), then the bare tag.
type fieldMessages map[string]string

// checkStruct runs the validate tags of req. A missing value is reported before any
// other rule so the "required" message wins when several fields fail.
func checkStruct(req any, messages fieldMessages, fallback string) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return newError(ErrValidation, "%s", fallback)
	}

	fe := fieldErrs[0]
	for _, candidate := range fieldErrs {
		if candidate.Tag() == "required" || candidate.Tag() == "notblank" {
			fe = candidate
			break
		}
	}
	return newError(ErrValidation, "%s", messages.lookup(fe, fallback))
}

func (m fieldMessages) lookup(fe validator.FieldError, fallback string) string {
	keys := []string{fe.StructField() + "." + fe.Tag(), fe.StructField()}
	path := strings.Split(fe.StructNamespace(), ".")
	// path[0] is the root type, the last element the field itself.
	for i := len(path) - 2; i > 0; i-- {
		keys = append(keys, path[i])
	}
	keys = append(keys, fe.Tag())
	for _, key := range keys {
		if msg, ok := m[key]; ok {
			return msg
		}
	}
	return fallback
}
