package types

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate is shared by every caller. A *validator.Validate caches struct
// metadata and is safe for concurrent use.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report violations under the JSON key the client sent ("grades_avg")
	// instead of the Go field name ("GradesAvg").
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return v
}

// Validate checks every validate:"..." tag on s, which must be a struct or
// a pointer to one. All failing fields are reported together as a
// validator.ValidationErrors.
func Validate(s any) error {
	return validate.Struct(s)
}
