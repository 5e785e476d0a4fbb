// Package validators validates decoded request bodies.
package validators

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	appErr "github.com/iac-studio/blueprint/pkg/errors"
)

var regionPattern = regexp.MustCompile(`^[a-z][a-z0-9-]*[a-z0-9]$`)

var (
	once     sync.Once
	instance *Validator
)

// Validator reports failures as invalid AppErrors naming the JSON fields.
type Validator struct {
	v *validator.Validate
}

// New returns the shared validator.
func New() *Validator {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("region", func(fl validator.FieldLevel) bool {
			return regionPattern.MatchString(fl.Field().String())
		})
		instance = &Validator{v: v}
	})
	return instance
}

func (v *Validator) Struct(s any) error {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return appErr.Wrap(err, appErr.CodeInvalid, "invalid request")
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, describe(fe))
	}
	sort.Strings(fields)
	return appErr.New(appErr.CodeInvalid, "invalid request: "+strings.Join(fields, "; "))
}

func describe(fe validator.FieldError) string {
	field := fe.Namespace()
	if i := strings.IndexByte(field, '.'); i >= 0 {
		field = field[i+1:]
	}
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "region":
		return field + " must look like a cloud region (e.g. us-east-1)"
	}
	if fe.Param() != "" {
		return fmt.Sprintf("%s must satisfy %s=%s", field, fe.Tag(), fe.Param())
	}
	return fmt.Sprintf("%s must satisfy %s", field, fe.Tag())
}
