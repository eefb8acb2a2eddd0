package store

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	domainagg "github.com/yungbote/storefront-backend/internal/domain/aggregates"
)

type enumValue interface {
	Valid() bool
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New()
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
		_ = v.RegisterValidation("enum", func(fl validator.FieldLevel) bool {
			e, ok := fl.Field().Interface().(enumValue)
			return !ok || e.Valid()
		})
		validate = v
	})
	return validate
}

// ValidateRequired returns the JSON names of required fields that are null.
func ValidateRequired(entity any) []string {
	var missing []string
	for _, v := range Validate(entity) {
		if v.Reason == domainagg.ReasonRequired {
			missing = append(missing, v.Field)
		}
	}
	return missing
}

// Validate checks required-ness, enum membership and numeric bounds.
func Validate(entity any) []domainagg.Violation {
	err := validatorInstance().Struct(entity)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []domainagg.Violation{{Field: "", Reason: err.Error()}}
	}
	out := make([]domainagg.Violation, 0, len(verrs))
	for _, fe := range verrs {
		reason := domainagg.ReasonInvalidValue
		switch fe.Tag() {
		case "required":
			reason = domainagg.ReasonRequired
		case "min":
			reason = "must be >= " + fe.Param()
		}
		out = append(out, domainagg.Violation{Field: fe.Field(), Reason: reason})
	}
	return out
}
