package planner

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"ecochef/internal/locale"

	"github.com/go-playground/validator/v10"
)

const (
	MinDays = 1
	MaxDays = 7
)

// PlanRequest is the input of one generation call. It is never modified
// after being sent; regeneration builds a new one.
type PlanRequest struct {
	IngredientsText     string          `json:"ingredientsText" validate:"notblank"`
	Days                int             `json:"days" validate:"min=1,max=7"`
	DietaryRestrictions string          `json:"dietaryRestrictions"`
	Language            locale.Language `json:"language" validate:"required,oneof=es en zh pt"`
}

// BuildRequest assembles a request from raw inputs, copying them verbatim.
func BuildRequest(ingredientsText string, days int, dietaryRestrictions string, lang locale.Language) PlanRequest {
	return PlanRequest{
		IngredientsText:     ingredientsText,
		Days:                days,
		DietaryRestrictions: dietaryRestrictions,
		Language:            lang,
	}
}

// ValidationError lists the fields of a request or response that failed
// validation.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid fields: %s", strings.Join(e.Fields, ", "))
}

// Has reports whether field failed.
func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f == field {
			return true
		}
	}
	return false
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
		_ = validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})
	})
	return validate
}

func toValidationError(err error) error {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}
	out := &ValidationError{}
	for _, fe := range ve {
		out.Fields = append(out.Fields, fe.Namespace()[strings.Index(fe.Namespace(), ".")+1:])
	}
	return out
}

// Validate checks the request at the input boundary: ingredients must not be
// blank, days must be within 1..7 and the language supported.
func (r PlanRequest) Validate() error {
	if err := getValidator().Struct(r); err != nil {
		return toValidationError(err)
	}
	return nil
}

// HasIngredients reports whether there is anything to plan with. Callers treat
// a request without ingredients as a no-op rather than an error.
func (r PlanRequest) HasIngredients() bool {
	return strings.TrimSpace(r.IngredientsText) != ""
}

// WithIngredients returns a copy of r with different ingredients and every
// other field carried forward.
func (r PlanRequest) WithIngredients(ingredients string) PlanRequest {
	r.IngredientsText = ingredients
	return r
}
