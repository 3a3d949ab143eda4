package utils

import (
	"errors"
	"reflect"
	"strings"

	"lifelessons/backend/models"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// report fields by their JSON names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("lesson_category", func(fl validator.FieldLevel) bool {
		return models.IsCategory(fl.Field().String())
	})
	_ = v.RegisterValidation("lesson_tone", func(fl validator.FieldLevel) bool {
		return models.IsEmotionalTone(fl.Field().String())
	})

	return v
}

// ParseAndValidate decodes the request body into out and validates it.
// On failure it writes the error response itself and returns ok=false.
func ParseAndValidate(c *fiber.Ctx, out interface{}) (bool, error) {
	if err := c.BodyParser(out); err != nil {
		return false, BadRequest(c, "Cannot parse JSON")
	}
	if errs := ValidateStruct(out); errs != nil {
		return false, ValidationError(c, errs)
	}
	return true, nil
}

// ValidateStruct returns field -> failed rule, or nil when valid.
func ValidateStruct(s interface{}) map[string]string {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"body": err.Error()}
	}

	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		out[fe.Field()] = rule
	}
	return out
}
