package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"cms0/internal/models"
	"cms0/internal/rbac"

	playgroundvalidator "github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// ValidationErrors wraps the validator's ValidationErrors
type ValidationErrors []playgroundvalidator.FieldError

// CustomValidator wraps go-playground/validator
type CustomValidator struct {
	validator *playgroundvalidator.Validate
}

// NewValidator creates a new validator instance
func NewValidator() echo.Validator {
	v := playgroundvalidator.New()

	// Report field names as they appear on the wire
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// Register custom validations
	err := v.RegisterValidation("rbac_resource", validateResource)
	if err != nil {
		return nil
	}
	err = v.RegisterValidation("rbac_action", validateAction)
	if err != nil {
		return nil
	}
	err = v.RegisterValidation("rbac_slug", validateSlug)
	if err != nil {
		return nil
	}
	err = v.RegisterValidation("publish_status", validatePublishStatus)
	if err != nil {
		return nil
	}

	return &CustomValidator{validator: v}
}

// Custom validation functions
func validateResource(fl playgroundvalidator.FieldLevel) bool {
	_, ok := rbac.DefinitionFor(rbac.Resource(fl.Field().String()))
	return ok
}

func validateAction(fl playgroundvalidator.FieldLevel) bool {
	return rbac.Action(fl.Field().String()).Valid()
}

// validateSlug accepts strings already in canonical slug form.
func validateSlug(fl playgroundvalidator.FieldLevel) bool {
	value := fl.Field().String()
	return value != "" && value == rbac.Slugify(value) && len(value) >= rbac.SlugMinLen
}

func validatePublishStatus(fl playgroundvalidator.FieldLevel) bool {
	return models.IsValidPublishStatus(models.PublishStatus(fl.Field().String()))
}

// Validate implements echo.Validator interface
func (cv *CustomValidator) Validate(i interface{}) error {
	if err := cv.validator.Struct(i); err != nil {
		var validationErrors playgroundvalidator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return ValidationErrors(validationErrors)
		}
		return err
	}
	return nil
}

// Error implements the error interface for ValidationErrors
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return ""
	}
	var fields []string
	for _, err := range ve {
		fields = append(fields, err.Field())
	}
	return fmt.Sprintf("validation failed on fields: %s", strings.Join(fields, ", "))
}
