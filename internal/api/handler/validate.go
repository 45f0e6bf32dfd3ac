package handler

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/vivo/internal/domain"
)

var externalIDPattern = regexp.MustCompile(`^[A-Za-z0-9._:@-]{1,255}$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("external_id", func(fl validator.FieldLevel) bool {
		return externalIDPattern.MatchString(fl.Field().String())
	})
	return v
}

// bind decodes the JSON body into dst and runs struct validation
func bind(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return domain.ErrBadRequest.WithError(err)
	}
	return validateStruct(dst)
}

func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return domain.ErrValidationFailed.WithError(err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag()))
	}
	return domain.ErrValidationFailed.WithError(errors.New(strings.Join(msgs, "; ")))
}

// validExternalID checks a path parameter against the same rule as request bodies
func validExternalID(id string) error {
	if !externalIDPattern.MatchString(id) {
		return domain.ErrValidationFailed.WithError(fmt.Errorf("invalid external_id %q", id))
	}
	return nil
}
