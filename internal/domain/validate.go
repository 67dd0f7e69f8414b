package domain

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report fields by their feed names, e.g. "properties.place".
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateRawEvent checks the mandatory fields: id, properties.sig,
// properties.place, properties.time and a 2- or 3-element coordinate array.
func validateRawEvent(raw *RawEvent) error {
	var problems []string

	if err := validate.Struct(raw); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		for _, fe := range verrs {
			problems = append(problems, describeFieldError(fe))
		}
	}
	problems = append(problems, nullCoordinates(raw.Geometry.Coordinates)...)

	if len(problems) == 0 {
		return nil
	}
	return errors.New(strings.Join(problems, "; "))
}

// nullCoordinates reports null longitude or latitude entries. A null depth is
// allowed and maps to a null elevation.
func nullCoordinates(coords []*float64) []string {
	var problems []string
	for i, name := range []string{"longitude", "latitude"} {
		if i < len(coords) && coords[i] == nil {
			problems = append(problems, fmt.Sprintf("missing geometry.coordinates[%d] (%s)", i, name))
		}
	}
	return problems
}

func describeFieldError(fe validator.FieldError) string {
	// Namespace is "RawEvent.properties.place"; drop the type name.
	field := fe.Namespace()
	if _, rest, ok := strings.Cut(field, "."); ok {
		field = rest
	}

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("missing %s", field)
	case "min", "max":
		return fmt.Sprintf("%s must have 2 or 3 elements, got %d", field, reflect.ValueOf(fe.Value()).Len())
	default:
		return fmt.Sprintf("invalid %s (%s)", field, fe.Tag())
	}
}
