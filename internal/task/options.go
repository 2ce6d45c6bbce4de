package task

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"reelgen/internal/services"
)

// Content modes steering the narration script.
const (
	ModePromo  = "promo"
	ModeReview = "review"
	ModeStory  = "story"
)

// MaxTrimLengthSeconds bounds Options.TrimLengthSeconds.
const MaxTrimLengthSeconds = 60

// Options are the creation parameters supplied by the caller.
type Options struct {
	Name        string `json:"business_name" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
	Mode        string `json:"mode" validate:"omitempty,oneof=promo review story"`
	// TrimLengthSeconds is the clip length kept by the cut stage. Zero keeps
	// clips whole.
	TrimLengthSeconds float64 `json:"cut_length_sec" validate:"gte=0,lte=60"`
}

// EffectiveMode returns the mode, defaulting to promo.
func (o Options) EffectiveMode() string {
	if o.Mode == "" {
		return ModePromo
	}
	return o.Mode
}

// Normalize trims whitespace and lower-cases the mode.
func (o Options) Normalize() Options {
	o.Name = strings.TrimSpace(o.Name)
	o.Description = strings.TrimSpace(o.Description)
	o.Mode = strings.ToLower(strings.TrimSpace(o.Mode))
	return o
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func optionsValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(field reflect.StructField) string {
			name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// Validate checks every field and returns a single services.ErrValidation
// error that lists all failing fields.
func (o Options) Validate() error {
	err := optionsValidator().Struct(o)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return services.Wrap(services.ErrValidation, "", "validate options", "", err)
	}
	problems := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		problems = append(problems, describeFieldError(fe))
	}
	return services.Wrap(services.ErrValidation, "", "validate options", strings.Join(problems, "; "), nil)
}

func describeFieldError(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %q", field, fe.Param(), fe.Value())
	case "gte":
		return fmt.Sprintf("%s must be >= %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be <= %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
}
