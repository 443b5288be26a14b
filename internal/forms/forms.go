// Package forms validates the payloads donors and admins submit.
package forms

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/bryan-buckman/donorhub/internal/catalog"
	"github.com/bryan-buckman/donorhub/internal/model"
)

// ErrInvalid is wrapped by every *ValidationError.
var ErrInvalid = errors.New("invalid input")

// ValidationError maps JSON field names to a human-readable problem.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = name + " " + e.Fields[name]
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrInvalid }

// Validator checks form structs against their validate tags.
type Validator struct {
	validate *validator.Validate
}

// Option configures a Validator.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock sets the clock the notpast check compares against.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// New returns a Validator with the bloodtype, urgency, campdate and notpast
// tags registered. Dates are interpreted in loc.
func New(loc *time.Location, opts ...Option) *Validator {
	if loc == nil {
		loc = time.Local
	}
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("bloodtype", func(fl validator.FieldLevel) bool {
		_, err := model.ParseBloodType(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("urgency", func(fl validator.FieldLevel) bool {
		_, err := model.ParseUrgency(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("campdate", func(fl validator.FieldLevel) bool {
		_, ok := model.ParseDay(fl.Field().String(), loc)
		return ok
	})
	// notpast accepts times from the start of today onwards.
	_ = v.RegisterValidation("notpast", func(fl validator.FieldLevel) bool {
		t, ok := fl.Field().Interface().(time.Time)
		if !ok {
			return false
		}
		return !t.Before(catalog.StartOfDay(o.now().In(loc)))
	})
	return &Validator{validate: v}
}

// Struct validates s. A failed check returns a *ValidationError.
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate: %w", err)
	}
	out := &ValidationError{Fields: make(map[string]string, len(fieldErrs))}
	for _, fe := range fieldErrs {
		out.Fields[fe.Field()] = message(fe)
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "url":
		return "must be a valid URL"
	case "eq":
		return "must be accepted"
	case "oneof":
		return "must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "datetime":
		return "must be a date like 2025-05-25"
	case "bloodtype":
		return "must be one of A+, A-, B+, B-, AB+, AB-, O+, O-"
	case "urgency":
		return "must be one of high, medium, low"
	case "campdate":
		return "must be a date like 2025-05-25 or May 25, 2025"
	case "notpast":
		return "must not be in the past"
	default:
		return "failed " + fe.Tag() + " check"
	}
}
