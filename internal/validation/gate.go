// Package validation checks characters against the sheet schema and reports
// every violation at once.
package validation

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/KirkDiggler/rpg-sheet/internal/entities/sw5e"
	"github.com/KirkDiggler/rpg-sheet/internal/errors"
)

var idPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]{0,63}$`)

// Gate validates characters
type Gate struct {
	validate *validator.Validate
}

// New creates a Gate with the character rules registered
func New() *Gate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// Registration only fails for empty tags or nil funcs.
	_ = v.RegisterValidation("charid", func(fl validator.FieldLevel) bool {
		return idPattern.MatchString(fl.Field().String())
	})
	v.RegisterStructValidation(characterLevelRule, sw5e.Character{})

	return &Gate{validate: v}
}

// Validate returns nil when the character satisfies the schema, otherwise a
// *errors.ValidationError listing every failing field.
func (g *Gate) Validate(c *sw5e.Character) error {
	if c == nil {
		ve := errors.NewValidationError()
		ve.AddFieldError("character", "is required")
		return ve
	}

	err := g.validate.Struct(c)
	if err == nil {
		return nil
	}

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.Wrap(err, "character validation could not run")
	}

	ve := errors.NewValidationError()
	for _, fe := range fieldErrs {
		ve.AddFieldError(fieldPath(fe), describe(fe))
	}
	return ve
}

// characterLevelRule keeps level equal to the sum of the class entries
func characterLevelRule(sl validator.StructLevel) {
	c, ok := sl.Current().Interface().(sw5e.Character)
	if !ok || len(c.Classes) == 0 {
		return
	}
	if total := c.TotalLevel(); total != c.Level {
		sl.ReportError(c.Level, "level", "Level", "classlevels", fmt.Sprint(total))
	}
	if c.TotalLevel() > sw5e.MaxLevel {
		sl.ReportError(c.Classes, "classes", "Classes", "maxtotal", fmt.Sprint(sw5e.MaxLevel))
	}
}

// fieldPath turns "Character.abilityScores.strength" into "abilityScores.strength"
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "charid":
		return "must be 1-64 letters, digits, '-' or '_'"
	case "min":
		if fe.Param() == "0" {
			return "must not be negative"
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", strings.ReplaceAll(fe.Param(), " ", ", "))
	case "classlevels":
		return fmt.Sprintf("must equal the sum of class levels (%s)", fe.Param())
	case "maxtotal":
		return fmt.Sprintf("class levels must total at most %s", fe.Param())
	default:
		return fmt.Sprintf("failed %s check", fe.Tag())
	}
}
