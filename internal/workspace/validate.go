package workspace

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"dbf-converter/internal/dbfread"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.Split(f.Tag.Get("json"), ",")[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = validate.RegisterValidation("dbfencoding", func(fl validator.FieldLevel) bool {
		_, err := dbfread.CheckEncoding(fl.Field().String())
		return err == nil
	})
}

var settingMessages = map[string]string{
	"gte":         "setting %q must be greater than or equal to %s",
	"oneof":       "setting %q must be one of: %s",
	"dbfencoding": "setting %q names an unknown encoding",
}

// canonicalSettings trims values and lowercases enumerations so that
// validation sees the same spelling the settings file will store.
func canonicalSettings(raw Settings) Settings {
	c := raw
	c.OutputDir = strings.TrimSpace(c.OutputDir)
	c.Encoding = strings.TrimSpace(c.Encoding)
	c.MissingField = strings.ToLower(strings.TrimSpace(c.MissingField))
	c.LineEnding = strings.ToLower(strings.TrimSpace(c.LineEnding))
	c.LogFile = strings.TrimSpace(c.LogFile)
	return c
}

// ValidateSettings reports every invalid value in s. Empty values are
// allowed and fall back to defaults.
func ValidateSettings(s Settings) error {
	err := validate.Struct(canonicalSettings(s))
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, e := range fieldErrs {
		msgs = append(msgs, settingMessage(e))
	}
	sort.Strings(msgs)
	return fmt.Errorf("invalid settings: %s", strings.Join(msgs, "; "))
}

func settingMessage(e validator.FieldError) string {
	msg, ok := settingMessages[e.Tag()]
	if !ok {
		return fmt.Sprintf("setting %q is invalid (%s)", e.Field(), e.Tag())
	}
	if strings.Count(msg, "%") == 2 {
		return fmt.Sprintf(msg, e.Field(), e.Param())
	}
	return fmt.Sprintf(msg, e.Field())
}
