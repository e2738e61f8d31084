package core

import (
	"reflect"
	"regexp"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// CustomValidation is a validation tag with its English error text.
// A nil Func only sets the text, for tags validated at struct level or built in.
type CustomValidation struct {
	Tag  string
	Text string
	Func validator.Func
}

var digits10Regex = regexp.MustCompile(`^[0-9]{10}$`)

var coreValidations = []CustomValidation{
	{Tag: "notblank", Text: "this field cannot be blank", Func: func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	}},
	{Tag: "digits10", Text: "must be exactly 10 digits", Func: func(fl validator.FieldLevel) bool {
		return digits10Regex.MatchString(fl.Field().String())
	}},
}

// built-in tags whose default text reads badly in forms
var overriddenTexts = map[string]string{
	"required":      "this field is required",
	"required_with": "this field is required",
}

// InitValidators sets up validate for request payloads: field names follow json (or query) tags
// and every error has an English translation.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"json", "query"} {
			if name, _, _ := strings.Cut(fld.Tag.Get(tag), ","); name != "" && name != "-" {
				return name
			}
		}
		return ""
	})

	RegisterValidations(validate, translator, coreValidations...)
	for tag, text := range overriddenTexts {
		registerText(validate, translator, tag, text, true)
	}
}

// RegisterValidations registers each validation func, if any, along with its text.
func RegisterValidations(validate *validator.Validate, translator ut.Translator, vs ...CustomValidation) {
	for _, v := range vs {
		if v.Func != nil {
			_ = validate.RegisterValidation(v.Tag, v.Func)
		}
		registerText(validate, translator, v.Tag, v.Text, false)
	}
}

func registerText(validate *validator.Validate, translator ut.Translator, tag, text string, override bool) {
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, override) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}
