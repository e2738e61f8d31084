package core_test

import (
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nickiconcept/E-Result-Management-System/core"
)

func TestInitValidators(t *testing.T) {
	_en := en.New()
	translator, _ := ut.New(_en, _en).GetTranslator("en")
	validate := validator.New()
	core.InitValidators(validate, translator)

	type payload struct {
		Name string `json:"name,omitempty" validate:"required,notblank"`
		Pin  string `query:"pin" validate:"required,digits10"`
	}

	tests := []struct {
		name string
		in   payload
		want map[string]string
	}{
		{"valid", payload{Name: "Ada", Pin: "1234567890"}, nil},
		{"missing", payload{}, map[string]string{
			"name": "this field is required",
			"pin":  "this field is required",
		}},
		{"blank and short", payload{Name: "  ", Pin: "12345"}, map[string]string{
			"name": "this field cannot be blank",
			"pin":  "must be exactly 10 digits",
		}},
		{"letters in pin", payload{Name: "Ada", Pin: "12345abcde"}, map[string]string{
			"pin": "must be exactly 10 digits",
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validate.Struct(tt.in)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			var verrs validator.ValidationErrors
			require.ErrorAs(t, err, &verrs)
			got := make(map[string]string)
			for _, fe := range verrs {
				got[fe.Field()] = fe.Translate(translator)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}
