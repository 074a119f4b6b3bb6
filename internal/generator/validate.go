package generator

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	govalidator "github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"github.com/young1lin/learnflow/internal/models"
)

// payloadValidator checks generated content before it is returned to clients
type payloadValidator struct {
	v     *govalidator.Validate
	trans ut.Translator
}

func newPayloadValidator() *payloadValidator {
	v := govalidator.New(govalidator.WithRequiredStructEnabled())

	// Use JSON tag name for field names in error messages.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	v.RegisterStructValidation(validateQuizItem, models.QuizItem{})

	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	trans, _ := uni.GetTranslator("en")
	en_translations.RegisterDefaultTranslations(v, trans)
	v.RegisterTranslation("answer_in_options", trans,
		func(ut ut.Translator) error {
			return ut.Add("answer_in_options", "{0} must be one of the options", true)
		},
		func(ut ut.Translator, fe govalidator.FieldError) string {
			t, _ := ut.T("answer_in_options", fe.Field())
			return t
		},
	)

	return &payloadValidator{v: v, trans: trans}
}

// validateQuizItem requires the correct answer to be one of the declared options
func validateQuizItem(sl govalidator.StructLevel) {
	item := sl.Current().Interface().(models.QuizItem)
	if item.CorrectAnswer != "" && !item.HasOption(item.CorrectAnswer) {
		sl.ReportError(item.CorrectAnswer, "correctAnswer", "CorrectAnswer", "answer_in_options", "")
	}
}

// Validate returns nil or an error whose fields map is suitable for logging
func (p *payloadValidator) Validate(resp *models.GenerateResponse) (map[string]string, error) {
	if err := p.v.Struct(resp); err != nil {
		return p.translate(err), err
	}
	return nil, nil
}

func (p *payloadValidator) translate(err error) map[string]string {
	fields := make(map[string]string)

	var ve govalidator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			fields[fe.Namespace()] = fe.Translate(p.trans)
		}
		return fields
	}

	fields["detail"] = err.Error()
	return fields
}
