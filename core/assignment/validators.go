package assignment

import (
	"github.com/go-playground/validator/v10"

	"github.com/nm2tech/classroom/core"
)

var (
	subjectTag  = "subject"
	subjectText = "invalid subject"
)

func init() {
	_ = core.Validate.RegisterValidation(subjectTag, subjectValidation)
	core.RegisterCustomTranslation(core.Validate, core.Translator, subjectTag, subjectText)
}

// subjectValidation checks that the provided subject is one of Subjects.
func subjectValidation(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	for _, subj := range Subjects {
		if s == subj {
			return true
		}
	}
	return false
}
