package http

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

	// Password rule: at least 8 characters from the allowed set, with at
	// least one lowercase, one uppercase, one digit and one special
	// character. Go's regexp has no lookaheads, so the rule is split.
	passwordCharset = regexp.MustCompile(`^[A-Za-z\d@$!%*?&]{8,}$`)
	hasLower        = regexp.MustCompile(`[a-z]`)
	hasUpper        = regexp.MustCompile(`[A-Z]`)
	hasDigit        = regexp.MustCompile(`\d`)
	hasSpecial      = regexp.MustCompile(`[@$!%*?&]`)
)

func newValidator() *validator.Validate {
	validate := validator.New()

	// Registration of fixed rules cannot fail; the panics below would
	// only fire on a programming error at startup.
	mustRegister(validate, "notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	mustRegister(validate, "email_format", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	})
	mustRegister(validate, "password_policy", func(fl validator.FieldLevel) bool {
		password := fl.Field().String()
		return passwordCharset.MatchString(password) &&
			hasLower.MatchString(password) &&
			hasUpper.MatchString(password) &&
			hasDigit.MatchString(password) &&
			hasSpecial.MatchString(password)
	})

	return validate
}

func mustRegister(validate *validator.Validate, tag string, fn validator.Func) {
	if err := validate.RegisterValidation(tag, fn); err != nil {
		panic(err)
	}
}

// formatValidationErrors joins the per-field messages into the single
// string the error body carries.
func formatValidationErrors(validationErrors validator.ValidationErrors) string {
	messages := make([]string, 0, len(validationErrors))
	for _, fieldError := range validationErrors {
		messages = append(messages, validationMessage(fieldError))
	}
	return strings.Join(messages, ", ")
}

func validationMessage(fieldError validator.FieldError) string {
	switch fieldError.Field() {
	case "Name":
		return "El nombre es obligatorio"
	case "Email":
		if fieldError.Tag() == "required" {
			return "El correo es obligatorio"
		}
		return "El formato del correo no es válido"
	case "Password":
		if fieldError.Tag() == "required" {
			return "La contraseña es obligatoria"
		}
		return "La contraseña debe contener al menos 8 caracteres, una mayúscula, una minúscula, un número y un carácter especial"
	case "Phones":
		return "Debe incluir al menos un teléfono"
	case "Number":
		return "El número de teléfono es obligatorio"
	case "CityCode":
		return "El código de ciudad es obligatorio"
	case "CountryCode":
		return "El código de país es obligatorio"
	default:
		return "El campo " + fieldError.Field() + " no es válido"
	}
}
