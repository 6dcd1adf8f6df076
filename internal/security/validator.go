package security

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/noscite/noscite-assistant/internal/domain"
)

const (
	MaxSessionIDLength = 100
	MaxEmailLength     = 254
)

var validate = validator.New()

var (
	sessionIDPattern     = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	shallowEmailPattern  = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	disposableEmailWords = regexp.MustCompile(`(?i)temp|fake|test|spam|noreply`)
	phonePattern         = regexp.MustCompile(`^[+0-9\s().-]{6,20}$`)

	angleBrackets  = regexp.MustCompile(`[<>]`)
	javascriptURI  = regexp.MustCompile(`(?i)javascript:`)
	eventHandlerRe = regexp.MustCompile(`(?i)on\w+=`)
)

// ValidateText trims text, enforces its rune length within [minLen, maxLen]
// and strips markup fragments. A nil text is an absent field.
func ValidateText(text *string, minLen, maxLen int, field string) (string, error) {
	if text == nil {
		return "", domain.NewValidationError(fmt.Sprintf("%s è obbligatorio", field))
	}

	trimmed := strings.TrimSpace(*text)
	n := utf8.RuneCountInString(trimmed)
	if n < minLen {
		if n == 0 {
			return "", domain.NewValidationError(fmt.Sprintf("%s è obbligatorio", field))
		}
		return "", domain.NewValidationError(fmt.Sprintf("%s deve contenere almeno %d caratteri", field, minLen))
	}
	if n > maxLen {
		return "", domain.NewValidationError(fmt.Sprintf("%s non può superare %d caratteri", field, maxLen))
	}

	sanitized := strings.TrimSpace(Sanitize(trimmed))
	if minLen > 0 && sanitized == "" {
		return "", domain.NewValidationError(fmt.Sprintf("%s contiene caratteri non validi", field))
	}
	return sanitized, nil
}

// Sanitize removes angle brackets, javascript: URIs and inline event handler
// attributes. It is a textual filter, not an HTML sanitizer.
func Sanitize(s string) string {
	s = angleBrackets.ReplaceAllString(s, "")
	s = javascriptURI.ReplaceAllString(s, "")
	return eventHandlerRe.ReplaceAllString(s, "")
}

// ValidateSessionID checks a client generated session token.
func ValidateSessionID(id *string) (string, error) {
	if id == nil || *id == "" {
		return "", domain.NewValidationError("sessionId è obbligatorio")
	}
	if len(*id) > MaxSessionIDLength {
		return "", domain.NewValidationError("sessionId non valido")
	}
	if !sessionIDPattern.MatchString(*id) {
		return "", domain.NewValidationError("sessionId non valido")
	}
	return *id, nil
}

// ValidateEmail returns the normalized address or a validation error.
func ValidateEmail(email *string) (string, error) {
	if email == nil {
		return "", domain.NewValidationError("email è obbligatoria")
	}

	trimmed := strings.ToLower(strings.TrimSpace(*email))
	if trimmed == "" {
		return "", domain.NewValidationError("email è obbligatoria")
	}
	if len(trimmed) > MaxEmailLength {
		return "", domain.NewValidationError("indirizzo email troppo lungo")
	}
	if !shallowEmailPattern.MatchString(trimmed) || validate.Var(trimmed, "email") != nil {
		return "", domain.NewValidationError("indirizzo email non valido")
	}
	if disposableEmailWords.MatchString(trimmed) {
		return "", domain.NewValidationError("indirizzo email non accettato")
	}
	return trimmed, nil
}

// ValidatePhone accepts an absent or empty phone number.
func ValidatePhone(phone *string) (string, error) {
	if phone == nil {
		return "", nil
	}
	trimmed := strings.TrimSpace(*phone)
	if trimmed == "" {
		return "", nil
	}
	if !phonePattern.MatchString(trimmed) {
		return "", domain.NewValidationError("numero di telefono non valido")
	}
	return trimmed, nil
}
