package contact

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/sbcarpet/showroom/internal/domain"
)

const minMessageLength = 10

const (
	msgFirstNameRequired = "First name is required"
	msgLastNameRequired  = "Last name is required"
	msgEmailRequired     = "Email is required"
	msgEmailInvalid      = "Please enter a valid email address"
	msgPhoneRequired     = "Phone number is required"
	msgPhoneInvalid      = "Please enter a valid phone number"
	msgMessageRequired   = "Message is required"
	msgMessageTooShort   = "Message must be at least 10 characters"
)

var (
	emailPattern = regexp.MustCompile(`^[^\p{Z}\s@]+@[^\p{Z}\s@]+\.[^\p{Z}\s@]+$`)
	phonePattern = regexp.MustCompile(`^[0-9+\-\s()]{10,15}$`)
)

// Validate checks every field in one pass so the visitor sees all problems at once.
// It has no side effects.
func Validate(fields domain.ContactFields) (bool, domain.ContactErrors) {
	var errs domain.ContactErrors

	if isBlank(fields.FirstName) {
		errs.FirstName = msgFirstNameRequired
	}

	if isBlank(fields.LastName) {
		errs.LastName = msgLastNameRequired
	}

	switch {
	case isBlank(fields.Email):
		errs.Email = msgEmailRequired
	case !emailPattern.MatchString(fields.Email):
		errs.Email = msgEmailInvalid
	}

	switch {
	case isBlank(fields.Phone):
		errs.Phone = msgPhoneRequired
	case !phonePattern.MatchString(stripWhitespace(fields.Phone)):
		errs.Phone = msgPhoneInvalid
	}

	switch message := strings.TrimSpace(fields.Message); {
	case message == "":
		errs.Message = msgMessageRequired
	case utf8.RuneCountInString(message) < minMessageLength:
		errs.Message = msgMessageTooShort
	}

	return !errs.Any(), errs
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func stripWhitespace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
