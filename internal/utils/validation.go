package utils

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/asaskevich/govalidator"
	"github.com/nyaruka/phonenumbers"
)

var (
	// rxEmail is the deliberately loose local@domain.tld check used by the intake forms.
	rxEmail = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

	ErrEmptyEmail       = errors.New("email cannot be empty")
	ErrInvalidEmail     = errors.New("the provided email is not valid")
	ErrInvalidUUID      = errors.New("the provided id is not a valid UUID")
	ErrEmptyPhoneNumber = errors.New("phone number cannot be empty")
	ErrInvalidPhoneE164 = errors.New("the provided phone number is not a valid E.164 number")
)

func ValidateEmail(email string) error {
	if email == "" {
		return ErrEmptyEmail
	}

	if !rxEmail.MatchString(email) {
		return ErrInvalidEmail
	}

	return nil
}

// ValidateUUID checks that id is a canonical UUID string.
func ValidateUUID(id string) error {
	if !govalidator.IsUUID(id) {
		return fmt.Errorf("%w: %q", ErrInvalidUUID, id)
	}
	return nil
}

// FormatPhoneNumberE164 returns the E.164 form of an international phone number. Intake accepts any non-empty phone
// number, so callers fall back to the raw value when this fails.
func FormatPhoneNumberE164(phoneNumber string) (string, error) {
	phoneNumber = strings.TrimSpace(phoneNumber)
	if phoneNumber == "" {
		return "", ErrEmptyPhoneNumber
	}

	parsed, err := phonenumbers.Parse(phoneNumber, "")
	if err != nil || !phonenumbers.IsValidNumber(parsed) {
		return "", ErrInvalidPhoneE164
	}

	return phonenumbers.Format(parsed, phonenumbers.E164), nil
}
