package validate

import (
	"fmt"
	"regexp"
	"time"
)

// Error reports a single violated input rule. It is always recoverable by
// re-prompting the user with Message.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

var (
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	namePattern  = regexp.MustCompile(`^[a-zA-Z\s\-']+$`)
	phonePattern = regexp.MustCompile(`^\+1[2-9]\d{9}$`)

	upperPattern  = regexp.MustCompile(`[A-Z]`)
	lowerPattern  = regexp.MustCompile(`[a-z]`)
	digitPattern  = regexp.MustCompile(`\d`)
	symbolPattern = regexp.MustCompile(`[!@#$%^&*(),.?":{}|<>]`)
)

// Email validates an address against a standard local@domain pattern with a
// 2+ character TLD and returns it unchanged.
func Email(email string) (string, error) {
	if !emailPattern.MatchString(email) {
		return "", &Error{Field: "email", Message: "Invalid email format"}
	}
	return email, nil
}

// Name validates a name field. The field label is used verbatim in error
// messages so callers get "First name must be..." style text.
func Name(name, field string) (string, error) {
	if len(name) < 2 || len(name) > 50 {
		return "", &Error{Field: field, Message: fmt.Sprintf("%s must be between 2 and 50 characters", field)}
	}
	if !namePattern.MatchString(name) {
		return "", &Error{Field: field, Message: fmt.Sprintf("%s can only contain letters, spaces, hyphens, and apostrophes", field)}
	}
	return name, nil
}

// PhoneNumber validates a US number in +1XXXXXXXXXX form. Area codes starting
// with 0 or 1 are not valid US area codes and are rejected.
func PhoneNumber(phone string) (string, error) {
	if !phonePattern.MatchString(phone) {
		return "", &Error{Field: "phone_number", Message: "Phone number must be in format +1XXXXXXXXXX and be a valid US number"}
	}
	return phone, nil
}

// DateOfBirth validates a YYYY-MM-DD date and requires the holder to be at
// least 18 years old today.
func DateOfBirth(dob string) (string, error) {
	return dateOfBirthAt(dob, time.Now())
}

func dateOfBirthAt(dob string, now time.Time) (string, error) {
	born, err := time.Parse("2006-01-02", dob)
	if err != nil {
		return "", &Error{Field: "date_of_birth", Message: "Invalid date format. Use YYYY-MM-DD"}
	}
	age := now.Year() - born.Year()
	// Whole years only: subtract one until the birthday has passed this year.
	if now.Month() < born.Month() || (now.Month() == born.Month() && now.Day() < born.Day()) {
		age--
	}
	if age < 18 {
		return "", &Error{Field: "date_of_birth", Message: "Must be at least 18 years old"}
	}
	return dob, nil
}

// Password checks password strength. Checks run in a fixed order and stop at
// the first failure, so the returned message is deterministic: length, then
// uppercase, lowercase, digit, special character.
func Password(password string) (bool, string) {
	if len(password) < 8 {
		return false, "Password must be at least 8 characters long"
	}
	if !upperPattern.MatchString(password) {
		return false, "Password must contain at least one uppercase letter"
	}
	if !lowerPattern.MatchString(password) {
		return false, "Password must contain at least one lowercase letter"
	}
	if !digitPattern.MatchString(password) {
		return false, "Password must contain at least one number"
	}
	if !symbolPattern.MatchString(password) {
		return false, "Password must contain at least one special character"
	}
	return true, "Password is valid"
}
