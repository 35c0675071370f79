package validate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmail(t *testing.T) {
	for _, email := range []string{
		"test@example.com",
		"user.name+tag@example.co.uk",
		"first-last@sub.domain.org",
	} {
		got, err := Email(email)
		require.NoError(t, err, email)
		assert.Equal(t, email, got)
	}

	for _, email := range []string{
		"invalid.email",
		"@example.com",
		"user@domain",
		"user@domain.c",
		"",
	} {
		_, err := Email(email)
		assert.Error(t, err, email)
	}
}

func TestName(t *testing.T) {
	for _, name := range []string{"John", "O'Connor", "Mary-Jane", "van der Berg"} {
		got, err := Name(name, "First name")
		require.NoError(t, err, name)
		assert.Equal(t, name, got)
	}

	tests := []struct {
		name    string
		field   string
		message string
	}{
		{"J", "First name", "First name must be between 2 and 50 characters"},
		{"", "Last name", "Last name must be between 2 and 50 characters"},
		{"John123", "First name", "First name can only contain letters, spaces, hyphens, and apostrophes"},
	}
	for _, tt := range tests {
		_, err := Name(tt.name, tt.field)
		require.Error(t, err)
		assert.Equal(t, tt.message, err.Error())
	}
}

func TestPhoneNumber(t *testing.T) {
	got, err := PhoneNumber("+12125551234")
	require.NoError(t, err)
	assert.Equal(t, "+12125551234", got)

	_, err = PhoneNumber("+19995551234")
	assert.NoError(t, err)

	for _, phone := range []string{
		"+1212555123",  // too short
		"2125551234",   // missing +1
		"+11234567890", // area code starts with 1
		"+10234567890", // area code starts with 0
		"+442071234567",
	} {
		_, err := PhoneNumber(phone)
		assert.Error(t, err, phone)
	}
}

func TestDateOfBirth(t *testing.T) {
	now := time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC)

	got, err := dateOfBirthAt("1990-01-01", now)
	require.NoError(t, err)
	assert.Equal(t, "1990-01-01", got)

	// Exactly 18 years ago today passes.
	_, err = dateOfBirthAt("2006-06-15", now)
	assert.NoError(t, err)

	// One day short of 18 fails with the age message.
	_, err = dateOfBirthAt("2006-06-16", now)
	require.Error(t, err)
	assert.Equal(t, "Must be at least 18 years old", err.Error())

	// Birthday later this year: month/day comparison, not just year subtraction.
	_, err = dateOfBirthAt("2006-12-01", now)
	assert.Error(t, err)

	_, err = dateOfBirthAt("invalid-date", now)
	require.Error(t, err)
	assert.Equal(t, "Invalid date format. Use YYYY-MM-DD", err.Error())
}

func TestPassword(t *testing.T) {
	for _, password := range []string{"ValidP@ssw0rd", "Str0ng!Pass", "C0mplex#123"} {
		ok, msg := Password(password)
		assert.True(t, ok, password)
		assert.Equal(t, "Password is valid", msg)
	}

	// Checks stop at the first failing rule, in a fixed order.
	tests := []struct {
		password string
		message  string
	}{
		{"short1", "Password must be at least 8 characters long"},
		{"lowercase123!", "Password must contain at least one uppercase letter"},
		{"UPPERCASE123!", "Password must contain at least one lowercase letter"},
		{"NoDigits!", "Password must contain at least one number"},
		{"ValidPassword1", "Password must contain at least one special character"},
	}
	for _, tt := range tests {
		ok, msg := Password(tt.password)
		assert.False(t, ok, tt.password)
		assert.Equal(t, tt.message, msg)
	}
}
