package services

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"
)

func checkLen(field, value string, minLen, maxLen int) error {
	n := utf8.RuneCountInString(value)
	switch {
	case minLen > 0 && strings.TrimSpace(value) == "":
		return &ValidationError{Field: field, Message: "is required"}
	case n < minLen || n > maxLen:
		return &ValidationError{Field: field, Message: lengthMessage(minLen, maxLen)}
	}
	return nil
}

func lengthMessage(minLen, maxLen int) string {
	if minLen == 0 {
		return fmt.Sprintf("must be at most %d characters", maxLen)
	}
	return fmt.Sprintf("must be between %d and %d characters", minLen, maxLen)
}

// Validate checks the login request shape.
func (in LoginInput) Validate() error {
	if strings.TrimSpace(in.Identifier) == "" {
		return &ValidationError{Field: "usernameOrEmail", Message: "is required"}
	}
	return checkLen("password", in.Password, 6, 100)
}

// Validate checks the registration request shape.
func (in RegisterInput) Validate() error {
	if err := checkLen("username", in.Username, 3, 50); err != nil {
		return err
	}
	if err := checkLen("email", in.Email, 1, 100); err != nil {
		return err
	}
	if addr, err := mail.ParseAddress(in.Email); err != nil || addr.Address != in.Email {
		return &ValidationError{Field: "email", Message: "is not a valid email address"}
	}
	if err := checkLen("password", in.Password, 6, 100); err != nil {
		return err
	}
	if err := checkLen("firstName", in.FirstName, 1, 100); err != nil {
		return err
	}
	if err := checkLen("lastName", in.LastName, 1, 100); err != nil {
		return err
	}
	return checkLen("phone", in.Phone, 0, 20)
}
