// Package validation содержит функции валидации входных данных.
package validation

import "net/mail"

const (
	minNameLength     = 2
	minPasswordLength = 8
)

// IsValidEmail проверяет, что строка является корректным адресом
// электронной почты без отображаемого имени.
func IsValidEmail(email string) bool {
	if email == "" {
		return false
	}

	addr, err := mail.ParseAddress(email)
	if err != nil {
		return false
	}

	return addr.Address == email
}

// IsValidName проверяет, что имя содержит не менее двух символов.
func IsValidName(name string) bool {
	return len([]rune(name)) >= minNameLength
}

// IsValidPassword проверяет, что пароль содержит не менее восьми символов.
func IsValidPassword(password string) bool {
	return len(password) >= minPasswordLength
}
