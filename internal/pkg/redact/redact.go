// redact — маскирование чувствительных значений перед записью в лог.
package redact

import (
	"strings"
	"unicode/utf8"
)

// Email оставляет первые две руны локальной части и домен целиком.
// Невалидный адрес целиком заменяется на "***".
func Email(s string) string {
	parts := strings.Split(s, "@")
	if len(parts) != 2 {
		return "***"
	}

	local, domain := parts[0], parts[1]
	if utf8.RuneCountInString(local) > 2 {
		r := []rune(local)
		local = string(r[:2]) + "***"
	} else {
		local = "***"
	}

	return local + "@" + domain
}

// Identifier маскирует идентификатор входа: email — через Email,
// username — первой руной.
func Identifier(s string) string {
	if strings.Contains(s, "@") {
		return Email(s)
	}

	if s == "" {
		return "***"
	}

	r, _ := utf8.DecodeRuneInString(s)
	return string(r) + "***"
}

func Token() string    { return "[REDACTED_TOKEN]" }
func Password() string { return "[REDACTED_PASSWORD]" }
