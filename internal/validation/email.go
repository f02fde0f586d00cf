package validation

import (
	"regexp"
	"strings"
)

// Email rules:
// - Exactamente un '@' separando local y dominio.
// - Local: 1..64 chars, sin espacios, ';' ni '@'.
// - Dominio: labels [a-z0-9-] separados por '.', sin guión al inicio/fin,
//   y TLD final de 2+ letras.
// - Largo total 3..254 (límite práctico de RFC 5321).
//
// Examples valid: ana@example.com, a.b+tag@sub.dominio.io, user04@e2e.local
// Examples invalid: "", sin-arroba, dos@@arrobas, user@, @dominio, user@dominio
var emailRe = regexp.MustCompile(`^[^@\s;]{1,64}@(?:[a-z0-9](?:[a-z0-9-]{0,61}[a-z0-9])?\.)+[a-z]{2,}$`)

// NormalizeEmail pasa el email a minúsculas y recorta espacios. La identidad
// de la cuenta es case-insensitive sobre el email normalizado.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ValidEmail informa si el email (ya normalizado) tiene forma de dirección.
func ValidEmail(email string) bool {
	if len(email) < 3 || len(email) > 254 {
		return false
	}
	return emailRe.MatchString(email)
}
