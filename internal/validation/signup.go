// Package validation concentra las reglas de validación de input del signup.
package validation

import "regexp"

// Email rules:
// - local-part "@" dominio con al menos un punto.
// - Sin espacios ni "@" repetidos dentro de cada parte.
// - Deliberadamente permisivo: el identity provider es quien rechaza
//   direcciones raras; esto solo corta lo obviamente roto.
//
// Examples valid: a@b.com, first.last+tag@sub.example.io
// Examples invalid: "", "a@b", "a b@c.com", "@b.com", "a@"
var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// MinPasswordLength es la política mínima de password del signup.
const MinPasswordLength = 8

// ValidEmail returns true if the address matches the allowed shape.
func ValidEmail(email string) bool {
	return emailRe.MatchString(email)
}

// ValidPassword returns true if the password meets the minimum-length policy.
func ValidPassword(password string) bool {
	return len(password) >= MinPasswordLength
}
