// Package authz decide acceso por ownership. Decisión pura, sin I/O:
// el caller ya viene verificado por el token y el target sale del path.
package authz

// Authorize permite el acceso cuando el request no direcciona un recurso
// ajeno: sin target el scope es implícitamente el propio caller; con target,
// solo si coincide con el subject del token.
func Authorize(callerSubject, targetResourceID string) bool {
	if targetResourceID == "" {
		return true
	}
	return callerSubject == targetResourceID
}
