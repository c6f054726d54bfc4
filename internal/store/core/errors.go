package core

import "errors"

var (
	// ErrNotFound se devuelve cuando el perfil no existe.
	ErrNotFound = errors.New("store: profile not found")

	// ErrDuplicate se devuelve cuando ya existe un perfil con la misma clave.
	ErrDuplicate = errors.New("store: duplicate profile")
)
