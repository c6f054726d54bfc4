package core

import "context"

// ProfileRepository define las operaciones del profile store.
// Implementaciones en store/pg (PostgreSQL) y store/dynamo (DynamoDB).
type ProfileRepository interface {
	// GetByUserID retorna el perfil o ErrNotFound.
	GetByUserID(ctx context.Context, userID string) (*Profile, error)

	// GetByEmail retorna el perfil o ErrNotFound.
	GetByEmail(ctx context.Context, email string) (*Profile, error)

	// Put crea el perfil con timestamps de creación/actualización.
	Put(ctx context.Context, p *Profile) error

	// UpdateCredentialLocator actualiza el locator y UpdatedAt.
	UpdateCredentialLocator(ctx context.Context, userID, locator string) error
}
