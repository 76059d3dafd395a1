package repositories

import (
	"context"

	"catalogsync/internal/models"
)

type CredentialRepository interface {
	Create(ctx context.Context, cred *models.APICredential) error
	GetByUsername(ctx context.Context, username string) (*models.APICredential, error)
}

type credentialRepo struct {
	db DBTX
}

func NewCredentialRepo(db DBTX) CredentialRepository {
	return &credentialRepo{db: db}
}

// Create stores a credential, replacing the secret and capabilities of an
// existing user with the same name.
func (r *credentialRepo) Create(ctx context.Context, cred *models.APICredential) error {
	query := `
		INSERT INTO api_credentials (username, secret_hash, capabilities, created_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (username) DO UPDATE
		SET secret_hash = EXCLUDED.secret_hash, capabilities = EXCLUDED.capabilities
		RETURNING id, created_at
	`
	err := r.db.QueryRow(ctx, query, cred.Username, cred.SecretHash, cred.Capabilities).Scan(&cred.ID, &cred.CreatedAt)
	return mapError(err)
}

func (r *credentialRepo) GetByUsername(ctx context.Context, username string) (*models.APICredential, error) {
	query := `
		SELECT id, username, secret_hash, capabilities, created_at
		FROM api_credentials
		WHERE username = $1
	`
	cred := &models.APICredential{}
	err := r.db.QueryRow(ctx, query, username).Scan(&cred.ID, &cred.Username, &cred.SecretHash, &cred.Capabilities, &cred.CreatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return cred, nil
}
