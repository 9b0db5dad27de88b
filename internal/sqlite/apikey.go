package sqlite

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/rpggio/probill/internal/domain/access"
	"github.com/rpggio/probill/internal/repository"
)

// APIKeyRepository issues and resolves API keys. Only the SHA-256 of a key
// is stored.
type APIKeyRepository struct {
	db *DB
}

// NewAPIKeyRepository creates a new APIKeyRepository
func NewAPIKeyRepository(db *DB) *APIKeyRepository {
	return &APIKeyRepository{db: db}
}

// Create issues a key for a business member and returns the plain token.
func (r *APIKeyRepository) Create(ctx context.Context, businessID, actorID, description string) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate api key: %w", err)
	}
	token := "pb_" + hex.EncodeToString(buf)

	_, err := r.db.conn(ctx).ExecContext(ctx, `
		INSERT INTO api_keys (key_hash, business_id, actor_id, description, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, HashToken(token), businessID, actorID, description, time.Now().UTC())
	if err != nil {
		return "", mapWriteError(err, "create api key")
	}
	return token, nil
}

// Resolve returns the actor a token belongs to and records its use.
func (r *APIKeyRepository) Resolve(ctx context.Context, token string) (access.Actor, error) {
	hash := HashToken(token)

	var actor access.Actor
	err := r.db.conn(ctx).QueryRowContext(ctx,
		`SELECT actor_id, business_id FROM api_keys WHERE key_hash = ?`, hash,
	).Scan(&actor.ID, &actor.BusinessID)
	if errors.Is(err, sql.ErrNoRows) {
		return access.Actor{}, repository.ErrNotFound
	}
	if err != nil {
		return access.Actor{}, fmt.Errorf("failed to resolve api key: %w", err)
	}

	if _, err := r.db.conn(ctx).ExecContext(ctx,
		`UPDATE api_keys SET last_used = ? WHERE key_hash = ?`, time.Now().UTC(), hash,
	); err != nil {
		return access.Actor{}, fmt.Errorf("failed to touch api key: %w", err)
	}
	return actor, nil
}

// HashToken returns the hex SHA-256 of an API token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
