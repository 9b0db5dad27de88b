package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rpggio/probill/internal/repository"
)

// Role is the membership level of an actor in a business.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// MembershipRepository stores businesses and their members. It implements
// access.Checker and access.OwnerLookup.
type MembershipRepository struct {
	db *DB
}

// NewMembershipRepository creates a new MembershipRepository
func NewMembershipRepository(db *DB) *MembershipRepository {
	return &MembershipRepository{db: db}
}

// CreateBusiness registers a business
func (r *MembershipRepository) CreateBusiness(ctx context.Context, id, name string) error {
	_, err := r.db.conn(ctx).ExecContext(ctx,
		`INSERT INTO businesses (id, name, created_at) VALUES (?, ?, ?)`,
		id, name, time.Now().UTC(),
	)
	if err != nil {
		return mapWriteError(err, "create business")
	}
	return nil
}

// SetMember adds actorID to the business or changes its role
func (r *MembershipRepository) SetMember(ctx context.Context, businessID, actorID string, role Role) error {
	switch role {
	case RoleOwner, RoleAdmin, RoleMember:
	default:
		return fmt.Errorf("unknown role %q", role)
	}

	_, err := r.db.conn(ctx).ExecContext(ctx, `
		INSERT INTO business_members (business_id, actor_id, role, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(business_id, actor_id) DO UPDATE SET role = excluded.role
	`, businessID, actorID, role, time.Now().UTC())
	if err != nil {
		return mapWriteError(err, "set business member")
	}
	return nil
}

// HasAdminCapability reports whether actorID is an owner or admin of the business
func (r *MembershipRepository) HasAdminCapability(ctx context.Context, actorID, businessID string) (bool, error) {
	var n int
	err := r.db.conn(ctx).QueryRowContext(ctx, `
		SELECT COUNT(*) FROM business_members
		WHERE business_id = ? AND actor_id = ? AND role IN ('owner', 'admin')
	`, businessID, actorID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check membership: %w", err)
	}
	return n > 0, nil
}

// OwnerOf returns the earliest owner of the business
func (r *MembershipRepository) OwnerOf(ctx context.Context, businessID string) (string, error) {
	var actorID string
	err := r.db.conn(ctx).QueryRowContext(ctx, `
		SELECT actor_id FROM business_members
		WHERE business_id = ? AND role = 'owner'
		ORDER BY created_at, actor_id
		LIMIT 1
	`, businessID).Scan(&actorID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", repository.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get business owner: %w", err)
	}
	return actorID, nil
}

// EnsureBusiness creates the business with ownerID as its owner unless the
// business already exists. An existing business is left untouched.
func (r *MembershipRepository) EnsureBusiness(ctx context.Context, id, name, ownerID string) error {
	return r.db.inTx(ctx, func(ctx context.Context) error {
		ex := r.db.conn(ctx)
		res, err := ex.ExecContext(ctx,
			`INSERT INTO businesses (id, name, created_at) VALUES (?, ?, ?) ON CONFLICT(id) DO NOTHING`,
			id, name, time.Now().UTC(),
		)
		if err != nil {
			return mapWriteError(err, "ensure business")
		}
		if n, err := res.RowsAffected(); err != nil || n == 0 {
			return err
		}
		return r.SetMember(ctx, id, ownerID, RoleOwner)
	})
}
