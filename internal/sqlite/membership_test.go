package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rpggio/probill/internal/domain/access"
	"github.com/rpggio/probill/internal/repository"
)

var (
	_ access.Checker     = (*MembershipRepository)(nil)
	_ access.OwnerLookup = (*MembershipRepository)(nil)
)

func TestMembershipRepository_Capabilities(t *testing.T) {
	db := NewTestDB(t)
	seedBusiness(t, db, "b1", "owner")
	repo := NewMembershipRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.SetMember(ctx, "b1", "admin", RoleAdmin))
	require.NoError(t, repo.SetMember(ctx, "b1", "viewer", RoleMember))

	cases := []struct {
		actor    string
		business string
		want     bool
	}{
		{"owner", "b1", true},
		{"admin", "b1", true},
		{"viewer", "b1", false},
		{"stranger", "b1", false},
		{"owner", "b2", false},
	}
	for _, tc := range cases {
		ok, err := repo.HasAdminCapability(ctx, tc.actor, tc.business)
		require.NoError(t, err)
		require.Equal(t, tc.want, ok, "%s on %s", tc.actor, tc.business)
	}

	// demotion takes effect
	require.NoError(t, repo.SetMember(ctx, "b1", "admin", RoleMember))
	ok, err := repo.HasAdminCapability(ctx, "admin", "b1")
	require.NoError(t, err)
	require.False(t, ok)

	require.Error(t, repo.SetMember(ctx, "b1", "x", Role("superuser")))
}

func TestMembershipRepository_OwnerOf(t *testing.T) {
	db := NewTestDB(t)
	seedBusiness(t, db, "b1", "owner")
	repo := NewMembershipRepository(db)
	ctx := context.Background()

	owner, err := repo.OwnerOf(ctx, "b1")
	require.NoError(t, err)
	require.Equal(t, "owner", owner)

	require.NoError(t, repo.CreateBusiness(ctx, "b2", "No owner"))
	_, err = repo.OwnerOf(ctx, "b2")
	require.ErrorIs(t, err, repository.ErrNotFound)

	require.ErrorIs(t, repo.CreateBusiness(ctx, "b2", "again"), repository.ErrDuplicate)
}

func TestAPIKeyRepository_CreateResolve(t *testing.T) {
	db := NewTestDB(t)
	seedBusiness(t, db, "b1", "owner")
	keys := NewAPIKeyRepository(db)
	ctx := context.Background()

	token, err := keys.Create(ctx, "b1", "owner", "laptop")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	var stored string
	require.NoError(t, db.QueryRow(`SELECT key_hash FROM api_keys`).Scan(&stored))
	require.Equal(t, HashToken(token), stored)
	require.NotEqual(t, token, stored)

	actor, err := keys.Resolve(ctx, token)
	require.NoError(t, err)
	require.Equal(t, access.Actor{ID: "owner", BusinessID: "b1"}, actor)

	var touched int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM api_keys WHERE last_used IS NOT NULL`).Scan(&touched))
	require.Equal(t, 1, touched)

	_, err = keys.Resolve(ctx, "pb_wrong")
	require.ErrorIs(t, err, repository.ErrNotFound)

	_, err = keys.Create(ctx, "b1", "not-a-member", "")
	require.ErrorIs(t, err, repository.ErrForeignKeyViolation)
}

func TestMembershipRepository_EnsureBusiness(t *testing.T) {
	db := NewTestDB(t)
	repo := NewMembershipRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.EnsureBusiness(ctx, "default", "Default", "owner"))
	ok, err := repo.HasAdminCapability(ctx, "owner", "default")
	require.NoError(t, err)
	require.True(t, ok)

	// A second call with another owner changes nothing.
	require.NoError(t, repo.EnsureBusiness(ctx, "default", "Default", "intruder"))
	ok, err = repo.HasAdminCapability(ctx, "intruder", "default")
	require.NoError(t, err)
	require.False(t, ok)

	owner, err := repo.OwnerOf(ctx, "default")
	require.NoError(t, err)
	require.Equal(t, "owner", owner)
}
