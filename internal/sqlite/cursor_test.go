package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rpggio/probill/internal/domain/recurring"
	"github.com/rpggio/probill/internal/repository"
)

func TestCursorRepository_Upsert(t *testing.T) {
	db := NewTestDB(t)
	seedBusiness(t, db, "b1", "owner")
	insertProject(t, db, "p1", "b1")
	addService(t, NewProjectRepository(db), "s1", "p1", "b1", 1, int64Ptr(9900), true)
	repo := NewCursorRepository(db)
	ctx := context.Background()

	_, err := repo.Get(ctx, "b1", "s1")
	require.ErrorIs(t, err, repository.ErrNotFound)

	c := &recurring.Cursor{ProjectServiceID: "s1", BusinessID: "b1", LastGeneratedPeriodKey: "2025-01", UpdatedAt: time.Now().UTC()}
	require.NoError(t, repo.Upsert(ctx, c))

	c.LastGeneratedPeriodKey = "2025-02"
	require.NoError(t, repo.Upsert(ctx, c))

	got, err := repo.Get(ctx, "b1", "s1")
	require.NoError(t, err)
	require.Equal(t, "2025-02", got.LastGeneratedPeriodKey)

	_, err = repo.Get(ctx, "b2", "s1")
	require.ErrorIs(t, err, repository.ErrNotFound)

	err = repo.Upsert(ctx, &recurring.Cursor{ProjectServiceID: "ghost", BusinessID: "b1", LastGeneratedPeriodKey: "2025-01"})
	require.ErrorIs(t, err, repository.ErrForeignKeyViolation)
}
