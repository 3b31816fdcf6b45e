package repository_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/emberapp/discovery/internal/db"
	"github.com/emberapp/discovery/internal/repository"
)

// setup in-memory DB, one per test so connections share state
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	database, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		NowFunc: func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	sqlDB, err := database.DB()
	if err != nil {
		t.Fatalf("failed to get sql db: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })
	if err := database.AutoMigrate(&db.Interaction{}, &db.Match{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return database
}

func TestUpsertLastWriteWins(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewInteractionRepository(dbase)

	// insert like
	recorded, prev, err := repo.Upsert(ctx, 1, 2, db.TypeLike)
	require.NoError(t, err)
	assert.True(t, recorded)
	assert.Nil(t, prev)

	// overwrite with pass
	recorded, prev, err = repo.Upsert(ctx, 1, 2, db.TypePass)
	require.NoError(t, err)
	assert.True(t, recorded)
	require.NotNil(t, prev)
	assert.Equal(t, db.TypeLike, *prev)

	var interactions []db.Interaction
	require.NoError(t, dbase.Find(&interactions).Error)
	require.Len(t, interactions, 1)
	assert.Equal(t, db.TypePass, interactions[0].Type)
}

func TestUpsertIdempotent(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewInteractionRepository(dbase)

	for i := 0; i < 3; i++ {
		recorded, _, err := repo.Upsert(ctx, 1, 2, db.TypeLike)
		require.NoError(t, err)
		assert.True(t, recorded)
	}

	var count int64
	require.NoError(t, dbase.Model(&db.Interaction{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestUpsertTerminalRowPreserved(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewInteractionRepository(dbase)

	_, _, err := repo.Upsert(ctx, 1, 2, db.TypeBlock)
	require.NoError(t, err)

	// later like is accepted but inert
	recorded, _, err := repo.Upsert(ctx, 1, 2, db.TypeLike)
	require.NoError(t, err)
	assert.False(t, recorded)

	interaction, err := repo.Get(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, db.TypeBlock, interaction.Type)
}

func TestBlockOverwritesLike(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewInteractionRepository(dbase)

	_, _, err := repo.Upsert(ctx, 1, 2, db.TypeLike)
	require.NoError(t, err)

	recorded, _, err := repo.Upsert(ctx, 1, 2, db.TypeBlock)
	require.NoError(t, err)
	assert.True(t, recorded)

	interaction, err := repo.Get(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, db.TypeBlock, interaction.Type)
}

func TestHasPositive(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewInteractionRepository(dbase)

	_, _, err := repo.Upsert(ctx, 1, 2, db.TypeSuperlike)
	require.NoError(t, err)
	_, _, err = repo.Upsert(ctx, 2, 1, db.TypePass)
	require.NoError(t, err)

	positive, err := repo.HasPositive(ctx, 1, 2)
	require.NoError(t, err)
	assert.True(t, positive)

	positive, err = repo.HasPositive(ctx, 2, 1)
	require.NoError(t, err)
	assert.False(t, positive)
}

func TestHasTerminalBetween(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewInteractionRepository(dbase)

	terminal, err := repo.HasTerminalBetween(ctx, 1, 2)
	require.NoError(t, err)
	assert.False(t, terminal)

	_, _, err = repo.Upsert(ctx, 2, 1, db.TypeReport)
	require.NoError(t, err)

	// direction does not matter
	terminal, err = repo.HasTerminalBetween(ctx, 1, 2)
	require.NoError(t, err)
	assert.True(t, terminal)
}

func TestGetLikedByExcludesPassedAndPaginates(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewInteractionRepository(dbase)

	// actors 1,2 liked user 99
	_, _, _ = repo.Upsert(ctx, 1, 99, db.TypeLike)
	_, _, _ = repo.Upsert(ctx, 2, 99, db.TypeLike)
	// user 99 passed actor 2 → exclude
	_, _, _ = repo.Upsert(ctx, 99, 2, db.TypePass)

	interactions, _, err := repo.GetLikedBy(ctx, 99, nil, 10)
	require.NoError(t, err)
	require.Len(t, interactions, 1)
	assert.Equal(t, uint64(1), interactions[0].ActorID)
}

func TestGetLikedByExcludesBlockedActors(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewInteractionRepository(dbase)

	_, _, _ = repo.Upsert(ctx, 1, 99, db.TypeLike)
	_, _, _ = repo.Upsert(ctx, 99, 1, db.TypeBlock)

	interactions, _, err := repo.GetLikedBy(ctx, 99, nil, 10)
	require.NoError(t, err)
	assert.Len(t, interactions, 0)
}

func TestGetNewLikedBy(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewInteractionRepository(dbase)

	// actor 1 liked 99, and 99 liked back → mutual
	_, _, _ = repo.Upsert(ctx, 1, 99, db.TypeLike)
	_, _, _ = repo.Upsert(ctx, 99, 1, db.TypeLike)

	// actor 2 liked 99, but not mutual
	_, _, _ = repo.Upsert(ctx, 2, 99, db.TypeLike)

	interactions, _, err := repo.GetNewLikedBy(ctx, 99, nil, 10)
	require.NoError(t, err)
	require.Len(t, interactions, 1)
	assert.Equal(t, uint64(2), interactions[0].ActorID)
}

func TestCountLikedBy(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewInteractionRepository(dbase)

	_, _, _ = repo.Upsert(ctx, 1, 99, db.TypeLike)
	_, _, _ = repo.Upsert(ctx, 2, 99, db.TypeSuperlike)
	_, _, _ = repo.Upsert(ctx, 3, 99, db.TypePass)

	count, err := repo.CountLikedBy(ctx, 99)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}
