package database

import (
	"context"
	"testing"

	"github.com/waste3d/courseplatform-api/config"
	"github.com/waste3d/courseplatform-api/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedIsIdempotent(t *testing.T) {
	db, err := OpenMemory(t.Name())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, Seed(ctx, db))
	require.NoError(t, Seed(ctx, db))

	var plans []domain.Plan
	require.NoError(t, db.Order("amount asc").Find(&plans).Error)
	require.Len(t, plans, len(DefaultPlans))
	assert.Equal(t, "monthly", plans[0].Code)
	assert.NotEqual(t, plans[0].ID, plans[1].ID)
	assert.NoError(t, Ping(ctx, db))
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(config.Config{DBDriver: "oracle"})
	assert.Error(t, err)
}

func TestOpenSQLiteFile(t *testing.T) {
	cfg := config.Config{DBDriver: "sqlite", SQLitePath: t.TempDir() + "/test.db"}
	db, err := Open(cfg)
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	assert.True(t, db.Migrator().HasTable(&domain.WebhookEvent{}))
}
