package db

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/records/internal/models"
)

func captureSlog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func TestGormLogger_SkipsNotFoundAndUsesSlog(t *testing.T) {
	buf := captureSlog(t)
	ctx := context.Background()

	gdb, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	require.NoError(t, Migrate(ctx, gdb))

	err = gdb.WithContext(ctx).Where("id = ?", "missing").First(&models.User{}).Error
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.NotContains(t, buf.String(), "record not found")

	var n int
	err = gdb.WithContext(ctx).Raw("SELECT count(*) FROM no_such_table").Scan(&n).Error
	require.Error(t, err)
	assert.Contains(t, buf.String(), `"component":"gorm"`)
	assert.Contains(t, buf.String(), "no_such_table")
	assert.Contains(t, buf.String(), `"level":"WARN"`)
}
