package db

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fatflowers/memberlink/internal/models"
	cfgpkg "github.com/fatflowers/memberlink/pkg/config"
)

func TestOpen_SQLiteAndMigrate(t *testing.T) {
	l := zap.NewNop().Sugar()
	cfg := &cfgpkg.Config{Database: cfgpkg.DBConfig{Driver: cfgpkg.DBDriverSQLite, DSN: "file:db_open_test?mode=memory&cache=shared"}}

	gdb, err := Open(l, cfg)
	require.NoError(t, err)
	defer Close(l, gdb)

	require.NoError(t, AutoMigrate(l, gdb))
	require.True(t, gdb.Migrator().HasTable(&models.Membership{}))
	require.True(t, gdb.Migrator().HasTable(&models.WebhookEventLog{}))
	require.True(t, gdb.Migrator().HasIndex(&models.Membership{}, "idx_membership_email_user"))
}

func TestOpen_Errors(t *testing.T) {
	l := zap.NewNop().Sugar()

	_, err := Open(l, &cfgpkg.Config{})
	require.ErrorIs(t, err, gorm.ErrInvalidDB)

	_, err = Open(l, &cfgpkg.Config{Database: cfgpkg.DBConfig{Driver: "oracle", DSN: "x"}})
	require.Error(t, err)
}
