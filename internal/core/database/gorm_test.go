package database

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeMySQLDSN(t *testing.T) {
	got := normalizeMySQLDSN("jdbc:mysql://root:pw@127.0.0.1:3306/saas?useSSL=false&serverTimezone=UTC&characterEncoding=utf8", "", "")
	require.Equal(t, "root:pw@tcp(127.0.0.1:3306)/saas?charset=utf8&loc=UTC&parseTime=true&tls=false", got)

	got = normalizeMySQLDSN("mysql://a:b@db:3306/x", "app", "secret")
	require.Equal(t, "app:secret@tcp(db:3306)/x?charset=utf8mb4&parseTime=true", got)

	native := "u:p@tcp(localhost:3306)/db?parseTime=true"
	require.Equal(t, native, normalizeMySQLDSN(native, "x", "y"))
}

func TestMaskDSN(t *testing.T) {
	require.Equal(t, "root:****@tcp(db:3306)/x", maskDSN("root:pw@tcp(db:3306)/x"))
	require.Equal(t, "host=db dbname=x", maskDSN("host=db dbname=x"))
}

func TestNewGorm_SQLiteAndMigrate(t *testing.T) {
	db, err := NewGorm(Opts{Driver: "sqlite", DSN: "file::memory:", MaxOpenConns: 1, LogLevel: "silent"})
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	require.True(t, db.Migrator().HasTable("users"))
	require.True(t, db.Migrator().HasTable("organizations"))
	require.True(t, db.Migrator().HasIndex("users", "uq_users_email"))
}

func TestNewGorm_UnsupportedDriver(t *testing.T) {
	_, err := NewGorm(Opts{Driver: "oracle"})
	require.True(t, errors.Is(err, ErrUnsupportedDriver))
}
