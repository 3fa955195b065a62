package models_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/dmitrymomot/soon/internal/models"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, gdb.Exec("PRAGMA foreign_keys = ON").Error)
	require.NoError(t, models.Migrate(gdb))
	return gdb
}

func TestUser_UniqueEmail(t *testing.T) {
	t.Parallel()

	db := testDB(t)
	require.NoError(t, db.Create(&models.User{Email: "a@b.c", Password: "x"}).Error)
	assert.Error(t, db.Create(&models.User{Email: "a@b.c", Password: "y"}).Error)
}

func TestUser_RecordLogin(t *testing.T) {
	t.Parallel()

	u := &models.User{Email: "a@b.c", Password: "x"}

	first := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	u.RecordLogin("10.0.0.1", first)
	require.NotNil(t, u.CurrentLoginAt)
	assert.Equal(t, first, *u.CurrentLoginAt)
	assert.Equal(t, "10.0.0.1", u.CurrentLoginIP)
	assert.Nil(t, u.LastLoginAt)
	assert.Equal(t, 1, u.LoginCount)

	second := first.Add(time.Hour)
	u.RecordLogin("10.0.0.2", second)
	require.NotNil(t, u.LastLoginAt)
	assert.Equal(t, first, *u.LastLoginAt)
	assert.Equal(t, "10.0.0.1", u.LastLoginIP)
	assert.Equal(t, second, *u.CurrentLoginAt)
	assert.Equal(t, 2, u.LoginCount)
}

func TestUser_IsAdmin(t *testing.T) {
	t.Parallel()

	assert.False(t, (&models.User{}).IsAdmin())
	assert.True(t, (&models.User{SuperUser: true}).IsAdmin())
}

func TestJob_CascadeOnUserDelete(t *testing.T) {
	t.Parallel()

	db := testDB(t)

	user := models.User{Email: "a@b.c", Password: "x"}
	require.NoError(t, db.Create(&user).Error)
	require.NoError(t, db.Create(&models.Job{
		UserID: user.ID,
		Title:  "Gopher",
		Blurb:  "short",
		Spec:   "jobs/spec.pdf",
	}).Error)

	require.NoError(t, db.Delete(&models.User{}, user.ID).Error)

	var count int64
	require.NoError(t, db.Model(&models.Job{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestUserRoles_Association(t *testing.T) {
	t.Parallel()

	db := testDB(t)

	role := models.Role{Name: "editor"}
	require.NoError(t, db.Create(&role).Error)

	user := models.User{Email: "a@b.c", Password: "x", Roles: []models.Role{role}}
	require.NoError(t, db.Create(&user).Error)

	var got models.User
	require.NoError(t, db.Preload("Roles").First(&got, user.ID).Error)
	require.Len(t, got.Roles, 1)
	assert.Equal(t, "editor", got.Roles[0].Name)

	// removing the user clears the join rows
	require.NoError(t, db.Select("Roles").Delete(&got).Error)
	var joins int64
	require.NoError(t, db.Table("users_roles").Count(&joins).Error)
	assert.Zero(t, joins)

	var roles int64
	require.NoError(t, db.Model(&models.Role{}).Count(&roles).Error)
	assert.EqualValues(t, 1, roles)
}

func TestTimestamps(t *testing.T) {
	t.Parallel()

	db := testDB(t)

	role := models.Role{Name: "ops"}
	require.NoError(t, db.Create(&role).Error)
	assert.False(t, role.Created.IsZero())
	assert.False(t, role.Updated.IsZero())
}
