package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"bizdesk/internal/model"
)

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open("oracle", "", logger.Silent)
	assert.Error(t, err)
}

func TestMigrateAndDropAll(t *testing.T) {
	gormDB, err := Open("sqlite", "file:"+t.Name()+"?mode=memory&cache=shared", logger.Silent)
	require.NoError(t, err)

	require.NoError(t, Migrate(gormDB))
	for _, table := range []interface{}{&model.User{}, &model.Crm{}, &model.Invoice{}, &model.ServiceItem{}, &model.DataStore{}} {
		assert.True(t, gormDB.Migrator().HasTable(table))
	}

	require.NoError(t, DropAll(gormDB))
	assert.False(t, gormDB.Migrator().HasTable(&model.User{}))
	assert.False(t, gormDB.Migrator().HasTable(&model.ServiceItem{}))
}

func TestGormLogLevel(t *testing.T) {
	assert.Equal(t, logger.Info, GormLogLevel("debug"))
	assert.Equal(t, logger.Error, GormLogLevel("error"))
	assert.Equal(t, logger.Warn, GormLogLevel("info"))
}
