package database

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type widget struct {
	ID string `gorm:"primaryKey"`
}

func TestGormLogger_RecordNotFoundIsQuiet(t *testing.T) {
	var buf bytes.Buffer
	out := logrus.StandardLogger().Out
	logrus.SetOutput(&buf)
	t.Cleanup(func() { logrus.SetOutput(out) })

	db, err := NewSQLiteConnection(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&widget{}))

	var w widget
	err = db.Where("id = ?", "missing").First(&w).Error
	require.Error(t, err)
	assert.NotContains(t, buf.String(), "record not found")

	err = db.Table("no_such_table").First(&w).Error
	require.Error(t, err)
	assert.Contains(t, buf.String(), "no_such_table")
}
