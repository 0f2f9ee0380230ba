package util_test

import (
	"path/filepath"
	"testing"

	"github.com/robgonnella/plcscout/internal/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testModel struct {
	ID   uint   `gorm:"primaryKey"`
	Name string
}

func TestSlice(t *testing.T) {
	t.Run("finds values", func(st *testing.T) {
		assert.True(st, util.SliceIncludes([]string{"table", "json"}, "json"))
		assert.False(st, util.SliceIncludes([]string{"table", "json"}, "xml"))
		assert.False(st, util.SliceIncludes([]int{}, 0))
	})

	t.Run("keeps distinct non-zero values in order", func(st *testing.T) {
		assert.Equal(st, []string{"b", "a"}, util.SliceUnique([]string{"b", "", "a", "b"}))
		assert.Equal(st, []int{}, util.SliceUnique([]int{0, 0}))
	})
}

func TestGetSqliteDbConnection(t *testing.T) {
	t.Run("opens and migrates", func(st *testing.T) {
		db, err := util.GetSqliteDbConnection(filepath.Join(st.TempDir(), "test.db"), &testModel{})

		require.NoError(st, err)

		assert.True(st, db.Migrator().HasTable(&testModel{}))
	})
}
