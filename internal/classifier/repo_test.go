package classifier_test

import (
	"path/filepath"
	"testing"

	"github.com/robgonnella/plcscout/internal/classifier"
	"github.com/robgonnella/plcscout/internal/exception"
	"github.com/robgonnella/plcscout/internal/test_util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func classification(deviceType, hash string) *classifier.Classification {
	return &classifier.Classification{
		DeviceType:   deviceType,
		Manufacturer: "Siemens",
		Capabilities: []string{"holding_registers"},
		Confidence:   0.5,
		Fingerprint: classifier.Fingerprint{
			Tags: []string{"proto:modbus"},
			Hash: hash,
		},
	}
}

func testRepo(t *testing.T, repo classifier.Repo) {
	t.Run("returns record not found", func(st *testing.T) {
		_, err := repo.Get("10.0.0.1:502")

		assert.ErrorIs(st, err, exception.ErrRecordNotFound)
	})

	t.Run("rejects empty keys", func(st *testing.T) {
		err := repo.Put("", classification(classifier.TypePLC, "abc"))

		assert.Error(st, err)
	})

	t.Run("puts and gets", func(st *testing.T) {
		err := repo.Put("10.0.0.2:502", classification(classifier.TypePLC, "abc"))

		assert.NoError(st, err)

		found, err := repo.Get("10.0.0.2:502")

		assert.NoError(st, err)
		assert.Equal(st, classifier.TypePLC, found.DeviceType)
		assert.Equal(st, "abc", found.Fingerprint.Hash)
		assert.Equal(st, []string{"holding_registers"}, found.Capabilities)
	})

	t.Run("overwrites existing entries", func(st *testing.T) {
		err := repo.Put("10.0.0.3:502", classification(classifier.TypePLC, "abc"))

		assert.NoError(st, err)

		err = repo.Put("10.0.0.3:502", classification(classifier.TypeIOModule, "def"))

		assert.NoError(st, err)

		found, err := repo.Get("10.0.0.3:502")

		assert.NoError(st, err)
		assert.Equal(st, classifier.TypeIOModule, found.DeviceType)
		assert.Equal(st, "def", found.Fingerprint.Hash)
	})

	t.Run("deletes entries", func(st *testing.T) {
		err := repo.Put("10.0.0.4:502", classification(classifier.TypePLC, "abc"))

		assert.NoError(st, err)

		err = repo.Delete("10.0.0.4:502")

		assert.NoError(st, err)

		_, err = repo.Get("10.0.0.4:502")

		assert.ErrorIs(st, err, exception.ErrRecordNotFound)
	})

	t.Run("clears every entry", func(st *testing.T) {
		assert.NoError(st, repo.Put("10.0.0.5:502", classification(classifier.TypePLC, "abc")))
		assert.NoError(st, repo.Put("10.0.0.6:502", classification(classifier.TypePLC, "abc")))

		err := repo.Clear()

		assert.NoError(st, err)

		_, err = repo.Get("10.0.0.5:502")
		assert.ErrorIs(st, err, exception.ErrRecordNotFound)

		_, err = repo.Get("10.0.0.6:502")
		assert.ErrorIs(st, err, exception.ErrRecordNotFound)
	})
}

func TestMemoryRepo(t *testing.T) {
	testRepo(t, classifier.NewMemoryRepo())
}

func TestSqliteRepo(t *testing.T) {
	dbFile := filepath.Join(t.TempDir(), "cache.db")

	db, err := test_util.GetDBConnection(dbFile)

	require.NoError(t, err)

	err = test_util.Migrate(db, &classifier.CacheEntryModel{})

	require.NoError(t, err)

	testRepo(t, classifier.NewSqliteRepo(db))
}
