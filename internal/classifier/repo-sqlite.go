package classifier

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/robgonnella/plcscout/internal/exception"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CacheEntryModel database row holding one cached classification
type CacheEntryModel struct {
	CacheKey       string         `gorm:"primaryKey"`
	Fingerprint    string
	Classification datatypes.JSON
	UpdatedAt      time.Time
}

// TableName implements gorm's Tabler
func (CacheEntryModel) TableName() string {
	return "classification_cache"
}

// SqliteRepo is our cache implementation for sqlite
type SqliteRepo struct {
	db *gorm.DB
}

// NewSqliteRepo returns a new sqlite backed cache. The CacheEntryModel table
// must already be migrated.
func NewSqliteRepo(db *gorm.DB) *SqliteRepo {
	return &SqliteRepo{
		db: db,
	}
}

// Get returns a cached classification from the db
func (r *SqliteRepo) Get(key string) (*Classification, error) {
	if key == "" {
		return nil, errors.New("cache key cannot be empty")
	}

	entry := CacheEntryModel{}

	if result := r.db.First(&entry, "cache_key = ?", key); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, exception.ErrRecordNotFound
		}

		return nil, result.Error
	}

	return modelToClassification(&entry)
}

// Put creates or updates a cached classification in db
func (r *SqliteRepo) Put(key string, c *Classification) error {
	if key == "" {
		return errors.New("cache key cannot be empty")
	}

	entry, err := classificationToModel(key, c)

	if err != nil {
		return err
	}

	return r.db.Save(entry).Error
}

// Delete deletes a cached classification from db
func (r *SqliteRepo) Delete(key string) error {
	if key == "" {
		return errors.New("cache key cannot be empty")
	}

	return r.db.Delete(&CacheEntryModel{CacheKey: key}).Error
}

// Clear deletes every cached classification
func (r *SqliteRepo) Clear() error {
	return r.db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&CacheEntryModel{}).Error
}

// helpers
func modelToClassification(model *CacheEntryModel) (*Classification, error) {
	c := &Classification{}

	if err := json.Unmarshal([]byte(model.Classification.String()), c); err != nil {
		return nil, err
	}

	return c, nil
}

func classificationToModel(key string, c *Classification) (*CacheEntryModel, error) {
	data, err := json.Marshal(c)

	if err != nil {
		return nil, err
	}

	return &CacheEntryModel{
		CacheKey:       key,
		Fingerprint:    c.Fingerprint.Hash,
		Classification: datatypes.JSON(data),
	}, nil
}
