package cache

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CacheEntryModel is one row of the key-value table behind GormBackend.
type CacheEntryModel struct {
	Key       string    `gorm:"primaryKey;size:255"`
	Value     []byte    `gorm:"not null"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (CacheEntryModel) TableName() string {
	return "cache_entries"
}

// keyColumn is quoted per dialect by gorm; "key" is reserved in some databases.
var keyColumn = clause.Column{Name: "key"}

// GormBackend persists entries in a single SQL table, so cached quotes survive restarts.
type GormBackend struct {
	db *gorm.DB
}

var _ Backend = (*GormBackend)(nil)

// NewGormBackend migrates the cache table and returns a backend over db.
func NewGormBackend(db *gorm.DB) (*GormBackend, error) {
	if err := db.AutoMigrate(&CacheEntryModel{}); err != nil {
		return nil, err
	}
	return &GormBackend{db: db}, nil
}

func (g *GormBackend) Get(ctx context.Context, key string) ([]byte, error) {
	var m CacheEntryModel
	err := g.db.WithContext(ctx).Where(clause.Eq{Column: keyColumn, Value: key}).Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, err
	}
	return m.Value, nil
}

// Set upserts the row. retention is ignored; rows are evicted by Store on read.
func (g *GormBackend) Set(ctx context.Context, key string, value []byte, _ time.Duration) error {
	m := CacheEntryModel{Key: key, Value: value}
	return g.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&m).Error
}

func (g *GormBackend) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	values := make([]interface{}, len(keys))
	for i, k := range keys {
		values[i] = k
	}
	return g.db.WithContext(ctx).Where(clause.IN{Column: keyColumn, Values: values}).Delete(&CacheEntryModel{}).Error
}

// Keys lists keys starting with prefix. LIKE wildcards inside prefix are escaped.
func (g *GormBackend) Keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	err := g.db.WithContext(ctx).Model(&CacheEntryModel{}).
		Where(clause.Expr{SQL: "? LIKE ? ESCAPE ?", Vars: []interface{}{keyColumn, escapeLike(prefix) + "%", `\`}}).
		Pluck("key", &keys).Error
	return keys, err
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
