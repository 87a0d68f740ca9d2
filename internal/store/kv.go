package store

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Record is one row of the string-keyed KV table backing the persisted
// collections.
type Record struct {
	Key   string `gorm:"primaryKey"`
	Value []byte `gorm:"not null"`
}

func (Record) TableName() string { return "kv_records" }

// KV is the narrow persistence contract the engine depends on: get a blob,
// put a blob.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
}

// GormKV implements KV on a single GORM table. Postgres in production,
// in-memory sqlite in tests.
type GormKV struct {
	DB *gorm.DB
}

func (kv *GormKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var rec Record
	err := kv.DB.WithContext(ctx).First(&rec, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return rec.Value, true, nil
}

func (kv *GormKV) Put(ctx context.Context, key string, value []byte) error {
	rec := Record{Key: key, Value: value}
	return kv.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value"}),
		}).
		Create(&rec).Error
}
