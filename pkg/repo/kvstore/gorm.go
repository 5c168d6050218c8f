package kvstore

import (
	"context"
	"errors"

	"github.com/crowelm/crowelm/pkg/common/code"
	"github.com/crowelm/crowelm/pkg/middleware/db"
	"github.com/crowelm/crowelm/pkg/repo"
	"github.com/crowelm/crowelm/pkg/repo/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type gormImpl struct {
	*db.Datastore
}

// NewGorm stores entries in the kv_entry table. Run migrate.Table first.
func NewGorm(ds *db.Datastore) repo.KVStore {
	return &gormImpl{Datastore: ds}
}

func (g *gormImpl) Get(ctx context.Context, key string) ([]byte, error) {
	entry := &model.KVEntry{}
	if err := g.DBWithContext(ctx).
		Where("key = ?", key).
		Select("value").
		Take(entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, code.NotFoundErr.WithMsgf("key %s", key)
		}
		return nil, code.StorageErr.WithErr(err)
	}
	return entry.Value, nil
}

func (g *gormImpl) Set(ctx context.Context, key string, value []byte) error {
	entry := &model.KVEntry{Key: key, Value: value}
	if err := g.DBWithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(entry).Error; err != nil {
		return code.StorageErr.WithErr(err)
	}
	return nil
}

func (g *gormImpl) Delete(ctx context.Context, key string) error {
	if err := g.DBWithContext(ctx).
		Where("key = ?", key).
		Delete(&model.KVEntry{}).Error; err != nil {
		return code.StorageErr.WithErr(err)
	}
	return nil
}
