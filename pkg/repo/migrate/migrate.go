package migrate

import (
	"context"

	"github.com/crowelm/crowelm/pkg/middleware/db"
	"github.com/crowelm/crowelm/pkg/middleware/logger"
	"github.com/crowelm/crowelm/pkg/repo/model"
)

func Table(ctx context.Context, ds *db.Datastore) error {
	if err := ds.DBWithContext(ctx).AutoMigrate(
		&model.KVEntry{},
	); err != nil {
		logger.Errorf(ctx, "migrate table err: %+v", err)
		return err
	}
	logger.Infof(ctx, "migrate table success")
	return nil
}
