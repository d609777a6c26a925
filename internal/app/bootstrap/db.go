// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/jcsgo/shepherd/internal/app/store/activity"
	"github.com/jcsgo/shepherd/internal/app/store/emailverify"
	"github.com/jcsgo/shepherd/internal/app/system/indexes"
	"github.com/jcsgo/shepherd/internal/app/system/timeouts"
)

// ConnectDB establishes the MongoDB connection and verifies it with a ping
// before the rest of startup proceeds.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	opts := options.Client().
		ApplyURI(appCfg.MongoURI).
		SetMaxPoolSize(appCfg.MongoMaxPoolSize).
		SetMinPoolSize(appCfg.MongoMinPoolSize)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return DBDeps{}, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeouts.Ping())
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return DBDeps{}, err
	}

	logger.Info("connected to MongoDB",
		zap.String("database", appCfg.MongoDatabase))
	return DBDeps{
		ShepherdMongoClient:   client,
		ShepherdMongoDatabase: client.Database(appCfg.MongoDatabase),
	}, nil
}

// EnsureSchema creates the indexes the stores rely on. Uniqueness of the
// natural keys (user email, church domain, role name) is enforced here
// rather than in application code.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	db := deps.ShepherdMongoDatabase

	if err := indexes.EnsureAll(ctx, db); err != nil {
		logger.Error("index reconciliation failed", zap.Error(err))
		return err
	}
	if err := activity.New(db).EnsureIndexes(ctx); err != nil {
		return err
	}
	if err := emailverify.New(db, appCfg.EmailVerifyExpiry).EnsureIndexes(ctx); err != nil {
		return err
	}

	logger.Info("database schema ensured")
	return nil
}
