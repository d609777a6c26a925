// internal/app/features/groups/handler.go
package groups

import (
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	churchstore "github.com/jcsgo/shepherd/internal/app/store/churches"
	groupstore "github.com/jcsgo/shepherd/internal/app/store/groups"
	regularstore "github.com/jcsgo/shepherd/internal/app/store/regulars"
	userstore "github.com/jcsgo/shepherd/internal/app/store/users"
	"github.com/jcsgo/shepherd/internal/app/system/activitylog"
)

// Handler is the feature-level handler for care and ministry groups:
// listings with live capacity, rosters, and membership changes.
type Handler struct {
	DB       *mongo.Database
	Log      *zap.Logger
	Activity *activitylog.Logger
	Groups   *groupstore.Store
	Regulars *regularstore.Store
	Users    *userstore.Store
	Churches *churchstore.Store
}

func NewHandler(db *mongo.Database, act *activitylog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:       db,
		Log:      logger,
		Activity: act,
		Groups:   groupstore.New(db),
		Regulars: regularstore.New(db),
		Users:    userstore.New(db),
		Churches: churchstore.New(db),
	}
}
