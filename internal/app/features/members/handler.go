// internal/app/features/members/handler.go
package members

import (
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/jcsgo/shepherd/internal/app/store/activity"
	churchstore "github.com/jcsgo/shepherd/internal/app/store/churches"
	newfriendstore "github.com/jcsgo/shepherd/internal/app/store/newfriends"
	regularstore "github.com/jcsgo/shepherd/internal/app/store/regulars"
	userstore "github.com/jcsgo/shepherd/internal/app/store/users"
	"github.com/jcsgo/shepherd/internal/app/system/activitylog"
	"github.com/jcsgo/shepherd/internal/app/system/lifecycle"
)

// Handler is the feature-level handler for the member roster: lists,
// detail, lifecycle mutations, and roster export/import.
type Handler struct {
	DB         *mongo.Database
	Log        *zap.Logger
	Activity   *activitylog.Logger
	Users      *userstore.Store
	Churches   *churchstore.Store
	NewFriends *newfriendstore.Store
	Regulars   *regularstore.Store
	Activities *activity.Store
	Lifecycle  *lifecycle.Manager
}

func NewHandler(client *mongo.Client, db *mongo.Database, act *activitylog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:         db,
		Log:        logger,
		Activity:   act,
		Users:      userstore.New(db),
		Churches:   churchstore.New(db),
		NewFriends: newfriendstore.New(db),
		Regulars:   regularstore.New(db),
		Activities: activity.New(db),
		Lifecycle:  lifecycle.New(client, db, logger),
	}
}
