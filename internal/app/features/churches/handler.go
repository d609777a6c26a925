// internal/app/features/churches/handler.go
package churches

import (
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	churchstore "github.com/jcsgo/shepherd/internal/app/store/churches"
	"github.com/jcsgo/shepherd/internal/app/store/emailverify"
	settingsstore "github.com/jcsgo/shepherd/internal/app/store/settings"
	"github.com/jcsgo/shepherd/internal/app/system/activitylog"
	"github.com/jcsgo/shepherd/internal/app/system/lifecycle"
	"github.com/jcsgo/shepherd/internal/app/system/mailer"
)

// Handler is the feature-level handler for churches: the public selection
// and registration surface plus the admin statistics endpoint.
type Handler struct {
	DB        *mongo.Database
	Log       *zap.Logger
	Activity  *activitylog.Logger
	Churches  *churchstore.Store
	Settings  *settingsstore.Store
	Verify    *emailverify.Store
	Lifecycle *lifecycle.Manager

	// Mail is optional, nil-safe, set by the bootstrap wiring.
	Mail *mailer.Mailer
}

func NewHandler(client *mongo.Client, db *mongo.Database, verify *emailverify.Store, activity *activitylog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:        db,
		Log:       logger,
		Activity:  activity,
		Churches:  churchstore.New(db),
		Settings:  settingsstore.New(db),
		Verify:    verify,
		Lifecycle: lifecycle.New(client, db, logger),
	}
}
