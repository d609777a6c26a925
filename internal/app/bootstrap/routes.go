// internal/app/bootstrap/routes.go
package bootstrap

import (
	"fmt"
	"net/http"

	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	activityfeature "github.com/jcsgo/shepherd/internal/app/features/activity"
	announcementsfeature "github.com/jcsgo/shepherd/internal/app/features/announcements"
	churchesfeature "github.com/jcsgo/shepherd/internal/app/features/churches"
	dashboardfeature "github.com/jcsgo/shepherd/internal/app/features/dashboard"
	groupsfeature "github.com/jcsgo/shepherd/internal/app/features/groups"
	healthfeature "github.com/jcsgo/shepherd/internal/app/features/health"
	loginfeature "github.com/jcsgo/shepherd/internal/app/features/login"
	logoutfeature "github.com/jcsgo/shepherd/internal/app/features/logout"
	membersfeature "github.com/jcsgo/shepherd/internal/app/features/members"
	profilefeature "github.com/jcsgo/shepherd/internal/app/features/profile"
	activitystore "github.com/jcsgo/shepherd/internal/app/store/activity"
	"github.com/jcsgo/shepherd/internal/app/store/emailverify"
	"github.com/jcsgo/shepherd/internal/app/system/activitylog"
	"github.com/jcsgo/shepherd/internal/app/system/auth"
	"github.com/jcsgo/shepherd/internal/app/system/mailer"
	"github.com/jcsgo/shepherd/internal/app/system/ratelimit"
)

// BuildHandler constructs the root HTTP handler for the app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// the Startup hook have completed. It initializes the session store, the
// activity logger, and the email verification store, then mounts one
// sub-router per feature area.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	client := deps.ShepherdMongoClient
	db := deps.ShepherdMongoDatabase

	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	if err := auth.InitSessionStore(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, secure, logger); err != nil {
		logger.Error("session store init failed", zap.Error(err))
		return nil, err
	}

	act := activitylog.New(activitystore.New(db), logger, activitylog.Config{
		Auth:   appCfg.ActivityLogAuth,
		Member: appCfg.ActivityLogMember,
	})
	verify := emailverify.New(db, appCfg.EmailVerifyExpiry)
	mail := mailer.New(mailer.Config{
		Host:      appCfg.SMTPHost,
		Port:      appCfg.SMTPPort,
		Username:  appCfg.SMTPUser,
		Password:  appCfg.SMTPPassword,
		From:      appCfg.MailFrom,
		SiteName:  "Shepherd",
		BaseURL:   appCfg.BaseURL,
		ExpiresIn: fmt.Sprintf("%d minutes", int(appCfg.EmailVerifyExpiry.Minutes())),
	}, logger)

	r := chi.NewRouter()

	// Loads the signed-in user into the request context on every request so
	// handlers can use auth.CurrentUser(r).
	r.Use(auth.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators.
	healthHandler := healthfeature.NewHandler(client, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Authentication and registration.
	loginHandler := loginfeature.NewHandler(db, verify, act, logger)
	loginHandler.Limits = ratelimit.NewLoginLimiter()
	loginHandler.Mail = mail
	r.Mount("/login", loginfeature.Routes(loginHandler))

	logoutHandler := logoutfeature.NewHandler(act, logger)
	r.Mount("/logout", logoutfeature.Routes(logoutHandler))

	// Church directory and administration.
	churchesHandler := churchesfeature.NewHandler(client, db, verify, act, logger)
	churchesHandler.Mail = mail
	r.Mount("/churches", churchesfeature.Routes(churchesHandler))

	// Role-based dashboards.
	dashboardHandler := dashboardfeature.NewHandler(db, logger)
	r.Mount("/dashboard", dashboardfeature.Routes(dashboardHandler))

	// Member management, new friend follow-up, import/export.
	membersHandler := membersfeature.NewHandler(client, db, act, logger)
	r.Mount("/members", membersfeature.Routes(membersHandler))

	// Care and ministry groups.
	groupsHandler := groupsfeature.NewHandler(db, act, logger)
	r.Mount("/groups", groupsfeature.Routes(groupsHandler))

	// Activity feed and summaries for leadership.
	activityHandler := activityfeature.NewHandler(db, logger)
	r.Mount("/activity", activityfeature.Routes(activityHandler))

	// Church announcements.
	announcementsHandler := announcementsfeature.NewHandler(db, logger)
	r.Mount("/announcements", announcementsfeature.Routes(announcementsHandler))

	// Self-service profile and password changes.
	profileHandler := profilefeature.NewHandler(db, act, logger)
	r.Mount("/profile", profilefeature.Routes(profileHandler))

	return r, nil
}
