// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for Shepherd. They are
// loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: SHEPHERD_MONGO_URI, SHEPHERD_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "shepherd", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size"},

	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "shepherd-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},

	{Name: "email_verify_expiry", Default: "10m", Desc: "Email verification code expiry (e.g., 10m, 1h)"},

	{Name: "smtp_host", Default: "", Desc: "SMTP host for outbound email (blank logs instead of sending)"},
	{Name: "smtp_port", Default: 587, Desc: "SMTP port"},
	{Name: "smtp_user", Default: "", Desc: "SMTP username"},
	{Name: "smtp_password", Default: "", Desc: "SMTP password"},
	{Name: "mail_from", Default: "no-reply@jcsgo.com", Desc: "From address for outbound email"},
	{Name: "base_url", Default: "http://localhost:8080", Desc: "Public base URL used in emailed links"},

	{Name: "activity_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "activity_log_member", Default: "all", Desc: "Member event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "activity_retention_days", Default: 365, Desc: "Prune activity entries older than this many days (0 keeps forever)"},

	{Name: "seed_churches", Default: true, Desc: "Create the standard churches on first startup"},
	{Name: "superadmin_email", Default: "", Desc: "Email of the superadmin account (promotes/creates on startup)"},
	{Name: "superadmin_password", Default: "", Desc: "Password for the superadmin account (only used on creation)"},
}

// LoadConfig loads WAFFLE core config and app-specific config. It is
// called early in startup so that both WAFFLE and the app have access to
// configuration before any backends or handlers are built.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "SHEPHERD", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		SessionKey:    appValues.String("session_key"),
		SessionName:   appValues.String("session_name"),
		SessionDomain: appValues.String("session_domain"),

		EmailVerifyExpiry: appValues.Duration("email_verify_expiry", 10*time.Minute),

		SMTPHost:     appValues.String("smtp_host"),
		SMTPPort:     appValues.Int("smtp_port"),
		SMTPUser:     appValues.String("smtp_user"),
		SMTPPassword: appValues.String("smtp_password"),
		MailFrom:     appValues.String("mail_from"),
		BaseURL:      appValues.String("base_url"),

		ActivityLogAuth:       appValues.String("activity_log_auth"),
		ActivityLogMember:     appValues.String("activity_log_member"),
		ActivityRetentionDays: appValues.Int("activity_retention_days"),

		SeedChurches:       appValues.Bool("seed_churches"),
		SuperAdminEmail:    appValues.String("superadmin_email"),
		SuperAdminPassword: appValues.String("superadmin_password"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation before any
// connection attempt, so misconfiguration fails fast.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if coreCfg.Env == "prod" && appCfg.SessionKey == "dev-only-change-me-please-0123456789ABCDEF" {
		return fmt.Errorf("session_key must be changed from the development default in production")
	}
	return nil
}
