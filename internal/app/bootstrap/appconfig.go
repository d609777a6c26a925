// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// WAFFLE's CoreConfig handles framework-level settings (ports, TLS, log
// level); AppConfig carries everything specific to Shepherd: the Mongo
// connection, session cookies, email verification, activity logging, and
// the startup seeding knobs.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string
	MongoDatabase    string
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session management configuration
	SessionKey    string // secret for signing session cookies (must be strong in production)
	SessionName   string // cookie name
	SessionDomain string // cookie domain (blank means current host)

	// Email verification
	EmailVerifyExpiry time.Duration

	// Outbound email. A blank SMTPHost logs messages instead of sending,
	// which is what dev wants.
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	MailFrom     string
	BaseURL      string // public base URL used in emailed links

	// Activity logging destinations: "all" (db+log), "db", "log", or "off".
	ActivityLogAuth   string
	ActivityLogMember string

	// ActivityRetentionDays prunes activity entries older than this many
	// days; 0 keeps them forever.
	ActivityRetentionDays int

	// Startup seeding
	SeedChurches       bool   // create the standard churches when none exist
	SuperAdminEmail    string // promotes/creates the superadmin account on startup
	SuperAdminPassword string // only used when the account is created
}
