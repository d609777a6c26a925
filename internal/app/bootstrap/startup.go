// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"

	activitystore "github.com/jcsgo/shepherd/internal/app/store/activity"
	churchstore "github.com/jcsgo/shepherd/internal/app/store/churches"
	rolestore "github.com/jcsgo/shepherd/internal/app/store/roles"
	settingsstore "github.com/jcsgo/shepherd/internal/app/store/settings"
	userstore "github.com/jcsgo/shepherd/internal/app/store/users"
	"github.com/jcsgo/shepherd/internal/app/system/authutil"
	"github.com/jcsgo/shepherd/internal/app/system/roles"
	"github.com/jcsgo/shepherd/internal/app/system/workers"
	"github.com/jcsgo/shepherd/internal/domain/models"
)

// pruneWorker runs for the life of the process; Shutdown stops it.
var pruneWorker *workers.ActivityPrune

// seedChurchList is the standard set of congregations created on first
// startup. Domains are the email subdomains members register under.
var seedChurchList = []struct {
	Name     string
	Domain   string
	Location string
}{
	{"Kasiglahan", "kasiglahan", "Kasiglahan Village, Rodriguez"},
	{"San Jose", "sanjose", "San Jose, Rodriguez"},
	{"Christinville", "christinville", "Christinville, Rodriguez"},
	{"Tabak", "tabak", "Tabak, Rodriguez"},
	{"10AM Family", "10amfamily", "Main Sanctuary, 10AM Service"},
	{"3PM Family", "3pmfamily", "Main Sanctuary, 3PM Service"},
}

// Startup runs one-time application initialization after DB connections
// and schema setup are complete, but before the HTTP handler is built: the
// role table, the standard churches with default settings, and the
// superadmin account.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	db := deps.ShepherdMongoDatabase

	if err := rolestore.New(db).EnsureRoles(ctx); err != nil {
		return fmt.Errorf("ensure roles: %w", err)
	}

	if appCfg.SeedChurches {
		if err := seedChurches(ctx, deps, logger); err != nil {
			return fmt.Errorf("seed churches: %w", err)
		}
	}

	if appCfg.SuperAdminEmail != "" {
		if err := ensureSuperAdmin(ctx, deps, appCfg.SuperAdminEmail, appCfg.SuperAdminPassword, logger); err != nil {
			return fmt.Errorf("ensure superadmin: %w", err)
		}
	}

	if appCfg.ActivityRetentionDays > 0 {
		retention := time.Duration(appCfg.ActivityRetentionDays) * 24 * time.Hour
		pruneWorker = workers.NewActivityPrune(activitystore.New(db), logger, time.Hour, retention)
		pruneWorker.Start()
	}

	return nil
}

// seedChurches creates any of the standard churches that do not exist yet,
// each with default settings. Existing churches are left untouched, so the
// seed is safe to run on every startup.
func seedChurches(ctx context.Context, deps DBDeps, logger *zap.Logger) error {
	db := deps.ShepherdMongoDatabase
	churches := churchstore.New(db)
	settings := settingsstore.New(db)

	for _, seed := range seedChurchList {
		if _, err := churches.GetByDomain(ctx, seed.Domain); err == nil {
			continue
		} else if err != churchstore.ErrNotFound {
			return err
		}

		created, err := churches.Create(ctx, models.Church{
			Name:     seed.Name,
			Domain:   seed.Domain,
			Location: seed.Location,
		})
		if err != nil {
			return err
		}
		if err := settings.Save(ctx, created.ID, settingsstore.Defaults(created.ID)); err != nil {
			return err
		}
		logger.Info("seeded church",
			zap.String("name", seed.Name),
			zap.String("domain", seed.Domain))
	}
	return nil
}

// ensureSuperAdmin promotes the named account to superuser, creating it
// first when it does not exist. The password is only used on creation; an
// existing account keeps its credentials.
func ensureSuperAdmin(ctx context.Context, deps DBDeps, email, password string, logger *zap.Logger) error {
	users := userstore.New(deps.ShepherdMongoDatabase)

	u, err := users.GetByEmail(ctx, email)
	if err == nil {
		if u.Superuser {
			return nil
		}
		if err := users.SetSuperuser(ctx, u.ID, true); err != nil {
			return err
		}
		logger.Info("promoted existing user to superadmin", zap.String("email", email))
		return nil
	}
	if err != userstore.ErrNotFound {
		return err
	}

	if password == "" {
		return fmt.Errorf("superadmin_password required to create account %s", email)
	}
	hash, err := authutil.HashPassword(password)
	if err != nil {
		return err
	}
	created, err := users.Create(ctx, models.User{
		Email:         email,
		FirstName:     "Super",
		LastName:      "Admin",
		PasswordHash:  hash,
		Role:          roles.Admin,
		Superuser:     true,
		Staff:         true,
		EmailVerified: true,
	})
	if err != nil {
		return err
	}
	logger.Info("created superadmin account",
		zap.String("email", email),
		zap.String("id", created.ID.Hex()))
	return nil
}
