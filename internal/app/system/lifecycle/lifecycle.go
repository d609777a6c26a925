// Package lifecycle implements the member lifecycle: the new-friend visit
// timer, the one-way transition to regular membership, attendance marks,
// and transactional registration.
package lifecycle

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/jcsgo/shepherd/internal/app/store/activity"
	newfriendstore "github.com/jcsgo/shepherd/internal/app/store/newfriends"
	regularstore "github.com/jcsgo/shepherd/internal/app/store/regulars"
	userstore "github.com/jcsgo/shepherd/internal/app/store/users"
	"github.com/jcsgo/shepherd/internal/app/system/apperr"
	"github.com/jcsgo/shepherd/internal/app/system/authutil"
	"github.com/jcsgo/shepherd/internal/app/system/roles"
	"github.com/jcsgo/shepherd/internal/app/system/txn"
	"github.com/jcsgo/shepherd/internal/domain/models"
)

// Manager coordinates the stores involved in lifecycle changes.
type Manager struct {
	client     *mongo.Client
	users      *userstore.Store
	newFriends *newfriendstore.Store
	regulars   *regularstore.Store
	activities *activity.Store
	logger     *zap.Logger
}

// New creates a lifecycle Manager. client may be nil in tests that never
// reach Register; all other operations run without transactions.
func New(client *mongo.Client, db *mongo.Database, logger *zap.Logger) *Manager {
	return &Manager{
		client:     client,
		users:      userstore.New(db),
		newFriends: newfriendstore.New(db),
		regulars:   regularstore.New(db),
		activities: activity.New(db),
		logger:     logger,
	}
}

// UpdateTimerStatus sets a new friend's visit count. Values 1..4 just move
// the timer; 5 additionally promotes the user to regular membership, keeping
// the user's current role when it is a regular role type and falling back to
// CM. Moving the timer backwards is allowed (corrections happen); leaving the
// [1,5] range is not. Setting 5 for a user who already transitioned is a
// no-op.
func (m *Manager) UpdateTimerStatus(ctx context.Context, userID primitive.ObjectID, status int) (*models.User, error) {
	if status < 1 || status > 5 {
		return nil, apperr.Validation("timer status must be between 1 and 5, got %d", status)
	}
	u, err := m.users.GetByID(ctx, userID)
	if err != nil {
		if err == userstore.ErrNotFound {
			return nil, apperr.NotFound("user %s not found", userID.Hex())
		}
		return nil, apperr.Storage("load user", err)
	}
	if !u.NewFriend {
		if status == 5 {
			// Already transitioned; repeating the promotion changes nothing.
			return u, nil
		}
		return nil, apperr.Conflict("user %s is no longer on the new friend timer", userID.Hex())
	}

	if status == 5 {
		roleType := roles.CM
		if roles.IsRegularRoleType(u.Role) {
			roleType = u.Role
		}
		return m.TransitionToRegular(ctx, userID, roleType)
	}

	if err := m.users.SetTimerStatus(ctx, userID, status); err != nil {
		return nil, apperr.Storage("set timer status", err)
	}
	u.TimerStatus = status
	m.logger.Info("timer status updated",
		zap.String("user_id", userID.Hex()),
		zap.Int("timer_status", status))
	return u, nil
}

// TransitionToRegular promotes a new friend to regular membership:
// the user flips out of the timer with TransitionDate stamped, and a
// regular-member profile is created. Calling it for a user who already
// transitioned returns the user unchanged; the operation is idempotent
// and there is no path back.
func (m *Manager) TransitionToRegular(ctx context.Context, userID primitive.ObjectID, roleType string) (*models.User, error) {
	if roleType == "" {
		roleType = roles.CM
	}
	if !roles.IsRegularRoleType(roleType) {
		return nil, apperr.Validation("role type %q is not a regular member role", roleType)
	}

	u, err := m.users.GetByID(ctx, userID)
	if err != nil {
		if err == userstore.ErrNotFound {
			return nil, apperr.NotFound("user %s not found", userID.Hex())
		}
		return nil, apperr.Storage("load user", err)
	}
	if u.ChurchID == nil {
		return nil, apperr.Validation("user %s has no church", userID.Hex())
	}

	now := time.Now().UTC()
	err = m.users.MarkRegular(ctx, userID, roleType, now)
	switch err {
	case nil:
		u.NewFriend = false
		u.TimerStatus = 5
		u.Role = roleType
		u.TransitionDate = &now
	case userstore.ErrAlreadyRegular:
		// Idempotent: the profile is ensured below and the user returned as-is.
	default:
		return nil, apperr.Storage("mark regular", err)
	}

	if _, perr := m.regulars.EnsureProfile(ctx, userID, *u.ChurchID, roleType); perr != nil {
		return nil, apperr.Storage("create regular member profile", perr)
	}

	if err == nil {
		m.logger.Info("new friend transitioned to regular member",
			zap.String("user_id", userID.Hex()),
			zap.String("role_type", roleType))
	}
	return u, nil
}

// RecordAttendance stamps LastAttendance and nothing else. The visit timer
// moves only through UpdateTimerStatus.
func (m *Manager) RecordAttendance(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	u, err := m.users.GetByID(ctx, userID)
	if err != nil {
		if err == userstore.ErrNotFound {
			return nil, apperr.NotFound("user %s not found", userID.Hex())
		}
		return nil, apperr.Storage("load user", err)
	}

	now := time.Now().UTC()
	if err := m.users.SetLastAttendance(ctx, userID, now); err != nil {
		return nil, apperr.Storage("set last attendance", err)
	}
	u.LastAttendance = &now
	return u, nil
}

// Registration carries everything needed to register a new friend.
type Registration struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Phone     string
	ChurchID  primitive.ObjectID
	Source    string
	InvitedBy *primitive.ObjectID
	IPAddress string
}

// Register creates the user, the new-friend tracking profile, and the
// registration activity entry as one unit. On servers with transaction
// support the three writes commit or abort together; on a standalone
// server the writes run plainly and a failure after the user insert
// deletes the partial records.
func (m *Manager) Register(ctx context.Context, reg Registration) (*models.User, error) {
	if reg.InvitedBy != nil {
		inviter, err := m.users.GetByID(ctx, *reg.InvitedBy)
		if err != nil {
			if err == userstore.ErrNotFound {
				return nil, apperr.Validation("inviter %s not found", reg.InvitedBy.Hex())
			}
			return nil, apperr.Storage("load inviter", err)
		}
		if inviter.NewFriend {
			return nil, apperr.Validation("inviter must not be a new friend")
		}
		if inviter.ChurchID == nil || *inviter.ChurchID != reg.ChurchID {
			return nil, apperr.Validation("inviter must belong to the same church")
		}
	}

	hash, err := authutil.HashPassword(reg.Password)
	if err != nil {
		return nil, apperr.Validation("%s", err.Error())
	}

	var created models.User
	register := func(ctx context.Context) error {
		u, err := m.users.Create(ctx, models.User{
			Email:        reg.Email,
			FirstName:    reg.FirstName,
			LastName:     reg.LastName,
			PasswordHash: hash,
			PhoneNumber:  reg.Phone,
			ChurchID:     &reg.ChurchID,
			NewFriend:    true,
			TimerStatus:  1,
		})
		if err != nil {
			return err
		}
		created = u

		if _, err := m.newFriends.Create(ctx, models.NewFriend{
			UserID:    u.ID,
			ChurchID:  reg.ChurchID,
			Source:    reg.Source,
			InvitedBy: reg.InvitedBy,
		}); err != nil {
			return err
		}

		return m.activities.Create(ctx, activity.Entry{
			UserID:      u.ID,
			ChurchID:    &reg.ChurchID,
			Action:      activity.ActionRegister,
			Description: "registered as new friend",
			IPAddress:   reg.IPAddress,
		})
	}

	supported, err := txn.WithTransaction(ctx, m.client, register)
	if err != nil {
		if !supported && !created.ID.IsZero() {
			// Compensate for partial writes outside a transaction.
			if _, derr := m.newFriends.Delete(ctx, created.ID); derr != nil {
				m.logger.Error("registration compensation failed", zap.Error(derr))
			}
			if _, derr := m.users.Delete(ctx, created.ID); derr != nil {
				m.logger.Error("registration compensation failed", zap.Error(derr))
			}
		}
		if err == userstore.ErrDuplicateEmail {
			return nil, apperr.Conflict("a user with email %s already exists", reg.Email)
		}
		return nil, apperr.Storage("register new friend", err)
	}

	m.logger.Info("new friend registered",
		zap.String("user_id", created.ID.Hex()),
		zap.String("church_id", reg.ChurchID.Hex()),
		zap.Bool("transactional", supported))
	return &created, nil
}
