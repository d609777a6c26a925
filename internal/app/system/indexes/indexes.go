// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called at startup. Each ensure* function is idempotent and
reconciles the collection's indexes against the desired set. Errors are
aggregated so every problem is visible and startup can fail fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	if err := ensureUsers(ctx, db); err != nil {
		problems = append(problems, "users: "+err.Error())
	}
	if err := ensureChurches(ctx, db); err != nil {
		problems = append(problems, "churches: "+err.Error())
	}
	if err := ensureRoles(ctx, db); err != nil {
		problems = append(problems, "roles: "+err.Error())
	}
	if err := ensureChurchSettings(ctx, db); err != nil {
		problems = append(problems, "church_settings: "+err.Error())
	}
	if err := ensureNewFriends(ctx, db); err != nil {
		problems = append(problems, "new_friends: "+err.Error())
	}
	if err := ensureRegularMembers(ctx, db); err != nil {
		problems = append(problems, "regular_members: "+err.Error())
	}
	if err := ensureGroups(ctx, db); err != nil {
		problems = append(problems, "groups: "+err.Error())
	}
	if err := ensureAnnouncements(ctx, db); err != nil {
		problems = append(problems, "announcements: "+err.Error())
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Core helper: reconcile a set of desired indexes for one collection         */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func boolOf(p *bool) bool { return p != nil && *p }

func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 {
				return true
			}
		}
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 11000 {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "e11000") || strings.Contains(s, "duplicate key")
}

func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	// Load existing indexes once, keyed by key signature.
	existing := map[string]existingIndex{}
	cur, err := coll.Indexes().List(ctx)
	if err == nil {
		for cur.Next(ctx) {
			var idx existingIndex
			if err := cur.Decode(&idx); err != nil {
				zap.L().Warn("decode existing index",
					zap.String("collection", coll.Name()), zap.Error(err))
				continue
			}
			existing[keySig(idx.Key)] = idx
		}
		cur.Close(ctx)
	}

	var errs []string
	for _, m := range models {
		var desiredName string
		var desiredUnique bool
		if m.Options != nil {
			if m.Options.Name != nil {
				desiredName = *m.Options.Name
			}
			desiredUnique = boolOf(m.Options.Unique)
		}
		sig := keySig(m.Keys.(bson.D))

		if ex, ok := existing[sig]; ok {
			if boolOf(ex.Unique) == desiredUnique {
				continue
			}
			// Options mismatch (e.g. upgrading to unique): drop and recreate.
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				errs = append(errs, fmt.Sprintf("%s(%s): drop failed: %v", coll.Name(), desiredName, err))
				continue
			}
		}

		if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
			if isDuplicateKeyErr(err) && desiredUnique {
				errs = append(errs, fmt.Sprintf("%s(%s): cannot create unique index, duplicates present", coll.Name(), desiredName))
			} else {
				errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), desiredName, err))
			}
			continue
		}
		zap.L().Info("index ensured",
			zap.String("collection", coll.Name()),
			zap.String("name", desiredName),
			zap.String("keys", sig),
			zap.Bool("unique", desiredUnique))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Collection-specific index sets                                             */
/* -------------------------------------------------------------------------- */

func ensureUsers(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("users"), []mongo.IndexModel{
		// Email is the sign-in key and must be unique across every church.
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_users_email"),
		},

		// Member lists and per-church counts by role.
		{
			Keys:    bson.D{{Key: "church_id", Value: 1}, {Key: "role", Value: 1}},
			Options: options.Index().SetName("idx_users_church_role"),
		},

		// Name search within a church (case/diacritics folded).
		{
			Keys:    bson.D{{Key: "church_id", Value: 1}, {Key: "full_name_ci", Value: 1}},
			Options: options.Index().SetName("idx_users_church_nameci"),
		},

		// New friend timer dashboards filter on these together.
		{
			Keys:    bson.D{{Key: "church_id", Value: 1}, {Key: "is_new_friend", Value: 1}, {Key: "timer_status", Value: 1}},
			Options: options.Index().SetName("idx_users_church_newfriend_timer"),
		},
	})
}

func ensureChurches(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("churches"), []mongo.IndexModel{
		// The domain routes registration email addresses; it must be unique.
		{
			Keys:    bson.D{{Key: "domain", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_churches_domain"),
		},
		{
			Keys:    bson.D{{Key: "name_ci", Value: 1}},
			Options: options.Index().SetName("idx_churches_nameci"),
		},
	})
}

func ensureRoles(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("roles"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "name", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_roles_name"),
		},
	})
}

func ensureChurchSettings(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("church_settings"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "church_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_settings_church"),
		},
	})
}

func ensureNewFriends(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("new_friends"), []mongo.IndexModel{
		// One profile per user.
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_newfriends_user"),
		},
		// Follow-up queues list by church and status.
		{
			Keys:    bson.D{{Key: "church_id", Value: 1}, {Key: "follow_up_status", Value: 1}},
			Options: options.Index().SetName("idx_newfriends_church_status"),
		},
	})
}

func ensureRegularMembers(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("regular_members"), []mongo.IndexModel{
		// One profile per user.
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_regulars_user"),
		},
		// Group rosters and live member counts read through this.
		{
			Keys:    bson.D{{Key: "group_id", Value: 1}},
			Options: options.Index().SetName("idx_regulars_group"),
		},
		{
			Keys:    bson.D{{Key: "church_id", Value: 1}, {Key: "role_type", Value: 1}},
			Options: options.Index().SetName("idx_regulars_church_roletype"),
		},
	})
}

func ensureGroups(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("groups"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "church_id", Value: 1}, {Key: "name_ci", Value: 1}},
			Options: options.Index().SetName("idx_groups_church_nameci"),
		},
		{
			Keys:    bson.D{{Key: "church_id", Value: 1}, {Key: "group_type", Value: 1}},
			Options: options.Index().SetName("idx_groups_church_type"),
		},
	})
}

func ensureAnnouncements(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("announcements"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "church_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_announcements_church_created"),
		},
	})
}
