// Package txn runs multi-document Mongo writes transactionally where the
// server supports it (replica set / mongos) and falls back to plain execution
// on standalone servers.
//
// Registration is the one operation in this app that must be all-or-nothing
// (user + new-friend profile + activity entry); callers that fall back are
// responsible for their own compensation on partial failure.
package txn

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
)

// WithTransaction executes fn inside a Mongo transaction. If the server does
// not support transactions (standalone mongod), fn is executed once without
// one and supported=false is returned so the caller can compensate manually
// on failure.
func WithTransaction(ctx context.Context, client *mongo.Client, fn func(ctx context.Context) error) (supported bool, err error) {
	session, err := client.StartSession()
	if err != nil {
		if IsNotSupported(err) {
			return false, fn(ctx)
		}
		return false, err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	if err != nil && IsNotSupported(err) {
		return false, fn(ctx)
	}
	return true, err
}

// Server error codes that indicate transactions are unavailable:
// 20 IllegalOperation (not a replica set member), 51 IllegalOperation,
// 263 OperationNotSupportedInTransaction.
var notSupportedCodes = map[int32]bool{20: true, 51: true, 263: true}

// IsNotSupported reports whether err indicates the server cannot run
// transactions, as opposed to a transaction that ran and failed.
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}

	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		return notSupportedCodes[cmdErr.Code]
	}

	// Driver and server wrap the condition in varied messages; look for the
	// telltale keyword pairs.
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "transaction") || strings.Contains(msg, "session") {
		for _, hint := range []string{"replica set", "not supported", "illegal operation", "session"} {
			if strings.Contains(msg, hint) {
				return true
			}
		}
	}
	return false
}
