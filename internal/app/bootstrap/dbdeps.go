// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database dependencies for the app.
type DBDeps struct {
	ShepherdMongoClient   *mongo.Client
	ShepherdMongoDatabase *mongo.Database
}
