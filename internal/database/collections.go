package database

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Server error codes the bootstrap treats as benign.
const (
	CodeAlreadyInitialized = 23
	CodeNamespaceExists    = 48
)

// CreateCollection creates collection inside database.
// An already existing collection is not an error.
func (db *DB) CreateCollection(ctx context.Context, database, collection string) error {
	err := db.client.Database(database).CreateCollection(ctx, collection)
	switch {
	case err == nil:
		log.Debug().Str("database", database).Str("collection", collection).Msg("Collection created")
		return nil
	case IsNamespaceExists(err):
		log.Debug().Str("database", database).Str("collection", collection).Msg("Collection already exists")
		return nil
	default:
		return fmt.Errorf("failed to create collection %s.%s: %w", database, collection, err)
	}
}

// ListCollectionNames returns the sorted collection names of database
func (db *DB) ListCollectionNames(ctx context.Context, database string) ([]string, error) {
	names, err := db.client.Database(database).ListCollectionNames(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("failed to list collections of %s: %w", database, err)
	}
	sort.Strings(names)
	return names, nil
}

// DropDatabase removes database and all its collections.
func (db *DB) DropDatabase(ctx context.Context, database string) error {
	if err := db.client.Database(database).Drop(ctx); err != nil {
		return fmt.Errorf("failed to drop database %s: %w", database, err)
	}
	return nil
}

// IsNamespaceExists reports whether err is the server's NamespaceExists error.
func IsNamespaceExists(err error) bool {
	return hasErrorCode(err, CodeNamespaceExists)
}

func hasErrorCode(err error, code int) bool {
	if err == nil {
		return false
	}
	var serverErr mongo.ServerError
	return errors.As(err, &serverErr) && serverErr.HasErrorCode(code)
}
