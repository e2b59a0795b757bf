package bootstrap

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

// Progress lines bracketing a run.
const (
	StartMessage    = "MongoDB initialization script running..."
	CompleteMessage = "MongoDB initialization completed!"
)

// Engine is the database handle the bootstrap issues its requests through.
// CreateCollection must treat an already existing collection as success.
type Engine interface {
	CreateCollection(ctx context.Context, database, collection string) error
	ListCollectionNames(ctx context.Context, database string) ([]string, error)
}

// Run creates every collection of the layout, in order, and logs progress.
// The first failure aborts the run; nothing is retried.
func Run(ctx context.Context, engine Engine) error {
	log.Info().Msg(StartMessage)

	for _, db := range layout {
		for _, collection := range db.Collections {
			log.Debug().Str("database", db.Name).Str("collection", collection).Msg("Creating collection")
			if err := engine.CreateCollection(ctx, db.Name, collection); err != nil {
				return fmt.Errorf("bootstrap %s.%s: %w", db.Name, collection, err)
			}
		}
		log.Info().Msg(db.Done)
	}

	log.Info().Msg(CompleteMessage)
	return nil
}
