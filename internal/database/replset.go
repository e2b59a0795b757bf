package database

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
)

// InitiateReplicaSet turns the connected mongod into the only member of replica set name.
// A set that is already initiated is left untouched.
func (db *DB) InitiateReplicaSet(ctx context.Context, name, host string) error {
	err := db.client.Database("admin").RunCommand(ctx, replSetInitiateCommand(name, host)).Err()
	switch {
	case err == nil:
		log.Info().Str("replica_set", name).Str("host", host).Msg("Replica set initiated")
		return nil
	case hasErrorCode(err, CodeAlreadyInitialized):
		log.Info().Str("replica_set", name).Msg("Replica set already initiated")
		return nil
	default:
		return fmt.Errorf("failed to initiate replica set %s: %w", name, err)
	}
}

func replSetInitiateCommand(name, host string) bson.D {
	return bson.D{{Key: "replSetInitiate", Value: bson.D{
		{Key: "_id", Value: name},
		{Key: "members", Value: bson.A{
			bson.D{{Key: "_id", Value: 0}, {Key: "host", Value: host}},
		}},
	}}}
}
