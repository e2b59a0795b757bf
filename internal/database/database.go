package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const appName = "mongoinit"

// Options configures the connection to the engine.
type Options struct {
	URI            string
	ConnectTimeout time.Duration
	// Username and Password, when set, are passed as a credential rather
	// than embedded in URI, so they need no percent-encoding.
	Username   string
	Password   string
	AuthSource string
	// Direct forces a single-server connection, needed to talk to a
	// replica set member before the set has been initiated.
	Direct bool
}

// DB wraps the MongoDB client
type DB struct {
	client *mongo.Client
	uri    string
}

// New connects to MongoDB and verifies the connection with a ping
func New(ctx context.Context, opts Options) (*DB, error) {
	client, err := mongo.Connect(ctx, clientOptions(opts))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	// A direct connection may target a member that is not (yet) primary.
	pref := readpref.Primary()
	if opts.Direct {
		pref = readpref.PrimaryPreferred()
	}
	if err := client.Ping(ctx, pref); err != nil {
		if dErr := client.Disconnect(context.Background()); dErr != nil {
			log.Debug().Err(dErr).Msg("Failed to disconnect after ping failure")
		}
		return nil, fmt.Errorf("failed to ping MongoDB at %s: %w", RedactURI(opts.URI), err)
	}

	log.Debug().Str("uri", RedactURI(opts.URI)).Msg("Database connection established")

	return &DB{
		client: client,
		uri:    opts.URI,
	}, nil
}

// clientOptions translates Options into driver client options.
func clientOptions(opts Options) *options.ClientOptions {
	clientOpts := options.Client().ApplyURI(opts.URI).SetAppName(appName)
	if opts.ConnectTimeout > 0 {
		clientOpts.SetConnectTimeout(opts.ConnectTimeout)
		clientOpts.SetServerSelectionTimeout(opts.ConnectTimeout)
	}
	if opts.Direct {
		clientOpts.SetDirect(true)
	}
	if opts.Username != "" {
		clientOpts.SetAuth(options.Credential{
			Username:    opts.Username,
			Password:    opts.Password,
			AuthSource:  opts.AuthSource,
			PasswordSet: opts.Password != "",
		})
	}
	return clientOpts
}

// URI returns the connection string with credentials redacted
func (db *DB) URI() string {
	return RedactURI(db.uri)
}

// Close disconnects the client
func (db *DB) Close(ctx context.Context) error {
	if db == nil || db.client == nil {
		return nil
	}
	if err := db.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect from MongoDB: %w", err)
	}
	return nil
}

// RedactURI replaces the password in a MongoDB connection string so it can be logged.
func RedactURI(uri string) string {
	scheme, rest, ok := strings.Cut(uri, "://")
	if !ok {
		return uri
	}

	authority := rest
	if i := strings.IndexAny(rest, "/?"); i >= 0 {
		authority = rest[:i]
	}
	at := strings.LastIndex(authority, "@")
	if at < 0 {
		return uri
	}

	user, _, hasPassword := strings.Cut(authority[:at], ":")
	if !hasPassword {
		return uri
	}
	return scheme + "://" + user + ":xxxxx" + rest[at:]
}
