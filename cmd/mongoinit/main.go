package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/saltyorg/mongoinit/internal/bootstrap"
	"github.com/saltyorg/mongoinit/internal/config"
	"github.com/saltyorg/mongoinit/internal/database"
	"github.com/saltyorg/mongoinit/internal/logging"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// CLI flags
var (
	cfgFile   string
	verbosity int

	// verify
	outputFormat string

	// replset
	replSetName string
	replSetHost string

	logCloser io.Closer
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := newRootCmd().ExecuteContext(ctx)
	closeLog()
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "mongoinit",
		Short: "mongoinit - MongoDB bootstrap",
		Long: `mongoinit prepares a fresh MongoDB deployment for the web UI.
It creates the webuiDB database with the users and sessions collections
and the authdb database with the authKeys collection.

Run it once when the data directory is first initialized.`,
		SilenceUsage: true,
		RunE:         run,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "Config file (default ./mongoinit.yaml, /etc/mongoinit/mongoinit.yaml)")
	flags.String("uri", "", "MongoDB connection string (or set MONGOINIT_MONGO_URI / MONGODB_URI)")
	flags.String("username", "", "MongoDB username, kept out of the URI (or set MONGOINIT_MONGO_USERNAME)")
	flags.String("password", "", "MongoDB password (prefer MONGOINIT_MONGO_PASSWORD)")
	flags.String("auth-source", "", "Authentication database (default admin)")
	flags.Duration("connect-timeout", 0, "Timeout for server selection and the initial ping")
	flags.Duration("operation-timeout", 0, "Timeout for the whole bootstrap or verify run")
	flags.String("log-level", "", "Log level (trace, debug, info, warn, error)")
	flags.String("log-file", "", "Also write logs to this file, rotated")
	flags.CountVarP(&verbosity, "verbose", "v", "Increase verbosity (-v debug, -vv trace)")

	verifyCmd := &cobra.Command{
		Use:   "verify",
		Short: "Check that every bootstrap collection exists",
		Args:  cobra.NoArgs,
		RunE:  runVerify,
	}
	verifyCmd.Flags().StringVarP(&outputFormat, "output", "o", "text", "Report format (text, yaml)")

	replSetCmd := &cobra.Command{
		Use:   "replset",
		Short: "Initiate a single-node replica set",
		Long: `Initiate a single-node replica set on the connected mongod.
The server must have been started with --replSet matching --name.`,
		Args: cobra.NoArgs,
		RunE: runReplSet,
	}
	replSetCmd.Flags().StringVar(&replSetName, "name", "rs0", "Replica set name")
	replSetCmd.Flags().StringVar(&replSetHost, "host", "localhost:27017", "Member host:port advertised to the set")

	rootCmd.AddCommand(verifyCmd, replSetCmd, &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "mongoinit %s (commit: %s, built: %s)\n", version, commit, date)
		},
	})

	return rootCmd
}

// setup loads configuration and configures logging for a command.
func setup(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cmd.Flags(), cfgFile)
	if err != nil {
		return nil, err
	}
	logCloser = logging.Apply(cfg.Log, verbosity)
	return cfg, nil
}

// closeLog flushes and releases the rotating log file, if one was opened.
func closeLog() {
	if logCloser == nil {
		return
	}
	if err := logCloser.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to close log file: %v\n", err)
	}
	logCloser = nil
}

func connect(ctx context.Context, cfg *config.Config, direct bool) (*database.DB, error) {
	db, err := database.New(ctx, database.Options{
		URI:            cfg.Mongo.URI,
		ConnectTimeout: cfg.Timeouts().Connect,
		Direct:         direct,
		Username:       cfg.Mongo.Username,
		Password:       cfg.Mongo.Password,
		AuthSource:     cfg.Mongo.AuthSource,
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("uri", db.URI()).Str("username", cfg.Mongo.Username).Msg("Connected to MongoDB")
	return db, nil
}

func closeDB(db *database.DB) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.Close(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to close database connection")
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := setup(cmd)
	if err != nil {
		return err
	}

	log.Info().Str("version", version).Msg("Starting mongoinit")

	ctx, cancel := cfg.Timeouts().OperationContext(cmd.Context())
	defer cancel()

	db, err := connect(ctx, cfg, false)
	if err != nil {
		log.Error().Err(err).Msg("Failed to initialize database")
		return err
	}
	defer closeDB(db)

	if err := bootstrap.Run(ctx, db); err != nil {
		log.Error().Err(err).Msg("MongoDB initialization failed")
		return err
	}
	return nil
}

func runVerify(cmd *cobra.Command, args []string) error {
	if outputFormat != "text" && outputFormat != "yaml" {
		return fmt.Errorf("unsupported output format %q (want text or yaml)", outputFormat)
	}

	cfg, err := setup(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := cfg.Timeouts().OperationContext(cmd.Context())
	defer cancel()

	db, err := connect(ctx, cfg, false)
	if err != nil {
		log.Error().Err(err).Msg("Failed to initialize database")
		return err
	}
	defer closeDB(db)

	report, err := bootstrap.Verify(ctx, db)
	if err != nil {
		log.Error().Err(err).Msg("Verification failed")
		return err
	}

	out := cmd.OutOrStdout()
	if outputFormat == "yaml" {
		err = report.WriteYAML(out)
	} else {
		err = report.WriteText(out)
	}
	if err != nil {
		return err
	}

	if !report.OK() {
		return fmt.Errorf("bootstrap collections are missing")
	}
	return nil
}

func runReplSet(cmd *cobra.Command, args []string) error {
	if replSetName == "" || replSetHost == "" {
		return fmt.Errorf("--name and --host must not be empty")
	}

	cfg, err := setup(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := cfg.Timeouts().OperationContext(cmd.Context())
	defer cancel()

	db, err := connect(ctx, cfg, true)
	if err != nil {
		log.Error().Err(err).Msg("Failed to initialize database")
		return err
	}
	defer closeDB(db)

	return db.InitiateReplicaSet(ctx, replSetName, replSetHost)
}
