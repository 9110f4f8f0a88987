package cli

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"github.com/PhucNguyen204/sigma2padas/internal/batch"
	"github.com/PhucNguyen204/sigma2padas/internal/config"
	"github.com/PhucNguyen204/sigma2padas/internal/logger"
	"github.com/PhucNguyen204/sigma2padas/internal/store"
	"github.com/PhucNguyen204/sigma2padas/pkg/padas"
	"github.com/PhucNguyen204/sigma2padas/pkg/pdl"
	"github.com/PhucNguyen204/sigma2padas/pkg/sigma"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

// RootOptions holds flags shared by every command.
type RootOptions struct {
	ConfigPath string
	LogLevel   string
	Workers    int
	Legacy     bool
	FieldMap   string
	DSN        string
	Getenv     func(string) string
	Log        *logger.Logger
}

// NewRootCommand: `sigma2padas <input> <output>` plus serve and version.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{Getenv: os.Getenv}

	cmd := &cobra.Command{
		Use:   "sigma2padas <input> <output>",
		Short: "Convert Sigma v2 rules to PADAS rules",
		Long: "Reads a multi-document Sigma YAML file (or a directory of them), compiles every\n" +
			"detection into a PDL predicate and writes the PADAS rules as one JSON array.",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd, opts, args[0], args[1])
		},
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "YAML config file")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "log level (debug|info|warn|error)")
	cmd.PersistentFlags().IntVar(&opts.Workers, "workers", 0, "parallel compile workers (0 = config default)")
	cmd.PersistentFlags().BoolVar(&opts.Legacy, "legacy-substitution", false, "replace selection names as raw substrings, like older converters")
	cmd.PersistentFlags().StringVar(&opts.FieldMap, "field-map", "", "YAML file mapping Sigma field names to PADAS field names")
	cmd.PersistentFlags().StringVar(&opts.DSN, "dsn", "", "also upsert converted rules into this Postgres database")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "sigma2padas %s (%s)\n", version, commit)
		},
	})
	return cmd
}

// resolveConfig layers defaults, config file, environment and flags.
func resolveConfig(opts *RootOptions) (config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return cfg, err
	}
	if cfg, err = cfg.ApplyEnv(opts.Getenv); err != nil {
		return cfg, err
	}
	if opts.Workers > 0 {
		cfg = cfg.WithWorkers(opts.Workers)
	}
	if opts.Legacy {
		cfg = cfg.WithSubstitution(pdl.SubstituteLiteral)
	}
	if opts.FieldMap != "" {
		cfg.FieldMapPath = opts.FieldMap
	}
	if opts.DSN != "" {
		cfg = cfg.WithDSN(opts.DSN)
	}
	if opts.LogLevel != "" {
		cfg.LogLevel = opts.LogLevel
	}
	return cfg, cfg.Validate()
}

func (o *RootOptions) logger(cfg config.Config) *logger.Logger {
	if o.Log != nil {
		return o.Log
	}
	return logger.New(cfg.LogLevel)
}

func newConverter(cfg config.Config, log *logger.Logger) (*batch.Converter, error) {
	mode, err := cfg.Mode()
	if err != nil {
		return nil, err
	}
	copts := pdl.Options{Mode: mode}
	if cfg.FieldMapPath != "" {
		fm, err := sigma.LoadFieldMapping(cfg.FieldMapPath)
		if err != nil {
			return nil, err
		}
		copts.FieldMapping = fm
		log.Debug().Int("fields", fm.Len()).Str("path", cfg.FieldMapPath).Msg("field mapping loaded")
	}
	asm := padas.NewAssembler(pdl.WithOptions(copts))
	return batch.NewConverter(asm, cfg.EffectiveWorkers(), log), nil
}

// openStore connects, creates the schema and applies cfg.MigrationsDir.
func openStore(ctx context.Context, cfg config.Config) (*store.Store, *sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping db: %w", err)
	}
	st := store.New(db)
	if err := st.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	if cfg.MigrationsDir != "" {
		if err := st.RunMigrations(ctx, cfg.MigrationsDir); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
	}
	return st, db, nil
}
