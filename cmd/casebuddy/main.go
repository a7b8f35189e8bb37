// Command casebuddy keeps legal case records: documents, evidence, a timeline,
// FOIA requests and witnesses, per account, with search and summaries.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/and161185/casebuddy/internal/config"
	"github.com/and161185/casebuddy/internal/limiter"
	"github.com/and161185/casebuddy/internal/logging"
	"github.com/and161185/casebuddy/internal/records"
	"github.com/and161185/casebuddy/internal/repository"
	"github.com/and161185/casebuddy/internal/repository/partition"
	"github.com/and161185/casebuddy/internal/service"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// app holds what one process shares across commands. The shell reuses it for every line.
type app struct {
	configPath string
	backend    string
	dataDir    string
	dsn        string
	logLevel   string
	dev        bool

	in      io.Reader
	line    *liner.State
	inShell bool

	cfg      config.Config
	log      *zap.Logger
	medium   repository.Medium
	cases    *service.CaseService
	accounts *service.AccountService
	account  string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a := &app{in: os.Stdin}
	root := newRootCmd(a)
	root.SetOut(os.Stdout)
	err := root.ExecuteContext(ctx)
	a.close()
	if err != nil {
		fmt.Fprintln(os.Stderr, "casebuddy:", err)
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "casebuddy",
		Short:         "Keep legal case records",
		Long:          `Organize cases with documents, evidence, a timeline, FOIA requests and witnesses.`,
		Version:       fmt.Sprintf("%s (%s)", version, buildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.open(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "config file (default ~/.casebuddy/config.toml)")
	pf.StringVar(&a.backend, "backend", "", "storage backend: memory, file, sqlite or postgres")
	pf.StringVar(&a.dataDir, "data-dir", "", "directory for the file and sqlite backends")
	pf.StringVar(&a.dsn, "dsn", "", "PostgreSQL DSN for the postgres backend")
	pf.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn or error")
	pf.BoolVar(&a.dev, "dev", false, "human-readable development logging")

	root.AddCommand(
		newSignupCmd(a),
		newLoginCmd(a),
		newLogoutCmd(a),
		newWhoamiCmd(a),
		newCaseCmd(a),
		newDocCmd(a),
		newEvidenceCmd(a),
		newTagCmd(a),
		newTimelineCmd(a),
		newFoiaCmd(a),
		newWitnessCmd(a),
		newTaskCmd(a),
		newRmCmd(a),
		newSearchCmd(a),
		newSummaryCmd(a),
		newExportCmd(a),
		newShellCmd(a),
		newConfigCmd(a),
	)
	instrument(a, root)
	return root
}

// open loads config, opens the medium and restores the active account. It runs once per process.
func (a *app) open(cmd *cobra.Command) error {
	if a.cases != nil {
		return nil
	}
	ctx := cmd.Context()

	path, dir, err := a.configLocation()
	if err != nil {
		return err
	}
	cfg, err := config.Load(path, dir)
	if err != nil {
		return err
	}
	a.applyFlags(cmd, &cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	log, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return err
	}
	a.log = log

	m, err := openMedium(ctx, cfg.Storage, log)
	if err != nil {
		return fmt.Errorf("open %s storage: %w", cfg.Storage.Backend, err)
	}
	a.medium = m

	window, blockFor, err := cfg.Auth.Durations()
	if err != nil {
		return err
	}
	a.cases = service.NewCaseService(partition.NewCaseRepo(m, log), records.NewMutator(nil, nil), log)
	a.accounts = service.NewAccountService(
		partition.NewAccountRepo(m, log),
		a.cases,
		limiter.NewStore(m, window, cfg.Auth.MaxFailures, blockFor),
		log,
	)

	account, err := a.accounts.Rehydrate(ctx)
	if err != nil {
		log.Warn("could not restore active account", zap.Error(err))
	}
	a.account = account
	log.Debug("storage ready",
		zap.String("backend", cfg.Storage.Backend),
		zap.String("account", account),
		zap.String("version", version))
	return nil
}

// configLocation resolves the config file path and the default data directory.
func (a *app) configLocation() (path, dir string, err error) {
	if dir, err = config.DefaultDir(); err != nil {
		return "", "", err
	}
	if a.dataDir != "" {
		dir = a.dataDir
	}
	path = a.configPath
	if path == "" {
		path = filepath.Join(dir, config.FileName)
	}
	return path, dir, nil
}

// applyFlags lets explicitly set flags override the config file.
func (a *app) applyFlags(cmd *cobra.Command, cfg *config.Config) {
	changed := func(name string) bool {
		f := cmd.Flags().Lookup(name)
		return f != nil && f.Changed
	}
	if changed("backend") {
		cfg.Storage.Backend = a.backend
	}
	if changed("data-dir") {
		cfg.Storage.Dir = a.dataDir
	}
	if changed("dsn") {
		cfg.Storage.DSN = a.dsn
	}
	if changed("log-level") {
		cfg.Log.Level = a.logLevel
	}
	if changed("dev") {
		cfg.Log.Development = a.dev
	}
}

func (a *app) close() {
	if a.medium != nil {
		if err := a.medium.Close(); err != nil && a.log != nil {
			a.log.Warn("close storage", zap.Error(err))
		}
		a.medium = nil
	}
	if a.log != nil {
		_ = a.log.Sync()
	}
}

var errNotLoggedIn = errors.New("not logged in: run signup or login first")

func (a *app) requireAccount() error {
	if a.account == "" {
		return errNotLoggedIn
	}
	return nil
}
