package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/nhle/taskplanner/internal/conflict"
	"github.com/nhle/taskplanner/internal/credential"
	"github.com/nhle/taskplanner/internal/logging"
	"github.com/nhle/taskplanner/internal/model"
	"github.com/nhle/taskplanner/internal/notify"
	"github.com/nhle/taskplanner/internal/reminder"
	"github.com/nhle/taskplanner/internal/settings"
	"github.com/nhle/taskplanner/internal/store"
	"github.com/nhle/taskplanner/internal/tasks"
)

// globalOptions holds the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	dbPath     string
	user       string

	// newSession opens the keyring session. Tests replace it.
	newSession func() (*credential.Session, error)
	// logOutput receives log lines when no log file is configured.
	logOutput io.Writer
	// interactive reports whether a prompt can be answered. Tests replace it.
	interactive func() bool
}

func (o *globalOptions) resolvedConfigPath() string {
	if o.configPath != "" {
		return o.configPath
	}
	return model.DefaultConfigPath()
}

func (o *globalOptions) loadConfig() (*model.AppConfig, error) {
	cfg, err := model.LoadConfig(o.resolvedConfigPath())
	if err != nil {
		return nil, err
	}
	if o.dbPath != "" {
		cfg.Database.Path = o.dbPath
	}
	return cfg, nil
}

func (o *globalOptions) isInteractive() bool {
	if o.interactive != nil {
		return o.interactive()
	}
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func (o *globalOptions) session() (*credential.Session, error) {
	if o.newSession != nil {
		return o.newSession()
	}
	return credential.NewSession()
}

// env is the wired application used by a single command run.
type env struct {
	cfg      *model.AppConfig
	logger   *slog.Logger
	store    *store.SQLiteStore
	users    *model.Directory
	detector conflict.Detector
	tasks    *tasks.Service
	settings *settings.Service
	opts     *globalOptions

	closeLog func() error
}

// openEnv loads config, opens the log sink and the database, and builds the
// services.
func openEnv(opts *globalOptions) (*env, error) {
	cfg, err := opts.loadConfig()
	if err != nil {
		return nil, err
	}
	return openEnvWithConfig(opts, cfg)
}

func openEnvWithConfig(opts *globalOptions, cfg *model.AppConfig) (*env, error) {
	out := opts.logOutput
	if out == nil {
		out = os.Stderr
	}
	logger, closeLog, err := logging.Open(cfg.Log, out)
	if err != nil {
		return nil, err
	}

	mode, err := conflict.ParseMode(cfg.Conflict.Mode)
	if err != nil {
		closeLog()
		return nil, err
	}

	if cfg.Database.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
			closeLog()
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}
	s, err := store.NewSQLiteStore(cfg.Database.Path, store.WithLogger(logger))
	if err != nil {
		closeLog()
		return nil, err
	}

	detector := conflict.Detector{Mode: mode, Location: time.Local}
	return &env{
		cfg:      cfg,
		logger:   logger,
		store:    s,
		users:    model.NewDirectory(cfg.Users),
		detector: detector,
		tasks:    tasks.NewService(s, detector, logger),
		settings: settings.NewService(s, logger),
		opts:     opts,
		closeLog: closeLog,
	}, nil
}

// Close releases the database and the log file.
func (e *env) Close() error {
	return errors.Join(e.store.Close(), e.closeLog())
}

// preferences returns the preference service behind the configured gate.
// serverSide turns a "prompt" permission into "granted" since nobody can
// answer a prompt there.
func (e *env) preferences(serverSide bool) (*reminder.Preferences, error) {
	gate, err := e.gate(serverSide)
	if err != nil {
		return nil, err
	}
	return reminder.NewPreferences(e.store, gate, e.logger), nil
}

func (e *env) gate(serverSide bool) (notify.Gate, error) {
	perm, err := notify.ParsePermission(e.cfg.Notifications.Permission)
	if err != nil {
		return nil, err
	}
	if perm == notify.PermissionPrompt && serverSide {
		return notify.StaticGate(notify.PermissionGranted), nil
	}
	return notify.NewGate(string(perm))
}

// currentUser resolves the acting user from --user or the keyring session.
func (e *env) currentUser() (model.User, error) {
	name := strings.TrimSpace(e.opts.user)
	if name == "" {
		sess, err := e.opts.session()
		if err != nil {
			return model.User{}, err
		}
		name, err = sess.Load()
		if errors.Is(err, credential.ErrNoSession) {
			return model.User{}, fmt.Errorf("not logged in: run \"taskplanner login <username>\" or pass --user")
		}
		if err != nil {
			return model.User{}, err
		}
	}
	return e.users.Lookup(name)
}

// reminderUsers returns the users a reminder daemon should evaluate.
func (e *env) reminderUsers(override []string) ([]string, error) {
	names := override
	if len(names) == 0 {
		names = e.cfg.Reminder.Users
	}
	if len(names) == 0 {
		return e.users.Usernames(), nil
	}
	out := make([]string, 0, len(names))
	for _, n := range names {
		u, err := e.users.Lookup(n)
		if err != nil {
			return nil, err
		}
		out = append(out, u.Username)
	}
	return out, nil
}

func (e *env) reminderInterval() time.Duration {
	return time.Duration(e.cfg.Reminder.IntervalSec) * time.Second
}
