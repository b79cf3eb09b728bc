package cli

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/godwitdb/godwit"
	"github.com/godwitdb/godwit/internal/database"
	"github.com/godwitdb/godwit/internal/source"
)

var (
	ErrFolderInvalid        = errors.New("migrations folder is invalid")
	ErrSourceTypeIsNotValid = errors.New("source type is not valid")
)

type (
	CloserFunc func() error

	// Config is everything the command line tool needs to build a
	// migrator: where the change-scripts live and which database to
	// reconcile them with.
	Config struct {
		DatabaseURL      string
		MigrationsFolder string
		LedgerTable      string
		PrintSQL         bool
		PrintDebug       bool
	}

	ActionConfig struct {
		Steps int
	}

	App struct {
		migrator *godwit.Migrator
	}
)

// NewFromYaml builds the App from a yaml configuration file.
func NewFromYaml(path string) (*App, CloserFunc, error) {
	cfg, err := createConfigFromYaml(path)
	if err != nil {
		return nil, nil, err
	}

	return New(cfg)
}

// New builds the App, resolving the database URL into a concrete
// migrator through the factory map.
func New(cfg Config) (*App, CloserFunc, error) {
	m, closer, err := createMigrator(cfg)
	if err != nil {
		return nil, nil, err
	}

	return &App{migrator: m}, CloserFunc(closer), nil
}

// CreateMigration scaffolds an empty up script, and unless withDown is
// false its down counterpart, in the migrator's source folder.
func (app *App) CreateMigration(name string, withDown bool) (string, error) {
	local, ok := app.migrator.Source().(*source.Local)
	if !ok {
		return "", ErrSourceTypeIsNotValid
	}

	return Scaffold(local.Folder(), name, withDown)
}

// Scaffold creates an empty up script, and unless withDown is false its
// down counterpart, inside the given folder. It needs no database at all.
func Scaffold(folder, name string, withDown bool) (string, error) {
	local := source.NewLocal(folder)
	if !local.IsValid() {
		return "", errors.Wrapf(ErrFolderInvalid, "[%s]", folder)
	}

	return local.Create(time.Now, name, withDown)
}

func (app *App) Migrate(ctx context.Context, cfg ActionConfig) error {
	if _, err := app.migrator.Migrate(ctx, godwit.CreateConfigurators(cfg.Steps)...); err != nil {
		return err
	}

	return nil
}

func (app *App) Rollback(ctx context.Context, cfg ActionConfig) error {
	if _, err := app.migrator.Rollback(ctx, godwit.CreateConfigurators(cfg.Steps)...); err != nil {
		return err
	}

	return nil
}

func (app *App) Reset(ctx context.Context, cfg ActionConfig) error {
	if _, err := app.migrator.Reset(ctx, godwit.CreateConfigurators(cfg.Steps)...); err != nil {
		return err
	}

	return nil
}

func (app *App) Refresh(ctx context.Context, cfg ActionConfig) error {
	if _, _, err := app.migrator.Refresh(ctx, godwit.CreateConfigurators(cfg.Steps)...); err != nil {
		return err
	}

	return nil
}

// InitLedger creates the ledger table without running anything.
func (app *App) InitLedger(ctx context.Context) error {
	return app.migrator.InitLedger(ctx)
}

// Status lists the ledger, newest batch first.
func (app *App) Status(ctx context.Context) ([]database.Entry, error) {
	return app.migrator.Entries(ctx)
}

// Dump renders the create statements of the current schema.
func (app *App) Dump(ctx context.Context) (string, error) {
	return app.migrator.Dump(ctx)
}

// InitCfg writes a starter configuration file to the given path.
func InitCfg(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "could not create config file")
	}

	defer func() {
		if err := f.Close(); err != nil {
			panic(err)
		}
	}()

	r := strings.NewReader(configFileStub)

	if _, err := io.Copy(f, r); err != nil {
		return err
	}

	return nil
}

func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}

	return !info.IsDir()
}
