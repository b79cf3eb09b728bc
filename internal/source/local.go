package source

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/godwitdb/godwit/migration"
)

// Local reads migration files from a flat folder on disk.
type Local struct {
	folder string
}

var _ Source = (*Local)(nil)

func NewLocal(folder string) *Local {
	return &Local{folder: folder}
}

func (l *Local) Folder() string {
	return l.folder
}

// IsValid reports whether the configured folder exists and is a directory.
func (l *Local) IsValid() bool {
	info, err := os.Stat(l.folder)
	if err != nil {
		return false
	}

	return info.IsDir()
}

func (l *Local) List(ctx context.Context, suffix string) (Set, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(l.folder)
	if err != nil {
		return nil, errors.Wrapf(err, "could not list migrations folder [%s]", l.folder)
	}

	result := NewSet()
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		if strings.HasSuffix(entry.Name(), suffix) {
			result.Add(entry.Name())
		}
	}

	return result, nil
}

func (l *Local) Read(ctx context.Context, filename string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	content, err := os.ReadFile(filepath.Join(l.folder, filename))
	if err != nil {
		return nil, errors.Wrapf(err, "could not read migration file [%s]", filename)
	}

	return content, nil
}

func (l *Local) Exists(filename string) bool {
	info, err := os.Stat(filepath.Join(l.folder, filename))
	if err != nil {
		return false
	}

	return !info.IsDir()
}

// Create scaffolds an empty migration pair in the folder and returns the
// name of the new change-script. The revert counterpart is omitted when
// withDown is false.
func (l *Local) Create(clock migration.ClockFunc, name string, withDown bool) (string, error) {
	base := migration.GenerateBase(clock, name)

	upName := base + migration.UpSuffix
	if err := l.touch(upName); err != nil {
		return "", err
	}

	if withDown {
		if err := l.touch(migration.DownName(upName)); err != nil {
			return "", err
		}
	}

	return upName, nil
}

func (l *Local) touch(filename string) error {
	path := filepath.Join(l.folder, filename)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return errors.Wrapf(err, "could not create file [%s]", path)
	}

	if cErr := f.Close(); cErr != nil {
		return errors.Wrapf(cErr, "could not close file [%s]", path)
	}

	return nil
}
