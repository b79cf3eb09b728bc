package source

import (
	"context"
	"strings"

	"github.com/pkg/errors"
)

var ErrFileNotFound = errors.New("migration file not found")

// InMemory keeps migration files in a map, mostly for tests and for
// applications that embed their migrations.
type InMemory struct {
	files map[string]string
}

var _ Source = (*InMemory)(nil)

func NewInMemory(files map[string]string) *InMemory {
	if files == nil {
		files = make(map[string]string)
	}

	return &InMemory{files: files}
}

// Add registers a file, replacing any previous content under the same name.
func (m *InMemory) Add(filename, content string) *InMemory {
	m.files[filename] = content
	return m
}

func (m *InMemory) List(ctx context.Context, suffix string) (Set, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := NewSet()
	for name := range m.files {
		if strings.HasSuffix(name, suffix) {
			result.Add(name)
		}
	}

	return result, nil
}

func (m *InMemory) Read(ctx context.Context, filename string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	content, ok := m.files[filename]
	if !ok {
		return nil, errors.Wrapf(ErrFileNotFound, "[%s]", filename)
	}

	return []byte(content), nil
}

func (m *InMemory) Exists(filename string) bool {
	_, ok := m.files[filename]
	return ok
}
