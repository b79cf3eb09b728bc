package godwit

import (
	"github.com/godwitdb/godwit/internal/source"
)

// UseLocalFolderSource reads change-scripts from the given folder.
func UseLocalFolderSource(folder string) OptionFunc {
	return func(m *Migrator) error {
		m.src = source.NewLocal(folder)
		return nil
	}
}

// UseInMemorySource serves change-scripts from an in-memory catalog of
// filename to script content, mostly useful in tests and embedded setups.
func UseInMemorySource(files map[string]string) OptionFunc {
	return func(m *Migrator) error {
		m.src = source.NewInMemory(files)
		return nil
	}
}
