package source

import (
	"context"
	"sort"
)

// DefaultMigrationsFolder is assumed when no folder is configured.
const DefaultMigrationsFolder = "./migrations"

// Source is the catalog of migration files the runner works against.
// List enumerates filenames by suffix, Read fetches the content of one
// file, Exists probes for a file without reading it.
type Source interface {
	List(ctx context.Context, suffix string) (Set, error)
	Read(ctx context.Context, filename string) ([]byte, error)
	Exists(filename string) bool
}

// Set is an unordered collection of migration filenames.
type Set map[string]struct{}

func NewSet(names ...string) Set {
	s := make(Set, len(names))
	for _, n := range names {
		s.Add(n)
	}

	return s
}

func (s Set) Add(name string) {
	s[name] = struct{}{}
}

func (s Set) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Sorted returns the names in ascending lexicographic order.
func (s Set) Sorted() []string {
	names := make([]string, 0, len(s))
	for n := range s {
		names = append(names, n)
	}

	sort.Strings(names)

	return names
}
