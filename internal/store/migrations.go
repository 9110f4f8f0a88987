package store

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// RunMigrations executes every .sql file under dir in lexicographic order,
// after the built-in schema. Each file may hold several statements separated by ';'.
func (s *Store) RunMigrations(ctx context.Context, dir string) error {
	var files []string
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasSuffix(strings.ToLower(d.Name()), ".sql") {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("walk migrations: %w", err)
	}
	sort.Strings(files)

	for _, p := range files {
		b, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", p, err)
		}
		if err := s.execScript(ctx, string(b)); err != nil {
			return fmt.Errorf("migration %s: %w", p, err)
		}
	}
	return nil
}

// tách theo ';', bỏ đoạn rỗng
func (s *Store) execScript(ctx context.Context, script string) error {
	for _, c := range strings.Split(script, ";") {
		stmt := strings.TrimSpace(c)
		if stmt == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
