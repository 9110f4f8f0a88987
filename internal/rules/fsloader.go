package rules

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/PhucNguyen204/sigma2padas/pkg/sigma"
)

func isYAML(p string) bool {
	l := strings.ToLower(p)
	return strings.HasSuffix(l, ".yml") || strings.HasSuffix(l, ".yaml")
}

// Load đọc một file (multi-document) hoặc cả thư mục.
func Load(path string) ([]sigma.Rule, error) {
	st, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if st.IsDir() {
		return LoadDirRecursive(path)
	}
	return LoadFile(path)
}

func LoadFile(path string) ([]sigma.Rule, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return sigma.LoadRules(f, path)
}

// LoadDirRecursive loads every .yml/.yaml file under root in lexical path order.
// Rule indexes are renumbered across files.
func LoadDirRecursive(root string) ([]sigma.Rule, error) {
	var paths []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isYAML(p) {
			return nil
		}
		paths = append(paths, p)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk dir: %w", err)
	}
	sort.Strings(paths)

	var out []sigma.Rule
	for _, p := range paths {
		rs, err := LoadFile(p)
		if err != nil {
			return nil, err
		}
		for _, r := range rs {
			r.Index = len(out)
			out = append(out, r)
		}
	}
	return out, nil
}
