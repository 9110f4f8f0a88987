package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/PhucNguyen204/sigma2padas/pkg/padas"
)

// Encode writes records as one JSON array. HTML characters are not escaped,
// predicates contain "<" and ">".
func Encode(w io.Writer, records []padas.Record, indent int) error {
	if records == nil {
		records = []padas.Record{}
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if indent > 0 {
		enc.SetIndent("", strings.Repeat(" ", indent))
	}
	return enc.Encode(records)
}

// WriteFile encodes records into a temp file next to path and renames it into
// place, so path either holds the full output or is left untouched.
func WriteFile(path string, records []padas.Record, indent int) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp output: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if err := Encode(tmp, records, indent); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("encode output: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close temp output: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("rename output: %w", err)
	}
	return nil
}
