// Package output writes generated exports to a file or to stdout.
package output

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// Stdout is the path that selects standard output.
const Stdout = "-"

// AppFs is the filesystem exports are written to. Tests swap in an
// afero.MemMapFs.
var AppFs = afero.NewOsFs()

// IsStdout reports whether path selects standard output.
func IsStdout(path string) bool {
	return path == "" || path == Stdout
}

// Write writes data to path on fs, or to stdout when path is empty or "-".
// Missing parent directories are created. A trailing newline is appended
// when data does not already end in one.
func Write(fs afero.Fs, path string, data string, stdout io.Writer) error {
	if !strings.HasSuffix(data, "\n") {
		data += "\n"
	}

	if IsStdout(path) {
		if _, err := io.WriteString(stdout, data); err != nil {
			return fmt.Errorf("write stdout: %w", err)
		}
		return nil
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if err := afero.WriteFile(fs, path, []byte(data), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Read returns the contents of path on fs, or of stdin when path is "-".
func Read(fs afero.Fs, path string, stdin io.Reader) ([]byte, error) {
	if path == Stdout {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// ExtensionFormat guesses the export format from a file extension:
// ".json", ".yaml"/".yml" or ".sql". It returns "" otherwise.
func ExtensionFormat(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return "json"
	case ".yaml", ".yml":
		return "yaml"
	case ".sql":
		return "sql"
	}
	return ""
}
