package fileutils

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/buger/jsonparser"
	"github.com/rs/zerolog"
)

// WriteCounter counts bytes streamed through it.
type WriteCounter struct {
	Total int64
	Size  int64
}

func (wc *WriteCounter) Write(p []byte) (int, error) {
	n := len(p)
	wc.Size += int64(n)
	return n, nil
}

// Percent is -1 when the total is unknown.
func (wc *WriteCounter) Percent() float64 {
	if wc.Total <= 0 {
		return -1
	}
	return float64(wc.Size) * 100 / float64(wc.Total)
}

func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}

func DirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// RemoveQuietly deletes path and logs instead of returning a failure.
func RemoveQuietly(logger zerolog.Logger, path string) {
	if err := os.RemoveAll(path); err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("Cleanup failed")
	}
}

// RemoveFileQuietly deletes a single file. Directories are never touched, and a file that
// is already gone is not an error.
func RemoveFileQuietly(logger zerolog.Logger, path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logger.Warn().Err(err).Str("path", path).Msg("Cleanup failed")
	}
}

// ExtractZip unpacks every entry of the archive under dest, overwriting existing files.
// Entries that would land outside dest are rejected.
func ExtractZip(archivePath string, dest string) (int, error) {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return 0, err
	}
	defer reader.Close()

	dest = filepath.Clean(dest)
	count := 0
	for _, f := range reader.File {
		target := filepath.Join(dest, filepath.FromSlash(f.Name))
		if target != dest && !strings.HasPrefix(target, dest+string(os.PathSeparator)) {
			return count, fmt.Errorf("archive entry %q escapes target directory", f.Name)
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return count, err
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return count, err
		}
		if err := extractFile(f, target); err != nil {
			return count, fmt.Errorf("extract %s: %w", f.Name, err)
		}
		count++
	}
	return count, nil
}

func extractFile(f *zip.File, target string) error {
	src, err := f.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, src); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

// LauncherProfileNames maps each profile gameDir in <dotMinecraft>/launcher_profiles.json
// to the profile name. A missing or unreadable file gives an empty map.
func LauncherProfileNames(dotMinecraft string) map[string]string {
	names := make(map[string]string)

	data, err := os.ReadFile(filepath.Join(dotMinecraft, "launcher_profiles.json"))
	if err != nil {
		return names
	}

	_ = jsonparser.ObjectEach(data, func(key []byte, value []byte, dataType jsonparser.ValueType, offset int) error {
		if dataType != jsonparser.Object {
			return nil
		}
		gameDir, err := jsonparser.GetString(value, "gameDir")
		if err != nil || gameDir == "" {
			return nil
		}
		name, err := jsonparser.GetString(value, "name")
		if err != nil || name == "" {
			name = string(key)
		}
		names[filepath.Clean(gameDir)] = name
		return nil
	}, "profiles")
	return names
}
