// Package locator resolves which translation folders and script files a
// run will process.
package locator

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

// ScriptExtension is the Ren'Py script file extension handled by the tool.
const ScriptExtension = ".rpy"

// ResolveFolders returns the language directories to process under
// <root>/tl. With all set, every immediate subdirectory is returned;
// otherwise the single directory named folder. A missing directory is
// reported through a wrapped fs.ErrNotExist so callers can decide whether
// it is fatal.
func ResolveFolders(root, folder string, all bool) ([]string, error) {
	tlDir := filepath.Join(root, "tl")

	if !all {
		dir := filepath.Join(tlDir, folder)
		info, err := os.Stat(dir)
		if err != nil {
			return nil, fmt.Errorf("language folder %s: %w", dir, fs.ErrNotExist)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("language folder %s is not a directory", dir)
		}
		return []string{dir}, nil
	}

	entries, err := os.ReadDir(tlDir)
	if err != nil {
		return nil, fmt.Errorf("translation root %s: %w", tlDir, fs.ErrNotExist)
	}

	var dirs []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dirs = append(dirs, filepath.Join(tlDir, e.Name()))
	}

	if len(dirs) == 0 {
		log.Warn().Str("root", tlDir).Msg("No language folders found")
	}

	return dirs, nil
}

// EnumerateFiles recursively lists the .rpy files under dir. WalkDir
// visits entries in lexical order, so the result is deterministic for a
// given tree and reruns are reproducible.
func EnumerateFiles(dir string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Error walking path")
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if strings.ToLower(filepath.Ext(path)) != ScriptExtension {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk directory %s: %w", dir, err)
	}

	return files, nil
}
