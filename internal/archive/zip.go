// Package archive bundles a downloaded folder into a single zip file for
// document-style delivery.
package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Create writes "{title} - {artist}.zip" into destDir containing every file
// under folder. Member paths are relative to folder so the archive never
// leaks absolute paths. It returns the archive path.
func Create(folder, destDir, title, artist string) (string, error) {
	name := sanitize(fmt.Sprintf("%s - %s.zip", title, artist))
	zipPath := filepath.Join(destDir, name)

	out, err := os.Create(zipPath)
	if err != nil {
		return "", fmt.Errorf("create archive: %w", err)
	}
	defer out.Close()

	w := zip.NewWriter(out)
	err = filepath.Walk(folder, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(folder, path)
		if err != nil {
			return err
		}
		return addFile(w, path, filepath.ToSlash(rel))
	})
	if err != nil {
		w.Close()
		os.Remove(zipPath)
		return "", fmt.Errorf("write archive: %w", err)
	}
	if err := w.Close(); err != nil {
		os.Remove(zipPath)
		return "", fmt.Errorf("finalize archive: %w", err)
	}
	return zipPath, nil
}

func addFile(w *zip.Writer, path, name string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	entry, err := w.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate})
	if err != nil {
		return err
	}
	_, err = io.Copy(entry, f)
	return err
}

// sanitize keeps archive names safe for the filesystem.
func sanitize(name string) string {
	replacer := strings.NewReplacer("/", "_", "\\", "_", "\x00", "")
	return replacer.Replace(name)
}
