package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ArchiveDir moves a clip directory aside into a sibling "archive"
// directory, named after the directory and a timestamp. It returns the new
// location.
func ArchiveDir(dir string) (string, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return "", fmt.Errorf("directory does not exist: %s", dir)
	}

	archiveDir := filepath.Join(filepath.Dir(dir), "archive")
	if err := os.MkdirAll(archiveDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	base := filepath.Base(dir)
	archivePath := filepath.Join(archiveDir, fmt.Sprintf("%s-%s", base, time.Now().Format("20060102-150405")))

	// Two archives within the same second get microseconds
	if _, err := os.Stat(archivePath); err == nil {
		archivePath = filepath.Join(archiveDir, fmt.Sprintf("%s-%s", base, time.Now().Format("20060102-150405.000000")))
	}

	if err := os.Rename(dir, archivePath); err != nil {
		return "", fmt.Errorf("failed to archive directory: %w", err)
	}

	return archivePath, nil
}

// ZipClips writes every .mp3 and .wav file of dir into a zip file at out.
// Entries carry the bare file name. It returns the number of files added.
func ZipClips(dir, out string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read clip directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if e.Type().IsRegular() && (ext == ".mp3" || ext == ".wav") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	if dir := filepath.Dir(out); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return 0, fmt.Errorf("failed to create zip directory: %w", err)
		}
	}

	f, err := os.Create(out)
	if err != nil {
		return 0, fmt.Errorf("failed to create zip file: %w", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	for _, name := range names {
		if err := addFile(zw, filepath.Join(dir, name), name); err != nil {
			zw.Close()
			return 0, err
		}
	}

	if err := zw.Close(); err != nil {
		return 0, fmt.Errorf("failed to finish zip file: %w", err)
	}
	return len(names), f.Close()
}

func addFile(zw *zip.Writer, path, name string) error {
	src, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer src.Close()

	// Audio is already compressed
	w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Store})
	if err != nil {
		return fmt.Errorf("failed to add %s: %w", name, err)
	}
	if _, err := io.Copy(w, src); err != nil {
		return fmt.Errorf("failed to add %s: %w", name, err)
	}
	return nil
}
