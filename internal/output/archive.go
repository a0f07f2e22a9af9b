package output

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ArchiveName returns the archive file name for a batch.
func ArchiveName(batchID string) string {
	return "corrected_texts_" + batchID + ".zip"
}

// CreateArchive writes a new zip at path holding each file under its base name only.
// An empty file list produces a valid empty archive.
func CreateArchive(path string, files []string) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}

	zw := zip.NewWriter(out)

	for _, file := range files {
		if err := addFile(zw, file); err != nil {
			zw.Close()
			out.Close()
			return fmt.Errorf("failed to add %s to archive: %w", filepath.Base(file), err)
		}
	}

	if err := zw.Close(); err != nil {
		out.Close()
		return fmt.Errorf("failed to finalize archive: %w", err)
	}
	return out.Close()
}

func addFile(zw *zip.Writer, path string) error {
	in, err := os.Open(path)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Name = filepath.Base(path)
	header.Method = zip.Deflate

	w, err := zw.CreateHeader(header)
	if err != nil {
		return err
	}

	_, err = io.Copy(w, in)
	return err
}
