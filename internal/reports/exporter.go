// Package reports writes generated reports to disk and, optionally, to S3.
package reports

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// chunkSize bounds how much is written between cancellation checks.
const chunkSize = 32 * 1024

// Uploader copies an exported report to remote storage.
type Uploader interface {
	Upload(ctx context.Context, name string, body io.Reader) error
}

// Exporter writes reports atomically into a directory: content goes to a
// temp file that is renamed into place only after a complete write.
type Exporter struct {
	dir      string
	uploader Uploader // nil disables upload
	log      zerolog.Logger

	afterWrite func() // test hook, runs between write and rename
}

// NewExporter creates an exporter for dir. uploader may be nil.
func NewExporter(dir string, uploader Uploader, log zerolog.Logger) *Exporter {
	return &Exporter{
		dir:      dir,
		uploader: uploader,
		log:      log.With().Str("component", "report_exporter").Logger(),
	}
}

// Export writes content to dir/name and returns the final path. On any
// failure, including cancellation, the temp file is removed and an existing
// report at the target path is left untouched.
func (e *Exporter) Export(ctx context.Context, name string, content []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(e.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	target := filepath.Join(e.dir, name)
	tmp, err := os.CreateTemp(e.dir, "."+name+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create temp report: %w", err)
	}
	tmpPath := tmp.Name()

	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			if rmErr := os.Remove(tmpPath); rmErr != nil && !os.IsNotExist(rmErr) {
				e.log.Warn().Err(rmErr).Str("path", tmpPath).Msg("Failed to remove temp report")
			}
		}
	}()

	for off := 0; off < len(content); off += chunkSize {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		end := min(off+chunkSize, len(content))
		if _, err := tmp.Write(content[off:end]); err != nil {
			return "", fmt.Errorf("failed to write report: %w", err)
		}
	}
	if err := tmp.Sync(); err != nil {
		return "", fmt.Errorf("failed to sync report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close report: %w", err)
	}

	if e.afterWrite != nil {
		e.afterWrite()
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if err := os.Rename(tmpPath, target); err != nil {
		return "", fmt.Errorf("failed to move report into place: %w", err)
	}
	committed = true

	e.log.Info().Str("path", target).Int("bytes", len(content)).Msg("Report exported")

	if e.uploader != nil {
		if err := e.uploader.Upload(ctx, name, bytes.NewReader(content)); err != nil {
			// The local export stands; remote copy is best effort.
			e.log.Warn().Err(err).Str("name", name).Msg("Report upload failed")
		}
	}
	return target, nil
}
