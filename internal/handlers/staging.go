package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/vidtube/backend/internal/logging"
)

const maxUploadBytes = 512 << 20 // per-request multipart memory+disk cap

// stageFormFile copies an uploaded multipart file into local staging and
// returns its path, or "" when the field is absent. Staged files are
// removed on every exit path of the request, whichever phase fails, via
// cleanupStaged or the saga executor (whichever runs last wins; removal is
// idempotent).
func stageFormFile(r *http.Request, field string) (string, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return "", nil
		}
		return "", fmt.Errorf("read form file %s: %w", field, err)
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	staged, err := os.CreateTemp("", "vidtube-upload-*"+ext)
	if err != nil {
		return "", fmt.Errorf("create staging file: %w", err)
	}

	if _, err := io.Copy(staged, file); err != nil {
		staged.Close()
		os.Remove(staged.Name())
		return "", fmt.Errorf("stage upload %s: %w", field, err)
	}

	if err := staged.Close(); err != nil {
		os.Remove(staged.Name())
		return "", fmt.Errorf("close staging file: %w", err)
	}

	return staged.Name(), nil
}

// cleanupStaged removes staged files, tolerating paths the saga already
// deleted.
func cleanupStaged(r *http.Request, paths ...string) {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			logging.FromContext(r.Context()).Warn("remove staged file", "path", p, "error", err)
		}
	}
}
