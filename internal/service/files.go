package service

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"mime/multipart"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	"github.com/mkowalczyk/dsn-service/internal/apperror"
)

// unsafeFilenameChars matches everything we refuse to put in a filename.
// Anything outside letters, digits, dot, dash and underscore becomes "_".
var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9.\-_]`)

// FileInfo describes one stored upload as returned to the client.
type FileInfo struct {
	Filename string    `json:"filename"`
	URL      string    `json:"url"`
	Size     int64     `json:"size"`
	Mtime    time.Time `json:"mtime,omitzero"`
}

// FileService stores uploads on local disk, one directory per username
// under the uploads root. Files are served back by path via the /uploads
// static mount, so the stored name IS the public name.
type FileService struct {
	root   string
	logger *slog.Logger
	now    func() time.Time
}

// NewFileService ensures the uploads root exists and returns a FileService.
func NewFileService(root string, logger *slog.Logger) (*FileService, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("service/files: creating uploads dir %s: %w", root, err)
	}
	return &FileService{
		root:   root,
		logger: logger,
		now:    time.Now,
	}, nil
}

// Root returns the uploads root directory, for the static file mount.
func (s *FileService) Root() string {
	return s.root
}

// Save stores the uploaded parts under the user's directory. Each file is
// renamed to "<millis>_<sanitized original name>" — the timestamp prefix
// avoids collisions and the sanitizer keeps the name shell- and URL-safe.
func (s *FileService) Save(username string, files []*multipart.FileHeader) ([]FileInfo, error) {
	userDir := filepath.Join(s.root, username)
	if err := os.MkdirAll(userDir, 0o755); err != nil {
		return nil, fmt.Errorf("service/files: creating user dir: %w", err)
	}

	out := make([]FileInfo, 0, len(files))
	for _, fh := range files {
		safe := unsafeFilenameChars.ReplaceAllString(filepath.Base(fh.Filename), "_")
		name := strconv.FormatInt(s.now().UnixMilli(), 10) + "_" + safe

		size, err := s.copyUpload(fh, filepath.Join(userDir, name))
		if err != nil {
			return nil, err
		}

		out = append(out, FileInfo{
			Filename: name,
			URL:      uploadURL(username, name),
			Size:     size,
		})
	}

	s.logger.Info("files uploaded",
		slog.String("username", username),
		slog.Int("count", len(out)),
	)
	return out, nil
}

// List returns metadata for the user's uploads. A user who never uploaded
// anything has no directory — that's an empty list, not an error.
func (s *FileService) List(username string) ([]FileInfo, error) {
	userDir := filepath.Join(s.root, username)

	entries, err := os.ReadDir(userDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []FileInfo{}, nil
		}
		return nil, fmt.Errorf("service/files: reading user dir: %w", err)
	}

	out := make([]FileInfo, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, FileInfo{
			Filename: e.Name(),
			URL:      uploadURL(username, e.Name()),
			Size:     info.Size(),
			Mtime:    info.ModTime(),
		})
	}
	return out, nil
}

// Delete removes one of the user's uploads by name.
//
// filepath.Base strips any directory components from the client-supplied
// name, so "../../etc/passwd" cannot escape the user's directory.
func (s *FileService) Delete(username, name string) error {
	name = filepath.Base(name)
	full := filepath.Join(s.root, username, name)

	if _, err := os.Stat(full); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return apperror.NotFound("file", name)
		}
		return fmt.Errorf("service/files: stat %s: %w", name, err)
	}

	if err := os.Remove(full); err != nil {
		return fmt.Errorf("service/files: deleting %s: %w", name, err)
	}

	s.logger.Info("file deleted",
		slog.String("username", username),
		slog.String("file", name),
	)
	return nil
}

func (s *FileService) copyUpload(fh *multipart.FileHeader, dst string) (int64, error) {
	src, err := fh.Open()
	if err != nil {
		return 0, fmt.Errorf("service/files: opening upload %s: %w", fh.Filename, err)
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return 0, fmt.Errorf("service/files: creating %s: %w", dst, err)
	}
	defer out.Close()

	size, err := io.Copy(out, src)
	if err != nil {
		return 0, fmt.Errorf("service/files: writing %s: %w", dst, err)
	}
	return size, nil
}

func uploadURL(username, name string) string {
	return "/uploads/" + url.PathEscape(username) + "/" + url.PathEscape(name)
}
