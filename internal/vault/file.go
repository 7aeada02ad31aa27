package vault

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/afero"

	"github.com/starford/vaultview/internal/apperr"
	"github.com/starford/vaultview/internal/checksum"
	"github.com/starford/vaultview/internal/storage"
)

// File is the result of GetFile. Markdown files carry their text in
// Content; images carry an open Body that the caller must Close.
type File struct {
	Path     string
	Name     string
	Category Category
	MIME     string
	Size     int64
	ModTime  time.Time

	Content  string
	Checksum string

	Body afero.File
}

// Close releases the open body, if any.
func (f *File) Close() error {
	if f == nil || f.Body == nil {
		return nil
	}
	return f.Body.Close()
}

// GetFile resolves rel inside the vault and returns it according to its
// category. Unsupported files are rejected before their body is opened.
func (s *Service) GetFile(ctx context.Context, rel string) (*File, error) {
	if rel == "" {
		return nil, apperr.BadRequest("file path is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	abs, err := s.store.Resolve(rel)
	if err != nil {
		if errors.Is(err, storage.ErrAccessDenied) {
			s.logger.Warn("file: access denied", slog.String("path", rel))
			return nil, apperr.Forbidden(err)
		}
		return nil, apperr.Internal(err)
	}

	info, err := s.store.Stat(abs)
	if err != nil {
		if storage.IsNotExist(err) {
			return nil, apperr.NotFound(err)
		}
		return nil, apperr.Internal(err)
	}
	if info.IsDir() {
		return nil, apperr.UnsupportedType("inode/directory")
	}

	cleanRel, err := s.store.Rel(abs)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	class := Classify(abs)
	out := &File{
		Path:     cleanRel,
		Name:     path.Base(cleanRel),
		Category: class.Category,
		MIME:     class.MIME,
		Size:     info.Size(),
		ModTime:  info.ModTime(),
	}

	switch class.Category {
	case Markdown:
		data, err := s.store.ReadFile(abs)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		out.Content = strings.ToValidUTF8(string(data), "\uFFFD")
		out.Checksum = checksum.Sum(data)
		out.Size = int64(len(data))
		return out, nil

	case Image:
		body, err := s.openImage(abs)
		if err != nil {
			return nil, err
		}
		// Size and mtime from the open handle, so they describe the bytes
		// that will actually be streamed.
		if st, err := body.Stat(); err == nil {
			out.Size = st.Size()
			out.ModTime = st.ModTime()
		}
		out.Body = body
		return out, nil

	default:
		s.logger.Debug("file: unsupported type", slog.String("path", cleanRel), slog.String("mime", class.MIME))
		return nil, apperr.UnsupportedType(class.MIME)
	}
}

func (s *Service) openImage(abs string) (afero.File, error) {
	body, err := s.store.Open(abs)
	if err != nil {
		if storage.IsNotExist(err) {
			return nil, apperr.NotFound(err)
		}
		return nil, apperr.Internal(err)
	}
	if !s.verifyImages {
		return body, nil
	}

	detected, err := mimetype.DetectReader(body)
	if err != nil {
		_ = body.Close()
		return nil, apperr.Internal(fmt.Errorf("vault: sniff: %w", err))
	}
	if !strings.HasPrefix(detected.String(), "image/") {
		_ = body.Close()
		return nil, apperr.UnsupportedType(detected.String())
	}
	if _, err := body.Seek(0, io.SeekStart); err != nil {
		_ = body.Close()
		return nil, apperr.Internal(fmt.Errorf("vault: rewind: %w", err))
	}
	return body, nil
}
