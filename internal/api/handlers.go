package api

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/starford/vaultview/internal/apperr"
	"github.com/starford/vaultview/internal/checksum"
	"github.com/starford/vaultview/internal/models"
	"github.com/starford/vaultview/internal/render"
	"github.com/starford/vaultview/internal/vault"
)

// FileService is the part of the vault service used by the handlers.
type FileService interface {
	BuildTree(ctx context.Context) (*vault.TreeResult, error)
	GetFile(ctx context.Context, rel string) (*vault.File, error)
}

// NoteRenderer converts note content to HTML.
type NoteRenderer interface {
	Render(notePath string, src []byte) (*render.Result, error)
}

// Handler holds API route handlers.
type Handler struct {
	files         FileService
	renderer      NoteRenderer
	logger        *slog.Logger
	exposeDetails bool
}

// NewHandler creates a new Handler. A nil logger falls back to slog.Default.
func NewHandler(files FileService, renderer NoteRenderer, logger *slog.Logger, exposeDetails bool) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{files: files, renderer: renderer, logger: logger, exposeDetails: exposeDetails}
}

// ListFiles handles GET /api/files.
//
//	@Summary		List the vault tree of Markdown notes
//	@Tags			files
//	@Produce		json
//	@Param			warnings	query		bool	false	"Wrap the tree with skipped entries"
//	@Success		200			{array}		FileNode
//	@Failure		500			{object}	errResponse
//	@Router			/files [get]
func (h *Handler) ListFiles(w http.ResponseWriter, r *http.Request) {
	res, err := h.files.BuildTree(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if warnings, _ := strconv.ParseBool(r.URL.Query().Get("warnings")); warnings {
		skipped := res.Skipped
		if skipped == nil {
			skipped = []models.SkippedEntry{}
		}
		h.writeJSON(w, http.StatusOK, TreeResponse{Tree: res.Nodes, Skipped: skipped})
		return
	}
	h.writeJSON(w, http.StatusOK, res.Nodes)
}

// GetFile handles GET /api/file?path=.
//
//	@Summary		Get a Markdown note or an image
//	@Tags			files
//	@Produce		json,image/png,image/jpeg,image/gif,image/svg+xml,image/webp
//	@Param			path	query		string	true	"Vault-relative path"
//	@Success		200		{object}	FileContentResponse
//	@Success		206		{file}		binary
//	@Success		304
//	@Failure		400		{object}	errResponse
//	@Failure		403		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Failure		415		{object}	errResponse
//	@Failure		500		{object}	errResponse
//	@Router			/file [get]
func (h *Handler) GetFile(w http.ResponseWriter, r *http.Request) {
	f, err := h.files.GetFile(r.Context(), r.URL.Query().Get("path"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	defer f.Close()

	switch f.Category {
	case vault.Markdown:
		if notModified(w, r, f.Checksum) {
			return
		}
		h.writeJSON(w, http.StatusOK, FileContentResponse{Content: f.Content})
	case vault.Image:
		h.serveImage(w, r, f)
	default:
		h.writeError(w, r, apperr.UnsupportedType(f.MIME))
	}
}

// RenderNote handles GET /api/render?path=.
//
//	@Summary		Render a Markdown note to HTML
//	@Tags			files
//	@Produce		json
//	@Param			path	query		string	true	"Vault-relative path"
//	@Success		200		{object}	RenderResponse
//	@Success		304
//	@Failure		400		{object}	errResponse
//	@Failure		403		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Failure		415		{object}	errResponse
//	@Failure		500		{object}	errResponse
//	@Router			/render [get]
func (h *Handler) RenderNote(w http.ResponseWriter, r *http.Request) {
	f, err := h.files.GetFile(r.Context(), r.URL.Query().Get("path"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	defer f.Close()

	if f.Category != vault.Markdown {
		h.writeError(w, r, apperr.UnsupportedType(f.MIME))
		return
	}
	if notModified(w, r, f.Checksum) {
		return
	}

	res, err := h.renderer.Render(f.Path, []byte(f.Content))
	if err != nil {
		h.writeError(w, r, apperr.Internal(err))
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}

// serveImage streams an image body. http.ServeContent supplies
// Content-Length, Last-Modified and Range handling.
func (h *Handler) serveImage(w http.ResponseWriter, r *http.Request, f *vault.File) {
	w.Header().Set("Content-Type", f.MIME)
	w.Header().Set("Cache-Control", "public, max-age=31536000")
	w.Header().Set("Content-Security-Policy", "default-src 'none'; style-src 'unsafe-inline'; sandbox")

	body := &trackingReader{ReadSeeker: f.Body}
	http.ServeContent(w, r, f.Name, f.ModTime, body)
	if body.err != nil {
		// Headers are already sent; the client sees a truncated body.
		h.logger.Error("file: stream interrupted",
			slog.String("path", f.Path),
			slog.String("error", body.err.Error()),
		)
	}
}

// notModified sets the ETag for sum and answers 304 when the client's
// If-None-Match matches it.
func notModified(w http.ResponseWriter, r *http.Request, sum string) bool {
	if sum == "" {
		return false
	}
	w.Header().Set("ETag", checksum.ETag(sum))
	w.Header().Set("Cache-Control", "no-cache")
	if checksum.MatchesETag(r.Header.Get("If-None-Match"), sum) {
		w.WriteHeader(http.StatusNotModified)
		return true
	}
	return false
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := errorBody(err, h.exposeDetails)
	switch {
	case errors.Is(err, context.Canceled):
		// Client disconnected.
		h.logger.Debug("request cancelled",
			slog.String("path", r.URL.Query().Get("path")),
			slog.String("url", r.URL.Path),
		)
	case status >= http.StatusInternalServerError:
		h.logger.Error("request failed",
			slog.String("path", r.URL.Query().Get("path")),
			slog.String("kind", body.Kind),
			slog.String("error", err.Error()),
		)
	}
	h.writeJSON(w, status, body)
}

// trackingReader records the first non-EOF read error.
type trackingReader struct {
	io.ReadSeeker
	err error
}

func (t *trackingReader) Read(p []byte) (int, error) {
	n, err := t.ReadSeeker.Read(p)
	if err != nil && err != io.EOF && t.err == nil {
		t.err = err
	}
	return n, err
}
