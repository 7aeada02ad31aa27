// Package render converts vault notes to HTML. Obsidian image embeds and
// relative image references are pointed at the file endpoint so that the
// browser fetches them through the same containment-checked path.
package render

import (
	"bytes"
	"fmt"
	"net/url"
	"path"
	"strings"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	notes "github.com/starford/vaultview/internal/parser"
)

// DefaultFileEndpoint is the URL images are rewritten to.
const DefaultFileEndpoint = "/api/file"

// Result is a rendered note.
type Result struct {
	Path        string         `json:"path"`
	Title       string         `json:"title"`
	HTML        string         `json:"html"`
	Frontmatter map[string]any `json:"frontmatter,omitempty"`
	Tags        []string       `json:"tags"`
	Links       []string       `json:"links"`
}

// Renderer renders Markdown notes. It is safe for concurrent use.
type Renderer struct {
	md           goldmark.Markdown
	fileEndpoint string
}

// Option configures a Renderer.
type Option func(*options)

type options struct {
	fileEndpoint string
	unsafeHTML   bool
}

// WithFileEndpoint sets the endpoint image paths are rewritten to.
func WithFileEndpoint(endpoint string) Option {
	return func(o *options) {
		if endpoint != "" {
			o.fileEndpoint = endpoint
		}
	}
}

// WithUnsafeHTML passes raw HTML in notes through to the output.
func WithUnsafeHTML(enabled bool) Option {
	return func(o *options) {
		o.unsafeHTML = enabled
	}
}

// New creates a Renderer with GFM, typographic quotes, heading IDs and
// class-based syntax highlighting.
func New(opts ...Option) *Renderer {
	o := options{fileEndpoint: DefaultFileEndpoint}
	for _, opt := range opts {
		opt(&o)
	}

	r := &Renderer{fileEndpoint: o.fileEndpoint}

	rendererOpts := []goldmark.Option{}
	if o.unsafeHTML {
		rendererOpts = append(rendererOpts, goldmark.WithRendererOptions(html.WithUnsafe()))
	}

	r.md = goldmark.New(append([]goldmark.Option{
		goldmark.WithExtensions(
			extension.GFM,
			extension.Typographer,
			highlighting.NewHighlighting(
				highlighting.WithFormatOptions(
					chromahtml.WithClasses(true),
				),
			),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
			parser.WithASTTransformers(
				util.Prioritized(&imageRewriter{dest: r.FileURL}, 100),
			),
		),
	}, rendererOpts...)...)

	return r
}

// Render converts the note at notePath with content src to HTML.
func (r *Renderer) Render(notePath string, src []byte) (*Result, error) {
	note := notes.Parse(src)
	body := notes.RewriteEmbeds(note.Body, func(target string) string {
		return "<" + target + ">"
	})

	var buf bytes.Buffer
	if err := r.md.Convert([]byte(body), &buf); err != nil {
		return nil, fmt.Errorf("render: convert %s: %w", notePath, err)
	}

	title := note.Title
	if title == "" {
		title = strings.TrimSuffix(path.Base(notePath), path.Ext(notePath))
	}

	return &Result{
		Path:        notePath,
		Title:       title,
		HTML:        buf.String(),
		Frontmatter: note.Frontmatter,
		Tags:        nonNil(note.Tags),
		Links:       nonNil(note.Links),
	}, nil
}

// FileURL maps an image reference found in a note to a URL served by the
// file endpoint. References with a scheme, absolute paths and fragments
// are returned unchanged. Leading "./" and "../" segments are dropped, so
// the remainder is taken as relative to the vault root.
func (r *Renderer) FileURL(ref string) string {
	if ref == "" || strings.HasPrefix(ref, "/") || strings.HasPrefix(ref, "#") {
		return ref
	}
	if u, err := url.Parse(ref); err == nil && u.Scheme != "" {
		return ref
	}
	for {
		switch {
		case strings.HasPrefix(ref, "./"):
			ref = ref[2:]
		case strings.HasPrefix(ref, "../"):
			ref = ref[3:]
		default:
			return r.fileEndpoint + "?" + url.Values{"path": {ref}}.Encode()
		}
	}
}

// imageRewriter points image destinations at the file endpoint.
type imageRewriter struct {
	dest func(string) string
}

func (t *imageRewriter) Transform(doc *ast.Document, _ text.Reader, _ parser.Context) {
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if img, ok := n.(*ast.Image); ok {
			img.Destination = []byte(t.dest(string(img.Destination)))
		}
		return ast.WalkContinue, nil
	})
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
