// Package parser extracts frontmatter, wikilinks, embeds and tags from
// Markdown notes.
package parser

import (
	"bytes"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	// ![[target]] or ![[target|size]]
	embedRe = regexp.MustCompile(`!\[\[([^\]\n]+?)\]\]`)
	// [[target]] not preceded by '!'
	wikilinkRe = regexp.MustCompile(`(^|[^!])\[\[([^\]\n]+?)\]\]`)
	tagRe      = regexp.MustCompile(`(?:^|\s)#([A-Za-z][A-Za-z0-9_/-]*)`)
)

// Note holds the output of parsing a Markdown note.
type Note struct {
	Frontmatter map[string]any
	Body        string
	Title       string
	Tags        []string
	Links       []string
	Embeds      []string
}

// Parse splits frontmatter from the body and collects metadata. Invalid
// frontmatter is treated as part of the body.
func Parse(data []byte) *Note {
	fm, body := splitFrontmatter(data)
	return &Note{
		Frontmatter: fm,
		Body:        body,
		Title:       deriveTitle(fm, body),
		Tags:        extractTags(body, fm),
		Links:       extractLinks(body),
		Embeds:      Embeds(body),
	}
}

// Embeds returns the targets of ![[...]] embeds in order of appearance,
// with any "|alias" or "#heading" suffix removed.
func Embeds(body string) []string {
	var out []string
	for _, m := range embedRe.FindAllStringSubmatch(body, -1) {
		if target := linkTarget(m[1]); target != "" {
			out = append(out, target)
		}
	}
	return out
}

// RewriteEmbeds replaces ![[target]] embeds with standard Markdown images
// whose destination is produced by dest.
func RewriteEmbeds(body string, dest func(target string) string) string {
	return embedRe.ReplaceAllStringFunc(body, func(m string) string {
		sub := embedRe.FindStringSubmatch(m)
		target := linkTarget(sub[1])
		if target == "" {
			return m
		}
		return "![" + target + "](" + dest(target) + ")"
	})
}

func splitFrontmatter(data []byte) (map[string]any, string) {
	const delim = "---"
	trimmed := bytes.TrimLeft(data, "\n\r")
	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, string(data)
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return nil, string(data)
	}

	var fm map[string]any
	if err := yaml.Unmarshal(rest[:idx], &fm); err != nil {
		return nil, string(data)
	}
	body := strings.TrimLeft(string(rest[idx+1+len(delim):]), "\n\r")
	return fm, body
}

// linkTarget strips an alias and a heading or block reference from the
// inside of [[...]].
func linkTarget(raw string) string {
	if i := strings.IndexAny(raw, "|#^"); i >= 0 {
		raw = raw[:i]
	}
	return strings.TrimSpace(raw)
}

func extractLinks(body string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, m := range wikilinkRe.FindAllStringSubmatch(body, -1) {
		target := linkTarget(m[2])
		if target == "" {
			continue
		}
		if _, ok := seen[target]; ok {
			continue
		}
		seen[target] = struct{}{}
		out = append(out, target)
	}
	return out
}

func extractTags(body string, fm map[string]any) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(tag string) {
		tag = strings.TrimPrefix(strings.TrimSpace(tag), "#")
		if tag == "" {
			return
		}
		if _, dup := seen[tag]; dup {
			return
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}

	switch v := fm["tags"].(type) {
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				add(s)
			}
		}
	case string:
		for _, s := range strings.Split(v, ",") {
			add(s)
		}
	}

	for _, m := range tagRe.FindAllStringSubmatch(stripCode(body), -1) {
		add(m[1])
	}
	return out
}

// stripCode blanks fenced code blocks so that "#include" and similar lines
// are not read as tags.
func stripCode(body string) string {
	var b strings.Builder
	inFence := false
	for _, line := range strings.Split(body, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			inFence = !inFence
			b.WriteString("\n")
			continue
		}
		if !inFence {
			b.WriteString(line)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// deriveTitle returns the frontmatter title, else the first H1 heading.
func deriveTitle(fm map[string]any, body string) string {
	if s, ok := fm["title"].(string); ok && s != "" {
		return s
	}
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return ""
}
