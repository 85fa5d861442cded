// Package document implements the in-memory Document model: parsing a
// Markdown file plus its frontmatter into an immutable record that the
// hierarchy builder and converter consume.
package document

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"
)

// TitleSource selects how a Document's display title is resolved.
type TitleSource string

const (
	TitleSourceFilename     TitleSource = "filename"
	TitleSourceFrontmatter  TitleSource = "frontmatter"
	TitleSourceFirstHeading TitleSource = "first_heading"
)

// ErrParseFailure indicates a Document could not be parsed and must be
// skipped rather than participate in the sync (spec §7, ParseFailure kind).
var ErrParseFailure = errors.New("document: parse failure")

// Heading is an extracted heading with its computed anchor.
type Heading struct {
	Level  int
	Text   string
	Anchor string
}

// LinkRef is an extracted Markdown link (or autolink).
type LinkRef struct {
	Text string
	Href string
}

// ImageRef is an extracted Markdown image reference.
type ImageRef struct {
	Alt string
	Src string
}

// Document is the immutable in-memory record of one parsed Markdown file.
type Document struct {
	RelPath     []string
	AbsPath     string
	Raw         []byte
	Body        []byte
	Frontmatter Frontmatter
	// RawFrontmatter is the unparsed YAML block, if present, for callers
	// that need to render it back (content.frontmatter.strip=false).
	RawFrontmatter []byte
	Title       string
	Headings    []Heading
	Links       []LinkRef
	Images      []ImageRef
	IsIndex     bool
	Hash        string

	// AST is the parsed goldmark tree for Body, retained so the converter
	// (C5) never re-parses — this is what makes conversion idempotent (P5).
	AST ast.Node
}

// ParseConfig configures parsing behaviour (spec §4.1, §6 content.* keys).
type ParseConfig struct {
	IndexFileName string
	TitleSource   TitleSource
	RootTitle     string
}

func (c ParseConfig) normalized() ParseConfig {
	if c.IndexFileName == "" {
		c.IndexFileName = "index.md"
	}
	if c.TitleSource == "" {
		c.TitleSource = TitleSourceFrontmatter
	}
	if c.RootTitle == "" {
		c.RootTitle = "Home"
	}
	return c
}

var markdownParser = goldmark.New(
	goldmark.WithExtensions(extension.GFM, extension.Table, extension.TaskList, extension.Linkify),
)

// Parse builds a Document from raw file content.
func Parse(relPath []string, absPath string, raw []byte, cfg ParseConfig) (Document, error) {
	cfg = cfg.normalized()
	if len(relPath) == 0 {
		return Document{}, fmt.Errorf("%w: empty relative path", ErrParseFailure)
	}

	hash := sha256.Sum256(raw)

	fmBlock, body, hasFrontmatter := splitFrontmatter(raw)
	var fm Frontmatter
	if hasFrontmatter {
		if err := yaml.Unmarshal(fmBlock, &fm); err != nil {
			return Document{}, fmt.Errorf("%w: invalid frontmatter in %s: %v", ErrParseFailure, absPath, err)
		}
	}
	if fm.Extra == nil {
		fm.Extra = map[string]any{}
	}

	reader := text.NewReader(body)
	doc := markdownParser.Parser().Parse(reader, parser.WithContext(parser.NewContext()))

	headings, links, images := extract(doc, body)

	lastSegment := relPath[len(relPath)-1]
	isIndex := strings.EqualFold(lastSegment, cfg.IndexFileName)

	var rawFM []byte
	if hasFrontmatter {
		rawFM = fmBlock
	}

	d := Document{
		RelPath:        relPath,
		AbsPath:        absPath,
		Raw:            raw,
		Body:           body,
		Frontmatter:    fm,
		RawFrontmatter: rawFM,
		Headings:       headings,
		Links:       links,
		Images:      images,
		IsIndex:     isIndex,
		Hash:        "sha256:" + hex.EncodeToString(hash[:]),
		AST:         doc,
	}
	d.Title = resolveTitle(d, cfg)
	return d, nil
}

// splitFrontmatter separates a leading "---" fenced YAML block (its opening
// fence being the first non-blank line) from the body. If a closing fence
// is never found, the document is treated as having no frontmatter at all
// and the raw bytes are returned unmodified —
// per the spec's Design Notes, an unterminated fence is not an error.
func splitFrontmatter(raw []byte) (block []byte, body []byte, ok bool) {
	content := strings.TrimPrefix(string(raw), string(rune(0xFEFF)))
	lines := strings.SplitAfter(content, "\n")
	start := 0
	for start < len(lines) && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	if start == len(lines) || strings.TrimSpace(lines[start]) != "---" {
		return nil, raw, false
	}

	for i := start + 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			fm := strings.Join(lines[start+1:i], "")
			rest := strings.Join(lines[i+1:], "")
			return []byte(fm), []byte(rest), true
		}
	}
	return nil, raw, false
}

func extract(doc ast.Node, source []byte) ([]Heading, []LinkRef, []ImageRef) {
	var headings []Heading
	var links []LinkRef
	var images []ImageRef

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Heading:
			txt := string(node.Text(source))
			headings = append(headings, Heading{
				Level:  node.Level,
				Text:   txt,
				Anchor: HeadingAnchor(txt),
			})
		case *ast.Link:
			links = append(links, LinkRef{
				Text: string(node.Text(source)),
				Href: string(node.Destination),
			})
		case *ast.AutoLink:
			label := string(node.Label(source))
			links = append(links, LinkRef{Text: label, Href: label})
		case *ast.Image:
			images = append(images, ImageRef{
				Alt: string(node.Text(source)),
				Src: string(node.Destination),
			})
		}
		return ast.WalkContinue, nil
	})
	return headings, links, images
}

func resolveTitle(d Document, cfg ParseConfig) string {
	firstHeading := ""
	for _, h := range d.Headings {
		if h.Level == 1 {
			firstHeading = h.Text
			break
		}
	}
	fmTitle := strings.TrimSpace(d.Frontmatter.Title)
	slug := SlugTitle(d.RelPath, cfg.RootTitle, cfg.IndexFileName)

	switch cfg.TitleSource {
	case TitleSourceFilename:
		return slug
	case TitleSourceFirstHeading:
		if firstHeading != "" {
			return firstHeading
		}
		if fmTitle != "" {
			return fmTitle
		}
		return slug
	case TitleSourceFrontmatter:
		fallthrough
	default:
		if fmTitle != "" {
			return fmTitle
		}
		if firstHeading != "" {
			return firstHeading
		}
		return slug
	}
}

// PathString renders RelPath as a forward-slash joined string, the form
// used as map keys throughout the hierarchy and state layers.
func (d Document) PathString() string {
	return strings.Join(d.RelPath, "/")
}

// DirSegments returns the path segments of the directory containing this
// Document (RelPath without its final element).
func (d Document) DirSegments() []string {
	if len(d.RelPath) == 0 {
		return nil
	}
	return d.RelPath[:len(d.RelPath)-1]
}

// SplitRelPath converts an OS-native relative path into path segments,
// ignoring empty segments from leading/trailing separators.
func SplitRelPath(relOSPath string) []string {
	clean := filepath.ToSlash(filepath.Clean(relOSPath))
	if clean == "." || clean == "" {
		return nil
	}
	parts := strings.Split(clean, "/")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
