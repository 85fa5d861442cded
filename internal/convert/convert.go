// Package convert walks a parsed CommonMark AST and emits Confluence
// Storage Format via internal/storage — the visitor half of the Converter
// component (C5).
package convert

import (
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/yuin/goldmark/ast"
	east "github.com/yuin/goldmark/extension/ast"

	"github.com/consync/consync/internal/document"
	"github.com/consync/consync/internal/storage"
)

// TOCPosition selects where (if anywhere) a table-of-contents macro is
// injected relative to the converted body.
type TOCPosition string

const (
	TOCNone   TOCPosition = "none"
	TOCTop    TOCPosition = "top"
	TOCBottom TOCPosition = "bottom"
)

// LinkTarget is what a LinkResolver hands back for a resolvable internal
// link: enough to build an ac:link macro without the converter needing to
// know anything about the hierarchy tree itself.
type LinkTarget struct {
	ContentTitle string
	SpaceKey     string // empty means "current space", ri:page omits ri:space-key
	Anchor       string
}

// LinkResolver resolves the basename of an internal Markdown link (sans
// fragment, sans extension, sans parent directories) to a page title in the
// target space. Injected by the caller so this package never imports
// internal/hierarchy.
type LinkResolver func(basename string) (LinkTarget, bool)

// Config configures one Convert call (spec §6 content.toc.* and
// content.frontmatter.* keys).
type Config struct {
	TOCPosition TOCPosition
	TOCMaxLevel int

	// KeepFrontmatter, when true, renders the document's raw frontmatter
	// block back into the page as a visible code macro instead of
	// discarding it (content.frontmatter.strip=false).
	KeepFrontmatter bool
}

func (c Config) normalized() Config {
	if c.TOCMaxLevel <= 0 {
		c.TOCMaxLevel = 6
	}
	return c
}

// Convert renders doc's body to a Confluence Storage Format string.
func Convert(doc document.Document, resolve LinkResolver, cfg Config) (string, error) {
	cfg = cfg.normalized()
	r := &renderer{
		source:  doc.Body,
		resolve: resolve,
		b:       storage.New(),
	}
	if err := r.renderBody(doc.AST); err != nil {
		return "", fmt.Errorf("convert: %s: %w", doc.PathString(), err)
	}
	body := r.b.String()

	if cfg.KeepFrontmatter && len(doc.RawFrontmatter) > 0 {
		fm := storage.New()
		fm.StructuredMacro("code", map[string]string{"language": "yaml"}, doc.RawFrontmatter)
		body = fm.String() + body
	}

	if cfg.TOCPosition == TOCNone {
		return body, nil
	}

	toc := storage.New()
	toc.StructuredMacroParams("toc", map[string]string{"maxLevel": strconv.Itoa(cfg.TOCMaxLevel)})
	switch cfg.TOCPosition {
	case TOCTop:
		return toc.String() + body, nil
	case TOCBottom:
		return body + toc.String(), nil
	default:
		return body, nil
	}
}

type renderer struct {
	source    []byte
	resolve   LinkResolver
	b         *storage.Builder
	tightList []bool
	taskID    int
}

func (r *renderer) renderBody(doc ast.Node) error {
	var walkErr error
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		status, err := r.visit(n, entering)
		if err != nil {
			walkErr = err
			return ast.WalkStop, err
		}
		return status, nil
	})
	if err != nil {
		return err
	}
	return walkErr
}

func (r *renderer) visit(n ast.Node, entering bool) (ast.WalkStatus, error) {
	switch node := n.(type) {
	case *ast.Document:
		return ast.WalkContinue, nil

	case *ast.Heading:
		if entering {
			r.b.OpenTag(fmt.Sprintf("h%d", node.Level))
		} else {
			r.b.CloseTag(fmt.Sprintf("h%d", node.Level))
		}
		return ast.WalkContinue, nil

	case *ast.Paragraph:
		skip := r.inTightList()
		if entering {
			if !skip {
				r.b.OpenTag("p")
			}
		} else {
			if !skip {
				r.b.CloseTag("p")
			}
		}
		return ast.WalkContinue, nil

	case *ast.TextBlock:
		return ast.WalkContinue, nil

	case *ast.Blockquote:
		if entering {
			r.b.OpenTag("blockquote")
		} else {
			r.b.CloseTag("blockquote")
		}
		return ast.WalkContinue, nil

	case *ast.ThematicBreak:
		if entering {
			r.b.SelfClose("hr")
		}
		return ast.WalkContinue, nil

	case *ast.List:
		if entering {
			if isTaskList(node) {
				r.b.OpenTag("ac:task-list")
				r.tightList = append(r.tightList, false)
			} else {
				tag := "ul"
				if node.IsOrdered() {
					tag = "ol"
				}
				r.b.OpenTag(tag)
				r.tightList = append(r.tightList, node.IsTight)
			}
		} else {
			r.tightList = r.tightList[:len(r.tightList)-1]
			if isTaskList(node) {
				r.b.CloseTag("ac:task-list")
			} else {
				tag := "ul"
				if node.IsOrdered() {
					tag = "ol"
				}
				r.b.CloseTag(tag)
			}
		}
		return ast.WalkContinue, nil

	case *ast.ListItem:
		if parentIsTaskList(node) {
			return r.visitTaskItem(node, entering)
		}
		if entering {
			r.b.OpenTag("li")
		} else {
			r.b.CloseTag("li")
		}
		return ast.WalkContinue, nil

	case *ast.CodeBlock:
		if entering {
			r.writeCodeMacro("", node.Lines().Value(r.source))
		}
		return ast.WalkSkipChildren, nil

	case *ast.FencedCodeBlock:
		if entering {
			r.writeCodeMacro(string(node.Language(r.source)), node.Lines().Value(r.source))
		}
		return ast.WalkSkipChildren, nil

	case *ast.HTMLBlock:
		if entering {
			r.writeHTMLBlock(node)
		}
		return ast.WalkSkipChildren, nil

	case *ast.RawHTML:
		if entering {
			r.writeRawHTML(node)
		}
		return ast.WalkSkipChildren, nil

	case *ast.Emphasis:
		tag := "em"
		if node.Level == 2 {
			tag = "strong"
		}
		if entering {
			r.b.OpenTag(tag)
		} else {
			r.b.CloseTag(tag)
		}
		return ast.WalkContinue, nil

	case *ast.CodeSpan:
		if entering {
			r.b.OpenTag("code")
		} else {
			r.b.CloseTag("code")
		}
		return ast.WalkContinue, nil

	case *east.Strikethrough:
		if entering {
			r.b.OpenTag("span", storage.Attr{Name: "style", Value: "text-decoration: line-through;"})
		} else {
			r.b.CloseTag("span")
		}
		return ast.WalkContinue, nil

	case *ast.Link:
		if entering {
			r.writeLink(string(node.Destination), node.Text(r.source))
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil

	case *ast.AutoLink:
		if entering {
			label := string(node.Label(r.source))
			r.writeLink(label, []byte(label))
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil

	case *ast.Image:
		if entering {
			r.writeImage(string(node.Destination), string(node.Text(r.source)))
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil

	case *east.Table:
		if entering {
			r.b.OpenTag("table")
		} else {
			r.b.CloseTag("table")
		}
		return ast.WalkContinue, nil

	case *east.TableHeader:
		if entering {
			r.b.OpenTag("tr")
		} else {
			r.b.CloseTag("tr")
		}
		return ast.WalkContinue, nil

	case *east.TableRow:
		if entering {
			r.b.OpenTag("tr")
		} else {
			r.b.CloseTag("tr")
		}
		return ast.WalkContinue, nil

	case *east.TableCell:
		tag := "td"
		if _, parentIsHeader := node.Parent().(*east.TableHeader); parentIsHeader {
			tag = "th"
		}
		if entering {
			r.b.OpenTag(tag)
		} else {
			r.b.CloseTag(tag)
		}
		return ast.WalkContinue, nil

	case *east.TaskCheckBox:
		// handled directly by visitTaskItem; nothing to render inline.
		return ast.WalkSkipChildren, nil

	case *ast.Text:
		if entering {
			r.b.WriteText(string(node.Segment.Value(r.source)))
			if node.HardLineBreak() {
				r.b.SelfClose("br")
			} else if node.SoftLineBreak() {
				r.b.WriteText(" ")
			}
		}
		return ast.WalkContinue, nil

	case *ast.String:
		if entering {
			r.b.WriteText(string(node.Value))
		}
		return ast.WalkContinue, nil

	default:
		return ast.WalkContinue, nil
	}
}

func (r *renderer) inTightList() bool {
	if len(r.tightList) == 0 {
		return false
	}
	return r.tightList[len(r.tightList)-1]
}

func isTaskList(l *ast.List) bool {
	for c := l.FirstChild(); c != nil; c = c.NextSibling() {
		item, ok := c.(*ast.ListItem)
		if !ok {
			continue
		}
		if itemHasCheckbox(item) {
			return true
		}
	}
	return false
}

func parentIsTaskList(item *ast.ListItem) bool {
	l, ok := item.Parent().(*ast.List)
	if !ok {
		return false
	}
	return isTaskList(l)
}

func itemHasCheckbox(item *ast.ListItem) bool {
	for c := item.FirstChild(); c != nil; c = c.NextSibling() {
		for gc := c.FirstChild(); gc != nil; gc = gc.NextSibling() {
			if _, ok := gc.(*east.TaskCheckBox); ok {
				return true
			}
		}
	}
	return false
}

func (r *renderer) visitTaskItem(item *ast.ListItem, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	r.taskID++
	checked := false
	var textParts []string
	for c := item.FirstChild(); c != nil; c = c.NextSibling() {
		for gc := c.FirstChild(); gc != nil; gc = gc.NextSibling() {
			switch node := gc.(type) {
			case *east.TaskCheckBox:
				checked = node.IsChecked
			case *ast.Text:
				textParts = append(textParts, string(node.Segment.Value(r.source)))
			}
		}
	}
	status := "incomplete"
	if checked {
		status = "complete"
	}
	r.b.OpenTag("ac:task")
	r.b.OpenTag("ac:task-id")
	r.b.WriteText(strconv.Itoa(r.taskID))
	r.b.CloseTag("ac:task-id")
	r.b.OpenTag("ac:task-status")
	r.b.WriteText(status)
	r.b.CloseTag("ac:task-status")
	r.b.OpenTag("ac:task-body")
	r.b.WriteText(strings.Join(textParts, ""))
	r.b.CloseTag("ac:task-body")
	r.b.CloseTag("ac:task")
	return ast.WalkSkipChildren, nil
}

func (r *renderer) writeCodeMacro(lang string, content []byte) {
	params := map[string]string{}
	if norm := normalizeLanguage(lang); norm != "" {
		params["language"] = norm
	}
	r.b.StructuredMacro("code", params, content)
}

func (r *renderer) writeHTMLBlock(node *ast.HTMLBlock) {
	var sb strings.Builder
	lines := node.Lines()
	for i := 0; i < lines.Len(); i++ {
		sb.Write(lines.At(i).Value(r.source))
	}
	if node.HasClosure() {
		sb.Write(node.ClosureLine.Value(r.source))
	}
	r.b.WriteRaw(sb.String())
}

func (r *renderer) writeRawHTML(node *ast.RawHTML) {
	var sb strings.Builder
	for i := 0; i < node.Segments.Len(); i++ {
		seg := node.Segments.At(i)
		sb.Write(seg.Value(r.source))
	}
	r.b.WriteRaw(sb.String())
}

// isInternalLink implements the spec's detection rule: not an absolute
// http(s)/mailto URL, not an anchor-only reference, and either ends in .md
// or contains no '.' at all.
func isInternalLink(href string) bool {
	if href == "" || strings.HasPrefix(href, "#") {
		return false
	}
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") || strings.HasPrefix(href, "mailto:") {
		return false
	}
	withoutFragment := strings.SplitN(href, "#", 2)[0]
	if strings.HasSuffix(withoutFragment, ".md") {
		return true
	}
	return !strings.Contains(withoutFragment, ".")
}

func basenameOf(href string) string {
	withoutFragment := strings.SplitN(href, "#", 2)[0]
	base := path.Base(withoutFragment)
	return strings.TrimSuffix(base, path.Ext(base))
}

func anchorOf(href string) string {
	parts := strings.SplitN(href, "#", 2)
	if len(parts) == 2 {
		return parts[1]
	}
	return ""
}

func (r *renderer) writeLink(href string, text []byte) {
	if !isInternalLink(href) || r.resolve == nil {
		r.b.WriteAnchor(href, string(text))
		return
	}

	target, ok := r.resolve(basenameOf(href))
	if !ok {
		r.b.WriteAnchor(href, string(text))
		return
	}

	r.b.OpenTag("ac:link")
	attrs := []storage.Attr{{Name: "ri:content-title", Value: target.ContentTitle}}
	if target.SpaceKey != "" {
		attrs = append(attrs, storage.Attr{Name: "ri:space-key", Value: target.SpaceKey})
	}
	anchor := anchorOf(href)
	if anchor == "" {
		anchor = target.Anchor
	}
	if anchor != "" {
		attrs = append(attrs, storage.Attr{Name: "ri:anchor", Value: anchor})
	}
	r.b.SelfClose("ri:page", attrs...)
	r.b.OpenTag("ac:plain-text-link-body")
	r.b.WriteCDATA(text)
	r.b.CloseTag("ac:plain-text-link-body")
	r.b.CloseTag("ac:link")
}

func (r *renderer) writeImage(href, alt string) {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		r.b.ImageElement(alt, true, href)
		return
	}
	r.b.ImageElement(alt, false, path.Base(href))
}
