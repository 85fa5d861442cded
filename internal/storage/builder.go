// Package storage emits Confluence Storage Format XHTML: the append-only
// writer the converter (C5) drives one node at a time.
package storage

import (
	"bytes"
	"strings"
	"sync"
)

// Attr is a single XHTML attribute name/value pair.
type Attr struct {
	Name  string
	Value string
}

// Builder accumulates Storage Format markup. It never re-reads what it has
// already written, matching the single-pass visitor that drives it.
type Builder struct {
	buf bytes.Buffer
}

// New returns an empty Builder.
func New() *Builder {
	return &Builder{}
}

// OpenTag writes an opening tag, escaping attribute values.
func (b *Builder) OpenTag(name string, attrs ...Attr) *Builder {
	b.buf.WriteByte('<')
	b.buf.WriteString(name)
	for _, a := range attrs {
		b.buf.WriteByte(' ')
		b.buf.WriteString(a.Name)
		b.buf.WriteString(`="`)
		b.buf.WriteString(escapeAttr(a.Value))
		b.buf.WriteByte('"')
	}
	b.buf.WriteByte('>')
	return b
}

// SelfClose writes a self-closing tag, e.g. <br/> or <hr/>.
func (b *Builder) SelfClose(name string, attrs ...Attr) *Builder {
	b.buf.WriteByte('<')
	b.buf.WriteString(name)
	for _, a := range attrs {
		b.buf.WriteByte(' ')
		b.buf.WriteString(a.Name)
		b.buf.WriteString(`="`)
		b.buf.WriteString(escapeAttr(a.Value))
		b.buf.WriteByte('"')
	}
	b.buf.WriteString("/>")
	return b
}

// CloseTag writes a closing tag.
func (b *Builder) CloseTag(name string) *Builder {
	b.buf.WriteString("</")
	b.buf.WriteString(name)
	b.buf.WriteByte('>')
	return b
}

// WriteAnchor writes a complete <a href="...">text</a> element. text is
// escaped; href is escaped as an attribute value.
func (b *Builder) WriteAnchor(href, text string, attrs ...Attr) *Builder {
	all := append([]Attr{{Name: "href", Value: href}}, attrs...)
	b.OpenTag("a", all...)
	b.WriteText(text)
	b.CloseTag("a")
	return b
}

// WriteText appends XML-escaped text content.
func (b *Builder) WriteText(s string) *Builder {
	b.buf.WriteString(escapeText(s))
	return b
}

var cdataBufPool = sync.Pool{
	New: func() any { return new(bytes.Buffer) },
}

// WriteCDATA writes s inside a CDATA section, splitting any embedded "]]>"
// sequence across adjacent CDATA sections so it cannot terminate the block
// early.
func (b *Builder) WriteCDATA(s []byte) *Builder {
	buf := cdataBufPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer cdataBufPool.Put(buf)

	buf.WriteString("<![CDATA[")
	remaining := s
	for {
		idx := bytes.Index(remaining, []byte("]]>"))
		if idx < 0 {
			buf.Write(remaining)
			break
		}
		buf.Write(remaining[:idx+2])
		buf.WriteString("]]><![CDATA[>")
		remaining = remaining[idx+3:]
	}
	buf.WriteString("]]>")
	b.buf.Write(buf.Bytes())
	return b
}

// WriteRaw appends s without any escaping. Used for Builder-assembled
// macro fragments and raw HTML passthrough blocks, never for user text.
func (b *Builder) WriteRaw(s string) *Builder {
	b.buf.WriteString(s)
	return b
}

// String returns the accumulated markup.
func (b *Builder) String() string {
	return b.buf.String()
}

// Bytes returns the accumulated markup as a byte slice.
func (b *Builder) Bytes() []byte {
	return b.buf.Bytes()
}

func escapeText(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch r {
		case '&':
			sb.WriteString("&amp;")
		case '<':
			sb.WriteString("&lt;")
		case '>':
			sb.WriteString("&gt;")
		case '"':
			sb.WriteString("&quot;")
		case '\'':
			sb.WriteString("&#39;")
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

func escapeAttr(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch r {
		case '&':
			sb.WriteString("&amp;")
		case '<':
			sb.WriteString("&lt;")
		case '>':
			sb.WriteString("&gt;")
		case '"':
			sb.WriteString("&quot;")
		case '\'':
			sb.WriteString("&#39;")
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// StructuredMacro writes a complete ac:structured-macro element with one
// ac:parameter per params entry (in map iteration order) and a CDATA
// plain-text-body — the shape used for Confluence's "code" macro.
func (b *Builder) StructuredMacro(name string, params map[string]string, body []byte) *Builder {
	b.OpenTag("ac:structured-macro", Attr{Name: "ac:name", Value: name})
	for k, v := range params {
		b.OpenTag("ac:parameter", Attr{Name: "ac:name", Value: k})
		b.WriteText(v)
		b.CloseTag("ac:parameter")
	}
	b.OpenTag("ac:plain-text-body")
	b.WriteCDATA(body)
	b.CloseTag("ac:plain-text-body")
	b.CloseTag("ac:structured-macro")
	return b
}

// StructuredMacroParams writes an ac:structured-macro element carrying only
// named parameters and no body — the shape used for Confluence's "toc"
// macro.
func (b *Builder) StructuredMacroParams(name string, params map[string]string) *Builder {
	b.OpenTag("ac:structured-macro", Attr{Name: "ac:name", Value: name})
	for k, v := range params {
		b.OpenTag("ac:parameter", Attr{Name: "ac:name", Value: k})
		b.WriteText(v)
		b.CloseTag("ac:parameter")
	}
	b.CloseTag("ac:structured-macro")
	return b
}

// ImageElement writes an ac:image element wrapping either a ri:url (for
// an externally hosted image) or a ri:attachment (for an image resolved to
// a local attachment uploaded alongside the page).
func (b *Builder) ImageElement(alt string, external bool, ref string) *Builder {
	attrs := []Attr{}
	if alt != "" {
		attrs = append(attrs, Attr{Name: "ac:alt", Value: alt})
	}
	b.OpenTag("ac:image", attrs...)
	if external {
		b.SelfClose("ri:url", Attr{Name: "ri:value", Value: ref})
	} else {
		b.SelfClose("ri:attachment", Attr{Name: "ri:filename", Value: ref})
	}
	b.CloseTag("ac:image")
	return b
}
