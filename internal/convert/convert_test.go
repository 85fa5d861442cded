package convert

import (
	"strings"
	"testing"

	"github.com/consync/consync/internal/document"
)

func parseDoc(t *testing.T, raw string) document.Document {
	t.Helper()
	d, err := document.Parse([]string{"page.md"}, "/root/page.md", []byte(raw), document.ParseConfig{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return d
}

func TestConvert_HeadingsAndParagraphs(t *testing.T) {
	doc := parseDoc(t, "# Title\n\nSome **bold** and *italic* and `code`.\n")
	out, err := Convert(doc, nil, Config{})
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"<h1>Title</h1>", "<p>Some <strong>bold</strong> and <em>italic</em> and <code>code</code>.</p>"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got %q", want, out)
		}
	}
}

func TestConvert_TightListHasNoParagraphWrapper(t *testing.T) {
	doc := parseDoc(t, "- one\n- two\n")
	out, err := Convert(doc, nil, Config{})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out, "<p>") {
		t.Errorf("expected no <p> wrapper in tight list, got %q", out)
	}
	if !strings.Contains(out, "<ul><li>one</li><li>two</li></ul>") {
		t.Errorf("unexpected list rendering: %q", out)
	}
}

func TestConvert_FencedCodeBlockEmitsMacro(t *testing.T) {
	doc := parseDoc(t, "```py\nprint(1)\n```\n")
	out, err := Convert(doc, nil, Config{})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, `ac:name="code"`) || !strings.Contains(out, `>python<`) || !strings.Contains(out, "print(1)") {
		t.Errorf("expected python code macro, got %q", out)
	}
}

func TestConvert_ExternalLink(t *testing.T) {
	doc := parseDoc(t, "[site](https://example.test/page)\n")
	out, err := Convert(doc, nil, Config{})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, `<a href="https://example.test/page">site</a>`) {
		t.Errorf("unexpected external link rendering: %q", out)
	}
}

func TestConvert_InternalLinkResolved(t *testing.T) {
	doc := parseDoc(t, "[guide](other.md)\n")
	resolver := func(basename string) (LinkTarget, bool) {
		if basename == "other" {
			return LinkTarget{ContentTitle: "Other Page"}, true
		}
		return LinkTarget{}, false
	}
	out, err := Convert(doc, resolver, Config{})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, `ri:content-title="Other Page"`) {
		t.Errorf("expected ac:link to Other Page, got %q", out)
	}
}

func TestConvert_InternalLinkUnresolvedFallsBackToExternalForm(t *testing.T) {
	doc := parseDoc(t, "[missing](other.md)\n")
	resolver := func(basename string) (LinkTarget, bool) { return LinkTarget{}, false }
	out, err := Convert(doc, resolver, Config{})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, `<a href="other.md">missing</a>`) {
		t.Errorf("expected external-link fallback, got %q", out)
	}
}

func TestConvert_ImagesExternalAndLocal(t *testing.T) {
	doc := parseDoc(t, "![alt](https://x.test/a.png)\n\n![diagram](./assets/diagram.png)\n")
	out, err := Convert(doc, nil, Config{})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, `<ri:url ri:value="https://x.test/a.png"/>`) {
		t.Errorf("expected external image, got %q", out)
	}
	if !strings.Contains(out, `<ri:attachment ri:filename="diagram.png"/>`) {
		t.Errorf("expected local attachment image, got %q", out)
	}
}

func TestConvert_TaskList(t *testing.T) {
	doc := parseDoc(t, "- [x] done\n- [ ] todo\n")
	out, err := Convert(doc, nil, Config{})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "<ac:task-list>") {
		t.Errorf("expected task-list wrapper, got %q", out)
	}
	if !strings.Contains(out, "<ac:task-status>complete</ac:task-status>") || !strings.Contains(out, "<ac:task-status>incomplete</ac:task-status>") {
		t.Errorf("expected complete/incomplete task statuses, got %q", out)
	}
}

func TestConvert_TOCInjection(t *testing.T) {
	doc := parseDoc(t, "# Title\n\nbody\n")
	out, err := Convert(doc, nil, Config{TOCPosition: TOCTop, TOCMaxLevel: 2})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "<ac:structured-macro ac:name=\"toc\">") {
		t.Errorf("expected toc macro prefix, got %q", out)
	}
	if !strings.Contains(out, `ac:name="maxLevel"`) {
		t.Errorf("expected maxLevel parameter, got %q", out)
	}
}

func TestConvert_ThematicBreakAndBlockquote(t *testing.T) {
	doc := parseDoc(t, "> quoted\n\n---\n")
	out, err := Convert(doc, nil, Config{})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "<blockquote>") || !strings.Contains(out, "<hr/>") {
		t.Errorf("unexpected rendering: %q", out)
	}
}

func TestConvert_Table(t *testing.T) {
	doc := parseDoc(t, "| A | B |\n|---|---|\n| 1 | 2 |\n")
	out, err := Convert(doc, nil, Config{})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "<table><tr><th>A</th><th>B</th></tr><tr><td>1</td><td>2</td></tr></table>") {
		t.Errorf("unexpected table rendering: %q", out)
	}
}

func TestConvert_KeepFrontmatterRendersCodeMacro(t *testing.T) {
	doc := parseDoc(t, "---\ntitle: Setup\nweight: 2\n---\n# Setup\n")
	out, err := Convert(doc, nil, Config{KeepFrontmatter: true})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, `ac:name="code"`) || !strings.Contains(out, "title: Setup") {
		t.Errorf("expected frontmatter rendered as a code macro, got %q", out)
	}
}

func TestConvert_DropsFrontmatterByDefault(t *testing.T) {
	doc := parseDoc(t, "---\ntitle: Setup\n---\n# Setup\n")
	out, err := Convert(doc, nil, Config{})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out, "title: Setup") {
		t.Errorf("expected frontmatter stripped by default, got %q", out)
	}
}

func TestIsInternalLink(t *testing.T) {
	cases := map[string]bool{
		"https://x.test":  false,
		"#frag":           false,
		"mailto:a@b.test": false,
		"other.md":        true,
		"other":           true,
		"image.png":       false,
		"dir/page.md#h1":  true,
	}
	for href, want := range cases {
		if got := isInternalLink(href); got != want {
			t.Errorf("isInternalLink(%q) = %v, want %v", href, got, want)
		}
	}
}
