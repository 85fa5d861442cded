package storage

import (
	"strings"
	"testing"
)

func TestBuilder_TextEscaping(t *testing.T) {
	b := New()
	b.OpenTag("p").WriteText(`<script>alert("x & y")</script>`).CloseTag("p")
	got := b.String()
	want := `<p>&lt;script&gt;alert(&quot;x &amp; y&quot;)&lt;/script&gt;</p>`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestBuilder_AttrEscaping(t *testing.T) {
	b := New()
	b.WriteAnchor(`https://x.test/?a=1&b="2"`, "link")
	got := b.String()
	if !strings.Contains(got, `&amp;b=&quot;2&quot;`) {
		t.Errorf("expected escaped href attribute, got %q", got)
	}
}

func TestBuilder_CDATASplitsEmbeddedTerminator(t *testing.T) {
	b := New()
	b.WriteCDATA([]byte("before ]]> after"))
	got := b.String()
	if strings.Count(got, "]]>") < 2 {
		t.Errorf("expected embedded terminator to be split across sections, got %q", got)
	}
	if !strings.HasPrefix(got, "<![CDATA[") {
		t.Errorf("expected leading CDATA open, got %q", got)
	}
}

func TestBuilder_StructuredMacro(t *testing.T) {
	b := New()
	b.StructuredMacro("code", map[string]string{"language": "go"}, []byte("fmt.Println(1)"))
	got := b.String()
	for _, want := range []string{
		`<ac:structured-macro ac:name="code">`,
		`<ac:parameter ac:name="language">go</ac:parameter>`,
		`<ac:plain-text-body><![CDATA[fmt.Println(1)]]></ac:plain-text-body>`,
		`</ac:structured-macro>`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("expected macro output to contain %q, got %q", want, got)
		}
	}
}

func TestBuilder_ImageElement(t *testing.T) {
	external := New()
	external.ImageElement("alt text", true, "https://x.test/a.png")
	if !strings.Contains(external.String(), `<ri:url ri:value="https://x.test/a.png"/>`) {
		t.Errorf("external image missing ri:url, got %q", external.String())
	}

	local := New()
	local.ImageElement("", false, "diagram.png")
	if !strings.Contains(local.String(), `<ri:attachment ri:filename="diagram.png"/>`) {
		t.Errorf("local image missing ri:attachment, got %q", local.String())
	}
}
