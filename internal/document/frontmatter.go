package document

import (
	"strings"
)

// Frontmatter holds the recognised YAML frontmatter fields plus any custom
// keys a document carries. Custom keys are retained in Extra so the
// hierarchy and converter layers never lose author-supplied metadata.
type Frontmatter struct {
	Title        string         `yaml:"title,omitempty"`
	Description  string         `yaml:"description,omitempty"`
	Tags         TagList        `yaml:"tags,omitempty"`
	Author       string         `yaml:"author,omitempty"`
	Date         string         `yaml:"date,omitempty"`
	Weight       int            `yaml:"weight,omitempty"`
	Nav          *bool          `yaml:"nav,omitempty"`
	ConfluenceID string         `yaml:"confluence_id,omitempty"`
	Parent       string         `yaml:"parent,omitempty"`
	Extra        map[string]any `yaml:",inline"`
}

// NavEnabled reports the effective nav flag, defaulting to true when unset.
func (f Frontmatter) NavEnabled() bool {
	if f.Nav == nil {
		return true
	}
	return *f.Nav
}

// TagList accepts either a YAML sequence of strings or a single
// comma-separated string, matching the flexibility Markdown authors expect
// from static-site frontmatter.
type TagList []string

// UnmarshalYAML implements custom decoding for the list-or-comma-string shape.
func (t *TagList) UnmarshalYAML(unmarshal func(any) error) error {
	var asList []string
	if err := unmarshal(&asList); err == nil {
		*t = asList
		return nil
	}

	var asString string
	if err := unmarshal(&asString); err != nil {
		return err
	}
	if strings.TrimSpace(asString) == "" {
		*t = nil
		return nil
	}
	parts := strings.Split(asString, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	*t = out
	return nil
}
