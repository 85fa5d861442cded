package confluenceconfig

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/consync/consync/internal/convert"
	"github.com/consync/consync/internal/document"
	"github.com/consync/consync/internal/hierarchy"
	"github.com/consync/consync/internal/plan"
)

// ProjectConfig is the project-level settings surface of spec §6, loaded
// from a YAML file at the content root (by convention `.consync.yml`).
// Every field maps to one of the recognised configuration options; unknown
// top-level keys are tolerated on read (same spirit as the state file's
// "unknown keys must be tolerated" rule), but never round-tripped.
type ProjectConfig struct {
	Space struct {
		Key           string `yaml:"key"`
		RootPageID    string `yaml:"rootPageId"`
		RootPageTitle string `yaml:"rootPageTitle"`
	} `yaml:"space"`

	Content struct {
		TitleSource string `yaml:"titleSource"`
		TOC         struct {
			Enabled  bool   `yaml:"enabled"`
			Depth    int    `yaml:"depth"`
			Position string `yaml:"position"`
		} `yaml:"toc"`
		Frontmatter struct {
			Strip    *bool `yaml:"strip"`
			UseTitle bool  `yaml:"useTitle"`
		} `yaml:"frontmatter"`
	} `yaml:"content"`

	Sync struct {
		DeleteOrphans   bool   `yaml:"deleteOrphans"`
		UpdateUnchanged bool   `yaml:"updateUnchanged"`
		StateFile       string `yaml:"stateFile"`
		StateBackend    string `yaml:"stateBackend"`
	} `yaml:"sync"`

	Files struct {
		IndexFile string `yaml:"indexFile"`
	} `yaml:"files"`

	Confluence struct {
		TimeoutSeconds int `yaml:"timeout"`
		RetryCount     int `yaml:"retryCount"`
	} `yaml:"confluence"`
}

// LoadProjectConfig reads and parses a YAML project config file. A missing
// file is not an error — it returns the zero-value ProjectConfig, which
// normalized() fills with the same defaults the underlying components use
// on their own when given an empty Config/Options struct.
func LoadProjectConfig(path string) (ProjectConfig, error) {
	var cfg ProjectConfig
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg.normalized(), nil
		}
		return ProjectConfig{}, fmt.Errorf("confluenceconfig: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return ProjectConfig{}, fmt.Errorf("confluenceconfig: parse %s: %w", path, err)
	}
	return cfg.normalized(), nil
}

func (c ProjectConfig) normalized() ProjectConfig {
	if c.Content.TitleSource == "" {
		c.Content.TitleSource = string(document.TitleSourceFrontmatter)
	}
	if c.Content.TOC.Depth <= 0 {
		c.Content.TOC.Depth = 6
	}
	if c.Content.TOC.Position == "" {
		c.Content.TOC.Position = string(convert.TOCNone)
	}
	if c.Content.Frontmatter.Strip == nil {
		strip := true
		c.Content.Frontmatter.Strip = &strip
	}
	if c.Sync.StateFile == "" {
		c.Sync.StateFile = "" // empty means state.DefaultStateFileName, resolved by the caller
	}
	if c.Sync.StateBackend == "" {
		c.Sync.StateBackend = "json"
	}
	if c.Files.IndexFile == "" {
		c.Files.IndexFile = "index.md"
	}
	if c.Confluence.TimeoutSeconds <= 0 {
		c.Confluence.TimeoutSeconds = 30
	}
	if c.Confluence.RetryCount <= 0 {
		c.Confluence.RetryCount = 3
	}
	return c
}

// Timeout returns the configured per-request timeout as a time.Duration.
func (c ProjectConfig) Timeout() time.Duration {
	return time.Duration(c.Confluence.TimeoutSeconds) * time.Second
}

// DocumentParseConfig projects the content.* settings onto C1's ParseConfig.
func (c ProjectConfig) DocumentParseConfig() document.ParseConfig {
	return document.ParseConfig{
		IndexFileName: c.Files.IndexFile,
		TitleSource:   document.TitleSource(c.Content.TitleSource),
	}
}

// HierarchyBuildConfig projects the files.* settings onto C2's BuildConfig.
func (c ProjectConfig) HierarchyBuildConfig() hierarchy.BuildConfig {
	return hierarchy.BuildConfig{
		IndexFileName: c.Files.IndexFile,
	}
}

// ConvertConfig projects the content.toc.* and content.frontmatter.*
// settings onto C5's Config.
func (c ProjectConfig) ConvertConfig() convert.Config {
	position := convert.TOCNone
	if c.Content.TOC.Enabled {
		position = convert.TOCPosition(c.Content.TOC.Position)
		if position == convert.TOCNone {
			position = convert.TOCBottom
		}
	}
	strip := c.Content.Frontmatter.Strip == nil || *c.Content.Frontmatter.Strip
	return convert.Config{
		TOCPosition:     position,
		TOCMaxLevel:     c.Content.TOC.Depth,
		KeepFrontmatter: !strip,
	}
}

// DiffOptions projects the sync.* settings onto C7's DiffOptions. rootPageID
// is resolved separately (space.rootPageTitle requires a remote lookup) and
// force is a per-invocation CLI flag, not a stored project setting.
func (c ProjectConfig) DiffOptions(rootPageID string, force bool, convertCfg convert.Config) plan.DiffOptions {
	return plan.DiffOptions{
		RootPageID:    rootPageID,
		Force:         force || c.Sync.UpdateUnchanged,
		DeleteOrphans: c.Sync.DeleteOrphans,
		Convert:       convertCfg,
	}
}

// StateFilePath returns the effective state file path given the content
// root, honoring sync.stateFile when set.
func (c ProjectConfig) StateFilePath(contentRoot, defaultName string) string {
	if c.Sync.StateFile != "" {
		return c.Sync.StateFile
	}
	if contentRoot == "" {
		return defaultName
	}
	return contentRoot + "/" + defaultName
}
