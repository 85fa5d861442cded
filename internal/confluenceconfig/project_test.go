package confluenceconfig_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/consync/consync/internal/confluenceconfig"
	"github.com/consync/consync/internal/convert"
	"github.com/consync/consync/internal/document"
)

func TestLoadProjectConfig_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := confluenceconfig.LoadProjectConfig(filepath.Join(t.TempDir(), "missing.yml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Files.IndexFile != "index.md" {
		t.Errorf("expected default index file, got %q", cfg.Files.IndexFile)
	}
	if cfg.Confluence.TimeoutSeconds != 30 {
		t.Errorf("expected default timeout 30, got %d", cfg.Confluence.TimeoutSeconds)
	}
	if cfg.Confluence.RetryCount != 3 {
		t.Errorf("expected default retry count 3, got %d", cfg.Confluence.RetryCount)
	}
	if cfg.Sync.StateBackend != "json" {
		t.Errorf("expected default state backend json, got %q", cfg.Sync.StateBackend)
	}
}

func TestLoadProjectConfig_StateBackendOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "consync.yml")
	if err := os.WriteFile(path, []byte("sync:\n  stateBackend: sqlite\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := confluenceconfig.LoadProjectConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Sync.StateBackend != "sqlite" {
		t.Errorf("expected sqlite backend override, got %q", cfg.Sync.StateBackend)
	}
}

func TestLoadProjectConfig_ParsesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "consync.yml")
	yamlBody := `
space:
  key: DOCS
  rootPageTitle: Documentation
content:
  titleSource: first_heading
  toc:
    enabled: true
    depth: 3
    position: top
  frontmatter:
    strip: false
    useTitle: true
sync:
  deleteOrphans: true
  updateUnchanged: true
  stateFile: custom-state.json
files:
  indexFile: README.md
confluence:
  timeout: 60
  retryCount: 5
`
	if err := os.WriteFile(path, []byte(yamlBody), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := confluenceconfig.LoadProjectConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Space.Key != "DOCS" || cfg.Space.RootPageTitle != "Documentation" {
		t.Errorf("unexpected space config: %+v", cfg.Space)
	}
	if cfg.Content.TitleSource != "first_heading" {
		t.Errorf("unexpected title source: %q", cfg.Content.TitleSource)
	}
	if !cfg.Sync.DeleteOrphans || !cfg.Sync.UpdateUnchanged {
		t.Errorf("expected sync flags enabled: %+v", cfg.Sync)
	}
	if cfg.Sync.StateFile != "custom-state.json" {
		t.Errorf("unexpected state file: %q", cfg.Sync.StateFile)
	}
	if cfg.Files.IndexFile != "README.md" {
		t.Errorf("unexpected index file: %q", cfg.Files.IndexFile)
	}
	if cfg.Confluence.TimeoutSeconds != 60 || cfg.Confluence.RetryCount != 5 {
		t.Errorf("unexpected confluence settings: %+v", cfg.Confluence)
	}
}

func TestProjectConfig_DocumentParseConfig(t *testing.T) {
	cfg, err := confluenceconfig.LoadProjectConfig(filepath.Join(t.TempDir(), "missing.yml"))
	if err != nil {
		t.Fatal(err)
	}
	pc := cfg.DocumentParseConfig()
	if pc.TitleSource != document.TitleSourceFrontmatter {
		t.Errorf("expected default title source frontmatter, got %q", pc.TitleSource)
	}
	if pc.IndexFileName != "index.md" {
		t.Errorf("expected default index file name, got %q", pc.IndexFileName)
	}
}

func TestProjectConfig_ConvertConfig_TOCDisabledByDefault(t *testing.T) {
	cfg, err := confluenceconfig.LoadProjectConfig(filepath.Join(t.TempDir(), "missing.yml"))
	if err != nil {
		t.Fatal(err)
	}
	cc := cfg.ConvertConfig()
	if cc.TOCPosition != convert.TOCNone {
		t.Errorf("expected TOC disabled by default, got %q", cc.TOCPosition)
	}
	if cc.KeepFrontmatter {
		t.Errorf("expected frontmatter stripped by default")
	}
}

func TestProjectConfig_ConvertConfig_TOCEnabledDefaultsToBottom(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "consync.yml")
	if err := os.WriteFile(path, []byte("content:\n  toc:\n    enabled: true\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := confluenceconfig.LoadProjectConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	cc := cfg.ConvertConfig()
	if cc.TOCPosition != convert.TOCBottom {
		t.Errorf("expected TOC default position bottom when enabled without a position, got %q", cc.TOCPosition)
	}
}

func TestProjectConfig_ConvertConfig_FrontmatterStripFalseKeepsIt(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "consync.yml")
	if err := os.WriteFile(path, []byte("content:\n  frontmatter:\n    strip: false\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := confluenceconfig.LoadProjectConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.ConvertConfig().KeepFrontmatter {
		t.Error("expected KeepFrontmatter true when strip: false")
	}
}

func TestProjectConfig_DiffOptions(t *testing.T) {
	cfg, err := confluenceconfig.LoadProjectConfig(filepath.Join(t.TempDir(), "missing.yml"))
	if err != nil {
		t.Fatal(err)
	}
	opts := cfg.DiffOptions("100", false, cfg.ConvertConfig())
	if opts.RootPageID != "100" {
		t.Errorf("unexpected root page id: %q", opts.RootPageID)
	}
	if opts.Force {
		t.Error("expected force false by default")
	}
}

func TestProjectConfig_StateFilePath(t *testing.T) {
	cfg, err := confluenceconfig.LoadProjectConfig(filepath.Join(t.TempDir(), "missing.yml"))
	if err != nil {
		t.Fatal(err)
	}
	got := cfg.StateFilePath("/content", ".consync/state.json")
	if got != "/content/.consync/state.json" {
		t.Errorf("unexpected default state path: %q", got)
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "consync.yml")
	if err := os.WriteFile(path, []byte("sync:\n  stateFile: other.json\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	withOverride, err := confluenceconfig.LoadProjectConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := withOverride.StateFilePath("/content", ".consync/state.json"); got != "other.json" {
		t.Errorf("expected override to win, got %q", got)
	}
}
