package cmd

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
)

func setupCredentialsEnv(t *testing.T) {
	t.Helper()
	t.Setenv("ATLASSIAN_DOMAIN", "https://example.atlassian.net")
	t.Setenv("ATLASSIAN_EMAIL", "user@example.com")
	t.Setenv("ATLASSIAN_API_TOKEN", "token-123")
}

func TestRunValidate_CleanTreePasses(t *testing.T) {
	setupCredentialsEnv(t)
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "index.md"), "# Home\n\nSee [guide](guide.md).\n")
	writeFile(t, filepath.Join(root, "guide.md"), "# Guide\n")
	chdirRepo(t, root)

	out := &bytes.Buffer{}
	if err := runValidate(out, ""); err != nil {
		t.Fatalf("runValidate() error: %v, output: %s", err, out.String())
	}
}

func TestRunValidate_BrokenLinkFails(t *testing.T) {
	setupCredentialsEnv(t)
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "index.md"), "# Home\n\nSee [missing](nowhere.md).\n")
	chdirRepo(t, root)

	out := &bytes.Buffer{}
	err := runValidate(out, "")
	if err == nil {
		t.Fatalf("expected validation failure, got success: %s", out.String())
	}
	if !strings.Contains(out.String(), "broken_link") {
		t.Errorf("expected broken_link report, got: %s", out.String())
	}
}

func TestRunValidate_MissingTargetFileErrors(t *testing.T) {
	setupCredentialsEnv(t)
	root := t.TempDir()
	chdirRepo(t, root)

	out := &bytes.Buffer{}
	if err := runValidate(out, filepath.Join(root, "missing.md")); err == nil {
		t.Fatal("expected error for missing target file")
	}
}
