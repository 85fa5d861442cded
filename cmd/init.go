package cmd

import (
	"bufio"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const gitignoreContent = `# consync
.consync/
.env

# OS artifacts
.DS_Store
Thumbs.db

# Temporary files
*.tmp
*.bak

# Binary
consync
consync.exe
`

const configTemplate = `space:
  key: ""
  rootPageTitle: ""

content:
  titleSource: frontmatter
  toc:
    enabled: false
    depth: 6
    position: top
  frontmatter:
    strip: true
    useTitle: false

sync:
  deleteOrphans: false
  updateUnchanged: false
  stateBackend: json

files:
  indexFile: index.md

confluence:
  timeout: 30
  retryCount: 3
`

const readmeMDTemplate = `# consync

This workspace is managed by [consync](https://github.com/consync/consync).

## Quick Start

` + "```sh" + `
# Preview what a sync would do
consync plan <SPACE_KEY>

# Reconcile the local tree with Confluence
consync sync <SPACE_KEY>

# Check the tree for structural problems before syncing
consync validate <SPACE_KEY>
` + "```" + `

## Authentication

Set the following environment variables (or add them to ` + "`.env`" + `):

` + "```" + `
ATLASSIAN_DOMAIN=https://your-domain.atlassian.net
ATLASSIAN_EMAIL=you@example.com
ATLASSIAN_API_TOKEN=<your-api-token>
` + "```" + `

A Personal Access Token works instead: set ` + "`ATLASSIAN_PAT`" + ` and omit the email/token pair.

## Notes
- ` + "`.consync.yml`" + ` configures which space and root page this tree syncs to.
- ` + "`.consync/state.json`" + ` is local sync state and is gitignored.
`

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize a consync workspace",
		Long: `init sets up the current directory as a consync workspace.

It will:
  - Verify git is installed (and initialize a repo on branch 'main' if needed)
  - Create or update .gitignore
  - Prompt for Atlassian credentials and create a .env file if missing
  - Create .consync.yml and README.md if they do not exist`,
		Args: cobra.NoArgs,
		RunE: runInit,
	}
}

func runInit(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()

	if _, err := exec.LookPath("git"); err != nil {
		return fmt.Errorf("git is required but was not found in PATH: %w", err)
	}
	fmt.Fprintln(out, "✓ git found")

	if !isInsideGitRepo() {
		fmt.Fprintln(out, "Initializing git repository on branch 'main'...")
		if out, err := exec.Command("git", "init", "-b", "main").CombinedOutput(); err != nil {
			return fmt.Errorf("git init failed: %s: %w", strings.TrimSpace(string(out)), err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "✓ git repository initialized")
	} else {
		fmt.Fprintln(out, "✓ existing git repository detected")
	}

	if err := ensureGitignore(); err != nil {
		return fmt.Errorf("failed to update .gitignore: %w", err)
	}
	fmt.Fprintln(out, "✓ .gitignore updated")

	envCreated, err := ensureDotEnv(cmd)
	if err != nil {
		return fmt.Errorf("failed to create .env: %w", err)
	}
	if envCreated {
		fmt.Fprintln(out, "✓ .env created")
	} else {
		fmt.Fprintln(out, "✓ .env already exists")
	}

	if err := createIfMissing(".consync.yml", configTemplate); err != nil {
		return fmt.Errorf("failed to create .consync.yml: %w", err)
	}
	fmt.Fprintln(out, "✓ .consync.yml ready")

	if err := createIfMissing("README.md", readmeMDTemplate); err != nil {
		return fmt.Errorf("failed to create README.md: %w", err)
	}
	fmt.Fprintln(out, "✓ README.md ready")

	fmt.Fprintln(out, "\nconsync workspace initialized successfully.")
	return nil
}

func isInsideGitRepo() bool {
	err := exec.Command("git", "rev-parse", "--git-dir").Run()
	return err == nil
}

func ensureGitignore() error {
	const path = ".gitignore"

	existing, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}

	content := string(existing)
	var missing []string
	for _, entry := range []string{".consync/", ".env"} {
		if !containsLine(content, entry) {
			missing = append(missing, entry)
		}
	}

	if len(missing) == 0 {
		return nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	if len(existing) > 0 && !strings.HasSuffix(content, "\n") {
		fmt.Fprintln(f)
	}
	if len(existing) == 0 {
		_, err = f.WriteString(gitignoreContent)
		return err
	}
	for _, e := range missing {
		fmt.Fprintln(f, e)
	}
	return nil
}

func ensureDotEnv(cmd *cobra.Command) (bool, error) {
	if _, err := os.Stat(".env"); err == nil {
		return false, nil
	}

	in := cmd.InOrStdin()
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, "\nNo .env file found. Please enter your Atlassian credentials.")
	scanner := bufio.NewScanner(in)

	domain := promptField(scanner, out, "ATLASSIAN_DOMAIN (e.g. https://your-domain.atlassian.net)")
	email := promptField(scanner, out, "ATLASSIAN_EMAIL")
	token := promptToken(scanner, out)

	lines := []string{
		"# Atlassian / Confluence credentials",
		fmt.Sprintf("ATLASSIAN_DOMAIN=%s", strings.TrimRight(domain, "/")),
		fmt.Sprintf("ATLASSIAN_EMAIL=%s", email),
		fmt.Sprintf("ATLASSIAN_API_TOKEN=%s", token),
	}

	return true, os.WriteFile(".env", []byte(strings.Join(lines, "\n")+"\n"), 0o600)
}

func promptField(scanner *bufio.Scanner, out interface{ Write([]byte) (int, error) }, label string) string {
	fmt.Fprintf(out, "  %s: ", label)
	if scanner.Scan() {
		return strings.TrimSpace(scanner.Text())
	}
	return ""
}

// promptToken reads the API token without echoing it when stdin is an
// interactive terminal; scripted input (tests, piped stdin) falls back to
// the plain scanner.
func promptToken(scanner *bufio.Scanner, out interface{ Write([]byte) (int, error) }) string {
	fmt.Fprint(out, "  ATLASSIAN_API_TOKEN: ")
	if term.IsTerminal(int(os.Stdin.Fd())) {
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(out)
		if err == nil {
			return strings.TrimSpace(string(raw))
		}
	}
	if scanner.Scan() {
		return strings.TrimSpace(scanner.Text())
	}
	return ""
}

func createIfMissing(path, content string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, []byte(content), 0o644)
}

func containsLine(s, line string) bool {
	for _, l := range strings.Split(s, "\n") {
		if strings.TrimSpace(l) == line {
			return true
		}
	}
	return false
}
