package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/consync/consync/internal/confluenceconfig"
	"github.com/consync/consync/internal/document"
	"github.com/consync/consync/internal/hierarchy"
	"github.com/consync/consync/internal/logging"
	"github.com/consync/consync/internal/remote"
	"github.com/consync/consync/internal/state"
)

// runContext bundles everything a sync/plan/validate invocation needs,
// resolved once from the TARGET argument and the project config file.
type runContext struct {
	contentRoot string
	cfg         confluenceconfig.ProjectConfig
	cred        *confluenceconfig.Credentials
	tree        *hierarchy.Tree
	result      hierarchy.BuildResult
}

// resolveRunContext walks raw (a [TARGET] argument, or "" for the current
// directory) to a content root, loads the project config and credentials,
// parses every Markdown file under it, and builds the hierarchy.
func resolveRunContext(raw string) (*runContext, error) {
	target := confluenceconfig.ParseTarget(raw)

	contentRoot, err := resolveContentRoot(target)
	if err != nil {
		return nil, err
	}

	cfgPath := flagConfigFile
	if !filepath.IsAbs(cfgPath) {
		cfgPath = filepath.Join(contentRoot, cfgPath)
	}
	cfg, err := confluenceconfig.LoadProjectConfig(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load project config: %w", err)
	}

	cred, err := confluenceconfig.LoadCredentials(findEnvPath(contentRoot))
	if err != nil {
		return nil, fmt.Errorf("load credentials: %w", err)
	}

	docs, err := loadDocuments(contentRoot, cfg)
	if err != nil {
		return nil, err
	}

	buildResult, err := hierarchy.Build(docs, cfg.HierarchyBuildConfig())
	if err != nil {
		return nil, fmt.Errorf("build hierarchy: %w", err)
	}

	return &runContext{
		contentRoot: contentRoot,
		cfg:         cfg,
		cred:        cred,
		tree:        buildResult.Tree,
		result:      buildResult,
	}, nil
}

// resolveContentRoot mirrors the teacher's TARGET resolution: a file target
// yields the directory containing it, a space-key target (or empty) yields
// the current directory (or a subdirectory matching the key, when present).
func resolveContentRoot(target confluenceconfig.Target) (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	if target.IsFile() {
		abs, err := filepath.Abs(target.Value)
		if err != nil {
			return "", err
		}
		if _, err := os.Stat(abs); err != nil {
			return "", fmt.Errorf("target file %s: %w", target.Value, err)
		}
		return filepath.Dir(abs), nil
	}
	if target.Value == "" {
		return filepath.Abs(cwd)
	}
	if info, err := os.Stat(target.Value); err == nil && info.IsDir() {
		return filepath.Abs(target.Value)
	}
	return filepath.Abs(cwd)
}

// loadDocuments walks contentRoot collecting every .md file (skipping
// dot-directories such as the .consync state directory) and parses each
// into a document.Document. A file that fails to parse is left out.
func loadDocuments(contentRoot string, cfg confluenceconfig.ProjectConfig) ([]document.Document, error) {
	var files []string
	err := filepath.WalkDir(contentRoot, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != contentRoot {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".md") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk content root: %w", err)
	}
	sort.Strings(files)

	parseCfg := cfg.DocumentParseConfig()
	docs := make([]document.Document, 0, len(files))
	for _, f := range files {
		rel, err := filepath.Rel(contentRoot, f)
		if err != nil {
			return nil, err
		}
		segments := strings.Split(filepath.ToSlash(rel), "/")
		raw, err := os.ReadFile(f)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f, err)
		}
		doc, err := document.Parse(segments, f, raw, parseCfg)
		if errors.Is(err, document.ErrParseFailure) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", f, err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// newRemoteService builds the retrying HTTP client the executor talks to.
func newRemoteService(rc *runContext, log logging.Logger) (*remote.RetryingService, func(), error) {
	authMode := remote.AuthBasic
	username := rc.cred.Email
	if rc.cred.Mode == confluenceconfig.AuthModeBearer {
		authMode = remote.AuthBearer
	}

	client, err := remote.NewHTTPClient(remote.HTTPClientConfig{
		BaseURL:  rc.cred.Domain,
		AuthMode: authMode,
		Username: username,
		APIToken: rc.cred.APIToken,
		Timeout:  rc.cfg.Timeout(),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("build remote client: %w", err)
	}

	svc := remote.NewRetryingService(client, rc.cfg.Confluence.RetryCount).WithLogger(log)
	return svc, client.Close, nil
}

// newStateStore opens the configured state backend bound to this content
// root. sync.stateBackend selects between the default JSON file and a
// SQLite-backed store for spaces too large for a single JSON diff to stay
// comfortable in version control.
func newStateStore(rc *runContext) (state.Store, error) {
	if rc.cfg.Sync.StateBackend == "sqlite" {
		path := rc.cfg.StateFilePath(rc.contentRoot, state.DefaultSQLiteStateFileName)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite state directory: %w", err)
		}
		store, err := state.OpenSQLiteStore(path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite state store: %w", err)
		}
		return store, nil
	}
	path := rc.cfg.StateFilePath(rc.contentRoot, state.DefaultStateFileName)
	return state.NewJSONFileStore(path), nil
}

func newLogger() logging.Logger {
	if flagVerbose {
		return logging.NewKlog()
	}
	return logging.NoOp()
}
