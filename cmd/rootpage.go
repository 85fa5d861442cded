package cmd

import (
	"context"
	"fmt"

	"github.com/consync/consync/internal/remote"
)

// resolveRootPageID implements spec §6's "(a) If both space.rootPageId and
// space.rootPageTitle are set, the source uses the ID" rule: an explicit ID
// always wins, a title is resolved to an ID via getPageByTitle, and neither
// configured means pages are created directly under the space root.
func resolveRootPageID(ctx context.Context, svc remote.Service, spaceKey string, cfg rootPageConfig) (string, error) {
	if cfg.RootPageID != "" {
		return cfg.RootPageID, nil
	}
	if cfg.RootPageTitle == "" {
		return "", nil
	}
	page, found, err := svc.GetPageByTitle(ctx, spaceKey, cfg.RootPageTitle)
	if err != nil {
		return "", fmt.Errorf("resolve root page %q: %w", cfg.RootPageTitle, err)
	}
	if !found {
		return "", fmt.Errorf("root page %q not found in space %q", cfg.RootPageTitle, spaceKey)
	}
	return page.ID, nil
}

// rootPageConfig is the subset of ProjectConfig.Space that resolveRootPageID needs.
type rootPageConfig struct {
	RootPageID    string
	RootPageTitle string
}
