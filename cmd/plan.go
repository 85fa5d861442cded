package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/consync/consync/internal/plan"
)

func newPlanCmd() *cobra.Command {
	var force bool

	c := &cobra.Command{
		Use:   "plan [TARGET]",
		Short: "Preview the actions sync would take, without touching Confluence",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var raw string
			if len(args) > 0 {
				raw = args[0]
			}
			return runPlan(cmd, raw, force)
		},
	}
	c.Flags().BoolVar(&force, "force", false, "compute the plan as if every page were stale")
	return c
}

func runPlan(cmd *cobra.Command, raw string, force bool) error {
	ctx := context.Background()
	out := cmd.OutOrStdout()
	log := newLogger()

	rc, err := resolveRunContext(raw)
	if err != nil {
		return err
	}

	svc, closeSvc, err := newRemoteService(rc, log)
	if err != nil {
		return err
	}
	defer closeSvc()

	rootPageID, err := resolveRootPageID(ctx, svc, rc.cfg.Space.Key, rootPageConfig{
		RootPageID:    rc.cfg.Space.RootPageID,
		RootPageTitle: rc.cfg.Space.RootPageTitle,
	})
	if err != nil {
		return err
	}

	store, err := newStateStore(rc)
	if err != nil {
		return err
	}
	st, err := store.Load(ctx, rc.cfg.Space.Key, rootPageID)
	if err != nil {
		return fmt.Errorf("load state: %w", err)
	}

	convertCfg := rc.cfg.ConvertConfig()
	syncPlan, err := plan.Diff(rc.tree, st, rc.cfg.DiffOptions(rootPageID, force, convertCfg))
	if err != nil {
		return fmt.Errorf("compute plan: %w", err)
	}

	writePlan(out, syncPlan)
	return nil
}
