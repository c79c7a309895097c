package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/scott-cotton/cli"

	settings "github.com/goliatone/go-settings"
)

func patch(cfg *PatchConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Patch.Parse(cc, args)
	if err != nil {
		cfg.Patch.Usage(cc, err)
		return cli.ExitCodeErr(1)
	}
	if len(args) != 2 {
		return fmt.Errorf("%w: patch requires a file and a patch file, got %v", cli.ErrUsage, args)
	}
	ops, err := os.ReadFile(args[1])
	if err != nil {
		return fmt.Errorf("error reading patch %s: %w", args[1], err)
	}
	return patchFile(cfg.MainConfig, cc.Out, args[0], ops, cfg.DryRun, cfg.colorize(cc.Out))
}

// patchFile applies ops to the document at path and prints the resulting
// changes. With dryRun the document is left untouched.
func patchFile(cfg *MainConfig, w io.Writer, path string, ops []byte, dryRun, colored bool) error {
	s, err := cfg.open(path)
	if err != nil {
		return err
	}
	var changes []settings.Change
	if dryRun {
		next, err := settings.PatchDocument(s.Snapshot(), ops)
		if err != nil {
			return err
		}
		changes = settings.Diff(s.Snapshot(), next)
	} else {
		ctx := context.Background()
		changes, err = s.ApplyPatch(ctx, ops)
		if err != nil {
			return err
		}
		if err := s.Sync(ctx); err != nil {
			return err
		}
	}
	return writeChanges(w, changes, newPalette(colored))
}
