package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/scott-cotton/cli"
	"github.com/sergi/go-diff/diffmatchpatch"

	settings "github.com/goliatone/go-settings"
)

func diff(cfg *DiffConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Diff.Parse(cc, args)
	if err != nil {
		cfg.Diff.Usage(cc, err)
		return cli.ExitCodeErr(1)
	}
	if len(args) != 2 {
		return fmt.Errorf("%w: diff requires 2 files, got %v", cli.ErrUsage, args)
	}
	a, b := args[0], args[1]
	if cfg.Reverse {
		a, b = b, a
	}
	differs, err := diffFiles(cfg.MainConfig, cc.Out, a, b, cfg.colorize(cc.Out))
	if err != nil {
		return err
	}
	if differs {
		return cli.ExitCodeErr(1)
	}
	return nil
}

func diffFiles(cfg *MainConfig, w io.Writer, a, b string, colored bool) (bool, error) {
	from, err := cfg.open(a)
	if err != nil {
		return false, fmt.Errorf("error reading %s: %w", a, err)
	}
	to, err := cfg.open(b)
	if err != nil {
		return false, fmt.Errorf("error reading %s: %w", b, err)
	}
	changes := settings.Diff(from.Snapshot(), to.Snapshot())
	if err := writeChanges(w, changes, newPalette(colored)); err != nil {
		return false, err
	}
	return len(changes) > 0, nil
}

// writeChanges prints one line per change, marked "+" when the key was added,
// "-" when it was removed and "~" when it was modified. Modified strings are
// shown as an inline character diff instead of "old -> new".
func writeChanges(w io.Writer, changes []settings.Change, p palette) error {
	for _, change := range changes {
		var line string
		switch change.Kind {
		case settings.ChangeAdded:
			line = p.added(fmt.Sprintf("+ %s = %s", change.Key, change.New))
		case settings.ChangeRemoved:
			line = p.removed(fmt.Sprintf("- %s = %s", change.Key, change.Old))
		default:
			line = fmt.Sprintf("%s %s", p.changed("~ "+change.Key+":"), describeModification(change, p))
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func describeModification(change settings.Change, p palette) string {
	oldText, oldIsString := change.Old.AsString()
	newText, newIsString := change.New.AsString()
	if !oldIsString || !newIsString {
		return fmt.Sprintf("%s -> %s", change.Old, change.New)
	}

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffCleanupSemantic(dmp.DiffMain(oldText, newText, false))
	var b strings.Builder
	b.WriteByte('"')
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			b.WriteString(p.removed("[-" + d.Text + "-]"))
		case diffmatchpatch.DiffInsert:
			b.WriteString(p.added("{+" + d.Text + "+}"))
		case diffmatchpatch.DiffEqual:
			b.WriteString(d.Text)
		}
	}
	b.WriteByte('"')
	return b.String()
}
