package main

import (
	"fmt"
	"io"

	"github.com/scott-cotton/cli"
)

func list(cfg *ListConfig, cc *cli.Context, args []string) error {
	args, err := cfg.List.Parse(cc, args)
	if err != nil {
		cfg.List.Usage(cc, err)
		return cli.ExitCodeErr(1)
	}
	if len(args) < 1 || len(args) > 2 {
		return fmt.Errorf("%w: list requires a file and an optional group, got %v", cli.ErrUsage, args)
	}
	group := ""
	if len(args) == 2 {
		group = args[1]
	}
	return listValues(cfg.MainConfig, cc.Out, args[0], group)
}

func listValues(cfg *MainConfig, w io.Writer, path, group string) error {
	s, err := cfg.open(path)
	if err != nil {
		return err
	}
	view := s.Group(group)
	snapshot := view.Snapshot()
	for _, key := range snapshot.Keys() {
		full := key
		if prefix := view.Prefix(); prefix != "" {
			full = prefix + "/" + key
		}
		if _, err := fmt.Fprintf(w, "%s = %s\n", full, snapshot[key]); err != nil {
			return err
		}
	}
	return nil
}
