package main

import (
	"context"
	"fmt"
	"io"

	"github.com/scott-cotton/cli"

	settings "github.com/goliatone/go-settings"
)

func set(cfg *SetConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Set.Parse(cc, args)
	if err != nil {
		cfg.Set.Usage(cc, err)
		return cli.ExitCodeErr(1)
	}
	if len(args) != 3 {
		return fmt.Errorf("%w: set requires a file, a key and a value, got %v", cli.ErrUsage, args)
	}
	value, err := parseValue(args[2], cfg.String)
	if err != nil {
		return fmt.Errorf("%w: %w", cli.ErrUsage, err)
	}
	return setValue(cfg.MainConfig, cc.Out, args[0], args[1], value)
}

// parseValue reads raw as a JSON value unless asString is set.
func parseValue(raw string, asString bool) (settings.Value, error) {
	if asString {
		return settings.String(raw), nil
	}
	value, err := (settings.JSONCodec{}).Decode([]byte(raw))
	if err != nil {
		return settings.Value{}, fmt.Errorf("value %q is not JSON (use -s for strings): %w", raw, err)
	}
	return value, nil
}

func setValue(cfg *MainConfig, w io.Writer, path, key string, value settings.Value) error {
	s, err := cfg.open(path)
	if err != nil {
		return err
	}
	ctx := context.Background()
	if err := s.SetValue(ctx, key, value); err != nil {
		return err
	}
	if !s.Dirty() {
		return nil
	}
	if err := s.Sync(ctx); err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s = %s\n", settings.CanonicalKey(key), value)
	return err
}
