package main

import (
	"fmt"
	"io"

	"github.com/scott-cotton/cli"
)

func get(cfg *GetConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Get.Parse(cc, args)
	if err != nil {
		cfg.Get.Usage(cc, err)
		return cli.ExitCodeErr(1)
	}
	if len(args) != 2 {
		return fmt.Errorf("%w: get requires a file and a key, got %v", cli.ErrUsage, args)
	}
	return getValue(cfg.MainConfig, cc.Out, args[0], args[1])
}

func getValue(cfg *MainConfig, w io.Writer, path, key string) error {
	s, err := cfg.open(path)
	if err != nil {
		return err
	}
	value, ok := s.Value(key)
	if !ok {
		return fmt.Errorf("%s: no value at %q", path, key)
	}
	_, err = fmt.Fprintln(w, value)
	return err
}
