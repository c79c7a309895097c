package main

import (
	"bytes"
	"fmt"
	"io"

	"github.com/scott-cotton/cli"

	settings "github.com/goliatone/go-settings"
	"github.com/goliatone/go-settings/internal/atomicfile"
)

func convert(cfg *ConvertConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Convert.Parse(cc, args)
	if err != nil {
		cfg.Convert.Usage(cc, err)
		return cli.ExitCodeErr(1)
	}
	if len(args) != 1 {
		return fmt.Errorf("%w: convert requires one file, got %v", cli.ErrUsage, args)
	}
	if cfg.OutFormat == nil {
		if cfg.Write == "" {
			return fmt.Errorf("%w: convert requires -O or -w", cli.ErrUsage)
		}
		format := settings.FormatForPath(cfg.Write)
		cfg.OutFormat = &format
	}
	return convertDocument(cfg.MainConfig, cc.Out, args[0], *cfg.OutFormat, cfg.Write)
}

// convertDocument re-encodes path as format, writing to dest when set and to
// w otherwise.
func convertDocument(cfg *MainConfig, w io.Writer, path string, format settings.Format, dest string) error {
	s, err := cfg.open(path)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if len(s.Snapshot()) > 0 {
		if err := settings.Write(&buf, format.Codec, s.Snapshot()); err != nil {
			return err
		}
	}
	if dest == "" {
		_, err := w.Write(buf.Bytes())
		return err
	}
	return atomicfile.Write(dest, buf.Bytes())
}
