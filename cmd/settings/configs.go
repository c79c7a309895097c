package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/scott-cotton/cli"

	settings "github.com/goliatone/go-settings"
)

type MainConfig struct {
	Color   bool `cli:"name=color desc='force coloured output'"`
	NoColor bool `cli:"name=nocolor desc='disable coloured output'"`

	InFormat *settings.Format

	Main *cli.Command
}

func (cfg *MainConfig) fmtFunc(fp **settings.Format) cli.FuncOpt {
	return cli.FuncOpt(func(_ *cli.Context, v string) (any, error) {
		f, ok := settings.ParseFormat(v)
		if !ok {
			return nil, fmt.Errorf("%w: unknown format %q", cli.ErrUsage, v)
		}
		*fp = &f
		return f, nil
	})
}

// open loads path, refusing documents that do not parse.
func (cfg *MainConfig) open(path string, opts ...settings.Option) (*settings.Settings, error) {
	if cfg != nil && cfg.InFormat != nil {
		opts = append(opts, settings.WithFormat(*cfg.InFormat))
	}
	s, err := settings.Open(path, opts...)
	if err != nil {
		return nil, err
	}
	if s.Status() != settings.StatusNoError {
		return nil, fmt.Errorf("%s: %s: %w", path, s.Status(), s.Err())
	}
	return s, nil
}

// colorize reports whether output to w should be coloured: -color and
// -nocolor win, otherwise terminals are coloured.
func (cfg *MainConfig) colorize(w io.Writer) bool {
	switch {
	case cfg == nil:
		return false
	case cfg.Color:
		return true
	case cfg.NoColor:
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

type palette struct {
	added, removed, changed func(a ...interface{}) string
}

func newPalette(enabled bool) palette {
	mk := func(attr color.Attribute) func(a ...interface{}) string {
		c := color.New(attr)
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c.SprintFunc()
	}
	return palette{
		added:   mk(color.FgGreen),
		removed: mk(color.FgRed),
		changed: mk(color.FgYellow),
	}
}

type GetConfig struct {
	*MainConfig
	Get *cli.Command
}

type SetConfig struct {
	*MainConfig
	String bool `cli:"name=s desc='store the value as a string'"`

	Set *cli.Command
}

type ListConfig struct {
	*MainConfig
	List *cli.Command
}

type ConvertConfig struct {
	*MainConfig
	OutFormat *settings.Format
	Write     string `cli:"name=w desc='write the converted document to this path'"`

	Convert *cli.Command
}

type DiffConfig struct {
	*MainConfig
	Reverse bool `cli:"name=r desc='reverse the diff'"`

	Diff *cli.Command
}

type PatchConfig struct {
	*MainConfig
	DryRun bool `cli:"name=n desc='print the changes without saving'"`

	Patch *cli.Command
}

type EvalConfig struct {
	*MainConfig
	Engine string `cli:"name=e aliases=engine desc='expression engine: expr, cel or js'"`

	Eval *cli.Command
}
