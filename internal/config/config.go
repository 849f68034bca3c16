// Package config parses rolymo's CLI flags with github.com/spf13/pflag
// and optionally loads a worker-roster/preset YAML document.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/lestrrat-go/strftime"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/AdamBromiley/rolymo/internal/plot"
)

// Mode selects which of the three top-level run modes cmd/rolymo takes.
type Mode int

const (
	Standalone Mode = iota
	Master
	Worker
)

// Flags holds every CLI-supplied and roster-supplied setting for one
// invocation of cmd/rolymo.
type Flags struct {
	Mode Mode

	// Plot parameters, parsed as strings and resolved by the caller
	// against the chosen Precision since their numeric type depends on
	// it.
	Kind      string
	Precision string
	Bits      uint
	Min       string
	Max       string
	C         string
	NMax      uint64
	Width     uint
	Height    uint
	Scheme    string

	Output   string
	Terminal bool

	Threads uint
	MemMiB  uint64

	// Master mode.
	Listen   string
	Announce bool

	// Worker mode.
	MasterAddr string
	Discover   bool

	RosterFile string
	Workers    []string

	Verbosity int
}

// Parse parses args (excluding argv[0]) into a Flags.
func Parse(args []string) (*Flags, error) {
	fs := pflag.NewFlagSet("rolymo", pflag.ContinueOnError)
	f := &Flags{}

	var modeStr string
	fs.StringVarP(&modeStr, "mode", "m", "standalone", `Run mode: "standalone", "master", or "worker".`)

	fs.StringVar(&f.Kind, "kind", "mandelbrot", `Plot kind: "mandelbrot" or "julia".`)
	fs.StringVar(&f.Precision, "precision", "std", `Numeric precision: "std", "ext", or "multi".`)
	fs.UintVar(&f.Bits, "bits", plot.MPBitsDefault, "Multi-precision significand width, in bits.")
	fs.StringVar(&f.Min, "min", "", "Minimum complex bound, as \"a+bi\".")
	fs.StringVar(&f.Max, "max", "", "Maximum complex bound, as \"a+bi\".")
	fs.StringVar(&f.C, "c", "", "Julia constant, as \"a+bi\" (julia mode only).")
	fs.Uint64VarP(&f.NMax, "iterations", "n", 1000, "Iteration cap.")
	fs.UintVarP(&f.Width, "width", "w", 800, "Image width, in pixels.")
	fs.UintVar(&f.Height, "height", 600, "Image height, in pixels.")
	fs.StringVarP(&f.Scheme, "scheme", "s", "rainbow", fmt.Sprintf("Colour scheme, one of %v.", plot.SchemeNames()))

	fs.StringVarP(&f.Output, "output", "o", "", "Output file path (default: timestamped PNM file).")
	fs.BoolVar(&f.Terminal, "terminal", false, "Write ASCII output to the terminal instead of a file.")

	fs.UintVarP(&f.Threads, "threads", "t", 0, "Thread count (default: processor count).")
	fs.Uint64Var(&f.MemMiB, "mem", 0, "Memory budget in MiB (default: 80% of free memory).")

	fs.StringVarP(&f.Listen, "listen", "l", fmt.Sprintf(":%d", defaultPort), "Master mode: listen address.")
	fs.BoolVar(&f.Announce, "announce", true, "Master mode: advertise over DNS-SD.")

	fs.StringVar(&f.MasterAddr, "master", "", "Worker mode: master address (host:port).")
	fs.BoolVar(&f.Discover, "discover", false, "Worker mode: browse DNS-SD for a master instead of --master.")

	fs.StringVar(&f.RosterFile, "roster", "", "YAML worker-roster/preset file.")

	fs.IntVarP(&f.Verbosity, "verbosity", "v", 0, "Log verbosity: negative is quieter, positive is more verbose.")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: rolymo --mode=<standalone|master|worker> [flags]\n\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	switch modeStr {
	case "standalone":
		f.Mode = Standalone
	case "master":
		f.Mode = Master
	case "worker":
		f.Mode = Worker
	default:
		return nil, fmt.Errorf("config: unknown mode %q", modeStr)
	}

	if f.RosterFile != "" {
		if err := f.mergeRoster(f.RosterFile, fs.Changed); err != nil {
			return nil, err
		}
	}

	return f, nil
}

const defaultPort = 7939

// Roster is the YAML document loaded via --roster: preset plot
// parameters and a list of worker addresses, copied into Flags.Workers.
// Nothing dials those addresses; a master only accepts workers that
// connect to its --listen address.
type Roster struct {
	Kind      string   `yaml:"kind"`
	Precision string   `yaml:"precision"`
	Bits      uint     `yaml:"bits"`
	Min       string   `yaml:"min"`
	Max       string   `yaml:"max"`
	C         string   `yaml:"c"`
	NMax      uint64   `yaml:"iterations"`
	Width     uint     `yaml:"width"`
	Height    uint     `yaml:"height"`
	Scheme    string   `yaml:"scheme"`
	Workers   []string `yaml:"workers"`
}

// LoadRoster reads and parses a roster YAML document.
func LoadRoster(path string) (*Roster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read roster %q: %w", path, err)
	}
	var r Roster
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("config: parse roster %q: %w", path, err)
	}
	return &r, nil
}

// mergeRoster fills in any plot-parameter flag not set on the command
// line from the roster file, leaving explicit CLI flags untouched: roster
// values are presets, not overrides.
func (f *Flags) mergeRoster(path string, changed func(name string) bool) error {
	r, err := LoadRoster(path)
	if err != nil {
		return err
	}

	if !changed("kind") && r.Kind != "" {
		f.Kind = r.Kind
	}
	if f.Min == "" {
		f.Min = r.Min
	}
	if f.Max == "" {
		f.Max = r.Max
	}
	if f.C == "" {
		f.C = r.C
	}
	if !changed("iterations") && r.NMax != 0 {
		f.NMax = r.NMax
	}
	if !changed("width") && r.Width != 0 {
		f.Width = r.Width
	}
	if !changed("height") && r.Height != 0 {
		f.Height = r.Height
	}
	if !changed("scheme") && r.Scheme != "" {
		f.Scheme = r.Scheme
	}
	if !changed("bits") && r.Bits != 0 {
		f.Bits = r.Bits
	}
	if len(f.Workers) == 0 {
		f.Workers = r.Workers
	}

	return nil
}

// DefaultOutputPath builds a timestamped output file name when --output
// is not given, e.g. "rolymo-mandelbrot-20260731-142233.ppm".
func DefaultOutputPath(kind, ext string) (string, error) {
	name, err := strftime.Format(fmt.Sprintf("rolymo-%s-%%Y%%m%%d-%%H%%M%%S.%s", kind, ext), time.Now())
	if err != nil {
		return "", fmt.Errorf("config: format default output name: %w", err)
	}
	return name, nil
}
