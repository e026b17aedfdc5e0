// Package config defines the run configuration derived from CLI flags
// and an optional TOML overlay file, in the style of the teacher's own
// small flag-plus-struct config surface.
package config

import (
	"flag"
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// ErrThreadCountOutOfRange is returned when Threads falls outside 1..20.
var ErrThreadCountOutOfRange = errors.New("config: thread count out of range (1..20)")

// ErrUnsupportedMode is returned when a flag that only makes sense in
// bag mode (-fast, -empties, -get, -verbose) is used in tar mode.
var ErrUnsupportedMode = errors.New("config: flag combination unsupported for this mode")

// Config is the fully resolved set of options for one run.
type Config struct {
	Archive string // positional argument: path or logical name

	Mode    string // "tar" or "bag"
	Algo    string // "md5", "sha1", "sha256", "sha512"
	Threads int

	Sam     bool // resolve Archive via the HSM collaborator
	SamCopy int
	Wrapped int64 // >0 means Archive is wrapped at this byte offset

	Get     string // metadata member name, or "" for none
	Fast    bool
	Verbose bool
	Empties bool

	TempDir string
}

// Default returns a Config with the same defaults the flag set below
// applies: tar mode, md5, one worker.
func Default() Config {
	return Config{Mode: "tar", Algo: "md5", Threads: 1, SamCopy: 1}
}

// Parse builds a Config from args (normally os.Args[1:]), optionally
// overlaying a TOML file named by -config before the rest of the flags
// are applied, so command-line flags always win over the file.
func Parse(args []string) (Config, error) {
	cfg := Default()

	fs := flag.NewFlagSet("mtbagcheck", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to a TOML config file overlaying these defaults")
	fs.StringVar(&cfg.Mode, "mode", cfg.Mode, "tar | bag")
	fs.StringVar(&cfg.Algo, "algo", cfg.Algo, "md5 | sha1 | sha256 | sha512")
	fs.IntVar(&cfg.Threads, "threads", cfg.Threads, "worker count, 1..20")
	fs.BoolVar(&cfg.Sam, "sam", cfg.Sam, "resolve the archive via the HSM collaborator")
	fs.Int64Var(&cfg.Wrapped, "wrapped", cfg.Wrapped, "byte offset where the tar stream begins inside the supplied file")
	fs.StringVar(&cfg.Get, "get", cfg.Get, "print one metadata member: manifest|tagmanifest|baginfo|bagit")
	fs.BoolVar(&cfg.Fast, "fast", cfg.Fast, "bag mode: compare payload-oxum only, skip digesting")
	fs.BoolVar(&cfg.Verbose, "verbose", cfg.Verbose, "bag mode: print a line for every good file too")
	fs.BoolVar(&cfg.Empties, "empties", cfg.Empties, "bag mode: list zero-length payload files")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if *configPath != "" {
		if _, err := toml.DecodeFile(*configPath, &cfg); err != nil {
			return Config{}, errors.Wrapf(err, "config: decode %s", *configPath)
		}
		// Re-parse so command-line flags override the file.
		if err := fs.Parse(args); err != nil {
			return Config{}, err
		}
	}

	if fs.NArg() < 1 {
		return Config{}, fmt.Errorf("config: missing archive argument")
	}
	cfg.Archive = fs.Arg(0)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate enforces the invariants a run must satisfy before the walker
// or bag resolver are invoked.
func (c Config) Validate() error {
	if c.Threads < 1 || c.Threads > 20 {
		return ErrThreadCountOutOfRange
	}
	if c.Mode != "tar" && c.Mode != "bag" {
		return fmt.Errorf("config: unknown mode %q", c.Mode)
	}
	if c.Mode == "tar" && (c.Fast || c.Empties || c.Get != "" || c.Verbose) {
		return ErrUnsupportedMode
	}
	return nil
}
