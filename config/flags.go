package config

import (
	"flag"
	"os"
)

// Flags command-line switches that are not part of the YAML document.
type Flags struct {
	ConfigPath string
	// Once runs a single check and exits.
	Once bool
	// Checkpoint records the current computed balance as the new baseline and exits.
	Checkpoint bool
	Debug      bool
}

// Get parses os.Args and loads the configuration file they point to.
func Get() (Config, Flags, error) {
	flags, err := parseFlags(os.Args[1:])
	if err != nil {
		return Config{}, Flags{}, err
	}

	conf, err := Load(flags.ConfigPath)
	if err != nil {
		return Config{}, flags, err
	}
	return conf, flags, nil
}

func parseFlags(args []string) (Flags, error) {
	var f Flags
	fs := flag.NewFlagSet("profitwatch", flag.ContinueOnError)
	fs.StringVar(&f.ConfigPath, "config", "config.yaml", "path to yaml config")
	fs.BoolVar(&f.Once, "once", false, "run a single profit check and exit")
	fs.BoolVar(&f.Checkpoint, "checkpoint", false, "record the current balance as the new baseline and exit")
	fs.BoolVar(&f.Debug, "debug", false, "development logging")
	if err := fs.Parse(args); err != nil {
		return Flags{}, err
	}
	return f, nil
}
