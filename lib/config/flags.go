package config

import (
	"fmt"

	"github.com/jessevdk/go-flags"
)

// Settings is constructed once in main and passed by reference to every
// pipeline stage. There is intentionally no package-level instance.
type Settings struct {
	Config         *Config
	VerboseLogging bool
	Dataset        string
}

// ParseArgs parses CLI flags and loads the referenced config file.
// loadConfig exists so tests can exercise flag handling without a file.
func ParseArgs(args []string, loadConfig bool) (*Settings, error) {
	var opts struct {
		ConfigFilePath string `short:"c" long:"config" description:"path to the config file"`
		Verbose        bool   `short:"v" long:"verbose" description:"debug logging" optional:"true"`
		Dataset        string `long:"dataset" description:"run a single dataset (trades or transactions)" optional:"true"`
	}

	if _, err := flags.ParseArgs(&opts, args); err != nil {
		return nil, fmt.Errorf("failed to parse args: %w", err)
	}

	switch opts.Dataset {
	case "", "trades", "transactions":
	default:
		return nil, fmt.Errorf("unknown dataset: %q", opts.Dataset)
	}

	var config *Config
	if loadConfig {
		var err error
		config, err = ReadFileToConfig(opts.ConfigFilePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err = config.Validate(); err != nil {
			return nil, fmt.Errorf("failed to validate config: %w", err)
		}
	}

	return &Settings{
		Config:         config,
		VerboseLogging: opts.Verbose,
		Dataset:        opts.Dataset,
	}, nil
}
