// Package main is the entry point for the Marksman demo host: it opens a
// file in a minimal tcell viewer with Night Vision mark decorations.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/dshills/marksman/internal/config"
	"github.com/dshills/marksman/internal/derive"
	"github.com/dshills/marksman/internal/logging"
	"github.com/dshills/marksman/internal/meta"
	"github.com/dshills/marksman/internal/session"
	"github.com/dshills/marksman/internal/termhost"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		configPath  string
		stateDir    string
		logPath     string
		showVersion bool
	)
	flag.StringVar(&configPath, "config", "", "Path to configuration file (TOML or YAML)")
	flag.StringVar(&configPath, "c", "", "Path to configuration file (shorthand)")
	flag.StringVar(&stateDir, "state-dir", "", "Directory for persisted mark metadata")
	flag.StringVar(&logPath, "log", "", "Write logs to this file")
	flag.BoolVar(&showVersion, "version", false, "Print version and exit")
	flag.Parse()

	if showVersion {
		fmt.Printf("marksman %s (%s)\n", version, commit)
		return 0
	}

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: marksman [flags] <file>")
		return 2
	}

	logCfg := logging.DefaultConfig()
	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: cannot open log file: %v\n", err)
			return 1
		}
		defer f.Close()
		logCfg.Output = f
	}

	loader := config.NewLoader(configPath)
	opts, fieldErrs, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	logCfg.Level = logging.ParseLevel(opts.LogLevel)
	log := logging.New(logCfg)
	if logPath == "" {
		// The terminal is owned by tcell; stderr logging would corrupt it.
		log = logging.Null
	}

	if stateDir == "" {
		stateDir = opts.StateDir
	}
	if stateDir == "" {
		stateDir, err = meta.DefaultDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
	}

	h, err := termhost.Load(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	provider := config.NewProvider(opts)
	store := meta.NewStore(stateDir, h, log)

	s := session.New(session.Deps{
		Source:   h,
		View:     h,
		Surface:  h,
		Notify:   h,
		Provider: provider,
		Store:    store,
		Derived:  derive.NewGitSource(log),
		Log:      log,
	})
	defer s.Close()

	s.ReportFieldErrors(fieldErrs)
	if configPath != "" {
		if err := s.WatchConfig(loader); err != nil {
			log.Warn("config live reload disabled: %v", err)
		}
	}

	if err := termhost.Run(h, s); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
