package main

import (
	"fmt"
	"io"
	"os"
)

// main wires config -> logger -> cache -> dispatcher: parse CLI, load
// config, open the log sink, write the PID file, build the initial cache,
// then run the accept loop.
func main() {
	opts, err := parseCLIOptions(os.Args[1:])
	if err != nil {
		os.Exit(2)
	}
	if opts.help {
		printUsage(nil)
		return
	}
	if opts.version {
		printVersion()
		return
	}

	cfg, err := LoadConfig(opts.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", programName, err)
		os.Exit(1)
	}

	var sink io.Writer
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: error opening log file %s: %v\n", programName, cfg.LogFile, err)
			os.Exit(1)
		}
		sink = f
		defer f.Close()
	}
	logger := NewLogger(cfg.LogLevel, sink, sink == nil)
	defer logger.Close()

	if err := writePIDFile(cfg.PIDFile); err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}
	defer removePIDFile(cfg.PIDFile)

	cache := NewCache(logger)
	if err := cache.Load(cfg.HTMLRoot); err != nil {
		logger.Errorf("initial cache load failed: %v", err)
		os.Exit(1)
	}

	dispatcher := NewDispatcher(cfg, cache, logger)
	if cfg.TLSEnabled {
		tlsConfig, err := buildTLSConfig(cfg.TLSCert, cfg.TLSKey)
		if err != nil {
			logger.Errorf("%v", err)
			os.Exit(1)
		}
		dispatcher.SetTLSConfig(tlsConfig)
	}

	logger.Infof("%s %s starting, serving %s", programName, programVersion, cfg.HTMLRoot)
	if err := dispatcher.Run(); err != nil {
		logger.Errorf("dispatcher exited: %v", err)
		os.Exit(1)
	}
}
