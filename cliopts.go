package main

import (
	"flag"
	"fmt"
	"os"
)

const (
	programName    = "nvhttpd"
	programVersion = "0.0.1"
)

// cliOptions is the validated result of parsing argv.
type cliOptions struct {
	configPath string
	help       bool
	version    bool
}

// parseCLIOptions parses the -c/-h/-v flags from args.
func parseCLIOptions(args []string) (*cliOptions, error) {
	fs := flag.NewFlagSet(programName, flag.ContinueOnError)
	opts := &cliOptions{}
	fs.StringVar(&opts.configPath, "c", "", "path to configuration file")
	fs.BoolVar(&opts.help, "h", false, "print usage and exit")
	fs.BoolVar(&opts.version, "v", false, "print version and exit")
	fs.Usage = func() { printUsage(fs) }
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return opts, nil
}

func printUsage(fs *flag.FlagSet) {
	fmt.Fprintf(os.Stderr, "usage: %s [-c config] [-h] [-v]\n", programName)
	if fs == nil {
		fs = flag.NewFlagSet(programName, flag.ContinueOnError)
		fs.String("c", "", "path to configuration file")
		fs.Bool("h", false, "print usage and exit")
		fs.Bool("v", false, "print version and exit")
	}
	fs.PrintDefaults()
}

func printVersion() {
	fmt.Printf("%s %s\n", programName, programVersion)
}
