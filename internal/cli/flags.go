package cli

import (
	"flag"
	"io"
)

// IngestFlags are the flags of the alertledger command
type IngestFlags struct {
	ConfigPath string
	RulesPath  string
	RulesURL   string
	DryRun     bool
	JSON       bool
	HTML       bool
	Verbose    bool
	Files      []string
}

// ParseIngestFlags parses the alertledger command line. Positional
// arguments are alert files; none (or "-") means stdin.
func ParseIngestFlags(args []string, stderr io.Writer) (IngestFlags, error) {
	var flags IngestFlags
	fs := flag.NewFlagSet("alertledger", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&flags.ConfigPath, "config", "", "Configuration file path (default: environment)")
	fs.StringVar(&flags.RulesPath, "rules", "", "Rule table file (.yaml, .yml or .json)")
	fs.StringVar(&flags.RulesURL, "rules-url", "", "Rule table URL")
	fs.BoolVar(&flags.DryRun, "dry-run", false, "Parse without storing rows")
	fs.BoolVar(&flags.JSON, "json", false, "Print rows as JSON")
	fs.BoolVar(&flags.HTML, "html", false, "Treat stdin as an HTML body")
	fs.BoolVar(&flags.Verbose, "verbose", false, "Verbose output")
	if err := fs.Parse(args); err != nil {
		return IngestFlags{}, err
	}
	flags.Files = fs.Args()
	return flags, nil
}

// ServeFlags holds the CLI flags for the serve command.
type ServeFlags struct {
	ConfigPath string
	Port       int
	Verbose    bool
}

// ParseServeFlags parses command line flags for the serve command. A zero
// port keeps the configured one.
func ParseServeFlags(args []string, stderr io.Writer) (ServeFlags, error) {
	var flags ServeFlags
	fs := flag.NewFlagSet("api", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&flags.ConfigPath, "config", "", "Configuration file path (default: environment)")
	fs.IntVar(&flags.Port, "port", 0, "Port to listen on")
	fs.BoolVar(&flags.Verbose, "verbose", false, "Verbose output")
	if err := fs.Parse(args); err != nil {
		return ServeFlags{}, err
	}
	return flags, nil
}
