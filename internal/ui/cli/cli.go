package cli

import (
	"flag"
	"io"
	"strings"
)

const versionString = "1.0.0"

// defaultConfigCandidates are tried in order when -config is not given.
var defaultConfigCandidates = []string{"nominal.toml", "data/config/nominal.toml"}

type cliOptions struct {
	configPath    string
	manifests     stringList
	dbPath        string
	project       string
	format        string
	output        string
	inject        string
	contextLines  int
	watch         bool
	ui            bool
	index         bool
	history       int
	historyFormat string
	noColor       bool
	verbose       bool
	version       bool
	args          []string
}

// stringList collects a repeatable flag.
type stringList []string

func (l *stringList) String() string {
	return strings.Join(*l, ",")
}

func (l *stringList) Set(value string) error {
	*l = append(*l, value)
	return nil
}

func parseOptions(args []string, stderr io.Writer) (cliOptions, error) {
	var opts cliOptions
	fs := flag.NewFlagSet("nominal", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&opts.configPath, "config", "", "Path to config file (default: ./nominal.toml or ./data/config/nominal.toml when present)")
	fs.Var(&opts.manifests, "manifest", "Declaration manifest to load (repeatable)")
	fs.StringVar(&opts.dbPath, "db", "", "Declaration store path (enables persistence)")
	fs.StringVar(&opts.project, "project", "", "Project key in the declaration store")
	fs.StringVar(&opts.format, "format", "", "Report format: text, sarif, tsv or markdown")
	fs.StringVar(&opts.output, "output", "", "Write the report to this file instead of stdout")
	fs.StringVar(&opts.inject, "inject", "", "Inject a markdown report into <file>:<marker>")
	fs.IntVar(&opts.contextLines, "context", -1, "Source lines shown around each finding in text output")
	fs.BoolVar(&opts.watch, "watch", false, "Re-run whenever a syntax tree changes")
	fs.BoolVar(&opts.ui, "ui", false, "Watch with an interactive terminal dashboard")
	fs.BoolVar(&opts.index, "index", false, "Store the declarations of the inputs and exit")
	fs.IntVar(&opts.history, "history", 0, "Print the last N recorded runs and exit")
	fs.StringVar(&opts.historyFormat, "history-format", "tsv", "Run history format: tsv or json")
	fs.BoolVar(&opts.noColor, "no-color", false, "Disable colored text output")
	fs.BoolVar(&opts.verbose, "verbose", false, "Enable verbose logging")
	fs.BoolVar(&opts.version, "version", false, "Print version and exit")

	if err := fs.Parse(args); err != nil {
		return cliOptions{}, err
	}

	opts.args = fs.Args()
	return opts, nil
}
