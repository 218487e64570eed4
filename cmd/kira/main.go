package main

import (
	"flag"
	"fmt"
	"os"

	"kira/internal/evaluator"
	"kira/internal/lexer"
	"kira/internal/logging"
	"kira/internal/object"
	"kira/internal/parser"
	"kira/internal/repl"
	"kira/internal/util"
)

var (
	Version   = "dev"
	BuildDate = "unknown"
	Commit    = "unknown"

	help     bool
	version  bool
	logLevel string
	logFile  string
	evalExpr string
)

func init() {
	flag.BoolVar(&help, "help", false, "Display help information and exit")
	flag.BoolVar(&help, "h", false, "Display help information and exit")
	flag.BoolVar(&version, "version", false, "Display version information and exit")
	flag.BoolVar(&version, "v", false, "Display version information and exit")
	flag.StringVar(&evalExpr, "e", "", "Evaluate the given source string as a program")
	flag.StringVar(&logLevel, "log-level", "NONE", "Log level: trace, debug, info, warn, error, none")
	flag.StringVar(&logFile, "log-file", "", "Log file path (if not set, logs to stderr)")
}

func main() {
	flag.Parse()

	logging.InitLogger(logLevel, logFile, true)
	defer logging.Close()

	cfg := util.Configuration{Version: Version, BuildDate: BuildDate, Commit: Commit}
	logging.Info("kira starting (version %s, build %s)", cfg.Version, cfg.Commit)
	defer logging.Info("kira shutting down")

	if version {
		printVersion(cfg)
		return
	}
	if help {
		printHelp(cfg)
		return
	}

	if evalExpr != "" {
		logging.Debug("running expression mode")
		os.Exit(runSource(evalExpr, "<expr>"))
	}

	if flag.NArg() > 0 {
		logging.Debug("running file mode: %s", flag.Arg(0))
		os.Exit(runFile(flag.Arg(0)))
	}

	logging.Debug("starting REPL")
	repl.Start(os.Stdin, os.Stdout)
}

func runFile(path string) int {
	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
		return 1
	}
	logging.Debug("loaded file %s (%d bytes)", path, len(src))
	return runSource(string(src), path)
}

func runSource(src, filename string) int {
	l := lexer.New(src)
	p := parser.New(l)
	program := p.ParseProgram()
	if err := p.Err(); err != nil {
		reportDiagnostic(filename, src, err)
		return 2
	}

	env := object.NewRootEnv(evaluator.Builtins())
	val, err := evaluator.New().Eval(program, env)
	if err != nil {
		reportDiagnostic(filename, src, err)
		return 1
	}
	if _, isNull := val.(*object.Null); !isNull {
		fmt.Println(val.Inspect())
	}
	return 0
}

// positioned is satisfied by lexer.Error, parser.Error, and
// evaluator.RuntimeError; used to print source context under the
// "file:line:col: <kind>: <message>" diagnostic line.
type positioned interface {
	Line() int
	Column() int
}

// reportDiagnostic prints "file:line:col: <kind>: <message>" to stderr,
// followed by two lines of source context with a caret under the
// offending column.
func reportDiagnostic(filename, src string, err error) {
	fmt.Fprintf(os.Stderr, "%s:%s\n", filename, err.Error())
	if pe, ok := err.(positioned); ok && filename != "<expr>" {
		fmt.Fprintln(os.Stderr, util.GetContextLines(src, pe.Line(), pe.Column(), 0))
	}
}

func printVersion(cfg util.Configuration) {
	fmt.Printf("kira version 'v%s' %s %s\n", cfg.Version, cfg.BuildDate, cfg.Commit)
}

func printHelp(cfg util.Configuration) {
	fmt.Printf(`Usage: kira [options] [filename]

Options:
  -e <source>        Evaluate the given source string as a program.
  -help              Display this help information and exit.
  -version           Display version information and exit.
  -log-level <level> Set the log level: trace, debug, info, warn, error, none. Default is 'none'.
  -log-file <path>   Specify a log file to write logs. Default is stderr.

Details:
This is the Kira programming language. With no arguments it starts an
interactive REPL; given a file it lexes, parses, and executes it.

Examples:
  kira                    Start the interactive REPL
  kira program.kira       Execute the given file
  kira -e "1 + 2"         Evaluate an expression and print its value

Version Information:
  Version:    %s
  Build Date: %s
  Commit:     %s
`, cfg.Version, cfg.BuildDate, cfg.Commit)
}
