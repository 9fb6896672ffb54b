package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/vk/arcanebooks/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// stringList collects the values of a repeatable flag.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("arcanebooks", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
Arcanebooks - compiles spell effects and keeps them in sync.

Usage:
  arcanebooks [options] [EFFECTS_FILE]

Arguments:
  EFFECTS_FILE
    Path to the effects file. It is created from the configured defaults
    when missing.

Options:
`)
		flagSet.PrintDefaults()
	}

	var configPaths, messages, present stringList
	flagSet.Var(&configPaths, "config", "Path to an HCL config file or directory. Repeatable.")
	effectsFlag := flagSet.String("effects", "", "Path to the effects file.")
	eFlag := flagSet.String("e", "", "Path to the effects file (shorthand).")
	logFormatFlag := flagSet.String("log-format", "", "Log output format. Options: 'text' or 'json'. Defaults to the config, then 'text'.")
	logLevelFlag := flagSet.String("log-level", "", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	adminPortFlag := flagSet.Int("admin-port", 0, "Port for the admin HTTP server with -serve. 0 uses the config.")
	syncURLFlag := flagSet.String("sync-url", "", "socket.io URL of the replica hub with -serve.")
	printFlag := flagSet.Bool("print", false, "Print the serialized effects after loading.")
	castFlag := flagSet.String("cast", "", "Cast the named effect against a logging world.")
	flagSet.Var(&messages, "message", "Spell message set before -cast. Repeatable.")
	flagSet.Var(&present, "present", "Name the logging world detects during -cast. Repeatable.")
	serveFlag := flagSet.Bool("serve", false, "Run the admin server and replica until interrupted.")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	path := ""
	if *effectsFlag != "" {
		path = *effectsFlag
	} else if *eFlag != "" {
		path = *eFlag
	} else if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}
	if flagSet.NArg() > 1 {
		return nil, false, &ExitError{Code: 2, Message: "at most one EFFECTS_FILE may be given"}
	}
	slog.Debug("Effects path determined.", "path", path)

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "" && logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "", "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		ConfigPaths: configPaths,
		EffectsPath: path,
		LogFormat:   logFormat,
		LogLevel:    logLevel,
		AdminPort:   *adminPortFlag,
		SyncURL:     *syncURLFlag,
		Print:       *printFlag,
		Cast:        *castFlag,
		Messages:    messages,
		Present:     present,
		Serve:       *serveFlag,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
