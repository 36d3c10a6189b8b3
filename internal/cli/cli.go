// Package cli parses the command line into Options.
package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"shaderedit/internal/assets"
	"shaderedit/internal/watcher"
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

// Options is the process configuration.
type Options struct {
	ConfigPath string // empty runs the menu instead of the shader editor
	AssetsDir  string
	Debounce   time.Duration
	LogFormat  string
	LogLevel   string
	Width      int
	Height     int
}

// Parse processes command-line arguments. It returns the parsed Options,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*Options, bool, error) {
	flagSet := flag.NewFlagSet("shaderedit", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
shaderedit - live shader editor.

Usage:
  shaderedit [options] [CONFIG_PATH]

Arguments:
  CONFIG_PATH
    Shader-edit config (.json or .hcl), relative to the assets directory.
    Without it the main menu is shown.

Options:
`)
		flagSet.PrintDefaults()
	}

	assetsFlag := flagSet.String("assets", assets.DefaultRoot, "Assets directory that config, shader and library paths are relative to.")
	debounceFlag := flagSet.Duration("debounce", watcher.DefaultDebounce, "Quiet period before a file change triggers a reload.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	widthFlag := flagSet.Int("width", 960, "Window width in pixels.")
	heightFlag := flagSet.Int("height", 720, "Window height in pixels.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	if flagSet.NArg() > 1 {
		return nil, false, &ExitError{Code: 2, Message: "expected at most one CONFIG_PATH"}
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	if *debounceFlag <= 0 {
		return nil, false, &ExitError{Code: 2, Message: "invalid debounce: must be positive"}
	}
	if *widthFlag <= 0 || *heightFlag <= 0 {
		return nil, false, &ExitError{Code: 2, Message: "invalid window size: width and height must be positive"}
	}

	opts := &Options{
		ConfigPath: flagSet.Arg(0),
		AssetsDir:  *assetsFlag,
		Debounce:   *debounceFlag,
		LogFormat:  logFormat,
		LogLevel:   logLevel,
		Width:      *widthFlag,
		Height:     *heightFlag,
	}
	slog.Debug("CLI parser finished successfully.", "options", opts)
	return opts, false, nil
}
