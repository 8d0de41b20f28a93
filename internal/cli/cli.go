// Package cli holds what the lime binaries share: diagnostics output,
// logging setup, configuration and backend selection.
package cli

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/fatih/color"
	"github.com/tliron/commonlog"

	"github.com/CapZTr/lime/internal/backend"
	"github.com/CapZTr/lime/internal/backend/reference"
	"github.com/CapZTr/lime/internal/config"
	"github.com/CapZTr/lime/internal/errors"
)

// ConfigureLogging sets the log verbosity. Zero logs errors only.
func ConfigureLogging(verbosity int) {
	commonlog.Configure(verbosity, nil)
}

// FormatDuration renders d with a unit suited to its size.
func FormatDuration(d time.Duration) string {
	switch {
	case d >= time.Minute:
		return fmt.Sprintf("%.2fmin", d.Minutes())
	case d >= time.Second:
		return fmt.Sprintf("%.2fs", d.Seconds())
	case d >= time.Millisecond:
		return fmt.Sprintf("%.1fms", float64(d.Nanoseconds())/1000000.0)
	case d >= time.Microsecond:
		return fmt.Sprintf("%.1fμs", float64(d.Nanoseconds())/1000.0)
	default:
		return fmt.Sprintf("%dns", d.Nanoseconds())
	}
}

// Report writes err to w. Diagnostics get the full rendering with a source
// excerpt when their file can be read.
func Report(w io.Writer, err error) {
	var ce errors.CompilerError
	if !stderrors.As(err, &ce) {
		fmt.Fprintf(w, "%s: %s\n", color.RedString("error"), err)
		return
	}
	var source string
	if name := ce.Position.Filename; name != "" && ce.Position.Line > 0 {
		if data, rerr := os.ReadFile(name); rerr == nil {
			source = string(data)
		}
	}
	fmt.Fprint(w, errors.NewErrorReporter(ce.Position.Filename, source).FormatError(ce))
}

// LoadConfig loads path, reporting failures as diagnostics.
func LoadConfig(path string) (config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, errors.InvalidConfig(path, err)
	}
	return cfg, nil
}

// Backend returns the backend named by the configuration: a server process
// when a command is configured, the reference backend otherwise.
func Backend(cfg config.Bench) backend.Backend {
	if cfg.Backend == "" {
		return reference.New()
	}
	return &backend.Remote{Path: cfg.Backend, Args: cfg.BackendArgs}
}

// BackendError turns a session error into a diagnostic. A backend command
// that cannot be started is reported as unavailable.
func BackendError(cfg config.Bench, err error) error {
	var ce errors.CompilerError
	if stderrors.As(err, &ce) {
		return ce
	}
	if cfg.Backend != "" && (stderrors.Is(err, exec.ErrNotFound) || stderrors.Is(err, os.ErrNotExist) || stderrors.Is(err, os.ErrPermission)) {
		return errors.BackendUnavailable(cfg.Backend, err)
	}
	return errors.BackendFailure(err)
}

// Succeeded prints a green completion banner.
func Succeeded(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, color.GreenString(format, args...))
}

// Failed prints a red failure banner.
func Failed(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, color.RedString(format, args...))
}
