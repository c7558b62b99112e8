// Package cli builds the command line tools of key2root.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/hnrobert/key2root/internal/config"
	"github.com/hnrobert/key2root/internal/keystore"
	"github.com/hnrobert/key2root/internal/logger"
	"github.com/hnrobert/key2root/internal/privexec"
)

// Env is what a command reads from and writes to.
type Env struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Config config.Config

	Getuid  func() int
	Environ func() []string

	// Driver runs key2root; nil builds one from Config.
	Driver *privexec.Driver
}

func DefaultEnv(cfg config.Config) *Env {
	return &Env{
		Stdin:   os.Stdin,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
		Config:  cfg,
		Getuid:  os.Getuid,
		Environ: os.Environ,
	}
}

func (e *Env) store() (*keystore.Store, error) {
	dir, err := e.Config.KeyDir()
	if err != nil {
		return nil, err
	}
	return keystore.New(dir), nil
}

// ExitError ends a command with Code. Err, if set, is logged first.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

func fail(err error) error { return &ExitError{Code: 1, Err: err} }

// UsageError is a bad command line detected after flag parsing.
type UsageError struct {
	Msg string
}

func (e *UsageError) Error() string { return e.Msg }

// Execute runs cmd with args and returns the process exit status. Errors
// that are not ExitError are usage errors and yield usageCode.
func Execute(cmd *cobra.Command, args []string, usageCode int) int {
	cmd.SetArgs(args)
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	err := cmd.Execute()
	if err == nil {
		return 0
	}
	var ee *ExitError
	if errors.As(err, &ee) {
		if ee.Err != nil {
			logger.Error("%v", ee.Err)
		}
		return ee.Code
	}
	logger.Error("%v", err)
	fmt.Fprintf(cmd.ErrOrStderr(), "usage: %s\n", cmd.UseLine())
	return usageCode
}

// Main loads the configuration, runs the command built by newCmd on the
// process arguments and returns the exit status.
func Main(program string, newCmd func(*Env) *cobra.Command, usageCode int) int {
	logger.SetProgram(program)
	cfg, err := config.Load(config.DefaultPath())
	if err != nil {
		logger.Error("%v", err)
		return usageCode
	}
	configureLogger(cfg)
	defer logger.Close()

	env := DefaultEnv(cfg)
	cmd := newCmd(env)
	cmd.SetIn(env.Stdin)
	cmd.SetOut(env.Stdout)
	cmd.SetErr(env.Stderr)
	return Execute(cmd, os.Args[1:], usageCode)
}

// configureLogger applies the logging settings of cfg.
func configureLogger(cfg config.Config) {
	logger.SetVerbose(cfg.Verbose)
	if err := logger.Init(cfg.LogDir); err != nil {
		logger.Warn("log file disabled: %v", err)
	}
}

// isTerminal reports whether r is a terminal.
func isTerminal(r io.Reader) bool {
	f, ok := r.(interface{ Fd() uintptr })
	return ok && term.IsTerminal(int(f.Fd()))
}
