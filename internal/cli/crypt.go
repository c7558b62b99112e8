package cli

import (
	"bufio"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hnrobert/key2root/internal/logger"
)

// NewCryptCommand builds key2root-crypt, which prints the hash key2root-addkey
// would store for the key on standard input.
func NewCryptCommand(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:                   "key2root-crypt [hash-params]",
		Short:                 "Hash a key read from standard input",
		Args:                  cobra.MaximumNArgs(1),
		DisableFlagsInUseLine: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if isTerminal(env.Stdin) {
				logger.Error("standard input must not be a TTY.")
				return &ExitError{Code: 1}
			}
			params := env.Config.HashParams
			if len(args) == 1 {
				params = args[0]
			}
			hash, err := hashStdin(env, params)
			if err != nil {
				return fail(err)
			}
			w := bufio.NewWriter(env.Stdout)
			fmt.Fprintf(w, "%s\n", hash)
			if err := w.Flush(); err != nil {
				return fail(fmt.Errorf("printf: %w", err))
			}
			return nil
		},
	}
}
