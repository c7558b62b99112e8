package cli

import (
	"bufio"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hnrobert/key2root/internal/keystore"
	"github.com/hnrobert/key2root/internal/logger"
)

// NewListKeysCommand builds key2root-lskeys.
func NewListKeysCommand(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:                   "key2root-lskeys [user] ...",
		Short:                 "List stored keys",
		DisableFlagsInUseLine: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := env.store()
			if err != nil {
				return fail(err)
			}
			users := args
			if len(users) == 0 {
				if users, err = store.Principals(); err != nil {
					return fail(err)
				}
			}

			w := bufio.NewWriter(env.Stdout)
			failed := false
			for _, u := range users {
				err := store.List(u, func(r keystore.Record) {
					fmt.Fprintf(w, "%s %s %s\n", u, r.Name, r.Hash)
				})
				if err != nil {
					// Damaged lines were reported while scanning.
					if !errors.Is(err, keystore.ErrDamaged) {
						logger.Error("%v", err)
					}
					failed = true
				}
			}
			if err := w.Flush(); err != nil {
				return fail(fmt.Errorf("print: %w", err))
			}
			if failed {
				return &ExitError{Code: 1}
			}
			return nil
		},
	}
}
