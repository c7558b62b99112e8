package cli

import (
	"github.com/spf13/cobra"

	"github.com/hnrobert/key2root/internal/keystore"
	"github.com/hnrobert/key2root/internal/logger"
)

// NewRemoveKeyCommand builds key2root-rmkey.
func NewRemoveKeyCommand(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:                   "key2root-rmkey user key-name ...",
		Short:                 "Remove keys of a user",
		Args:                  cobra.MinimumNArgs(2),
		DisableFlagsInUseLine: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, names := args[0], args[1:]

			failed := false
			if err := keystore.ValidatePrincipal(user); err != nil {
				logger.Error("%v", err)
				failed = true
			}
			for _, n := range names {
				if err := keystore.ValidateKeyName(n); err != nil {
					logger.Error("%v", err)
					failed = true
				}
			}
			if failed {
				return &ExitError{Code: 1}
			}

			store, err := env.store()
			if err != nil {
				return fail(err)
			}
			missing, err := store.Remove(user, names)
			if err != nil {
				return fail(err)
			}
			for _, n := range missing {
				logger.Error("key not found for %s: %s", user, n)
			}
			if len(missing) > 0 {
				return &ExitError{Code: 1}
			}
			logger.Info("removed %d key(s) for %s", len(names), user)
			return nil
		},
	}
}
