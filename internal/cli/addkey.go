package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hnrobert/key2root/internal/keyhash"
	"github.com/hnrobert/key2root/internal/keystore"
	"github.com/hnrobert/key2root/internal/logger"
	"github.com/hnrobert/key2root/internal/secret"
)

// NewAddKeyCommand builds key2root-addkey.
func NewAddKeyCommand(env *Env) *cobra.Command {
	var replace, precomputed bool
	cmd := &cobra.Command{
		Use:                   "key2root-addkey [-r] user key-name [hash-params] | [-r] -h user key-name hash",
		Short:                 "Add a key for a user, read from standard input",
		Args:                  cobra.RangeArgs(2, 3),
		DisableFlagsInUseLine: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if precomputed && len(args) != 3 {
				return &UsageError{Msg: "-h requires a hash"}
			}
			user, keyName := args[0], args[1]

			failed := false
			if err := keystore.ValidatePrincipal(user); err != nil {
				logger.Error("%v", err)
				failed = true
			}
			if err := keystore.ValidateKeyName(keyName); err != nil {
				logger.Error("%v", err)
				failed = true
			}
			if precomputed {
				if err := keystore.ValidateHash(args[2]); err != nil {
					logger.Error("%v", err)
					failed = true
				}
			} else if isTerminal(env.Stdin) {
				logger.Error("standard input must not be a TTY.")
				failed = true
			}
			if failed {
				return &ExitError{Code: 1}
			}

			store, err := env.store()
			if err != nil {
				return fail(err)
			}

			var hash string
			if precomputed {
				hash = args[2]
			} else {
				params := env.Config.HashParams
				if len(args) == 3 {
					params = args[2]
				}
				if hash, err = hashStdin(env, params); err != nil {
					return fail(err)
				}
			}

			if err := store.Add(user, keystore.Record{Name: keyName, Hash: hash}, replace); err != nil {
				return fail(err)
			}
			logger.Info("added key %s for %s", keyName, user)
			return nil
		},
	}
	// -h is taken by --hash, so help keeps only its long form.
	cmd.Flags().Bool("help", false, "help for key2root-addkey")
	cmd.Flags().BoolVarP(&replace, "replace", "r", false, "replace an existing key of the same name")
	cmd.Flags().BoolVarP(&precomputed, "hash", "h", false, "store a precomputed hash instead of reading a key")
	return cmd
}

// hashStdin reads the key from standard input and hashes it with params.
func hashStdin(env *Env, params string) (string, error) {
	sec, err := secret.ReadAll(env.Stdin)
	if err != nil {
		return "", fmt.Errorf("read <stdin>: %w", err)
	}
	defer sec.Destroy()
	return keyhash.HashString(sec.Bytes(), params)
}
