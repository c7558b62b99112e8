package cli

import (
	"errors"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/hnrobert/key2root/internal/auth"
	"github.com/hnrobert/key2root/internal/privexec"
	"github.com/hnrobert/key2root/internal/usermgr"
)

// onceValue is a string flag that may be given only once.
type onceValue struct {
	val string
	set bool
}

var _ pflag.Value = (*onceValue)(nil)

func (o *onceValue) String() string { return o.val }
func (o *onceValue) Type() string   { return "string" }

func (o *onceValue) Set(s string) error {
	if o.set {
		return errors.New("may be given only once")
	}
	if s == "" {
		return errors.New("must not be empty")
	}
	o.val, o.set = s, true
	return nil
}

// NewKey2RootCommand builds key2root. Options end at the first non-option
// argument, which names the command to run.
func NewKey2RootCommand(env *Env) *cobra.Command {
	var key onceValue
	var keepEnv bool
	cmd := &cobra.Command{
		Use:                   "key2root [-k key-name] [-e] command [argument] ...",
		Short:                 "Run a command as root after verifying a key read from standard input",
		Args:                  cobra.MinimumNArgs(1),
		DisableFlagsInUseLine: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := env.driver()
			if err != nil {
				return &ExitError{Code: privexec.ExitInternal, Err: err}
			}
			code := d.Run(privexec.Request{
				Stdin:   env.Stdin,
				UID:     env.Getuid(),
				KeyName: key.val,
				KeepEnv: keepEnv,
				Args:    args,
				Environ: env.Environ(),
			})
			if code != 0 {
				return &ExitError{Code: code}
			}
			return nil
		},
	}
	cmd.Flags().SetInterspersed(false)
	cmd.Flags().VarP(&key, "key", "k", "accept only the key with this name")
	cmd.Flags().BoolVarP(&keepEnv, "keep-env", "e", false, "keep the whole environment")
	return cmd
}

func (e *Env) driver() (*privexec.Driver, error) {
	if e.Driver != nil {
		return e.Driver, nil
	}
	store, err := e.store()
	if err != nil {
		return nil, err
	}
	users, err := usermgr.NewDefault()
	if err != nil {
		return nil, err
	}
	return privexec.New(e.Config, auth.New(store), users), nil
}
