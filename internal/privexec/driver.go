// Package privexec runs a command as root for a caller that proved
// possession of one of its keys.
//
// Run goes through a fixed sequence: read the key from standard input,
// authenticate it, forward it into a channel, build the environment, switch
// identity, attach the channel to standard input and exec. The key is erased
// on every path out of Run.
package privexec

import (
	"errors"
	"io"

	"github.com/hnrobert/key2root/internal/auth"
	"github.com/hnrobert/key2root/internal/config"
	"github.com/hnrobert/key2root/internal/forward"
	"github.com/hnrobert/key2root/internal/logger"
	"github.com/hnrobert/key2root/internal/secret"
	"github.com/hnrobert/key2root/internal/usermgr"
)

// Channel is the receiving end handed to the command.
type Channel interface {
	Fd() int
	Close() error
}

// Request is one invocation.
type Request struct {
	Stdin   io.Reader
	UID     int // real uid of the caller
	KeyName string
	KeepEnv bool
	Args    []string
	Environ []string
}

type Driver struct {
	Auth       *auth.Authenticator
	Users      *usermgr.Manager
	EnvKeep    []string
	SecurePath string
	TargetUID  int

	Forward     func(*secret.Secret) (Channel, error)
	SetIdentity func(*usermgr.Identity) error
	Attach      func(fd int) error
	Exec        func(path string, argv, env []string) error
}

// New returns a Driver that raises to root and replaces the process.
func New(cfg config.Config, a *auth.Authenticator, users *usermgr.Manager) *Driver {
	return &Driver{
		Auth:       a,
		Users:      users,
		EnvKeep:    cfg.EnvKeep,
		SecurePath: cfg.SecurePath,
		Forward: func(s *secret.Secret) (Channel, error) {
			r, err := forward.Forward(s)
			if err != nil {
				return nil, err
			}
			return r, nil
		},
		SetIdentity: setIdentity,
		Attach:      attachStdin,
		Exec:        execve,
	}
}

func isAuthFailure(err error) bool {
	return errors.Is(err, auth.ErrKeyNotFound) ||
		errors.Is(err, auth.ErrKeyMismatch) ||
		errors.Is(err, auth.ErrNoKeyVerified)
}

// Run executes req and returns the exit status for the process. It only
// returns on failure unless Exec is replaced.
func (d *Driver) Run(req Request) int {
	if len(req.Args) == 0 {
		logger.Error("no command given")
		return ExitInternal
	}

	sec, err := secret.ReadAll(req.Stdin)
	if err != nil {
		logger.Error("read <stdin>: %v", err)
		return ExitInternal
	}
	defer sec.Destroy()

	caller := auth.Caller{UID: req.UID}
	if id, err := d.Users.LookupUID(req.UID); err == nil {
		caller.Name = id.Name
	} else if !errors.Is(err, usermgr.ErrUserNotFound) {
		logger.Error("%v", err)
		return ExitInternal
	}

	m, err := d.Auth.Authenticate(caller, req.KeyName, sec.Bytes())
	if err != nil {
		if isAuthFailure(err) {
			logger.Error("%s", auth.HumanAuthError(err))
			logger.Info("authentication failed for uid %d: %v", req.UID, err)
			return ExitAuthFailed
		}
		logger.Error("%v", err)
		return ExitInternal
	}
	logger.Info("uid %d authenticated with key %s of %s", req.UID, m.KeyName, m.Principal)

	target, err := d.Users.Resolve(d.TargetUID)
	if err != nil {
		logger.Error("%v", err)
		return ExitInternal
	}

	owned, err := sec.Move()
	if err != nil {
		logger.Error("forward key: %v", err)
		return ExitInternal
	}
	ch, err := d.Forward(owned)
	owned.Destroy()
	if err != nil {
		logger.Error("forward key: %v", err)
		return ExitInternal
	}
	defer ch.Close()

	env, path := Sanitize(req.Environ, target, d.EnvKeep, d.SecurePath), d.SecurePath
	if req.KeepEnv {
		// A kept environment without PATH is searched in secure_path.
		env = req.Environ
		if p, ok := lookupEnv(env, "PATH"); ok {
			path = p
		}
	}

	if err := d.SetIdentity(target); err != nil {
		logger.Error("%v", err)
		return ExitInternal
	}
	if err := d.Attach(ch.Fd()); err != nil {
		logger.Error("%v", err)
		return ExitInternal
	}

	file, err := LookPath(req.Args[0], path)
	if err != nil {
		logger.Error("%v", err)
		return ExitCode(err)
	}
	if err := d.Exec(file, req.Args, env); err != nil {
		err = wrapExec(file, err)
		logger.Error("%v", err)
		return ExitCode(err)
	}
	return 0
}
