package usermgr

import (
	"errors"
	"fmt"

	"github.com/hnrobert/key2root/internal/hostfs"
)

var (
	ErrUserNotFound = errors.New("user not found")
)

const defaultShell = "/bin/sh"

type Manager struct {
	PasswdPath string
	GroupPath  string
}

func NewDefault() (*Manager, error) {
	passwd, err := hostfs.Path(hostfs.EtcPasswdRel)
	if err != nil {
		return nil, err
	}
	group, err := hostfs.Path(hostfs.EtcGroupRel)
	if err != nil {
		return nil, err
	}
	return &Manager{PasswdPath: passwd, GroupPath: group}, nil
}

// LookupUID resolves uid through the passwd file. Supplementary groups are
// not resolved; use Resolve for a target identity.
func (m *Manager) LookupUID(uid int) (*Identity, error) {
	pw, err := LoadPasswd(m.PasswdPath)
	if err != nil {
		return nil, err
	}
	pe := pw.FindByUID(uid)
	if pe == nil {
		return nil, fmt.Errorf("%w: uid %d", ErrUserNotFound, uid)
	}
	return identityOf(pe), nil
}

// Resolve looks up uid and its group memberships.
func (m *Manager) Resolve(uid int) (*Identity, error) {
	id, err := m.LookupUID(uid)
	if err != nil {
		return nil, err
	}
	gr, err := LoadGroup(m.GroupPath)
	if err != nil {
		return nil, err
	}
	id.Groups = gr.GroupsOf(id.Name, id.GID)
	return id, nil
}

func identityOf(pe *PasswdEntry) *Identity {
	shell := pe.Shell
	if shell == "" {
		shell = defaultShell
	}
	home := pe.Home
	if home == "" {
		home = "/"
	}
	return &Identity{
		Name:  pe.Name,
		UID:   pe.UID,
		GID:   pe.GID,
		Home:  home,
		Shell: shell,
	}
}
