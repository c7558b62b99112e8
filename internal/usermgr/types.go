package usermgr

type PasswdEntry struct {
	Name   string
	Passwd string
	UID    int
	GID    int
	Gecos  string
	Home   string
	Shell  string
}

type GroupEntry struct {
	Name    string
	Passwd  string
	GID     int
	Members []string
}

// Identity is a resolved system identity.
type Identity struct {
	Name   string
	UID    int
	GID    int
	Groups []int // supplementary group ids, primary gid included
	Home   string
	Shell  string
}
