package usermgr

import (
	"slices"
	"strings"
)

type GroupFile struct {
	entries []*GroupEntry
}

func LoadGroup(path string) (*GroupFile, error) {
	entries, err := loadColonFile(path, 4, func(parts []string) (*GroupEntry, error) {
		gid, err := atoi(parts[2], "group.gid")
		if err != nil {
			return nil, err
		}
		members := []string{}
		if parts[3] != "" {
			members = strings.Split(parts[3], ",")
		}
		return &GroupEntry{Name: parts[0], Passwd: parts[1], GID: gid, Members: members}, nil
	})
	if err != nil {
		return nil, err
	}
	return &GroupFile{entries: entries}, nil
}

// GroupsOf returns primary followed by the gids of every group listing user
// as a member, without duplicates and in file order.
func (f *GroupFile) GroupsOf(user string, primary int) []int {
	out := []int{primary}
	for _, e := range f.entries {
		if slices.Contains(out, e.GID) {
			continue
		}
		if slices.Contains(e.Members, user) {
			out = append(out, e.GID)
		}
	}
	return out
}
