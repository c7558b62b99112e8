package usermgr

type PasswdFile struct {
	entries []*PasswdEntry
}

func LoadPasswd(path string) (*PasswdFile, error) {
	entries, err := loadColonFile(path, 7, func(parts []string) (*PasswdEntry, error) {
		uid, err := atoi(parts[2], "passwd.uid")
		if err != nil {
			return nil, err
		}
		gid, err := atoi(parts[3], "passwd.gid")
		if err != nil {
			return nil, err
		}
		return &PasswdEntry{
			Name:   parts[0],
			Passwd: parts[1],
			UID:    uid,
			GID:    gid,
			Gecos:  parts[4],
			Home:   parts[5],
			Shell:  parts[6],
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return &PasswdFile{entries: entries}, nil
}

// FindByUID returns the first entry for uid.
func (f *PasswdFile) FindByUID(uid int) *PasswdEntry {
	for _, e := range f.entries {
		if e.UID == uid {
			return e
		}
	}
	return nil
}
