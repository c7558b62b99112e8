package hostfs

// Well-known host file locations.
const (
	EtcPasswdRel = "etc/passwd"
	EtcGroupRel  = "etc/group"
	ConfigRel    = "etc/key2root.yaml"
	KeyDirRel    = "etc/key2root"
)

// TempSuffix is appended to a path to name its write-back sibling.
const TempSuffix = "~"
