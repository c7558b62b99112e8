package hostfs

// Package hostfs provides safe access helpers for root-owned host files.
//
// Every host path is resolved under Root, which is "/" on a real system and a
// scratch directory in tests:
//   /etc/passwd        -> <Root>/etc/passwd
//   /etc/group         -> <Root>/etc/group
//   /etc/key2root.yaml -> <Root>/etc/key2root.yaml
//   /etc/key2root/     -> <Root>/etc/key2root/
//
// Files are never edited in place. WriteFileAtomic writes a sibling "<path>~"
// and renames it over the original.
