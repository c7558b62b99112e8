package usermgr

// Package usermgr reads the system identity database from host files:
//   <Root>/etc/passwd
//   <Root>/etc/group
//
// It resolves the caller of key2root to the principals its keys are stored
// under, and the target identity to the home, shell and groups the executed
// command runs with.
