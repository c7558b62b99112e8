package auth

// Package auth verifies a key read from standard input against the key files
// of the calling user.
//
// The caller's keys may live under its numeric uid and under its user name;
// both files are searched, uid first. The first record whose hash verifies
// ends the search. Verification uses the parameters stored with each record.
