package keyhash

// Package keyhash is the boundary to the password hashing schemes used for
// stored keys.
//
// Supported encodings:
//   $argon2id$v=19$m=65536,t=3,p=1$<salt>$<digest>   (golang.org/x/crypto/argon2)
//   $argon2i$v=19$...                                (golang.org/x/crypto/argon2)
//   $6$[rounds=N$]<salt>$<digest>                     (sha512-crypt)
//   $5$[rounds=N$]<salt>$<digest>                     (sha256-crypt)
//   $1$<salt>$<digest>                                (md5-crypt, verify only in practice)
//
// A parameter string is an encoded hash without (or with a placeholder for)
// the digest. Verification always recomputes with the parameters carried by
// the stored hash itself.
