package model

// DefaultPasswordLength is used when no length is configured.
const DefaultPasswordLength = 12

// PasswordPolicy selects the character classes of a generated password.
// Lowercase letters are always part of the alphabet.
type PasswordPolicy struct {
	Length  int
	Upper   bool
	Digits  bool
	Symbols bool
}

// KDFParams holds the argon2id parameters and salt a passphrase-derived vault
// key was produced with. They are stored once per vault.
type KDFParams struct {
	Salt    []byte
	Time    uint32
	Memory  uint32 // KiB
	Threads uint8
}
