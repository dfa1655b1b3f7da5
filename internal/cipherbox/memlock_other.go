//go:build !linux

package cipherbox

func memlockLimit() (uint64, bool, error) {
	return 0, false, nil
}
