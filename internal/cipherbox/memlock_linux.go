package cipherbox

import "golang.org/x/sys/unix"

// rlimInfinity is RLIM_INFINITY as the kernel reports it in the 64-bit Rlimit.
const rlimInfinity = ^uint64(0)

func memlockLimit() (uint64, bool, error) {
	var rl unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_MEMLOCK, &rl); err != nil {
		return 0, false, err
	}
	if rl.Cur == rlimInfinity {
		return 0, false, nil
	}
	return rl.Cur, true, nil
}
