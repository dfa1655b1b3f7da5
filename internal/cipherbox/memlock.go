package cipherbox

import (
	"fmt"
	"os"
)

// lockedPages is the locked memory, in pages, New insists on being available:
// the key buffer plus headroom for a second Box and memguard's own use.
const lockedPages = 4

// lockLimit reports the RLIMIT_MEMLOCK soft limit in bytes. limited is false
// when there is no limit or the platform has none to query.
var lockLimit = memlockLimit

func checkLockLimit() error {
	limit, limited, err := lockLimit()
	if err != nil || !limited {
		return nil
	}
	need := uint64(lockedPages * os.Getpagesize())
	if limit < need {
		return fmt.Errorf("%w: RLIMIT_MEMLOCK is %d bytes, need at least %d (raise it with ulimit -l or LimitMEMLOCK)",
			ErrMemoryLockLimit, limit, need)
	}
	return nil
}
