package cipherbox

import (
	"bytes"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/credvault/internal/domain/model"
)

// testKey returns a fresh 32-byte key filled with b. New wipes its argument,
// so every caller gets its own slice.
func testKey(b byte) []byte {
	return bytes.Repeat([]byte{b}, KeySize)
}

func newTestBox(t *testing.T, b byte) *Box {
	t.Helper()
	box, err := New(testKey(b))
	require.NoError(t, err)
	t.Cleanup(box.Destroy)
	return box
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("entropy exhausted") }

func TestNew_RejectsWrongKeySize(t *testing.T) {
	tests := []struct {
		name string
		key  []byte
	}{
		{name: "nil", key: nil},
		{name: "short", key: make([]byte, 16)},
		{name: "long", key: make([]byte, 33)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			box, err := New(tt.key)
			assert.Nil(t, box)
			require.ErrorIs(t, err, ErrInvalidKeySize)
		})
	}
}

func TestNew_WipesCallerKey(t *testing.T) {
	key := testKey(0x2a)

	_, err := New(key)
	require.NoError(t, err)

	assert.Equal(t, make([]byte, KeySize), key)
}

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	box := newTestBox(t, 7)

	tests := []struct {
		name      string
		plaintext []byte
	}{
		{name: "empty", plaintext: []byte{}},
		{name: "ascii", plaintext: []byte("Tr0ub4dor&3")},
		{name: "unicode", plaintext: []byte("pässwörd-密码")},
		{name: "binary", plaintext: []byte{0x00, 0xff, 0x10, 0x80}},
		{name: "long", plaintext: bytes.Repeat([]byte("x"), 4096)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ciphertext, nonce, err := box.Encrypt(tt.plaintext)
			require.NoError(t, err)
			assert.Len(t, nonce, NonceSize)
			assert.Len(t, ciphertext, len(tt.plaintext)+Overhead)

			got, err := box.Decrypt(ciphertext, nonce)
			require.NoError(t, err)
			assert.True(t, bytes.Equal(tt.plaintext, got), "round trip must be byte-for-byte")
		})
	}
}

func TestEncrypt_NonceFreshness(t *testing.T) {
	box := newTestBox(t, 1)
	const n = 10000

	seen := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		_, nonce, err := box.Encrypt([]byte("same plaintext"))
		require.NoError(t, err)
		seen[string(nonce)] = struct{}{}
	}

	assert.Len(t, seen, n, "every encryption must use a distinct nonce")
}

func TestEncrypt_RandFailure(t *testing.T) {
	box, err := New(testKey(3), WithRandReader(failingReader{}))
	require.NoError(t, err)

	_, _, err = box.Encrypt([]byte("secret"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rand nonce")
}

func TestDecrypt_TamperedCiphertext(t *testing.T) {
	box := newTestBox(t, 9)
	ciphertext, nonce, err := box.Encrypt([]byte("hunter2"))
	require.NoError(t, err)

	for i := range ciphertext {
		for bit := 0; bit < 8; bit++ {
			tampered := bytes.Clone(ciphertext)
			tampered[i] ^= 1 << bit

			_, err := box.DecryptString(tampered, nonce)
			require.ErrorIs(t, err, model.ErrAuthenticationFailed, "byte %d bit %d", i, bit)
		}
	}
}

func TestDecrypt_TamperedNonce(t *testing.T) {
	box := newTestBox(t, 9)
	ciphertext, nonce, err := box.Encrypt([]byte("hunter2"))
	require.NoError(t, err)

	for i := range nonce {
		for bit := 0; bit < 8; bit++ {
			tampered := bytes.Clone(nonce)
			tampered[i] ^= 1 << bit

			_, err := box.DecryptString(ciphertext, tampered)
			require.ErrorIs(t, err, model.ErrAuthenticationFailed, "byte %d bit %d", i, bit)
		}
	}
}

func TestDecrypt_WrongNonceLength(t *testing.T) {
	box := newTestBox(t, 4)
	ciphertext, nonce, err := box.Encrypt([]byte("secret"))
	require.NoError(t, err)

	for _, n := range [][]byte{nil, nonce[:8], append(bytes.Clone(nonce), 0)} {
		assert.NotPanics(t, func() {
			_, err := box.Decrypt(ciphertext, n)
			assert.ErrorIs(t, err, model.ErrAuthenticationFailed)
		})
	}
}

func TestDecrypt_TruncatedCiphertext(t *testing.T) {
	box := newTestBox(t, 4)
	ciphertext, nonce, err := box.Encrypt([]byte("secret"))
	require.NoError(t, err)

	_, err = box.Decrypt(ciphertext[:Overhead-1], nonce)
	require.ErrorIs(t, err, model.ErrAuthenticationFailed)

	_, err = box.Decrypt(nil, nonce)
	require.ErrorIs(t, err, model.ErrAuthenticationFailed)
}

func TestDecrypt_WrongKey(t *testing.T) {
	k1 := newTestBox(t, 1)
	k2 := newTestBox(t, 2)

	ciphertext, nonce, err := k1.Encrypt([]byte("Tr0ub4dor&3"))
	require.NoError(t, err)

	_, err = k2.DecryptString(ciphertext, nonce)
	require.ErrorIs(t, err, model.ErrAuthenticationFailed)
}

func TestDecryptString_InvalidUTF8(t *testing.T) {
	box := newTestBox(t, 5)
	ciphertext, nonce, err := box.Encrypt([]byte{0xff, 0xfe, 0xfd})
	require.NoError(t, err)

	_, err = box.DecryptString(ciphertext, nonce)
	require.ErrorIs(t, err, model.ErrDecodingFailed)
	assert.NotErrorIs(t, err, model.ErrAuthenticationFailed)

	// Raw Decrypt still succeeds: the bytes authenticate, they just are not text.
	raw, err := box.Decrypt(ciphertext, nonce)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xff, 0xfe, 0xfd}, raw)
}

func TestDestroy(t *testing.T) {
	box, err := New(testKey(6))
	require.NoError(t, err)

	ciphertext, nonce, err := box.Encrypt([]byte("secret"))
	require.NoError(t, err)

	box.Destroy()
	box.Destroy()

	_, _, err = box.Encrypt([]byte("secret"))
	require.ErrorIs(t, err, ErrBoxDestroyed)

	_, err = box.Decrypt(ciphertext, nonce)
	require.ErrorIs(t, err, ErrBoxDestroyed)
}

func TestBox_ConcurrentUse(t *testing.T) {
	box := newTestBox(t, 8)

	const goroutines = 32
	var wg sync.WaitGroup
	wg.Add(goroutines)

	for range goroutines {
		go func() {
			defer wg.Done()
			ciphertext, nonce, err := box.Encrypt([]byte("parallel"))
			if !assert.NoError(t, err) {
				return
			}
			got, err := box.DecryptString(ciphertext, nonce)
			assert.NoError(t, err)
			assert.Equal(t, "parallel", got)
		}()
	}

	wg.Wait()
}

// TestBox_SustainedConcurrentUse hammers one Box from many goroutines. The
// operations must not allocate locked memory per call, or a low RLIMIT_MEMLOCK
// stalls them.
func TestBox_SustainedConcurrentUse(t *testing.T) {
	box := newTestBox(t, 9)
	ciphertext, nonce, err := box.Encrypt([]byte("shared"))
	require.NoError(t, err)

	const (
		goroutines = 256
		iterations = 50
	)
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := range goroutines {
		go func() {
			defer wg.Done()
			for range iterations {
				if i%2 == 0 {
					if _, _, err := box.Encrypt([]byte("fresh")); err != nil {
						t.Error(err)
						return
					}
					continue
				}
				got, err := box.DecryptString(ciphertext, nonce)
				if err != nil || got != "shared" {
					t.Errorf("DecryptString = %q, %v", got, err)
					return
				}
			}
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(30 * time.Second):
		t.Fatal("concurrent Encrypt/Decrypt did not complete")
	}
}

func stubLockLimit(t *testing.T, limit uint64, limited bool, err error) {
	t.Helper()
	orig := lockLimit
	lockLimit = func() (uint64, bool, error) { return limit, limited, err }
	t.Cleanup(func() { lockLimit = orig })
}

func TestNew_MemoryLockLimit(t *testing.T) {
	page := uint64(os.Getpagesize())

	tests := []struct {
		name    string
		limit   uint64
		limited bool
		err     error
		wantErr bool
	}{
		{name: "no limit", limited: false},
		{name: "zero limit", limit: 0, limited: true, wantErr: true},
		{name: "one page", limit: page, limited: true, wantErr: true},
		{name: "exactly enough", limit: lockedPages * page, limited: true},
		{name: "query failure", err: errors.New("getrlimit: ENOSYS")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stubLockLimit(t, tt.limit, tt.limited, tt.err)
			key := testKey(0x33)

			box, err := New(key)

			assert.Equal(t, make([]byte, KeySize), key, "key must be wiped either way")
			if tt.wantErr {
				require.ErrorIs(t, err, ErrMemoryLockLimit)
				assert.Nil(t, box)
				return
			}
			require.NoError(t, err)
			box.Destroy()
		})
	}
}
