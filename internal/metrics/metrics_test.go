package metrics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_Counters(t *testing.T) {
	r := New()

	r.PasswordGenerated()
	r.PasswordGenerated()
	r.CredentialStored()
	r.CredentialRevealed()
	r.CredentialDeleted()
	r.CryptoFailure(KindAuthentication)
	r.CryptoFailure(KindAuthentication)
	r.CryptoFailure(KindDecoding)
	r.StoreError("put")

	assert.Equal(t, 2.0, testutil.ToFloat64(r.generated))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.stored))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.revealed))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.deleted))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.cryptoFailures.WithLabelValues(KindAuthentication)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.cryptoFailures.WithLabelValues(KindDecoding)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.storeErrors.WithLabelValues("put")))
}

func TestRecorder_NilIsNoop(t *testing.T) {
	var r *Recorder

	assert.NotPanics(t, func() {
		r.PasswordGenerated()
		r.CredentialStored()
		r.CredentialRevealed()
		r.CredentialDeleted()
		r.CryptoFailure(KindOther)
		r.StoreError("find")
	})
}

func TestRecorder_WriteTextfile(t *testing.T) {
	r := New()
	r.CredentialStored()

	path := filepath.Join(t.TempDir(), "credvault.prom")
	require.NoError(t, r.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "credvault_credentials_stored_total 1")
}

func TestRecorder_WriteTextfileBadPath(t *testing.T) {
	r := New()

	err := r.WriteTextfile(filepath.Join(t.TempDir(), "missing", "dir", "x.prom"))
	require.Error(t, err)
}
