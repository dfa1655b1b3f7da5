// Package metrics records vault activity as Prometheus metrics. The CLI is
// short-lived, so metrics are exported by writing a node-exporter textfile
// rather than serving a scrape endpoint.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Failure kinds reported through CryptoFailure.
const (
	KindAuthentication = "authentication"
	KindDecoding       = "decoding"
	KindOther          = "other"
)

// Recorder owns a private registry and the vault's counters. The zero value is
// not usable; a nil *Recorder is a valid no-op.
type Recorder struct {
	registry *prometheus.Registry

	generated      prometheus.Counter
	stored         prometheus.Counter
	revealed       prometheus.Counter
	deleted        prometheus.Counter
	cryptoFailures *prometheus.CounterVec
	storeErrors    *prometheus.CounterVec
}

// New creates a Recorder with all counters registered.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		generated: factory.NewCounter(prometheus.CounterOpts{
			Name: "credvault_passwords_generated_total",
			Help: "Total number of passwords generated",
		}),
		stored: factory.NewCounter(prometheus.CounterOpts{
			Name: "credvault_credentials_stored_total",
			Help: "Total number of credentials encrypted and stored",
		}),
		revealed: factory.NewCounter(prometheus.CounterOpts{
			Name: "credvault_credentials_revealed_total",
			Help: "Total number of credentials successfully decrypted",
		}),
		deleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "credvault_credentials_deleted_total",
			Help: "Total number of credentials deleted",
		}),
		cryptoFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "credvault_crypto_failures_total",
			Help: "Total number of failed decryptions by kind",
		}, []string{"kind"}),
		storeErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "credvault_store_errors_total",
			Help: "Total number of credential store failures by operation",
		}, []string{"op"}),
	}
}

func (r *Recorder) PasswordGenerated() {
	if r != nil {
		r.generated.Inc()
	}
}

func (r *Recorder) CredentialStored() {
	if r != nil {
		r.stored.Inc()
	}
}

func (r *Recorder) CredentialRevealed() {
	if r != nil {
		r.revealed.Inc()
	}
}

func (r *Recorder) CredentialDeleted() {
	if r != nil {
		r.deleted.Inc()
	}
}

// CryptoFailure counts a failed decryption; kind is one of the Kind constants.
func (r *Recorder) CryptoFailure(kind string) {
	if r != nil {
		r.cryptoFailures.WithLabelValues(kind).Inc()
	}
}

// StoreError counts a store failure for op ("put", "find", ...).
func (r *Recorder) StoreError(op string) {
	if r != nil {
		r.storeErrors.WithLabelValues(op).Inc()
	}
}

// Gatherer exposes the private registry, e.g. for tests.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}

// WriteTextfile atomically writes all metrics to path in the text exposition
// format understood by the node-exporter textfile collector.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
