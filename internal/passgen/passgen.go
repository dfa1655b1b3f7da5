// Package passgen generates random passwords from a configurable alphabet.
package passgen

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
	"strings"

	"github.com/ericfisherdev/credvault/internal/domain/model"
)

// Character classes. Lowercase is always part of the alphabet.
const (
	Lowercase = "abcdefghijklmnopqrstuvwxyz"
	Uppercase = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	Digits    = "0123456789"
	Symbols   = "!@#$%^&*?"
)

// MaxLength bounds a single request.
const MaxLength = 4096

// Alphabet returns the candidate characters for policy.
func Alphabet(policy model.PasswordPolicy) string {
	var sb strings.Builder
	sb.WriteString(Lowercase)
	if policy.Upper {
		sb.WriteString(Uppercase)
	}
	if policy.Digits {
		sb.WriteString(Digits)
	}
	if policy.Symbols {
		sb.WriteString(Symbols)
	}
	return sb.String()
}

// Generator draws password characters from a cryptographically secure source.
// Each character is sampled independently and uniformly with replacement, so a
// requested class is likely but not guaranteed to appear in any one password.
type Generator struct {
	rand io.Reader
}

// New returns a Generator reading from crypto/rand.
func New() *Generator {
	return &Generator{rand: rand.Reader}
}

// NewWithReader returns a Generator reading from r. Only tests should use it.
func NewWithReader(r io.Reader) *Generator {
	return &Generator{rand: r}
}

// Generate returns a password of policy.Length characters. Lengths outside
// 1..MaxLength are rejected with a *model.GenerationError.
func (g *Generator) Generate(policy model.PasswordPolicy) (string, error) {
	if policy.Length <= 0 || policy.Length > MaxLength {
		return "", &model.GenerationError{Length: policy.Length, Err: model.ErrInvalidLength}
	}

	alphabet := Alphabet(policy)
	size := big.NewInt(int64(len(alphabet)))

	out := make([]byte, policy.Length)
	for i := range out {
		n, err := rand.Int(g.rand, size)
		if err != nil {
			return "", &model.GenerationError{Length: policy.Length, Err: fmt.Errorf("read random: %w", err)}
		}
		out[i] = alphabet[n.Int64()]
	}
	return string(out), nil
}
