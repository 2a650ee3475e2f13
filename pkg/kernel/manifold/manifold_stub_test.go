//go:build !manifold

package manifold

import (
	"testing"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/chazu/integral/pkg/kernel"
)

func TestNewReturnsError(t *testing.T) {
	k, err := New()
	if err == nil {
		t.Fatal("New() error = nil, want non-nil error when manifold tag is not set")
	}
	if k != nil {
		t.Fatal("New() returned non-nil kernel, want nil when manifold tag is not set")
	}
	if !errors.IsType(err, kernel.ErrTypeUnavailable) {
		t.Errorf("New() error type = %q, want %q", errors.Type(err), kernel.ErrTypeUnavailable)
	}
}
