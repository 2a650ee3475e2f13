//go:build !manifold

// Package manifold provides a CGo-based geometry kernel binding to the
// Manifold library. Without the "manifold" build tag New reports the kernel
// as unavailable and callers fall back to sdfx.
//
// Build with: go build -tags=manifold
package manifold

import (
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/chazu/integral/pkg/kernel"
)

// New returns an error of type kernel.ErrTypeUnavailable.
func New() (kernel.Kernel, error) {
	return nil, errors.New("manifold kernel not available: build with -tags=manifold").
		WithType(kernel.ErrTypeUnavailable)
}
