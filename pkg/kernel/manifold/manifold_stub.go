//go:build !manifold

// Package manifold is a geometry kernel backed by the Manifold C library.
// Without the "manifold" build tag New reports ErrUnavailable.
package manifold

import (
	"errors"

	"github.com/chazu/mend/pkg/kernel"
)

// ErrUnavailable is returned by New in builds without manifoldc.
var ErrUnavailable = errors.New("manifold kernel not available: build with -tags=manifold")

func New() (kernel.Kernel, error) {
	return nil, ErrUnavailable
}
