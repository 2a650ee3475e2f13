package export

import (
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/chazu/integral/pkg/kernel"
	"github.com/chazu/integral/pkg/kernel/sdfx"
)

// WriteSTL writes meshes to a single binary STL file.
func WriteSTL(path string, meshes []*kernel.Mesh) error {
	if err := sdfx.SaveSTL(path, meshes...); err != nil {
		return errors.New("writing stl failed").
			WithType(ErrTypeExport).
			WithTag("path", path).
			WithTag("meshes", len(meshes)).
			Wrap(err)
	}
	return nil
}
