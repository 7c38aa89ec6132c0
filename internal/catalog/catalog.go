// Package catalog exposes the workflows compiled into the binary and the
// logic for replacing them with a directory of declarations at startup.
package catalog

import (
	"context"
	"embed"
	"io/fs"

	"github.com/specialistvlad/layergen/internal/ctxlog"
	"github.com/specialistvlad/layergen/internal/model"
)

//go:embed workflows/*.hcl
var embedded embed.FS

// Builtin loads the map_1..map_4 workflows shipped with the binary.
func Builtin(ctx context.Context) (*model.Catalog, error) {
	sub, err := fs.Sub(embedded, "workflows")
	if err != nil {
		return nil, err
	}
	return model.LoadFS(ctx, sub)
}

// Load returns the catalog declared in dir, or the built-in one when dir is
// empty.
func Load(ctx context.Context, dir string) (*model.Catalog, error) {
	if dir == "" {
		ctxlog.FromContext(ctx).Debug("No workflow directory configured, using built-in catalog.")
		return Builtin(ctx)
	}
	return model.LoadDir(ctx, dir)
}
