// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
package model

import (
	"context"
	"fmt"
	"io/fs"
	"sort"

	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/layergen/internal/ctxlog"
	"github.com/specialistvlad/layergen/internal/fsutil"
)

// Parse decodes a single HCL source into a catalog.
func Parse(ctx context.Context, src []byte, filename string) (*Catalog, error) {
	return parseWith(ctx, hclparse.NewParser(), src, filename)
}

func parseWith(ctx context.Context, parser *hclparse.Parser, src []byte, filename string) (*Catalog, error) {
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", filename, diags)
	}
	catalog, diags := DecodeBody(ctx, file.Body)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", filename, diags)
	}
	return catalog, nil
}

// LoadDir loads every .hcl file below path, in lexical order.
func LoadDir(ctx context.Context, path string) (*Catalog, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading workflows from directory...", "path", path)

	files, err := fsutil.FindFilesByExtension(path, ".hcl")
	if err != nil {
		return nil, fmt.Errorf("failed to walk workflow directory %s: %w", path, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .hcl workflow files found in %s", path)
	}

	parser := hclparse.NewParser()
	catalog := NewCatalog()
	for _, f := range files {
		src, err := fsutil.ReadFile(f)
		if err != nil {
			return nil, err
		}
		c, err := parseWith(ctx, parser, src, f)
		if err != nil {
			return nil, err
		}
		catalog.Merge(c)
		logger.Debug("Loaded workflow file.", "file", f, "workflows", len(c.Workflows))
	}

	logger.Info("Workflows loaded.", "path", path, "files", len(files), "workflows", len(catalog.Workflows))
	return catalog, nil
}

// LoadFS loads every .hcl file at the root of fsys. It is used for the
// catalog compiled into the binary.
func LoadFS(ctx context.Context, fsys fs.FS) (*Catalog, error) {
	files, err := fs.Glob(fsys, "*.hcl")
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .hcl workflow files found")
	}
	sort.Strings(files)

	parser := hclparse.NewParser()
	catalog := NewCatalog()
	for _, f := range files {
		src, err := fs.ReadFile(fsys, f)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", f, err)
		}
		c, err := parseWith(ctx, parser, src, f)
		if err != nil {
			return nil, err
		}
		catalog.Merge(c)
	}
	ctxlog.FromContext(ctx).Debug("Embedded workflows loaded.", "files", len(files), "workflows", len(catalog.Workflows))
	return catalog, nil
}
