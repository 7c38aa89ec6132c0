package app

import (
	"fmt"

	"github.com/specialistvlad/layergen/internal/registry"
	"github.com/specialistvlad/layergen/modules/compute"
)

// coreModules builds the job modules compiled into the layergen binary.
func coreModules(cfg *Config) ([]registry.Module, error) {
	client, err := compute.NewClient(cfg.ComputeURL,
		compute.WithPollInterval(cfg.ComputePollInterval, 10*cfg.ComputePollInterval))
	if err != nil {
		return nil, fmt.Errorf("failed to configure compute module: %w", err)
	}
	return []registry.Module{
		&compute.Module{Client: client},
	}, nil
}
