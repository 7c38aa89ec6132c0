// Package compute provides jobs that run layer pipelines on a remote compute
// service. Each job submits a pipeline for a region and waits for its task to
// finish.
package compute

import (
	"github.com/specialistvlad/layergen/internal/registry"
)

// Pipelines lists every pipeline the compute service exposes.
var Pipelines = []string{
	"calculate_drought",
	"clip_drainage_lines",
	"clip_lulc_v3",
	"clip_nrega_district_block",
	"create_crop_grids",
	"drought_causality",
	"generate_aquifer_vector",
	"generate_clart_layer",
	"generate_cropping_intensity",
	"generate_hydrology",
	"generate_restoration_opportunity",
	"generate_soge_vector",
	"generate_stream_order",
	"generate_swb_layer",
	"generate_tehsil_shape_file_data",
	"generate_terrain_clusters",
	"get_change_detection",
	"lulc_on_plain_cluster",
	"lulc_on_slope_cluster",
	"mws_layer",
	"terrain_raster",
	"tree_health_ccd_raster",
	"tree_health_ccd_vector",
	"tree_health_ch_raster",
	"tree_health_ch_vector",
	"tree_health_overall_change_raster",
	"tree_health_overall_change_vector",
	"vectorise_change_detection",
	"vectorise_lulc",
}

// Module implements the registry.Module interface.
type Module struct {
	Client *Client
}

// Register registers a remote job for every pipeline.
func (m *Module) Register(r *registry.Registry) {
	for _, name := range Pipelines {
		r.RegisterJob(name, m.Client.Job(name))
	}
}
