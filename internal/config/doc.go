// Package config provides centralized configuration management for povcli.
// It handles loading configuration from multiple sources, validation, and
// provides the resolved file layout passed through the pipeline.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//  1. Environment variables (highest priority)
//  2. YAML configuration file (povcli.yaml)
//  3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern POV_* for namespacing:
//
//	POV_API_BASE_URL=https://api.worldbank.org/pip/v1
//	POV_API_MAX_ATTEMPTS=8
//	POV_PIPELINE_PPP_VERSIONS=2011,2017
//	POV_PATHS_OUTPUT_DIR=data
//	POV_UPLOAD_ENABLED=true
//	POV_LOGGING_LEVEL=debug
//
// Poverty lines, jump bands and percentile bands are structured values and
// can only be set in the YAML file:
//
//	pipeline:
//	  poverty_lines:
//	    2017: [100, 215, 365, 685, 1000, 2000, 3000, 4000]
//	  jump_bands:
//	    2017:
//	      - {from_cents: 215, to_cents: 1000}
//
// # Path Management
//
// PathsConfig.Resolve produces a Paths value with absolute locations for the
// reference inputs (codebook, entity mapping) and the output files.
package config
