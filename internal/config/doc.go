// Package config provides centralized configuration management for the
// predictive-maintenance dashboard. It loads configuration from multiple
// sources, validates it, and exposes a type-safe struct to the rest of the
// application.
//
// # Configuration Sources
//
// Configuration is assembled in the following order, later sources winning:
//
//	1. Default values (Default)
//	2. A YAML configuration file (config.yaml, configs/config.yaml or PM_CONFIG_FILE)
//	3. Environment variables
//
// # Environment Variables
//
// All environment variables follow the pattern PM_<SECTION>_<FIELD>:
//
//	PM_SERVER_PORT=8501
//	PM_LOGGING_LEVEL=debug
//	PM_MODEL_TREES=100
//	PM_MODEL_SEED=42
//	PM_PRESENTATION_AUTOPLAY_INTERVAL=3s
//	PM_TELEMETRY_TRACE_EXPORTER=stdout
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	srv := &http.Server{Addr: cfg.Address()}
package config
