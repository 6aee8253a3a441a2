// Package config handles loading and validating relay hub configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables (RELAYHUB_* and PORT)
//   - Validation of required fields
//   - Default value handling, including the static device registry seed
//     and the initial shared state snapshot
//
// Configuration is loaded once at startup. There is no runtime reload.
//
// Usage:
//
//	cfg, err := config.LoadOrDefault("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.API.Port)
package config
