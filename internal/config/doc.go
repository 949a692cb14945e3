// Package config handles configuration loading and merging for speccov.
//
// # Configuration Precedence
//
// Configuration values are resolved in the following order (highest to lowest priority):
//
//  1. CLI flags (--sc-type, --sc-only, --sc-target, --theme, etc.)
//  2. Environment variables (SPECCOV_TYPE, SPECCOV_ONLY, SPECCOV_TARGET, NO_COLOR)
//  3. YAML config file (.speccov.yaml in the working directory or a parent, or --config)
//  4. Hardcoded defaults
//
// When a higher-priority source sets a value, it overrides any lower-priority values.
//
// # Collector Options
//
// The collector options (spec_dir, spec_endpoint, default_branch, branch_env,
// exclude) come only from the YAML file. Relative paths in the file are
// resolved against the file's directory.
//
// # Environment File
//
// env_file names a dotenv file consulted for variables the process
// environment does not set. It only feeds link building (the branch
// variable) and re-run detection; it never changes coverage.
//
// # Environment Variables
//
//   - SPECCOV_TYPE: collector type, same as --sc-type
//   - SPECCOV_ONLY: "true" or "1" enables lint mode
//   - SPECCOV_TARGET: lint target, 0-100
//   - NO_COLOR: any true value disables colors
package config
