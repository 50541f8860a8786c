// SPDX-License-Identifier: MPL-2.0

// Package config loads the trainctl configuration with Viper, using CUE as the
// file format.
//
// The file is looked up at an explicit --config path, then
// $XDG_CONFIG_HOME/trainctl/config.cue (~/.config on Linux, the platform
// equivalent elsewhere), then ./trainctl.cue. Without a file the defaults
// apply. Every file is validated against the embedded #Config schema
// (config_schema.cue). Scalar settings can be overridden through TRAINCTL_
// environment variables, e.g. TRAINCTL_PARALLELISM=8 or TRAINCTL_LOG_LEVEL=debug.
package config
