// Package control
// Author: momentics <momentics@gmail.com>
//
// Driver-side configuration and runtime counters for lpump.
//
// Provides:
//   - YAML configuration with defaults and validation
//   - A concurrent-safe metrics registry fed by connection events
package control
