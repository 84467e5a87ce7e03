// Package cli implements the oversee command-line interface.
//
// Running oversee with no subcommand starts the dashboard. The other
// commands are thin wrappers around the config and monitor packages:
//
//	oversee              - Live dashboard (needs a terminal)
//	oversee snapshot     - Sample N ticks headlessly, print JSON or a table
//	oversee init         - Create .oversee.yaml
//	oversee doctor       - Check the config and every data source
//	oversee config ...   - Show the config path, print it, set a key
//	oversee version      - Build information
//
// # Flag Handling
//
// Global flags (--config, --no-color) live on the root command. Sampling
// flags (--interval, --sort, --scope, --filter, --no-gpu) are registered with
// AddMonitorFlags on both the root and snapshot commands and are applied on
// top of the loaded config before it is converted to monitor options, so a
// bad flag is reported the same way as a bad config value.
//
// # Output
//
// The dashboard owns the terminal while it runs; logs go to a file. In
// machine mode (snapshot --format json, doctor --json) errors are written to stdout as
// the same JSON envelope used for success.
package cli
