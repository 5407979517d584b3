// Package cli implements the rtop command-line interface.
//
// The root command loads the config, applies flag overrides, checks that
// stdin and stdout are a terminal and runs the Bubble Tea dashboard from
// internal/monitor. It owns the shell manager and closes it when the
// program exits, so quitting never leaves a shell behind.
//
// # Command Structure
//
//	rtop                - Run the dashboard
//	rtop config show    - Print the effective config as YAML
//	rtop config init    - Write the defaults to a config file
//	rtop config path    - Print the config file in use
//	rtop version        - Print version information
//
// # Flag Handling
//
// --config is persistent and applies to the config subcommands too.
// --interval, --shell, --debug and --no-color only affect the dashboard and
// override the matching config values before validation.
//
// Errors returned by commands are printed to stderr in the structured
// "✗ message" form and the process exits 1.
package cli
