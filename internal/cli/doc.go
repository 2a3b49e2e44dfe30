// Package cli implements the vpsmon command-line interface.
//
// Commands are Cobra commands. Each one loads configuration through
// internal/config and delegates to internal/monitor for the work:
//
//	vpsmon              - live dashboard for one host
//	vpsmon snapshot     - poll once and print (text, json or yaml)
//	vpsmon prune        - send the docker prune command
//	vpsmon doctor       - diagnose config, key and connection problems
//	vpsmon version      - build information
//
// Connection flags (--host, --user, --key, --port, --timeout, ...) are
// persistent on the root command so every subcommand accepts them. Flags
// win over the environment, which wins over the .env file, which wins over
// the --config YAML file.
//
// Errors returned from commands are structured errors from internal/errors;
// Execute prints them and exits non-zero.
package cli
