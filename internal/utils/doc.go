// Package utils holds the plumbing shared by the ghmirror commands.
//
// ConfigurationLoader layers defaults, an embedded YAML document, a config file
// and GHMIRROR_* environment variables through Viper. LoggerFactory builds zap
// loggers, CommandContextAccessor carries values from the root command to its
// subcommands and FlushingWriter keeps console output ordered with progress bars.
package utils
