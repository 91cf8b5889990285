package cli

import (
	"github.com/TritonDataCenter/manta-chum/config"

	"github.com/minio/cli"
	"github.com/minio/pkg/console"
)

var globalFlags = []cli.Flag{
	cli.BoolFlag{
		Name:   "quiet, q",
		Usage:  "disable progress bar display",
		Hidden: true,
	},
	cli.BoolFlag{
		Name:  "no-color",
		Usage: "disable color theme",
	},
	cli.BoolFlag{
		Name:   "json",
		Usage:  "enable JSON formatted output",
		Hidden: true,
	},
	cli.BoolFlag{
		Name:  "debug",
		Usage: "enable debug output",
	},
	cli.BoolFlag{
		Name:  "insecure",
		Usage: "disable TLS certificate verification",
	},
	cli.BoolFlag{
		Name:  "autocompletion",
		Usage: "install auto-completion for your shell",
	},
}

var profileFlags = []cli.Flag{
	cli.StringFlag{
		Name:   "pprofdir",
		Usage:  "Write profiles to this folder",
		Value:  "pprof",
		Hidden: true,
	},

	cli.BoolFlag{
		Name:   "cpu",
		Usage:  "Write a local CPU profile",
		Hidden: true,
	},
	cli.BoolFlag{
		Name:   "mem",
		Usage:  "Write an local allocation profile",
		Hidden: true,
	},
	cli.BoolFlag{
		Name:   "block",
		Usage:  "Write a local goroutine blocking profile",
		Hidden: true,
	},
	cli.BoolFlag{
		Name:   "mutex",
		Usage:  "Write a mutex contention profile",
		Hidden: true,
	},
	cli.BoolFlag{
		Name:   "threads",
		Usage:  "Write a thread create profile",
		Hidden: true,
	},
	cli.BoolFlag{
		Name:   "trace",
		Usage:  "Write an local execution trace",
		Hidden: true,
	},
}

// Flags selecting and authenticating against the target.
var targetFlags = []cli.Flag{
	cli.StringFlag{
		Name:   "target, t",
		Usage:  "target in the form <scheme>:<address-or-path>, scheme one of s3, webdav, fs",
		EnvVar: config.AppNameUC + "_TARGET",
	},
	cli.StringFlag{
		Name:   "access-key",
		Usage:  "S3 access key",
		EnvVar: config.AppNameUC + "_ACCESS_KEY",
		Value:  "",
	},
	cli.StringFlag{
		Name:   "secret-key",
		Usage:  "S3 secret key",
		EnvVar: config.AppNameUC + "_SECRET_KEY",
		Value:  "",
	},
	cli.StringFlag{
		Name:   "region",
		Usage:  "Specify a custom region",
		EnvVar: config.AppNameUC + "_REGION",
		Hidden: true,
	},
	cli.BoolFlag{
		Name:   "tls",
		Usage:  "Use TLS (HTTPS) for transport",
		EnvVar: config.AppNameUC + "_TLS",
	},
	cli.StringFlag{
		Name:  "bucket",
		Value: config.AppName,
		Usage: "Bucket to use for s3 targets. Created if missing.",
	},
}

// Set global states. NOTE: It is deliberately kept monolithic to ensure we dont miss out any flags.
func setGlobalsFromContext(ctx *cli.Context) error {
	quiet := ctx.IsSet("quiet") || ctx.GlobalIsSet("quiet")
	debug := ctx.IsSet("debug") || ctx.GlobalIsSet("debug")
	json := ctx.IsSet("json") || ctx.GlobalIsSet("json")
	noColor := ctx.IsSet("no-color") || ctx.GlobalIsSet("no-color")
	setGlobals(quiet, debug, json, noColor)
	return nil
}

// Set global states. NOTE: It is deliberately kept monolithic to ensure we dont miss out any flags.
func setGlobals(quiet, debug, json, noColor bool) {
	config.GlobalQuiet = config.GlobalQuiet || quiet
	config.GlobalDebug = config.GlobalDebug || debug
	config.GlobalJSON = config.GlobalJSON || json
	config.GlobalNoColor = config.GlobalNoColor || noColor

	// Disable colorified messages if requested.
	if config.GlobalNoColor || config.GlobalQuiet {
		console.SetColorOff()
	}
}
