package cli

import (
	"time"

	"github.com/TritonDataCenter/manta-chum/config"
	"github.com/TritonDataCenter/manta-chum/pkg/distr"
	"github.com/TritonDataCenter/manta-chum/pkg/logger"
	"github.com/TritonDataCenter/manta-chum/pkg/queue"
	"github.com/TritonDataCenter/manta-chum/pkg/utils"
	"github.com/TritonDataCenter/manta-chum/workflow"

	// backend registration
	_ "github.com/TritonDataCenter/manta-chum/client/fs"
	_ "github.com/TritonDataCenter/manta-chum/client/s3"
	_ "github.com/TritonDataCenter/manta-chum/client/webdav"

	"github.com/dustin/go-humanize"
	"github.com/minio/cli"
	"github.com/minio/mc/pkg/probe"
	"github.com/minio/pkg/console"
)

var runFlags = []cli.Flag{
	cli.IntFlag{
		Name:  "concurrency, c",
		Value: 1,
		Usage: "number of concurrent workers",
	},
	cli.DurationFlag{
		Name:  "pause, p",
		Value: 0,
		Usage: "pause between operations, e.g. 100ms",
	},
	cli.StringFlag{
		Name:  "distribution, d",
		Value: "128,256,512",
		Usage: "comma-separated distribution of file sizes, e.g. 128,256x2",
	},
	cli.StringFlag{
		Name:  "unit, u",
		Value: "k",
		Usage: "capacity unit for file sizes (k or m)",
	},
	cli.StringFlag{
		Name:  "ops, w",
		Value: "r,w",
		Usage: "operation mix as a distribution of r, w and d tokens, e.g. w:8,r:2",
	},
	cli.DurationFlag{
		Name:  "interval, i",
		Value: 2 * time.Second,
		Usage: "interval at which to report statistics",
	},
	cli.StringFlag{
		Name:  "mode, m",
		Value: "lru",
		Usage: "object selection mode for read/delete (lru, mru or rand)",
	},
	cli.IntFlag{
		Name:  "queue-cap",
		Value: 1000,
		Usage: "maximum number of tracked objects; oldest are evicted beyond this",
	},
	cli.StringFlag{
		Name:  "output, o",
		Value: "human",
		Usage: "report format (human or tabular)",
	},
	cli.BoolFlag{
		Name:  "verbose, v",
		Usage: "add a per-worker breakdown to human reports",
	},
	cli.StringFlag{
		Name:  "cap",
		Usage: "stop after this much data has been written, e.g. 10GiB",
	},
	cli.Float64Flag{
		Name:  "fill",
		Usage: "stop when the target filesystem reaches this fill percentage (fs targets only)",
	},
	cli.StringFlag{
		Name:  "sync",
		Usage: "pre-seed the object tracker from this listing file (one object per line)",
	},
	cli.StringFlag{
		Name:  "vis",
		Usage: "serve worker state-transition events to visualization clients on this address",
	},
	cli.StringFlag{
		Name:  "oplog",
		Usage: "record every operation to this zstd-compressed CSV file",
	},
	cli.StringFlag{
		Name:   "log-level",
		Value:  "info",
		Usage:  "file log level (debug, info, warn, error)",
		Hidden: true,
	},
}

// Run command.
var runCmd = cli.Command{
	Name:   "run",
	Usage:  "generate continuous load against an object-storage target",
	Action: mainRun,
	Before: setGlobalsFromContext,
	Flags:  combineFlags(targetFlags, runFlags, globalFlags),
	CustomHelpTemplate: `NAME:
  {{.HelpName}} - {{.Usage}}

USAGE:
  {{.HelpName}} -t <scheme>:<address-or-path> [FLAGS]

EXAMPLES:
  # 10 workers, write-heavy mix against a local MinIO
  {{.HelpName}} -t s3:127.0.0.1:9000 -c 10 -w w:8,r:2 --cap 100GiB

  # read back pre-existing data over webdav
  {{.HelpName}} -t webdav:10.0.0.1 -w r --sync objects.txt

FLAGS:
  {{range .VisibleFlags}}{{.}}
  {{end}}`,
}

// mainRun is the entry point for the run command.
func mainRun(ctx *cli.Context) error {
	logger.InitLogger(config.AppName, "plain", ctx.String("log-level"), false)
	cfg := checkRunSyntax(ctx)
	return workflow.Run(cfg)
}

// checkRunSyntax validates the command line and expands it into a workflow
// config. All failures here are fatal before any worker starts.
func checkRunSyntax(ctx *cli.Context) workflow.Config {
	if ctx.NArg() > 0 {
		console.Fatal("Command takes no arguments")
	}

	target := ctx.String("target")
	if target == "" {
		logger.FatalIf(errInvalidArgument().Trace(), "No target provided, use --target")
	}

	conc := ctx.Int("concurrency")
	if conc < 1 {
		logger.FatalIf(errInvalidArgument().Trace(), "Concurrency must be at least 1")
	}

	sizes, err := distr.Sizes(ctx.String("distribution"), ctx.String("unit"))
	logger.FatalIf(probe.NewError(err), "Unable to parse size distribution")

	ops, err := distr.Ops(ctx.String("ops"))
	logger.FatalIf(probe.NewError(err), "Unable to parse operation mix")

	mode, ok := queue.ParseMode(ctx.String("mode"))
	if !ok {
		logger.FatalIf(errInvalidArgument().Trace(ctx.String("mode")), "Unknown queue mode")
	}

	output, ok := workflow.ParseOutput(ctx.String("output"))
	if !ok {
		logger.FatalIf(errInvalidArgument().Trace(ctx.String("output")), "Unknown output format")
	}
	if output == workflow.OutputHuman && ctx.Bool("verbose") {
		output = workflow.OutputHumanVerbose
	}

	var dataCap workflow.DataCap
	switch {
	case ctx.IsSet("cap"):
		n, err := humanize.ParseBytes(ctx.String("cap"))
		logger.FatalIf(probe.NewError(err), "Unable to parse data cap")
		if ctx.IsSet("fill") {
			// the byte budget is the more specific constraint
			console.Infoln("Both --cap and --fill given; using --cap")
		}
		dataCap = workflow.ByteCap(n)
	case ctx.IsSet("fill"):
		pct := ctx.Float64("fill")
		if pct <= 0 || pct > 100 {
			logger.FatalIf(errInvalidArgument().Trace(), "Fill percentage must be in (0, 100]")
		}
		dataCap = workflow.FillCap(pct)
	}

	return workflow.Config{
		Target:      target,
		Concurrency: conc,
		Pause:       ctx.Duration("pause"),
		Sizes:       sizes,
		Ops:         ops,
		Mode:        mode,
		QueueCap:    ctx.Int("queue-cap"),
		Interval:    ctx.Duration("interval"),
		Output:      output,
		Cap:         dataCap,
		Sync:        ctx.String("sync"),
		VisAddr:     ctx.String("vis"),
		OpLogPath:   ctx.String("oplog"),
		CmdLine:     utils.CommandLine(ctx),
		AccessKey:   ctx.String("access-key"),
		SecretKey:   ctx.String("secret-key"),
		Region:      ctx.String("region"),
		Bucket:      ctx.String("bucket"),
		TLS:         ctx.Bool("tls"),
		Insecure:    ctx.Bool("insecure"),
	}
}
