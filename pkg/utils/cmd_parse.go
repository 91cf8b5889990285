package utils

import (
	"fmt"
	"os"

	"github.com/minio/cli"
)

// flagValue renders a set flag back into its command-line value.
func flagValue(ctx *cli.Context, flag cli.Flag) (string, error) {
	name := flag.GetName()
	if !ctx.IsSet(name) {
		return "", nil
	}
	switch flag.(type) {
	case cli.StringFlag:
		return ctx.String(name), nil
	case cli.BoolFlag:
		return fmt.Sprint(ctx.Bool(name)), nil
	case cli.IntFlag:
		return fmt.Sprint(ctx.Int(name)), nil
	case cli.Int64Flag:
		return fmt.Sprint(ctx.Int64(name)), nil
	case cli.UintFlag:
		return fmt.Sprint(ctx.Uint(name)), nil
	case cli.Uint64Flag:
		return fmt.Sprint(ctx.Uint64(name)), nil
	case cli.Float64Flag:
		return fmt.Sprint(ctx.Float64(name)), nil
	case cli.DurationFlag:
		return ctx.Duration(name).String(), nil
	}
	return "", fmt.Errorf("unhandled flag type: %T", flag)
}

// CommandLine attempts to reconstruct the commandline.
func CommandLine(ctx *cli.Context) string {
	s := os.Args[0] + " " + ctx.Command.Name
	for _, flag := range ctx.Command.Flags {
		val, err := flagValue(ctx, flag)
		if err != nil || val == "" {
			continue
		}
		name := flag.GetName()
		switch name {
		case "access-key", "secret-key":
			val = "*REDACTED*"
		}
		s += " --" + name + "=" + val
	}
	return s
}
