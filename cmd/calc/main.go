// Command calc is a terminal front end for the calculator engine. Each input
// line is a sequence of keys, either run together ("12+3=") or separated by
// spaces with named keys spelled out ("7 + 3 Enter"). The display is printed
// after every line; notices are prefixed with "!".
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"go-chi-calculator/internal/config"
	"go-chi-calculator/internal/engine"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) error {
	flags := pflag.NewFlagSet("calc", pflag.ContinueOnError)
	flags.SetOutput(errOut)
	configPath := flags.StringP("config", "c", "", "path to a YAML config file")
	flags.String("log-level", "warn", "log level: debug, info, warn or error")
	flags.Int("max-length", engine.DefaultMaxLength, "maximum characters per operand")
	flags.Int("decimal-places", engine.DefaultPlaces, "decimal places results are rounded to")
	quiet := flags.BoolP("quiet", "q", false, "print only the final display")

	if err := flags.Parse(args); err != nil {
		return err
	}

	cfg, err := config.LoadWithFlags(*configPath, flags)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.Server.LogLevel, errOut)
	if err != nil {
		return err
	}
	defer logger.Sync()

	sh := newShell(out, logger, *quiet,
		engine.WithMaxLength(cfg.Engine.MaxLength),
		engine.WithPlaces(cfg.Engine.DecimalPlaces),
	)
	return sh.run(ctx, in)
}
