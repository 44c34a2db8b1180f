package main

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"go-chi-calculator/internal/engine"
)

type shell struct {
	engine *engine.Engine
	out    io.Writer
	logger *zap.Logger
	quiet  bool
}

func newShell(out io.Writer, logger *zap.Logger, quiet bool, opts ...engine.Option) *shell {
	sh := &shell{out: out, logger: logger, quiet: quiet}
	opts = append(opts, engine.WithNotifier(engine.NotifierFunc(sh.notify)))
	sh.engine = engine.New(opts...)
	return sh
}

func (sh *shell) notify(n engine.Notice) {
	fmt.Fprintf(sh.out, "! %s\n", n.Message)
	sh.logger.Debug("notice", zap.String("kind", string(n.Kind)))
}

// run reads lines from in until EOF or until ctx is cancelled.
func (sh *shell) run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil
		}

		display := sh.line(scanner.Text())
		if !sh.quiet {
			fmt.Fprintln(sh.out, display)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	if sh.quiet {
		fmt.Fprintln(sh.out, sh.engine.Render())
	}
	return nil
}

func (sh *shell) line(text string) string {
	display := sh.engine.Render()
	for _, key := range engine.SplitKeys(text) {
		action, ok := engine.KeyAction(key)
		if !ok {
			sh.logger.Debug("ignoring key", zap.String("key", key))
			continue
		}
		display = sh.engine.Apply(action).Display
		sh.logger.Debug("key applied",
			zap.String("key", key),
			zap.String("action", action.String()),
			zap.String("display", display),
		)
	}
	return display
}
