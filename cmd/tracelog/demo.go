package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	tracelog "github.com/xgx-io/xgx-tracelog"
	"github.com/xgx-io/xgx-tracelog/sink"
)

var (
	configPath   string
	newlineFlag  bool
	colorFlag    bool
	panicFlag    bool
	outputFlag   string
	contextLines int
	valueWidth   int
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run a failing sample call chain and print its report",
	Args:  cobra.NoArgs,
	RunE:  demoCommand,
}

func init() {
	demoCmd.Flags().StringVar(&configPath, "config", "", "Load renderer options from a .toml or .yaml file")
	demoCmd.Flags().BoolVar(&newlineFlag, "newline", false, "Append a newline to every report line")
	demoCmd.Flags().BoolVar(&colorFlag, "color", false, "Highlight headers and the failing line")
	demoCmd.Flags().BoolVar(&panicFlag, "panic", false, "Fail with a runtime panic instead of a returned error")
	demoCmd.Flags().StringVar(&outputFlag, "output", "stderr", "Report destination (stderr, zerolog, zap)")
	demoCmd.Flags().IntVar(&contextLines, "context-lines", 4, "Source lines shown around the failing line")
	demoCmd.Flags().IntVar(&valueWidth, "value-width", 40, "Characters kept from non-expanded values")
}

func demoCommand(cmd *cobra.Command, args []string) error {
	opts, err := demoOptions(cmd)
	if err != nil {
		return err
	}
	out, flush, err := demoSink(outputFlag, opts.Newline)
	if err != nil {
		return err
	}
	defer flush()
	if colorFlag {
		out = sink.Color(out)
	}

	r := tracelog.NewRenderer(opts)
	run := r.Wrap(out, func(ctx context.Context) error {
		return checkout(ctx, order{ID: 1017, Amount: -250, Card: "4111111111111111"}, panicFlag)
	})

	if panicFlag {
		defer func() {
			if p := recover(); p != nil {
				log.Info().Interface("panic", p).Msg("demo panic reported and recovered")
			}
		}()
	}
	if err := run(cmd.Context()); err != nil {
		var ae *amountError
		if errors.As(err, &ae) {
			log.Info().Int("order", ae.OrderID).Msg("demo error reported")
			return nil
		}
		return err
	}
	return nil
}

func demoOptions(cmd *cobra.Command) (tracelog.Options, error) {
	opts := tracelog.DefaultOptions()
	if configPath != "" {
		loaded, err := tracelog.LoadOptions(configPath)
		if err != nil {
			return tracelog.Options{}, err
		}
		opts = loaded
	}
	if cmd.Flags().Changed("newline") {
		opts.Newline = newlineFlag
	}
	if cmd.Flags().Changed("context-lines") {
		opts.ContextLines = contextLines
	}
	if cmd.Flags().Changed("value-width") {
		opts.ValueWidth = valueWidth
	}
	if err := opts.Validate(); err != nil {
		return tracelog.Options{}, fmt.Errorf("invalid options: %w", err)
	}
	return opts, nil
}

// demoSink returns the sink for the named destination and a flush function to
// run once the report is written.
func demoSink(name string, newline bool) (tracelog.Sink, func(), error) {
	switch name {
	case "stderr":
		if newline {
			return sink.Writer(os.Stderr), func() {}, nil
		}
		return sink.Writer(lineWriter{}), func() {}, nil
	case "zerolog":
		l := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
		return sink.Zerolog(l, zerolog.ErrorLevel), func() {}, nil
	case "zap":
		l, err := zap.NewDevelopment()
		if err != nil {
			return nil, nil, fmt.Errorf("create zap logger: %w", err)
		}
		return sink.Zap(l, zapcore.ErrorLevel), func() { _ = l.Sync() }, nil
	}
	return nil, nil, fmt.Errorf("unknown output %q (want stderr, zerolog or zap)", name)
}

// lineWriter terminates each write with a newline so reports rendered without
// the newline option stay readable on a terminal.
type lineWriter struct{}

func (lineWriter) Write(p []byte) (int, error) {
	n, err := os.Stderr.Write(p)
	if err != nil {
		return n, err
	}
	_, err = os.Stderr.Write([]byte{'\n'})
	return n, err
}
