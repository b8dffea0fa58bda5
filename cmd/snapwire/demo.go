package main

import (
	"encoding/hex"
	"errors"
	"io"

	"github.com/spf13/cobra"

	snaperrors "github.com/snapwire/snapwire/internal/errors"
	"github.com/snapwire/snapwire/pkg/demo"
)

// dumpPreview is how many bytes of each message dump shows without --full.
const dumpPreview = 16

func demoCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "demo <command>",
		Short: "Record and dump demos",
		Long: `Record and dump demos in the configured store.

Demos live in demo.dir of snapwire.json, or in S3 when demo.s3.bucket is set.

Examples:
  snapwire demo record intro 0102 03040506
  snapwire demo dump intro
  snapwire demo dump --full intro`,
	}

	cmd.AddCommand(
		demoRecordCmd(a),
		demoDumpCmd(a),
	)

	return cmd
}

func (a *app) demoOptions() []demo.Option {
	return []demo.Option{
		demo.WithMaxMessageLen(a.cfg.Buffer.MaxMsgLen),
		demo.WithMetrics(a.metrics),
		demo.WithLogger(a.logger),
	}
}

// =============================================================================
// snapwire demo record
// =============================================================================

func demoRecordCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "record <name> <hex>...",
		Short: "Record hex messages as a demo",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.cfg.DemoStore()
			if err != nil {
				return err
			}

			rec := demo.NewRecorder(store, args[0], a.demoOptions()...)
			for _, arg := range args[1:] {
				msg, err := parseHex(arg)
				if err != nil {
					return err
				}
				if err := rec.Write(msg); err != nil {
					return err
				}
			}
			if err := rec.Close(cmd.Context()); err != nil {
				return err
			}

			success(cmd.OutOrStdout(), "Recorded %d messages to %s", rec.Messages(), args[0])
			return nil
		},
	}
}

// =============================================================================
// snapwire demo dump
// =============================================================================

func demoDumpCmd(a *app) *cobra.Command {
	var full bool

	cmd := &cobra.Command{
		Use:   "dump <name>",
		Short: "Print the messages of a demo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.cfg.DemoStore()
			if err != nil {
				return err
			}

			p, err := demo.Open(cmd.Context(), store, args[0], a.demoOptions()...)
			if err != nil {
				return err
			}
			defer p.Close()

			w := cmd.OutOrStdout()
			for i := 0; ; i++ {
				msg, err := p.Next()
				if errors.Is(err, io.EOF) {
					break
				}
				if err != nil {
					if snaperrors.IsSoft(err) {
						warn(w, "%v", err)
						break
					}
					return err
				}

				data := msg.Bytes()
				shown := data
				if !full && len(shown) > dumpPreview {
					shown = shown[:dumpPreview]
				}
				suffix := ""
				if len(shown) < len(data) {
					suffix = "..."
				}
				info(w, "#%d\t%4d bytes\t%s%s", i, len(data), hex.EncodeToString(shown), suffix)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&full, "full", false, "Print whole messages instead of a preview")

	return cmd
}
