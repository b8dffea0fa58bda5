package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/snapwire/snapwire/internal/errors"
	"github.com/snapwire/snapwire/pkg/protocol"
	"github.com/snapwire/snapwire/pkg/snapshot"
)

func deltaCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delta <command>",
		Short: "Encode and decode entity deltas",
		Long: `Encode and decode entity delta records.

Deltas are read against an all-zero baseline, which is what a client holds
for an entity it has never seen.

Examples:
  snapwire delta encode '{"Number":5,"Origin":[10,20,30],"Frame":3}'
  snapwire delta decode 9382800105035000a000f000000000000000
  snapwire delta decode --frame 9382800105035000a000f0000000000000000000`,
	}

	cmd.AddCommand(
		deltaEncodeCmd(a),
		deltaDecodeCmd(a),
	)

	return cmd
}

// =============================================================================
// snapwire delta encode
// =============================================================================

func deltaEncodeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "encode <json>",
		Short: "Encode an entity as a forced delta from zero",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var to protocol.EntityState
			if err := json.Unmarshal([]byte(args[0]), &to); err != nil {
				return errors.Newf(errors.CategoryCLI, errors.KindFatal, "invalid entity JSON: %v", err)
			}

			e := a.cfg.NewEncoder(a.metrics)
			var from protocol.EntityState
			if err := e.WriteDeltaEntity(&from, &to, true, true); err != nil {
				return err
			}
			a.metrics.RecordEntityDelta(protocol.DeltaBits(&from, &to, true).MaskLen())

			fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(e.Bytes()))
			return nil
		},
	}
}

// =============================================================================
// snapwire delta decode
// =============================================================================

func deltaDecodeCmd(a *app) *cobra.Command {
	var frame bool

	cmd := &cobra.Command{
		Use:   "decode <hex>",
		Short: "Decode a delta record or a packet-entities frame",
		Long: `Decode a single delta record and print the resulting entity as JSON.

With --frame the input is a whole packet-entities list ending in the zero
terminator, decoded against an empty previous frame.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := parseHex(args[0])
			if err != nil {
				return err
			}
			d := protocol.NewDecoderBytes(data)
			w := cmd.OutOrStdout()

			if frame {
				dec := snapshot.NewDecoder(
					snapshot.WithMetrics(a.metrics),
					snapshot.WithLogger(a.logger),
				)
				list, err := dec.DecodeFrame(cmd.Context(), d, nil)
				if err != nil {
					return err
				}
				return printJSON(w, list)
			}

			var base protocol.EntityState
			to, bits, err := d.DecodeDeltaEntity(&base)
			if err != nil {
				return err
			}
			info(w, "bits 0x%08X (%d mask bytes), number %d", uint32(bits), bits.MaskLen(), to.Number)
			if d.Remaining() > 0 {
				warn(w, "%d trailing bytes ignored", d.Remaining())
			}
			return printJSON(w, to)
		},
	}

	cmd.Flags().BoolVar(&frame, "frame", false, "Decode a terminated packet-entities list")

	return cmd
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}
