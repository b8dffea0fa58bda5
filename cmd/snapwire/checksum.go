package main

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/snapwire/snapwire/internal/errors"
	"github.com/snapwire/snapwire/pkg/protocol"
)

func checksumCmd() *cobra.Command {
	var (
		sequence int
		crcOnly  bool
	)

	cmd := &cobra.Command{
		Use:   "checksum <hex>",
		Short: "Compute the sequenced checksum byte of a message",
		Long: `Compute the one-byte checksum a client attaches to a move command.

The message is given as hex; spaces are ignored. Only the first 60 bytes take
part. With --crc the plain CRC-16 of the whole input is printed instead.

Examples:
  snapwire checksum --seq 1000 "01 02 03 04"
  snapwire checksum --crc 313233343536373839`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := parseHex(args[0])
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if crcOnly {
				fmt.Fprintf(w, "0x%04X\n", protocol.CRCBlock(data))
				return nil
			}

			b, err := protocol.BlockSequenceCRCByte(data, sequence)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "0x%02X\n", b)
			return nil
		},
	}

	cmd.Flags().IntVarP(&sequence, "seq", "s", 0, "Outgoing packet sequence number")
	cmd.Flags().BoolVar(&crcOnly, "crc", false, "Print the CRC-16 of the input")

	return cmd
}

// parseHex decodes a hex dump, ignoring whitespace and an optional 0x prefix.
func parseHex(s string) ([]byte, error) {
	s = strings.Join(strings.Fields(s), "")
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	data, err := hex.DecodeString(s)
	if err != nil {
		return nil, errors.Newf(errors.CategoryCLI, errors.KindFatal, "invalid hex input: %v", err)
	}
	return data, nil
}
