package main

import (
	"fmt"
	"math"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/snapwire/snapwire/internal/errors"
	"github.com/snapwire/snapwire/pkg/protocol"
)

func dirCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dir <command>",
		Short: "Quantize direction vectors",
		Long: `Convert between direction vectors and the one-byte indices sent on
the wire.

Examples:
  snapwire dir quantize 0 0 1
  snapwire dir lookup 5`,
	}

	cmd.AddCommand(
		dirQuantizeCmd(),
		dirLookupCmd(),
	)

	return cmd
}

func dirQuantizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "quantize <x> <y> <z>",
		Short: "Print the index of the closest table normal",
		Long: `Print the index of the closest table normal. The vector is normalized
first; a zero vector quantizes to 0.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			var v protocol.Vec3
			for i, arg := range args {
				f, err := strconv.ParseFloat(arg, 32)
				if err != nil {
					return errors.Newf(errors.CategoryCLI, errors.KindFatal, "component %d: %v", i, err)
				}
				v[i] = float32(f)
			}

			if l := float32(math.Sqrt(float64(v.Dot(v)))); l > 0 {
				for i := range v {
					v[i] /= l
				}
			}

			index := protocol.QuantizeDir(&v)
			n, _ := protocol.DequantizeDir(index)
			fmt.Fprintf(cmd.OutOrStdout(), "%d\t(%g %g %g)\n", index, n[0], n[1], n[2])
			return nil
		},
	}
}

func dirLookupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <index>",
		Short: "Print the table normal at an index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[0])
			if err != nil {
				return errors.Newf(errors.CategoryCLI, errors.KindFatal, "index: %v", err)
			}
			n, err := protocol.DequantizeDir(index)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%g %g %g\n", n[0], n[1], n[2])
			return nil
		},
	}
}
