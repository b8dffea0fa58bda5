package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/snapwire/snapwire/pkg/infostring"
)

func infoCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info <command>",
		Short: "Read and edit info strings",
		Long: `Read and edit backslash-delimited info strings such as userinfo and
serverinfo.

Quote the blob for your shell, the backslashes are part of the format.

Examples:
  snapwire info get '\name\unnamed\skin\male' name
  snapwire info set '\name\unnamed' rate 2500
  snapwire info remove '\name\unnamed\skin\male' skin
  snapwire info print '\name\unnamed\skin\male'`,
	}

	cmd.AddCommand(
		infoGetCmd(),
		infoSetCmd(a),
		infoRemoveCmd(),
		infoPrintCmd(),
	)

	return cmd
}

// =============================================================================
// snapwire info get
// =============================================================================

func infoGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <blob> <key>",
		Short: "Print the value stored under a key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), infostring.ValueForKey(args[0], args[1]))
			return nil
		},
	}
}

// =============================================================================
// snapwire info set
// =============================================================================

func infoSetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set <blob> <key> <value>",
		Short: "Set a key and print the new blob",
		Long: `Set a key and print the new blob. An empty value removes the key.

Keys and values may not contain a backslash, a quote or a semicolon and must
be shorter than 64 characters. The whole blob must fit in 512 bytes.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := infostring.SetValueForKey(args[0], args[1], args[2])
			if err != nil {
				a.metrics.RecordInfoRejection(infostring.Reason(err))
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), s)
			return nil
		},
	}
}

// =============================================================================
// snapwire info remove
// =============================================================================

func infoRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <blob> <key>",
		Short: "Remove a key and print the new blob",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), infostring.RemoveKey(args[0], args[1]))
			return nil
		},
	}
}

// =============================================================================
// snapwire info print
// =============================================================================

func infoPrintCmd() *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:   "print <blob>",
		Short: "Print one key and value per line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			if check && !infostring.Validate(args[0]) {
				warn(w, "blob is not safe to send to a peer")
			}
			return infostring.Print(w, args[0])
		},
	}

	cmd.Flags().BoolVar(&check, "check", false, "Warn when the blob would be refused by a peer")

	return cmd
}
