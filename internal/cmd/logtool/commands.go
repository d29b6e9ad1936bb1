package logtool

import (
	"encoding/hex"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jacksonyoudi/toydb/internal/storage/raftlog"
)

func newInfoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Print backend, length, committed index and size",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(cmd, func(s raftlog.Store) error {
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "backend:   %s\n", s)
				fmt.Fprintf(out, "len:       %d\n", s.Len())
				fmt.Fprintf(out, "committed: %d\n", s.Committed())
				fmt.Fprintf(out, "size:      %d\n", s.Size())
				return nil
			})
		},
	}
}

func newScanCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Print entries in an index range",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			from, _ := cmd.Flags().GetUint64("from")
			to, _ := cmd.Flags().GetUint64("to")
			asHex, _ := cmd.Flags().GetBool("hex")

			r := raftlog.From(from)
			if cmd.Flags().Changed("to") {
				r.End = raftlog.Included(to)
			}
			return withStore(cmd, func(s raftlog.Store) error {
				idx, _ := r.Resolve(s.Len())
				sc := s.Scan(r)
				defer sc.Close()
				for sc.Next() {
					fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\n", idx, render(sc.Entry(), asHex))
					idx++
				}
				return sc.Err()
			})
		},
	}
	cmd.Flags().Uint64("from", 1, "First index (inclusive)")
	cmd.Flags().Uint64("to", 0, "Last index (inclusive, default end of log)")
	cmd.Flags().Bool("hex", false, "Print entries as hex")
	return cmd
}

func newAppendCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "append <entry>...",
		Short: "Append entries and commit them",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fromHex, _ := cmd.Flags().GetBool("hex")
			entries := make([][]byte, 0, len(args))
			for _, a := range args {
				e, err := parse(a, fromHex)
				if err != nil {
					return err
				}
				entries = append(entries, e)
			}
			return withStore(cmd, func(s raftlog.Store) error {
				var last uint64
				for _, e := range entries {
					idx, err := s.Append(e)
					if err != nil {
						return err
					}
					last = idx
				}
				if err := s.Commit(last); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "committed: %d\n", last)
				return nil
			})
		},
	}
	cmd.Flags().Bool("hex", false, "Entries are hex encoded")
	return cmd
}

func newMetaCommand() *cobra.Command {
	metaCmd := &cobra.Command{Use: "meta", Short: "Metadata operations"}
	metaCmd.PersistentFlags().Bool("hex", false, "Values are hex encoded")

	getCmd := &cobra.Command{
		Use:   "get <key>",
		Short: "Print a metadata value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			asHex, _ := cmd.Flags().GetBool("hex")
			return withStore(cmd, func(s raftlog.Store) error {
				v, ok, err := s.GetMetadata([]byte(args[0]))
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("metadata key %q not found", args[0])
				}
				fmt.Fprintln(cmd.OutOrStdout(), render(v, asHex))
				return nil
			})
		},
	}
	setCmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a metadata value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fromHex, _ := cmd.Flags().GetBool("hex")
			v, err := parse(args[1], fromHex)
			if err != nil {
				return err
			}
			return withStore(cmd, func(s raftlog.Store) error {
				return s.SetMetadata([]byte(args[0]), v)
			})
		},
	}
	metaCmd.AddCommand(getCmd, setCmd)
	return metaCmd
}

func newCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify record framing of the log file without modifying it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			rep, err := raftlog.Inspect(cfg.DataDir)
			if err != nil {
				return err
			}
			printReport(cmd.OutOrStdout(), rep)
			if rep.TornBytes > 0 {
				return fmt.Errorf("log has a torn trailing record (%d bytes)", rep.TornBytes)
			}
			return nil
		},
	}
}

func printReport(w io.Writer, rep raftlog.Report) {
	fmt.Fprintf(w, "entries: %d\n", rep.Entries)
	fmt.Fprintf(w, "bytes:   %d\n", rep.Bytes)
	fmt.Fprintf(w, "torn:    %d\n", rep.TornBytes)
}

func render(b []byte, asHex bool) string {
	if asHex {
		return hex.EncodeToString(b)
	}
	return strconv.Quote(string(b))
}

func parse(s string, fromHex bool) ([]byte, error) {
	if !fromHex {
		return []byte(s), nil
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex %q: %w", s, err)
	}
	return b, nil
}
