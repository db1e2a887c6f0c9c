package cli

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/fedplan/internal/journal"
)

// JournalOptions holds flags shared by the journal subcommands.
type JournalOptions struct {
	*RootOptions
	Database string
	Limit    int
}

// NewJournalCommand creates the journal command and its subcommands.
func NewJournalCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &JournalOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Inspect recorded plans",
		Long: `Inspect the plan journal written by "fedplan plan".

The journal database comes from --db, or the journal key of the config file.`,
	}
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to the journal database")

	list := &cobra.Command{
		Use:           "list",
		Short:         "List recorded plans, newest first",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJournalList(opts, cmd)
		},
	}
	list.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "maximum entries to list (0 lists all)")

	show := &cobra.Command{
		Use:           "show <id>",
		Short:         "Show one recorded plan",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJournalShow(opts, args[0], cmd)
		},
	}

	cmd.AddCommand(list, show)
	return cmd
}

// openJournal resolves the database path and opens it.
func openJournal(opts *JournalOptions, formatter *OutputFormatter) (*journal.Journal, error) {
	path := opts.Database
	if path == "" {
		cfg, err := loadConfig(opts.RootOptions)
		if err != nil {
			return nil, outputCommandError(formatter, ErrCodeConfig, "load config", err)
		}
		path = cfg.JournalPath
	}
	if path == "" {
		return nil, outputCommandError(formatter, ErrCodeJournal, "no journal configured (use --db or set journal in fedplan.yaml)", nil)
	}
	formatter.VerboseLog("Opening journal %s", path)
	j, err := journal.Open(path)
	if err != nil {
		return nil, outputCommandError(formatter, ErrCodeJournal, "open journal", err)
	}
	return j, nil
}

func runJournalList(opts *JournalOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	j, err := openJournal(opts, formatter)
	if err != nil {
		return err
	}
	defer j.Close()

	entries, err := j.List(cmd.Context(), opts.Limit)
	if err != nil {
		return outputCommandError(formatter, ErrCodeJournal, "list journal", err)
	}

	if formatter.Format == "json" {
		return formatter.Success(entries)
	}
	if len(entries) == 0 {
		fmt.Fprintln(formatter.Writer, "No plans recorded")
		return nil
	}
	writeEntryTable(formatter.Writer, entries)
	return nil
}

func runJournalShow(opts *JournalOptions, id string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	j, err := openJournal(opts, formatter)
	if err != nil {
		return err
	}
	defer j.Close()

	entry, err := j.Get(cmd.Context(), id)
	if errors.Is(err, journal.ErrNotFound) {
		_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("no journal entry %q", id), nil)
		return NewExitError(ExitFailure, fmt.Sprintf("%s: no journal entry %q", ErrCodeNotFound, id))
	}
	if err != nil {
		return outputCommandError(formatter, ErrCodeJournal, "read journal", err)
	}

	if formatter.Format == "json" {
		return formatter.Success(entry)
	}
	w := formatter.Writer
	fmt.Fprintf(w, "id:               %s\n", entry.ID)
	fmt.Fprintf(w, "seq:              %d\n", entry.Seq)
	fmt.Fprintf(w, "source:           %s\n", entry.Source)
	fmt.Fprintf(w, "collection:       %s\n", entry.Collection)
	fmt.Fprintf(w, "connector:        %s\n", entry.Connector)
	fmt.Fprintf(w, "remote joins:     %d\n", entry.RemoteJoins)
	fmt.Fprintf(w, "query hash:       %s\n", entry.QueryHash)
	fmt.Fprintf(w, "plan hash:        %s\n", entry.PlanHash)
	fmt.Fprintf(w, "compiler version: %s\n", entry.CompilerVersion)
	fmt.Fprintf(w, "plan format:      %s\n", entry.PlanFormat)
	fmt.Fprintln(w)
	w.Write(indentDocument(entry.Plan))
	return nil
}

func writeEntryTable(w io.Writer, entries []journal.Entry) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SEQ\tID\tCOLLECTION\tCONNECTOR\tJOINS\tPLAN HASH")
	for _, e := range entries {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%s\n", e.Seq, e.ID, e.Collection, e.Connector, e.RemoteJoins, shortHash(e.PlanHash))
	}
	tw.Flush()
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
