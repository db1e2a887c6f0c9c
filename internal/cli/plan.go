package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/fedplan/internal/journal"
	"github.com/roach88/fedplan/internal/loader"
	"github.com/roach88/fedplan/internal/queryir"
	"github.com/roach88/fedplan/internal/queryplan"
)

// PlanOptions holds flags for the plan command.
type PlanOptions struct {
	*RootOptions
	Output  string // write the plan document here instead of stdout
	Journal string // journal database; overrides the config file

	// IDGenerator overrides journal entry ids (for testing).
	// If nil, the journal uses UUIDv7 ids.
	IDGenerator journal.IDGenerator
}

// PlanResult is the payload of a successful plan command.
type PlanResult struct {
	Source        string          `json:"source"`
	Collection    string          `json:"collection"`
	Connector     string          `json:"connector"`
	NDCVersion    string          `json:"ndc_version"`
	Relationships int             `json:"relationships"`
	RemoteJoins   int             `json:"remote_joins"`
	QueryHash     string          `json:"query_hash"`
	PlanHash      string          `json:"plan_hash"`
	Output        string          `json:"output,omitempty"`
	JournalID     string          `json:"journal_id,omitempty"`
	Recorded      bool            `json:"recorded,omitempty"`
	Document      json.RawMessage `json:"document,omitempty"`
}

// compiledDocument is a query document taken all the way to a plan.
type compiledDocument struct {
	query         *queryir.ModelSelection
	plan          queryplan.QueryExecutionPlan
	joinLocations queryplan.JoinLocations
	document      []byte // canonical plan document
	queryHash     string
	planHash      string
}

// NewPlanCommand creates the plan command.
func NewPlanCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PlanOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "plan <document>",
		Short: "Compile a query document into an execution plan",
		Long: `Compile a query document (.yaml, .yml, .json or .cue) into the execution
plan for its root connector and the join locations of every remote field.

The plan document is canonical JSON: compiling the same query twice yields
the same bytes and the same plan hash. With a journal configured, each new
(query, plan) pair is recorded.

Example:
  fedplan plan queries/authors.yaml
  fedplan plan --journal plans.db -o authors.plan.json queries/authors.cue`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the plan document to a file")
	cmd.Flags().StringVar(&opts.Journal, "journal", "", "record the plan in this journal database")

	return cmd
}

func runPlan(opts *PlanOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return outputCommandError(formatter, ErrCodeConfig, "load config", err)
	}
	formatter.VerboseLog("Using config %q with %d connector(s)", cfg.File, len(cfg.Catalog.Names()))

	compiled, err := compileFile(path, cfg.Catalog)
	if err != nil {
		return outputProblems(formatter, "planning failed", problemsFrom(err))
	}

	result := PlanResult{
		Source:        path,
		Collection:    compiled.query.Collection,
		Connector:     compiled.query.Connector.Name,
		NDCVersion:    compiled.query.Connector.Capabilities.SupportedNDCVersion.String(),
		Relationships: compiled.plan.CollectionRelationships.Len(),
		RemoteJoins:   len(compiled.joinLocations.JoinIDs()),
		QueryHash:     compiled.queryHash,
		PlanHash:      compiled.planHash,
	}

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, indentDocument(compiled.document), 0o644); err != nil {
			return outputCommandError(formatter, ErrCodeWriteFailed, "write plan document", err)
		}
		result.Output = opts.Output
	} else {
		result.Document = compiled.document
	}

	journalPath := opts.Journal
	if journalPath == "" {
		journalPath = cfg.JournalPath
	}
	if journalPath != "" {
		entry, recorded, err := recordPlan(cmd, journalPath, opts.IDGenerator, path, result, compiled.document)
		if err != nil {
			return outputCommandError(formatter, ErrCodeJournal, "record plan", err)
		}
		result.JournalID = entry.ID
		result.Recorded = recorded
	}

	slog.Info("planned query",
		"source", path,
		"collection", result.Collection,
		"connector", result.Connector,
		"plan_hash", result.PlanHash,
	)

	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	writePlanText(formatter.Writer, result)
	return nil
}

// compileFile reads, builds, validates and compiles one document.
// Errors come back unformatted; problemsFrom classifies them.
func compileFile(path string, connectors loader.ConnectorResolver) (*compiledDocument, error) {
	format, err := loader.FormatFor(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &loader.LoadError{Code: loader.ErrCodeReadFailed, Message: err.Error()}
	}
	doc, err := loader.Parse(data, format, path)
	if err != nil {
		return nil, err
	}
	query, err := loader.Build(doc, connectors)
	if err != nil {
		return nil, err
	}
	if err := queryir.Validate(query); err != nil {
		return nil, err
	}

	plan, joinLocations, err := queryplan.Compile(query)
	if err != nil {
		return nil, err
	}
	document, err := queryplan.MarshalDocument(plan, joinLocations)
	if err != nil {
		return nil, err
	}
	planHash, err := queryplan.Fingerprint(plan, joinLocations)
	if err != nil {
		return nil, err
	}
	queryHash, err := loader.Fingerprint(data, format, path)
	if err != nil {
		return nil, err
	}

	return &compiledDocument{
		query:         query,
		plan:          plan,
		joinLocations: joinLocations,
		document:      document,
		queryHash:     queryHash,
		planHash:      planHash,
	}, nil
}

func recordPlan(cmd *cobra.Command, path string, ids journal.IDGenerator, source string, result PlanResult, document []byte) (journal.Entry, bool, error) {
	var opts []journal.Option
	if ids != nil {
		opts = append(opts, journal.WithIDGenerator(ids))
	}
	j, err := journal.Open(path, opts...)
	if err != nil {
		return journal.Entry{}, false, err
	}
	defer j.Close()

	return j.Record(cmd.Context(), journal.Entry{
		Source:      source,
		QueryHash:   result.QueryHash,
		PlanHash:    result.PlanHash,
		Collection:  result.Collection,
		Connector:   result.Connector,
		RemoteJoins: result.RemoteJoins,
		Plan:        document,
	})
}

func writePlanText(w io.Writer, r PlanResult) {
	fmt.Fprintf(w, "✓ Planned %s on %s (%s)\n", r.Collection, r.Connector, r.NDCVersion)
	fmt.Fprintf(w, "  relationships: %d\n", r.Relationships)
	fmt.Fprintf(w, "  remote joins:  %d\n", r.RemoteJoins)
	fmt.Fprintf(w, "  query hash:    %s\n", r.QueryHash)
	fmt.Fprintf(w, "  plan hash:     %s\n", r.PlanHash)
	if r.JournalID != "" {
		state := "recorded"
		if !r.Recorded {
			state = "already recorded"
		}
		fmt.Fprintf(w, "  journal:       %s (%s)\n", r.JournalID, state)
	}
	if r.Output != "" {
		fmt.Fprintf(w, "  written to:    %s\n", r.Output)
		return
	}
	fmt.Fprintln(w)
	w.Write(indentDocument(r.Document))
}

// indentDocument pretty-prints canonical JSON with a trailing newline.
// Key order is kept, so the output is still deterministic.
func indentDocument(document []byte) []byte {
	var buf bytes.Buffer
	if err := json.Indent(&buf, document, "", "  "); err != nil {
		return append(append([]byte(nil), document...), '\n')
	}
	buf.WriteByte('\n')
	return buf.Bytes()
}
