package main

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/benchlab/labdex/internal/config"
	"github.com/benchlab/labdex/internal/embedding"
	"github.com/benchlab/labdex/internal/importer"
	"github.com/benchlab/labdex/internal/mapping"
	"github.com/benchlab/labdex/internal/protocol"
	"github.com/benchlab/labdex/internal/tabular"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	importMapFlags   []string
	importMapOnly    bool
	importProjectID  string
	importResearcher string
	importProtocol   string
	importDuplicates bool
	importAllowBlank bool
	importDryRun     bool
)

func init() {
	// Environment may carry LABDEX_OLLAMA_URL for the embedding backend.
	_ = godotenv.Load()

	importCmd.Flags().StringArrayVar(&importMapFlags, "map", nil,
		`Mapping override "Canonical Field=Source Column" (repeatable)`)
	importCmd.Flags().BoolVar(&importMapOnly, "map-only", false,
		"Use only --map assignments; skip embedding suggestions")
	importCmd.Flags().StringVar(&importProjectID, "project-id", "",
		"Project ID applied to all rows when no Project ID column is mapped")
	importCmd.Flags().StringVar(&importResearcher, "researcher", "",
		"Researcher name overriding the extracted value on all rows")
	importCmd.Flags().StringVar(&importProtocol, "protocol", "",
		"Protocol document (pdf/md/txt) to attach to this run's project")
	importCmd.Flags().BoolVar(&importDuplicates, "import-duplicates", false,
		"Import rows classified as duplicates instead of skipping them")
	importCmd.Flags().BoolVar(&importAllowBlank, "allow-blank-ids", false,
		"Import rows with an empty primary identity field")
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false,
		"Classify rows without committing anything")
	rootCmd.AddCommand(importCmd)
}

var importCmd = &cobra.Command{
	Use:   "import <file.csv>",
	Short: "Import experiment records from a spreadsheet export",
	Long: `Import experiment records from a spreadsheet export.

Column mapping starts from embedding suggestions and is overridden by
--map flags. Duplicate rows (same identity tuple as an existing or
earlier-in-file record) are skipped unless --import-duplicates is set.

Examples:
  labdex import plates.csv --project-id P-17
  labdex import plates.csv --project-id P-17 --map "Researcher=Scientist"
  labdex import plates.csv --map-only --map "Sample ID=id" --project-id P-17
  labdex import plates.csv --project-id P-17 --protocol expression.pdf
  labdex import plates.csv --project-id P-17 --dry-run`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

// ImportResult is the response for the import command.
type ImportResult struct {
	Mapping mapping.Mapping   `json:"mapping"`
	Outcome *importer.Outcome `json:"outcome"`

	// TotalRecords is the repository size after the run.
	TotalRecords int `json:"total_records"`
}

func runImport(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	cfg := mustLoadConfig(repoRoot)

	table, err := tabular.ReadCSVFile(args[0])
	if err != nil {
		exitWithError(ExitDataError, "reading table: %v", err)
	}

	overrides, err := parseMapFlags(importMapFlags)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	m, err := resolveMapping(cmd.Context(), cfg, table.Columns, overrides)
	if err != nil {
		var conflictErr *mapping.ConflictError
		switch {
		case errors.As(err, &conflictErr):
			exitWithError(ExitDataError, "%v (override with --map)", err)
		case errors.Is(err, embedding.ErrModelUnavailable):
			exitWithError(ExitModelNotFound,
				"embedding backend unavailable; map columns manually with --map-only and --map: %v", err)
		default:
			exitWithError(ExitError, "resolving mapping: %v", err)
		}
	}

	db := mustOpenStore(repoRoot)
	defer db.Close()

	defaults := importer.Defaults{
		ProjectID:  importProjectID,
		Researcher: importResearcher,
	}

	var attachment *protocol.Attachment
	if importProtocol != "" {
		att, err := protocol.Extract(importProtocol)
		if err != nil {
			exitWithError(ExitDataError, "extracting protocol: %v", err)
		}
		attachment = &att
		defaults.Protocol = att.Name
	}

	rec := &importer.Reconciler{
		Store:          db,
		IdentityFields: cfg.IdentityFields,
	}
	policy := importer.Policy{
		ImportDuplicates: importDuplicates,
		AllowBlankIDs:    importAllowBlank || cfg.AllowBlankIDs,
		DryRun:           importDryRun,
	}

	outcome, err := rec.Prepare(table, m, defaults, policy)
	if err != nil {
		if errors.Is(err, importer.ErrMissingProjectID) {
			exitWithError(ExitDataError, "%v", err)
		}
		exitWithError(ExitDataError, "preparing import: %v", err)
	}

	if attachment != nil && !importDryRun {
		if err := registerProtocol(repoRoot, *attachment, defaults, outcome); err != nil {
			exitWithError(ExitError, "registering protocol: %v", err)
		}
	}

	total, err := db.Count()
	if err != nil {
		exitWithError(ExitError, "counting records: %v", err)
	}

	if humanOutput {
		printOutcomeHuman(m, outcome)
		fmt.Printf("Repository now holds %d record(s)\n", total)
	} else {
		outputJSON(ImportResult{Mapping: m, Outcome: outcome, TotalRecords: total})
	}

	return nil
}

// parseMapFlags parses repeated "Canonical Field=Source Column" flags.
func parseMapFlags(flags []string) (map[string]string, error) {
	overrides := make(map[string]string, len(flags))
	for _, f := range flags {
		name, column, ok := strings.Cut(f, "=")
		if !ok || name == "" || column == "" {
			return nil, fmt.Errorf(`invalid --map %q, want "Canonical Field=Source Column"`, f)
		}
		overrides[strings.TrimSpace(name)] = strings.TrimSpace(column)
	}
	return overrides, nil
}

// resolveMapping combines embedding suggestions with explicit
// overrides into a frozen, validated mapping. With --map-only the
// embedding step is skipped entirely and only overridden columns
// participate.
func resolveMapping(ctx context.Context, cfg *config.Config, columns []string, overrides map[string]string) (mapping.Mapping, error) {
	present := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		present[c] = struct{}{}
	}

	// Column -> field, explicit overrides first. An override naming a
	// column the table does not have, or two overrides claiming the
	// same column, is a user error, never silently dropped.
	byColumn := make(map[string]string, len(columns))
	for name, column := range overrides {
		if _, ok := present[column]; !ok {
			return nil, fmt.Errorf("--map %s=%s: column %q not in table", name, column, column)
		}
		if prev, dup := byColumn[column]; dup {
			fields := []string{prev, name}
			sort.Strings(fields)
			return nil, fmt.Errorf("--map: column %q claimed by both %q and %q", column, fields[0], fields[1])
		}
		byColumn[column] = name
	}

	if !importMapOnly {
		unmapped := make([]string, 0, len(columns))
		for _, c := range columns {
			if _, ok := byColumn[c]; !ok {
				unmapped = append(unmapped, c)
			}
		}
		if len(unmapped) > 0 {
			provider := embeddingProvider(cfg)
			suggestions, err := mapping.Suggest(ctx, provider, unmapped, cfg.Vocabulary)
			if err != nil {
				return nil, err
			}
			for _, s := range suggestions {
				byColumn[s.Column] = s.Field
			}
		}
	}

	assignments := make([]mapping.Assignment, 0, len(byColumn))
	for _, c := range columns {
		if f, ok := byColumn[c]; ok {
			assignments = append(assignments, mapping.Assignment{Column: c, Field: f})
		}
	}

	m, err := mapping.Build(assignments)
	if err != nil {
		return nil, err
	}
	if err := m.ValidateColumns(columns); err != nil {
		return nil, err
	}
	return m, nil
}

// registerProtocol stores the extracted protocol text under the run's
// project ID. When the project came from a mapped column, the first
// committed record's value is used.
func registerProtocol(repoRoot string, att protocol.Attachment, defaults importer.Defaults, outcome *importer.Outcome) error {
	projectID := strings.TrimSpace(defaults.ProjectID)
	if projectID == "" {
		for _, r := range outcome.Records {
			if r.ProjectID != "" {
				projectID = r.ProjectID
				break
			}
		}
	}
	if projectID == "" {
		return fmt.Errorf("no project id to register the protocol under")
	}

	reg, err := protocol.LoadRegistry(config.ProtocolsPath(repoRoot))
	if err != nil {
		return err
	}
	reg.Put(projectID, att)
	return reg.Save()
}

// printOutcomeHuman prints an import outcome in human-readable form.
func printOutcomeHuman(m mapping.Mapping, outcome *importer.Outcome) {
	if outcome.DryRun {
		fmt.Println("Dry run: nothing committed.")
	}
	fmt.Printf("Imported %d record(s)\n", outcome.Imported)
	if outcome.SkippedDuplicates > 0 {
		fmt.Printf("Skipped %d duplicate(s)\n", outcome.SkippedDuplicates)
	}
	if outcome.SkippedBlankIDs > 0 {
		fmt.Printf("Skipped %d row(s) with blank sample id\n", outcome.SkippedBlankIDs)
	}
	for _, e := range outcome.Errors {
		fmt.Printf("Row %d failed: %s\n", e.Row, e.Message)
	}
}
