package cmd

import (
	"database/sql"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"imagematcher/database"
	"imagematcher/types"
)

var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "List recorded searches or show the matches of one",
	Long: `List searches recorded with 'match --history', newest first, or show the
ranked matches of a single run.

Examples:
  imagematcher history
  imagematcher history --limit 5
  imagematcher history 12 --json
  imagematcher history --delete 12`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().Int("limit", 20, "Maximum number of runs to list (0 = all)")
	historyCmd.Flags().Bool("json", false, "Output as JSON")
	historyCmd.Flags().Int64("delete", 0, "Delete the run with this id")
}

func runHistory(cmd *cobra.Command, args []string) error {
	jsonOutput := mustGetBool(cmd, "json")
	deleteID, deleting, err := runIDToDelete(cmd)
	if err != nil {
		return err
	}

	db, err := database.InitDatabase(cfg.History.Path)
	if err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}
	defer db.Close()

	if deleting {
		if err := database.DeleteRun(db, deleteID); err != nil {
			return err
		}
		fmt.Printf("Deleted run #%d\n", deleteID)
		return nil
	}

	if len(args) == 1 {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid run id %q", args[0])
		}
		return showRun(os.Stdout, db, id, jsonOutput)
	}

	runs, err := database.ListRuns(db, mustGetInt(cmd, "limit"))
	if err != nil {
		return err
	}
	if jsonOutput {
		return writeJSON(os.Stdout, runs)
	}
	writeRuns(os.Stdout, runs)
	return nil
}

func showRun(w io.Writer, db *sql.DB, id int64, jsonOutput bool) error {
	run, err := database.GetRun(db, id)
	if err != nil {
		return err
	}
	if jsonOutput {
		return writeJSON(w, run)
	}

	fmt.Fprintf(w, "Run #%d (%s)\n", run.ID, run.Status)
	fmt.Fprintf(w, "Query:     %s\n", run.QueryPath)
	fmt.Fprintf(w, "Directory: %s\n", run.CorpusRoot)
	fmt.Fprintf(w, "Threshold: %.2f\n", run.Threshold)
	fmt.Fprintf(w, "Started:   %s (%v)\n", run.StartedAt.Local().Format(time.DateTime), run.Duration)
	if len(run.Matches) == 0 {
		fmt.Fprintln(w, "No matches recorded.")
		return nil
	}
	for i, m := range run.Matches {
		fmt.Fprintf(w, "%d. %s  %.4f\n", i+1, m.Path, m.Score)
	}
	return nil
}

func writeRuns(w io.Writer, runs []types.RunRecord) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTARTED\tSTATUS\tMATCHED\tSCANNED\tQUERY")
	for _, r := range runs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\t%s\n",
			r.ID, r.StartedAt.Local().Format(time.DateTime), r.Status, r.Matched, r.Scanned, r.QueryPath)
	}
	tw.Flush()
}

// runIDToDelete reports the --delete target. Run ids start at 1.
func runIDToDelete(cmd *cobra.Command) (int64, bool, error) {
	if !cmd.Flags().Changed("delete") {
		return 0, false, nil
	}
	id, err := cmd.Flags().GetInt64("delete")
	if err != nil {
		return 0, true, err
	}
	if id <= 0 {
		return 0, true, fmt.Errorf("invalid run id %d for --delete", id)
	}
	return id, true, nil
}
