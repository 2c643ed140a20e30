package cmd

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"imagematcher/database"
	"imagematcher/imageprocessor"
	"imagematcher/logging"
	"imagematcher/matcher"
	"imagematcher/scanner"
	"imagematcher/signalhandler"
	"imagematcher/thumbnail"
	"imagematcher/types"
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Search a directory for images similar to a query image",
	Long: `Search every jpg, jpeg, png and bmp file under --dir for images similar to
--image. Candidates whose mean descriptor distance is below --threshold are
listed from most to least similar.

Press Ctrl+C to stop early; matches found so far are still printed.

Examples:
  # Default threshold (50)
  imagematcher match --image query.jpg --dir ~/Pictures

  # Stricter threshold, top 10 only, JSON output
  imagematcher match --image query.jpg --dir ~/Pictures --threshold 20 --limit 10 --json

  # Write 50x50 previews and record the run
  imagematcher match --image query.jpg --dir ~/Pictures --thumbnails ./thumbs --history`,
	Args: cobra.NoArgs,
	RunE: runMatch,
}

func init() {
	rootCmd.AddCommand(matchCmd)

	matchCmd.Flags().String("image", "", "Query image path (required)")
	matchCmd.Flags().String("dir", "", "Directory to search (required)")
	matchCmd.Flags().Float64("threshold", 50, "Maximum mean distance for a match, 0-100 (lower = stricter)")
	matchCmd.Flags().Int("workers", 0, "Worker count (default: number of CPUs)")
	matchCmd.Flags().Int("batch", 0, "Candidates per worker task (default 10)")
	matchCmd.Flags().Int("limit", 0, "Print at most this many matches (0 = all)")
	matchCmd.Flags().Bool("json", false, "Output as JSON")
	matchCmd.Flags().String("thumbnails", "", "Write JPEG previews of matches to this directory")
	matchCmd.Flags().Bool("history", false, "Record the run in the history database")
	matchCmd.Flags().Bool("no-follow-symlinks", false, "Skip symlinked image files inside --dir")
	_ = matchCmd.MarkFlagRequired("image")
	_ = matchCmd.MarkFlagRequired("dir")
}

// MatchOutput is the JSON form of a finished run
type MatchOutput struct {
	RunID     int64               `json:"run_id,omitempty"`
	Status    string              `json:"status"`
	Message   string              `json:"message"`
	Query     string              `json:"query"`
	Dir       string              `json:"dir"`
	Threshold float64             `json:"threshold"`
	Scanned   int                 `json:"scanned"`
	Processed int                 `json:"processed"`
	Abandoned int                 `json:"abandoned"`
	Failures  int                 `json:"failures"`
	Matched   int                 `json:"matched"`
	Results   []types.MatchResult `json:"results"`
	Previews  map[string]string   `json:"previews,omitempty"`
	Error     string              `json:"error,omitempty"`
	Duration  string              `json:"duration"`
}

func runMatch(cmd *cobra.Command, args []string) error {
	jsonOutput := mustGetBool(cmd, "json")
	limit := mustGetInt(cmd, "limit")
	thumbDir := mustGetString(cmd, "thumbnails")

	flags := cmd.Flags()
	if flags.Changed("threshold") {
		cfg.Match.Threshold = mustGetFloat64(cmd, "threshold")
	}
	if flags.Changed("workers") {
		cfg.Match.Workers = mustGetInt(cmd, "workers")
	}
	if flags.Changed("batch") {
		cfg.Match.BatchSize = mustGetInt(cmd, "batch")
	}
	if flags.Changed("history") {
		cfg.History.Enabled = mustGetBool(cmd, "history")
	}
	if flags.Changed("no-follow-symlinks") {
		cfg.Match.FollowSymlinks = !mustGetBool(cmd, "no-follow-symlinks")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	req := types.MatchRequest{
		QueryPath:  mustGetString(cmd, "image"),
		CorpusRoot: mustGetString(cmd, "dir"),
		Threshold:  cfg.Match.Threshold,
	}

	backend := imageprocessor.NewBackend(cfg.Vision.Width, cfg.Vision.Height)
	opts := []matcher.Option{
		matcher.WithBatchSize(cfg.Match.BatchSize),
		matcher.WithWorkers(cfg.Match.Workers),
		matcher.WithThumbnailSize(cfg.Vision.ThumbnailWidth, cfg.Vision.ThumbnailHeight),
		matcher.WithScanner(&scanner.Scanner{FollowSymlinks: cfg.Match.FollowSymlinks}),
	}
	if !jsonOutput {
		opts = append(opts, matcher.WithObserver(newProgressObserver(os.Stderr)))
	}
	engine := matcher.New(backend, backend, opts...)

	logging.LogInfo("Matching %s against %s (threshold %.2f, %d workers)",
		req.QueryPath, req.CorpusRoot, req.Threshold, engine.Workers())
	if !jsonOutput {
		fmt.Printf("Searching %s for images similar to %s (threshold %.2f, up to %d workers)...\n",
			req.CorpusRoot, req.QueryPath, req.Threshold, engine.Workers())
	}

	stop := signalhandler.SetupHandler(engine.Cancel)
	out, runErr := engine.Run(cmd.Context(), req)
	stop()

	var previews map[string]string
	if thumbDir != "" && len(out.Results) > 0 {
		previews = renderPreviews(out.Results, limit, thumbDir)
	}

	var runID int64
	if cfg.History.Enabled {
		id, err := recordRun(cfg.History.Path, out)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not record run: %v\n", err)
		} else {
			runID = id
			logging.LogInfo("Recorded run %d in %s", id, cfg.History.Path)
		}
	}

	if jsonOutput {
		if err := writeJSON(os.Stdout, buildOutput(out, runID, limit, previews)); err != nil {
			return err
		}
		return runErr
	}

	writeText(os.Stdout, out, limit, previews)
	if runID > 0 {
		fmt.Printf("Run recorded as #%d in %s\n", runID, cfg.History.Path)
	}
	return runErr
}

// statusMessage describes an outcome for humans
func statusMessage(out *matcher.Outcome) string {
	switch out.Status {
	case matcher.StatusCompleted:
		return fmt.Sprintf("Found %d similar image(s).", len(out.Results))
	case matcher.StatusNoSimilarCandidates:
		return "No similar images found."
	case matcher.StatusEmptyCorpus:
		return "No images to compare in the selected directory."
	case matcher.StatusCancelledPartial:
		return fmt.Sprintf("Search cancelled. %d of %d images were compared; results are partial.",
			out.Processed, out.Scanned)
	case matcher.StatusFailed:
		switch {
		case errors.Is(out.Err, matcher.ErrQueryExtraction):
			return "Could not read features from the query image."
		case errors.Is(out.Err, matcher.ErrInvalidRequest):
			return "Invalid search request."
		}
		return "Search failed."
	}
	return out.Status.String()
}

func limited(results []types.MatchResult, limit int) []types.MatchResult {
	if limit > 0 && len(results) > limit {
		return results[:limit]
	}
	return results
}

func writeText(w io.Writer, out *matcher.Outcome, limit int, previews map[string]string) {
	fmt.Fprintln(w, statusMessage(out))
	if out.Err != nil {
		fmt.Fprintf(w, "Error: %v\n", out.Err)
		return
	}

	shown := limited(out.Results, limit)
	if len(shown) > 0 {
		fmt.Fprintln(w, "\nTop Matches:")
	}
	for i, r := range shown {
		fmt.Fprintf(w, "%d. Image: %s\n", i+1, r.Path)
		fmt.Fprintf(w, "   Distance: %.4f\n", r.Score)
		if p, ok := previews[r.Path]; ok {
			fmt.Fprintf(w, "   Preview: %s\n", p)
		}
	}
	if len(shown) < len(out.Results) {
		fmt.Fprintf(w, "... and %d more\n", len(out.Results)-len(shown))
	}

	fmt.Fprintf(w, "\nScanned: %d, compared: %d, unreadable: %d", out.Scanned, out.Processed, out.Failures)
	if out.Abandoned > 0 {
		fmt.Fprintf(w, ", skipped: %d", out.Abandoned)
	}
	fmt.Fprintf(w, "\nTotal search time: %v\n", out.Duration.Round(time.Millisecond))
}

func buildOutput(out *matcher.Outcome, runID int64, limit int, previews map[string]string) MatchOutput {
	res := MatchOutput{
		RunID:     runID,
		Status:    out.Status.String(),
		Message:   statusMessage(out),
		Query:     out.Request.QueryPath,
		Dir:       out.Request.CorpusRoot,
		Threshold: out.Request.Threshold,
		Scanned:   out.Scanned,
		Processed: out.Processed,
		Abandoned: out.Abandoned,
		Failures:  out.Failures,
		Matched:   len(out.Results),
		Results:   limited(out.Results, limit),
		Previews:  previews,
		Duration:  out.Duration.String(),
	}
	if res.Results == nil {
		res.Results = []types.MatchResult{}
	}
	if out.Err != nil {
		res.Error = out.Err.Error()
	}
	return res
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func renderPreviews(results []types.MatchResult, limit int, dir string) map[string]string {
	previews := make(map[string]string)
	for _, r := range limited(results, limit) {
		path, err := thumbnail.Render(r.Thumbnail, dir)
		if err != nil {
			logging.LogWarning("Preview failed for %s: %v", r.Path, err)
			continue
		}
		previews[r.Path] = path
	}
	return previews
}

func recordRun(dbPath string, out *matcher.Outcome) (int64, error) {
	db, err := database.InitDatabase(dbPath)
	if err != nil {
		return 0, err
	}
	defer db.Close()
	return storeOutcome(db, out)
}

func storeOutcome(db *sql.DB, out *matcher.Outcome) (int64, error) {
	return database.StoreRun(db, types.RunRecord{
		QueryPath:  out.Request.QueryPath,
		CorpusRoot: out.Request.CorpusRoot,
		Threshold:  out.Request.Threshold,
		Status:     out.Status.String(),
		Scanned:    out.Scanned,
		Matched:    len(out.Results),
		StartedAt:  out.StartedAt,
		Duration:   out.Duration,
		Matches:    out.Results,
	})
}
