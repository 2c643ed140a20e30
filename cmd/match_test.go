package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imagematcher/database"
	"imagematcher/matcher"
	"imagematcher/types"
)

func sampleOutcome() *matcher.Outcome {
	return &matcher.Outcome{
		Request: types.MatchRequest{QueryPath: "/q.jpg", CorpusRoot: "/pics", Threshold: 40},
		Status:  matcher.StatusCompleted,
		Results: []types.MatchResult{
			{Path: "/pics/a.jpg", Score: 1.25},
			{Path: "/pics/b.jpg", Score: 9.5},
			{Path: "/pics/c.jpg", Score: 30},
		},
		Scanned:   5,
		Processed: 5,
		Failures:  1,
		StartedAt: time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC),
		Duration:  2 * time.Second,
	}
}

func TestStatusMessageCoversEveryOutcome(t *testing.T) {
	cases := map[matcher.Status]string{
		matcher.StatusCompleted:           "Found 3 similar image(s).",
		matcher.StatusNoSimilarCandidates: "No similar images found.",
		matcher.StatusEmptyCorpus:         "No images to compare in the selected directory.",
		matcher.StatusCancelledPartial:    "Search cancelled. 5 of 5 images were compared; results are partial.",
		matcher.StatusFailed:              "Search failed.",
	}
	for status, want := range cases {
		out := sampleOutcome()
		out.Status = status
		assert.Equal(t, want, statusMessage(out), status.String())
	}

	out := sampleOutcome()
	out.Status = matcher.StatusFailed
	out.Err = fmt.Errorf("%w: boom", matcher.ErrQueryExtraction)
	assert.Equal(t, "Could not read features from the query image.", statusMessage(out))
}

func TestWriteTextHonoursLimit(t *testing.T) {
	var buf bytes.Buffer
	writeText(&buf, sampleOutcome(), 2, map[string]string{"/pics/a.jpg": "/t/a.jpg"})

	text := buf.String()
	assert.Contains(t, text, "1. Image: /pics/a.jpg")
	assert.Contains(t, text, "Preview: /t/a.jpg")
	assert.Contains(t, text, "2. Image: /pics/b.jpg")
	assert.NotContains(t, text, "/pics/c.jpg")
	assert.Contains(t, text, "... and 1 more")
	assert.NotContains(t, text, "skipped")
}

func TestWriteTextFailure(t *testing.T) {
	out := &matcher.Outcome{Status: matcher.StatusFailed, Err: fmt.Errorf("%w: bad", matcher.ErrInvalidRequest)}
	var buf bytes.Buffer
	writeText(&buf, out, 0, nil)
	assert.Contains(t, buf.String(), "Invalid search request.")
	assert.Contains(t, buf.String(), "Error: invalid match request: bad")
}

func TestBuildOutputJSON(t *testing.T) {
	out := sampleOutcome()
	out.Status = matcher.StatusCancelledPartial
	out.Abandoned = 2

	var buf bytes.Buffer
	require.NoError(t, writeJSON(&buf, buildOutput(out, 7, 1, nil)))

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "cancelled_partial", decoded["status"])
	assert.EqualValues(t, 7, decoded["run_id"])
	assert.EqualValues(t, 3, decoded["matched"])
	assert.EqualValues(t, 2, decoded["abandoned"])
	assert.Len(t, decoded["results"], 1)
	assert.NotContains(t, decoded, "error")
}

func TestBuildOutputEmptyResultsIsArray(t *testing.T) {
	out := &matcher.Outcome{Status: matcher.StatusEmptyCorpus}
	var buf bytes.Buffer
	require.NoError(t, writeJSON(&buf, buildOutput(out, 0, 0, nil)))
	assert.Contains(t, buf.String(), `"results": []`)
}

func TestStoreOutcomeAndShowRun(t *testing.T) {
	db, err := database.InitDatabase(filepath.Join(t.TempDir(), "h.db"))
	require.NoError(t, err)
	defer db.Close()

	id, err := storeOutcome(db, sampleOutcome())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, showRun(&buf, db, id, false))
	assert.Contains(t, buf.String(), "(completed)")
	assert.Contains(t, buf.String(), "1. /pics/a.jpg  1.2500")

	runs, err := database.ListRuns(db, 0)
	require.NoError(t, err)
	buf.Reset()
	writeRuns(&buf, runs)
	assert.Contains(t, buf.String(), "MATCHED")
	assert.Contains(t, buf.String(), "/q.jpg")

	buf.Reset()
	writeRuns(&buf, nil)
	assert.Equal(t, "No runs recorded.\n", buf.String())
}
