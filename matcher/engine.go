package matcher

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"imagematcher/logging"
	"imagematcher/scanner"
	"imagematcher/types"
	"imagematcher/utils"
)

var (
	// ErrQueryExtraction means the query image could not be decoded or yielded no features
	ErrQueryExtraction = errors.New("query extraction failed")

	// ErrInvalidRequest means the request failed validation
	ErrInvalidRequest = errors.New("invalid match request")

	// ErrRunInProgress means the engine is already running a request
	ErrRunInProgress = errors.New("a matching run is already in progress")
)

// CorpusScanner lists candidate images under a root directory
type CorpusScanner interface {
	Scan(root string) []types.CandidateFile
}

// Option configures an Engine
type Option func(*Engine)

// WithBatchSize sets the number of candidates per worker task
func WithBatchSize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.batchSize = n
		}
	}
}

// WithWorkers sets the worker pool size; n <= 0 keeps the host parallelism
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithObserver registers a progress observer
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		if o != nil {
			e.observer = o
		}
	}
}

// WithScanner replaces the corpus scanner
func WithScanner(s CorpusScanner) Option {
	return func(e *Engine) {
		if s != nil {
			e.scanner = s
		}
	}
}

// WithThumbnailSize sets the preview size put in every ThumbnailRef
func WithThumbnailSize(width, height int) Option {
	return func(e *Engine) {
		if width > 0 && height > 0 {
			e.thumbWidth, e.thumbHeight = width, height
		}
	}
}

// Engine runs similarity searches of one query image against a corpus directory
type Engine struct {
	extractor   types.FeatureExtractor
	scorer      *Scorer
	scanner     CorpusScanner
	observer    Observer
	batchSize   int
	workers     int
	thumbWidth  int
	thumbHeight int

	mu     sync.Mutex
	active *CancelToken
}

// New creates an Engine over the given feature extractor and descriptor matcher
func New(extractor types.FeatureExtractor, dm types.DescriptorMatcher, opts ...Option) *Engine {
	e := &Engine{
		extractor:   extractor,
		scorer:      NewScorer(dm),
		scanner:     scanner.New(),
		observer:    nopObserver{},
		batchSize:   DefaultBatchSize,
		workers:     runtime.NumCPU(),
		thumbWidth:  50,
		thumbHeight: 50,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Workers returns the worker pool size used for each run
func (e *Engine) Workers() int {
	return e.workers
}

// Cancel asks the active run to stop starting new candidates. It is a no-op
// when no run is active.
func (e *Engine) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active != nil {
		e.active.Cancel()
	}
}

// Run executes req and blocks until every dispatched batch has finished.
// The returned Outcome is never nil; err is non-nil only for StatusFailed.
func (e *Engine) Run(ctx context.Context, req types.MatchRequest) (*Outcome, error) {
	start := time.Now()
	token, err := e.begin()
	if err != nil {
		out := rejected(req, start, err)
		return out, out.Err
	}
	out := e.execute(ctx, req, token, start)
	return out, out.Err
}

// RunAsync starts req in the background and delivers the outcome on the
// returned channel. The run is active once RunAsync returns, so an immediate
// Cancel applies to it.
func (e *Engine) RunAsync(ctx context.Context, req types.MatchRequest) <-chan *Outcome {
	done := make(chan *Outcome, 1)
	start := time.Now()

	token, err := e.begin()
	if err != nil {
		done <- rejected(req, start, err)
		close(done)
		return done
	}

	go func() {
		defer close(done)
		done <- e.execute(ctx, req, token, start)
	}()
	return done
}

func (e *Engine) begin() (*CancelToken, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active != nil {
		return nil, ErrRunInProgress
	}
	e.active = &CancelToken{}
	return e.active, nil
}

func (e *Engine) end(token *CancelToken) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active == token {
		e.active = nil
	}
}

// rejected builds the outcome of a request that never became the active
// run. The observer belongs to the active run and is not notified.
func rejected(req types.MatchRequest, start time.Time, err error) *Outcome {
	return &Outcome{
		Request:   req,
		Status:    StatusFailed,
		Results:   []types.MatchResult{},
		Err:       err,
		StartedAt: start,
		Duration:  time.Since(start),
	}
}

func (e *Engine) failed(req types.MatchRequest, start time.Time, err error) *Outcome {
	out := rejected(req, start, err)
	logging.LogError("Matching run failed: %v", err)
	e.observer.OnFinish(out)
	return out
}

// runState is shared by the workers of one run
type runState struct {
	queryPath string
	query     types.Descriptor
	threshold float64
	total     int
	token     *CancelToken
	results   *Aggregator

	processed atomic.Int64
	abandoned atomic.Int64
	failures  atomic.Int64
}

func (e *Engine) execute(ctx context.Context, req types.MatchRequest, token *CancelToken, start time.Time) *Outcome {
	defer e.end(token)

	stop := context.AfterFunc(ctx, token.Cancel)
	defer stop()

	if err := req.Validate(); err != nil {
		return e.failed(req, start, fmt.Errorf("%w: %v", ErrInvalidRequest, err))
	}
	// resolved like the scanner resolves the corpus root, for self-match exclusion
	queryPath, err := utils.ResolvePath(req.QueryPath)
	if err != nil {
		return e.failed(req, start, fmt.Errorf("%w: %v", ErrInvalidRequest, err))
	}

	logging.DebugLog("Starting match for %s in %s (threshold %.2f, workers %d, batch %d)",
		queryPath, req.CorpusRoot, req.Threshold, e.workers, e.batchSize)

	e.observer.OnStage(StageExtractingQuery)
	query, err := e.extractor.Extract(queryPath)
	if err != nil {
		return e.failed(req, start, fmt.Errorf("%w: %w", ErrQueryExtraction, err))
	}
	defer query.Close()
	if query.Len() == 0 {
		return e.failed(req, start, fmt.Errorf("%w: no features in %s", ErrQueryExtraction, queryPath))
	}

	e.observer.OnStage(StageScanning)
	files := e.scanner.Scan(req.CorpusRoot)

	out := &Outcome{
		Request:   req,
		Scanned:   len(files),
		StartedAt: start,
	}
	if len(files) == 0 {
		out.Status = StatusEmptyCorpus
		out.Results = []types.MatchResult{}
		return e.finish(out)
	}

	st := &runState{
		queryPath: queryPath,
		query:     query,
		threshold: req.Threshold,
		total:     len(files),
		token:     token,
		results:   NewAggregator(),
	}

	e.observer.OnStage(StageDispatchingBatches)
	batches := Partition(files, e.batchSize)
	workers := min(e.workers, len(batches))

	queue := make(chan Batch)
	var g errgroup.Group
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for b := range queue {
				e.processBatch(st, b)
			}
			return nil
		})
	}

	for i, b := range batches {
		if token.Cancelled() {
			for _, rest := range batches[i:] {
				st.abandoned.Add(int64(len(rest.Files)))
			}
			break
		}
		queue <- b
	}
	close(queue)

	e.observer.OnStage(StageAwaitingCompletion)
	_ = g.Wait()

	out.Results = st.results.Drain()
	out.Processed = int(st.processed.Load())
	out.Abandoned = int(st.abandoned.Load())
	out.Failures = int(st.failures.Load())

	switch {
	case out.Abandoned > 0:
		out.Status = StatusCancelledPartial
	case len(out.Results) == 0:
		out.Status = StatusNoSimilarCandidates
	default:
		out.Status = StatusCompleted
	}
	return e.finish(out)
}

func (e *Engine) finish(out *Outcome) *Outcome {
	out.Duration = time.Since(out.StartedAt)
	logging.WithFields(map[string]interface{}{
		"status":    out.Status.String(),
		"scanned":   out.Scanned,
		"processed": out.Processed,
		"abandoned": out.Abandoned,
		"failures":  out.Failures,
		"matches":   len(out.Results),
		"duration":  out.Duration.String(),
	}).Debug("Matching run finished")
	e.observer.OnFinish(out)
	return out
}

// processBatch handles one batch sequentially, checking the token before
// every candidate. A comparison already started always runs to completion.
func (e *Engine) processBatch(st *runState, b Batch) {
	for i, file := range b.Files {
		if st.token.Cancelled() {
			st.abandoned.Add(int64(len(b.Files) - i))
			logging.DebugLog("Batch %d abandoned %d candidates after cancellation", b.Index, len(b.Files)-i)
			return
		}
		done := st.processed.Add(1)
		if file.Path != st.queryPath {
			e.processCandidate(st, file)
		}
		e.observer.OnCandidate(int(done), st.total)
	}
}

func (e *Engine) processCandidate(st *runState, file types.CandidateFile) {
	desc, err := e.extractor.Extract(file.Path)
	if err != nil {
		st.failures.Add(1)
		logging.LogImageProcessed(file.Path, false, err.Error())
		return
	}
	defer desc.Close()

	score, err := e.scorer.Score(st.query, desc)
	if err != nil {
		logging.LogImageProcessed(file.Path, false, err.Error())
		return
	}
	logging.LogImageProcessed(file.Path, true, "")

	if score >= st.threshold {
		return
	}
	st.results.Push(types.MatchResult{
		Path:  file.Path,
		Score: score,
		Thumbnail: types.ThumbnailRef{
			Source: file.Path,
			Width:  e.thumbWidth,
			Height: e.thumbHeight,
		},
	})
	logging.DebugLog("Match confirmed: %s (distance %.4f < %.4f)", file.Path, score, st.threshold)
}
