package matcher

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"imagematcher/types"
)

// vecDescriptor is a one-dimensional stand-in for a keypoint descriptor set
type vecDescriptor struct {
	values []float64
	closed bool
}

func (d *vecDescriptor) Len() int { return len(d.values) }

func (d *vecDescriptor) Close() error {
	d.closed = true
	return nil
}

// fakeExtractor serves descriptors keyed by file base name
type fakeExtractor struct {
	mu       sync.Mutex
	features map[string][]float64
	fail     map[string]bool
	calls    []string
	// hook runs before every extraction of a non-query file
	hook  func(path string)
	query string
}

func newFakeExtractor() *fakeExtractor {
	return &fakeExtractor{features: map[string][]float64{}, fail: map[string]bool{}}
}

func (f *fakeExtractor) Extract(path string) (types.Descriptor, error) {
	base := filepath.Base(path)
	f.mu.Lock()
	f.calls = append(f.calls, base)
	hook := f.hook
	isQuery := base == f.query
	f.mu.Unlock()

	if hook != nil && !isQuery {
		hook(path)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail[base] {
		return nil, fmt.Errorf("%w: %s", types.ErrDecode, base)
	}
	values, ok := f.features[base]
	if !ok {
		return nil, fmt.Errorf("%w: unknown fixture %s", types.ErrDecode, base)
	}
	return &vecDescriptor{values: values}, nil
}

func (f *fakeExtractor) candidateCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c != f.query {
			n++
		}
	}
	return n
}

// bruteMatcher returns, for each query value, the distance to its nearest candidate value
type bruteMatcher struct{}

func (bruteMatcher) PairwiseDistance(q, c types.Descriptor) ([]float64, error) {
	qv := q.(*vecDescriptor).values
	cv := c.(*vecDescriptor).values
	out := make([]float64, 0, len(qv))
	for _, a := range qv {
		best := math.Inf(1)
		for _, b := range cv {
			best = math.Min(best, math.Abs(a-b))
		}
		out = append(out, best)
	}
	return out, nil
}

type corpus struct {
	root string
	ex   *fakeExtractor
}

func newCorpus(t *testing.T) *corpus {
	t.Helper()
	return &corpus{root: t.TempDir(), ex: newFakeExtractor()}
}

// add writes a placeholder file and registers its descriptor values
func (c *corpus) add(t *testing.T, rel string, values ...float64) string {
	t.Helper()
	path := filepath.Join(c.root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	c.ex.features[filepath.Base(rel)] = values
	return path
}

// query registers a query image outside the corpus root
func (c *corpus) query(t *testing.T, name string, values ...float64) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("q"), 0o644))
	c.ex.features[name] = values
	c.ex.query = name
	return path
}

type recordingObserver struct {
	mu         sync.Mutex
	stages     []Stage
	candidates int
	finished   []*Outcome
}

func (r *recordingObserver) OnStage(s Stage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stages = append(r.stages, s)
}

func (r *recordingObserver) OnCandidate(done, total int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.candidates++
}

func (r *recordingObserver) OnFinish(out *Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finished = append(r.finished, out)
}
