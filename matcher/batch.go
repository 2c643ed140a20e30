package matcher

import "imagematcher/types"

// DefaultBatchSize is the number of candidates one worker processes per task
const DefaultBatchSize = 10

// Batch is a contiguous slice of the shared candidate list
type Batch struct {
	Index int
	Files []types.CandidateFile
}

// Partition splits files into ceil(len(files)/size) batches. The batches share
// the backing array of files, which is read-only during a run.
func Partition(files []types.CandidateFile, size int) []Batch {
	if size <= 0 {
		size = DefaultBatchSize
	}
	n := (len(files) + size - 1) / size
	batches := make([]Batch, 0, n)
	for i := 0; i < n; i++ {
		start := i * size
		end := min(start+size, len(files))
		batches = append(batches, Batch{Index: i, Files: files[start:end:end]})
	}
	return batches
}
