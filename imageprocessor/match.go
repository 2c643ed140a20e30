package imageprocessor

import (
	"fmt"

	"gocv.io/x/gocv"

	"imagematcher/types"
)

// BestMatchDistances matches every row of query to its nearest row of train
// with a brute-force L2 matcher and returns one distance per query row
func BestMatchDistances(query, train gocv.Mat) ([]float64, error) {
	if query.Empty() || train.Empty() {
		return []float64{}, nil
	}
	if query.Cols() != train.Cols() || query.Type() != train.Type() {
		return nil, fmt.Errorf("%w: descriptor layout mismatch (%d/%v vs %d/%v)",
			types.ErrExtraction, query.Cols(), query.Type(), train.Cols(), train.Type())
	}

	bf := gocv.NewBFMatcher()
	defer bf.Close()

	matches := bf.KnnMatch(query, train, 1)
	distances := make([]float64, 0, len(matches))
	for _, m := range matches {
		if len(m) == 0 {
			continue
		}
		distances = append(distances, m[0].Distance)
	}
	return distances, nil
}
