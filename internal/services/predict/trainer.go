package predict

import (
	"errors"

	"agroadvisor/internal/forest"
	"agroadvisor/internal/models"
)

// Minimum usable rows before a fit is attempted; fewer would produce a
// degenerate model.
const minTrainingRows = 20

const (
	trainSeed    = 42
	testFraction = 0.2
	nEstimators  = 100
	maxTreeDepth = 10
)

// ErrInsufficientData signals too few rows to train.
var ErrInsufficientData = errors.New("not enough data to train")

// TrainedModel is an in-memory price model scoped to one request. It is
// never persisted; the R² score is advisory only and never gates a forecast.
type TrainedModel struct {
	forest    *forest.Regressor
	R2        float64
	TrainRows int
}

// Train fits a bagged regression forest on the rows with a fixed-seed 80/20
// holdout split. The holdout R² is 0.0 when the holdout is empty.
func Train(rows []models.TrainingRow) (*TrainedModel, error) {
	if len(rows) < minTrainingRows {
		return nil, ErrInsufficientData
	}

	X := make([][]float64, len(rows))
	y := make([]float64, len(rows))
	for i, row := range rows {
		X[i] = row.Features()
		y[i] = row.ModalPrice
	}

	trainIdx, testIdx := forest.TrainTestSplit(len(rows), testFraction, trainSeed)

	trainX := make([][]float64, len(trainIdx))
	trainY := make([]float64, len(trainIdx))
	for i, idx := range trainIdx {
		trainX[i] = X[idx]
		trainY[i] = y[idx]
	}

	model, err := forest.TrainRegressor(trainX, trainY, forest.Config{
		NEstimators: nEstimators,
		MaxDepth:    maxTreeDepth,
		Seed:        trainSeed,
	})
	if err != nil {
		return nil, err
	}

	r2 := 0.0
	if len(testIdx) > 0 {
		yTrue := make([]float64, len(testIdx))
		yPred := make([]float64, len(testIdx))
		for i, idx := range testIdx {
			yTrue[i] = y[idx]
			yPred[i] = model.Predict(X[idx])
		}
		r2 = forest.RSquared(yTrue, yPred)
	}

	return &TrainedModel{
		forest:    model,
		R2:        r2,
		TrainRows: len(trainIdx),
	}, nil
}
