package recommend

import (
	"encoding/csv"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"agroadvisor/config"
	"agroadvisor/internal/forest"
	"agroadvisor/internal/models"
	"agroadvisor/pkg/observe"
)

// Assets holds the pre-trained models and lookup data the engine needs.
// Loaded once at process start and immutable afterwards.
type Assets struct {
	Classifier *forest.Classifier
	Yield      *forest.YieldModel
	AvgYield   map[string]models.YieldInfo
}

// LoadAssets loads the classifier and yield artifacts plus the historical
// average-yield lookup. Any failure is returned to the caller, which runs
// the service in degraded mode (recommendation endpoints disabled) instead
// of crashing.
func LoadAssets(cfg *config.Config, l *observe.Logger) (*Assets, error) {
	l.Info("loading recommender assets", map[string]any{
		"classifier": cfg.CropModelFile,
		"yield":      cfg.YieldModelFile,
		"avg_yield":  cfg.YieldCSVFile,
	})

	classifier, err := forest.LoadClassifier(cfg.CropModelFile)
	if err != nil {
		return nil, errors.Wrap(err, "loading crop classifier")
	}

	yieldModel, err := forest.LoadYieldModel(cfg.YieldModelFile)
	if err != nil {
		return nil, errors.Wrap(err, "loading yield model")
	}

	avgYield, err := loadAvgYieldLookup(cfg.YieldCSVFile)
	if err != nil {
		return nil, errors.Wrap(err, "loading average yield lookup")
	}

	l.Info("recommender assets loaded", map[string]any{
		"classes":   len(classifier.Classes),
		"avg_yield": len(avgYield),
	})

	return &Assets{
		Classifier: classifier,
		Yield:      yieldModel,
		AvgYield:   avgYield,
	}, nil
}

// loadAvgYieldLookup groups the crop-wise yield table by crop name, taking
// the mean yield and the first unit seen.
func loadAvgYieldLookup(path string) (map[string]models.YieldInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return map[string]models.YieldInfo{}, nil
	}

	idx := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		idx[strings.TrimSpace(h)] = i
	}

	cropCol, okCrop := idx["crop_name"]
	yieldCol, okYield := idx["yield"]
	unitCol, okUnit := idx["yield_unit"]
	if !okCrop || !okYield {
		return nil, errors.New("yield CSV missing crop_name or yield column")
	}

	type agg struct {
		sum   float64
		count int
		unit  string
	}
	sums := make(map[string]*agg)

	for _, row := range rows[1:] {
		if cropCol >= len(row) || yieldCol >= len(row) {
			continue
		}
		crop := strings.TrimSpace(row[cropCol])
		y, err := strconv.ParseFloat(strings.TrimSpace(row[yieldCol]), 64)
		if crop == "" || err != nil {
			continue
		}

		a, ok := sums[crop]
		if !ok {
			a = &agg{}
			if okUnit && unitCol < len(row) {
				a.unit = strings.TrimSpace(row[unitCol])
			}
			sums[crop] = a
		}
		a.sum += y
		a.count++
	}

	lookup := make(map[string]models.YieldInfo, len(sums))
	for crop, a := range sums {
		lookup[crop] = models.YieldInfo{
			AvgYield: a.sum / float64(a.count),
			Unit:     a.unit,
		}
	}

	return lookup, nil
}
