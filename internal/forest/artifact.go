package forest

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// LoadClassifier reads a pre-trained classifier artifact from disk.
func LoadClassifier(path string) (*Classifier, error) {
	var c Classifier
	if err := readArtifact(path, &c); err != nil {
		return nil, err
	}
	if len(c.Trees) == 0 || len(c.Classes) == 0 {
		return nil, fmt.Errorf("classifier artifact %s is empty", path)
	}
	return &c, nil
}

func (c *Classifier) Save(path string) error {
	return writeArtifact(path, c)
}

// YieldModel is the pre-trained yield regressor. It predicts a normalized
// productivity score from the categorical triple {district, crop, season},
// encoded through the vocabularies captured at training time. Unknown
// values encode as -1, which the trees route like any out-of-range feature.
type YieldModel struct {
	Forest    *Regressor     `json:"forest"`
	Districts map[string]int `json:"districts"`
	Crops     map[string]int `json:"crops"`
	Seasons   map[string]int `json:"seasons"`
}

func LoadYieldModel(path string) (*YieldModel, error) {
	var m YieldModel
	if err := readArtifact(path, &m); err != nil {
		return nil, err
	}
	if m.Forest == nil || len(m.Forest.Trees) == 0 {
		return nil, fmt.Errorf("yield model artifact %s is empty", path)
	}
	return &m, nil
}

func (m *YieldModel) Save(path string) error {
	return writeArtifact(path, m)
}

func (m *YieldModel) Predict(district, crop, season string) float64 {
	x := []float64{
		encodeCategory(m.Districts, district),
		encodeCategory(m.Crops, crop),
		encodeCategory(m.Seasons, season),
	}
	return m.Forest.Predict(x)
}

// EncodeVocabulary builds the category index used by the yield model,
// assigning indices in sorted order.
func EncodeVocabulary(values []string) map[string]int {
	vocab := make(map[string]int)
	for _, v := range distinctSorted(normalizeAll(values)) {
		vocab[v] = len(vocab)
	}
	return vocab
}

func encodeCategory(vocab map[string]int, value string) float64 {
	if i, ok := vocab[normalizeCategory(value)]; ok {
		return float64(i)
	}
	return -1
}

func normalizeCategory(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

func normalizeAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = normalizeCategory(v)
	}
	return out
}

func readArtifact(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read model artifact: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse model artifact %s: %w", path, err)
	}
	return nil
}

func writeArtifact(path string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode model artifact: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write model artifact: %w", err)
	}
	return nil
}
