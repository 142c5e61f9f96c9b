package repositories

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"agroadvisor/internal/models"
	"agroadvisor/pkg/observe"
)

// ErrNoPriceData signals a missing price table or an empty post-filter set.
// Surfaced to the user as "no prediction for this crop", never an abort.
var ErrNoPriceData = errors.New("no price data")

// Column headers of the agmarknet price exports.
const (
	colReportedDate = "Reported Date"
	colModalPrice   = "Modal Price (Rs./Quintal)"
	colArrivals     = "Arrivals (Tonnes)"
	colDistrict     = "District Name"
	colMarket       = "Market Name"
	colState        = "State Name"
)

// Reported dates come in day-first formats, occasionally ISO.
var priceDateFormats = []string{"02/01/2006", "02-01-2006", "2006-01-02"}

// PriceStore reads per-crop historical price tables from flat CSV files,
// one file per crop.
type PriceStore struct {
	dataDir string
	l       *observe.Logger
}

func NewPriceStore(dataDir string, l *observe.Logger) *PriceStore {
	return &PriceStore{
		dataDir: dataDir,
		l:       l,
	}
}

// LoadCrop reads the crop's price table. Returns ErrNoPriceData when the
// file does not exist. Rows with unparseable cells are kept with nil fields;
// the feature builder decides what to drop.
func (s *PriceStore) LoadCrop(crop string) ([]models.PriceRecord, error) {
	name := strings.ReplaceAll(strings.ToLower(crop), "/", "_") + ".csv"
	path := filepath.Join(s.dataDir, name)

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			s.l.Info("price CSV not found, skipping price forecast", map[string]any{"path": path})
			return nil, ErrNoPriceData
		}
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if len(rows) < 2 {
		return nil, ErrNoPriceData
	}

	idx := headerIndex(rows[0])

	records := make([]models.PriceRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		records = append(records, models.PriceRecord{
			Date:           parsePriceDate(cell(row, colIdx(idx, colReportedDate))),
			ModalPrice:     parsePriceNumber(cell(row, colIdx(idx, colModalPrice))),
			ArrivalsTonnes: parsePriceNumber(cell(row, colIdx(idx, colArrivals))),
			District:       cell(row, colIdx(idx, colDistrict)),
			Market:         cell(row, colIdx(idx, colMarket)),
			State:          cell(row, colIdx(idx, colState)),
		})
	}

	s.l.Info("loaded price table", map[string]any{"crop": crop, "rows": len(records)})

	return records, nil
}

// FilterDistrict keeps rows whose district matches, trimmed and
// case-insensitive.
func FilterDistrict(records []models.PriceRecord, district string) []models.PriceRecord {
	want := strings.ToLower(strings.TrimSpace(district))

	var out []models.PriceRecord
	for _, r := range records {
		if strings.ToLower(strings.TrimSpace(r.District)) == want {
			out = append(out, r)
		}
	}

	return out
}

// FilterMarket keeps rows for one market (exact match, as stored).
func FilterMarket(records []models.PriceRecord, market string) []models.PriceRecord {
	var out []models.PriceRecord
	for _, r := range records {
		if r.Market == market {
			out = append(out, r)
		}
	}

	return out
}

// PrimaryMarket picks the most frequently reported market in the rows and
// the most frequent state, ties broken alphabetically.
func PrimaryMarket(records []models.PriceRecord) (market, state string, err error) {
	if len(records) == 0 {
		return "", "", ErrNoPriceData
	}

	market = modeString(records, func(r models.PriceRecord) string { return r.Market })
	state = modeString(records, func(r models.PriceRecord) string { return r.State })

	if market == "" {
		return "", "", ErrNoPriceData
	}

	return market, state, nil
}

// CropOptions lists the distinct commodities available for prediction,
// sorted, from commodities.csv.
func (s *PriceStore) CropOptions() ([]string, error) {
	return s.distinctColumn("commodities.csv", "Commodity")
}

// DistrictOptions lists the distinct districts known to the market dataset,
// sorted, from agmarknet_state_district_market.csv.
func (s *PriceStore) DistrictOptions() ([]string, error) {
	return s.distinctColumn("agmarknet_state_district_market.csv", "district")
}

func (s *PriceStore) distinctColumn(file, column string) ([]string, error) {
	path := filepath.Join(s.dataDir, file)

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if len(rows) < 1 {
		return nil, nil
	}

	col, ok := headerIndex(rows[0])[column]
	if !ok {
		return nil, fmt.Errorf("column %q not found in %s", column, path)
	}

	seen := make(map[string]bool)
	var out []string
	for _, row := range rows[1:] {
		v := cell(row, col)
		if v != "" && !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}

	sort.Strings(out)

	return out, nil
}

func headerIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(h)] = i
	}
	return idx
}

func colIdx(idx map[string]int, name string) int {
	if i, ok := idx[name]; ok {
		return i
	}
	return -1
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func parsePriceDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, format := range priceDateFormats {
		if t, err := time.Parse(format, s); err == nil {
			return &t
		}
	}
	return nil
}

func parsePriceNumber(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return nil
	}
	return &v
}

func modeString(records []models.PriceRecord, get func(models.PriceRecord) string) string {
	counts := make(map[string]int)
	for _, r := range records {
		if v := get(r); v != "" {
			counts[v]++
		}
	}

	best := ""
	bestCount := 0
	for v, c := range counts {
		if c > bestCount || (c == bestCount && (best == "" || v < best)) {
			best = v
			bestCount = c
		}
	}

	return best
}
