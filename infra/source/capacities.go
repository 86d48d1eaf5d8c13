package source

import (
	"fmt"
	"os"
	"strconv"

	"github.com/kilianp07/firmflex/core/logger"
)

// Firm capacity file columns.
const (
	ColCapacitySite = "Site"
	ColCapacityMW   = "Firm_Capacity_MW"
)

// KnownCapacity is a pre-computed firm capacity for one site.
type KnownCapacity struct {
	Site string
	MW   float64
}

// LoadFirmCapacities reads a Site,Firm_Capacity_MW CSV. Sites keep their
// first-seen order; a repeated site takes the later value. Rows with an
// unparseable capacity are skipped with a warning.
func LoadFirmCapacities(path string, log logger.Logger) ([]KnownCapacity, error) {
	log = logger.OrNop(log)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open firm capacities: %w", err)
	}
	defer f.Close()
	t, err := readTable(f)
	if err != nil {
		return nil, fmt.Errorf("read firm capacities: %w", err)
	}
	if !t.has(ColCapacitySite) || !t.has(ColCapacityMW) {
		return nil, fmt.Errorf("firm capacities file must have %s and %s columns", ColCapacitySite, ColCapacityMW)
	}
	var out []KnownCapacity
	seen := map[string]int{}
	for _, row := range t.rows {
		site := t.value(row, ColCapacitySite)
		if site == "" {
			continue
		}
		mw, err := strconv.ParseFloat(t.value(row, ColCapacityMW), 64)
		if err != nil {
			log.Warnf("skipping firm capacity for %s: %v", site, err)
			continue
		}
		if i, ok := seen[site]; ok {
			out[i].MW = mw
			continue
		}
		seen[site] = len(out)
		out = append(out, KnownCapacity{Site: site, MW: mw})
	}
	return out, nil
}
