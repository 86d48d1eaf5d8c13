// Package source reads site demand series from CSV files, either one file
// per site or one bulk file holding every network group.
package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/kilianp07/firmflex/core/logger"
	"github.com/kilianp07/firmflex/core/model"
)

// Canonical column names.
const (
	ColTimestamp = "Timestamp"
	ColDemand    = "Demand (MW)"
	ColSite      = "Substation"
	ColVoltage   = "Nominal Voltage"
	ColGroup     = "Network Group Name"
)

// columnAliases maps alternative headers onto canonical names. An alias is
// only applied when the canonical column is absent, and the first alias
// present wins.
var columnAliases = []struct{ alias, canonical string }{
	{"timestamp", ColTimestamp},
	{"demand_mw", ColDemand},
	{"underlying_demand_mw", ColDemand},
	{"group_name", ColGroup},
	{"network_group", ColGroup},
	{"substation", ColSite},
	{"nominal_voltage", ColVoltage},
}

type table struct {
	header []string
	index  map[string]int
	rows   [][]string
}

func readTable(r io.Reader) (*table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty csv")
		}
		return nil, err
	}
	t := &table{index: make(map[string]int, len(header))}
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		header[i] = h
		t.index[h] = i
	}
	for _, a := range columnAliases {
		if _, ok := t.index[a.canonical]; ok {
			continue
		}
		if i, ok := t.index[a.alias]; ok {
			t.index[a.canonical] = i
			header[i] = a.canonical
		}
	}
	t.header = header
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		t.rows = append(t.rows, rec)
	}
	return t, nil
}

func (t *table) value(row []string, col string) string {
	i, ok := t.index[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func (t *table) has(col string) bool {
	_, ok := t.index[col]
	return ok
}

// filter returns a table sharing t's header with the rows where col equals v.
func (t *table) filter(col, v string) *table {
	out := &table{header: t.header, index: t.index}
	for _, row := range t.rows {
		if t.value(row, col) == v {
			out.rows = append(out.rows, row)
		}
	}
	return out
}

func (t *table) write(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.header); err != nil {
		return err
	}
	if err := cw.WriteAll(t.rows); err != nil {
		return err
	}
	return cw.Error()
}

var naiveLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999",
	"02/01/2006 15:04",
	"2006-01-02",
}

var zonedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05-0700",
}

// ParseTimestamp accepts ISO-8601 style timestamps. Timestamps carrying an
// offset are converted to UTC; naive ones are read as UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}

// series converts the table into a demand series. Rows with an unparseable
// timestamp or demand are dropped with a warning, as are rows repeating an
// earlier timestamp.
func (t *table) series(site string, deltaT float64, log logger.Logger) (*model.DemandSeries, error) {
	log = logger.OrNop(log)
	var missing []string
	for _, c := range []string{ColTimestamp, ColDemand} {
		if !t.has(c) {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, &model.InputError{Site: site, Reason: fmt.Sprintf("missing required columns %v", missing)}
	}

	name, voltage := "", ""
	samples := make([]model.Sample, 0, len(t.rows))
	dropped, repeated := 0, 0
	seen := make(map[int64]struct{}, len(t.rows))
	for _, row := range t.rows {
		ts, err := ParseTimestamp(t.value(row, ColTimestamp))
		if err != nil {
			dropped++
			continue
		}
		d, err := strconv.ParseFloat(t.value(row, ColDemand), 64)
		if err != nil {
			dropped++
			continue
		}
		if _, ok := seen[ts.UnixNano()]; ok {
			repeated++
			continue
		}
		seen[ts.UnixNano()] = struct{}{}
		if name == "" {
			name = t.value(row, ColSite)
		}
		if voltage == "" {
			voltage = t.value(row, ColVoltage)
		}
		samples = append(samples, model.Sample{Time: ts, DemandMW: d})
	}
	if dropped > 0 {
		log.Warnf("dropped %d rows with invalid timestamp or demand for %s", dropped, site)
	}
	if repeated > 0 {
		log.Warnf("dropped %d rows repeating an earlier timestamp for %s", repeated, site)
	}
	if name == "" {
		name = site
	}
	s, err := model.NewDemandSeries(name, samples, deltaT)
	if err != nil {
		var ie *model.InputError
		if errors.As(err, &ie) && ie.Site == "" {
			ie.Site = site
		}
		return nil, err
	}
	s.NominalVoltage = voltage
	return s, nil
}

// Decode reads one site's demand CSV.
func Decode(r io.Reader, site string, deltaT float64, log logger.Logger) (*model.DemandSeries, error) {
	t, err := readTable(r)
	if err != nil {
		return nil, &model.InputError{Site: site, Reason: "unreadable csv", Err: err}
	}
	return t.series(site, deltaT, log)
}
