package source

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/firmflex/core/model"
)

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2024, 4, 1, 17, 30, 0, 0, time.UTC)
	cases := []string{
		"2024-04-01 17:30:00",
		"2024-04-01T17:30:00",
		"2024-04-01 17:30",
		"2024-04-01T18:30:00+01:00",
		"2024-04-01T17:30:00Z",
	}
	for _, c := range cases {
		got, err := ParseTimestamp(c)
		require.NoError(t, err, c)
		assert.True(t, want.Equal(got), "%s parsed as %s", c, got)
	}
	_, err := ParseTimestamp("yesterday")
	assert.Error(t, err)
}

func TestDecodeAliasesAndDropsBadRows(t *testing.T) {
	data := "timestamp,demand_mw,Substation,Nominal Voltage\n" +
		"2024-04-01 00:00,5.5,Site A,HV\n" +
		"bad,1,Site A,HV\n" +
		"2024-04-01 00:30,n/a,Site A,HV\n" +
		"2024-04-01 01:00,6,Site A,HV\n"
	s, err := Decode(strings.NewReader(data), "site_a", 0, nil)
	require.NoError(t, err)
	assert.Equal(t, "Site A", s.Site)
	assert.Equal(t, "HV", s.NominalVoltage)
	assert.Equal(t, []float64{5.5, 6}, s.Values())
	assert.InDelta(t, 1.0, s.DeltaT, 1e-9)
}

func TestDecodeAutumnClockChange(t *testing.T) {
	data := "Timestamp,Demand (MW)\n" +
		"2024-10-27T00:30:00+01:00,1\n" +
		"2024-10-27T01:00:00+01:00,2\n" +
		"2024-10-27T01:30:00+01:00,3\n" +
		"2024-10-27T01:00:00+00:00,4\n" +
		"2024-10-27T01:30:00+00:00,5\n"
	s, err := Decode(strings.NewReader(data), "siteA", 0, nil)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3, 4, 5}, s.Values())
	assert.True(t, time.Date(2024, 10, 26, 23, 30, 0, 0, time.UTC).Equal(s.At(0).Time))
	assert.True(t, time.Date(2024, 10, 27, 1, 30, 0, 0, time.UTC).Equal(s.At(4).Time))
	assert.InDelta(t, 0.5, s.DeltaT, 1e-9)
}

func TestDecodeDropsRepeatedTimestamps(t *testing.T) {
	data := "Timestamp,Demand (MW)\n" +
		"2024-10-27 01:00,2\n" +
		"2024-10-27 01:30,3\n" +
		"2024-10-27 01:00,4\n"
	s, err := Decode(strings.NewReader(data), "siteA", 0.5, nil)
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 3}, s.Values())
}

func TestDecodeAliasOrderIsStable(t *testing.T) {
	data := "timestamp,underlying_demand_mw,demand_mw\n" +
		"2024-04-01 00:00,1,10\n" +
		"2024-04-01 00:30,2,20\n"
	for i := 0; i < 20; i++ {
		s, err := Decode(strings.NewReader(data), "x", 0.5, nil)
		require.NoError(t, err)
		assert.Equal(t, []float64{10, 20}, s.Values())
	}
}

func TestDecodeMissingColumns(t *testing.T) {
	_, err := Decode(strings.NewReader("Time,Load\n2024-04-01 00:00,1\n"), "x", 0.5, nil)
	var ie *model.InputError
	require.True(t, errors.As(err, &ie))
	assert.Contains(t, ie.Reason, "missing required columns")
}

func TestDecodeAllRowsInvalid(t *testing.T) {
	_, err := Decode(strings.NewReader("Timestamp,Demand (MW)\nnope,1\n"), "x", 0.5, nil)
	var ie *model.InputError
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, "x", ie.Site)
}

func TestDirSourcePaths(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "s1"), 0o755))
	csv := "Timestamp,Demand (MW)\n2024-04-01 00:00,1\n2024-04-01 00:30,2\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "s1", "demand.csv"), []byte(csv), 0o644))

	src := DirSource{Dir: dir, File: "demand.csv", InSubstationFolder: true, DeltaT: 0.5}
	s, err := src.Load(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "s1", s.Site)
	assert.Equal(t, 2, s.Len())

	_, err = src.Load(context.Background(), "missing")
	var ie *model.InputError
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, "missing", ie.Site)
}

func TestGroupedSource(t *testing.T) {
	dir := t.TempDir()
	bulk := filepath.Join(dir, "bulk.csv")
	data := "Timestamp,underlying_demand_mw,group_name\n" +
		"2024-04-01 00:00,1,North\n" +
		"2024-04-01 00:00,3,South\n" +
		"2024-04-01 00:30,2,North\n"
	require.NoError(t, os.WriteFile(bulk, []byte(data), 0o644))
	out := filepath.Join(dir, "out")

	g := &GroupedSource{Path: bulk, OutputDir: out, DeltaT: 0.5}
	groups, err := g.Groups()
	require.NoError(t, err)
	assert.Equal(t, []string{"North", "South"}, groups)

	s, err := g.Load(context.Background(), "North")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, s.Values())

	extract, err := os.ReadFile(filepath.Join(out, "North", "demand.csv"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(extract), "Timestamp,Demand (MW),Network Group Name\n"))
	assert.Equal(t, 3, strings.Count(string(extract), "\n"))

	_, err = g.Load(context.Background(), "East")
	assert.Error(t, err)
}

func TestGroupedSourceRejectsPathNames(t *testing.T) {
	dir := t.TempDir()
	bulk := filepath.Join(dir, "bulk.csv")
	data := "Timestamp,Demand (MW),Network Group Name\n" +
		"2024-04-01 00:00,1,../escape\n" +
		"2024-04-01 00:30,2,../escape\n"
	require.NoError(t, os.WriteFile(bulk, []byte(data), 0o644))
	out := filepath.Join(dir, "out")

	g := &GroupedSource{Path: bulk, OutputDir: out, DeltaT: 0.5}
	_, err := g.Load(context.Background(), "../escape")
	var ie *model.InputError
	require.True(t, errors.As(err, &ie))
	_, err = os.Stat(filepath.Join(dir, "escape"))
	assert.True(t, os.IsNotExist(err))

	_, err = DirSource{Dir: dir, File: "demand.csv", InSubstationFolder: true}.Load(context.Background(), "a/b")
	require.True(t, errors.As(err, &ie))
}

func TestLoadFirmCapacities(t *testing.T) {
	path := filepath.Join(t.TempDir(), "caps.csv")
	data := "Site,Firm_Capacity_MW\nB,12.5\nA,3\nC,oops\nB,13\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	caps, err := LoadFirmCapacities(path, nil)
	require.NoError(t, err)
	assert.Equal(t, []KnownCapacity{{Site: "B", MW: 13}, {Site: "A", MW: 3}}, caps)

	bad := filepath.Join(t.TempDir(), "bad.csv")
	require.NoError(t, os.WriteFile(bad, []byte("Name,MW\nA,1\n"), 0o644))
	_, err = LoadFirmCapacities(bad, nil)
	assert.Error(t, err)
}

func TestDirSourceFlatLayoutAndOverride(t *testing.T) {
	dir := t.TempDir()
	csv := "Timestamp,Demand (MW)\n2024-04-01 00:00,1\n2024-04-01 00:30,2\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "s2.csv"), []byte(csv), 0o644))
	custom := filepath.Join(dir, "custom.csv")
	require.NoError(t, os.WriteFile(custom, []byte(csv+"2024-04-01 01:00,3\n"), 0o644))

	base := DirSource{Dir: dir, File: "demand.csv"}
	assert.Equal(t, filepath.Join(dir, "s2.csv"), base.Path("s2"))

	o := Override{
		Base:     base,
		Files:    map[string]string{"s3": custom},
		Voltages: map[string]string{"s2": "HV"},
	}
	s, err := o.Load(context.Background(), "s2")
	require.NoError(t, err)
	assert.Equal(t, "HV", s.NominalVoltage)

	s, err = o.Load(context.Background(), "s3")
	require.NoError(t, err)
	assert.Equal(t, 3, s.Len())
}
