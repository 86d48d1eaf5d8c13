package source

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/samber/lo"

	"github.com/kilianp07/firmflex/core/logger"
	"github.com/kilianp07/firmflex/core/model"
)

// Source loads the demand series of a site.
type Source interface {
	Load(ctx context.Context, site string) (*model.DemandSeries, error)
}

// DirSource reads one CSV per site from a directory. With InSubstationFolder
// set the file lives at <Dir>/<site>/<File>, otherwise at <Dir>/<site>.csv.
type DirSource struct {
	Dir                string
	File               string
	InSubstationFolder bool
	DeltaT             float64
	Log                logger.Logger
}

// Path returns the demand file location for site.
func (d DirSource) Path(site string) string {
	if d.InSubstationFolder {
		return filepath.Join(d.Dir, site, d.File)
	}
	return filepath.Join(d.Dir, site+".csv")
}

// Load implements Source.
func (d DirSource) Load(ctx context.Context, site string) (*model.DemandSeries, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := model.CheckSiteName(site); err != nil {
		return nil, err
	}
	return LoadFile(d.Path(site), site, d.DeltaT, d.Log)
}

// LoadFile reads a single demand CSV.
func LoadFile(path, site string, deltaT float64, log logger.Logger) (*model.DemandSeries, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &model.InputError{Site: site, Reason: "demand file not found: " + path}
		}
		return nil, &model.InputError{Site: site, Reason: "open demand file", Err: err}
	}
	defer f.Close()
	return Decode(f, site, deltaT, log)
}

// Override serves selected sites from explicit files and fills in a
// nominal voltage the data does not carry. Other sites go to Base.
type Override struct {
	Base     Source
	Files    map[string]string
	Voltages map[string]string
	DeltaT   float64
	Log      logger.Logger
}

// Load implements Source.
func (o Override) Load(ctx context.Context, site string) (*model.DemandSeries, error) {
	var (
		s   *model.DemandSeries
		err error
	)
	if path, ok := o.Files[site]; ok && path != "" {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		s, err = LoadFile(path, site, o.DeltaT, o.Log)
	} else {
		s, err = o.Base.Load(ctx, site)
	}
	if err != nil {
		return nil, err
	}
	if v := o.Voltages[site]; v != "" && s.NominalVoltage == "" {
		s.NominalVoltage = v
	}
	return s, nil
}

// GroupedSource serves sites out of one bulk CSV keyed by network group.
// The file is read once; each Load also writes the group's extract to
// <OutputDir>/<group>/demand.csv.
type GroupedSource struct {
	Path      string
	OutputDir string
	DeltaT    float64
	Log       logger.Logger

	once sync.Once
	tbl  *table
	err  error
}

func (g *GroupedSource) load() (*table, error) {
	g.once.Do(func() {
		f, err := os.Open(g.Path)
		if err != nil {
			g.err = &model.InputError{Reason: "open grouped demand file", Err: err}
			return
		}
		defer f.Close()
		t, err := readTable(f)
		if err != nil {
			g.err = &model.InputError{Reason: "unreadable grouped csv", Err: err}
			return
		}
		if !t.has(ColGroup) {
			g.err = &model.InputError{Reason: "grouped csv has no " + ColGroup + " column"}
			return
		}
		g.tbl = t
	})
	return g.tbl, g.err
}

// Groups returns the sorted distinct network group names.
func (g *GroupedSource) Groups() ([]string, error) {
	t, err := g.load()
	if err != nil {
		return nil, err
	}
	groups := lo.Uniq(lo.FilterMap(t.rows, func(row []string, _ int) (string, bool) {
		v := t.value(row, ColGroup)
		return v, v != ""
	}))
	sort.Strings(groups)
	return groups, nil
}

// Load implements Source.
func (g *GroupedSource) Load(ctx context.Context, group string) (*model.DemandSeries, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := model.CheckSiteName(group); err != nil {
		return nil, err
	}
	t, err := g.load()
	if err != nil {
		return nil, err
	}
	sub := t.filter(ColGroup, group)
	if len(sub.rows) == 0 {
		return nil, &model.InputError{Site: group, Reason: "no rows for network group"}
	}
	if g.OutputDir != "" {
		if err := writeExtract(filepath.Join(g.OutputDir, group, "demand.csv"), sub); err != nil {
			logger.OrNop(g.Log).Warnf("write demand extract for %s: %v", group, err)
		}
	}
	return sub.series(group, g.DeltaT, g.Log)
}

func writeExtract(path string, t *table) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := t.write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
