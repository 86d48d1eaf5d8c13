package analysis

import (
	"io"
	"os"
	"path/filepath"

	"github.com/kilianp07/firmflex/core/logger"
	"github.com/kilianp07/firmflex/core/model"
	"github.com/kilianp07/firmflex/pkg/export"
)

// Write persists a result into dir. The results CSV is written last so
// that its presence means the site completed.
func Write(dir string, res *Result, log logger.Logger) error {
	log = logger.OrNop(log)
	if err := export.WriteFile(filepath.Join(dir, MetadataFile), func(w io.Writer) error {
		return export.WriteJSON(w, res.Stats)
	}); err != nil {
		return err
	}
	if len(res.Competitions) > 0 {
		if err := export.WriteFile(filepath.Join(dir, CompetitionsFile), func(w io.Writer) error {
			return export.WriteCompetitions(w, res.Competitions)
		}); err != nil {
			return err
		}
		log.Infof("saved %d competitions", len(res.Competitions))
		if err := export.WriteFile(filepath.Join(dir, WindowEnergyFile), func(w io.Writer) error {
			return export.WriteWindowEnergies(w, res.Competitions)
		}); err != nil {
			return err
		}
	}
	errPath := filepath.Join(dir, ValidationErrorsFile)
	if len(res.ValidationErrors) > 0 {
		if err := export.WriteFile(errPath, func(w io.Writer) error {
			return export.WriteValidationErrors(w, res.ValidationErrors)
		}); err != nil {
			return err
		}
		log.Warnf("found %d validation errors, see %s", len(res.ValidationErrors), errPath)
	} else if err := os.Remove(errPath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return export.WriteFile(filepath.Join(dir, ResultsFile), func(w io.Writer) error {
		return export.WriteStatsCSV(w, []model.SiteStats{res.Stats})
	})
}
