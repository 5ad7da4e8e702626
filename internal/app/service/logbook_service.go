package service

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/ikkim/captains-log/internal/app/model"
	"github.com/ikkim/captains-log/internal/app/prompt"
	"github.com/ikkim/captains-log/internal/app/repository"
	"github.com/ikkim/captains-log/pkg/logger"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

const LogbookSheet = "Logbook"

var logbookHeader = []interface{}{
	"Planet", "Archived At", "Number", "Circumstances", "Thing Discovered", "Description",
}

var ErrEmptyLogbook = errors.New("logbook has no discoveries")

// LogbookService writes the archive to a spreadsheet and reads it back.
type LogbookService interface {
	Export(userID uint) (*excelize.File, error)
	Import(userID uint, r io.Reader) (int, error)
}

type logbookService struct {
	db            *gorm.DB
	planetRepo    repository.PlanetRepository
	discoveryRepo repository.DiscoveryRepository
}

func NewLogbookService(
	db *gorm.DB,
	planetRepo repository.PlanetRepository,
	discoveryRepo repository.DiscoveryRepository,
) LogbookService {
	return &logbookService{
		db:            db,
		planetRepo:    planetRepo,
		discoveryRepo: discoveryRepo,
	}
}

// Export writes one row per discovery of every archived planet.
func (s *logbookService) Export(userID uint) (*excelize.File, error) {
	summaries, err := s.planetRepo.FindArchivedByUser(userID)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), LogbookSheet); err != nil {
		f.Close()
		return nil, err
	}
	if err := f.SetSheetRow(LogbookSheet, "A1", &logbookHeader); err != nil {
		f.Close()
		return nil, err
	}
	if err := formatLogbookSheet(f); err != nil {
		f.Close()
		return nil, err
	}

	row := 2
	for _, summary := range summaries {
		planet := summary.Planet
		discoveries, err := s.discoveryRepo.FindByPlanet(planet.ID)
		if err != nil {
			f.Close()
			return nil, err
		}

		archivedAt := ""
		if planet.ArchivedAt != nil {
			archivedAt = planet.ArchivedAt.UTC().Format(time.RFC3339)
		}
		for _, d := range discoveries {
			description := ""
			if d.Description != nil {
				description = *d.Description
			}
			cell, _ := excelize.CoordinatesToCellName(1, row)
			values := []interface{}{planet.Name, archivedAt, d.Number, d.Circumstances, d.ThingDiscovered, description}
			if err := f.SetSheetRow(LogbookSheet, cell, &values); err != nil {
				f.Close()
				return nil, err
			}
			row++
		}
	}

	logger.Info("Logbook exported", map[string]interface{}{
		"user_id": userID,
		"planets": len(summaries),
		"rows":    row - 2,
	})
	return f, nil
}

func formatLogbookSheet(f *excelize.File) error {
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	if err := f.SetCellStyle(LogbookSheet, "A1", "F1", style); err != nil {
		return fmt.Errorf("style header: %w", err)
	}
	if err := f.SetColWidth(LogbookSheet, "A", "B", 22); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}
	if err := f.SetColWidth(LogbookSheet, "D", "F", 40); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}
	return nil
}

type logbookPlanet struct {
	name        string
	archivedAt  time.Time
	discoveries []model.Discovery
}

// Import recreates archived planets from a logbook in the Export layout.
// Consecutive rows with the same planet name and archive time form one planet.
func (s *logbookService) Import(userID uint, r io.Reader) (int, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return 0, fmt.Errorf("open logbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return 0, fmt.Errorf("read logbook rows: %w", err)
	}

	planets, err := parseLogbookRows(rows, time.Now())
	if err != nil {
		return 0, err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		planetRepo := s.planetRepo.WithTx(tx)
		discoveryRepo := s.discoveryRepo.WithTx(tx)

		for _, lp := range planets {
			planet := &model.Planet{
				UserID:           userID,
				ThingsToDiscover: len(lp.discoveries),
			}
			planet.Archive(lp.name, lp.archivedAt)
			if err := planetRepo.Create(planet); err != nil {
				return fmt.Errorf("create planet %q: %w", lp.name, err)
			}
			for i := range lp.discoveries {
				d := lp.discoveries[i]
				d.PlanetID = planet.ID
				if err := discoveryRepo.Create(&d); err != nil {
					return fmt.Errorf("create discovery %d of %q: %w", d.Number, lp.name, err)
				}
			}
		}
		return nil
	})
	if err != nil {
		logger.Error("Failed to import logbook", err, map[string]interface{}{
			"user_id": userID,
		})
		return 0, err
	}

	logger.Info("Logbook imported", map[string]interface{}{
		"user_id": userID,
		"planets": len(planets),
	})
	return len(planets), nil
}

func parseLogbookRows(rows [][]string, now time.Time) ([]logbookPlanet, error) {
	if len(rows) < 2 {
		return nil, ErrEmptyLogbook
	}

	var (
		planets []logbookPlanet
		current *logbookPlanet
		lastKey string
	)
	for i, row := range rows[1:] {
		line := i + 2
		cells := make([]string, len(logbookHeader))
		for j := range cells {
			if j < len(row) {
				cells[j] = strings.TrimSpace(row[j])
			}
		}
		if strings.Join(cells, "") == "" {
			continue
		}

		name := NameInput{Name: cells[0]}
		if err := name.Validate(); err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}

		archivedAt := now
		if cells[1] != "" {
			t, err := time.Parse(time.RFC3339, cells[1])
			if err != nil {
				return nil, fmt.Errorf("row %d: archived at: %w", line, err)
			}
			archivedAt = t
		}

		number, err := strconv.Atoi(cells[2])
		if err != nil {
			return nil, fmt.Errorf("row %d: number %q is not an integer", line, cells[2])
		}

		description := LogInput{Description: cells[5]}
		if err := description.Validate(); err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}
		if cells[3] == "" || cells[4] == "" {
			return nil, fmt.Errorf("row %d: circumstances and thing discovered are required", line)
		}
		if !prompt.IsValid(cells[3], cells[4]) {
			return nil, fmt.Errorf("row %d: %q / %q is not a discovery prompt", line, cells[3], cells[4])
		}

		key := name.Name + "\x00" + cells[1]
		if current == nil || key != lastKey {
			planets = append(planets, logbookPlanet{name: name.Name, archivedAt: archivedAt})
			current = &planets[len(planets)-1]
			lastKey = key
		}

		d := model.Discovery{
			Number:          number,
			Circumstances:   cells[3],
			ThingDiscovered: cells[4],
		}
		d.Describe(description.Description)
		current.discoveries = append(current.discoveries, d)
	}

	if len(planets) == 0 {
		return nil, ErrEmptyLogbook
	}
	for _, p := range planets {
		if err := checkLogbookPlanet(p); err != nil {
			return nil, err
		}
	}
	return planets, nil
}

// checkLogbookPlanet enforces contiguous numbering from 1 and unique things.
func checkLogbookPlanet(p logbookPlanet) error {
	if len(p.discoveries) > prompt.Capacity() {
		return fmt.Errorf("planet %q: %d discoveries, at most %d allowed", p.name, len(p.discoveries), prompt.Capacity())
	}
	seen := make(map[string]struct{}, len(p.discoveries))
	for i, d := range p.discoveries {
		if d.Number != i+1 {
			return fmt.Errorf("planet %q: expected discovery %d, got %d", p.name, i+1, d.Number)
		}
		if _, dup := seen[d.ThingDiscovered]; dup {
			return fmt.Errorf("planet %q: %q discovered twice", p.name, d.ThingDiscovered)
		}
		seen[d.ThingDiscovered] = struct{}{}
	}
	return nil
}
