package schedule

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
)

// ExportCSV writes the daily plan as tabular rows: one row per block, sorted
// by actor then start time. Expected travel is blank when unknown.
func ExportCSV(w io.Writer, plans map[string][]*Block, definitions map[string]*ActivityDefinition) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{
		"actor_id", "start_time", "end_time", "slot", "activity", "room",
		"expected_travel_minutes", "travel_buffer_minutes", "notes",
	}); err != nil {
		return err
	}

	actorIDs := make([]string, 0, len(plans))
	for id := range plans {
		actorIDs = append(actorIDs, id)
	}
	sort.Strings(actorIDs)

	for _, actorID := range actorIDs {
		blocks := append([]*Block(nil), plans[actorID]...)
		SortBlocks(blocks)
		for _, block := range blocks {
			def := definitions[block.ActivityID]
			room := block.RoomID
			if room == "" && def != nil {
				room = def.Location
			}
			notes := block.Notes
			if notes == "" && def != nil {
				notes = def.Notes
			}
			expected := ""
			if block.ExpectedTravel != nil {
				expected = strconv.Itoa(*block.ExpectedTravel)
			}
			if err := cw.Write([]string{
				actorID,
				FormatMinutes(block.StartTick),
				FormatMinutes(block.StartTick + block.DurationMinutes),
				block.Slot,
				block.ActivityID,
				room,
				expected,
				strconv.Itoa(block.TravelBuffer),
				notes,
			}); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportCSVFile writes the plan to a file, creating parent directories.
func ExportCSVFile(path string, plans map[string][]*Block, definitions map[string]*ActivityDefinition) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return ExportCSV(f, plans, definitions)
}
