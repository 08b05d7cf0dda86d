package service

import (
	"testing"
	"time"

	"github.com/Cascapera/social-automation/internal/models"
)

func post(jobName, status string, at time.Time, platforms ...string) *models.ScheduledPost {
	return &models.ScheduledPost{
		JobName:     jobName,
		Platforms:   platforms,
		ScheduledAt: at,
		Status:      status,
	}
}

func TestBuildMonthGrid_Shape(t *testing.T) {
	tests := []struct {
		name      string
		year      int
		month     time.Month
		firstDate string // date of cell 0
		current   int    // number of current-month cells
	}{
		// September 2025 starts on a Monday: one leading cell.
		{"leading pad", 2025, time.September, "2025-08-31", 30},
		// February 2026 starts on a Sunday: no leading pad.
		{"no leading pad", 2026, time.February, "2026-02-01", 28},
		// December wraps into the next year.
		{"year rollover", 2025, time.December, "2025-11-30", 31},
		// Leap February.
		{"leap month", 2024, time.February, "2024-01-28", 29},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			grid := BuildMonthGrid(tt.year, tt.month, nil, time.UTC)
			if len(grid) != 42 {
				t.Fatalf("len = %d, want 42", len(grid))
			}
			if grid[0].Date != tt.firstDate {
				t.Errorf("first cell = %s, want %s", grid[0].Date, tt.firstDate)
			}
			current := 0
			for _, cell := range grid {
				if cell.Current {
					current++
				}
			}
			if current != tt.current {
				t.Errorf("current cells = %d, want %d", current, tt.current)
			}
		})
	}
}

func TestBuildMonthGrid_SundayStart(t *testing.T) {
	grid := BuildMonthGrid(2026, time.September, nil, time.UTC)
	start, err := time.Parse("2006-01-02", grid[0].Date)
	if err != nil {
		t.Fatal(err)
	}
	if start.Weekday() != time.Sunday {
		t.Errorf("grid starts on %s, want Sunday", start.Weekday())
	}
}

func TestBuildMonthGrid_Buckets(t *testing.T) {
	at := time.Date(2026, time.September, 10, 18, 30, 0, 0, time.UTC)
	posts := []*models.ScheduledPost{
		post("Best of Week", models.ScheduledPostPending, at, models.PlatformTiktok, models.PlatformInstagram),
		post("Highlights", models.ScheduledPostDone, at.Add(2*time.Hour), models.PlatformInstagram),
	}

	grid := BuildMonthGrid(2026, time.September, posts, time.UTC)

	var day *CalendarDay
	for i := range grid {
		if grid[i].Date == "2026-09-10" {
			day = &grid[i]
			break
		}
	}
	if day == nil || !day.Current {
		t.Fatal("2026-09-10 not found as a current cell")
	}

	if len(day.Platforms) != 2 {
		t.Fatalf("platforms = %+v, want IG and TT buckets", day.Platforms)
	}
	// Fixed platform order: IG before TT.
	if day.Platforms[0].Platform != models.PlatformInstagram || day.Platforms[1].Platform != models.PlatformTiktok {
		t.Errorf("platform order = %s,%s, want IG,TT", day.Platforms[0].Platform, day.Platforms[1].Platform)
	}

	igLines := day.Platforms[0].Lines
	if len(igLines) != 2 {
		t.Fatalf("IG lines = %v, want 2", igLines)
	}
	if igLines[0] != "18:30 - Best of Week (Pendente)" {
		t.Errorf("line = %q", igLines[0])
	}
	if igLines[1] != "20:30 - Highlights (Postado)" {
		t.Errorf("line = %q", igLines[1])
	}

	ttLines := day.Platforms[1].Lines
	if len(ttLines) != 1 || ttLines[0] != "18:30 - Best of Week (Pendente)" {
		t.Errorf("TT lines = %v", ttLines)
	}
}

func TestBuildMonthGrid_AdjacentMonthNotBucketed(t *testing.T) {
	// Aug 31 2025 lands in September's leading pad cell; its post must
	// not appear there.
	posts := []*models.ScheduledPost{
		post("August leftover", models.ScheduledPostPending,
			time.Date(2025, time.August, 31, 12, 0, 0, 0, time.UTC), models.PlatformInstagram),
	}
	grid := BuildMonthGrid(2025, time.September, posts, time.UTC)

	if grid[0].Date != "2025-08-31" {
		t.Fatalf("first cell = %s", grid[0].Date)
	}
	if grid[0].Current {
		t.Error("pad cell flagged current")
	}
	if len(grid[0].Platforms) != 0 {
		t.Errorf("pad cell has buckets: %+v", grid[0].Platforms)
	}
}

func TestBuildMonthGrid_LocalDateBucketing(t *testing.T) {
	// 2026-09-11 01:00 UTC is still 2026-09-10 in Sao Paulo (UTC-3).
	saoPaulo := time.FixedZone("America/Sao_Paulo", -3*60*60)
	posts := []*models.ScheduledPost{
		post("Late night", models.ScheduledPostPending,
			time.Date(2026, time.September, 11, 1, 0, 0, 0, time.UTC), models.PlatformInstagram),
	}
	grid := BuildMonthGrid(2026, time.September, posts, saoPaulo)

	for _, cell := range grid {
		switch cell.Date {
		case "2026-09-10":
			if len(cell.Platforms) != 1 {
				t.Errorf("local date cell missing the post: %+v", cell.Platforms)
			} else if cell.Platforms[0].Lines[0] != "22:00 - Late night (Pendente)" {
				t.Errorf("line = %q, want local time", cell.Platforms[0].Lines[0])
			}
		case "2026-09-11":
			if len(cell.Platforms) != 0 {
				t.Errorf("UTC date cell should be empty: %+v", cell.Platforms)
			}
		}
	}
}
