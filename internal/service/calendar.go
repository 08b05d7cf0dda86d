package service

import (
	"fmt"
	"sort"
	"time"

	"github.com/Cascapera/social-automation/internal/models"
)

// PlatformLines is one platform's bucket inside a calendar day: one
// line per scheduled post, `15:04 - <job name> (<status label>)`.
type PlatformLines struct {
	Platform string   `json:"platform"`
	Lines    []string `json:"lines"`
}

// CalendarDay is one cell of the month grid. Leading and trailing cells
// belong to the adjacent months and are flagged non-current.
type CalendarDay struct {
	Date      string          `json:"date"` // 2006-01-02, local
	Day       int             `json:"day"`
	Current   bool            `json:"current"`
	Platforms []PlatformLines `json:"platforms,omitempty"`
}

const calendarCells = 6 * 7

// BuildMonthGrid projects scheduled posts onto a 6x7 Sunday-start month
// grid: always exactly 42 cells, covering the month padded to full
// weeks. Posts bucket by local calendar date, then by platform; a post
// targeting N platforms appears once under each. Pure and
// deterministic; handles 28-31 day months and year rollover uniformly.
func BuildMonthGrid(year int, month time.Month, posts []*models.ScheduledPost, loc *time.Location) []CalendarDay {
	if loc == nil {
		loc = time.Local
	}

	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	start := first.AddDate(0, 0, -int(first.Weekday()))

	byDate := bucketByDate(posts, loc)

	grid := make([]CalendarDay, 0, calendarCells)
	for i := 0; i < calendarCells; i++ {
		date := start.AddDate(0, 0, i)
		cell := CalendarDay{
			Date:    date.Format("2006-01-02"),
			Day:     date.Day(),
			Current: date.Month() == month && date.Year() == year,
		}
		if cell.Current {
			cell.Platforms = byDate[cell.Date]
		}
		grid = append(grid, cell)
	}
	return grid
}

func bucketByDate(posts []*models.ScheduledPost, loc *time.Location) map[string][]PlatformLines {
	type dayBucket map[string][]string // platform -> lines

	days := make(map[string]dayBucket)
	for _, post := range posts {
		local := post.ScheduledAt.In(loc)
		date := local.Format("2006-01-02")
		line := fmt.Sprintf("%s - %s (%s)", local.Format("15:04"), post.JobName, models.StatusLabels[post.Status])

		bucket, ok := days[date]
		if !ok {
			bucket = make(dayBucket)
			days[date] = bucket
		}
		for _, platform := range post.Platforms {
			bucket[platform] = append(bucket[platform], line)
		}
	}

	out := make(map[string][]PlatformLines, len(days))
	for date, bucket := range days {
		platforms := make([]string, 0, len(bucket))
		for p := range bucket {
			platforms = append(platforms, p)
		}
		// Fixed platform order first, anything unexpected after.
		sort.Slice(platforms, func(i, j int) bool {
			return platformRank(platforms[i]) < platformRank(platforms[j])
		})

		lines := make([]PlatformLines, 0, len(platforms))
		for _, p := range platforms {
			lines = append(lines, PlatformLines{Platform: p, Lines: bucket[p]})
		}
		out[date] = lines
	}
	return out
}

func platformRank(p string) int {
	for i, known := range models.Platforms {
		if p == known {
			return i
		}
	}
	return len(models.Platforms)
}
