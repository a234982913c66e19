package calendar

import "habitgrid/internal/model"

// GridSize is the number of cells in the per-day habit grid (3x3).
const GridSize = 9

// ReservedColor is the color of the habit at original index 0.
const ReservedColor = "#2196F3" // blue

// palette excludes the reserved blue; assignment is id mod len(palette).
var palette = []string{
	"#4CAF50", // green
	"#FF9800", // orange
	"#9C27B0", // purple
	"#F44336", // red
	"#00BCD4", // cyan
	"#FFEB3B", // yellow
	"#795548", // brown
	"#607D8B", // blue grey
	"#E91E63", // pink
	"#3F51B5", // indigo
	"#009688", // teal
	"#FF5722", // deep orange
	"#673AB7", // deep purple
	"#CDDC39", // lime
}

// Cell is an occupied grid slot. OriginalIndex is the habit's index in the
// full, unfiltered habit list; colors key off it so filtering other habits
// out never shifts a habit's color.
type Cell struct {
	Habit         model.Habit
	OriginalIndex int
}

// Grid holds the 9 slots of one calendar day in row-major order. A nil slot
// is empty.
type Grid [GridSize]*Cell

// HabitColor returns the display color for a habit. The habit at original
// index 0 always gets the reserved color; every other habit hashes its id
// into the palette.
func HabitColor(habitID int64, originalIndex int) string {
	if originalIndex == 0 {
		return ReservedColor
	}
	idx := habitID % int64(len(palette))
	if idx < 0 {
		idx += int64(len(palette))
	}
	return palette[idx]
}

// VisibleOn filters habits to those shown on the given date key: habits with
// no creation date are always shown, others only from their creation date
// onward. Lexicographic comparison of date keys is date-order-correct.
func VisibleOn(habits []model.Habit, dateKey string) []model.Habit {
	if dateKey == "" {
		return nil
	}
	visible := make([]model.Habit, 0, len(habits))
	for _, h := range habits {
		created := NormalizeDateString(h.CreateDate)
		if created == "" || dateKey >= created {
			visible = append(visible, h)
		}
	}
	return visible
}

// gridPosition maps a filtered habit index to a 1-based row-major grid
// position. A single habit sits in the center; otherwise habits fill rows
// left to right. Returns 0 for indexes beyond the grid.
func gridPosition(index, total int) int {
	switch {
	case total == 0:
		return 0
	case total == 1:
		return 5
	case index >= GridSize:
		return 0
	default:
		return index + 1
	}
}

// PlaceGrid places the habits visible on dateKey into a 3x3 grid. Habits
// beyond the ninth are dropped; the grid has no overflow indicator.
func PlaceGrid(habits []model.Habit, dateKey string) Grid {
	var grid Grid
	visible := VisibleOn(habits, dateKey)
	for i, h := range visible {
		pos := gridPosition(i, len(visible))
		if pos < 1 || pos > GridSize {
			continue
		}
		grid[pos-1] = &Cell{Habit: h, OriginalIndex: originalIndex(habits, h.ID)}
	}
	return grid
}

func originalIndex(habits []model.Habit, id int64) int {
	for i, h := range habits {
		if h.ID == id {
			return i
		}
	}
	return -1
}
