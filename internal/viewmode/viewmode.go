// Package viewmode models the week/month calendar toggle. The nominal mode
// follows user intent; the effective mode additionally accounts for data
// readiness and the collapse animation, and is what the renderer consults.
package viewmode

// Mode is a calendar display mode.
type Mode string

const (
	Week  Mode = "week"
	Month Mode = "month"
)

// Controller is the 2-state week/month machine. While collapsing back to
// week view the month-shaped layout stays visible so the shrink animation
// has something to animate away from.
type Controller struct {
	mode             Mode
	collapsing       bool
	hasFullMonthData bool
}

// New returns a controller in week mode with no month data loaded.
func New() *Controller {
	return &Controller{mode: Week}
}

// Mode returns the nominal mode the user selected.
func (c *Controller) Mode() Mode { return c.mode }

// Collapsing reports whether the month-to-week shrink is in progress.
func (c *Controller) Collapsing() bool { return c.collapsing }

// SetMonthDataReady records whether the full 5-week data set has been
// fetched. Month rendering is gated on it.
func (c *Controller) SetMonthDataReady(ready bool) {
	c.hasFullMonthData = ready
}

// MonthDataReady reports whether the 5-week data set is available.
func (c *Controller) MonthDataReady() bool { return c.hasFullMonthData }

// Toggle flips between week and month mode.
func (c *Controller) Toggle() {
	if c.mode == Week {
		c.ExpandToMonth()
	} else {
		c.CollapseToWeek()
	}
}

// ExpandToMonth switches the nominal mode to month. If month data is not
// ready yet the effective mode stays week until it is.
func (c *Controller) ExpandToMonth() {
	c.mode = Month
	c.collapsing = false
}

// CollapseToWeek switches to week mode. When leaving a fully rendered month
// view the collapsing flag is raised until FinishCollapse.
func (c *Controller) CollapseToWeek() {
	fromMonth := c.mode == Month && c.hasFullMonthData
	c.mode = Week
	c.collapsing = fromMonth
}

// FinishCollapse clears the collapsing flag once the shrink has completed.
func (c *Controller) FinishCollapse() {
	c.collapsing = false
}

// Effective returns the mode the renderer should lay out. Month is only
// rendered when its data is ready; during a collapse the month layout is
// retained even though the nominal mode is already week.
func (c *Controller) Effective() Mode {
	if c.mode == Month && !c.hasFullMonthData {
		return Week
	}
	if c.mode == Week && c.collapsing {
		return Month
	}
	return c.mode
}
