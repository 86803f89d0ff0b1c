package task

import "fmt"

// OverdueWindowDays is how many days back the overdue scan reaches.
const OverdueWindowDays = 7

// Filter is a relative-date query against the backend.
type Filter struct {
	daysBefore int
}

// Today selects tasks due today.
func Today() Filter {
	return Filter{}
}

// DaysBefore selects tasks due exactly n days before today. n must be positive.
func DaysBefore(n int) Filter {
	if n < 1 {
		panic(fmt.Sprintf("task: DaysBefore(%d) needs a positive offset", n))
	}
	return Filter{daysBefore: n}
}

// IsToday reports whether the filter selects today.
func (f Filter) IsToday() bool {
	return f.daysBefore == 0
}

// DaysBefore returns the day offset, zero for today.
func (f Filter) DaysBefore() int {
	return f.daysBefore
}

func (f Filter) String() string {
	if f.IsToday() {
		return "today"
	}
	return fmt.Sprintf("%d day before", f.daysBefore)
}

// OverdueFilters returns the overdue scan's filters, oldest offset first.
func OverdueFilters() []Filter {
	filters := make([]Filter, 0, OverdueWindowDays)
	for n := OverdueWindowDays; n >= 1; n-- {
		filters = append(filters, DaysBefore(n))
	}
	return filters
}
