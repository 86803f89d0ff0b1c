package task

import (
	"regexp"
	"strconv"
)

// DefaultDurationUnit is the unit marker written after the minute count.
const DefaultDurationUnit = "분"

// Annotation reads and rewrites the "<minutes><unit>" annotation embedded in
// task content.
type Annotation struct {
	unit    string
	pattern *regexp.Regexp
}

// NewAnnotation builds the codec for the given unit marker.
func NewAnnotation(unit string) Annotation {
	if unit == "" {
		unit = DefaultDurationUnit
	}
	return Annotation{
		unit:    unit,
		pattern: regexp.MustCompile(`(\d+)` + regexp.QuoteMeta(unit)),
	}
}

// Unit returns the unit marker.
func (a Annotation) Unit() string {
	return a.unit
}

// Extract returns the minutes of the first annotation in content. Absence and
// unparsable digit runs both report ok=false; zero is a valid value.
func (a Annotation) Extract(content string) (minutes int, ok bool) {
	m := a.pattern.FindStringSubmatch(content)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// Rewrite replaces the minutes of the first annotation. Content without an
// annotation is returned unchanged.
func (a Annotation) Rewrite(content string, minutes int) string {
	loc := a.pattern.FindStringSubmatchIndex(content)
	if loc == nil {
		return content
	}
	return content[:loc[2]] + strconv.Itoa(minutes) + content[loc[3]:]
}
