package schedule

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// CronParser handles cron expression parsing and next execution calculation
type CronParser struct {
	parser cron.Parser
}

// NewCronParser creates a new CronParser. Descriptors such as "@hourly" and
// "@every 10m" are accepted alongside five-field expressions.
func NewCronParser() *CronParser {
	return &CronParser{
		parser: cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
	}
}

// Parse returns the schedule for a cron expression
func (p *CronParser) Parse(cronExpr string) (cron.Schedule, error) {
	schedule, err := p.parser.Parse(cronExpr)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression: %w", err)
	}
	return schedule, nil
}

// Validate checks if a cron expression is valid
func (p *CronParser) Validate(cronExpr string) error {
	_, err := p.Parse(cronExpr)
	return err
}

// Next calculates the next execution time after the given time
func (p *CronParser) Next(cronExpr string, loc *time.Location, from time.Time) (time.Time, error) {
	schedule, err := p.Parse(cronExpr)
	if err != nil {
		return time.Time{}, err
	}
	if loc == nil {
		loc = time.UTC
	}
	return schedule.Next(from.In(loc)), nil
}
