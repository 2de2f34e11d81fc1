package notification

import (
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/takutakahashi/camnotify/internal/domain/entities"
)

// Filter narrows List results. Every field is optional; set fields are
// AND-combined. Allow-lists are comma separated.
type Filter struct {
	// From and To bound the calendar date of a notification (YYYY-MM-DD).
	// A record passes when From < date <= To. An unparsable From disables
	// the date filter; an unparsable or empty To means now.
	From string
	To   string

	Cameras string
	Labels  string
	Rooms   string
	Types   string
}

type predicate func(n *entities.Notification) bool

// parseAllowList splits a comma separated list, dropping empty entries
func parseAllowList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func allowList(raw string, field func(n *entities.Notification) string) predicate {
	allowed := parseAllowList(raw)
	if len(allowed) == 0 {
		return nil
	}
	return func(n *entities.Notification) bool {
		return slices.Contains(allowed, field(n))
	}
}

func dateRange(f Filter, loc *time.Location, now time.Time, logger zerolog.Logger) predicate {
	if f.From == "" {
		return nil
	}

	from, err := time.ParseInLocation(entities.DateLayout, f.From, loc)
	if err != nil {
		logger.Warn().Str("from", f.From).Err(err).Msg("Ignoring date filter with unparsable from date")
		return nil
	}

	to := now.In(loc)
	if f.To != "" {
		if parsed, err := time.ParseInLocation(entities.DateLayout, f.To, loc); err == nil {
			to = parsed
		} else {
			logger.Warn().Str("to", f.To).Err(err).Msg("Unparsable to date, using now")
		}
	}

	return func(n *entities.Notification) bool {
		date := n.Date(loc)
		return date.After(from) && !date.After(to)
	}
}

// predicates builds the active filter chain
func (f Filter) predicates(loc *time.Location, now time.Time, logger zerolog.Logger) []predicate {
	candidates := []predicate{
		dateRange(f, loc, now, logger),
		allowList(f.Cameras, (*entities.Notification).CameraName),
		allowList(f.Labels, func(n *entities.Notification) string { return n.Label }),
		allowList(f.Rooms, (*entities.Notification).RoomName),
		allowList(f.Types, func(n *entities.Notification) string { return string(n.Type()) }),
	}

	active := make([]predicate, 0, len(candidates))
	for _, p := range candidates {
		if p != nil {
			active = append(active, p)
		}
	}
	return active
}

func applyFilters(notifications []*entities.Notification, preds []predicate) []*entities.Notification {
	if len(preds) == 0 {
		return notifications
	}
	out := make([]*entities.Notification, 0, len(notifications))
	for _, n := range notifications {
		pass := true
		for _, p := range preds {
			if !p(n) {
				pass = false
				break
			}
		}
		if pass {
			out = append(out, n)
		}
	}
	return out
}
