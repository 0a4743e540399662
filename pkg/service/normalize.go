package service

import (
	"google.golang.org/api/calendar/v3"

	"github.com/pershin-daniil/CalendarProxy/pkg/models"
)

const midnight = "T00:00:00"

// Normalize converts an upstream event. It reports false when the event has
// no usable start or end.
func Normalize(item *calendar.Event) (models.Event, bool) {
	if item == nil {
		return models.Event{}, false
	}
	start, ok := timestamp(item.Start)
	if !ok {
		return models.Event{}, false
	}
	end, ok := timestamp(item.End)
	if !ok {
		return models.Event{}, false
	}
	return models.Event{
		Title:    item.Summary,
		Start:    start,
		End:      end,
		AllDay:   item.Start.Date != "",
		Location: item.Location,
		Link:     item.HtmlLink,
	}, true
}

// timestamp prefers the timed form; a bare date is promoted to midnight.
func timestamp(dt *calendar.EventDateTime) (string, bool) {
	switch {
	case dt == nil:
		return "", false
	case dt.DateTime != "":
		return dt.DateTime, true
	case dt.Date != "":
		return dt.Date + midnight, true
	default:
		return "", false
	}
}
