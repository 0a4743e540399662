package models

// Event is a calendar event in the shape returned by /events.
type Event struct {
	Title    string `json:"title"`
	Start    string `json:"start"`
	End      string `json:"end"`
	AllDay   bool   `json:"allDay"`
	Location string `json:"location"`
	Link     string `json:"link"`
}

// TimeWindow is the caller supplied range events are queried for.
// Both bounds are passed upstream as is.
type TimeWindow struct {
	Start string
	End   string
}

func (w TimeWindow) Empty() bool {
	return w.Start == "" || w.End == ""
}
