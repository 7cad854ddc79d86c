package surface

import (
	"math"

	"github.com/buger/jsonparser"
)

// mpvEvent is the subset of an mpv IPC event line the surface reacts to.
// Command replies decode to an empty Event.
type mpvEvent struct {
	Event  string
	Name   string
	Reason string
	Flag   bool
	Number float64
}

func parseMpvEvent(line []byte) (mpvEvent, error) {
	ev := mpvEvent{Number: math.NaN()}

	// Validate the line before picking fields out of it.
	if _, _, _, err := jsonparser.Get(line); err != nil {
		return ev, err
	}

	ev.Event, _ = jsonparser.GetString(line, "event")
	ev.Name, _ = jsonparser.GetString(line, "name")
	ev.Reason, _ = jsonparser.GetString(line, "reason")

	data, dataType, _, err := jsonparser.Get(line, "data")
	if err != nil {
		return ev, nil
	}
	switch dataType {
	case jsonparser.Boolean:
		ev.Flag, _ = jsonparser.ParseBoolean(data)
	case jsonparser.Number:
		if n, err := jsonparser.ParseFloat(data); err == nil {
			ev.Number = n
		}
	}
	return ev, nil
}
