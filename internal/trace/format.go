package trace

import (
	"encoding/json"
	"fmt"
	"time"
)

// Format represents the output format for trace events.
type Format uint8

const (
	FormatText   Format = iota // human-readable text
	FormatNDJSON               // newline-delimited JSON
)

// FormatEvent formats an event according to the specified format.
func FormatEvent(ev Event, format Format) []byte {
	switch format {
	case FormatNDJSON:
		return formatNDJSON(ev)
	default:
		return formatText(ev)
	}
}

func formatText(ev Event) []byte {
	line := fmt.Sprintf("[%s] #%d %s/%s %s",
		ev.Time.Format("15:04:05.000"), ev.Seq, ev.Scope, ev.Kind, ev.Name)
	if ev.Detail != "" {
		line += " " + ev.Detail
	}
	return []byte(line + "\n")
}

func formatNDJSON(ev Event) []byte {
	type jsonEvent struct {
		Time   string `json:"time"`
		Seq    uint64 `json:"seq"`
		Kind   string `json:"kind"`
		Scope  string `json:"scope"`
		Name   string `json:"name"`
		Detail string `json:"detail,omitempty"`
	}
	je := jsonEvent{
		Time:   ev.Time.Format(time.RFC3339Nano),
		Seq:    ev.Seq,
		Kind:   ev.Kind.String(),
		Scope:  ev.Scope.String(),
		Name:   ev.Name,
		Detail: ev.Detail,
	}
	data, err := json.Marshal(je)
	if err != nil {
		// Marshalling a struct of strings cannot fail; fall back anyway.
		return formatText(ev)
	}
	return append(data, '\n')
}
