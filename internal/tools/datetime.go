package tools

import (
	"context"
	"encoding/json"
	"time"
)

// DateTime reports the current local date and time.
type DateTime struct{}

// NewDateTime creates the datetime tool.
func NewDateTime() *DateTime {
	return &DateTime{}
}

func (d *DateTime) Name() string {
	return "datetime"
}

func (d *DateTime) Description() string {
	return "Tool to get the current local date and time when the user asks for time or date context. " +
		"Examples: 'What time is it?', 'What's today's date?', 'Tell me the current time'. " +
		"Returns structured time fields (iso, date, time, timestamp, timezone); " +
		"use this tool for factual current-time answers instead of guessing."
}

func (d *DateTime) UserMessage() string {
	return "Checking current date and time..."
}

func (d *DateTime) Schema() json.RawMessage {
	return json.RawMessage(`{"type":"object"}`)
}

func (d *DateTime) Run(ctx context.Context, args map[string]any) (map[string]any, error) {
	now := time.Now()
	zone, _ := now.Zone()
	return map[string]any{
		"iso":       now.Format(time.RFC3339),
		"date":      now.Format("2006-01-02"),
		"time":      now.Format("15:04:05"),
		"timestamp": float64(now.UnixNano()) / 1e9,
		"timezone":  zone,
	}, nil
}
