package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// DateTimeTool reports the current date and time, optionally in a given
// IANA timezone.
type DateTimeTool struct {
	now func() time.Time // overridable for testing
}

// NewDateTimeTool creates the datetime tool.
func NewDateTimeTool() *DateTimeTool {
	return &DateTimeTool{now: time.Now}
}

func (t *DateTimeTool) Name() string { return "datetime" }

func (t *DateTimeTool) Description() string {
	return "Get the current date and time, including the weekday. Optionally pass an IANA timezone like Europe/Berlin; defaults to UTC."
}

func (t *DateTimeTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"timezone": {
				"type": "string",
				"description": "IANA timezone name, e.g. Europe/Berlin (default UTC)"
			}
		}
	}`)
}

func (t *DateTimeTool) Execute(ctx context.Context, args Args) (Result, error) {
	loc := time.UTC
	if tz := args.String("timezone"); tz != "" {
		parsed, err := time.LoadLocation(tz)
		if err != nil {
			return Result{
				Content: fmt.Sprintf("unknown timezone %q", tz),
				IsError: true,
			}, nil
		}
		loc = parsed
	}

	now := t.now().In(loc)
	return Result{
		Content: fmt.Sprintf("%s (%s, %s)", now.Format("2006-01-02 15:04:05 MST"), now.Weekday(), loc),
	}, nil
}
