package tools

import (
	"context"
	"strings"
	"testing"
	"time"
)

func fixedDateTimeTool() *DateTimeTool {
	t := NewDateTimeTool()
	t.now = func() time.Time {
		return time.Date(2026, 8, 31, 14, 30, 0, 0, time.UTC)
	}
	return t
}

func TestDateTimeTool_DefaultUTC(t *testing.T) {
	tool := fixedDateTimeTool()

	result, err := tool.Execute(context.Background(), Args{})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected error result: %s", result.Content)
	}
	if !strings.Contains(result.Content, "2026-08-31 14:30:00") {
		t.Errorf("Content = %q, want timestamp", result.Content)
	}
	if !strings.Contains(result.Content, "Monday") {
		t.Errorf("Content = %q, want weekday", result.Content)
	}
}

func TestDateTimeTool_Timezone(t *testing.T) {
	tool := fixedDateTimeTool()

	result, err := tool.Execute(context.Background(), Args{"timezone": "America/New_York"})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(result.Content, "10:30:00") {
		t.Errorf("Content = %q, want 10:30:00 in New York", result.Content)
	}
}

func TestDateTimeTool_UnknownTimezone(t *testing.T) {
	tool := fixedDateTimeTool()

	result, err := tool.Execute(context.Background(), Args{"timezone": "Mars/Olympus"})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !result.IsError {
		t.Error("unknown timezone should produce an error result")
	}
}
