package openproject

import "testing"

func TestEncodeFilters(t *testing.T) {
	tests := []struct {
		name    string
		filters []Filter
		want    string
	}{
		{
			name:    "empty",
			filters: nil,
			want:    "",
		},
		{
			name:    "project",
			filters: []Filter{ProjectFilter("3")},
			want:    `[{"project":{"operator":"=","values":["3"]}}]`,
		},
		{
			name:    "subject contains",
			filters: []Filter{SubjectFilter("login bug")},
			want:    `[{"subject":{"operator":"~","values":["login bug"]}}]`,
		},
		{
			name:    "open status has no values",
			filters: []Filter{OpenFilter()},
			want:    `[{"status":{"operator":"o","values":[]}}]`,
		},
		{
			name:    "combined",
			filters: []Filter{ProjectFilter("3"), OpenFilter()},
			want:    `[{"project":{"operator":"=","values":["3"]}},{"status":{"operator":"o","values":[]}}]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := encodeFilters(tt.filters)
			if err != nil {
				t.Fatalf("encodeFilters() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("encodeFilters() = %s, want %s", got, tt.want)
			}
		})
	}
}
