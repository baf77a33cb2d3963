package openproject

import "encoding/json"

// Filter is one predicate of the OpenProject filter query parameter.
// The API expects a JSON array of single-key objects:
// [{"field":{"operator":"=","values":["1"]}}].
type Filter struct {
	Field    string
	Operator string
	Values   []string
}

// encodeFilters serializes filters into the wire format. An empty slice
// encodes to "" so callers can skip the query parameter entirely.
func encodeFilters(filters []Filter) (string, error) {
	if len(filters) == 0 {
		return "", nil
	}
	out := make([]map[string]any, 0, len(filters))
	for _, f := range filters {
		out = append(out, map[string]any{
			f.Field: map[string]any{
				"operator": f.Operator,
				"values":   f.Values,
			},
		})
	}
	data, err := json.Marshal(out)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ProjectFilter restricts work packages to one project.
func ProjectFilter(projectID string) Filter {
	return Filter{Field: "project", Operator: "=", Values: []string{projectID}}
}

// SubjectFilter matches work packages whose subject contains the query.
func SubjectFilter(query string) Filter {
	return Filter{Field: "subject", Operator: "~", Values: []string{query}}
}

// OpenFilter restricts work packages to open statuses.
func OpenFilter() Filter {
	return Filter{Field: "status", Operator: "o", Values: []string{}}
}
