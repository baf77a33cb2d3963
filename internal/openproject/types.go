// Package openproject is a thin client for the OpenProject REST API v3:
// CRUD over work packages and projects with basic-auth API keys, JSON
// bodies, and the API's structured filter query parameter. Responses come
// back as HAL collection wrappers; anything non-2xx is an error.
package openproject

// Formattable is OpenProject's rich-text value: a raw markup string plus
// rendered HTML. Only Raw is ever written.
type Formattable struct {
	Format string `json:"format,omitempty"`
	Raw    string `json:"raw"`
	HTML   string `json:"html,omitempty"`
}

// Link is a HAL link to another resource.
type Link struct {
	Href  string `json:"href"`
	Title string `json:"title,omitempty"`
}

// Project is an OpenProject project.
type Project struct {
	ID          int         `json:"id"`
	Identifier  string      `json:"identifier"`
	Name        string      `json:"name"`
	Description Formattable `json:"description"`
	Active      bool        `json:"active"`
}

// WorkPackageLinks holds the HAL links of a work package we care about.
type WorkPackageLinks struct {
	Project  *Link `json:"project,omitempty"`
	Type     *Link `json:"type,omitempty"`
	Status   *Link `json:"status,omitempty"`
	Assignee *Link `json:"assignee,omitempty"`
}

// WorkPackage is an OpenProject work package (task, bug, feature, ...).
type WorkPackage struct {
	ID          int              `json:"id"`
	Subject     string           `json:"subject"`
	Description Formattable      `json:"description"`
	LockVersion int              `json:"lockVersion"`
	Links       WorkPackageLinks `json:"_links"`
}

// Type is a work package type (Task, Bug, Milestone, ...).
type Type struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Status is a work package status.
type Status struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	IsClosed bool   `json:"isClosed"`
}

// User is an OpenProject principal.
type User struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Login string `json:"login"`
}

// collection is the HAL wrapper every list endpoint returns.
type collection[T any] struct {
	Total    int `json:"total"`
	Count    int `json:"count"`
	Embedded struct {
		Elements []T `json:"elements"`
	} `json:"_embedded"`
}
