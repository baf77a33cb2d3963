package openproject

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.URL, "secret-key")
}

func TestClient_BasicAuthUsesApikeyUser(t *testing.T) {
	var gotAuth string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(collection[Project]{})
	})

	if _, err := client.ListProjects(context.Background()); err != nil {
		t.Fatalf("ListProjects() error = %v", err)
	}

	want := "Basic " + base64.StdEncoding.EncodeToString([]byte("apikey:secret-key"))
	if gotAuth != want {
		t.Errorf("Authorization = %q, want %q", gotAuth, want)
	}
}

func TestClient_ListProjects(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v3/projects" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Write([]byte(`{"total":2,"count":2,"_embedded":{"elements":[
			{"id":1,"identifier":"infra","name":"Infrastructure","active":true},
			{"id":2,"identifier":"web","name":"Website","active":true}
		]}}`))
	})

	projects, err := client.ListProjects(context.Background())
	if err != nil {
		t.Fatalf("ListProjects() error = %v", err)
	}
	if len(projects) != 2 {
		t.Fatalf("got %d projects, want 2", len(projects))
	}
	if projects[0].Identifier != "infra" || projects[1].Name != "Website" {
		t.Errorf("projects = %+v", projects)
	}
}

func TestClient_ListWorkPackagesSendsFiltersAndPageSize(t *testing.T) {
	var gotQuery map[string][]string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		json.NewEncoder(w).Encode(collection[WorkPackage]{})
	})

	filters := []Filter{ProjectFilter("3"), OpenFilter()}
	if _, err := client.ListWorkPackages(context.Background(), filters, 25); err != nil {
		t.Fatalf("ListWorkPackages() error = %v", err)
	}

	if got := gotQuery["filters"]; len(got) != 1 || !strings.Contains(got[0], `"project"`) {
		t.Errorf("filters query = %v", got)
	}
	if got := gotQuery["pageSize"]; len(got) != 1 || got[0] != "25" {
		t.Errorf("pageSize query = %v", got)
	}
}

func TestClient_GetWorkPackage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v3/work_packages/42" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Write([]byte(`{"id":42,"subject":"Fix login","lockVersion":3,
			"description":{"format":"markdown","raw":"Users cannot log in"},
			"_links":{"status":{"href":"/api/v3/statuses/1","title":"New"}}}`))
	})

	wp, err := client.GetWorkPackage(context.Background(), 42)
	if err != nil {
		t.Fatalf("GetWorkPackage() error = %v", err)
	}
	if wp.Subject != "Fix login" || wp.LockVersion != 3 {
		t.Errorf("wp = %+v", wp)
	}
	if wp.Links.Status == nil || wp.Links.Status.Title != "New" {
		t.Errorf("status link = %+v", wp.Links.Status)
	}
}

func TestClient_CreateWorkPackage(t *testing.T) {
	var gotBody map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v3/projects/3/work_packages" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":100,"subject":"New task","lockVersion":0}`))
	})

	wp, err := client.CreateWorkPackage(context.Background(), 3, "New task", "details here", 1)
	if err != nil {
		t.Fatalf("CreateWorkPackage() error = %v", err)
	}
	if wp.ID != 100 {
		t.Errorf("ID = %d, want 100", wp.ID)
	}
	if gotBody["subject"] != "New task" {
		t.Errorf("subject = %v", gotBody["subject"])
	}
	desc, _ := gotBody["description"].(map[string]any)
	if desc["raw"] != "details here" {
		t.Errorf("description = %v", gotBody["description"])
	}
	links, _ := gotBody["_links"].(map[string]any)
	typeLink, _ := links["type"].(map[string]any)
	if typeLink["href"] != "/api/v3/types/1" {
		t.Errorf("type link = %v", links["type"])
	}
}

func TestClient_UpdateWorkPackageCarriesLockVersion(t *testing.T) {
	var gotPatch map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			w.Write([]byte(`{"id":42,"subject":"Old subject","lockVersion":7}`))
		case http.MethodPatch:
			json.NewDecoder(r.Body).Decode(&gotPatch)
			w.Write([]byte(`{"id":42,"subject":"New subject","lockVersion":8}`))
		default:
			t.Errorf("unexpected method %s", r.Method)
		}
	})

	subject := "New subject"
	wp, err := client.UpdateWorkPackage(context.Background(), 42, WorkPackageUpdate{Subject: &subject})
	if err != nil {
		t.Fatalf("UpdateWorkPackage() error = %v", err)
	}
	if wp.Subject != "New subject" {
		t.Errorf("Subject = %q", wp.Subject)
	}
	if gotPatch["lockVersion"] != float64(7) {
		t.Errorf("lockVersion = %v, want 7", gotPatch["lockVersion"])
	}
	if gotPatch["subject"] != "New subject" {
		t.Errorf("subject = %v", gotPatch["subject"])
	}
	if _, ok := gotPatch["description"]; ok {
		t.Error("description must be omitted when not updated")
	}
}

func TestClient_UpdateWorkPackageStatusLink(t *testing.T) {
	var gotPatch map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			w.Write([]byte(`{"id":42,"lockVersion":1}`))
			return
		}
		json.NewDecoder(r.Body).Decode(&gotPatch)
		w.Write([]byte(`{"id":42,"lockVersion":2}`))
	})

	status := 5
	if _, err := client.UpdateWorkPackage(context.Background(), 42, WorkPackageUpdate{StatusID: &status}); err != nil {
		t.Fatalf("UpdateWorkPackage() error = %v", err)
	}
	links, _ := gotPatch["_links"].(map[string]any)
	statusLink, _ := links["status"].(map[string]any)
	if statusLink["href"] != "/api/v3/statuses/5" {
		t.Errorf("status link = %v", links)
	}
}

func TestClient_ErrorSurfacesAPIMessage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"_type":"Error","errorIdentifier":"urn:openproject-org:api:v3:errors:NotFound","message":"The requested resource could not be found."}`))
	})

	_, err := client.GetWorkPackage(context.Background(), 999)
	if err == nil {
		t.Fatal("expected error for 404")
	}
	if !strings.Contains(err.Error(), "HTTP 404") {
		t.Errorf("error = %v, want HTTP 404 in message", err)
	}
	if !strings.Contains(err.Error(), "could not be found") {
		t.Errorf("error = %v, want API message included", err)
	}
}

func TestClient_ListStatuses(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"count":2,"_embedded":{"elements":[
			{"id":1,"name":"New","isClosed":false},
			{"id":12,"name":"Closed","isClosed":true}
		]}}`))
	})

	statuses, err := client.ListStatuses(context.Background())
	if err != nil {
		t.Fatalf("ListStatuses() error = %v", err)
	}
	if len(statuses) != 2 || !statuses[1].IsClosed {
		t.Errorf("statuses = %+v", statuses)
	}
}
