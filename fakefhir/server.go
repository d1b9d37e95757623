// Package fakefhir is an in-memory resource server used to exercise the client and the test
// modules. It keeps every version of every resource, serves the three levels of history with
// _since and _count, and pages through them with next, previous, first and last links.
//
// Options can make it misbehave in specific ways so that tests can check that each kind of
// nonconformance is detected.
package fakefhir

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/sprinkler-fhir/sprinkler/servicedef"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

const defaultPageSize = 50

// Options selects deviations from conformant behavior.
type Options struct {
	// DefaultPageSize is the page size used when a request has no _count.
	DefaultPageSize int
	// OldestFirst serves history in chronological instead of reverse chronological order.
	OldestFirst bool
	// IgnoreSince serves history as if _since had not been given.
	IgnoreSince bool
	// IgnoreCount serves pages of DefaultPageSize entries whatever _count says.
	IgnoreCount bool
	// OmitPreviousLinks leaves out previous links, so a backward walk stops at the last page.
	OmitPreviousLinks bool
	// RelativeEntryURLs writes entry fullUrls relative to the base URL.
	RelativeEntryURLs bool
	// PlainJSON labels resource responses application/json.
	PlainJSON bool
	// MetadataContentLocation is sent as Content-Location from /metadata, if not empty.
	MetadataContentLocation string
	// NoDeletionVersions answers a vread of a deleted version with 404 instead of 410.
	NoDeletionVersions bool
}

type change struct {
	resourceType string
	id           string
	versionID    string
	body         ldvalue.Value
	deleted      bool
	when         time.Time
}

func (c change) key() string {
	return c.resourceType + "/" + c.id
}

// Server is an http.Handler. Its zero value is not usable; call New.
type Server struct {
	opts    Options
	changes []change
	latest  map[string]int
	last    time.Time
	router  *mux.Router
	lock    sync.Mutex
}

func New(opts Options) *Server {
	if opts.DefaultPageSize <= 0 {
		opts.DefaultPageSize = defaultPageSize
	}
	s := &Server{opts: opts, latest: make(map[string]int)}
	s.router = s.routes()
	return s
}

// Seed adds count resources of a type, each with a single version.
func (s *Server) Seed(resourceType string, count int) {
	s.lock.Lock()
	defer s.lock.Unlock()
	for i := 0; i < count; i++ {
		id := uuid.New().String()
		body := ldvalue.ObjectBuild().
			Set("resourceType", ldvalue.String(resourceType)).
			Set("id", ldvalue.String(id)).
			Build()
		s.record(resourceType, id, body, false)
	}
}

// Changes is the number of versions recorded so far, deletions included.
func (s *Server) Changes() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return len(s.changes)
}

// now returns a strictly increasing timestamp, so that history order is unambiguous.
func (s *Server) now() time.Time {
	t := time.Now().UTC()
	if !t.After(s.last) {
		t = s.last.Add(time.Millisecond)
	}
	s.last = t
	return t
}

func (s *Server) record(resourceType, id string, body ldvalue.Value, deleted bool) change {
	versionID := "1"
	if i, ok := s.latest[resourceType+"/"+id]; ok {
		n, _ := strconv.Atoi(s.changes[i].versionID)
		versionID = strconv.Itoa(n + 1)
	}
	c := change{resourceType: resourceType, id: id, versionID: versionID, deleted: deleted, when: s.now()}
	if !deleted {
		body = servicedef.WithProperty(body, "id", ldvalue.String(id))
		c.body = servicedef.WithMeta(body, versionID, c.when)
	}
	s.changes = append(s.changes, c)
	s.latest[c.key()] = len(s.changes) - 1
	return c
}

func (s *Server) routes() *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/metadata", s.locked(func(w http.ResponseWriter, req *http.Request, _ map[string]string) {
		s.serveMetadata(w)
	})).Methods(http.MethodGet)
	router.HandleFunc("/_history", s.locked(func(w http.ResponseWriter, req *http.Request, _ map[string]string) {
		s.serveHistory(w, req, baseURL(req), "", "")
	})).Methods(http.MethodGet)
	router.HandleFunc("/{type}", s.locked(func(w http.ResponseWriter, req *http.Request, vars map[string]string) {
		s.serveCreate(w, req, baseURL(req), vars["type"])
	})).Methods(http.MethodPost)
	router.HandleFunc("/{type}/_history", s.locked(func(w http.ResponseWriter, req *http.Request, vars map[string]string) {
		s.serveHistory(w, req, baseURL(req), vars["type"], "")
	})).Methods(http.MethodGet)
	router.HandleFunc("/{type}/{id}", s.locked(func(w http.ResponseWriter, req *http.Request, vars map[string]string) {
		s.serveRead(w, baseURL(req), vars["type"], vars["id"], "")
	})).Methods(http.MethodGet)
	router.HandleFunc("/{type}/{id}", s.locked(func(w http.ResponseWriter, req *http.Request, vars map[string]string) {
		s.serveUpdate(w, req, baseURL(req), vars["type"], vars["id"])
	})).Methods(http.MethodPut)
	router.HandleFunc("/{type}/{id}", s.locked(func(w http.ResponseWriter, req *http.Request, vars map[string]string) {
		s.serveDelete(w, vars["type"], vars["id"])
	})).Methods(http.MethodDelete)
	router.HandleFunc("/{type}/{id}/_history", s.locked(func(w http.ResponseWriter, req *http.Request, vars map[string]string) {
		if _, ok := s.latest[vars["type"]+"/"+vars["id"]]; !ok {
			writeOutcome(w, http.StatusNotFound, "not-found", "unknown resource "+vars["type"]+"/"+vars["id"])
			return
		}
		s.serveHistory(w, req, baseURL(req), vars["type"], vars["id"])
	})).Methods(http.MethodGet)
	router.HandleFunc("/{type}/{id}/_history/{vid}", s.locked(func(w http.ResponseWriter, req *http.Request, vars map[string]string) {
		s.serveRead(w, baseURL(req), vars["type"], vars["id"], vars["vid"])
	})).Methods(http.MethodGet)

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		writeOutcome(w, http.StatusNotFound, "not-found", "no such endpoint: "+req.URL.Path)
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		writeOutcome(w, http.StatusMethodNotAllowed, "not-supported", req.Method+" is not supported here")
	})
	return router
}

// locked serializes access to the server state and passes on the path variables.
func (s *Server) locked(handler func(http.ResponseWriter, *http.Request, map[string]string)) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		s.lock.Lock()
		defer s.lock.Unlock()
		handler(w, req, mux.Vars(req))
	}
}

func baseURL(req *http.Request) string {
	return "http://" + req.Host
}

func (s *Server) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	s.router.ServeHTTP(w, req)
}

func (s *Server) serveMetadata(w http.ResponseWriter) {
	body := ldvalue.ObjectBuild().
		Set("resourceType", ldvalue.String("CapabilityStatement")).
		Set("status", ldvalue.String("active")).
		Set("kind", ldvalue.String("instance")).
		Set("fhirVersion", ldvalue.String("4.0.1")).
		Build()
	if s.opts.MetadataContentLocation != "" {
		w.Header().Set("Content-Location", s.opts.MetadataContentLocation)
	}
	s.writeResource(w, http.StatusOK, body)
}

func (s *Server) serveCreate(w http.ResponseWriter, req *http.Request, base, resourceType string) {
	body, ok := readResource(w, req, resourceType)
	if !ok {
		return
	}
	c := s.record(resourceType, uuid.New().String(), body, false)
	w.Header().Set("Location", versionURL(base, c))
	s.writeResource(w, http.StatusCreated, c.body)
}

func (s *Server) serveUpdate(w http.ResponseWriter, req *http.Request, base, resourceType, id string) {
	body, ok := readResource(w, req, resourceType)
	if !ok {
		return
	}
	status := http.StatusCreated
	if i, exists := s.latest[resourceType+"/"+id]; exists {
		current := s.changes[i]
		if ifMatch := req.Header.Get("If-Match"); ifMatch != "" && ifMatch != fmt.Sprintf(`W/"%s"`, current.versionID) {
			writeOutcome(w, http.StatusPreconditionFailed, "conflict", "version "+current.versionID+" is current")
			return
		}
		if !current.deleted {
			status = http.StatusOK
		}
	}
	c := s.record(resourceType, id, body, false)
	w.Header().Set("Location", versionURL(base, c))
	w.Header().Set("Content-Location", versionURL(base, c))
	s.writeResource(w, status, c.body)
}

func (s *Server) serveDelete(w http.ResponseWriter, resourceType, id string) {
	if i, ok := s.latest[resourceType+"/"+id]; ok && !s.changes[i].deleted {
		s.record(resourceType, id, ldvalue.Null(), true)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) serveRead(w http.ResponseWriter, base, resourceType, id, versionID string) {
	i, ok := s.latest[resourceType+"/"+id]
	if !ok {
		writeOutcome(w, http.StatusNotFound, "not-found", "unknown resource "+resourceType+"/"+id)
		return
	}
	c := s.changes[i]
	if versionID != "" {
		found := false
		for _, candidate := range s.changes {
			if candidate.key() == c.key() && candidate.versionID == versionID {
				c, found = candidate, true
				break
			}
		}
		if !found || (c.deleted && s.opts.NoDeletionVersions) {
			writeOutcome(w, http.StatusNotFound, "not-found", "unknown version "+versionID)
			return
		}
	}
	if c.deleted {
		writeOutcome(w, http.StatusGone, "deleted", resourceType+"/"+id+" was deleted")
		return
	}
	w.Header().Set("Content-Location", versionURL(base, c))
	w.Header().Set("Last-Modified", c.when.Format(http.TimeFormat))
	s.writeResource(w, http.StatusOK, c.body)
}

func (s *Server) writeResource(w http.ResponseWriter, status int, body interface{}) {
	contentType := servicedef.ContentTypeFHIRJSON
	if s.opts.PlainJSON {
		contentType = "application/json"
	}
	w.Header().Set("Content-Type", contentType+"; charset=utf-8")
	w.WriteHeader(status)
	data, _ := json.Marshal(body)
	_, _ = w.Write(data)
}

func writeOutcome(w http.ResponseWriter, status int, code, diagnostics string) {
	outcome := servicedef.OperationOutcome{
		ResourceType: servicedef.ResourceTypeOperationOutcome,
		Issue:        []servicedef.OutcomeIssue{{Severity: "error", Code: code, Diagnostics: diagnostics}},
	}
	w.Header().Set("Content-Type", servicedef.ContentTypeFHIRJSON)
	w.WriteHeader(status)
	data, _ := json.Marshal(outcome)
	_, _ = w.Write(data)
}

func readResource(w http.ResponseWriter, req *http.Request, resourceType string) (ldvalue.Value, bool) {
	var body ldvalue.Value
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeOutcome(w, http.StatusBadRequest, "invalid", "malformed JSON: "+err.Error())
		return ldvalue.Null(), false
	}
	if servicedef.ResourceType(body) != resourceType {
		writeOutcome(w, http.StatusBadRequest, "invalid", "resourceType must be "+resourceType)
		return ldvalue.Null(), false
	}
	return body, true
}

func versionURL(base string, c change) string {
	return fmt.Sprintf("%s/%s/%s/_history/%s", base, c.resourceType, c.id, c.versionID)
}
