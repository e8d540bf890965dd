// Package entityapitest provides an in-memory entity API for tests.
package entityapitest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/zatekoja/medbackoffice/internal/infrastructure/clients/entityapi"
)

// Server serves the entity API routes from memory.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	records  map[string][]map[string]any
	seq      int
	failures map[string][]int
	calls    map[string]int
}

// NewServer starts a server that is closed when the test ends.
func NewServer(t testing.TB) *Server {
	s := &Server{
		records:  make(map[string][]map[string]any),
		failures: make(map[string][]int),
		calls:    make(map[string]int),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /entities/{type}", s.list)
	mux.HandleFunc("POST /entities/{type}", s.create)
	mux.HandleFunc("PUT /entities/{type}/{id}", s.update)
	mux.HandleFunc("DELETE /entities/{type}/{id}", s.delete)
	mux.HandleFunc("POST /entities/{type}/bulk-delete", s.bulkDelete)

	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

// EntityClient returns an entity API client pointed at the server.
func (s *Server) EntityClient() *entityapi.Client {
	return entityapi.NewClient(entityapi.Config{BaseURL: s.URL})
}

// Seed stores records of entityType. Each record is encoded to JSON first.
func (s *Server) Seed(entityType string, records ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		raw, err := json.Marshal(r)
		if err != nil {
			panic(err)
		}
		var m map[string]any
		if err := json.Unmarshal(raw, &m); err != nil {
			panic(err)
		}
		s.records[entityType] = append(s.records[entityType], m)
	}
}

// Records returns the stored records of entityType.
func (s *Server) Records(entityType string) []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.records[entityType])
}

// FailNext makes the next requests of method on entityType answer with statuses, in order.
func (s *Server) FailNext(method, entityType string, statuses ...int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := method + " " + entityType
	s.failures[key] = append(s.failures[key], statuses...)
}

// Calls counts the requests of method on entityType, failed ones included.
func (s *Server) Calls(method, entityType string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[method+" "+entityType]
}

// begin records the call and answers a queued failure. Callers hold mu.
func (s *Server) begin(w http.ResponseWriter, r *http.Request) bool {
	key := r.Method + " " + r.PathValue("type")
	s.calls[key]++
	if queue := s.failures[key]; len(queue) > 0 {
		status := queue[0]
		s.failures[key] = queue[1:]
		writeJSON(w, status, map[string]string{"message": fmt.Sprintf("simulated status %d", status)})
		return false
	}
	return true
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.begin(w, r) {
		return
	}
	items := s.records[r.PathValue("type")]
	if items == nil {
		items = []map[string]any{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.begin(w, r) {
		return
	}
	record, ok := decode(w, r)
	if !ok {
		return
	}
	entityType := r.PathValue("type")
	if id, _ := record["id"].(string); id == "" {
		s.seq++
		record["id"] = fmt.Sprintf("%s-%d", strings.ToLower(entityType), s.seq)
	}
	s.records[entityType] = append(s.records[entityType], record)
	writeJSON(w, http.StatusCreated, record)
}

func (s *Server) update(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.begin(w, r) {
		return
	}
	record, ok := decode(w, r)
	if !ok {
		return
	}
	entityType, id := r.PathValue("type"), r.PathValue("id")
	i := s.index(entityType, id)
	if i < 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "not found"})
		return
	}
	record["id"] = id
	s.records[entityType][i] = record
	writeJSON(w, http.StatusOK, record)
}

func (s *Server) delete(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.begin(w, r) {
		return
	}
	entityType := r.PathValue("type")
	i := s.index(entityType, r.PathValue("id"))
	if i < 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "not found"})
		return
	}
	s.records[entityType] = slices.Delete(s.records[entityType], i, i+1)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) bulkDelete(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.begin(w, r) {
		return
	}
	var body struct {
		IDs []string `json:"ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
		return
	}
	entityType := r.PathValue("type")
	s.records[entityType] = slices.DeleteFunc(s.records[entityType], func(m map[string]any) bool {
		id, _ := m["id"].(string)
		return slices.Contains(body.IDs, id)
	})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) index(entityType, id string) int {
	return slices.IndexFunc(s.records[entityType], func(m map[string]any) bool {
		got, _ := m["id"].(string)
		return got == id
	})
}

func decode(w http.ResponseWriter, r *http.Request) (map[string]any, bool) {
	var record map[string]any
	if err := json.NewDecoder(r.Body).Decode(&record); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
		return nil, false
	}
	return record, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
