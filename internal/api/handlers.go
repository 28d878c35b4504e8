// Package api serves the dashboard's HTTP routes. Forwarding routes validate
// the request shape, call the gateway, and unwrap one level of the gateway's
// envelope. Log and metrics routes are served locally.
package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/five82/cueweb/internal/gateway"
	"github.com/five82/cueweb/internal/logs"
	"github.com/five82/cueweb/internal/metrics"
)

// maxBodyBytes caps request bodies accepted by forwarding routes.
const maxBodyBytes = 1 << 20

// LogReader reads frame logs for the log routes.
type LogReader interface {
	ReadLines(path string, start, end int) ([]string, error)
	CountLines(path string) (int, error)
	Versions(filename string) ([]string, error)
}

var _ LogReader = logs.Reader{}

// Handlers holds the collaborators behind every route.
type Handlers struct {
	Gateway gateway.Caller
	Logs    LogReader
	Metrics metrics.Registry
}

// Register adds every route to mux. Log and metrics routes are skipped when
// their collaborator is nil.
func (h Handlers) Register(mux *http.ServeMux) {
	for _, rt := range forwardRoutes {
		mux.Handle(rt.path, h.forward(rt))
	}
	if h.Logs != nil {
		mux.HandleFunc(PathGetLines, h.getLines)
		mux.HandleFunc(PathCountLines, h.countLines)
		mux.HandleFunc(PathGetLogVersions, h.getLogVersions)
	}
	if h.Metrics != nil {
		mux.HandleFunc(PathIncrement, h.increment)
		mux.HandleFunc(PathMetrics, h.exportMetrics)
	}
}

func (h Handlers) forward(rt route) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !assertMethod(w, r, http.MethodPost) {
			return
		}

		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			log.Printf("%s: read body: %v", rt.path, err)
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid JSON body"})
			return
		}
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(body, &fields); err != nil || fields == nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid JSON body"})
			return
		}
		if missing := missingField(fields, rt.required); missing != "" {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Missing required field: " + missing})
			return
		}

		res := h.Gateway.Call(r.Context(), rt.endpoint, http.MethodPost, body)
		if !res.OK() {
			status := res.Status
			if status == 0 {
				status = http.StatusInternalServerError
			}
			writeJSON(w, status, errorResponse{Error: res.Error, Status: envelopeStatus(rt, status)})
			return
		}

		if len(rt.unwrap) == 0 {
			writeJSON(w, http.StatusOK, successResponse{Success: true})
			return
		}
		writeJSON(w, http.StatusOK, dataResponse{
			Data:   unwrap(res.Data, rt.unwrap, rt.list),
			Status: envelopeStatus(rt, res.Status),
		})
	})
}

func envelopeStatus(rt route, status int) int {
	if rt.withStatus {
		return status
	}
	return 0
}

func missingField(fields map[string]json.RawMessage, required []string) string {
	for _, name := range required {
		raw, ok := fields[name]
		if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			return name
		}
	}
	return ""
}

var emptyList = json.RawMessage("[]")

// unwrap follows keys into payload. Absent keys yield [] for list routes
// and null otherwise.
func unwrap(payload json.RawMessage, keys []string, list bool) json.RawMessage {
	current := payload
	for _, key := range keys {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(current, &obj); err != nil {
			current = nil
			break
		}
		next, ok := obj[key]
		if !ok {
			current = nil
			break
		}
		current = next
	}
	if current == nil || bytes.Equal(bytes.TrimSpace(current), []byte("null")) {
		if list {
			return emptyList
		}
		return json.RawMessage("null")
	}
	return current
}

type linesResponse struct {
	Lines []string `json:"lines"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func (h Handlers) getLines(w http.ResponseWriter, r *http.Request) {
	if !assertMethod(w, r, http.MethodGet) {
		return
	}
	q := r.URL.Query()
	path := strings.TrimSpace(q.Get("path"))
	if path == "" {
		writeJSON(w, http.StatusBadRequest, messageResponse{Message: "Missing required parameter: path"})
		return
	}
	start, err := optionalInt(q.Get("start"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, messageResponse{Message: "Invalid start: " + err.Error()})
		return
	}
	end, err := optionalInt(q.Get("end"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, messageResponse{Message: "Invalid end: " + err.Error()})
		return
	}

	lines, err := h.Logs.ReadLines(path, start, end)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, logs.ErrOutsideRoot) {
			status = http.StatusBadRequest
		}
		log.Printf("getlines %s: %v", path, err)
		writeJSON(w, status, messageResponse{Message: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, linesResponse{Lines: lines})
}

type countResponse struct {
	Count int `json:"count"`
}

func (h Handlers) countLines(w http.ResponseWriter, r *http.Request) {
	if !assertMethod(w, r, http.MethodGet) {
		return
	}
	path := strings.TrimSpace(r.URL.Query().Get("path"))
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Missing required parameter: path"})
		return
	}
	count, err := h.Logs.CountLines(path)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, logs.ErrOutsideRoot) {
			status = http.StatusBadRequest
		}
		log.Printf("countlines %s: %v", path, err)
		writeJSON(w, status, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, countResponse{Count: count})
}

type versionsResponse struct {
	Versions []string `json:"versions"`
}

func (h Handlers) getLogVersions(w http.ResponseWriter, r *http.Request) {
	if !assertMethod(w, r, http.MethodGet) {
		return
	}
	filename := strings.TrimSpace(r.URL.Query().Get("filename"))
	if filename == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Missing required parameter: filename"})
		return
	}
	versions, err := h.Logs.Versions(filename)
	switch {
	case errors.Is(err, logs.ErrNoVersions):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "No log versions found for " + filename})
	case errors.Is(err, logs.ErrOutsideRoot):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case err != nil:
		log.Printf("getlogversions %s: %v", filename, err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
	default:
		writeJSON(w, http.StatusOK, versionsResponse{Versions: versions})
	}
}

func (h Handlers) increment(w http.ResponseWriter, r *http.Request) {
	if !assertMethod(w, r, http.MethodGet) {
		return
	}
	username := strings.TrimSpace(r.URL.Query().Get("username"))
	if username == "" {
		writeText(w, http.StatusBadRequest, "Username is required")
		return
	}
	if err := h.Metrics.Increment(metrics.UserVisits, username); err != nil {
		log.Printf("increment %s: %v", username, err)
		writeText(w, http.StatusInternalServerError, "Error incrementing counter")
		return
	}
	writeText(w, http.StatusOK, "Counter incremented")
}

func (h Handlers) exportMetrics(w http.ResponseWriter, r *http.Request) {
	if !assertMethod(w, r, http.MethodGet) {
		return
	}
	var buf bytes.Buffer
	if err := h.Metrics.ExportText(&buf); err != nil {
		log.Printf("export metrics: %v", err)
		writeText(w, http.StatusInternalServerError, "Error exporting metrics")
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		log.Printf("write metrics: %v", err)
	}
}

func optionalInt(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
