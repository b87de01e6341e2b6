package server

import (
	"net/http"
	"strconv"

	"github.com/topic-modeler/internal/topicmodel"
)

type trainRequest struct {
	Source   string `json:"source"`
	NrTopics int    `json:"nr_topics"`
}

// handleTrain handles POST /api/train. Training runs in the background; the
// response carries the run id and clients follow progress on /ws/status.
func (s *Server) handleTrain(w http.ResponseWriter, r *http.Request) {
	var req trainRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Source == "" {
		req.Source = s.rawCommentsFile
	}
	if req.NrTopics < 1 {
		writeError(w, badRequest("nr_topics must be at least 1"))
		return
	}

	source, err := s.resolve(req.Source)
	if err != nil {
		writeError(w, err)
		return
	}

	task, err := s.session.Train(r.Context(), source, req.NrTopics)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{
		"run_id": task.ID,
		"status": s.session.Status(),
	})
}

// handleStatus handles GET /api/status
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.session.Status())
}

// handleReset handles POST /api/reset
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := s.session.Reset(); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.session.Status())
}

// handleRuns handles GET /api/runs
func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if s.stores == nil {
		writeJSON(w, http.StatusOK, map[string]any{"runs": []any{}})
		return
	}
	runs, err := s.stores.Runs.List(r.Context(), queryInt(r, "limit", 20))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

// handleDetails handles GET /api/topics/details
func (s *Server) handleDetails(w http.ResponseWriter, r *http.Request) {
	details, err := s.session.Details()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, details)
}

// handleHierarchy handles GET /api/topics/hierarchy
func (s *Server) handleHierarchy(w http.ResponseWriter, r *http.Request) {
	fig, err := s.session.Hierarchy()
	if err != nil {
		writeError(w, err)
		return
	}
	writeFigure(w, r, fig)
}

// handleBarChart handles GET /api/topics/barchart
func (s *Server) handleBarChart(w http.ResponseWriter, r *http.Request) {
	fig, err := s.session.BarChart()
	if err != nil {
		writeError(w, err)
		return
	}
	writeFigure(w, r, fig)
}

// writeFigure renders HTML unless ?format=json is given.
func writeFigure(w http.ResponseWriter, r *http.Request, fig *topicmodel.Figure) {
	if r.URL.Query().Get("format") == "json" {
		writeJSON(w, http.StatusOK, fig)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := fig.WriteHTML(w); err != nil {
		writeError(w, err)
	}
}

type subsetRequest struct {
	Topics string `json:"topics"`
	Output string `json:"output"`
}

// handleSubset handles POST /api/subset with a comma-separated topic list
func (s *Server) handleSubset(w http.ResponseWriter, r *http.Request) {
	var req subsetRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	out, err := s.resolve(req.Output)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := s.session.ExportSelection(out, req.Topics); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"output":  req.Output,
		"message": "Subset CSV file saved.",
	})
}

func queryInt(r *http.Request, key string, def int) int {
	if v, err := strconv.Atoi(r.URL.Query().Get(key)); err == nil && v > 0 {
		return v
	}
	return def
}
