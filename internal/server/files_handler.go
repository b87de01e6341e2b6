package server

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/topic-modeler/internal/compare"
	"github.com/topic-modeler/internal/parser"
	"github.com/topic-modeler/internal/table"
)

// fileInfo describes a file in the data directory
type fileInfo struct {
	Name    string `json:"name"`
	Size    int64  `json:"size"`
	ModTime string `json:"mod_time"`
}

// handleListFiles handles GET /api/files?type=csv|docx|reports
func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	kind := r.URL.Query().Get("type")
	if kind == "" {
		kind = "csv"
	}

	var match func(name string) bool
	switch kind {
	case "csv":
		match = func(name string) bool { return strings.EqualFold(filepath.Ext(name), ".csv") }
	case "docx":
		match = func(name string) bool { return strings.EqualFold(filepath.Ext(name), ".docx") }
	case "reports":
		match = parser.IsSupportedFile
	default:
		writeError(w, badRequest("unknown file type %q (want csv, docx or reports)", kind))
		return
	}

	entries, err := os.ReadDir(s.dataDir)
	if err != nil && !os.IsNotExist(err) {
		writeError(w, err)
		return
	}

	files := []fileInfo{}
	for _, e := range entries {
		if e.IsDir() || parser.IsTemporaryFile(e.Name()) || !match(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, fileInfo{Name: e.Name(), Size: info.Size(), ModTime: info.ModTime().UTC().Format("2006-01-02T15:04:05Z")})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })

	writeJSON(w, http.StatusOK, map[string]any{"type": kind, "files": files})
}

type convertRequest struct {
	Input  string `json:"input"`
	Output string `json:"output"`
}

// handleConvert handles POST /api/convert: report -> comment table
func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	var req convertRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Output == "" {
		req.Output = s.rawCommentsFile
	}

	in, err := s.resolve(req.Input)
	if err != nil {
		writeError(w, err)
		return
	}
	out, err := s.resolve(req.Output)
	if err != nil {
		writeError(w, err)
		return
	}

	comments, err := parser.ConvertFile(in, out)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"output":   req.Output,
		"comments": comments.Len(),
		"message":  "Conversion to CSV completed.",
	})
}

// handleSentences handles POST /api/sentences: comment table -> sentence table
func (s *Server) handleSentences(w http.ResponseWriter, r *http.Request) {
	var req convertRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Output == "" {
		req.Output = strings.TrimSuffix(req.Input, filepath.Ext(req.Input)) + "_sentences.csv"
	}

	in, err := s.resolve(req.Input)
	if err != nil {
		writeError(w, err)
		return
	}
	out, err := s.resolve(req.Output)
	if err != nil {
		writeError(w, err)
		return
	}

	comments, err := table.Load(in)
	if err != nil {
		writeError(w, &parser.FileAccessError{Path: req.Input, Err: err})
		return
	}
	sentences, err := parser.SplitSentences(comments)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := table.Save(out, sentences); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"output":    req.Output,
		"comments":  comments.Len(),
		"sentences": sentences.Len(),
	})
}

type compareRequest struct {
	FileA string `json:"file_a"`
	FileB string `json:"file_b"`
}

// handleCompare handles POST /api/compare. A file without a comment column
// yields the -1 sentinel and a 200, since comparison is diagnostic only.
func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	var req compareRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	a, err := s.resolve(req.FileA)
	if err != nil {
		writeError(w, err)
		return
	}
	b, err := s.resolve(req.FileB)
	if err != nil {
		writeError(w, err)
		return
	}

	pct, err := compare.Files(a, b)
	resp := map[string]any{"percentage": pct}
	if err != nil {
		var schemaErr *table.SchemaError
		if !errors.As(err, &schemaErr) {
			writeError(w, &parser.FileAccessError{Path: req.FileA + ", " + req.FileB, Err: err})
			return
		}
		resp["error"] = err.Error()
		resp["message"] = "Comparison failed: " + err.Error()
	} else {
		resp["message"] = compare.Message(pct)
	}

	if s.stores != nil {
		if _, rerr := s.stores.Comparisons.Record(r.Context(), req.FileA, req.FileB, pct); rerr != nil {
			writeError(w, rerr)
			return
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleComparisons handles GET /api/comparisons
func (s *Server) handleComparisons(w http.ResponseWriter, r *http.Request) {
	if s.stores == nil {
		writeJSON(w, http.StatusOK, map[string]any{"comparisons": []any{}})
		return
	}
	list, err := s.stores.Comparisons.List(r.Context(), queryInt(r, "limit", 20))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"comparisons": list})
}
