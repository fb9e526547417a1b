package server

import (
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/YuminosukeSato/edaml/dataset"
	"github.com/YuminosukeSato/edaml/internal/store"
	"github.com/YuminosukeSato/edaml/mltask"
	"github.com/YuminosukeSato/edaml/pkg/errors"
	"github.com/YuminosukeSato/edaml/pkg/log"
	"github.com/YuminosukeSato/edaml/plotting"
	"github.com/YuminosukeSato/edaml/profiler"
)

// DatasetInfo describes a stored dataset.
type DatasetInfo struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Columns  []string  `json:"columns"`
	Rows     int       `json:"rows"`
	Uploaded time.Time `json:"uploaded"`

	// Features are the columns a prediction request must carry, each as
	// an X_ field.
	Features []string `json:"features,omitempty"`
}

// ReportItem is a rendered chart or table. Data is base64 in JSON.
type ReportItem struct {
	Title string        `json:"title"`
	Kind  plotting.Kind `json:"kind"`
	MIME  string        `json:"mime"`
	Data  []byte        `json:"data"`
}

// ReportSection groups report items.
type ReportSection struct {
	Name  string       `json:"name"`
	Items []ReportItem `json:"items"`
}

// Report is the body of GET /datasets/{id}/report.
type Report struct {
	ID       string          `json:"id"`
	Sections []ReportSection `json:"sections"`
}

type errorBody struct {
	Error string `json:"error"`
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) models(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]mltask.ModelName{"models": mltask.Models()})
}

func (s *Server) listDatasets(w http.ResponseWriter, _ *http.Request) {
	entries := s.store.List()
	out := make([]DatasetInfo, len(entries))
	for i, e := range entries {
		out[i] = info(e)
	}
	writeJSON(w, http.StatusOK, map[string][]DatasetInfo{"datasets": out})
}

// upload reads a CSV from the csv_file (or file) multipart field, cleans it
// and stores it.
func (s *Server) upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Server.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.cfg.Server.MaxUploadBytes); err != nil {
		s.fail(w, http.StatusBadRequest, "invalid upload", err)
		return
	}

	file, name, err := csvFile(r)
	if err != nil {
		s.fail(w, http.StatusBadRequest, "Send a .csv file.", err)
		return
	}
	defer file.Close()

	ds, err := readDataset(file)
	if err != nil {
		s.fail(w, http.StatusBadRequest, err.Error(), err)
		return
	}

	e := s.store.Put(name, ds)
	s.logger.Info("dataset uploaded",
		log.DatasetIDKey, e.ID,
		log.SamplesKey, ds.NRows(),
		log.FeaturesKey, ds.NCols(),
	)
	writeJSON(w, http.StatusCreated, info(e))
}

func csvFile(r *http.Request) (multipart.File, string, error) {
	for _, field := range []string{"csv_file", "file"} {
		f, h, err := r.FormFile(field)
		if err == nil {
			return f, h.Filename, nil
		}
		if !errors.Is(err, http.ErrMissingFile) {
			return nil, "", err
		}
	}
	return nil, "", http.ErrMissingFile
}

func readDataset(r io.Reader) (*dataset.Dataset, error) {
	raw, err := dataset.ReadCSV(r)
	if err != nil {
		return nil, err
	}
	return dataset.Clean(raw)
}

func (s *Server) describe(w http.ResponseWriter, r *http.Request) {
	e, ok := s.entry(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, info(e))
}

func (s *Server) report(w http.ResponseWriter, r *http.Request) {
	e, ok := s.entry(w, r)
	if !ok {
		return
	}

	start := time.Now()
	rep := profiler.NewFromDataset(e.Data, s.profilerOptions()...).Report()
	s.logger.Info("report generated",
		log.DatasetIDKey, e.ID,
		log.PhaseKey, log.PhaseProfiling,
		"items", rep.Len(),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)

	out := Report{ID: e.ID, Sections: make([]ReportSection, 0, len(rep.Sections))}
	for _, sec := range rep.Sections {
		rs := ReportSection{Name: sec.Name, Items: make([]ReportItem, 0, len(sec.Items))}
		for _, it := range sec.Items {
			rs.Items = append(rs.Items, ReportItem{
				Title: it.Title,
				Kind:  it.Artifact.Kind,
				MIME:  it.Artifact.MIME,
				Data:  it.Artifact.Data,
			})
		}
		out.Sections = append(out.Sections, rs)
	}
	writeJSON(w, http.StatusOK, out)
}

// runModel evaluates the selected model on the dataset. Hyperparameters
// come from hp_ fields and the prediction row from X_ fields.
func (s *Server) runModel(w http.ResponseWriter, r *http.Request) {
	e, ok := s.entry(w, r)
	if !ok {
		return
	}
	if err := r.ParseMultipartForm(s.cfg.Server.MaxUploadBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		s.fail(w, http.StatusBadRequest, "invalid form", err)
		return
	}

	name := strings.TrimSpace(r.PostFormValue("model"))
	if name == "" {
		writeJSON(w, http.StatusOK, mltask.Result{Output: "Model not selected."})
		return
	}

	params := make(map[string]string)
	fields := make(map[string]string)
	for k, v := range r.PostForm {
		if len(v) == 0 {
			continue
		}
		if hp, ok := strings.CutPrefix(k, s.cfg.ML.HyperPrefix); ok {
			params[hp] = v[0]
		}
		fields[k] = v[0]
	}

	res := mltask.Run(e.Data, mltask.ModelName(name), params, fields,
		mltask.Action(r.PostFormValue("action")), s.mlOptions()...)
	if res.Err != nil {
		s.logger.Warn("model run failed", log.DatasetIDKey, e.ID, log.ModelNameKey, name, "error", res.Err)
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) entry(w http.ResponseWriter, r *http.Request) (*store.Entry, bool) {
	id := chi.URLParam(r, "id")
	e, ok := s.store.Get(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "dataset not found"})
	}
	return e, ok
}

func (s *Server) fail(w http.ResponseWriter, status int, msg string, err error) {
	s.logger.Warn(msg, "status", status, "error", err)
	writeJSON(w, status, errorBody{Error: msg})
}

func info(e *store.Entry) DatasetInfo {
	names := e.Data.Names()
	var features []string
	if len(names) > 1 {
		features = names[:len(names)-1]
	}
	return DatasetInfo{
		ID:       e.ID,
		Name:     e.Name,
		Columns:  names,
		Rows:     e.Data.NRows(),
		Uploaded: e.Uploaded,
		Features: features,
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
