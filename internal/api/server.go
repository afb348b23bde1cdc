// Package api serves wall scan reconstruction and the saved scan store
// over HTTP.
package api

import (
	"bytes"
	"database/sql"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/plastermate/internal/config"
	"github.com/banshee-data/plastermate/internal/db"
	"github.com/banshee-data/plastermate/internal/httputil"
	"github.com/banshee-data/plastermate/internal/version"
	"github.com/banshee-data/plastermate/internal/wallscan"
	"github.com/banshee-data/plastermate/internal/wallscan/render"
	"github.com/banshee-data/plastermate/internal/wallscan/synthetic"
)

// DefaultMaxScanBytes caps request bodies carrying scan text.
const DefaultMaxScanBytes = 8 << 20

// DefaultTitle is used when a request does not name its heatmap.
const DefaultTitle = "Wall Deviation (mm)"

// PNG output size for ?format=png.
const (
	pngWidth  = 8 * vg.Inch
	pngHeight = 4 * vg.Inch
)

// ScanStore is the saved scan persistence the server depends on.
// *db.SavedScanStore implements it.
type ScanStore interface {
	Save(name string, hm *render.Heatmap) (*db.SavedScan, error)
	Get(name string) (*db.SavedScan, error)
	List() ([]*db.SavedScan, error)
	Delete(name string) error
	NextDefaultName() (string, error)
}

type Server struct {
	store        ScanStore
	cfg          wallscan.Config
	maxScanBytes int64
	seed         func() int64
}

// NewServer returns a server that reconstructs with cfg and saves into store.
func NewServer(store ScanStore, cfg wallscan.Config) *Server {
	return &Server{
		store:        store,
		cfg:          cfg,
		maxScanBytes: DefaultMaxScanBytes,
		seed:         func() int64 { return time.Now().UnixNano() },
	}
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /reconstruct", s.handleReconstruct)
	mux.HandleFunc("POST /scans", s.handleSaveScan)
	mux.HandleFunc("GET /scans", s.handleListScans)
	mux.HandleFunc("GET /next-scan-name", s.handleNextName)
	mux.HandleFunc("GET /scans/{name}", s.handleGetScan)
	mux.HandleFunc("DELETE /scans/{name}", s.handleDeleteScan)
	mux.HandleFunc("GET /synthetic", s.handleSynthetic)
	mux.HandleFunc("GET /version", s.handleVersion)
	return mux
}

// ReconstructResponse is the JSON body of a successful reconstruction.
type ReconstructResponse struct {
	Heatmap  *render.Heatmap    `json:"heatmap"`
	Warnings []wallscan.Warning `json:"warnings"`
	Stats    wallscan.Stats     `json:"stats"`
	Baseline string             `json:"baseline"`
}

// SaveResponse is the JSON body of POST /scans.
type SaveResponse struct {
	Scan     *db.SavedScan      `json:"scan"`
	Warnings []wallscan.Warning `json:"warnings"`
	Stats    wallscan.Stats     `json:"stats"`
}

// ScanSummary lists a saved scan without its heatmap values.
type ScanSummary struct {
	ScanID           string `json:"scan_id"`
	Name             string `json:"name"`
	Title            string `json:"title"`
	CreatedUnixNanos int64  `json:"created_unix_nanos"`
	UpdatedUnixNanos int64  `json:"updated_unix_nanos"`
}

func (s *Server) reconstruct(w http.ResponseWriter, r *http.Request) (*wallscan.Result, bool) {
	res, err := wallscan.ReconstructReader(http.MaxBytesReader(w, r.Body, s.maxScanBytes), s.cfg)
	if err != nil {
		s.writeReconstructError(w, err)
		return nil, false
	}
	return res, true
}

func (s *Server) writeReconstructError(w http.ResponseWriter, err error) {
	var malformed *wallscan.MalformedInputError
	var tooLarge *http.MaxBytesError
	var cfgErr *config.ConfigurationError
	switch {
	case errors.As(err, &malformed):
		httputil.WriteError(w, http.StatusBadRequest, httputil.ErrorBody{Error: malformed.Error(), Line: malformed.LineNumber})
	case errors.Is(err, wallscan.ErrEmptyScan):
		httputil.BadRequest(w, err.Error())
	case errors.As(err, &tooLarge):
		httputil.WriteJSONError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("scan exceeds %d bytes", tooLarge.Limit))
	case errors.As(err, &cfgErr):
		httputil.WriteError(w, http.StatusInternalServerError, httputil.ErrorBody{Error: cfgErr.Error(), Field: cfgErr.Field})
	default:
		httputil.InternalServerError(w, err.Error())
	}
}

func titleFrom(r *http.Request) string {
	if t := r.URL.Query().Get("title"); t != "" {
		return t
	}
	return DefaultTitle
}

func (s *Server) handleReconstruct(w http.ResponseWriter, r *http.Request) {
	res, ok := s.reconstruct(w, r)
	if !ok {
		return
	}
	hm := render.Assemble(res, titleFrom(r))
	if format := r.URL.Query().Get("format"); format != "" && format != "json" {
		s.writeHeatmap(w, format, hm)
		return
	}
	httputil.WriteJSONOK(w, ReconstructResponse{
		Heatmap:  hm,
		Warnings: nonNilWarnings(res.Warnings),
		Stats:    res.Stats,
		Baseline: res.Baseline.String(),
	})
}

func (s *Server) handleSaveScan(w http.ResponseWriter, r *http.Request) {
	res, ok := s.reconstruct(w, r)
	if !ok {
		return
	}
	saved, err := s.store.Save(r.URL.Query().Get("name"), render.Assemble(res, titleFrom(r)))
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to save scan: %v", err))
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, SaveResponse{
		Scan:     saved,
		Warnings: nonNilWarnings(res.Warnings),
		Stats:    res.Stats,
	})
}

func (s *Server) handleListScans(w http.ResponseWriter, r *http.Request) {
	scans, err := s.store.List()
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to list scans: %v", err))
		return
	}
	summaries := make([]ScanSummary, 0, len(scans))
	for _, sc := range scans {
		summaries = append(summaries, ScanSummary{
			ScanID:           sc.ScanID,
			Name:             sc.Name,
			Title:            sc.Heatmap.Title,
			CreatedUnixNanos: sc.CreatedUnixNanos,
			UpdatedUnixNanos: sc.UpdatedUnixNanos,
		})
	}
	httputil.WriteJSONOK(w, summaries)
}

func (s *Server) handleNextName(w http.ResponseWriter, r *http.Request) {
	name, err := s.store.NextDefaultName()
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	httputil.WriteJSONOK(w, map[string]string{"name": name})
}

func (s *Server) handleGetScan(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	saved, err := s.store.Get(name)
	if errors.Is(err, sql.ErrNoRows) {
		httputil.NotFound(w, fmt.Sprintf("no saved scan named %q", name))
		return
	}
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	if format := r.URL.Query().Get("format"); format != "" && format != "json" {
		s.writeHeatmap(w, format, saved.Heatmap)
		return
	}
	httputil.WriteJSONOK(w, saved)
}

func (s *Server) handleDeleteScan(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	err := s.store.Delete(name)
	if errors.Is(err, sql.ErrNoRows) {
		httputil.NotFound(w, fmt.Sprintf("no saved scan named %q", name))
		return
	}
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSynthetic(w http.ResponseWriter, r *http.Request) {
	seed := s.seed()
	if v := r.URL.Query().Get("seed"); v != "" {
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			httputil.BadRequest(w, fmt.Sprintf("invalid seed %q", v))
			return
		}
		seed = parsed
	}
	hm, err := synthetic.Surface(synthetic.DefaultSurfaceConfig(), rand.New(rand.NewSource(seed)))
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	if format := r.URL.Query().Get("format"); format != "" && format != "json" {
		s.writeHeatmap(w, format, hm)
		return
	}
	httputil.WriteJSONOK(w, hm)
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSONOK(w, version.Get())
}

// writeHeatmap renders hm as html or png.
func (s *Server) writeHeatmap(w http.ResponseWriter, format string, hm *render.Heatmap) {
	var buf bytes.Buffer
	switch format {
	case "html":
		if err := render.RenderHTML(&buf, hm); err != nil {
			httputil.InternalServerError(w, err.Error())
			return
		}
		httputil.WriteContent(w, "text/html; charset=utf-8", buf.Bytes())
	case "png":
		if err := render.WritePNG(&buf, hm, pngWidth, pngHeight); err != nil {
			httputil.InternalServerError(w, err.Error())
			return
		}
		httputil.WriteContent(w, "image/png", buf.Bytes())
	default:
		httputil.BadRequest(w, fmt.Sprintf("unknown format %q (want json, html or png)", format))
	}
}

func nonNilWarnings(ws []wallscan.Warning) []wallscan.Warning {
	if ws == nil {
		return []wallscan.Warning{}
	}
	return ws
}
