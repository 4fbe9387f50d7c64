package httpserver

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	appanalyst "github.com/SatvikDB/aegis/internal/application/analyst"
	appanalytics "github.com/SatvikDB/aegis/internal/application/analytics"
	appdetect "github.com/SatvikDB/aegis/internal/application/detect"
	domai "github.com/SatvikDB/aegis/internal/domain/ai"
	"github.com/SatvikDB/aegis/internal/domain/eventlog"
	"github.com/SatvikDB/aegis/internal/domain/sitrep"
	"github.com/SatvikDB/aegis/internal/middleware"
)

type Router struct {
	detectSvc    *appdetect.Service
	analystSvc   *appanalyst.Service
	analyticsSvc *appanalytics.Service
	maxUploadMB  int64
	allowedExts  map[string]struct{}
}

type Options struct {
	MaxUploadMB    int
	AllowedExts    []string
	HealthCheckers map[string]middleware.HealthChecker
	RateLimit      int // requests per second per client, 0 disables
}

func NewRouter(detectSvc *appdetect.Service, analystSvc *appanalyst.Service, analyticsSvc *appanalytics.Service, opts Options) http.Handler {
	allowed := make(map[string]struct{}, len(opts.AllowedExts))
	for _, ext := range opts.AllowedExts {
		allowed[strings.ToLower(ext)] = struct{}{}
	}
	if opts.MaxUploadMB <= 0 {
		opts.MaxUploadMB = 16
	}

	r := &Router{
		detectSvc:    detectSvc,
		analystSvc:   analystSvc,
		analyticsSvc: analyticsSvc,
		maxUploadMB:  int64(opts.MaxUploadMB),
		allowedExts:  allowed,
	}

	mux := chi.NewRouter()
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))
	mux.Use(middleware.LoggingMiddleware)
	mux.Use(middleware.MetricsMiddleware)
	if opts.RateLimit > 0 {
		mux.Use(middleware.RateLimitMiddleware(opts.RateLimit*2, opts.RateLimit))
	}

	mux.Get("/health", middleware.HealthHandler(opts.HealthCheckers))
	mux.Get("/metrics", middleware.MetricsHandler)

	mux.Post("/detect", r.wrap(r.handleDetect))
	mux.Get("/logs", r.wrap(r.handleLogs))

	mux.Route("/api", func(rt chi.Router) {
		rt.Get("/dashboard-data", r.wrap(r.handleDashboard))
		rt.Get("/export-csv", r.wrap(r.handleExportCSV))
		rt.Get("/sitrep/{scanID}", r.wrap(r.handleSitrep))
		rt.Post("/chat", r.wrap(r.handleChat))
	})

	return mux
}

// apiError carries an HTTP status for client-caused failures.
type apiError struct {
	status  int
	message string
}

func (e *apiError) Error() string { return e.message }

func badRequest(format string, args ...any) error {
	return &apiError{status: http.StatusBadRequest, message: fmt.Sprintf(format, args...)}
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			var ae *apiError
			if errors.As(err, &ae) {
				writeError(w, ae.status, ae.message)
				return
			}
			if errors.Is(err, sitrep.ErrNotFound) {
				writeError(w, http.StatusNotFound, "scan not found")
				return
			}
			if errors.Is(err, domai.ErrQuotaExceeded) {
				writeError(w, http.StatusTooManyRequests, "ai quota exceeded")
				return
			}
			writeError(w, http.StatusInternalServerError, err.Error())
		}
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

// POST /detect
// Multipart form: "image" file, optional "latitude"/"longitude" fields.
func (r *Router) handleDetect(w http.ResponseWriter, req *http.Request) error {
	req.Body = http.MaxBytesReader(w, req.Body, r.maxUploadMB<<20)
	if err := req.ParseMultipartForm(r.maxUploadMB << 20); err != nil {
		return badRequest("invalid multipart form: %v", err)
	}

	file, header, err := req.FormFile("image")
	if err != nil {
		return badRequest("missing image file")
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if _, ok := r.allowedExts[ext]; !ok {
		return &apiError{status: http.StatusUnsupportedMediaType,
			message: fmt.Sprintf("unsupported file type %q", ext)}
	}

	img, err := io.ReadAll(file)
	if err != nil {
		return badRequest("reading upload: %v", err)
	}
	if len(img) == 0 {
		return badRequest("empty image file")
	}

	cmd := appdetect.Command{FileName: header.Filename, Image: img}
	if lat, lon, ok, err := parseCoordinates(req); err != nil {
		return err
	} else if ok {
		cmd.Latitude = &lat
		cmd.Longitude = &lon
	}

	middleware.IncrementScans()
	result, err := r.detectSvc.Detect(req.Context(), cmd)
	if err != nil && !errors.Is(err, appdetect.ErrAuditGap) {
		middleware.IncrementScansFailed()
		return err
	}
	middleware.AddDetections(len(result.Detections))

	response := struct {
		appdetect.Result
		Sitrep     appanalyst.SitrepResult `json:"sitrep"`
		AuditError string                  `json:"audit_error,omitempty"`
	}{Result: result}

	response.Sitrep = r.analystSvc.GenerateAndStore(req.Context(),
		result.ScanID, result.Detections, result.Threat,
		result.ImageSize.Width, result.ImageSize.Height, result.InferenceMS)

	status := http.StatusOK
	if err != nil {
		// scan succeeded but the audit trail has a gap; surface it
		response.AuditError = err.Error()
		status = http.StatusInternalServerError
	}
	return writeJSON(w, status, response)
}

func parseCoordinates(req *http.Request) (lat, lon float64, ok bool, err error) {
	latStr := req.FormValue("latitude")
	lonStr := req.FormValue("longitude")
	if latStr == "" && lonStr == "" {
		return 0, 0, false, nil
	}
	if latStr == "" || lonStr == "" {
		return 0, 0, false, badRequest("latitude and longitude must be provided together")
	}
	lat, err = strconv.ParseFloat(latStr, 64)
	if err != nil {
		return 0, 0, false, badRequest("invalid latitude: %v", err)
	}
	lon, err = strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return 0, 0, false, badRequest("invalid longitude: %v", err)
	}
	return lat, lon, true, nil
}

// GET /logs?limit=50
func (r *Router) handleLogs(w http.ResponseWriter, req *http.Request) error {
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
	rows, err := r.analyticsSvc.Recent(req.Context(), limit)
	if err != nil {
		return err
	}
	if rows == nil {
		rows = []eventlog.Row{}
	}
	return writeJSON(w, http.StatusOK, map[string]any{"logs": rows, "count": len(rows)})
}

// GET /api/dashboard-data
func (r *Router) handleDashboard(w http.ResponseWriter, req *http.Request) error {
	snapshot := r.analyticsSvc.Dashboard(req.Context())
	return writeJSON(w, http.StatusOK, snapshot)
}

// GET /api/export-csv
func (r *Router) handleExportCSV(w http.ResponseWriter, req *http.Request) error {
	rows, err := r.analyticsSvc.Log.ReadAll(req.Context())
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="detection_log.csv"`)

	cw := csv.NewWriter(w)
	if err := cw.Write(eventlog.Columns); err != nil {
		return err
	}
	for _, row := range rows {
		record := []string{
			row.Timestamp.UTC().Format(eventlog.TimeFormat),
			row.ImageFilename,
			row.ThreatLevel,
			strconv.Itoa(row.TotalDetections),
			strconv.Itoa(row.HighRiskCount),
			row.ClassName,
			fmt.Sprintf("%.4f", row.Confidence),
			row.RiskLevel,
			strconv.Itoa(row.BoxX1),
			strconv.Itoa(row.BoxY1),
			strconv.Itoa(row.BoxX2),
			strconv.Itoa(row.BoxY2),
			strconv.FormatFloat(row.InferenceMS, 'f', -1, 64),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// GET /api/sitrep/{scanID}
func (r *Router) handleSitrep(w http.ResponseWriter, req *http.Request) error {
	scanID := chi.URLParam(req, "scanID")
	artifact, err := r.analystSvc.Artifact(req.Context(), scanID)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]any{
		"scan_id":      scanID,
		"sitrep":       artifact.Sitrep,
		"model":        artifact.Model,
		"tokens":       artifact.Tokens,
		"timestamp":    artifact.Timestamp,
		"chat_history": artifact.ChatHistory,
	})
}

// POST /api/chat
// Body: {"scan_id": "<id>", "message": "<question>"}
func (r *Router) handleChat(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		ScanID  string `json:"scan_id"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return badRequest("invalid request body: %v", err)
	}
	if body.ScanID == "" {
		return badRequest("scan_id is required")
	}
	if strings.TrimSpace(body.Message) == "" {
		return badRequest("message is required")
	}

	result, err := r.analystSvc.Chat(req.Context(), body.ScanID, body.Message)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, result)
}
