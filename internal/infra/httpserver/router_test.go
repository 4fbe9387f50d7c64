package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SatvikDB/aegis/internal/application"
	appanalyst "github.com/SatvikDB/aegis/internal/application/analyst"
	appanalytics "github.com/SatvikDB/aegis/internal/application/analytics"
	appdetect "github.com/SatvikDB/aegis/internal/application/detect"
	"github.com/SatvikDB/aegis/internal/domain/analytics"
	"github.com/SatvikDB/aegis/internal/domain/detect"
	"github.com/SatvikDB/aegis/internal/infra/eventlog/csvlog"
	"github.com/SatvikDB/aegis/internal/infra/sitrep/jsonstore"
)

type stubDetector struct{}

func (stubDetector) Detect(ctx context.Context, img []byte) (*detect.RawResult, error) {
	return &detect.RawResult{
		Detections: []detect.RawDetection{
			{X1: 10, Y1: 20, X2: 110, Y2: 220, Confidence: 0.9, ClassID: 0},
		},
		ClassNames:  map[int]string{0: "tank"},
		ImageWidth:  640,
		ImageHeight: 480,
	}, nil
}

func (stubDetector) Ready(ctx context.Context) error { return nil }

type stubAnnotator struct{}

func (stubAnnotator) Annotate(img []byte, detections []detect.Detection) ([]byte, error) {
	return []byte("jpeg"), nil
}

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	dir := t.TempDir()
	vocab := detect.NewVocabulary([]string{"tank"}, []string{"person"})
	eventLog := csvlog.New(filepath.Join(dir, "events.csv"))
	clock := application.SystemClock{}

	detectSvc := &appdetect.Service{
		Detector:     stubDetector{},
		Annotator:    stubAnnotator{},
		Vocab:        vocab,
		Log:          eventLog,
		Clock:        clock,
		UploadsDir:   filepath.Join(dir, "uploads"),
		AnnotatedDir: filepath.Join(dir, "annotated"),
	}
	analystSvc := &appanalyst.Service{
		Store: jsonstore.New(filepath.Join(dir, "store.json")),
		Clock: clock,
	}
	analyticsSvc := &appanalytics.Service{
		Log:    eventLog,
		Engine: analytics.Engine{Vocab: vocab},
		Clock:  clock,
	}

	return NewRouter(detectSvc, analystSvc, analyticsSvc, Options{
		MaxUploadMB: 4,
		AllowedExts: []string{".jpg", ".png"},
	})
}

func uploadRequest(t *testing.T, filename string, fields map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("image", filename)
	require.NoError(t, err)
	fw.Write([]byte("fake-image"))
	for k, v := range fields {
		w.WriteField(k, v)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/detect", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestDetectEndpoint(t *testing.T) {
	handler := newTestHandler(t)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, uploadRequest(t, "patrol.jpg", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		ScanID     string `json:"scan_id"`
		Detections []any  `json:"detections"`
		Threat     struct {
			Level string `json:"threat_level"`
		} `json:"threat"`
		Sitrep struct {
			Success bool   `json:"success"`
			Error   string `json:"error"`
		} `json:"sitrep"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	assert.NotEmpty(t, body.ScanID)
	assert.Len(t, body.Detections, 1)
	assert.Equal(t, "HIGH", body.Threat.Level)
	assert.False(t, body.Sitrep.Success)
	assert.Contains(t, body.Sitrep.Error, "disabled")
}

func TestDetectRejectsUnsupportedType(t *testing.T) {
	handler := newTestHandler(t)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, uploadRequest(t, "report.pdf", nil))
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestDetectRequiresImage(t *testing.T) {
	handler := newTestHandler(t)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	w.WriteField("latitude", "48.0")
	require.NoError(t, w.Close())
	req := httptest.NewRequest(http.MethodPost, "/detect", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDetectInvalidCoordinates(t *testing.T) {
	handler := newTestHandler(t)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, uploadRequest(t, "a.jpg", map[string]string{"latitude": "48.0"}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "together")
}

func TestLogsEndpoint(t *testing.T) {
	handler := newTestHandler(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, uploadRequest(t, "a.jpg", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/logs?limit=10", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Logs  []map[string]any `json:"logs"`
		Count int              `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Count)
	assert.Equal(t, "tank", body.Logs[0]["class_name"])
}

func TestDashboardEndpoint(t *testing.T) {
	handler := newTestHandler(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, uploadRequest(t, "a.jpg", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/dashboard-data", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var snap analytics.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, 1, snap.Summary.TotalScans)
	assert.Equal(t, 1, snap.Summary.TotalDetections)
	assert.Equal(t, "tank", snap.Summary.MostDetectedClass)
	assert.Equal(t, 1, snap.ThreatDistribution["HIGH"])
}

func TestExportCSVEndpoint(t *testing.T) {
	handler := newTestHandler(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, uploadRequest(t, "a.jpg", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/export-csv", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "detection_log.csv")

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "timestamp,image_filename,threat_level"))
	assert.Contains(t, lines[1], "tank")
}

func TestSitrepEndpointNotFound(t *testing.T) {
	handler := newTestHandler(t)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sitrep/ghost", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSitrepEndpointAfterScan(t *testing.T) {
	handler := newTestHandler(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, uploadRequest(t, "a.jpg", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var detectBody struct {
		ScanID string `json:"scan_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detectBody))

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sitrep/"+detectBody.ScanID, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, detectBody.ScanID, body["scan_id"])
	assert.NotNil(t, body["chat_history"])
}

func TestChatEndpointValidation(t *testing.T) {
	handler := newTestHandler(t)

	cases := []string{
		`{"message": "hello"}`,
		`{"scan_id": "x"}`,
		`{"scan_id": "x", "message": "  "}`,
	}
	for _, payload := range cases {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "payload %s", payload)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	handler := newTestHandler(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "requests_total")
}
