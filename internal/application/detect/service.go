// Package detect wires one uploaded image through the full pipeline:
// inference, risk normalization, threat assessment, annotation and the
// append-only audit log.
package detect

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/SatvikDB/aegis/internal/application"
	domain "github.com/SatvikDB/aegis/internal/domain/detect"
	"github.com/SatvikDB/aegis/internal/domain/eventlog"
	"github.com/SatvikDB/aegis/internal/domain/geo"
	"github.com/SatvikDB/aegis/internal/domain/threat"
)

// ErrAuditGap signals that the scan completed and its report is valid,
// but the audit log append failed. Callers still get the Result.
var ErrAuditGap = errors.New("audit log append failed")

// ArtifactStore mirrors annotated images to object storage.
type ArtifactStore interface {
	UploadBytes(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// Service implements the detection use case. Safe for concurrent use.
type Service struct {
	Detector     domain.Detector
	Annotator    domain.Annotator
	Vocab        domain.Vocabulary
	Log          eventlog.Log
	Artifacts    ArtifactStore // optional
	Geocoder     geo.Geocoder  // optional
	Clock        application.Clock
	UploadsDir   string
	AnnotatedDir string
}

type Command struct {
	FileName  string
	Image     []byte
	Latitude  *float64
	Longitude *float64
}

type ImageSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type Result struct {
	ScanID         string             `json:"scan_id"`
	Timestamp      time.Time          `json:"timestamp"`
	ImageFilename  string             `json:"image_filename"`
	Detections     []domain.Detection `json:"detections"`
	Threat         threat.Report      `json:"threat"`
	ImageSize      ImageSize          `json:"image_size"`
	InferenceMS    float64            `json:"inference_ms"`
	AnnotatedImage string             `json:"annotated_image,omitempty"`
	AnnotatedURL   string             `json:"annotated_url,omitempty"`
	Location       *geo.Location      `json:"location,omitempty"`
}

// Detect runs the full pipeline for one image. Every scan appends at
// least one audit row; if that append fails the Result is still
// returned together with ErrAuditGap.
func (s *Service) Detect(ctx context.Context, cmd Command) (Result, error) {
	now := s.Clock.Now()
	scanID := uuid.New().String()
	storedName := scanID + "_" + sanitizeFileName(cmd.FileName)

	if err := s.saveUpload(storedName, cmd.Image); err != nil {
		return Result{}, err
	}

	start := time.Now()
	raw, err := s.Detector.Detect(ctx, cmd.Image)
	if err != nil {
		return Result{}, fmt.Errorf("running inference: %w", err)
	}
	inferenceMS := math.Round(float64(time.Since(start).Microseconds())/1000*10) / 10

	detections := domain.Normalize(raw, s.Vocab)
	report := threat.Assess(detections)

	result := Result{
		ScanID:        scanID,
		Timestamp:     now,
		ImageFilename: storedName,
		Detections:    detections,
		Threat:        report,
		ImageSize:     ImageSize{Width: raw.ImageWidth, Height: raw.ImageHeight},
		InferenceMS:   inferenceMS,
	}

	s.annotate(ctx, &result, cmd.Image, storedName, detections)
	s.resolveLocation(ctx, &result, cmd.Latitude, cmd.Longitude)

	rows := eventlog.BuildRows(now, storedName, report, detections, inferenceMS)
	if err := s.Log.Append(ctx, rows); err != nil {
		log.Error().Err(err).Str("scan_id", scanID).Msg("audit log append failed")
		return result, fmt.Errorf("%w: %v", ErrAuditGap, err)
	}

	log.Info().
		Str("scan_id", scanID).
		Str("threat_level", string(report.Level)).
		Int("detections", len(detections)).
		Float64("inference_ms", inferenceMS).
		Msg("scan complete")

	return result, nil
}

// Health probes the inference backend.
func (s *Service) Health(ctx context.Context) error {
	return s.Detector.Ready(ctx)
}

func (s *Service) saveUpload(storedName string, img []byte) error {
	if err := os.MkdirAll(s.UploadsDir, 0o755); err != nil {
		return fmt.Errorf("creating uploads directory: %w", err)
	}
	path := filepath.Join(s.UploadsDir, storedName)
	if err := os.WriteFile(path, img, 0o644); err != nil {
		return fmt.Errorf("saving upload: %w", err)
	}
	return nil
}

// annotate draws the overlay and persists it locally, plus object
// storage when configured. Annotation failure is not fatal; the audit
// trail matters more than the rendered image.
func (s *Service) annotate(ctx context.Context, result *Result, img []byte, storedName string, detections []domain.Detection) {
	annotated, err := s.Annotator.Annotate(img, detections)
	if err != nil {
		log.Warn().Err(err).Str("scan_id", result.ScanID).Msg("annotation failed")
		return
	}

	stem := strings.TrimSuffix(storedName, filepath.Ext(storedName))
	annotatedName := "annotated_" + stem + ".jpg"

	if err := os.MkdirAll(s.AnnotatedDir, 0o755); err != nil {
		log.Warn().Err(err).Msg("creating annotated directory failed")
		return
	}
	if err := os.WriteFile(filepath.Join(s.AnnotatedDir, annotatedName), annotated, 0o644); err != nil {
		log.Warn().Err(err).Msg("saving annotated image failed")
		return
	}
	result.AnnotatedImage = annotatedName

	if s.Artifacts != nil {
		url, err := s.Artifacts.UploadBytes(ctx, "annotated/"+annotatedName, annotated, "image/jpeg")
		if err != nil {
			log.Warn().Err(err).Msg("annotated image upload failed")
			return
		}
		result.AnnotatedURL = url
	}
}

func (s *Service) resolveLocation(ctx context.Context, result *Result, lat, lon *float64) {
	if lat == nil || lon == nil {
		return
	}
	if !geo.ValidCoordinates(*lat, *lon) {
		log.Warn().Float64("lat", *lat).Float64("lon", *lon).Msg("invalid coordinates ignored")
		return
	}
	name := geo.FormatCoordinates(*lat, *lon)
	if s.Geocoder != nil {
		name = s.Geocoder.ReverseGeocode(ctx, *lat, *lon)
	}
	loc := geo.NewLocation(*lat, *lon, name)
	result.Location = &loc
}

// sanitizeFileName strips path separators so stored names stay inside
// the uploads directory.
func sanitizeFileName(name string) string {
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, " ", "_")
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = "upload.jpg"
	}
	return name
}
