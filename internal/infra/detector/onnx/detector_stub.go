//go:build !gocv
// +build !gocv

package onnx

import (
	"context"
	"errors"

	"github.com/SatvikDB/aegis/internal/domain/detect"
)

type Detector struct{}

// New returns the stub detector when the build lacks the gocv tag.
func New(modelPath, namesPath string, confidence, iou float64, maxDet int) (*Detector, error) {
	_ = modelPath
	_ = namesPath
	_ = confidence
	_ = iou
	_ = maxDet
	return &Detector{}, nil
}

func (d *Detector) Close() error { return nil }

// Ready reports that local inference is unavailable in this build.
func (d *Detector) Ready(ctx context.Context) error {
	_ = ctx
	return errors.New("gocv build tag is not enabled")
}

// Detect returns an error; rebuild with -tags gocv for local inference.
func (d *Detector) Detect(ctx context.Context, img []byte) (*detect.RawResult, error) {
	_ = ctx
	_ = img
	return nil, errors.New("gocv build tag is not enabled")
}
