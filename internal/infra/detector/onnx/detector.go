//go:build gocv
// +build gocv

// Package onnx runs local inference through OpenCV's DNN module. It is
// compiled only with the gocv build tag; default builds use the stub
// twin and rely on the HTTP inference backend instead.
package onnx

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"image"
	"os"

	"gocv.io/x/gocv"

	"github.com/SatvikDB/aegis/internal/domain/detect"
)

const inputSize = 640

type Detector struct {
	net        gocv.Net
	classNames map[int]string
	confidence float64
	iou        float64
	maxDet     int
}

// New loads the ONNX model and its class-name list (one name per line).
func New(modelPath, namesPath string, confidence, iou float64, maxDet int) (*Detector, error) {
	net := gocv.ReadNetFromONNX(modelPath)
	if net.Empty() {
		return nil, fmt.Errorf("loading onnx model %s failed", modelPath)
	}
	names, err := loadClassNames(namesPath)
	if err != nil {
		net.Close()
		return nil, err
	}
	if maxDet <= 0 {
		maxDet = 100
	}
	return &Detector{
		net:        net,
		classNames: names,
		confidence: confidence,
		iou:        iou,
		maxDet:     maxDet,
	}, nil
}

func (d *Detector) Close() error {
	return d.net.Close()
}

// Ready reports whether the network is loaded.
func (d *Detector) Ready(ctx context.Context) error {
	_ = ctx
	if d.net.Empty() {
		return errors.New("onnx network not loaded")
	}
	return nil
}

// Detect decodes the image, runs the network at 640x640 and maps the
// kept boxes back to source-image coordinates.
func (d *Detector) Detect(ctx context.Context, img []byte) (*detect.RawResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mat, err := gocv.IMDecode(img, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	defer mat.Close()
	if mat.Empty() {
		return nil, errors.New("empty image")
	}

	srcW, srcH := mat.Cols(), mat.Rows()

	blob := gocv.BlobFromImage(mat, 1.0/255.0,
		image.Pt(inputSize, inputSize), gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.net.SetInput(blob, "")
	output := d.net.Forward("")
	defer output.Close()

	boxes, scores, classIDs := decodeOutput(output, d.confidence)

	kept := gocv.NMSBoxes(boxes, scores, float32(d.confidence), float32(d.iou))
	if len(kept) > d.maxDet {
		kept = kept[:d.maxDet]
	}

	scaleX := float64(srcW) / inputSize
	scaleY := float64(srcH) / inputSize

	out := &detect.RawResult{
		Detections:  make([]detect.RawDetection, 0, len(kept)),
		ClassNames:  d.classNames,
		ImageWidth:  srcW,
		ImageHeight: srcH,
	}
	for _, idx := range kept {
		b := boxes[idx]
		out.Detections = append(out.Detections, detect.RawDetection{
			X1:         float64(b.Min.X) * scaleX,
			Y1:         float64(b.Min.Y) * scaleY,
			X2:         float64(b.Max.X) * scaleX,
			Y2:         float64(b.Max.Y) * scaleY,
			Confidence: float64(scores[idx]),
			ClassID:    classIDs[idx],
		})
	}
	return out, nil
}

// decodeOutput parses the [1, 4+nc, anchors] tensor: per anchor a box
// center plus one score per class.
func decodeOutput(output gocv.Mat, confThreshold float64) ([]image.Rectangle, []float32, []int) {
	dims := output.Size()
	if len(dims) != 3 {
		return nil, nil, nil
	}
	rows := dims[1]    // 4 + num classes
	anchors := dims[2] // candidate boxes

	var boxes []image.Rectangle
	var scores []float32
	var classIDs []int

	for a := 0; a < anchors; a++ {
		bestScore := float32(0)
		bestClass := 0
		for c := 4; c < rows; c++ {
			s := output.GetFloatAt3(0, c, a)
			if s > bestScore {
				bestScore = s
				bestClass = c - 4
			}
		}
		if float64(bestScore) < confThreshold {
			continue
		}

		cx := output.GetFloatAt3(0, 0, a)
		cy := output.GetFloatAt3(0, 1, a)
		w := output.GetFloatAt3(0, 2, a)
		h := output.GetFloatAt3(0, 3, a)

		boxes = append(boxes, image.Rect(
			int(cx-w/2), int(cy-h/2),
			int(cx+w/2), int(cy+h/2)))
		scores = append(scores, bestScore)
		classIDs = append(classIDs, bestClass)
	}
	return boxes, scores, classIDs
}

func loadClassNames(path string) (map[int]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening class names %s: %w", path, err)
	}
	defer f.Close()

	names := make(map[int]string)
	scanner := bufio.NewScanner(f)
	i := 0
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		names[i] = line
		i++
	}
	return names, scanner.Err()
}
