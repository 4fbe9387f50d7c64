package detect

import "context"

// RawDetection is one instance as reported by the model, before
// normalization. Coordinates are in source-image pixels.
type RawDetection struct {
	X1, Y1, X2, Y2 float64
	Confidence     float64
	ClassID        int
}

// RawResult is the opaque detector output for one image.
type RawResult struct {
	Detections  []RawDetection
	ClassNames  map[int]string
	ImageWidth  int
	ImageHeight int
}

// Detector port (interface for the external inference collaborator).
type Detector interface {
	Detect(ctx context.Context, image []byte) (*RawResult, error)
	Ready(ctx context.Context) error
}

// Annotator port: renders detections onto a copy of the source image.
// The source bytes must not be mutated.
type Annotator interface {
	Annotate(image []byte, detections []Detection) ([]byte, error)
}
