// Package httpapi talks to a remote inference server over HTTP. The
// server owns the model weights; this client ships the image and maps
// the response into raw detections.
package httpapi

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/SatvikDB/aegis/internal/domain/detect"
)

// Client implements detect.Detector against a JSON inference endpoint.
type Client struct {
	baseURL    string
	confidence float64
	httpClient *http.Client
}

func New(baseURL string, confidence float64, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		confidence: confidence,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type detectRequest struct {
	Image      string  `json:"image"`
	Confidence float64 `json:"confidence"`
}

type detectResponse struct {
	Width      int               `json:"width"`
	Height     int               `json:"height"`
	Detections []wireDetection   `json:"detections"`
	Names      map[string]string `json:"names"`
}

type wireDetection struct {
	X1         float64 `json:"x1"`
	Y1         float64 `json:"y1"`
	X2         float64 `json:"x2"`
	Y2         float64 `json:"y2"`
	Confidence float64 `json:"confidence"`
	ClassID    int     `json:"class_id"`
}

// Detect sends the image for inference and returns the raw result.
func (c *Client) Detect(ctx context.Context, img []byte) (*detect.RawResult, error) {
	body, err := json.Marshal(detectRequest{
		Image:      base64.StdEncoding.EncodeToString(img),
		Confidence: c.confidence,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding inference request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/detect", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling inference server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("inference server returned %d: %s", resp.StatusCode, data)
	}

	var wire detectResponse
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, fmt.Errorf("decoding inference response: %w", err)
	}

	out := &detect.RawResult{
		Detections:  make([]detect.RawDetection, 0, len(wire.Detections)),
		ClassNames:  make(map[int]string, len(wire.Names)),
		ImageWidth:  wire.Width,
		ImageHeight: wire.Height,
	}
	for _, d := range wire.Detections {
		out.Detections = append(out.Detections, detect.RawDetection{
			X1: d.X1, Y1: d.Y1, X2: d.X2, Y2: d.Y2,
			Confidence: d.Confidence,
			ClassID:    d.ClassID,
		})
	}
	for key, name := range wire.Names {
		id, err := strconv.Atoi(key)
		if err != nil {
			continue
		}
		out.ClassNames[id] = name
	}
	return out, nil
}

// Ready probes the inference server health endpoint.
func (c *Client) Ready(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("inference server unreachable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("inference server unhealthy: status %d", resp.StatusCode)
	}
	return nil
}
