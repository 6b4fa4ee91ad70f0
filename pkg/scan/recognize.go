package scan

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// TextRecognizer turns a captured (already cropped) JPEG into raw text.
// Implementations are opaque OCR engines; the pipeline never inspects more
// than the returned text.
type TextRecognizer interface {
	RecognizeText(ctx context.Context, jpeg []byte) (string, error)
}

// RemoteRecognizer calls a hosted text-detection API. The request carries the
// image base64-encoded together with a TEXT_DETECTION feature; the response is
// expected to expose responses[0].fullTextAnnotation.text. A response without
// that field means the provider saw no text, which is not an error.
type RemoteRecognizer struct {
	Endpoint string
	APIKey   string
	Client   *http.Client
}

func NewRemoteRecognizer(endpoint, apiKey string) *RemoteRecognizer {
	return &RemoteRecognizer{
		Endpoint: endpoint,
		APIKey:   apiKey,
		Client:   &http.Client{Timeout: 30 * time.Second},
	}
}

type visionImage struct {
	Content string `json:"content"`
}

type visionFeature struct {
	Type string `json:"type"`
}

type visionAnnotateRequest struct {
	Image    visionImage     `json:"image"`
	Features []visionFeature `json:"features"`
}

type visionRequest struct {
	Requests []visionAnnotateRequest `json:"requests"`
}

type visionAnnotation struct {
	Text string `json:"text"`
}

type visionAnnotateResponse struct {
	FullTextAnnotation *visionAnnotation `json:"fullTextAnnotation"`
}

type visionResponse struct {
	Responses []visionAnnotateResponse `json:"responses"`
}

func (r *RemoteRecognizer) RecognizeText(ctx context.Context, jpeg []byte) (string, error) {
	req := visionRequest{Requests: []visionAnnotateRequest{{
		Image:    visionImage{Content: base64.StdEncoding.EncodeToString(jpeg)},
		Features: []visionFeature{{Type: "TEXT_DETECTION"}},
	}}}
	body, err := json.Marshal(req)
	if err != nil {
		return "", err
	}
	url := r.Endpoint
	if r.APIKey != "" {
		url += "?key=" + r.APIKey
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	resp, err := r.Client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("ocr request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("ocr provider status %d: %s", resp.StatusCode, b)
	}
	var vr visionResponse
	if err := json.NewDecoder(resp.Body).Decode(&vr); err != nil {
		return "", fmt.Errorf("ocr response decode: %w", err)
	}
	if len(vr.Responses) == 0 || vr.Responses[0].FullTextAnnotation == nil {
		return "", nil
	}
	return vr.Responses[0].FullTextAnnotation.Text, nil
}

// RecognizeLines runs the recognizer and normalizes its output. A failed OCR
// call degrades to zero lines so the caller always reaches the same
// "nothing extracted, try again" outcome instead of a hard pipeline error.
func RecognizeLines(ctx context.Context, rec TextRecognizer, jpeg []byte) []string {
	text, err := rec.RecognizeText(ctx, jpeg)
	if err != nil {
		log.Printf("OCR call failed, degrading to empty text: %v", err)
		return nil
	}
	return NormalizeLines(text)
}
