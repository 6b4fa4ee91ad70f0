package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image/color"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"
)

// cardRecognizer stands in for the OCR engine so the HTTP flow can be tested
// without tesseract or a provider account.
type cardRecognizer struct{ text string }

func (c cardRecognizer) RecognizeText(ctx context.Context, jpeg []byte) (string, error) {
	return c.text, nil
}

// helper to perform requests with auth token
func performRequest(r http.Handler, method, path string, body io.Reader, token string, contentType string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func setupTestServer(t *testing.T) *gin.Engine {
	requireTestDB(t)
	gin.SetMode(gin.TestMode)
	tmp := t.TempDir()
	_ = os.Setenv("UPLOAD_BASE", tmp)
	jwtSecret = []byte("test-secret")
	recognizer = cardRecognizer{text: "STUDENT ID CARD\nName: Jane Smith\nID: 12345678"}
	r := gin.Default()
	setupRoutes(r)
	return r
}

func login(t *testing.T, r *gin.Engine) string {
	regBody, _ := json.Marshal(map[string]string{"username": "scanner1", "password": "pass123"})
	resp := performRequest(r, http.MethodPost, "/register", bytes.NewBuffer(regBody), "", "application/json")
	if resp.Code != 200 && resp.Code != 409 {
		t.Fatalf("register failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	resp = performRequest(r, http.MethodPost, "/login", bytes.NewBuffer(regBody), "", "application/json")
	if resp.Code != 200 {
		t.Fatalf("login failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	var loginResp map[string]any
	_ = json.Unmarshal(resp.Body.Bytes(), &loginResp)
	token, _ := loginResp["token"].(string)
	if token == "" {
		t.Fatalf("empty token in login response: %+v", loginResp)
	}
	return token
}

func TestScanAndRecordFlow(t *testing.T) {
	r := setupTestServer(t)
	token := login(t, r)

	// 1. Create event
	evBody, _ := json.Marshal(map[string]string{"name": "Open Day", "venue": "Main Hall"})
	resp := performRequest(r, http.MethodPost, "/events", bytes.NewBuffer(evBody), token, "application/json")
	if resp.Code != 200 {
		t.Fatalf("create event failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	var evResp map[string]any
	_ = json.Unmarshal(resp.Body.Bytes(), &evResp)
	evID := fmt.Sprintf("%.0f", evResp["id"].(float64))

	// 2. Import an event exclusion list (plain text, one name per line)
	resp = performRequest(r, http.MethodPost, "/events/"+evID+"/exclusions", bytes.NewBufferString("Barred Person\n"), token, "text/plain")
	if resp.Code != 200 {
		t.Fatalf("import exclusions failed status=%d body=%s", resp.Code, resp.Body.String())
	}

	// 3. Scan a photo (multipart with crop geometry)
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	for k, v := range map[string]string{
		"screen_w": "400", "screen_h": "800",
		"guide_x": "20", "guide_y": "100", "guide_w": "360", "guide_h": "220",
	} {
		_ = mw.WriteField(k, v)
	}
	w, _ := mw.CreateFormFile("photo", "card.jpg")
	img := imaging.New(1600, 3200, color.NRGBA{255, 255, 255, 255})
	_ = imaging.Encode(w, img, imaging.JPEG)
	_ = mw.Close()
	resp = performRequest(r, http.MethodPost, "/events/"+evID+"/scan", buf, token, mw.FormDataContentType())
	if resp.Code != 200 {
		t.Fatalf("scan failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	var scanResp struct {
		Result struct {
			Identifier string `json:"identifier"`
			Name       string `json:"name"`
		} `json:"result"`
		Blocked bool `json:"blocked"`
	}
	_ = json.Unmarshal(resp.Body.Bytes(), &scanResp)
	if scanResp.Result.Identifier != "12345678" || scanResp.Result.Name != "Name: Jane Smith" {
		t.Fatalf("unexpected scan result: %+v", scanResp)
	}
	if scanResp.Blocked {
		t.Fatalf("Jane Smith should not be blocked")
	}

	// 4. Record attendance
	recBody, _ := json.Marshal(map[string]string{"subject_identifier": "12345678", "subject_name": "Jane Smith"})
	resp = performRequest(r, http.MethodPost, "/events/"+evID+"/attendance", bytes.NewBuffer(recBody), token, "application/json")
	if resp.Code != 200 {
		t.Fatalf("record failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	var recResp map[string]any
	_ = json.Unmarshal(resp.Body.Bytes(), &recResp)
	if synced, _ := recResp["counter_synced"].(bool); !synced {
		t.Fatalf("counter not synced: %+v", recResp)
	}

	// 5. Excluded name is a hard stop
	blockedBody, _ := json.Marshal(map[string]string{"subject_identifier": "555", "subject_name": "barred person"})
	resp = performRequest(r, http.MethodPost, "/events/"+evID+"/attendance", bytes.NewBuffer(blockedBody), token, "application/json")
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for excluded name got %d body=%s", resp.Code, resp.Body.String())
	}

	// 6. Counter reflects exactly the successful record
	resp = performRequest(r, http.MethodGet, "/events/"+evID+"/meta", nil, token, "")
	if resp.Code != 200 {
		t.Fatalf("meta failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	var metaResp map[string]any
	_ = json.Unmarshal(resp.Body.Bytes(), &metaResp)
	if total, _ := metaResp["total_attendees"].(float64); total != 1 {
		t.Fatalf("expected total_attendees 1 got %v", metaResp)
	}

	// 7. List attendance
	resp = performRequest(r, http.MethodGet, "/events/"+evID+"/attendance", nil, token, "")
	if resp.Code != 200 {
		t.Fatalf("list attendance failed status=%d body=%s", resp.Code, resp.Body.String())
	}

	// 8. Unauthorized access to protected endpoint should be 401
	unauth := performRequest(r, http.MethodGet, "/events", nil, "", "")
	if unauth.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for unauthorized list events got %d", unauth.Code)
	}
}

func TestScanNothingExtracted(t *testing.T) {
	r := setupTestServer(t)
	token := login(t, r)
	recognizer = cardRecognizer{text: ""}

	evBody, _ := json.Marshal(map[string]string{"name": "Empty Scan"})
	resp := performRequest(r, http.MethodPost, "/events", bytes.NewBuffer(evBody), token, "application/json")
	if resp.Code != 200 {
		t.Fatalf("create event failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	var evResp map[string]any
	_ = json.Unmarshal(resp.Body.Bytes(), &evResp)
	evID := fmt.Sprintf("%.0f", evResp["id"].(float64))

	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	for k, v := range map[string]string{
		"screen_w": "400", "screen_h": "800",
		"guide_x": "0", "guide_y": "0", "guide_w": "400", "guide_h": "800",
	} {
		_ = mw.WriteField(k, v)
	}
	w, _ := mw.CreateFormFile("photo", "blank.jpg")
	img := imaging.New(800, 1600, color.NRGBA{255, 255, 255, 255})
	_ = imaging.Encode(w, img, imaging.JPEG)
	_ = mw.Close()
	resp = performRequest(r, http.MethodPost, "/events/"+evID+"/scan", buf, token, mw.FormDataContentType())
	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for empty extraction got %d body=%s", resp.Code, resp.Body.String())
	}
}
