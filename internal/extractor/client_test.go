package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/jpeg"
	"net/http"
	"net/http/httptest"
	"testing"
)

// testJPEG encodes a small solid image so the resize path has real data.
func testJPEG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

func faceServer(t *testing.T, response FaceResponse) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embed/face" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method: %s", r.Method)
		}
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			t.Errorf("failed to parse multipart form: %v", err)
		}
		if _, _, err := r.FormFile("file"); err != nil {
			t.Errorf("expected a file part: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	}))
}

func TestExtractFaces_SingleFace(t *testing.T) {
	server := faceServer(t, FaceResponse{
		FacesCount: 1,
		Faces: []FaceDetection{
			{FaceIndex: 0, Dim: 4, Embedding: []float32{0.1, 0.2, 0.3, 0.4}, DetScore: 0.99},
		},
		Model: "buffalo_l",
	})
	defer server.Close()

	client := NewClient(server.URL)
	embeddings, err := client.ExtractFaces(context.Background(), testJPEG(t, 64, 48))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(embeddings) != 1 {
		t.Fatalf("expected 1 embedding, got %d", len(embeddings))
	}
	if len(embeddings[0]) != 4 || embeddings[0][0] != 0.1 {
		t.Errorf("unexpected embedding: %v", embeddings[0])
	}
}

func TestExtractFaces_NoFaces(t *testing.T) {
	server := faceServer(t, FaceResponse{FacesCount: 0, Model: "buffalo_l"})
	defer server.Close()

	client := NewClient(server.URL)
	embeddings, err := client.ExtractFaces(context.Background(), testJPEG(t, 64, 48))
	if err != nil {
		t.Fatalf("expected no error for a faceless image, got %v", err)
	}
	if len(embeddings) != 0 {
		t.Errorf("expected no embeddings, got %d", len(embeddings))
	}
}

func TestExtractFaces_PreservesDetectionOrder(t *testing.T) {
	server := faceServer(t, FaceResponse{
		FacesCount: 2,
		Faces: []FaceDetection{
			{FaceIndex: 0, Embedding: []float32{1, 0}},
			{FaceIndex: 1, Embedding: []float32{0, 1}},
		},
	})
	defer server.Close()

	client := NewClient(server.URL)
	embeddings, err := client.ExtractFaces(context.Background(), testJPEG(t, 64, 48))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(embeddings) != 2 {
		t.Fatalf("expected 2 embeddings, got %d", len(embeddings))
	}
	if embeddings[0][0] != 1 || embeddings[1][1] != 1 {
		t.Errorf("expected detection order to be preserved, got %v", embeddings)
	}
}

func TestDetectFaces_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	if _, err := client.DetectFaces(context.Background(), testJPEG(t, 64, 48)); err == nil {
		t.Error("expected an error for a failing server")
	}
}

func TestNewClient_DefaultBaseURL(t *testing.T) {
	client := NewClient("")
	if client.baseURL != defaultBaseURL {
		t.Errorf("expected default base URL, got %s", client.baseURL)
	}
	client = NewClient("http://faces:9000/")
	if client.baseURL != "http://faces:9000" {
		t.Errorf("expected trailing slash to be trimmed, got %s", client.baseURL)
	}
}

func TestResizeImage_DownscalesLargeImages(t *testing.T) {
	data := testJPEG(t, 2048, 1024)
	resized, err := ResizeImage(data, maxUploadDimension)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	img, _, err := image.Decode(bytes.NewReader(resized))
	if err != nil {
		t.Fatalf("failed to decode resized image: %v", err)
	}
	if img.Bounds().Dx() != maxUploadDimension {
		t.Errorf("expected width %d, got %d", maxUploadDimension, img.Bounds().Dx())
	}
	if img.Bounds().Dy() != maxUploadDimension/2 {
		t.Errorf("expected aspect ratio to be kept, got height %d", img.Bounds().Dy())
	}
}

func TestResizeImage_KeepsSmallImages(t *testing.T) {
	data := testJPEG(t, 320, 240)
	resized, err := ResizeImage(data, maxUploadDimension)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	img, _, err := image.Decode(bytes.NewReader(resized))
	if err != nil {
		t.Fatalf("failed to decode re-encoded image: %v", err)
	}
	if img.Bounds().Dx() != 320 || img.Bounds().Dy() != 240 {
		t.Errorf("expected dimensions to be unchanged, got %dx%d", img.Bounds().Dx(), img.Bounds().Dy())
	}
}

func TestDetectMIMEType(t *testing.T) {
	jpegData := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0, 0, 0, 0}
	if got := detectMIMEType(jpegData); got != "image/jpeg" {
		t.Errorf("expected image/jpeg, got %s", got)
	}
	pngData := []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}
	if got := detectMIMEType(pngData); got != "image/png" {
		t.Errorf("expected image/png, got %s", got)
	}
	if got := detectMIMEType([]byte{1, 2}); got != "application/octet-stream" {
		t.Errorf("expected fallback MIME type, got %s", got)
	}
}
