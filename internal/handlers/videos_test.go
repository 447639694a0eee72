package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/catalog"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
)

type catalogStub struct {
	published publishRecorder
	deleted   []string
	video     models.Video
	err       error
}

type publishRecorder struct {
	in     catalog.PublishInput
	called bool
}

func (s *catalogStub) Publish(_ context.Context, in catalog.PublishInput) (models.Video, error) {
	s.published = publishRecorder{in: in, called: true}
	if s.err != nil {
		return models.Video{}, s.err
	}
	video := s.video
	video.OwnerID = in.OwnerID
	video.Title = in.Title
	return video, nil
}

func (s *catalogStub) ReplaceThumbnail(_ context.Context, videoID, requesterID, localPath string) (models.Video, error) {
	if s.err != nil {
		return models.Video{}, s.err
	}
	return s.video, nil
}

func (s *catalogStub) Delete(_ context.Context, videoID, requesterID string) error {
	if s.err != nil {
		return s.err
	}
	s.deleted = append(s.deleted, videoID)
	return nil
}

func (s *catalogStub) TogglePublish(_ context.Context, videoID, requesterID string) (models.Video, error) {
	if s.err != nil {
		return models.Video{}, s.err
	}
	return s.video, nil
}

func (s *catalogStub) View(_ context.Context, videoID, viewerID string) (models.Video, error) {
	if s.err != nil {
		return models.Video{}, s.err
	}
	return s.video, nil
}

func (s *catalogStub) ListByOwner(_ context.Context, ownerID string) ([]models.Video, error) {
	return []models.Video{s.video}, nil
}

func multipartVideoRequest(t *testing.T, title string, withVideo, withThumb bool) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	if err := writer.WriteField("title", title); err != nil {
		t.Fatalf("write title field: %v", err)
	}
	if withVideo {
		part, err := writer.CreateFormFile("videoFile", "clip.mp4")
		if err != nil {
			t.Fatalf("create video part: %v", err)
		}
		if _, err := io.WriteString(part, "fake video bytes"); err != nil {
			t.Fatalf("write video part: %v", err)
		}
	}
	if withThumb {
		part, err := writer.CreateFormFile("thumbnail", "thumb.png")
		if err != nil {
			t.Fatalf("create thumbnail part: %v", err)
		}
		if _, err := io.WriteString(part, "fake image bytes"); err != nil {
			t.Fatalf("write thumbnail part: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/videos", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req.WithContext(auth.WithUserID(req.Context(), "owner-1"))
}

func TestVideoHandlerPublish(t *testing.T) {
	stub := &catalogStub{}
	handler := VideoHandler{Catalog: stub}

	rec := httptest.NewRecorder()
	handler.Collection(rec, multipartVideoRequest(t, "my clip", true, true))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d got %d: %s", http.StatusCreated, rec.Code, rec.Body.String())
	}
	if !stub.published.called {
		t.Fatal("expected publish to be called")
	}
	if stub.published.in.OwnerID != "owner-1" || stub.published.in.Title != "my clip" {
		t.Fatalf("unexpected publish input: %+v", stub.published.in)
	}
	if stub.published.in.VideoPath == "" || stub.published.in.ThumbnailPath == "" {
		t.Fatal("expected both staged paths forwarded")
	}
}

func TestVideoHandlerPublishRequiresBothFiles(t *testing.T) {
	stub := &catalogStub{}
	handler := VideoHandler{Catalog: stub}

	rec := httptest.NewRecorder()
	handler.Collection(rec, multipartVideoRequest(t, "partial", true, false))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d got %d", http.StatusBadRequest, rec.Code)
	}
	if stub.published.called {
		t.Fatal("publish must not run on a partial payload")
	}
}

func TestVideoHandlerDelete(t *testing.T) {
	stub := &catalogStub{}
	handler := VideoHandler{Catalog: stub}

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/videos?id=video-1", nil)
	req = req.WithContext(auth.WithUserID(req.Context(), "owner-1"))
	rec := httptest.NewRecorder()
	handler.Collection(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}
	if len(stub.deleted) != 1 || stub.deleted[0] != "video-1" {
		t.Fatalf("expected delete for video-1, got %v", stub.deleted)
	}
}

func TestVideoHandlerDeleteMapsForbidden(t *testing.T) {
	stub := &catalogStub{err: catalog.ErrForbidden}
	handler := VideoHandler{Catalog: stub}

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/videos?id=video-1", nil)
	req = req.WithContext(auth.WithUserID(req.Context(), "intruder"))
	rec := httptest.NewRecorder()
	handler.Collection(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected status %d got %d", http.StatusForbidden, rec.Code)
	}
}

func TestVideoHandlerViewMapsNotFound(t *testing.T) {
	stub := &catalogStub{err: repositories.ErrNotFound}
	handler := VideoHandler{Catalog: stub}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/videos?id=ghost", nil)
	rec := httptest.NewRecorder()
	handler.Collection(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status %d got %d", http.StatusNotFound, rec.Code)
	}

	var envelope apiResponse
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if envelope.Success || envelope.StatusCode != http.StatusNotFound {
		t.Fatalf("unexpected envelope %+v", envelope)
	}
}

func TestVideoHandlerRejectsUnknownMethod(t *testing.T) {
	handler := VideoHandler{Catalog: &catalogStub{}}

	req := httptest.NewRequest(http.MethodPut, "/api/v1/videos", nil)
	rec := httptest.NewRecorder()
	handler.Collection(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected status %d got %d", http.StatusMethodNotAllowed, rec.Code)
	}
}
