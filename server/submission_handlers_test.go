package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"

	"tunedrop/config"
	"tunedrop/core/submission"
	"tunedrop/logger"
	"tunedrop/model"
)

// stubSubmissionRepo is a minimal in-memory SubmissionRepository for handler
// tests; it records what the service writes.
type stubSubmissionRepo struct {
	sub     *model.Submission
	created *model.Submission
	added   []*model.Track
}

func (s *stubSubmissionRepo) CreateSubmission(sub *model.Submission) error {
	s.created = sub
	return nil
}

func (s *stubSubmissionRepo) GetSubmissionByID(id string) (*model.Submission, error) {
	if s.sub != nil && s.sub.ID == id {
		return s.sub, nil
	}
	return nil, nil
}

func (s *stubSubmissionRepo) GetSubmissionsByArtist(artistID int64, status string, limit int) ([]*model.Submission, error) {
	return nil, nil
}

func (s *stubSubmissionRepo) GetAllSubmissions(status string, limit int) ([]*model.Submission, error) {
	return nil, nil
}

func (s *stubSubmissionRepo) AddTrack(track *model.Track) error {
	s.added = append(s.added, track)
	return nil
}

func (s *stubSubmissionRepo) GetTracksBySubmission(submissionID string) ([]*model.Track, error) {
	return nil, nil
}

func (s *stubSubmissionRepo) UpdateReview(id string, status string, score *int, reviewNotes, adminNotes *string, reviewedBy int64) error {
	return nil
}

func (s *stubSubmissionRepo) UpdateEmailState(id string, sent bool, messageID, method string) error {
	return nil
}

func (s *stubSubmissionRepo) DeleteSubmission(id string) error {
	return nil
}

type stubBlobStore struct {
	puts []string
}

func (s *stubBlobStore) Put(ctx context.Context, objectPath string, reader io.Reader, size int64, contentType string) error {
	s.puts = append(s.puts, objectPath)
	return nil
}

func (s *stubBlobStore) Remove(ctx context.Context, objectPath string) error {
	return nil
}

func (s *stubBlobStore) PublicURL(objectPath string) string {
	return "/static/" + objectPath
}

func submissionTestHandler(subs *stubSubmissionRepo, blobs *stubBlobStore) (*APIHandler, *model.User) {
	artist := &model.User{
		ID:         7,
		Email:      "artist@example.com",
		Role:       model.RoleArtist,
		ArtistName: "Night Drive",
		Status:     model.UserStatusActive,
	}

	users := new(mockUserRepo)
	users.On("GetUserByID", int64(7)).Return(artist, nil)

	svc := submission.NewService(subs, users, blobs, nil, 50<<20)
	cfg := &config.Config{MaxTrackSize: 50 << 20, FrontendURL: "http://localhost:3000"}
	return NewAPIHandler(users, nil, svc, nil, nil, nil, nil, cfg), artist
}

func withUser(req *http.Request, user *model.User) *http.Request {
	return req.WithContext(context.WithValue(req.Context(), "user", user))
}

func TestCreateSubmissionHandler(t *testing.T) {
	subs := &stubSubmissionRepo{}
	h, artist := submissionTestHandler(subs, &stubBlobStore{})

	body := bytes.NewBufferString(`{"title":"Summer EP","description":"three demos"}`)
	req := withUser(httptest.NewRequest(http.MethodPost, "/api/submissions/create", body), artist)
	rec := httptest.NewRecorder()

	h.CreateSubmissionHandler(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)

	var resp map[string]interface{}
	assert.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.NotNil(t, subs.created)
	assert.Equal(t, subs.created.ID, resp["submissionId"])
	assert.Contains(t, resp, "submission")
}

func TestUploadTrackHandler(t *testing.T) {
	buildUpload := func(fields map[string]string) (*bytes.Buffer, string) {
		body := &bytes.Buffer{}
		w := multipart.NewWriter(body)
		for k, v := range fields {
			w.WriteField(k, v)
		}
		part, _ := w.CreateFormFile("track", "demo.mp3")
		part.Write(bytes.Repeat([]byte("a"), 2048))
		w.Close()
		return body, w.FormDataContentType()
	}

	t.Run("accepts the documented multipart field names", func(t *testing.T) {
		subs := &stubSubmissionRepo{
			sub: &model.Submission{ID: "sub-1", ArtistID: 7, Status: model.StatusPending},
		}
		blobs := &stubBlobStore{}
		h, artist := submissionTestHandler(subs, blobs)

		body, contentType := buildUpload(map[string]string{
			"trackTitle":       "Song 1",
			"genre":            "Pop",
			"trackKey":         "Am",
			"trackDescription": "first single",
			"bpm":              "120",
		})
		req := withUser(httptest.NewRequest(http.MethodPost, "/api/submissions/upload/sub-1", body), artist)
		req.Header.Set("Content-Type", contentType)
		req = mux.SetURLVars(req, map[string]string{"submissionId": "sub-1"})
		rec := httptest.NewRecorder()

		h.UploadTrackHandler(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, subs.added, 1)
		assert.Equal(t, "Song 1", subs.added[0].Title)
		assert.Equal(t, "Pop", subs.added[0].Genre)
		assert.Equal(t, "Am", subs.added[0].Key)
		assert.Equal(t, "first single", subs.added[0].Description)
		assert.Len(t, blobs.puts, 1)
	})

	t.Run("rejects a missing track title with 400", func(t *testing.T) {
		subs := &stubSubmissionRepo{
			sub: &model.Submission{ID: "sub-1", ArtistID: 7, Status: model.StatusPending},
		}
		h, artist := submissionTestHandler(subs, &stubBlobStore{})

		body, contentType := buildUpload(map[string]string{"genre": "Pop"})
		req := withUser(httptest.NewRequest(http.MethodPost, "/api/submissions/upload/sub-1", body), artist)
		req.Header.Set("Content-Type", contentType)
		req = mux.SetURLVars(req, map[string]string{"submissionId": "sub-1"})
		rec := httptest.NewRecorder()

		h.UploadTrackHandler(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Empty(t, subs.added)
	})
}

func TestLoggerConfig(t *testing.T) {
	cfg := &config.Config{LogLevel: "debug", LogFile: "/var/log/tunedrop/app.log"}
	lc := loggerConfig(cfg)

	assert.Equal(t, logger.DebugLevel, lc.Level)
	assert.Equal(t, "/var/log/tunedrop/app.log", lc.OutputPath)
}
