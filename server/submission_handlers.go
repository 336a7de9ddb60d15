package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"tunedrop/core/submission"
	"tunedrop/logger"
	"tunedrop/model"
)

// CreateSubmissionHandler opens a new submission for the authenticated
// artist. Tracks are uploaded afterwards, one request per file.
func (h *APIHandler) CreateSubmissionHandler(w http.ResponseWriter, r *http.Request) {
	user, err := GetUserFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req model.CreateSubmissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	sub, err := h.subService.Create(user.ID, &req)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	logger.Info("Submission created",
		logger.String("submissionID", sub.ID),
		logger.Int64("artistID", user.ID))
	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message":      "Submission created",
		"submissionId": sub.ID,
		"submission":   sub.ArtistView(),
	})
}

// UploadTrackHandler accepts one multipart audio file with its metadata and
// attaches it to the submission in the URL.
func (h *APIHandler) UploadTrackHandler(w http.ResponseWriter, r *http.Request) {
	user, err := GetUserFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	submissionID := mux.Vars(r)["submissionId"]

	// Cap the whole request a little above the track limit so metadata
	// fields still fit alongside a maximum-size file.
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxTrackSize+1<<20)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		respondError(w, http.StatusRequestEntityTooLarge, "Uploaded file is too large")
		return
	}

	file, header, err := r.FormFile("track")
	if err != nil {
		respondError(w, http.StatusBadRequest, "track file is required")
		return
	}
	defer file.Close()

	var bpm *int
	if raw := r.FormValue("bpm"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "bpm must be a number")
			return
		}
		bpm = &v
	}

	in := &submission.UploadInput{
		SubmissionID: submissionID,
		ArtistID:     user.ID,
		Filename:     header.Filename,
		Size:         header.Size,
		MimeType:     header.Header.Get("Content-Type"),
		Reader:       file,
		Title:        r.FormValue("trackTitle"),
		Genre:        r.FormValue("genre"),
		BPM:          bpm,
		Key:          r.FormValue("trackKey"),
		Description:  r.FormValue("trackDescription"),
	}

	track, sub, err := h.subService.UploadTrack(r.Context(), in)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	logger.Info("Track uploaded",
		logger.String("submissionID", submissionID),
		logger.String("trackID", track.ID),
		logger.Int64("size", track.FileSize))
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message":     "Track uploaded",
		"track":       track,
		"totalTracks": sub.TotalTracks,
	})
}

// MySubmissionsHandler lists the authenticated artist's own submissions.
func (h *APIHandler) MySubmissionsHandler(w http.ResponseWriter, r *http.Request) {
	user, err := GetUserFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	status, limit := listParams(r)
	list, err := h.subService.ListMine(user.ID, status, limit)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

// AdminListSubmissionsHandler lists every submission for the review queue.
func (h *APIHandler) AdminListSubmissionsHandler(w http.ResponseWriter, r *http.Request) {
	status, limit := listParams(r)
	list, err := h.subService.ListAll(status, limit)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

// GetSubmissionHandler returns one submission. Admins see the full record,
// the owning artist a redacted view, anyone else a 403.
func (h *APIHandler) GetSubmissionHandler(w http.ResponseWriter, r *http.Request) {
	user, err := GetUserFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	sub, err := h.subService.Get(mux.Vars(r)["id"], user)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"submission": sub})
}

// UpdateSubmissionStatusHandler moves a submission through the review flow
// and triggers the decision email when one applies.
func (h *APIHandler) UpdateSubmissionStatusHandler(w http.ResponseWriter, r *http.Request) {
	admin, err := GetUserFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req model.UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	sub, err := h.subService.SetStatus(mux.Vars(r)["id"], &req, admin)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	logger.Info("Submission status updated",
		logger.String("submissionID", sub.ID),
		logger.String("status", sub.Status),
		logger.Int64("reviewedBy", admin.ID))
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message":    "Status updated",
		"submission": sub,
	})
}

// DeleteSubmissionHandler removes a pending submission owned by the caller,
// including its stored track files.
func (h *APIHandler) DeleteSubmissionHandler(w http.ResponseWriter, r *http.Request) {
	user, err := GetUserFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	id := mux.Vars(r)["id"]
	if err := h.subService.Delete(r.Context(), id, user.ID); err != nil {
		respondServiceError(w, err)
		return
	}

	logger.Info("Submission deleted",
		logger.String("submissionID", id),
		logger.Int64("artistID", user.ID))
	respondJSON(w, http.StatusOK, map[string]string{"message": "Submission deleted"})
}

func listParams(r *http.Request) (string, int) {
	status := strings.TrimSpace(r.URL.Query().Get("status"))
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			limit = v
		}
	}
	return status, limit
}
