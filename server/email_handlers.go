package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"tunedrop/core/notify"
	"tunedrop/logger"
	"tunedrop/model"
)

type decisionEmailRequest struct {
	SubmissionID string  `json:"submissionId"`
	ReviewScore  *int    `json:"reviewScore"`
	Feedback     *string `json:"feedback"`
	AdminNotes   *string `json:"adminNotes"`
}

// TestEmailHandler sends a test email so admins can verify delivery is
// configured. Recipient defaults to the configured test address.
func (h *APIHandler) TestEmailHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Recipient string `json:"recipient"`
	}
	// Body is optional for this endpoint.
	_ = json.NewDecoder(r.Body).Decode(&req)

	recipient := req.Recipient
	if recipient == "" {
		recipient = h.cfg.AdminTestEmail
	}
	if recipient == "" {
		respondError(w, http.StatusBadRequest, "recipient is required")
		return
	}

	result := h.dispatcher.Send(r.Context(), notify.RenderTest(recipient))
	if !result.Success {
		respondJSON(w, http.StatusBadGateway, map[string]interface{}{
			"error":  "Test email failed",
			"detail": result.Error,
		})
		return
	}

	logger.Info("Test email sent",
		logger.String("recipient", recipient),
		logger.String("method", result.Method))
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message":   "Test email sent",
		"method":    result.Method,
		"messageId": result.MessageID,
	})
}

// ApproveEmailHandler approves a submission and notifies the artist. This
// goes through the same review transition as the status endpoint, so the
// score rule applies here too.
func (h *APIHandler) ApproveEmailHandler(w http.ResponseWriter, r *http.Request) {
	h.decideAndNotify(w, r, model.StatusApproved)
}

// RejectEmailHandler rejects a submission and notifies the artist.
func (h *APIHandler) RejectEmailHandler(w http.ResponseWriter, r *http.Request) {
	h.decideAndNotify(w, r, model.StatusRejected)
}

func (h *APIHandler) decideAndNotify(w http.ResponseWriter, r *http.Request, status string) {
	admin, err := GetUserFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req decisionEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.SubmissionID == "" {
		respondError(w, http.StatusBadRequest, "submissionId is required")
		return
	}

	update := &model.UpdateStatusRequest{
		Status:      status,
		ReviewScore: req.ReviewScore,
		ReviewNotes: req.Feedback,
		AdminNotes:  req.AdminNotes,
	}
	sub, err := h.subService.SetStatus(req.SubmissionID, update, admin)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	logger.Info("Decision email queued",
		logger.String("submissionID", sub.ID),
		logger.String("status", status),
		logger.Int64("byAdmin", admin.ID))
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message":    "Decision recorded, email queued",
		"submission": sub,
	})
}

// EmailLogsHandler lists the email audit trail, either for one submission
// or the most recent sends overall.
func (h *APIHandler) EmailLogsHandler(w http.ResponseWriter, r *http.Request) {
	if submissionID := r.URL.Query().Get("submissionId"); submissionID != "" {
		logs, err := h.emailRepo.GetBySubmission(submissionID)
		if err != nil {
			logger.Error("Failed to load email logs", logger.ErrorField(err))
			respondError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		respondJSON(w, http.StatusOK, map[string]interface{}{"logs": logs, "total": len(logs)})
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 && v <= 500 {
			limit = v
		}
	}
	logs, err := h.emailRepo.GetRecent(limit)
	if err != nil {
		logger.Error("Failed to load email logs", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"logs": logs, "total": len(logs)})
}
