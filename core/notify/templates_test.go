package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"tunedrop/model"
)

func templateSubmission() *model.Submission {
	return &model.Submission{
		ID:          "sub-1",
		ArtistName:  "Night Drive",
		ArtistEmail: "artist@example.com",
		Title:       "Summer EP",
		Tracks: []*model.Track{
			{Title: "Opening", Genre: "House"},
			{Title: "Closer", Genre: "Techno"},
		},
	}
}

func TestRenderConfirmation(t *testing.T) {
	msg := RenderConfirmation(templateSubmission())

	assert.Equal(t, model.EmailKindConfirmation, msg.Kind)
	assert.Equal(t, "artist@example.com", msg.To)
	assert.Equal(t, "sub-1", msg.SubmissionID)
	assert.Contains(t, msg.HTML, "Night Drive")
	assert.Contains(t, msg.HTML, "Opening")
	assert.Contains(t, msg.HTML, "Techno")
	assert.Contains(t, msg.HTML, "sub-1")
}

func TestRenderApproval(t *testing.T) {
	t.Run("includes feedback and admin notes", func(t *testing.T) {
		msg := RenderApproval(templateSubmission(), "Great sound design.", "Priority signing")

		assert.Equal(t, model.EmailKindApproval, msg.Kind)
		assert.Contains(t, msg.Subject, "Approved")
		assert.Contains(t, msg.HTML, "Great sound design.")
		assert.Contains(t, msg.HTML, "Priority signing")
	})

	t.Run("falls back to default feedback", func(t *testing.T) {
		msg := RenderApproval(templateSubmission(), "", "")

		assert.Contains(t, msg.HTML, "great potential")
		assert.NotContains(t, msg.HTML, "Additional Notes")
	})

	t.Run("escapes artist-controlled content", func(t *testing.T) {
		sub := templateSubmission()
		sub.ArtistName = `<script>alert("x")</script>`
		msg := RenderApproval(sub, "", "")

		assert.NotContains(t, msg.HTML, "<script>")
		assert.Contains(t, msg.HTML, "&lt;script&gt;")
	})
}

func TestRenderRejection(t *testing.T) {
	msg := RenderRejection(templateSubmission(), "Not the right fit for this cycle.", "")

	assert.Equal(t, model.EmailKindRejection, msg.Kind)
	assert.Contains(t, msg.HTML, "Not the right fit for this cycle.")
	assert.NotContains(t, msg.Subject, "Rejected") // softened subject line
}

func TestRenderTest(t *testing.T) {
	msg := RenderTest("ops@example.com")

	assert.Equal(t, model.EmailKindTest, msg.Kind)
	assert.Equal(t, "ops@example.com", msg.To)
	assert.Empty(t, msg.SubmissionID)
}
