package notify

import (
	"fmt"
	"html"
	"strings"

	"tunedrop/model"
)

// Message is a rendered email ready for delivery.
type Message struct {
	Kind         string
	To           string
	Subject      string
	HTML         string
	SubmissionID string
}

const emailFrame = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>%s</title></head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
<div style="max-width: 600px; margin: 0 auto; padding: 20px;">
<div style="background: %s; color: white; padding: 30px; text-align: center;">
<h1>TuneDrop</h1><h2>%s</h2>
</div>
<div style="background: #f9f9f9; padding: 30px;">
%s
<p>Best regards,<br>The TuneDrop Team</p>
</div>
<div style="text-align: center; margin-top: 30px; color: #666; font-size: 14px;">
<p>This is an automated message. Please do not reply to this email.</p>
</div>
</div>
</body>
</html>`

func frame(title, headerColor, heading, body string) string {
	return fmt.Sprintf(emailFrame, html.EscapeString(title), headerColor, html.EscapeString(heading), body)
}

// RenderConfirmation builds the submission-received email.
func RenderConfirmation(sub *model.Submission) *Message {
	var tracks strings.Builder
	for _, t := range sub.Tracks {
		tracks.WriteString(fmt.Sprintf("<li><strong>%s</strong> - %s</li>",
			html.EscapeString(t.Title), html.EscapeString(t.Genre)))
	}

	body := fmt.Sprintf(`<p>Hi %s,</p>
<p>Thank you for submitting your music demo to TuneDrop! We're excited to listen to your tracks.</p>
<div style="background: white; padding: 20px; margin: 20px 0;">
<h3>Your Submitted Tracks:</h3>
<ul>%s</ul>
<p><strong>Submission ID:</strong> %s</p>
</div>
<p>Our A&amp;R team will review your submission within the next 7-14 days. You'll receive an email notification once your tracks have been reviewed.</p>`,
		html.EscapeString(sub.ArtistName), tracks.String(), html.EscapeString(sub.ID))

	return &Message{
		Kind:         model.EmailKindConfirmation,
		To:           sub.ArtistEmail,
		Subject:      "Your Demo Submission Has Been Received - TuneDrop",
		HTML:         frame("Submission Confirmation - TuneDrop", "#667eea", "Submission Received!", body),
		SubmissionID: sub.ID,
	}
}

// RenderApproval builds the demo-approved email.
func RenderApproval(sub *model.Submission, feedback, adminNotes string) *Message {
	if feedback == "" {
		feedback = "Your music shows great potential and aligns perfectly with our label's vision."
	}
	notes := ""
	if adminNotes != "" {
		notes = fmt.Sprintf("<p><strong>Additional Notes:</strong> %s</p>", html.EscapeString(adminNotes))
	}

	body := fmt.Sprintf(`<p>Hi %s,</p>
<p>We're thrilled to inform you that your demo submission has been approved by our A&amp;R team!</p>
<div style="background: white; padding: 20px; margin: 20px 0; border-left: 4px solid #4CAF50;">
<h3>Feedback from Our Team:</h3>
<p>%s</p>
%s
</div>
<p><strong>Submission ID:</strong> %s</p>
<p>A member of our team will reach out shortly with the next steps.</p>`,
		html.EscapeString(sub.ArtistName), html.EscapeString(feedback), notes, html.EscapeString(sub.ID))

	return &Message{
		Kind:         model.EmailKindApproval,
		To:           sub.ArtistEmail,
		Subject:      "Congratulations! Your Demo Has Been Approved - TuneDrop",
		HTML:         frame("Submission Approved - TuneDrop", "#4CAF50", "Your Demo Has Been Approved!", body),
		SubmissionID: sub.ID,
	}
}

// RenderRejection builds the demo-not-selected email.
func RenderRejection(sub *model.Submission, feedback, adminNotes string) *Message {
	if feedback == "" {
		feedback = "While your submission wasn't selected this time, we encourage you to keep creating and submit again in the future."
	}
	notes := ""
	if adminNotes != "" {
		notes = fmt.Sprintf("<p><strong>Additional Notes:</strong> %s</p>", html.EscapeString(adminNotes))
	}

	body := fmt.Sprintf(`<p>Hi %s,</p>
<p>Thank you for sharing your music with us. After careful review, your demo submission was not selected.</p>
<div style="background: white; padding: 20px; margin: 20px 0; border-left: 4px solid #ff9800;">
<h3>Feedback from Our Team:</h3>
<p>%s</p>
%s
</div>
<p><strong>Submission ID:</strong> %s</p>
<p>Every release schedule is different; this decision is about fit, not talent. We'd love to hear from you again.</p>`,
		html.EscapeString(sub.ArtistName), html.EscapeString(feedback), notes, html.EscapeString(sub.ID))

	return &Message{
		Kind:         model.EmailKindRejection,
		To:           sub.ArtistEmail,
		Subject:      "Update on Your Demo Submission - TuneDrop",
		HTML:         frame("Submission Update - TuneDrop", "#ff9800", "Your Demo Has Been Reviewed", body),
		SubmissionID: sub.ID,
	}
}

// RenderTest builds the email-service test message.
func RenderTest(recipient string) *Message {
	body := `<p>This is a test message from the TuneDrop email service.</p>
<p>If you are reading this, delivery is working.</p>`

	return &Message{
		Kind:    model.EmailKindTest,
		To:      recipient,
		Subject: "TuneDrop Email Service Test",
		HTML:    frame("Email Service Test - TuneDrop", "#667eea", "Email Service Test", body),
	}
}
