package notify

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"tunedrop/model"
)

type stubMailer struct {
	name      string
	messageID string
	err       error
	calls     int32
}

func (m *stubMailer) Name() string { return m.name }

func (m *stubMailer) Send(ctx context.Context, msg *Message) (string, error) {
	atomic.AddInt32(&m.calls, 1)
	return m.messageID, m.err
}

func (m *stubMailer) sendCount() int32 {
	return atomic.LoadInt32(&m.calls)
}

type mockEmailLogRepo struct {
	mock.Mock
}

func (m *mockEmailLogRepo) Append(entry *model.EmailLog) error {
	return m.Called(entry).Error(0)
}

func (m *mockEmailLogRepo) GetBySubmission(submissionID string) ([]*model.EmailLog, error) {
	args := m.Called(submissionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.EmailLog), args.Error(1)
}

func (m *mockEmailLogRepo) GetRecent(limit int) ([]*model.EmailLog, error) {
	args := m.Called(limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.EmailLog), args.Error(1)
}

type mockSubmissionRepo struct {
	mock.Mock
}

func (m *mockSubmissionRepo) CreateSubmission(sub *model.Submission) error {
	return m.Called(sub).Error(0)
}

func (m *mockSubmissionRepo) GetSubmissionByID(id string) (*model.Submission, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Submission), args.Error(1)
}

func (m *mockSubmissionRepo) GetSubmissionsByArtist(artistID int64, status string, limit int) ([]*model.Submission, error) {
	args := m.Called(artistID, status, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Submission), args.Error(1)
}

func (m *mockSubmissionRepo) GetAllSubmissions(status string, limit int) ([]*model.Submission, error) {
	args := m.Called(status, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Submission), args.Error(1)
}

func (m *mockSubmissionRepo) AddTrack(track *model.Track) error {
	return m.Called(track).Error(0)
}

func (m *mockSubmissionRepo) GetTracksBySubmission(submissionID string) ([]*model.Track, error) {
	args := m.Called(submissionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Track), args.Error(1)
}

func (m *mockSubmissionRepo) UpdateReview(id string, status string, score *int, reviewNotes, adminNotes *string, reviewedBy int64) error {
	return m.Called(id, status, score, reviewNotes, adminNotes, reviewedBy).Error(0)
}

func (m *mockSubmissionRepo) UpdateEmailState(id string, sent bool, messageID, method string) error {
	return m.Called(id, sent, messageID, method).Error(0)
}

func (m *mockSubmissionRepo) DeleteSubmission(id string) error {
	return m.Called(id).Error(0)
}

func testMessage() *Message {
	return &Message{
		Kind:         model.EmailKindTest,
		To:           "artist@example.com",
		Subject:      "hello",
		HTML:         "<p>hi</p>",
		SubmissionID: "sub-1",
	}
}

func TestSend(t *testing.T) {
	t.Run("uses the primary provider first", func(t *testing.T) {
		primary := &stubMailer{name: model.EmailMethodSendGrid, messageID: "sg-1"}
		fallback := &stubMailer{name: model.EmailMethodSMTP}
		audit := new(mockEmailLogRepo)
		audit.On("Append", mock.AnythingOfType("*model.EmailLog")).Return(nil)

		d := NewDispatcher(primary, fallback, audit, new(mockSubmissionRepo))
		result := d.Send(context.Background(), testMessage())

		assert.True(t, result.Success)
		assert.Equal(t, model.EmailMethodSendGrid, result.Method)
		assert.Equal(t, "sg-1", result.MessageID)
		assert.EqualValues(t, 1, primary.sendCount())
		assert.Zero(t, fallback.sendCount())
	})

	t.Run("falls back to SMTP when the primary fails", func(t *testing.T) {
		primary := &stubMailer{name: model.EmailMethodSendGrid, err: errors.New("quota exceeded")}
		fallback := &stubMailer{name: model.EmailMethodSMTP, messageID: "smtp-1"}
		audit := new(mockEmailLogRepo)
		audit.On("Append", mock.AnythingOfType("*model.EmailLog")).Return(nil)

		d := NewDispatcher(primary, fallback, audit, new(mockSubmissionRepo))
		result := d.Send(context.Background(), testMessage())

		assert.True(t, result.Success)
		assert.Equal(t, model.EmailMethodSMTP, result.Method)
		assert.EqualValues(t, 1, primary.sendCount())
		assert.EqualValues(t, 1, fallback.sendCount())
	})

	t.Run("reports failure when every provider fails", func(t *testing.T) {
		primary := &stubMailer{name: model.EmailMethodSendGrid, err: errors.New("quota exceeded")}
		fallback := &stubMailer{name: model.EmailMethodSMTP, err: errors.New("connection refused")}
		audit := new(mockEmailLogRepo)
		audit.On("Append", mock.AnythingOfType("*model.EmailLog")).Return(nil)

		d := NewDispatcher(primary, fallback, audit, new(mockSubmissionRepo))
		result := d.Send(context.Background(), testMessage())

		assert.False(t, result.Success)
		assert.Equal(t, "connection refused", result.Error)
	})

	t.Run("reports the primary error when no fallback exists", func(t *testing.T) {
		primary := &stubMailer{name: model.EmailMethodSendGrid, err: errors.New("quota exceeded")}
		audit := new(mockEmailLogRepo)
		audit.On("Append", mock.AnythingOfType("*model.EmailLog")).Return(nil)

		d := NewDispatcher(primary, nil, audit, new(mockSubmissionRepo))
		result := d.Send(context.Background(), testMessage())

		assert.False(t, result.Success)
		assert.Equal(t, "quota exceeded", result.Error)
	})

	t.Run("fails cleanly with no provider configured", func(t *testing.T) {
		audit := new(mockEmailLogRepo)
		audit.On("Append", mock.AnythingOfType("*model.EmailLog")).Return(nil)

		d := NewDispatcher(nil, nil, audit, new(mockSubmissionRepo))
		result := d.Send(context.Background(), testMessage())

		assert.False(t, result.Success)
		assert.Equal(t, ErrNoMailer.Error(), result.Error)
	})

	t.Run("appends an audit record even on failure", func(t *testing.T) {
		primary := &stubMailer{name: model.EmailMethodSendGrid, err: errors.New("boom")}
		audit := new(mockEmailLogRepo)
		audit.On("Append", mock.MatchedBy(func(entry *model.EmailLog) bool {
			return !entry.Success && entry.Recipient == "artist@example.com" && entry.SendError == "boom"
		})).Return(nil)

		d := NewDispatcher(primary, nil, audit, new(mockSubmissionRepo))
		d.Send(context.Background(), testMessage())

		audit.AssertExpectations(t)
	})
}

func TestStatusChanged(t *testing.T) {
	score := 8

	decided := func(status string) *model.Submission {
		return &model.Submission{
			ID:          "sub-1",
			ArtistID:    7,
			ArtistName:  "Night Drive",
			ArtistEmail: "artist@example.com",
			Title:       "Summer EP",
			Status:      status,
			ReviewScore: &score,
			UpdatedAt:   time.Now(),
		}
	}

	t.Run("fans out to subscribers", func(t *testing.T) {
		d := NewDispatcher(nil, nil, new(mockEmailLogRepo), new(mockSubmissionRepo))
		events, cancel := d.Subscribe()
		defer cancel()

		d.StatusChanged(decided(model.StatusInReview))

		select {
		case event := <-events:
			assert.Equal(t, "sub-1", event.SubmissionID)
			assert.Equal(t, model.StatusInReview, event.Status)
		case <-time.After(time.Second):
			t.Fatal("expected a fanned-out event")
		}
	})

	t.Run("queues an email only for decisions", func(t *testing.T) {
		primary := &stubMailer{name: model.EmailMethodSendGrid, messageID: "sg-1"}
		audit := new(mockEmailLogRepo)
		audit.On("Append", mock.AnythingOfType("*model.EmailLog")).Return(nil)
		subs := new(mockSubmissionRepo)
		subs.On("UpdateEmailState", "sub-1", true, "sg-1", model.EmailMethodSendGrid).Return(nil)

		d := NewDispatcher(primary, nil, audit, subs)
		ctx, stop := context.WithCancel(context.Background())
		defer stop()
		d.Start(ctx)

		d.StatusChanged(decided(model.StatusInReview))
		d.StatusChanged(decided(model.StatusApproved))

		assert.Eventually(t, func() bool {
			return primary.sendCount() == 1
		}, 2*time.Second, 10*time.Millisecond)
		subs.AssertCalled(t, "UpdateEmailState", "sub-1", true, "sg-1", model.EmailMethodSendGrid)
	})

	t.Run("creation sends a confirmation without touching email state", func(t *testing.T) {
		primary := &stubMailer{name: model.EmailMethodSendGrid, messageID: "sg-2"}
		audit := new(mockEmailLogRepo)
		audit.On("Append", mock.MatchedBy(func(entry *model.EmailLog) bool {
			return entry.Kind == model.EmailKindConfirmation
		})).Return(nil)
		subs := new(mockSubmissionRepo)

		d := NewDispatcher(primary, nil, audit, subs)
		ctx, stop := context.WithCancel(context.Background())
		defer stop()
		d.Start(ctx)

		d.Created(decided(model.StatusPending))

		assert.Eventually(t, func() bool {
			return primary.sendCount() == 1
		}, 2*time.Second, 10*time.Millisecond)
		audit.AssertExpectations(t)
		subs.AssertNotCalled(t, "UpdateEmailState", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("does not block when no subscriber is draining", func(t *testing.T) {
		d := NewDispatcher(nil, nil, new(mockEmailLogRepo), new(mockSubmissionRepo))
		_, cancel := d.Subscribe()
		defer cancel()

		done := make(chan struct{})
		go func() {
			for i := 0; i < 100; i++ {
				d.StatusChanged(decided(model.StatusInReview))
			}
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("StatusChanged blocked on a slow subscriber")
		}
	})
}
