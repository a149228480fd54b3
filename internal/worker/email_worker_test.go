package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/oksasatya/go-event-locator/pkg/mailer"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		// started at init by the GCS SDK pulled in through pkg/helpers
		goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"),
	)
}

type settled struct {
	acked   bool
	nacked  bool
	requeue bool
}

type fakeAck struct {
	mu  sync.Mutex
	got map[uint64]settled
}

func newFakeAck() *fakeAck { return &fakeAck{got: map[uint64]settled{}} }

func (a *fakeAck) Ack(tag uint64, _ bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.got[tag] = settled{acked: true}
	return nil
}

func (a *fakeAck) Nack(tag uint64, _ bool, requeue bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.got[tag] = settled{nacked: true, requeue: requeue}
	return nil
}

func (a *fakeAck) Reject(tag uint64, requeue bool) error {
	return a.Nack(tag, false, requeue)
}

func (a *fakeAck) state(tag uint64) settled {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.got[tag]
}

type sentMail struct{ to, subject, text, html string }

type fakeSender struct {
	mu   sync.Mutex
	err  error
	sent []sentMail
}

func (s *fakeSender) Send(_ context.Context, to, subject, text, html string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, sentMail{to, subject, text, html})
	return nil
}

func delivery(t *testing.T, ack amqp.Acknowledger, tag uint64, job any) amqp.Delivery {
	t.Helper()
	var body []byte
	switch v := job.(type) {
	case []byte:
		body = v
	default:
		b, err := json.Marshal(v)
		require.NoError(t, err)
		body = b
	}
	return amqp.Delivery{Acknowledger: ack, DeliveryTag: tag, Body: body}
}

func TestEmailWorker_Handle(t *testing.T) {
	tests := []struct {
		name       string
		body       any
		sendErr    error
		want       Result
		wantAck    bool
		wantReq    bool
		wantSubjIn string
	}{
		{
			name:       "pre-rendered job is sent as is",
			body:       mailer.EmailJob{To: "alice@example.com", Subject: "Welcome to Event Locator!", Text: "Hi alice", Kind: "welcome"},
			want:       Sent,
			wantAck:    true,
			wantSubjIn: "Welcome",
		},
		{
			name: "template job is rendered",
			body: mailer.EmailJob{To: "bob@example.com", Template: "welcome", Data: map[string]any{
				"Username": "bob", "AppName": "Event Locator",
			}},
			want:       Sent,
			wantAck:    true,
			wantSubjIn: "Event Locator",
		},
		{
			name: "invalid json is dropped",
			body: []byte("{not json"),
			want: Dropped,
		},
		{
			name: "missing recipient is dropped",
			body: mailer.EmailJob{Subject: "x", Text: "y"},
			want: Dropped,
		},
		{
			name: "unknown template is dropped",
			body: mailer.EmailJob{To: "c@example.com", Template: "nope"},
			want: Dropped,
		},
		{
			name:    "send failure is requeued",
			body:    mailer.EmailJob{To: "alice@example.com", Subject: "s", Text: "t"},
			sendErr: errors.New("mailgun down"),
			want:    Requeued,
			wantReq: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ack := newFakeAck()
			sender := &fakeSender{err: tt.sendErr}
			w := NewEmailWorker(sender, nil)

			got := w.Handle(context.Background(), delivery(t, ack, 7, tt.body))

			assert.Equal(t, tt.want, got)
			st := ack.state(7)
			assert.Equal(t, tt.wantAck, st.acked)
			assert.Equal(t, !tt.wantAck, st.nacked)
			assert.Equal(t, tt.wantReq, st.requeue)
			if tt.want == Sent {
				require.Len(t, sender.sent, 1)
				assert.Contains(t, sender.sent[0].subject, tt.wantSubjIn)
			} else {
				assert.Empty(t, sender.sent)
			}
		})
	}
}

func TestEmailWorker_TemplateBodyHasUsername(t *testing.T) {
	sender := &fakeSender{}
	w := NewEmailWorker(sender, nil)

	job := mailer.EmailJob{To: "bob@example.com", Template: "welcome", Data: map[string]any{"Username": "bob"}}
	w.Handle(context.Background(), delivery(t, newFakeAck(), 1, job))

	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0].text, "bob")
	assert.Contains(t, sender.sent[0].html, "bob")
}

func TestEmailWorker_RunStopsWhenChannelCloses(t *testing.T) {
	ack := newFakeAck()
	sender := &fakeSender{}
	w := NewEmailWorker(sender, nil)

	msgs := make(chan amqp.Delivery, 3)
	for i := uint64(1); i <= 3; i++ {
		msgs <- delivery(t, ack, i, mailer.EmailJob{To: "x@example.com", Subject: "s", Text: "t"})
	}
	close(msgs)

	done := make(chan struct{})
	go func() {
		w.Run(context.Background(), msgs)
		close(done)
	}()
	<-done

	assert.Len(t, sender.sent, 3)
	for i := uint64(1); i <= 3; i++ {
		assert.True(t, ack.state(i).acked)
	}
}

func TestEmailWorker_RunStopsOnCancel(t *testing.T) {
	w := NewEmailWorker(&fakeSender{}, nil)
	msgs := make(chan amqp.Delivery)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx, msgs)
		close(done)
	}()
	cancel()
	<-done
}
