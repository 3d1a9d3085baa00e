package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/taxischool/internal/mail"
)

type recordingSender struct {
	sent []mail.Message
	err  error
}

func (s *recordingSender) Send(_ context.Context, msg mail.Message) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

func TestRenderRentalConfirmed(t *testing.T) {
	msg, err := Render(Event{
		Type:           EventRentalConfirmed,
		RecipientEmail: "ana@example.com",
		RecipientName:  "Ana",
		RentalID:       42,
		TrackingToken:  "abc123",
		StartDate:      "2024-03-01",
		EndDate:        "2024-03-05",
	}, "https://school.example/")
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", msg.To)
	assert.Equal(t, "Your vehicle rental is confirmed", msg.Subject)
	assert.Contains(t, msg.HTML, "https://school.example/tracking/abc123")
	assert.Contains(t, msg.Text, "rental #42 from 2024-03-01 to 2024-03-05")
	assert.NotContains(t, msg.Text, "<p>")
}

func TestRenderUnknownEvent(t *testing.T) {
	_, err := Render(Event{Type: "invoice.paid", RecipientEmail: "a@b.c"}, "")
	assert.Error(t, err)
}

func TestConsumerHandle(t *testing.T) {
	sender := &recordingSender{}
	c := NewConsumer("", "q", sender, "https://school.example", zap.NewNop())

	body, _ := json.Marshal(Event{Type: EventReservationCancelled, RecipientEmail: "bo@example.com", ReservationID: 3})
	require.NoError(t, c.Handle(context.Background(), body))
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "bo@example.com", sender.sent[0].To)

	assert.Error(t, c.Handle(context.Background(), []byte("{not json")))

	noRecipient, _ := json.Marshal(Event{Type: EventReservationCancelled})
	assert.Error(t, c.Handle(context.Background(), noRecipient))

	sender.err = errors.New("smtp down")
	assert.Error(t, c.Handle(context.Background(), body))
}
