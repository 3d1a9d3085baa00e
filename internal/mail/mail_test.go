package mail

import (
	"context"
	"net/smtp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/taxischool/internal/config"
)

func TestNewPicksBackend(t *testing.T) {
	log := zap.NewNop()
	assert.IsType(t, &SendGrid{}, New(config.MailConfig{SendgridAPIKey: "k"}, log))
	assert.IsType(t, &SMTP{}, New(config.MailConfig{SMTPHost: "mail.local", SMTPPort: 25}, log))
	assert.IsType(t, &LogSender{}, New(config.MailConfig{}, log))
}

func TestSMTPSendBuildsMultipart(t *testing.T) {
	s := NewSMTP("mail.local", 2525, "", "", "school@example.com")
	var gotAddr string
	var gotTo []string
	var gotBody string
	s.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotTo, gotBody = addr, to, string(msg)
		return nil
	}

	err := s.Send(context.Background(), Message{
		To: "ana@example.com", Subject: "Rental confirmed", Text: "plain", HTML: "<p>html</p>",
	})
	require.NoError(t, err)
	assert.Equal(t, "mail.local:2525", gotAddr)
	assert.Equal(t, []string{"ana@example.com"}, gotTo)
	assert.Contains(t, gotBody, "Subject: Rental confirmed\r\n")
	assert.Contains(t, gotBody, "plain")
	assert.Contains(t, gotBody, "<p>html</p>")
}

func TestSendGridPrepare(t *testing.T) {
	s := NewSendGrid("key", "school@example.com", "Taxi School")
	m := s.prepare(Message{To: "ana@example.com", ToName: "Ana", Subject: "Hello", Text: "t", HTML: "h"})
	require.Len(t, m.Personalizations, 1)
	assert.Equal(t, "Hello", m.Personalizations[0].Subject)
	assert.Equal(t, "ana@example.com", m.Personalizations[0].To[0].Address)
	assert.Len(t, m.Content, 2)
}
