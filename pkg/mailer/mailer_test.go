package mailer

import (
	"context"
	"net/mail"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/fh-academy-api/pkg/config"
)

func TestNewFallsBackToLogMailer(t *testing.T) {
	m := New(config.MailConfig{Provider: config.MailProviderSendGrid}, nil)
	assert.IsType(t, &LogMailer{}, m)

	m = New(config.MailConfig{Provider: config.MailProviderSendGrid, SendGridAPIKey: "key"}, nil)
	assert.IsType(t, &SendGrid{}, m)
}

func TestLogMailerRecordsMessage(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	m := NewLogMailer(zap.New(core))

	err := m.Send(context.Background(), Message{
		To:      mail.Address{Name: "Ada", Address: "ada@example.com"},
		Subject: "You earned a badge",
		Text:    "Congratulations",
	})
	require.NoError(t, err)

	entries := logs.FilterMessage("mail").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "You earned a badge", entries[0].ContextMap()["subject"])
}

func TestSendGridBuildsPersonalization(t *testing.T) {
	s := NewSendGrid(config.MailConfig{SendGridAPIKey: "k", FromName: "Academy", FromAddress: "no-reply@example.com"}, zap.NewNop())
	m := s.build(Message{To: mail.Address{Address: "ada@example.com"}, Subject: "Hi", Text: "t", HTML: "<p>t</p>"})

	require.Len(t, m.Personalizations, 1)
	assert.Equal(t, "[Academy] Hi", m.Personalizations[0].Subject)
	assert.Equal(t, "ada@example.com", m.Personalizations[0].To[0].Address)
	assert.Len(t, m.Content, 2)
	assert.Equal(t, "no-reply@example.com", m.From.Address)
}
