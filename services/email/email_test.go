package emailsvc

import (
	"net/mail"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/mentora/core"
)

var testConf = &core.Config{
	AppName:          "Mentora",
	DefaultFromEmail: mail.Address{Name: "Mentora", Address: "no-reply@mentora.test"},
}

func TestConsoleServiceMock(t *testing.T) {
	ResetSentMessages()
	svc := NewConsoleServiceMock(testConf)

	svc.SendMessages(
		&core.EmailMessage{Subject: "no recipient", Body: "body"},
		&core.EmailMessage{To: []mail.Address{{Address: "doc@example.com"}}, Subject: "empty"},
		&core.EmailMessage{To: []mail.Address{{Address: "doc@example.com"}}, Subject: "Password reset", Body: "123456"},
	)

	require.Len(t, SentMessages, 1)
	last, ok := LastSentMessage()
	require.True(t, ok)
	assert.Equal(t, "Password reset", last.Subject)
}

func TestSendgridService_prepare(t *testing.T) {
	svc := NewSendgridService(testConf, nil).(*sendgridService)
	m := svc.prepare(core.EmailMessage{
		To:      []mail.Address{{Name: "Ada Obi", Address: "ada@example.com"}},
		Bcc:     []mail.Address{{Address: "audit@example.com"}},
		Subject: "Password reset",
		Body:    "code",
	})

	require.Len(t, m.Personalizations, 1)
	p := m.Personalizations[0]
	assert.Equal(t, "[Mentora] Password reset", p.Subject)
	require.Len(t, p.To, 1)
	assert.Equal(t, "ada@example.com", p.To[0].Address)
	require.Len(t, p.BCC, 1)
	assert.Equal(t, "no-reply@mentora.test", m.From.Address)
	require.Len(t, m.Content, 1)
	assert.Equal(t, "code", m.Content[0].Value)
}
