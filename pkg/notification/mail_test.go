package notification

import (
	"errors"
	"net/smtp"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMail_Notify(t *testing.T) {
	mail := NewMail(MailParams{
		SMTPServerPort:    587,
		SMTPServerAddress: "smtp.example.com",
		To:                "ops@example.com",
		From:              "bot@example.com",
		Password:          "secret",
	})

	var addr string
	var body []byte
	mail.send = func(a string, _ smtp.Auth, from string, to []string, msg []byte) error {
		addr = a
		body = msg
		require.Equal(t, "bot@example.com", from)
		require.Equal(t, []string{"ops@example.com"}, to)
		return nil
	}

	mail.Notify("parse error from @trader: ADD")
	require.Equal(t, "smtp.example.com:587", addr)
	require.Contains(t, string(body), "Subject: Price alert bot")
	require.Contains(t, string(body), "parse error from @trader: ADD")

	mail.OnError(errors.New("storage offline"))
	require.Contains(t, string(body), "Subject: 🛑 ERROR")
	require.Contains(t, string(body), "storage offline")
}
