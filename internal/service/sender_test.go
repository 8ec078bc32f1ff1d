package service_test

import (
	"bufio"
	"context"
	"net"
	"net/textproto"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gastro-elite/backend/config"
	"github.com/gastro-elite/backend/internal/service"
)

// fakeSMTP accepts one message and returns its DATA section.
func fakeSMTP(t *testing.T) (host, port string, data <-chan string) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	out := make(chan string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		tp := textproto.NewConn(conn)
		reply := func(line string) { _ = tp.PrintfLine("%s", line) }

		reply("220 localhost ESMTP")
		for {
			line, err := tp.ReadLine()
			if err != nil {
				return
			}
			switch cmd := strings.ToUpper(strings.SplitN(line, " ", 2)[0]); cmd {
			case "EHLO", "HELO":
				reply("250 localhost")
			case "DATA":
				reply("354 go ahead")
				body, err := tp.ReadDotBytes()
				if err != nil {
					return
				}
				out <- string(body)
				reply("250 queued")
			case "QUIT":
				reply("221 bye")
				return
			default:
				reply("250 ok")
			}
		}
	}()

	host, port, err = net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	return host, port, out
}

func headerBlock(t *testing.T, raw string) textproto.MIMEHeader {
	t.Helper()
	r := textproto.NewReader(bufio.NewReader(strings.NewReader(raw)))
	h, err := r.ReadMIMEHeader()
	require.NoError(t, err)
	return h
}

func TestSMTPSenderKeepsSubjectOnOneHeader(t *testing.T) {
	host, port, data := fakeSMTP(t)
	sender, err := service.NewSender(context.Background(), &config.Config{
		EmailProvider: "smtp",
		SMTPHost:      host,
		SMTPPort:      port,
		EmailFrom:     "no-reply@gastro-elite.test",
		EmailFromName: "Gastro-Elite",
	})
	require.NoError(t, err)

	err = sender.Send(context.Background(), &service.Message{
		To:      "admin@gastro-elite.test",
		Subject: "New business registration: Acme\r\nBcc: victim@evil.test",
		HTML:    "<p>hello</p>",
	})
	require.NoError(t, err)

	h := headerBlock(t, <-data)
	assert.Empty(t, h.Get("Bcc"))
	assert.Equal(t, []string{"admin@gastro-elite.test"}, h.Values("To"))
	assert.Contains(t, h.Get("Subject"), "Acme")
	assert.Contains(t, h.Get("Subject"), "victim@evil.test")
}

func TestSMTPSenderEncodesNonASCIISubject(t *testing.T) {
	host, port, data := fakeSMTP(t)
	sender, err := service.NewSender(context.Background(), &config.Config{
		EmailProvider: "smtp",
		SMTPHost:      host,
		SMTPPort:      port,
		EmailFrom:     "no-reply@gastro-elite.test",
		EmailFromName: "Gastro-Elite",
	})
	require.NoError(t, err)

	require.NoError(t, sender.Send(context.Background(), &service.Message{
		To:      "owner@cafe.test",
		Subject: "Welcome, Café du Coin",
		HTML:    "<p>bienvenue</p>",
	}))

	subject := headerBlock(t, <-data).Get("Subject")
	assert.True(t, strings.HasPrefix(subject, "=?utf-8?q?"), subject)
	assert.NotContains(t, subject, "é")
}
