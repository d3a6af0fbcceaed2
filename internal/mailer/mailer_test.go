package mailer

import (
	"bytes"
	"context"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// silentRelay accepts SMTP connections and never sends a greeting.
func silentRelay(t *testing.T) (string, int) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	var mu sync.Mutex
	var conns []net.Conn
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			mu.Lock()
			conns = append(conns, conn)
			mu.Unlock()
		}
	}()
	t.Cleanup(func() {
		_ = ln.Close()
		mu.Lock()
		defer mu.Unlock()
		for _, c := range conns {
			_ = c.Close()
		}
	})

	host, portStr, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return host, port
}

func TestSMTPMailer_Message(t *testing.T) {
	m := NewSMTPMailer("mail.example.com", 587, "user", "pass", "no-reply@example.com", 0)
	assert.Equal(t, defaultSMTPTimeout, m.timeout)

	out, err := m.message(Message{To: "a@b.com", Subject: "Reset", Body: "line1\nline2"})
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = out.WriteTo(&buf)
	require.NoError(t, err)
	rendered := buf.String()
	assert.Contains(t, rendered, "From: <no-reply@example.com>")
	assert.Contains(t, rendered, "To: <a@b.com>")
	assert.Contains(t, rendered, "Subject: Reset")
	assert.Contains(t, rendered, "line1")
}

func TestSMTPMailer_EncodesSubject(t *testing.T) {
	m := NewSMTPMailer("localhost", 25, "", "", "x@example.com", time.Second)

	out, err := m.message(Message{To: "a@b.com", Subject: "Réinitialiser", Body: "x"})
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = out.WriteTo(&buf)
	require.NoError(t, err)
	headers, _, _ := strings.Cut(buf.String(), "\r\n\r\n")
	assert.Contains(t, headers, "=?UTF-8?")
	assert.NotContains(t, headers, "Réinitialiser")
}

func TestSMTPMailer_InvalidAddresses(t *testing.T) {
	m := NewSMTPMailer("localhost", 25, "", "", "x@example.com", time.Second)
	assert.ErrorContains(t, m.Send(context.Background(), Message{To: "not an address"}), "invalid recipient")

	bad := NewSMTPMailer("localhost", 25, "", "", "nobody", time.Second)
	assert.ErrorContains(t, bad.Send(context.Background(), Message{To: "a@b.com"}), "invalid sender")
}

func TestSMTPMailer_CanceledContext(t *testing.T) {
	m := NewSMTPMailer("localhost", 25, "", "", "x@example.com", time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, m.Send(ctx, Message{To: "a@b.com"}), context.Canceled)
}

func TestSMTPMailer_RelayThatNeverAnswers(t *testing.T) {
	host, port := silentRelay(t)
	msg := Message{To: "a@b.com", Subject: "Reset", Body: "x"}

	t.Run("timeout", func(t *testing.T) {
		m := NewSMTPMailer(host, port, "", "", "x@example.com", 200*time.Millisecond)
		start := time.Now()
		assert.Error(t, m.Send(context.Background(), msg))
		assert.Less(t, time.Since(start), 5*time.Second)
	})

	t.Run("request context ends", func(t *testing.T) {
		m := NewSMTPMailer(host, port, "", "", "x@example.com", time.Minute)
		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		defer cancel()
		start := time.Now()
		assert.Error(t, m.Send(ctx, msg))
		assert.Less(t, time.Since(start), 5*time.Second)
	})
}

func TestLogMailer(t *testing.T) {
	msg := Message{To: "a@b.com", Subject: "Hi", Body: "reset-link-token"}

	var info bytes.Buffer
	require.NoError(t, NewLogMailer(zerolog.New(&info).Level(zerolog.InfoLevel)).Send(context.Background(), msg))
	assert.Contains(t, info.String(), `"to":"a@b.com"`)
	assert.Contains(t, info.String(), `"subject":"Hi"`)
	assert.NotContains(t, info.String(), "reset-link-token")

	var debug bytes.Buffer
	require.NoError(t, NewLogMailer(zerolog.New(&debug).Level(zerolog.DebugLevel)).Send(context.Background(), msg))
	assert.Contains(t, debug.String(), "reset-link-token")
}
