package natsbus

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	subject     string
	data        []byte
	hadDeadline bool
	publishErr  error
}

func (f *fakeConn) Publish(subj string, data []byte) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.subject, f.data = subj, data
	return nil
}

func (f *fakeConn) FlushWithContext(ctx context.Context) error {
	_, f.hadDeadline = ctx.Deadline()
	return nil
}

func (f *fakeConn) Drain() error { return nil }

func TestParseDestination(t *testing.T) {
	tests := []struct {
		name        string
		destination string
		server      string
		subject     string
		wantErr     bool
	}{
		{name: "host and subject", destination: "nats://localhost:4222/pdf.completed", server: "nats://localhost:4222", subject: "pdf.completed"},
		{name: "trailing slash", destination: "nats://nats:4222/results/", server: "nats://nats:4222", subject: "results"},
		{name: "missing subject", destination: "nats://localhost:4222", wantErr: true},
		{name: "nested path", destination: "nats://localhost:4222/a/b", wantErr: true},
		{name: "wrong scheme", destination: "https://sqs.us-east-1.amazonaws.com/1/q", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, subject, err := ParseDestination(tt.destination)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.server, server)
			assert.Equal(t, tt.subject, subject)
		})
	}
}

func TestPublisher_Send(t *testing.T) {
	conn := &fakeConn{}
	p := &Publisher{conn: conn, subject: "pdf.completed", destination: "nats://localhost:4222/pdf.completed"}

	require.NoError(t, p.Send(context.Background(), `{"status":"completed"}`))
	assert.Equal(t, "pdf.completed", conn.subject)
	assert.Equal(t, `{"status":"completed"}`, string(conn.data))
	assert.True(t, conn.hadDeadline)
}

func TestPublisher_SendError(t *testing.T) {
	p := &Publisher{conn: &fakeConn{publishErr: errors.New("connection closed")}, subject: "s"}
	err := p.Send(context.Background(), "{}")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection closed")
}
