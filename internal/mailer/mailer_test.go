package mailer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sysu-ecnc-dev/tournament-scheduler/backend/internal/domain"
)

func newTestBuilder(t *testing.T) *Builder {
	t.Helper()

	dir := t.TempDir()
	content := `<p>{{.RunID}} {{.Status}} {{.BestScore}}</p>`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "run_finished_email.html"), []byte(content), 0o644))

	b, err := NewBuilder("noreply@example.com", dir)
	require.NoError(t, err)
	return b
}

func TestNewBuilderMissingTemplate(t *testing.T) {
	_, err := NewBuilder("noreply@example.com", t.TempDir())
	assert.Error(t, err)
}

func TestNewBuilderWithBundledTemplates(t *testing.T) {
	_, err := NewBuilder("noreply@example.com", "../../templates")
	assert.NoError(t, err)
}

func TestBuild(t *testing.T) {
	b := newTestBuilder(t)

	// 模拟从队列反序列化之后的消息
	msg, err := b.Build(domain.MailMessage{
		Type: domain.MailTypeRunFinished,
		To:   "admin@example.com",
		Data: map[string]any{
			"runID":       "5f0c6a4e-8f4c-4c5e-9a77-0d5b3c1a2b3c",
			"status":      "succeeded",
			"bestScore":   -2.0,
			"generations": 200.0,
		},
	})
	require.NoError(t, err)
	assert.NotNil(t, msg)
}

func TestBuildRejectsInvalidMessage(t *testing.T) {
	b := newTestBuilder(t)

	tests := []struct {
		name string
		msg  domain.MailMessage
	}{
		{"unknown type", domain.MailMessage{Type: "create_user", To: "admin@example.com"}},
		{"invalid recipient", domain.MailMessage{Type: domain.MailTypeRunFinished, To: "not an address"}},
		{"invalid data", domain.MailMessage{Type: domain.MailTypeRunFinished, To: "admin@example.com", Data: map[string]any{"generations": "many"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := b.Build(tt.msg)
			assert.Error(t, err)
		})
	}
}

func TestBuildUnknownTypeSentinel(t *testing.T) {
	b := newTestBuilder(t)

	_, err := b.Build(domain.MailMessage{Type: "reset_password", To: "admin@example.com"})
	assert.ErrorIs(t, err, ErrUnknownMailType)
}

func TestDecodeData(t *testing.T) {
	data, err := decodeData(domain.MailMessage{
		Type: domain.MailTypeRunFinished,
		Data: domain.RunFinishedMailData{RunID: "abc", Status: "failed", Error: "排班超时"},
	})
	require.NoError(t, err)

	d, ok := data.(domain.RunFinishedMailData)
	require.True(t, ok)
	assert.Equal(t, "abc", d.RunID)
	assert.Equal(t, "排班超时", d.Error)
}
