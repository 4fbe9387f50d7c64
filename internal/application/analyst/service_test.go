package analyst

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SatvikDB/aegis/internal/domain/ai"
	"github.com/SatvikDB/aegis/internal/domain/detect"
	"github.com/SatvikDB/aegis/internal/domain/sitrep"
	"github.com/SatvikDB/aegis/internal/domain/threat"
	"github.com/SatvikDB/aegis/internal/infra/sitrep/jsonstore"
)

type fakeClock struct{ now time.Time }

func (c fakeClock) Now() time.Time { return c.now }

type fakeAI struct {
	completion  ai.Completion
	err         error
	lastSystem  string
	lastMessage string
	lastHistory []ai.Message
}

func (f *fakeAI) Generate(ctx context.Context, systemPrompt, userMessage string, history []ai.Message) (ai.Completion, error) {
	f.lastSystem = systemPrompt
	f.lastMessage = userMessage
	f.lastHistory = history
	if f.err != nil {
		return ai.Completion{}, f.err
	}
	return f.completion, nil
}

func newTestService(t *testing.T, client ai.Client) *Service {
	t.Helper()
	return &Service{
		Client: client,
		Store:  jsonstore.New(filepath.Join(t.TempDir(), "store.json")),
		Clock:  fakeClock{now: time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)},
		Retain: 100,
	}
}

func sampleDetections() ([]detect.Detection, threat.Report) {
	detections := []detect.Detection{
		{ClassName: "tank", Confidence: 0.9, Risk: detect.RiskHigh,
			Box: detect.NewBox(10, 10, 100, 100)},
	}
	return detections, threat.Assess(detections)
}

func TestGenerateAndStore(t *testing.T) {
	client := &fakeAI{completion: ai.Completion{
		Text: "SITREP: one tank detected.", Model: "gpt-4o-mini", Tokens: 150,
	}}
	svc := newTestService(t, client)
	detections, report := sampleDetections()

	result := svc.GenerateAndStore(context.Background(), "scan-1", detections, report, 640, 480, 15)

	assert.True(t, result.Success)
	assert.Equal(t, "SITREP: one tank detected.", result.Sitrep)
	assert.Equal(t, 150, result.Tokens)
	assert.Empty(t, result.Error)
	assert.Contains(t, client.lastMessage, "TANK [HIGH RISK]")

	artifact, err := svc.Store.Get(context.Background(), "scan-1")
	require.NoError(t, err)
	assert.Equal(t, "SITREP: one tank detected.", artifact.Sitrep)
	assert.Contains(t, artifact.DetectionContext, "Resolution: 640x480")
}

func TestGenerateAndStoreDisabled(t *testing.T) {
	svc := newTestService(t, nil)
	detections, report := sampleDetections()

	result := svc.GenerateAndStore(context.Background(), "scan-1", detections, report, 640, 480, 15)

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "disabled")

	// the artifact is stored anyway so chat context survives
	artifact, err := svc.Store.Get(context.Background(), "scan-1")
	require.NoError(t, err)
	assert.Empty(t, artifact.Sitrep)
	assert.NotEmpty(t, artifact.DetectionContext)
}

func TestGenerateAndStoreLLMError(t *testing.T) {
	svc := newTestService(t, &fakeAI{err: errors.New("timeout")})
	detections, report := sampleDetections()

	result := svc.GenerateAndStore(context.Background(), "scan-1", detections, report, 640, 480, 15)

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "timeout")

	_, err := svc.Store.Get(context.Background(), "scan-1")
	assert.NoError(t, err)
}

func TestChat(t *testing.T) {
	client := &fakeAI{completion: ai.Completion{Text: "Two tanks, northeast.", Tokens: 80}}
	svc := newTestService(t, client)
	detections, report := sampleDetections()
	svc.GenerateAndStore(context.Background(), "scan-1", detections, report, 640, 480, 15)

	result, err := svc.Chat(context.Background(), "scan-1", "where are they?")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "Two tanks, northeast.", result.Answer)

	// system prompt carries the scan context
	assert.Contains(t, client.lastSystem, "Scan ID: scan-1")
	assert.Contains(t, client.lastSystem, "Resolution: 640x480")

	// both turns recorded
	history, err := svc.Store.ChatHistory(context.Background(), "scan-1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "user", history[0].Role)
	assert.Equal(t, "assistant", history[1].Role)

	// second question sees prior turns
	_, err = svc.Chat(context.Background(), "scan-1", "confidence?")
	require.NoError(t, err)
	require.Len(t, client.lastHistory, 2)
	assert.Equal(t, "where are they?", client.lastHistory[0].Content)
}

func TestChatUnknownScan(t *testing.T) {
	svc := newTestService(t, &fakeAI{})
	_, err := svc.Chat(context.Background(), "ghost", "hello?")
	assert.ErrorIs(t, err, sitrep.ErrNotFound)
}

func TestChatDisabled(t *testing.T) {
	svc := newTestService(t, nil)
	result, err := svc.Chat(context.Background(), "scan-1", "hello?")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "disabled")
}

func TestChatLLMErrorRecordsNothing(t *testing.T) {
	client := &fakeAI{completion: ai.Completion{Text: "ok"}}
	svc := newTestService(t, client)
	detections, report := sampleDetections()
	svc.GenerateAndStore(context.Background(), "scan-1", detections, report, 640, 480, 15)

	client.err = errors.New("quota")
	_, err := svc.Chat(context.Background(), "scan-1", "anything?")
	require.Error(t, err)

	history, err := svc.Store.ChatHistory(context.Background(), "scan-1")
	require.NoError(t, err)
	assert.Empty(t, history)
}
