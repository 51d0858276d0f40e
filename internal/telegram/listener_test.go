package telegram

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-telegram/bot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/shelfbot/internal/config"
)

type fakeUpdater struct {
	mu         sync.Mutex
	calls      []string
	setParams  *bot.SetWebhookParams
	dropParams *bot.DeleteWebhookParams
	setErr     error
	hits       int
}

func (f *fakeUpdater) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeUpdater) Start(ctx context.Context) {
	f.record("start")
	<-ctx.Done()
}

func (f *fakeUpdater) StartWebhook(ctx context.Context) {
	f.record("start_webhook")
	<-ctx.Done()
}

func (f *fakeUpdater) WebhookHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		f.mu.Lock()
		f.hits++
		f.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}
}

func (f *fakeUpdater) SetWebhook(_ context.Context, p *bot.SetWebhookParams) (bool, error) {
	f.record("set_webhook")
	f.setParams = p
	return f.setErr == nil, f.setErr
}

func (f *fakeUpdater) DeleteWebhook(_ context.Context, p *bot.DeleteWebhookParams) (bool, error) {
	f.record("delete_webhook")
	f.dropParams = p
	return true, nil
}

func (f *fakeUpdater) snapshot() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func TestListener_Polling(t *testing.T) {
	t.Parallel()
	up := &fakeUpdater{}
	l := NewListener(up, config.TelegramConfig{Mode: config.ModePolling, DropPendingUpdates: true}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	require.Eventually(t, func() bool { return len(up.snapshot()) == 2 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("listener did not stop")
	}
	assert.Equal(t, []string{"delete_webhook", "start"}, up.snapshot())
	assert.True(t, up.dropParams.DropPendingUpdates)
}

func TestListener_Webhook(t *testing.T) {
	t.Parallel()
	up := &fakeUpdater{}
	cfg := config.TelegramConfig{
		Mode:        config.ModeWebhook,
		WebhookURL:  "https://example.com/hook",
		SecretToken: "s3cret",
	}
	l := NewListener(up, cfg, nil)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.serveWebhook(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Post("http://"+ln.Addr().String()+"/", "application/json", strings.NewReader("{}"))
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("webhook listener did not stop")
	}

	assert.Equal(t, "https://example.com/hook", up.setParams.URL)
	assert.Equal(t, "s3cret", up.setParams.SecretToken)
	assert.Contains(t, up.snapshot(), "start_webhook")
	assert.Positive(t, up.hits)
}

func TestListener_WebhookRegistrationFailure(t *testing.T) {
	t.Parallel()
	up := &fakeUpdater{setErr: errors.New("bad url")}
	l := NewListener(up, config.TelegramConfig{Mode: config.ModeWebhook, WebhookURL: "https://x"}, nil)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	err = l.serveWebhook(context.Background(), ln)
	require.Error(t, err)
	assert.NotContains(t, up.snapshot(), "start_webhook")
}

func TestListener_UnknownMode(t *testing.T) {
	t.Parallel()
	l := NewListener(&fakeUpdater{}, config.TelegramConfig{Mode: "carrier-pigeon"}, nil)
	assert.Error(t, l.Run(context.Background()))
}

func TestMaskToken(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "***", maskToken("short"))
	assert.Equal(t, "12345678...", maskToken("12345678:ABCDEF"))
}
