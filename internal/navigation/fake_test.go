package navigation_test

import (
	"context"
	"sync"
	"time"

	"github.com/edgard/shelfbot/internal/assets"
	"github.com/edgard/shelfbot/internal/catalog"
	"github.com/edgard/shelfbot/internal/navigation"
)

type call struct {
	Op   string
	Chat navigation.ChatID
	Ref  navigation.MessageRef
	Text string
}

// recordingGateway hands out increasing message ids and records every call.
type recordingGateway struct {
	mu      sync.Mutex
	next    navigation.MessageRef
	calls   []call
	delay   map[navigation.ChatID]time.Duration
	sendErr map[string]error
	delErr  error
	ackErr  error
}

func newRecordingGateway() *recordingGateway {
	return &recordingGateway{
		delay:   make(map[navigation.ChatID]time.Duration),
		sendErr: make(map[string]error),
	}
}

func (g *recordingGateway) wait(chatID navigation.ChatID) {
	g.mu.Lock()
	d := g.delay[chatID]
	g.mu.Unlock()
	if d > 0 {
		time.Sleep(d)
	}
}

func (g *recordingGateway) send(op string, chatID navigation.ChatID, text string) (navigation.MessageRef, error) {
	g.wait(chatID)
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.sendErr[op]; err != nil {
		g.calls = append(g.calls, call{Op: op + "_failed", Chat: chatID, Text: text})
		return 0, err
	}
	g.next++
	g.calls = append(g.calls, call{Op: op, Chat: chatID, Ref: g.next, Text: text})
	return g.next, nil
}

func (g *recordingGateway) SendText(_ context.Context, chatID navigation.ChatID, text string, _ catalog.Keyboard) (navigation.MessageRef, error) {
	return g.send("text", chatID, text)
}

func (g *recordingGateway) SendPhoto(_ context.Context, chatID navigation.ChatID, photo assets.Asset, caption string, _ catalog.Keyboard) (navigation.MessageRef, error) {
	return g.send("photo", chatID, photo.Name+"|"+caption)
}

func (g *recordingGateway) SendDocument(_ context.Context, chatID navigation.ChatID, doc assets.Asset, caption string) (navigation.MessageRef, error) {
	return g.send("document", chatID, doc.Name+"|"+caption)
}

func (g *recordingGateway) DeleteMessage(_ context.Context, chatID navigation.ChatID, ref navigation.MessageRef) error {
	g.wait(chatID)
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, call{Op: "delete", Chat: chatID, Ref: ref})
	return g.delErr
}

func (g *recordingGateway) Acknowledge(_ context.Context, interactionID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, call{Op: "ack", Text: interactionID})
	return g.ackErr
}

func (g *recordingGateway) snapshot() []call {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]call, len(g.calls))
	copy(out, g.calls)
	return out
}

// refs returns the message ids of calls matching op for chatID, in order.
func (g *recordingGateway) refs(op string, chatID navigation.ChatID) []navigation.MessageRef {
	var out []navigation.MessageRef
	for _, c := range g.snapshot() {
		if c.Op == op && c.Chat == chatID {
			out = append(out, c.Ref)
		}
	}
	return out
}

func (g *recordingGateway) count(op string) int {
	n := 0
	for _, c := range g.snapshot() {
		if c.Op == op {
			n++
		}
	}
	return n
}

type fakeAssets struct {
	books map[string]bool
	media map[string]bool
}

func (f fakeAssets) Book(name string) (assets.Asset, bool) {
	if f.books[name] {
		return assets.Asset{Name: name, Path: "books/" + name}, true
	}
	return assets.Asset{}, false
}

func (f fakeAssets) Media(name string) (assets.Asset, bool) {
	if f.media[name] {
		return assets.Asset{Name: name, Path: "media/" + name}, true
	}
	return assets.Asset{}, false
}

func allBooks() fakeAssets {
	return fakeAssets{books: map[string]bool{
		"Управляй или Подчиняйся.pdf": true,
		"Код Денег.pdf":               true,
	}}
}

// fixedScreens renders every screen with the same spec.
type fixedScreens struct {
	spec catalog.RenderSpec
}

func (f fixedScreens) Render(catalog.ScreenID) (catalog.RenderSpec, error) {
	return f.spec, nil
}
