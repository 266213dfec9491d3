package dispatcher

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"talk2trade/src/models"
	"talk2trade/src/services/formatter"
	"talk2trade/src/session"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ===== fakes =====

type fakeBackend struct {
	mu    sync.Mutex
	calls map[string]int

	chatReq    models.ChatRequest
	audioConv  string
	chatResp   *models.ChatResponse
	chatErr    error
	audioResp  *models.AudioResponse
	audioErr   error
	history    []models.ConversationMessage
	historyErr error
	status     *models.MarketStatus
	statusErr  error
	categories *models.CategoriesResponse
	catErr     error
	deadline   bool
}

func (f *fakeBackend) record(op string, ctx context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[op]++
	_, f.deadline = ctx.Deadline()
}

func (f *fakeBackend) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeBackend) Chat(ctx context.Context, req models.ChatRequest) (*models.ChatResponse, error) {
	f.record("chat", ctx)
	f.chatReq = req
	return f.chatResp, f.chatErr
}

func (f *fakeBackend) UploadAudio(ctx context.Context, conversationID string, _ models.AudioBlob) (*models.AudioResponse, error) {
	f.record("audio", ctx)
	f.audioConv = conversationID
	return f.audioResp, f.audioErr
}

func (f *fakeBackend) Conversation(ctx context.Context, _ string) ([]models.ConversationMessage, error) {
	f.record("conversation", ctx)
	return f.history, f.historyErr
}

func (f *fakeBackend) MarketStatus(ctx context.Context) (*models.MarketStatus, error) {
	f.record("markets", ctx)
	return f.status, f.statusErr
}

func (f *fakeBackend) EventCategories(ctx context.Context) (*models.CategoriesResponse, error) {
	f.record("categories", ctx)
	return f.categories, f.catErr
}

type entry struct {
	Role    models.Role
	Content string
}

type fakeView struct {
	entries []entry
	typing  bool
	clears  int
}

func (v *fakeView) AppendMessage(role models.Role, content string) {
	v.entries = append(v.entries, entry{role, content})
}

func (v *fakeView) ShowTyping() tea.Cmd { v.typing = true; return nil }
func (v *fakeView) HideTyping()         { v.typing = false }
func (v *fakeView) Clear()              { v.entries = nil; v.typing = false; v.clears++ }

// ===== helpers =====

func newTestDispatcher(t *testing.T, backend *fakeBackend) (*Dispatcher, *fakeView) {
	t.Helper()
	view := &fakeView{}
	sess := session.New(func() time.Time { return time.UnixMilli(1700000000000) })
	d := New(context.Background(), backend, view, sess, Options{Timeout: time.Second, RefreshMarkets: true}, nil)
	return d, view
}

// run executes cmd, expanding batches, and returns the messages produced.
func run(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, run(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

func deliver(d *Dispatcher, msgs []tea.Msg) {
	for _, m := range msgs {
		d.Handle(m)
	}
}

// ===== tests =====

func TestSendMessage(t *testing.T) {
	backend := &fakeBackend{chatResp: &models.ChatResponse{Response: "Markets are up."}}
	d, view := newTestDispatcher(t, backend)

	cmd := d.SendMessage("  how are markets?  ")

	require.Len(t, view.entries, 1)
	assert.Equal(t, entry{models.RoleUser, "how are markets?"}, view.entries[0])
	assert.True(t, view.typing)
	assert.True(t, d.Pending())

	deliver(d, run(cmd))

	want := []entry{
		{models.RoleUser, "how are markets?"},
		{models.RoleAssistant, "Markets are up."},
	}
	if diff := cmp.Diff(want, view.entries); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}
	assert.False(t, view.typing)
	assert.False(t, d.Pending())
	assert.Equal(t, 1, backend.count("chat"))
	assert.Equal(t, models.ChatRequest{Message: "how are markets?", ConversationID: "default", RefreshMarkets: true}, backend.chatReq)
	assert.True(t, backend.deadline)
}

func TestSendMessageBlank(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\t"} {
		backend := &fakeBackend{}
		d, view := newTestDispatcher(t, backend)

		assert.Nil(t, d.SendMessage(text))
		assert.Empty(t, view.entries)
		assert.Zero(t, backend.count("chat"))
	}
}

func TestSendMessageFailure(t *testing.T) {
	backend := &fakeBackend{chatErr: &models.TransportError{Op: "chat", Err: errors.New("connection refused")}}
	d, view := newTestDispatcher(t, backend)

	deliver(d, run(d.SendMessage("hello")))

	want := []entry{
		{models.RoleUser, "hello"},
		{models.RoleAssistant, ChatErrorMessage},
	}
	assert.Equal(t, want, view.entries)
	assert.False(t, view.typing)
	assert.False(t, d.Pending())
}

func TestSendMessageRejectedWhilePending(t *testing.T) {
	backend := &fakeBackend{chatResp: &models.ChatResponse{Response: "ok"}}
	d, view := newTestDispatcher(t, backend)

	first := d.SendMessage("one")
	assert.Nil(t, d.SendMessage("two"))
	assert.Nil(t, d.DisplayMarketData())
	assert.Len(t, view.entries, 1)

	deliver(d, run(first))
	assert.Equal(t, 1, backend.count("chat"))
	assert.NotNil(t, d.SendMessage("three"))
}

func TestCommandsBypassChat(t *testing.T) {
	tests := []struct {
		text string
		op   string
		want string
	}{
		{"/markets", "markets", formatter.NoMarketDataMessage},
		{"/MARKETS", "markets", formatter.NoMarketDataMessage},
		{"/CATEGORIES", "categories", formatter.CategoriesFailedMessage},
		{" /categories ", "categories", formatter.CategoriesFailedMessage},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			backend := &fakeBackend{
				status:     &models.MarketStatus{Status: "no_data"},
				categories: &models.CategoriesResponse{Success: false},
			}
			d, view := newTestDispatcher(t, backend)

			deliver(d, run(d.SendMessage(tt.text)))

			assert.Zero(t, backend.count("chat"))
			assert.Equal(t, 1, backend.count(tt.op))
			require.Len(t, view.entries, 2)
			assert.Equal(t, models.RoleUser, view.entries[0].Role)
			assert.Equal(t, entry{models.RoleAssistant, tt.want}, view.entries[1])
			assert.Equal(t, "default", d.ConversationID())
		})
	}
}

func TestDisplayMarketData(t *testing.T) {
	backend := &fakeBackend{status: &models.MarketStatus{Status: "data_available", MarketsCount: 12}}
	d, view := newTestDispatcher(t, backend)

	deliver(d, run(d.DisplayMarketData()))

	require.Len(t, view.entries, 1)
	assert.Contains(t, view.entries[0].Content, "Active markets: 12")

	backend.statusErr = &models.DecodeError{Op: "markets", Err: errors.New("unexpected EOF")}
	deliver(d, run(d.DisplayMarketData()))
	assert.Equal(t, formatter.MarketDataFailedMessage, view.entries[1].Content)
}

func TestDisplayEventCategories(t *testing.T) {
	backend := &fakeBackend{categories: &models.CategoriesResponse{
		Success:    true,
		Categories: []string{"beta", "alpha", "Banana"},
	}}
	d, view := newTestDispatcher(t, backend)

	deliver(d, run(d.DisplayEventCategories()))
	require.Len(t, view.entries, 1)
	assert.Contains(t, view.entries[0].Content, "**A**")

	backend.catErr = errors.New("boom")
	deliver(d, run(d.DisplayEventCategories()))
	assert.Equal(t, formatter.CategoriesFailedMessage, view.entries[1].Content)
}

func TestSendAudioMessage(t *testing.T) {
	backend := &fakeBackend{audioResp: &models.AudioResponse{TranscribedText: "what about BTC", Response: "BTC is flat."}}
	d, view := newTestDispatcher(t, backend)

	cmd := d.SendAudioMessage(models.NewAudioBlob([][]byte{[]byte("RIFF")}))
	assert.True(t, view.typing)
	deliver(d, run(cmd))

	want := []entry{
		{models.RoleUser, "what about BTC"},
		{models.RoleAssistant, "BTC is flat."},
	}
	assert.Equal(t, want, view.entries)
	assert.Equal(t, "default", backend.audioConv)
	assert.False(t, view.typing)
}

func TestSendAudioMessageFailure(t *testing.T) {
	backend := &fakeBackend{audioErr: &models.StatusError{Op: "audio", Status: 500}}
	d, view := newTestDispatcher(t, backend)

	deliver(d, run(d.SendAudioMessage(models.NewAudioBlob([][]byte{[]byte("RIFF")}))))

	assert.Equal(t, []entry{{models.RoleAssistant, AudioErrorMessage}}, view.entries)
	assert.False(t, view.typing)
}

func TestSendAudioMessageEmptyBlob(t *testing.T) {
	backend := &fakeBackend{}
	d, view := newTestDispatcher(t, backend)

	assert.Nil(t, d.SendAudioMessage(models.NewAudioBlob(nil)))
	assert.Zero(t, backend.count("audio"))
	assert.Equal(t, []entry{{models.RoleAssistant, AudioErrorMessage}}, view.entries)
}

func TestStartNewChat(t *testing.T) {
	backend := &fakeBackend{chatResp: &models.ChatResponse{Response: "late reply"}}
	d, view := newTestDispatcher(t, backend)
	before := d.ConversationID()

	cmd := d.SendMessage("hello")
	d.StartNewChat()

	assert.NotEqual(t, before, d.ConversationID())
	assert.Equal(t, 1, view.clears)
	assert.Empty(t, view.entries)
	assert.False(t, d.Pending())

	deliver(d, run(cmd))
	assert.Empty(t, view.entries, "reply from the previous conversation must be dropped")

	d.StartNewChat()
	assert.NotEqual(t, before, d.ConversationID())
}

func TestLoadConversations(t *testing.T) {
	backend := &fakeBackend{history: []models.ConversationMessage{
		{Role: "user", Content: "hi"},
		{Role: "assistant", Content: "hello"},
	}}
	d, view := newTestDispatcher(t, backend)

	deliver(d, run(d.LoadConversations()))

	assert.Equal(t, []entry{
		{models.RoleUser, "hi"},
		{models.RoleAssistant, "hello"},
	}, view.entries)
}

func TestLoadConversationsFailure(t *testing.T) {
	backend := &fakeBackend{historyErr: errors.New("offline")}
	d, view := newTestDispatcher(t, backend)

	deliver(d, run(d.LoadConversations()))
	assert.Empty(t, view.entries)
	assert.False(t, d.Pending())
}

func TestLoadConversationsBlocksSends(t *testing.T) {
	backend := &fakeBackend{
		history:  []models.ConversationMessage{{Role: "user", Content: "earlier"}},
		chatResp: &models.ChatResponse{Response: "ok"},
	}
	d, view := newTestDispatcher(t, backend)

	load := d.LoadConversations()
	assert.True(t, d.Pending())
	assert.Nil(t, d.SendMessage("newer"))
	assert.Nil(t, d.LoadConversations())
	assert.Empty(t, view.entries)

	deliver(d, run(load))
	assert.False(t, d.Pending())

	deliver(d, run(d.SendMessage("newer")))
	assert.Equal(t, []entry{
		{models.RoleUser, "earlier"},
		{models.RoleUser, "newer"},
		{models.RoleAssistant, "ok"},
	}, view.entries)
}

func TestHandleIgnoresForeignMessages(t *testing.T) {
	d, _ := newTestDispatcher(t, &fakeBackend{})
	assert.False(t, d.Handle(tea.WindowSizeMsg{}))
}
