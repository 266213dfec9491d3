// Package dispatcher sends user input to the Talk2Trade backend and routes the
// replies into the chat log.
//
// Every operation mutates the log synchronously and returns a tea.Cmd that
// performs the network call; Handle applies the result when it comes back on
// the update loop.
package dispatcher

import (
	"context"
	"strings"
	"time"

	"talk2trade/src/components/input"
	"talk2trade/src/models"
	"talk2trade/src/services/formatter"
	"talk2trade/src/session"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

const (
	ChatErrorMessage  = "Sorry, I encountered an error. Please try again."
	AudioErrorMessage = "Sorry, I encountered an error processing your audio. Please try again."

	// audioPlaceholder stands in for an empty transcript.
	audioPlaceholder = "[Audio Message]"
)

// Backend is the subset of the HTTP client the dispatcher needs.
type Backend interface {
	Chat(ctx context.Context, req models.ChatRequest) (*models.ChatResponse, error)
	UploadAudio(ctx context.Context, conversationID string, blob models.AudioBlob) (*models.AudioResponse, error)
	Conversation(ctx context.Context, conversationID string) ([]models.ConversationMessage, error)
	MarketStatus(ctx context.Context) (*models.MarketStatus, error)
	EventCategories(ctx context.Context) (*models.CategoriesResponse, error)
}

// ChatView is the chat log as seen by the dispatcher.
type ChatView interface {
	AppendMessage(role models.Role, content string)
	ShowTyping() tea.Cmd
	HideTyping()
	Clear()
}

// Options tunes outgoing requests.
type Options struct {
	Timeout        time.Duration // per request
	RefreshMarkets bool          // refresh_markets flag on chat requests
}

// Dispatcher owns the pending-request state. It is used only from the update loop.
type Dispatcher struct {
	ctx     context.Context
	backend Backend
	view    ChatView
	session *session.Session
	opts    Options
	logger  *zap.Logger

	pending    bool
	generation uint64
}

// New creates a dispatcher. ctx is the application context; cancelling it
// aborts every in-flight request.
func New(ctx context.Context, backend Backend, view ChatView, sess *session.Session, opts Options, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 90 * time.Second
	}
	return &Dispatcher{
		ctx:     ctx,
		backend: backend,
		view:    view,
		session: sess,
		opts:    opts,
		logger:  logger.Named("dispatcher"),
	}
}

// Pending reports whether a request is in flight.
func (d *Dispatcher) Pending() bool { return d.pending }

func (d *Dispatcher) ConversationID() string { return d.session.ConversationID() }

// SendMessage echoes text and asks the backend for a reply. Blank text and
// sends while another request is pending are ignored. Slash-commands are routed
// to the market and category displays instead of the chat endpoint.
func (d *Dispatcher) SendMessage(text string) tea.Cmd {
	text = strings.TrimSpace(text)
	if text == "" || d.pending {
		return nil
	}

	switch input.ParseCommand(text) {
	case input.CommandMarkets:
		d.view.AppendMessage(models.RoleUser, text)
		return d.DisplayMarketData()
	case input.CommandCategories:
		d.view.AppendMessage(models.RoleUser, text)
		return d.DisplayEventCategories()
	}

	d.view.AppendMessage(models.RoleUser, text)
	typing := d.begin()

	req := models.ChatRequest{
		Message:        text,
		ConversationID: d.session.ConversationID(),
		RefreshMarkets: d.opts.RefreshMarkets,
	}
	gen := d.generation
	call := func() tea.Msg {
		ctx, cancel := d.requestContext()
		defer cancel()
		resp, err := d.backend.Chat(ctx, req)
		return ChatReplyMsg{gen: gen, Response: resp, Err: err}
	}
	return tea.Batch(typing, call)
}

// SendAudioMessage uploads a recording. An empty recording is not uploaded and
// produces the audio error message.
func (d *Dispatcher) SendAudioMessage(blob models.AudioBlob) tea.Cmd {
	if d.pending {
		return nil
	}
	if blob.Empty() {
		d.logger.Warn("empty recording, not uploading")
		d.view.AppendMessage(models.RoleAssistant, AudioErrorMessage)
		return nil
	}

	typing := d.begin()
	conversationID := d.session.ConversationID()
	gen := d.generation
	call := func() tea.Msg {
		ctx, cancel := d.requestContext()
		defer cancel()
		resp, err := d.backend.UploadAudio(ctx, conversationID, blob)
		return AudioReplyMsg{gen: gen, Response: resp, Err: err}
	}
	return tea.Batch(typing, call)
}

// StartNewChat switches to a fresh conversation id and clears the log. Replies
// to earlier requests are discarded when they arrive.
func (d *Dispatcher) StartNewChat() {
	id := d.session.NewConversation()
	d.generation++
	d.pending = false
	d.view.Clear()
	d.logger.Info("new conversation", zap.String("conversation_id", id))
}

// LoadConversations replays the active conversation from the backend. The
// replay counts as pending so that no new message lands ahead of the history.
func (d *Dispatcher) LoadConversations() tea.Cmd {
	if d.pending {
		return nil
	}
	d.pending = true
	conversationID := d.session.ConversationID()
	gen := d.generation
	return func() tea.Msg {
		ctx, cancel := d.requestContext()
		defer cancel()
		msgs, err := d.backend.Conversation(ctx, conversationID)
		return ConversationLoadedMsg{gen: gen, Messages: msgs, Err: err}
	}
}

// DisplayMarketData appends the formatted market status.
func (d *Dispatcher) DisplayMarketData() tea.Cmd {
	if d.pending {
		return nil
	}
	typing := d.begin()
	gen := d.generation
	call := func() tea.Msg {
		ctx, cancel := d.requestContext()
		defer cancel()
		status, err := d.backend.MarketStatus(ctx)
		return MarketDataMsg{gen: gen, Status: status, Err: err}
	}
	return tea.Batch(typing, call)
}

// DisplayEventCategories appends the formatted category list.
func (d *Dispatcher) DisplayEventCategories() tea.Cmd {
	if d.pending {
		return nil
	}
	typing := d.begin()
	gen := d.generation
	call := func() tea.Msg {
		ctx, cancel := d.requestContext()
		defer cancel()
		resp, err := d.backend.EventCategories(ctx)
		return CategoriesMsg{gen: gen, Response: resp, Err: err}
	}
	return tea.Batch(typing, call)
}

// Handle applies a result message. It reports false for messages it does not own.
func (d *Dispatcher) Handle(msg tea.Msg) bool {
	switch msg := msg.(type) {
	case ChatReplyMsg:
		if d.stale(msg.gen, "chat") {
			return true
		}
		d.end()
		if msg.Err != nil {
			d.logger.Error("chat request failed", zap.Error(msg.Err), zap.String("conversation_id", d.ConversationID()))
			d.view.AppendMessage(models.RoleAssistant, ChatErrorMessage)
			return true
		}
		d.view.AppendMessage(models.RoleAssistant, msg.Response.Response)

	case AudioReplyMsg:
		if d.stale(msg.gen, "audio") {
			return true
		}
		d.end()
		if msg.Err != nil {
			d.logger.Error("audio request failed", zap.Error(msg.Err), zap.String("conversation_id", d.ConversationID()))
			d.view.AppendMessage(models.RoleAssistant, AudioErrorMessage)
			return true
		}
		transcript := strings.TrimSpace(msg.Response.TranscribedText)
		if transcript == "" {
			transcript = audioPlaceholder
		}
		d.view.AppendMessage(models.RoleUser, transcript)
		d.view.AppendMessage(models.RoleAssistant, msg.Response.Response)

	case MarketDataMsg:
		if d.stale(msg.gen, "markets") {
			return true
		}
		d.end()
		if msg.Err != nil {
			d.logger.Error("market status request failed", zap.Error(msg.Err))
			d.view.AppendMessage(models.RoleAssistant, formatter.MarketDataFailedMessage)
			return true
		}
		d.view.AppendMessage(models.RoleAssistant, formatter.MarketData(msg.Status))

	case CategoriesMsg:
		if d.stale(msg.gen, "categories") {
			return true
		}
		d.end()
		if msg.Err != nil {
			d.logger.Error("categories request failed", zap.Error(msg.Err))
			d.view.AppendMessage(models.RoleAssistant, formatter.CategoriesFailedMessage)
			return true
		}
		if !msg.Response.Success {
			d.logger.Warn("categories endpoint reported failure")
		}
		d.view.AppendMessage(models.RoleAssistant, formatter.EventCategories(msg.Response))

	case ConversationLoadedMsg:
		if msg.gen != d.generation {
			return true
		}
		d.pending = false
		if msg.Err != nil {
			d.logger.Warn("load conversation failed", zap.Error(msg.Err), zap.String("conversation_id", d.ConversationID()))
			return true
		}
		for _, m := range msg.Messages {
			d.view.AppendMessage(models.ParseRole(m.Role), m.Content)
		}
		d.logger.Debug("conversation loaded", zap.Int("messages", len(msg.Messages)))

	default:
		return false
	}
	return true
}

func (d *Dispatcher) begin() tea.Cmd {
	d.pending = true
	return d.view.ShowTyping()
}

func (d *Dispatcher) end() {
	d.pending = false
	d.view.HideTyping()
}

func (d *Dispatcher) stale(gen uint64, op string) bool {
	if gen == d.generation {
		return false
	}
	d.logger.Debug("discarding reply from previous conversation", zap.String("op", op))
	return true
}

func (d *Dispatcher) requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(d.ctx, d.opts.Timeout)
}
