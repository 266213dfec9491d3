// Package app provides the root Bubble Tea model of the Talk2Trade client.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"talk2trade/src/components/chat"
	"talk2trade/src/components/input"
	"talk2trade/src/components/modals/dialogs"
	"talk2trade/src/config"
	"talk2trade/src/models"
	"talk2trade/src/services/dispatcher"
	"talk2trade/src/services/recorder"
	"talk2trade/src/session"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
)

// =====================================================================================
// 🚀 Talk2Trade application – layout and event routing
// =====================================================================================
// Layout, top to bottom: header, chat log, status line (recording indicator),
// input box, key help. Alerts and the key overlay replace the whole screen
// until dismissed.

const (
	MicrophoneDeniedMessage = "Unable to access microphone. Please check permissions."

	statusReady     = "🟢 Ready"
	statusWaiting   = "⏳ Waiting for response"
	statusRecording = "🔴 Recording"

	minWidth  = 40
	minHeight = 12
)

var clipboardWriteAll = clipboard.WriteAll

// Options wires the application to its collaborators.
type Options struct {
	Config  *config.Config
	Backend dispatcher.Backend
	Device  recorder.CaptureDevice
	Session *session.Session
	Logger  *zap.Logger
}

// recordToggledMsg reports the result of a recorder transition.
type recordToggledMsg struct {
	transition recorder.Transition
	err        error
}

type recordTickMsg struct{}

// App is the root model.
type App struct {
	ctx        context.Context
	log        *chat.Log
	input      input.Model
	dispatcher *dispatcher.Dispatcher
	recorder   *recorder.Recorder
	keys       keyMap
	help       help.Model
	alert      *dialogs.AlertModal
	keysModal  *dialogs.HelpModal
	toggling   bool
	notice     string
	width      int
	height     int

	headerStyle    lipgloss.Style
	noticeStyle    lipgloss.Style
	recordingStyle lipgloss.Style
	inputStyle     lipgloss.Style
	footerStyle    lipgloss.Style
	logger         *zap.Logger
}

// New builds the application. ctx bounds every request and is cancelled on exit.
func New(ctx context.Context, opts Options) *App {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	sess := opts.Session
	if sess == nil {
		sess = session.New(nil)
	}

	device := opts.Device
	if device == nil {
		device = recorder.NewExecDevice(cfg.Audio, logger)
	}

	log := chat.New(cfg.UI.GlamourStyle)
	d := dispatcher.New(ctx, opts.Backend, log, sess, dispatcher.Options{
		Timeout:        cfg.Backend.Timeout,
		RefreshMarkets: cfg.Backend.RefreshMarkets,
	}, logger)

	return &App{
		ctx:            ctx,
		log:            log,
		input:          input.New(cfg.UI.RowUnits, cfg.UI.MaxInputUnits),
		dispatcher:     d,
		recorder:       recorder.New(device, logger),
		keys:           defaultKeyMap(),
		help:           help.New(),
		width:          80,
		height:         24,
		headerStyle:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("33")).Padding(0, 1),
		noticeStyle:    lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Padding(0, 1),
		recordingStyle: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")).Padding(0, 1),
		inputStyle:     lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")),
		footerStyle:    lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Padding(0, 1),
		logger:         logger.Named("app"),
	}
}

// Init replays the active conversation.
func (a *App) Init() tea.Cmd {
	a.logger.Info("starting", zap.String("conversation_id", a.dispatcher.ConversationID()))
	load := a.dispatcher.LoadConversations()
	return tea.Batch(textarea.Blink, load, a.syncInput())
}

// Update routes messages to the dialogs, the dispatcher and the child views.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.OnResize(msg.Width, msg.Height)
		return a, nil

	case dialogs.ClosedMsg:
		a.alert = nil
		a.keysModal = nil
		return a, a.syncInput()

	case recordToggledMsg:
		return a, a.handleToggled(msg)

	case recordTickMsg:
		if a.recorder.State() == recorder.Recording {
			return a, recordTick()
		}
		return a, nil

	case input.SubmitMsg:
		cmds = append(cmds, a.dispatcher.SendMessage(msg.Text), a.syncInput())
		a.layout()
		return a, tea.Batch(cmds...)

	case tea.KeyMsg:
		return a, a.handleKey(msg)

	case tea.MouseMsg:
		return a, a.log.Update(msg)
	}

	if a.dispatcher.Handle(msg) {
		return a, a.syncInput()
	}

	cmds = append(cmds, a.log.Update(msg))
	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	cmds = append(cmds, cmd)
	return a, tea.Batch(cmds...)
}

func (a *App) handleKey(msg tea.KeyMsg) tea.Cmd {
	if key.Matches(msg, a.keys.Quit) {
		a.recorder.Shutdown()
		a.logger.Info("quit requested")
		return tea.Quit
	}
	if a.alert != nil {
		return a.alert.Update(msg)
	}
	if a.keysModal != nil {
		return a.keysModal.Update(msg)
	}
	a.notice = ""

	switch {
	case key.Matches(msg, a.keys.Record):
		return a.toggleRecording()

	case key.Matches(msg, a.keys.NewChat):
		a.dispatcher.StartNewChat()
		a.input.Reset()
		a.notice = "✨ New conversation " + a.dispatcher.ConversationID()
		a.layout()
		return a.syncInput()

	case key.Matches(msg, a.keys.Copy):
		a.copyLastReply()
		return nil

	case key.Matches(msg, a.keys.Help):
		a.help.ShowAll = true
		a.keysModal = dialogs.NewHelpModal(a.help.View(a.keys))
		a.help.ShowAll = false
		return nil

	case key.Matches(msg, a.keys.ScrollUp, a.keys.ScrollDown):
		return a.log.Update(msg)
	}

	// Sending here rather than through SubmitMsg disables the box before the
	// next key is read.
	if key.Matches(msg, a.keys.Send) {
		text, ok := a.input.Submit()
		if !ok {
			return nil
		}
		send := a.dispatcher.SendMessage(text)
		a.layout()
		return tea.Batch(send, a.syncInput())
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	a.layout()
	return cmd
}

// toggleRecording runs the recorder transition off the update loop. Recording
// cannot start while a request is pending.
func (a *App) toggleRecording() tea.Cmd {
	if a.toggling {
		return nil
	}
	if a.recorder.State() == recorder.Idle && a.dispatcher.Pending() {
		a.notice = statusWaiting
		return nil
	}
	a.toggling = true
	rec, ctx := a.recorder, a.ctx
	toggle := func() tea.Msg {
		tr, err := rec.Toggle(ctx)
		return recordToggledMsg{transition: tr, err: err}
	}
	return tea.Batch(a.syncInput(), toggle)
}

func (a *App) handleToggled(msg recordToggledMsg) tea.Cmd {
	a.toggling = false
	if msg.err != nil {
		var capErr *models.CaptureError
		if errors.As(msg.err, &capErr) {
			a.alert = dialogs.NewAlertModal("Microphone", MicrophoneDeniedMessage)
			a.alert.RegionWidth, a.alert.RegionHeight = a.width, a.height
		} else {
			a.logger.Warn("recorder toggle failed", zap.Error(msg.err))
		}
		return a.syncInput()
	}

	tr := msg.transition
	switch {
	case tr.From == recorder.Idle && tr.To == recorder.Recording:
		return tea.Batch(a.syncInput(), recordTick())
	case tr.From == recorder.Recording && tr.To == recorder.Idle:
		send := a.dispatcher.SendAudioMessage(tr.Blob)
		return tea.Batch(send, a.syncInput())
	}
	return a.syncInput()
}

// Shutdown releases the microphone if it is still open. Safe to call more than once.
func (a *App) Shutdown() {
	a.recorder.Shutdown()
}

func (a *App) copyLastReply() {
	text, ok := a.log.LastAssistant()
	if !ok {
		a.notice = "Nothing to copy yet"
		return
	}
	if err := clipboardWriteAll(text); err != nil {
		a.logger.Warn("clipboard write failed", zap.Error(err))
		a.notice = "❌ Clipboard unavailable"
		return
	}
	a.notice = "📋 Copied last reply"
}

// syncInput disables the input while a request is pending, while recording or
// while a dialog is open.
func (a *App) syncInput() tea.Cmd {
	disabled := a.dispatcher.Pending() ||
		a.recorder.State() == recorder.Recording ||
		a.toggling ||
		a.alert != nil ||
		a.keysModal != nil
	if disabled == a.input.Disabled() {
		return nil
	}
	return a.input.SetDisabled(disabled)
}

// OnResize handles terminal resize events.
func (a *App) OnResize(width, height int) {
	a.width = width
	a.height = height
	a.help.Width = width
	a.input.SetWidth(width - 4)
	if a.alert != nil {
		a.alert.RegionWidth, a.alert.RegionHeight = width, height
	}
	a.layout()
	a.logger.Debug("resized", zap.Int("width", width), zap.Int("height", height))
}

// layout gives the chat log whatever height the other rows leave.
func (a *App) layout() {
	fixed := 1 + 1 + (a.input.Height() + 2) + 1
	a.log.SetSize(a.width, max(a.height-fixed, 1))
}

func (a *App) status() string {
	switch {
	case a.recorder.State() == recorder.Recording:
		return statusRecording
	case a.dispatcher.Pending():
		return statusWaiting
	default:
		return statusReady
	}
}

// View renders the application.
func (a *App) View() string {
	if a.alert != nil {
		return a.alert.ViewRegion(a.width, a.height)
	}
	if a.keysModal != nil {
		return a.keysModal.ViewRegion(a.width, a.height)
	}
	if a.width < minWidth || a.height < minHeight {
		return lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Align(lipgloss.Center, lipgloss.Center).
			Width(a.width).
			Height(a.height).
			Render("Terminal too small for Talk2Trade")
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		a.renderHeader(),
		a.log.View(),
		a.renderStatusLine(),
		a.renderInput(),
		a.footerStyle.Render(a.help.View(a.keys)),
	)
}

func (a *App) renderHeader() string {
	left := "💬 Talk2Trade"
	right := fmt.Sprintf("%s · %s", a.dispatcher.ConversationID(), a.status())
	gap := a.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	return a.headerStyle.Width(a.width).Render(left + fmt.Sprintf("%*s", gap, "") + right)
}

// renderStatusLine shows the recording indicator or the last notice.
func (a *App) renderStatusLine() string {
	if a.recorder.State() == recorder.Recording {
		elapsed := time.Since(a.recorder.StartedAt()).Truncate(time.Second)
		return a.recordingStyle.Render(fmt.Sprintf("● Recording %s (ctrl+r to stop and send)", elapsed))
	}
	return a.noticeStyle.Render(a.notice)
}

func (a *App) renderInput() string {
	style := a.inputStyle.Width(a.width - 2)
	if a.recorder.State() == recorder.Recording {
		style = style.BorderForeground(lipgloss.Color("196"))
	} else if !a.input.Disabled() {
		style = style.BorderForeground(lipgloss.Color("33"))
	}
	return style.Render(a.input.View())
}

func recordTick() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg { return recordTickMsg{} })
}
