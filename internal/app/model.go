package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"remi/internal/capture"
	"remi/internal/chat"
	"remi/internal/note"
	"remi/internal/timeline"
	"remi/internal/ui"

	tea "github.com/charmbracelet/bubbletea"
)

// HistoryWriter records committed captures. *store.Store satisfies it.
type HistoryWriter interface {
	AppendUtterance(text string, recordedAt time.Time) error
}

// Model is the root bubbletea model for the remi chat TUI.
type Model struct {
	orch    *chat.Orchestrator
	session *capture.Session
	history HistoryWriter

	// Input line
	input []rune

	// Pending assistant reply
	busy bool

	// Capture state mirrored from the session
	capState capture.State
	capText  string

	// Phrase palette
	paletteOpen  bool
	paletteIndex int

	// UI state
	width  int
	height int
	scroll int
	live   bool

	// Errors
	errorMessage   string
	errorTransient bool
}

// New creates a Model wired to its collaborators. history may be nil;
// captures are then not recorded.
func New(orch *chat.Orchestrator, session *capture.Session, history HistoryWriter) Model {
	return Model{
		orch:    orch,
		session: session,
		history: history,
		live:    true,
	}
}

// Init starts consuming capture snapshots.
func (m Model) Init() tea.Cmd {
	if m.session == nil {
		return nil
	}
	return listenCaptureCmd(m.session.Updates())
}

// listenCaptureCmd waits for the next capture snapshot.
func listenCaptureCmd(updates <-chan capture.Snapshot) tea.Cmd {
	return func() tea.Msg {
		snap, ok := <-updates
		if !ok {
			return nil
		}
		return CaptureUpdateMsg{Snapshot: snap}
	}
}

// startCaptureCmd begins a recording. Blocks through authorization and
// engine start, so it runs off the update loop.
func startCaptureCmd(session *capture.Session) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return CaptureStartedMsg{Err: session.Start(ctx)}
	}
}

// stopCaptureCmd finalizes the recording and carries out its text.
func stopCaptureCmd(session *capture.Session) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		text, err := session.Stop(ctx)
		return CaptureStoppedMsg{Text: text, Err: err}
	}
}

// pendingCmd runs the orchestrator's off-thread work for one submission.
func pendingCmd(p chat.Pending) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()
		return AssistantReplyMsg{Message: p(ctx)}
	}
}

// saveUtteranceCmd writes a committed capture to history.
func saveUtteranceCmd(history HistoryWriter, text string) tea.Cmd {
	return func() tea.Msg {
		return UtteranceSavedMsg{Err: history.AppendUtterance(text, time.Now())}
	}
}

// clearTransientErrorCmd fires after a delay to clear transient errors.
func clearTransientErrorCmd() tea.Cmd {
	return tea.Tick(5*time.Second, func(time.Time) tea.Msg {
		return ClearTransientErrorMsg{}
	})
}

// Update processes messages and returns the updated model and any commands.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case CaptureUpdateMsg:
		snap := msg.Snapshot
		m.capState = snap.State
		m.capText = snap.Text
		if snap.State == capture.Failed && snap.Err != nil {
			m.errorMessage = snap.Err.Error()
			m.errorTransient = true
			return m, tea.Batch(listenCaptureCmd(m.session.Updates()), clearTransientErrorCmd())
		}
		return m, listenCaptureCmd(m.session.Updates())

	case CaptureStartedMsg:
		if msg.Err != nil {
			m.errorMessage = msg.Err.Error()
			m.errorTransient = true
			return m, clearTransientErrorCmd()
		}
		return m, nil

	case CaptureStoppedMsg:
		var cmds []tea.Cmd
		if msg.Err != nil {
			m.errorMessage = msg.Err.Error()
			m.errorTransient = true
			cmds = append(cmds, clearTransientErrorCmd())
		}
		if msg.Text != "" {
			m.appendToInput(msg.Text)
			if m.history != nil {
				cmds = append(cmds, saveUtteranceCmd(m.history, msg.Text))
			}
		}
		return m, tea.Batch(cmds...)

	case AssistantReplyMsg:
		m.orch.Deliver(msg.Message)
		m.busy = false
		if m.live {
			m.scrollToBottom()
		}
		return m, nil

	case UtteranceSavedMsg:
		// History is best effort; a failed write never blocks the chat.
		return m, nil

	case ClearTransientErrorMsg:
		if m.errorTransient {
			m.errorMessage = ""
			m.errorTransient = false
		}
		return m, nil
	}

	return m, nil
}

// handleKey processes key presses.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case KeyCtrlC:
		if m.session != nil {
			m.session.Cancel()
		}
		return m, tea.Quit

	case KeyEnter:
		if m.paletteOpen {
			m.input = []rune(QuickPhrases[m.paletteIndex])
			m.paletteOpen = false
			return m, nil
		}
		return m.submit()

	case KeyCtrlR:
		if m.session == nil {
			return m, nil
		}
		switch m.capState {
		case capture.Recording:
			return m, stopCaptureCmd(m.session)
		case capture.AwaitingAuthorization, capture.Finalizing:
			return m, nil
		default:
			return m, startCaptureCmd(m.session)
		}

	case KeyEsc:
		if m.paletteOpen {
			m.paletteOpen = false
			return m, nil
		}
		if m.session != nil && (m.capState == capture.Recording || m.capState == capture.AwaitingAuthorization) {
			m.session.Cancel()
		}
		return m, nil

	case KeyTab:
		m.paletteOpen = !m.paletteOpen
		m.paletteIndex = 0
		return m, nil

	case KeyUp:
		if m.paletteOpen {
			if m.paletteIndex > 0 {
				m.paletteIndex--
			}
			return m, nil
		}
		m.live = false
		if m.scroll > 0 {
			m.scroll--
		}
		return m, nil

	case KeyDown:
		if m.paletteOpen {
			if m.paletteIndex < len(QuickPhrases)-1 {
				m.paletteIndex++
			}
			return m, nil
		}
		maxScroll := m.maxScroll()
		m.scroll++
		if m.scroll >= maxScroll {
			m.scroll = maxScroll
			m.live = true
		}
		return m, nil

	case KeyBacksp:
		if len(m.input) > 0 {
			m.input = m.input[:len(m.input)-1]
		}
		return m, nil

	case KeyCtrlU:
		m.input = nil
		return m, nil
	}

	switch msg.Type {
	case tea.KeyRunes:
		m.input = append(m.input, msg.Runes...)
	case tea.KeySpace:
		m.input = append(m.input, ' ')
	}
	return m, nil
}

// submit hands the input line to the orchestrator.
func (m Model) submit() (tea.Model, tea.Cmd) {
	pending := m.orch.Submit(string(m.input))
	if pending == nil {
		return m, nil
	}
	m.input = nil
	m.busy = true
	if m.live {
		m.scrollToBottom()
	}
	return m, pendingCmd(pending)
}

// appendToInput merges a capture transcript into the input line.
func (m *Model) appendToInput(text string) {
	if len(m.input) > 0 && m.input[len(m.input)-1] != ' ' {
		m.input = append(m.input, ' ')
	}
	m.input = append(m.input, []rune(text)...)
}

func (m *Model) scrollToBottom() {
	m.scroll = m.maxScroll()
}

func (m Model) maxScroll() int {
	total := len(m.conversationLines())
	visible := m.conversationVisibleLines()
	if total <= visible {
		return 0
	}
	return total - visible
}

func (m Model) conversationVisibleLines() int {
	if m.height == 0 {
		return 20
	}
	// Reserve: header(1) + divider(1) + divider(1) + input(1) + error(1) + footer(1) + padding
	reserved := 7
	if m.paletteOpen {
		reserved += len(QuickPhrases) + 1
	}
	return max(5, m.height-reserved)
}

// View renders the full TUI.
func (m Model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	var sections []string

	sections = append(sections, m.renderHeader())
	sections = append(sections, ui.DividerStyle.Render(strings.Repeat("─", m.width)))
	sections = append(sections, m.renderConversation())
	if m.paletteOpen {
		sections = append(sections, m.renderPalette())
	}
	sections = append(sections, ui.DividerStyle.Render(strings.Repeat("─", m.width)))
	sections = append(sections, m.renderInput())
	if m.errorMessage != "" {
		sections = append(sections, m.renderErrorBar())
	}
	sections = append(sections, m.renderFooter())

	return strings.Join(sections, "\n")
}

func (m Model) renderHeader() string {
	title := ui.TitleStyle.Render("REMI")

	var dot string
	switch m.capState {
	case capture.Recording:
		dot = "  " + ui.RecordingDotStyle.Render("● REC")
	case capture.AwaitingAuthorization:
		dot = "  " + ui.PartialTextStyle.Render("● AUTH?")
	case capture.Finalizing:
		dot = "  " + ui.SpinnerStyle.Render("⟳ ...")
	default:
		dot = "  " + ui.IdleDotStyle.Render("○ MIC")
	}

	var badge string
	if m.live {
		badge = "  " + ui.LiveBadgeStyle.Render("LIVE")
	} else {
		badge = "  " + ui.ScrollBadgeStyle.Render("SCROLL")
	}

	var busy string
	if m.busy {
		busy = "  " + ui.SpinnerStyle.Render("⟳ AI")
	}

	return title + dot + badge + busy
}

// conversationLines flattens the day-grouped timeline into display
// lines, including the live capture preview.
func (m Model) conversationLines() []string {
	width := max(20, m.width-4)
	var lines []string

	for _, group := range m.orch.Timeline().GroupedByDay() {
		lines = append(lines, ui.DayHeaderStyle.Render("── "+group.Day.Format("02.01.2006")+" ──"))
		for _, msg := range group.Messages {
			lines = append(lines, renderMessage(msg, width)...)
		}
	}

	if m.capText != "" && m.capState == capture.Recording {
		for _, wl := range wrapText(m.capText+"▌", width) {
			lines = append(lines, ui.PartialTextStyle.Render(wl))
		}
	}

	return lines
}

// renderMessage renders one chat turn, multi-line for notes.
func renderMessage(msg timeline.Message, width int) []string {
	ts := ui.TimestampStyle.Render(msg.Timestamp.Format("[15:04]"))

	var label string
	if msg.IsUser {
		label = ui.UserLabelStyle.Render("You")
	} else {
		label = ui.AssistantLabelStyle.Render(msg.Sender)
	}
	prefix := ts + " " + label + ": "
	indent := strings.Repeat(" ", lipgloss.Width(prefix))

	switch body := msg.Body.(type) {
	case timeline.Text:
		wrapped := wrapText(string(body), max(10, width-lipgloss.Width(prefix)))
		lines := []string{prefix + wrapped[0]}
		for _, wl := range wrapped[1:] {
			lines = append(lines, indent+wl)
		}
		return lines

	case timeline.NoteBody:
		n := body.Note
		lines := []string{prefix + ui.NoteCategoryStyle.Render(n.CategoryType)}
		for _, wl := range wrapText(n.Text, max(10, width-len(indent))) {
			lines = append(lines, indent+wl)
		}
		for _, trig := range n.Triggers {
			lines = append(lines, indent+renderTrigger(trig))
		}
		return lines
	}

	return []string{prefix}
}

// renderTrigger shows one trigger line under a note card.
func renderTrigger(trig note.Trigger) string {
	var detail string
	switch trig.CanonicalType() {
	case note.TriggerTime:
		if trig.Time != nil {
			detail = trig.Time.Format("02.01.2006 15:04")
		}
	case note.TriggerLocation:
		if trig.Location != nil {
			detail = *trig.Location
		}
	}

	label := trig.Type
	if detail != "" {
		label = fmt.Sprintf("%s · %s", trig.Type, detail)
	}
	if trig.IsReady {
		return ui.TriggerReadyStyle.Render("⏰ " + label)
	}
	return ui.TriggerPendingStyle.Render("· " + label)
}

func (m Model) renderConversation() string {
	height := m.conversationVisibleLines()
	lines := m.conversationLines()

	if len(lines) == 0 {
		empty := []string{
			"",
			ui.DimStyle.Render("  Скажите или введите, о чём напомнить"),
			ui.DimStyle.Render("  Ctrl+R запись · Tab фразы · Enter отправить"),
		}
		lines = empty
	}

	start := 0
	if m.live {
		if len(lines) > height {
			start = len(lines) - height
		}
	} else {
		start = m.scroll
	}
	if start < 0 {
		start = 0
	}
	end := start + height
	if end > len(lines) {
		end = len(lines)
	}

	visible := make([]string, 0, height)
	for i := start; i < end; i++ {
		visible = append(visible, "  "+lines[i])
	}
	for len(visible) < height {
		visible = append(visible, "")
	}

	return strings.Join(visible, "\n")
}

func (m Model) renderPalette() string {
	var lines []string
	lines = append(lines, ui.DimStyle.Render("  Быстрые фразы:"))
	for i, phrase := range QuickPhrases {
		if i == m.paletteIndex {
			lines = append(lines, ui.SelectedStyle.Render("  > "+phrase))
		} else {
			lines = append(lines, "    "+phrase)
		}
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderInput() string {
	prompt := ui.InputPromptStyle.Render("> ")
	line := prompt + string(m.input) + "▌"
	return truncateToWidth(line, m.width)
}

func (m Model) renderErrorBar() string {
	return ui.ErrorStyle.Render("Error: ") + ui.ErrorTextStyle.Render(m.errorMessage)
}

func (m Model) renderFooter() string {
	var parts []string

	if m.capState == capture.Recording {
		parts = append(parts, ui.FooterKeyStyle.Render("Ctrl+R")+ui.FooterDescStyle.Render(" Stop"))
		parts = append(parts, ui.FooterKeyStyle.Render("Esc")+ui.FooterDescStyle.Render(" Cancel"))
	} else {
		parts = append(parts, ui.FooterKeyStyle.Render("Ctrl+R")+ui.FooterDescStyle.Render(" Record"))
	}
	parts = append(parts, ui.FooterKeyStyle.Render("Enter")+ui.FooterDescStyle.Render(" Send"))
	parts = append(parts, ui.FooterKeyStyle.Render("Tab")+ui.FooterDescStyle.Render(" Phrases"))
	parts = append(parts, ui.FooterKeyStyle.Render("↑↓")+ui.FooterDescStyle.Render(" Scroll"))
	parts = append(parts, ui.FooterKeyStyle.Render("Ctrl+C")+ui.FooterDescStyle.Render(" Quit"))

	return strings.Join(parts, "  ")
}

// Helpers

func truncateToWidth(s string, width int) string {
	visible := lipgloss.Width(s)
	if visible <= width {
		return s
	}
	runes := []rune(s)
	if len(runes) > width-1 {
		return string(runes[:width-1]) + "…"
	}
	return s
}

func wrapText(text string, width int) []string {
	if width <= 0 {
		return []string{text}
	}

	var lines []string
	for _, paragraph := range strings.Split(text, "\n") {
		var current string
		for _, word := range strings.Fields(paragraph) {
			if current == "" {
				current = word
			} else if len(current)+1+len(word) <= width {
				current += " " + word
			} else {
				lines = append(lines, current)
				current = word
			}
		}
		if current != "" {
			lines = append(lines, current)
		} else {
			lines = append(lines, "")
		}
	}
	if len(lines) == 0 {
		return []string{""}
	}
	return lines
}
