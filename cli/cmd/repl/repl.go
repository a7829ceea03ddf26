package repl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
	"github.com/goccy/go-yaml"
	"github.com/sahilm/fuzzy"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ardnew/atexpr/globals"
	"github.com/ardnew/atexpr/interp"
	"github.com/ardnew/atexpr/lang"
	"github.com/ardnew/atexpr/log"
)

// editParamsMsg is sent when parameter editing completes successfully.
type editParamsMsg struct{ params map[string]any }

// editCancelledMsg is sent when the user cleared the editor content.
type editCancelledMsg struct{}

// editDeclinedMsg is sent when the user declined to re-edit after a decode
// error.
type editDeclinedMsg struct{}

// editErrorMsg is sent when the edit process encounters a non-decode error.
type editErrorMsg struct{ err error }

const (
	evalPrompt = "@ "
	ctrlPrompt = " :"

	previewWidth = 48
)

func helpMessage() string {
	return `
: Commands (press Esc to toggle mode):

  help              Print this cruft
  funcs [pattern]   List functions, fuzzy filtered by pattern
  params            List parameters
  set KEY VALUE     Set parameter KEY (VALUE is decoded as YAML)
  unset KEY         Remove parameter KEY
  edit              Edit parameters in external $EDITOR
  clear             Clear screen
  quit              Exit REPL

Usage:
  Type a template to interpret it, e.g. @CONCAT(@GV(NAME), '!')
  Parameters are visible to @GV and friends
  Type @ to complete function names; Tab / Shift-Tab cycle candidates
  Press Space to accept the current candidate
  Press Esc to toggle between eval and command modes
  Use Up/Down arrows for history navigation (mode switches automatically)
  Use Shift+Up/Shift+Down for history navigation within current mode only
  Use Alt+Up/Alt+Down to switch to command mode and navigate command history
    (restores original mode when reaching end of history)
  Press Ctrl+C on empty line or Ctrl+D to exit
`
}

// inputMode represents the current input mode.
type inputMode int

const (
	modeEval inputMode = iota
	modeCtrl
)

// Styles.
var (
	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("6")).
			Bold(true)
	ctrlPromptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("5")).
			Bold(true)
	inputStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	resultStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	hintStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	suggestionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	selectedStyle   = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("4"))
)

// formatCommand formats the echo line of an input in the given mode.
func formatCommand(mode inputMode, input string) string {
	if mode == modeCtrl {
		return ctrlPromptStyle.Render(ctrlPrompt) + inputStyle.Render(input)
	}

	return promptStyle.Render(evalPrompt) + inputStyle.Render(input)
}

// Config configures a REPL session.
type Config struct {
	Interpreter *interp.Interpreter
	Params      *interp.Params
	CallOptions []interp.CallOption
	// HistoryFile persists input history. Empty keeps history in memory.
	HistoryFile string
	Logger      log.Logger
}

// model is the Bubble Tea model for the REPL.
type model struct {
	ctxFunc          func() context.Context
	input            textinput.Model
	interp           *interp.Interpreter
	registry         lang.Registry
	names            []string // sorted function names
	params           *interp.Params
	opts             []interp.CallOption
	logger           log.Logger
	history          *History
	historyIdx       int
	matches          fuzzy.Matches // current fuzzy match results
	candidates       []string      // backing candidate list
	wordStart        int           // byte offset of current word start
	wordEnd          int           // byte offset of current word end
	suggIdx          int           // selected candidate index
	tabActive        bool          // whether user is tab-cycling
	preTabText       string        // input text before tab-cycling began
	preTabCursor     int           // cursor position before tab-cycling began
	altNavActive     bool          // whether user is in Alt+Up/Down navigation
	altNavOrigMode   inputMode     // original mode before Alt navigation
	altNavOrigText   string        // original text before Alt navigation
	altNavOrigCursor int           // original cursor position before Alt navigation
	width            int           // terminal width for ellipsization
	quitting         bool
	mode             inputMode
	evalText         string
	evalCursor       int
	ctrlText         string
	ctrlCursor       int
}

// Run starts the REPL.
func Run(ctx context.Context, cfg Config) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	if cfg.Interpreter == nil {
		return ErrNoEngine
	}

	if cfg.Params == nil {
		cfg.Params = interp.NewParams(nil)
	}

	cfg.Logger.TraceContext(
		ctx,
		"repl start",
		slog.String("history", cfg.HistoryFile),
		slog.Int("param_count", len(cfg.Params.Raw())),
	)

	history := NewHistory(cfg.HistoryFile)
	if err := history.Load(); err != nil {
		cfg.Logger.WarnContext(ctx, "could not load history",
			slog.String("path", cfg.HistoryFile),
			slog.String("error", err.Error()),
		)
	}

	cfg.Logger.TraceContext(
		ctx,
		"repl history loaded",
		slog.Int("entry_count", history.Len()),
	)

	m := newModel(ctx, cfg, history)

	p := tea.NewProgram(m, tea.WithContext(ctx))
	_, err = p.Run()

	return err
}

const defaultWidth = 80

func newModel(ctx context.Context, cfg Config, history *History) model {
	ti := textinput.New()
	ti.Prompt = promptStyle.Render(evalPrompt)
	ti.Focus()
	ti.CharLimit = 4096
	ti.Width = defaultWidth

	reg := cfg.Interpreter.Engine().Registry()

	var names []string
	if t, ok := reg.(*lang.Table); ok {
		names = t.Names()
	}

	return model{
		ctxFunc:    func() context.Context { return ctx },
		input:      ti,
		interp:     cfg.Interpreter,
		registry:   reg,
		names:      names,
		params:     cfg.Params,
		opts:       cfg.CallOptions,
		logger:     cfg.Logger,
		history:    history,
		historyIdx: history.Len(),
		width:      defaultWidth,
		mode:       modeEval,
	}
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = msg.Width - len(evalPrompt) - 2

		return m, nil

	case editParamsMsg:
		m.params = interp.NewParams(msg.params)
		m.logger.TraceContext(
			m.ctxFunc(),
			"repl edit complete",
			slog.Int("param_count", len(msg.params)),
		)

		return m, tea.Println(resultStyle.Render("✔ parameters updated"))

	case editCancelledMsg:
		return m, tea.Println(hintStyle.Render("🗴 edit cancelled"))

	case editDeclinedMsg:
		m.quitting = true

		return m, tea.Quit

	case editErrorMsg:
		return m, tea.Println(
			errorStyle.Render("🗴 error: " + msg.err.Error()),
		)
	}

	var cmd tea.Cmd

	m.input, cmd = m.input.Update(msg)

	return m, cmd
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(m.hintView())
	b.WriteString("\n")

	return b.String()
}

// hintView renders the line below the input: the history position, a usage
// hint, the signature of the enclosing call, or the completion bar.
func (m model) hintView() string {
	input := m.input.Value()

	if m.historyIdx < m.history.Len() {
		return hintStyle.Render(fmt.Sprintf("%s/%d",
			lipgloss.NewStyle().Bold(true).Render(strconv.Itoa(m.historyIdx+1)),
			m.history.Len()))
	}

	if strings.TrimSpace(input) == "" {
		if m.mode == modeEval {
			return hintStyle.Render("Type a template or press Esc for commands")
		}

		return hintStyle.Render("Type: " + strings.Join(ctrlCommands, ", ") +
			" (press Esc to return)")
	}

	// Completions take precedence over the signature while tab-cycling.
	if len(m.matches) > 0 && (m.tabActive || m.mode == modeCtrl) {
		return renderCandidateBar(m.matches, m.suggIdx, m.tabActive, m.width)
	}

	if m.mode == modeEval {
		call := detectFunctionCall(input, m.input.Position())
		word, _, _ := wordBounds(input, m.input.Position())

		if call.inCall && !strings.HasPrefix(word, "@") {
			signature, params := getSignature(m.registry, call.name)
			if signature != "" {
				return renderSignatureHint(signature, params, call.argIndex)
			}
		}
	}

	return renderCandidateBar(m.matches, m.suggIdx, m.tabActive, m.width)
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	m.logger.TraceContext(
		m.ctxFunc(),
		"repl keypress",
		slog.String("key", msg.String()),
		slog.Int("type", int(msg.Type)),
	)

	switch msg.Type {
	case tea.KeyCtrlC:
		if m.input.Value() == "" {
			m.quitting = true

			return m, tea.Quit
		}

		m.input.SetValue("")
		m.tabActive = false
		m.altNavActive = false
		m.historyIdx = m.history.Len()
		refreshMatches(&m, false)

		return m, nil

	case tea.KeyCtrlD:
		if m.input.Value() == "" {
			m.quitting = true

			return m, tea.Quit
		}

		return m, nil

	case tea.KeyEnter:
		if !m.tabActive || len(m.matches) == 0 {
			m.altNavActive = false

			return m.executeInput()
		}
		// Lock in the current tab candidate without executing.
		m.tabActive = false
		m.altNavActive = false
		refreshMatches(&m, true)

		return m, nil

	case tea.KeyTab:
		return m.cycle(1), nil

	case tea.KeyShiftTab:
		return m.cycle(-1), nil

	case tea.KeyUp:
		if msg.Alt {
			return m.historyCtrl(-1), nil
		}

		return m.historyStep(-1), nil

	case tea.KeyDown:
		if msg.Alt {
			return m.historyCtrl(1), nil
		}

		return m.historyStep(1), nil

	case tea.KeyShiftUp:
		return m.historyInMode(-1), nil

	case tea.KeyShiftDown:
		return m.historyInMode(1), nil

	case tea.KeyEsc:
		if m.tabActive {
			m.tabActive = false
			m.input.SetValue(m.preTabText)
			m.input.SetCursor(m.preTabCursor)
			refreshMatches(&m, false)

			return m, nil
		}

		m.altNavActive = false

		if m.mode == modeEval {
			return m.switchToMode(modeCtrl), nil
		}

		return m.switchToMode(modeEval), nil

	case tea.KeyRunes:
		// Space is a "breaking" key while tab-cycling.
		if m.tabActive && msg.String() == " " {
			m.tabActive = false
		}

		var cmd tea.Cmd

		m.historyIdx = m.history.Len()
		m.input, cmd = m.input.Update(msg)
		refreshMatches(&m, true)

		return m, cmd
	}

	// For any other key (backspace, delete, arrows, etc.),
	// update input and recompute matches without auto-confirm.
	var cmd tea.Cmd

	m.tabActive = false
	m.altNavActive = false
	m.historyIdx = m.history.Len()
	m.input, cmd = m.input.Update(msg)
	refreshMatches(&m, false)

	return m, cmd
}

// cycle moves the tab selection by step (1 forward, -1 backward). A sole
// candidate is completed and confirmed immediately.
func (m model) cycle(step int) model {
	n := len(m.matches)

	switch {
	case n == 0:
		return m

	case n == 1:
		replaceCurrentWord(&m, m.matches[0].Str)
		m.tabActive = false
		m.suggIdx = -1
		m.matches = nil

		return m

	case m.tabActive:
		m.suggIdx = (m.suggIdx + step + n) % n

	default:
		m.tabActive = true
		m.preTabText = m.input.Value()
		m.preTabCursor = m.input.Position()

		m.suggIdx = 0
		if step < 0 {
			m.suggIdx = n - 1
		}
	}

	replaceCurrentWord(&m, m.matches[m.suggIdx].Str)

	return m
}

// replaceCurrentWord replaces the current word boundaries in the input with
// the given replacement text and repositions the cursor.
func replaceCurrentWord(m *model, replacement string) {
	input := m.input.Value()
	newInput := input[:m.wordStart] + replacement + input[m.wordEnd:]
	newCursor := m.wordStart + len(replacement)

	m.input.SetValue(newInput)
	m.input.SetCursor(newCursor)

	m.wordEnd = newCursor
}

// refreshMatches recomputes fuzzy matches for the current input state.
// When autoConfirm is true it also auto-confirms the completion when exactly
// one candidate remains and the typed word already equals that candidate.
// autoConfirm should be false for deletions and cursor navigation so that
// the user can freely edit without unexpected completions.
func refreshMatches(m *model, autoConfirm bool) {
	m.matches, m.candidates, m.wordStart, m.wordEnd = m.computeMatches()

	if !m.tabActive {
		m.suggIdx = -1
	}

	if !autoConfirm || len(m.matches) != 1 {
		return
	}

	candidate := m.matches[0].Str
	word := m.input.Value()[m.wordStart:m.wordEnd]

	if strings.EqualFold(word, candidate) {
		replaceCurrentWord(m, candidate)
		m.tabActive = false
		m.suggIdx = -1
		m.matches = nil
	}
}

func (m model) executeInput() (model, tea.Cmd) {
	input := strings.TrimSpace(m.input.Value())
	if input == "" {
		return m, nil
	}

	m.evalText = ""
	m.evalCursor = 0
	m.ctrlText = ""
	m.ctrlCursor = 0
	m.input.SetValue("")
	refreshMatches(&m, false)

	_, _ = m.history.WriteWithMode(input, m.mode)
	m.historyIdx = m.history.Len()

	m.logger.TraceContext(
		m.ctxFunc(),
		"repl input",
		slog.String("input", input),
		slog.Int("mode", int(m.mode)),
	)

	echoCmd := tea.Println(formatCommand(m.mode, input))

	if m.mode == modeCtrl {
		var cmd tea.Cmd

		m, cmd = m.executeCommand(input)

		return m, tea.Sequence(echoCmd, cmd)
	}

	return m, tea.Sequence(echoCmd, tea.Println(m.evaluate(input)))
}

// evaluate interprets input and renders the result or error.
func (m model) evaluate(input string) string {
	result, err := m.interp.Interpret(m.ctxFunc(), input, m.params, m.opts...)
	if err != nil {
		m.logger.TraceContext(
			m.ctxFunc(),
			"repl eval result",
			slog.String("result_type", "error"),
			slog.String("error", err.Error()),
		)

		return errorStyle.Render("error: " + err.Error())
	}

	m.logger.TraceContext(
		m.ctxFunc(),
		"repl eval result",
		slog.String("result_type", fmt.Sprintf("%T", result)),
	)

	return resultStyle.Render(lang.FormatResult(result, false))
}

func (m model) executeCommand(input string) (model, tea.Cmd) {
	cmd, rest, _ := strings.Cut(input, " ")
	rest = strings.TrimSpace(rest)

	m.logger.TraceContext(
		m.ctxFunc(),
		"repl exec command",
		slog.String("command", cmd),
		slog.String("args", rest),
	)

	switch cmd {
	case "q", "quit", "exit":
		m.quitting = true

		return m, tea.Quit

	case "h", "help":
		return m, tea.Println(helpMessage())

	case "f", "funcs":
		return m, tea.Println(m.listFuncs(rest))

	case "p", "params":
		return m, tea.Println(m.listParams())

	case "s", "set":
		key, value, _ := strings.Cut(rest, " ")
		if key == "" {
			return m, tea.Println(errorStyle.Render("usage: set KEY VALUE"))
		}

		raw := m.rawParams()
		raw[key] = decodeValue(strings.TrimSpace(value))
		m.params = interp.NewParams(raw)

		return m, nil

	case "u", "unset":
		if rest == "" {
			return m, tea.Println(errorStyle.Render("usage: unset KEY"))
		}

		raw := m.rawParams()
		delete(raw, rest)
		m.params = interp.NewParams(raw)

		return m, nil

	case "c", "clear":
		return m, tea.ClearScreen

	case "e", "edit":
		return m, m.editParams()

	default:
		return m, tea.Println(
			errorStyle.Render("Unknown command: " + cmd + " (try 'help')"),
		)
	}
}

// rawParams returns a modifiable copy of the unresolved parameters.
func (m model) rawParams() map[string]any {
	raw := maps.Clone(m.params.Raw())
	if raw == nil {
		raw = map[string]any{}
	}

	return raw
}

// decodeValue decodes s as a YAML value, falling back to the text itself.
func decodeValue(s string) any {
	var v any

	err := yaml.UnmarshalWithOptions([]byte(s), &v, yaml.UseOrderedMap())
	if err != nil || v == nil {
		return s
	}

	return globals.Normalize(v)
}

func (m model) editParams() tea.Cmd {
	cmd := &editParamsCommand{
		params:  m.rawParams(),
		ctxFunc: m.ctxFunc,
		logger:  m.logger,
	}

	return tea.Exec(cmd, func(err error) tea.Msg {
		if errors.Is(err, ErrEditDeclined) {
			return editDeclinedMsg{}
		}

		if err != nil {
			return editErrorMsg{err: err}
		}

		if cmd.edited == nil {
			return editCancelledMsg{}
		}

		return editParamsMsg{params: cmd.edited}
	})
}

// listFuncs renders the functions whose names fuzzily match pattern.
func (m model) listFuncs(pattern string) string {
	names := m.names

	if pattern = strings.ToLower(strings.TrimPrefix(pattern, "@")); pattern != "" {
		matches := fuzzy.Find(pattern, m.names)

		names = make([]string, len(matches))
		for i, match := range matches {
			names[i] = match.Str
		}
	}

	var b strings.Builder

	for _, name := range names {
		usage := ""
		if fn, ok := m.registry.Lookup(name); ok {
			usage = fn.Usage
		}

		fmt.Fprintf(&b, "  @%-16s %s\n", strings.ToUpper(name), hintStyle.Render(usage))
	}

	return b.String()
}

// listParams renders every parameter with a value preview.
func (m model) listParams() string {
	raw := m.params.Raw()
	if len(raw) == 0 {
		return hintStyle.Render("  (no parameters)")
	}

	var b strings.Builder

	for _, k := range slices.Sorted(maps.Keys(raw)) {
		fmt.Fprintf(&b, "  %s %s\n", k, hintStyle.Render(formatPreview(raw[k], previewWidth)))
	}

	return b.String()
}

// historyStep moves one entry through history (-1 older, 1 newer),
// switching modes to match the entry. Moving past the newest entry clears
// the input.
func (m model) historyStep(dir int) model {
	i := m.historyIdx + dir
	if i < 0 {
		return m
	}

	entry, err := m.history.GetEntry(i)
	if err != nil {
		m.historyIdx = m.history.Len()
		m.input.SetValue("")
		refreshMatches(&m, false)

		return m
	}

	if m.mode != entry.Mode {
		m = m.switchToMode(entry.Mode)
	}

	return m.showEntry(i, entry)
}

// historyInMode moves to the next entry in dir with the current mode.
func (m model) historyInMode(dir int) model {
	i, entry, ok := m.seek(dir, m.mode)
	if ok {
		return m.showEntry(i, entry)
	}

	if dir > 0 && m.historyIdx < m.history.Len() {
		m.historyIdx = m.history.Len()
		m.input.SetValue("")
		refreshMatches(&m, false)
	}

	return m
}

// historyCtrl navigates control history from any mode. The original mode
// and input are restored when navigation runs off either end.
func (m model) historyCtrl(dir int) model {
	if !m.altNavActive {
		m.altNavActive = true
		m.altNavOrigMode = m.mode
		m.altNavOrigText = m.input.Value()
		m.altNavOrigCursor = m.input.Position()

		if m.mode != modeCtrl {
			m = m.switchToMode(modeCtrl)
		}
	}

	if i, entry, ok := m.seek(dir, modeCtrl); ok {
		return m.showEntry(i, entry)
	}

	m.altNavActive = false
	if m.altNavOrigMode != m.mode {
		m = m.switchToMode(m.altNavOrigMode)
	}

	m.input.SetValue(m.altNavOrigText)
	m.input.SetCursor(m.altNavOrigCursor)
	m.historyIdx = m.history.Len()
	refreshMatches(&m, false)

	return m
}

// seek finds the nearest entry in dir from the current index with mode.
func (m model) seek(dir int, mode inputMode) (int, HistoryEntry, bool) {
	for i := m.historyIdx + dir; i >= 0 && i < m.history.Len(); i += dir {
		entry, err := m.history.GetEntry(i)
		if err == nil && entry.Mode == mode {
			return i, entry, true
		}
	}

	return 0, HistoryEntry{}, false
}

func (m model) showEntry(i int, entry HistoryEntry) model {
	m.historyIdx = i
	m.input.SetValue(entry.Line)
	m.input.SetCursor(len(entry.Line))
	refreshMatches(&m, false)

	return m
}

// switchToMode switches to the specified mode, preserving input state.
func (m model) switchToMode(mode inputMode) model {
	if m.mode == modeEval {
		m.evalText = m.input.Value()
		m.evalCursor = m.input.Position()
	} else {
		m.ctrlText = m.input.Value()
		m.ctrlCursor = m.input.Position()
	}

	m.mode = mode
	if mode == modeEval {
		m.input.Prompt = promptStyle.Render(evalPrompt)
		m.input.SetValue(m.evalText)
		m.input.SetCursor(m.evalCursor)
	} else {
		m.input.Prompt = ctrlPromptStyle.Render(ctrlPrompt)
		m.input.SetValue(m.ctrlText)
		m.input.SetCursor(m.ctrlCursor)
	}

	refreshMatches(&m, false)

	return m
}
