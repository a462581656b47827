package cli

import (
	"errors"
	"flag"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"

	"dbf-converter/internal/batch"
	"dbf-converter/internal/convert"
	"dbf-converter/internal/workspace"
)

type uiMode int

const (
	uiModeBrowse uiMode = iota
	uiModeInput
	uiModeNotice
	uiModeConverting
)

type uiInputKind int

const (
	uiInputAddFiles uiInputKind = iota
	uiInputOutputDir
)

type uiModel struct {
	files     *batch.FileList
	selected  map[int]bool
	cursor    int
	outputDir string
	opts      convert.Options
	logger    logrus.FieldLogger

	mode        uiMode
	inputKind   uiInputKind
	input       textinput.Model
	noticeTitle string
	noticeText  string

	queue   *batch.Queue
	events  <-chan batch.Event
	percent int
	status  string
	log     []string
	bar     progress.Model

	width  int
	height int
}

// uiEventMsg carries one event from the job in flight.
type uiEventMsg struct {
	ev batch.Event
}

type uiChannelClosedMsg struct{}

var (
	uiTitleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	uiMutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	uiErrorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	uiOKStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	uiPanelStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	uiCursorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(lipgloss.Color("62")).Bold(true)
)

func runUI(args []string) error {
	fs := flag.NewFlagSet("ui", flag.ContinueOnError)
	config := fs.String("config", "", "settings file path")
	output := fs.String("output", "", "initial output directory (default: saved setting)")
	encoding := fs.String("encoding", "", "character encoding of DBF text fields")
	debug := fs.Bool("debug", false, "debug-level logging to the configured log file")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}
	if !stdinIsTTY() {
		return errors.New("ui requires an interactive terminal (TTY)")
	}

	files, err := batch.ExpandInputs(fs.Args())
	if err != nil {
		return err
	}
	env, err := loadRuntime(*config, workspace.Overrides{
		OutputDir: strings.TrimSpace(*output),
		Encoding:  strings.TrimSpace(*encoding),
	}, false, *debug)
	if err != nil {
		return err
	}
	defer env.close()

	m := newUIModel(batch.NewFileList(files...), env.resolved.OutputDir, env.resolved.Options, env.logger)
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "tty") {
			return errors.New("ui requires an interactive terminal (TTY)")
		}
		return err
	}
	return nil
}

func newUIModel(files *batch.FileList, outputDir string, opts convert.Options, logger logrus.FieldLogger) uiModel {
	if files == nil {
		files = batch.NewFileList()
	}
	input := textinput.New()
	input.Prompt = "> "
	input.CharLimit = 4096
	input.Width = 60

	return uiModel{
		files:     files,
		selected:  map[int]bool{},
		outputDir: outputDir,
		opts:      opts,
		logger:    logger,
		mode:      uiModeBrowse,
		input:     input,
		status:    "Ready",
		bar:       progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
	}
}

func (m uiModel) Init() tea.Cmd {
	return nil
}

func (m uiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.bar.Width = clampInt(msg.Width-16, 10, 80)
		m.input.Width = clampInt(msg.Width-8, 20, 120)
		return m, nil
	case uiEventMsg:
		return m.handleEvent(msg.ev)
	case uiChannelClosedMsg:
		return m, nil
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch m.mode {
	case uiModeInput:
		return m.updateInput(keyMsg)
	case uiModeNotice:
		return m.updateNotice(keyMsg)
	case uiModeConverting:
		return m.updateConverting(keyMsg)
	default:
		return m.updateBrowse(keyMsg)
	}
}

func (m uiModel) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < m.files.Len()-1 {
			m.cursor++
		}
	case " ", "space":
		if m.files.Len() > 0 {
			m.selected[m.cursor] = !m.selected[m.cursor]
		}
	case "a":
		m.openInput(uiInputAddFiles, "")
	case "o":
		m.openInput(uiInputOutputDir, m.outputDir)
	case "d":
		m.removeSelected()
	case "C":
		n := m.files.Len()
		m.files.Clear()
		m.selected = map[int]bool{}
		m.cursor = 0
		m.status = fmt.Sprintf("Cleared %d files", n)
	case "enter":
		return m.startBatch()
	}
	return m, nil
}

func (m *uiModel) openInput(kind uiInputKind, value string) {
	m.mode = uiModeInput
	m.inputKind = kind
	m.input.SetValue(value)
	m.input.CursorEnd()
	m.input.Focus()
}

func (m *uiModel) removeSelected() {
	var indexes []int
	for i, sel := range m.selected {
		if sel {
			indexes = append(indexes, i)
		}
	}
	if len(indexes) == 0 {
		m.status = "No files selected"
		return
	}
	n := m.files.Remove(indexes...)
	m.selected = map[int]bool{}
	m.cursor = clampInt(m.cursor, 0, max(m.files.Len()-1, 0))
	m.status = fmt.Sprintf("Removed %d files", n)
}

func (m uiModel) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		m.mode = uiModeBrowse
		m.input.Blur()
		return m, nil
	case "enter":
		value := strings.TrimSpace(m.input.Value())
		m.mode = uiModeBrowse
		m.input.Blur()
		if value == "" {
			return m, nil
		}
		if m.inputKind == uiInputOutputDir {
			m.outputDir = value
			m.status = "Output directory: " + value
			return m, nil
		}
		m.addFiles(value)
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *uiModel) addFiles(value string) {
	paths, err := batch.ExpandInputs([]string{value})
	if err != nil {
		m.status = "error: " + err.Error()
		return
	}
	existing := make([]string, 0, len(paths))
	for _, p := range paths {
		if err := convert.CheckSource(p); err != nil {
			m.status = "error: " + noticeText(err)
			return
		}
		existing = append(existing, p)
	}
	n := m.files.Add(existing...)
	m.status = fmt.Sprintf("Added %d files", n)
}

func (m uiModel) updateNotice(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "enter", "esc", " ", "space":
		m.mode = uiModeBrowse
		m.noticeTitle = ""
		m.noticeText = ""
	}
	return m, nil
}

func (m uiModel) updateConverting(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "q":
		m.status = "Conversion in progress; ctrl+c aborts"
	}
	return m, nil
}

func (m *uiModel) notice(title, text string) {
	m.mode = uiModeNotice
	m.noticeTitle = title
	m.noticeText = text
}

func (m uiModel) startBatch() (tea.Model, tea.Cmd) {
	q, err := batch.NewQueue(m.files.Paths(), m.outputDir)
	if err != nil {
		m.notice("Error", noticeText(err))
		return m, nil
	}
	m.queue = q
	m.log = nil
	m.percent = 0
	m.status = "Starting conversion..."
	m.mode = uiModeConverting
	return m.startNext()
}

func (m uiModel) startNext() (tea.Model, tea.Cmd) {
	job, ok := m.queue.Next()
	if !ok {
		s := m.queue.Summary()
		m.events = nil
		m.percent = 0
		m.status = "All conversions completed"
		title := "Success"
		text := "All files have been converted"
		if s.Failed > 0 {
			title = "Finished with errors"
			text = fmt.Sprintf("%d of %d files failed; see the conversion log", s.Failed, s.Total)
		}
		m.notice(title, fmt.Sprintf("%s\n\ncompleted: %d  failed: %d  records: %d", text, s.Completed, s.Failed, s.Records))
		return m, nil
	}
	m.events = batch.Start(job, m.opts, m.logger)
	return m, waitForEvent(m.events)
}

func (m uiModel) handleEvent(ev batch.Event) (tea.Model, tea.Cmd) {
	if m.queue == nil || m.events == nil {
		return m, nil
	}
	if !ev.Terminal() {
		prog := ev.Progress()
		m.percent = prog.Percent
		m.status = fmt.Sprintf("[%d/%d] %s", m.queue.Position(), m.queue.Len(), prog.Message)
		return m, waitForEvent(m.events)
	}
	if err := m.queue.Complete(*ev.Result); err != nil && m.logger != nil {
		m.logger.WithError(err).Warn("could not record job result")
	}
	m.log = append(m.log, batch.LogLine(*ev.Result))
	return m.startNext()
}

func waitForEvent(events <-chan batch.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return uiChannelClosedMsg{}
		}
		return uiEventMsg{ev: ev}
	}
}

func (m uiModel) View() string {
	width := m.width
	if width <= 0 {
		width = 100
	}
	height := m.height
	if height <= 0 {
		height = 30
	}
	if m.mode == uiModeNotice {
		return m.viewNotice(width, height)
	}

	header := uiTitleStyle.Render("dbf-converter") + "\n" +
		uiMutedStyle.Render("a: add | d: remove selected | C: clear | o: output dir | space: select | enter: convert | q: quit")
	files := m.renderFiles(width, clampInt(height-18, 3, 20))
	output := kv("Output directory", defaultIfEmpty(m.outputDir, "(not set, press o)"))
	bar := m.bar.ViewAs(float64(m.percent) / 100)
	status := wrapOrTrim(m.status, width-2)
	if strings.HasPrefix(strings.ToLower(m.status), "error:") {
		status = uiErrorStyle.Render(status)
	}
	logPanel := m.renderLog(width, clampInt(height-20, 3, 12))

	parts := []string{header, files, output, bar, status, logPanel}
	if m.mode == uiModeInput {
		label := "Add DBF file (path or glob)"
		if m.inputKind == uiInputOutputDir {
			label = "Output directory"
		}
		parts = append(parts, uiPanelStyle.Width(max(width-2, 20)).Render(label+"\n"+m.input.View()+"\n"+uiMutedStyle.Render("enter: accept | esc: cancel")))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m uiModel) renderFiles(width, maxRows int) string {
	paths := m.files.Paths()
	lines := make([]string, 0, maxRows+3)
	lines = append(lines, fmt.Sprintf("Files (%d)", len(paths)))
	if len(paths) == 0 {
		lines = append(lines, uiMutedStyle.Render("No files yet. Press a to add DBF files."))
	}
	start, end := listWindow(len(paths), m.cursor, maxRows)
	if start > 0 {
		lines = append(lines, uiMutedStyle.Render("..."))
	}
	for i := start; i < end; i++ {
		mark := " "
		if m.selected[i] {
			mark = "x"
		}
		line := truncateRunes(fmt.Sprintf("[%s] %s", mark, paths[i]), max(width-6, 10))
		if i == m.cursor && m.mode != uiModeConverting {
			line = uiCursorStyle.Width(max(width-4, 6)).Render(line)
		}
		lines = append(lines, line)
	}
	if end < len(paths) {
		lines = append(lines, uiMutedStyle.Render("..."))
	}
	return uiPanelStyle.Width(width).Render(strings.Join(lines, "\n"))
}

func (m uiModel) renderLog(width, maxRows int) string {
	lines := []string{"Conversion log"}
	entries := m.log
	if len(entries) > maxRows {
		entries = entries[len(entries)-maxRows:]
	}
	for _, l := range entries {
		style := uiOKStyle
		if strings.HasPrefix(l, "✗") {
			style = uiErrorStyle
		}
		lines = append(lines, style.Render(wrapOrTrim(l, max(width-6, 10))))
	}
	if len(m.log) == 0 {
		lines = append(lines, uiMutedStyle.Render("(empty)"))
	}
	return uiPanelStyle.Width(width).Render(strings.Join(lines, "\n"))
}

func (m uiModel) viewNotice(width, height int) string {
	title := uiTitleStyle.Render(m.noticeTitle)
	if m.noticeTitle == "Error" {
		title = uiErrorStyle.Render(m.noticeTitle)
	}
	text := title + "\n\n" + m.noticeText + "\n\n" + uiMutedStyle.Render("Press Enter or Esc to continue.")
	boxW := clampInt(width-8, 36, 80)
	panel := uiPanelStyle.Width(boxW).Render(text)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, panel)
}
