package ui

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// barWidth is the width of the animated bar in cells.
const barWidth = 40

// progressImpl implements the Progress interface.
type progressImpl struct {
	theme    *Theme
	headless *HeadlessManager
	writer   io.Writer
}

// NewProgress creates a Progress writing to os.Stderr, so that converted
// output piped through stdout stays clean.
func NewProgress(theme *Theme, hm *HeadlessManager) Progress {
	return &progressImpl{theme: theme, headless: hm, writer: os.Stderr}
}

// newProgressImpl creates a progressImpl with a custom writer (for testing).
func newProgressImpl(theme *Theme, hm *HeadlessManager, w io.Writer) *progressImpl {
	return &progressImpl{theme: theme, headless: hm, writer: w}
}

func (p *progressImpl) animated() bool {
	return p.headless.CanAnimate() && !p.theme.NoColor
}

// Start creates a determinate progress bar.
func (p *progressImpl) Start(title string, total int) ProgressBar {
	if !p.animated() {
		return newLineProgressBar(title, total, p.writer)
	}
	return newAnimatedProgressBar(p.theme, title, total, p.writer)
}

// Spinner creates an indeterminate spinner.
func (p *progressImpl) Spinner(title string) Spinner {
	if !p.animated() {
		return newLineSpinner(title, p.writer)
	}
	return newAnimatedSpinner(p.theme, title, p.writer)
}

// --- animated spinner ---

type (
	spinnerTitleMsg string
	spinnerStopMsg  struct{}
)

type spinnerModel struct {
	spinner spinner.Model
	title   string
	done    bool
}

func newSpinnerModel(theme *Theme, title string) spinnerModel {
	s := spinner.New(spinner.WithSpinner(spinner.Dot))
	s.Style = theme.Style(theme.Colors.Primary)
	return spinnerModel{spinner: s, title: title}
}

func (m spinnerModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinnerTitleMsg:
		m.title = string(msg)
	case spinnerStopMsg:
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.done = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m spinnerModel) View() string {
	if m.done {
		return ""
	}
	return m.spinner.View() + " " + m.title + "\n"
}

// animatedSpinner drives a spinnerModel in its own tea.Program.
type animatedSpinner struct {
	program *tea.Program
	once    sync.Once
}

func newAnimatedSpinner(theme *Theme, title string, w io.Writer) *animatedSpinner {
	p := tea.NewProgram(newSpinnerModel(theme, title), tea.WithOutput(w))
	go func() {
		_, _ = p.Run()
	}()
	return &animatedSpinner{program: p}
}

func (s *animatedSpinner) SetTitle(title string) {
	s.program.Send(spinnerTitleMsg(title))
}

// Stop halts the spinner and waits for the program to exit. Safe to call
// more than once.
func (s *animatedSpinner) Stop() {
	s.once.Do(func() {
		s.program.Send(spinnerStopMsg{})
		s.program.Wait()
	})
}

// --- animated progress bar ---

type (
	progressStepMsg struct {
		n     int
		title string
	}
	progressTitleMsg string
	progressDoneMsg  struct{}
)

type progressModel struct {
	bar     progress.Model
	muted   lipgloss.Style
	title   string
	current int
	total   int
	done    bool
}

func newProgressModel(theme *Theme, title string, total int) progressModel {
	opts := []progress.Option{progress.WithWidth(barWidth)}
	if theme.NoColor {
		opts = append(opts, progress.WithDefaultGradient())
	} else {
		opts = append(opts, progress.WithGradient(theme.Colors.Primary, theme.Colors.Secondary))
	}
	return progressModel{
		bar:   progress.New(opts...),
		muted: theme.Style(theme.Colors.Muted),
		title: title,
		total: total,
	}
}

func (m progressModel) Init() tea.Cmd {
	return nil
}

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case progressStepMsg:
		m.current = min(m.current+msg.n, m.total)
		if msg.title != "" {
			m.title = msg.title
		}
	case progressTitleMsg:
		m.title = string(msg)
	case progressDoneMsg:
		m.current = m.total
		m.done = true
		return m, tea.Quit
	case progress.FrameMsg:
		pm, cmd := m.bar.Update(msg)
		m.bar = pm.(progress.Model)
		return m, cmd
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.done = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m progressModel) View() string {
	if m.done {
		return ""
	}
	return m.bar.ViewAs(fraction(m.current, m.total)) + " " +
		m.muted.Render(fmt.Sprintf("[%d/%d]", m.current, m.total)) + " " + m.title + "\n"
}

func fraction(current, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(current) / float64(total)
}

// animatedProgressBar drives a progressModel in its own tea.Program.
type animatedProgressBar struct {
	program *tea.Program
	once    sync.Once
}

func newAnimatedProgressBar(theme *Theme, title string, total int, w io.Writer) *animatedProgressBar {
	p := tea.NewProgram(newProgressModel(theme, title, total), tea.WithOutput(w))
	go func() {
		_, _ = p.Run()
	}()
	return &animatedProgressBar{program: p}
}

func (b *animatedProgressBar) Increment(n int) {
	b.program.Send(progressStepMsg{n: n})
}

func (b *animatedProgressBar) SetTitle(title string) {
	b.program.Send(progressTitleMsg(title))
}

// step advances and retitles in one message so the two never render apart.
func (b *animatedProgressBar) step(n int, title string) {
	b.program.Send(progressStepMsg{n: n, title: title})
}

// Done completes the bar and waits for the program to exit. Safe to call
// more than once.
func (b *animatedProgressBar) Done() {
	b.once.Do(func() {
		b.program.Send(progressDoneMsg{})
		b.program.Wait()
	})
}

// --- line output ---

// lineProgressBar writes one "[current/total] title" line per step.
type lineProgressBar struct {
	mu      sync.Mutex
	title   string
	total   int
	current int
	done    bool
	writer  io.Writer
}

func newLineProgressBar(title string, total int, w io.Writer) *lineProgressBar {
	return &lineProgressBar{title: title, total: total, writer: w}
}

func (b *lineProgressBar) Increment(n int) {
	b.step(n, "")
}

func (b *lineProgressBar) step(n int, title string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.current = min(b.current+n, b.total)
	if title != "" {
		b.title = title
	}
	_, _ = fmt.Fprintf(b.writer, "[%d/%d] %s\n", b.current, b.total, b.title)
}

func (b *lineProgressBar) SetTitle(title string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.title = title
}

// Done writes a final line once.
func (b *lineProgressBar) Done() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.done {
		return
	}
	b.done = true
	if b.current < b.total {
		b.current = b.total
		_, _ = fmt.Fprintf(b.writer, "[%d/%d] %s\n", b.current, b.total, b.title)
	}
}

// lineSpinner prints its title whenever it changes.
type lineSpinner struct {
	writer io.Writer
}

func newLineSpinner(title string, w io.Writer) *lineSpinner {
	_, _ = fmt.Fprintln(w, title)
	return &lineSpinner{writer: w}
}

func (s *lineSpinner) SetTitle(title string) {
	_, _ = fmt.Fprintln(s.writer, title)
}

func (s *lineSpinner) Stop() {}

// stepper is implemented by bars that can advance and retitle atomically.
type stepper interface {
	step(n int, title string)
}

// ConversionObserver shows a run's progress on a bar. It satisfies the
// driver's observer contract: Planned opens the bar, FileDone advances it.
type ConversionObserver struct {
	progress Progress
	title    string
	bar      ProgressBar
}

// NewConversionObserver returns an observer that opens a bar titled title.
func NewConversionObserver(p Progress, title string) *ConversionObserver {
	return &ConversionObserver{progress: p, title: title}
}

// Planned opens the bar for total files.
func (o *ConversionObserver) Planned(total int) {
	o.bar = o.progress.Start(o.title, total)
}

// FileDone advances the bar by one file.
func (o *ConversionObserver) FileDone(rel string) {
	if o.bar == nil {
		return
	}
	if s, ok := o.bar.(stepper); ok {
		s.step(1, rel)
		return
	}
	o.bar.SetTitle(rel)
	o.bar.Increment(1)
}

// Finish closes the bar. Runs that fail before planning have no bar.
func (o *ConversionObserver) Finish() {
	if o.bar != nil {
		o.bar.Done()
	}
}
