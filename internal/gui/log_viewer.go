package gui

import (
	"strings"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	"github.com/rs/zerolog"
)

// DefaultMaxMessages is how many log lines the viewer keeps
const DefaultMaxMessages = 500

// LogViewer collects log lines for the board's log pane. It is an
// io.Writer for zerolog JSON output and may be created before the window.
type LogViewer struct {
	console zerolog.ConsoleWriter

	mu          sync.Mutex
	messages    []string
	maxMessages int
	entry       *widget.Entry
	scrollView  *container.Scroll
}

// NewLogViewer creates an empty viewer
func NewLogViewer() *LogViewer {
	v := &LogViewer{
		maxMessages: DefaultMaxMessages,
	}
	v.console = zerolog.ConsoleWriter{
		Out:        lineSink{v},
		NoColor:    true,
		TimeFormat: "15:04:05",
	}
	return v
}

// Write implements io.Writer. Each call carries one JSON log event.
func (v *LogViewer) Write(p []byte) (int, error) {
	if _, err := v.console.Write(p); err != nil {
		// Not JSON; keep the raw text
		v.AddMessage(string(p))
	}
	return len(p), nil
}

// AddMessage adds a message to the log, newest first
func (v *LogViewer) AddMessage(message string) {
	message = strings.TrimRight(message, "\n")
	if message == "" {
		return
	}

	v.mu.Lock()
	v.messages = append([]string{message}, v.messages...)
	if len(v.messages) > v.maxMessages {
		v.messages = v.messages[:v.maxMessages]
	}
	text := strings.Join(v.messages, "\n")
	entry, scroll := v.entry, v.scrollView
	v.mu.Unlock()

	if entry == nil {
		return
	}
	fyne.Do(func() {
		entry.SetText(text)
		scroll.Offset = fyne.NewPos(0, 0)
		scroll.Refresh()
	})
}

// Messages returns the collected lines, newest first
func (v *LogViewer) Messages() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]string(nil), v.messages...)
}

// Clear clears all log messages
func (v *LogViewer) Clear() {
	v.mu.Lock()
	v.messages = v.messages[:0]
	entry := v.entry
	v.mu.Unlock()

	if entry != nil {
		fyne.Do(func() { entry.SetText("") })
	}
}

// Widget builds the log pane. It must run on the UI goroutine.
func (v *LogViewer) Widget() fyne.CanvasObject {
	entry := widget.NewMultiLineEntry()
	entry.Disable()
	entry.Wrapping = fyne.TextWrapWord

	scroll := container.NewScroll(entry)
	scroll.SetMinSize(fyne.NewSize(0, 120))
	scroll.Direction = container.ScrollBoth

	v.mu.Lock()
	entry.SetText(strings.Join(v.messages, "\n"))
	v.entry = entry
	v.scrollView = scroll
	v.mu.Unlock()

	return container.NewBorder(
		widget.NewLabel("Журнал (най-новите отгоре):"),
		nil, nil, nil,
		scroll,
	)
}

// lineSink receives the formatted console lines
type lineSink struct {
	v *LogViewer
}

func (s lineSink) Write(p []byte) (int, error) {
	s.v.AddMessage(string(p))
	return len(p), nil
}
