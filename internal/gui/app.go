package gui

import (
	"errors"
	"fmt"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	fynetooltip "github.com/dweymouth/fyne-tooltip"
	ttwidget "github.com/dweymouth/fyne-tooltip/widget"
	"github.com/rs/zerolog"

	"codeberg.org/snonux/bingobg/internal"
	"codeberg.org/snonux/bingobg/internal/caller"
	"codeberg.org/snonux/bingobg/internal/game"
)

// Application represents the desktop board
type Application struct {
	// Fyne components
	app    fyne.App
	window fyne.Window

	// UI elements
	playButton     *ttwidget.Button
	stepButton     *ttwidget.Button
	resetButton    *ttwidget.Button
	helpButton     *ttwidget.Button
	intervalSelect *widget.Select
	bigNumber      *canvas.Text
	caption        *widget.Label
	progress       *widget.ProgressBar
	audioStatus    *widget.Label
	drawnLabel     *widget.Label
	statusLabel    *widget.Label
	board          *Board

	// Game
	session     *game.Session
	unsubscribe func()
	logs        *LogViewer
	log         zerolog.Logger

	// Configuration
	config *Config

	mu          sync.Mutex
	dialogOpen  bool
	closeDialog func()
}

// Config holds GUI application configuration
type Config struct {
	Title  string
	Width  float32
	Height float32
}

// DefaultConfig returns default GUI configuration
func DefaultConfig() *Config {
	return &Config{
		Title:  DefaultTitle,
		Width:  900,
		Height: 760,
	}
}

// New creates the desktop board for session. logs may be nil.
func New(config *Config, session *game.Session, logs *LogViewer, log zerolog.Logger) *Application {
	myApp := app.NewWithID("org.codeberg.snonux.bingobg")
	myApp.SetIcon(GetAppIcon())
	return newApplication(myApp, config, session, logs, log)
}

func newApplication(fyneApp fyne.App, config *Config, session *game.Session, logs *LogViewer, log zerolog.Logger) *Application {
	defaults := DefaultConfig()
	if config == nil {
		config = defaults
	}
	if config.Title == "" {
		config.Title = defaults.Title
	}
	if config.Width <= 0 || config.Height <= 0 {
		config.Width, config.Height = defaults.Width, defaults.Height
	}

	a := &Application{
		app:     fyneApp,
		config:  config,
		session: session,
		logs:    logs,
		log:     log.With().Str("component", "gui").Logger(),
	}

	a.setupUI()
	a.render(session.Caller.Snapshot())
	a.setAudioStatus(session.AudioBlocked())

	a.unsubscribe = session.Caller.Subscribe(func(ev caller.Event) {
		fyne.Do(func() { a.handleEvent(ev) })
	})
	session.Resolver.OnStatus(func(blocked bool) {
		fyne.Do(func() { a.setAudioStatus(blocked) })
	})

	return a
}

// setupUI creates the main user interface
func (a *Application) setupUI() {
	a.window = a.app.NewWindow(fmt.Sprintf("%s v%s", a.config.Title, internal.Version))
	a.window.SetIcon(GetAppIcon())
	a.window.Resize(fyne.NewSize(a.config.Width, a.config.Height))

	// Header controls (tooltips are set after the tooltip layer exists)
	a.playButton = ttwidget.NewButtonWithIcon(labelStart, theme.MediaPlayIcon(), a.onTogglePlay)
	a.playButton.Importance = widget.HighImportance
	a.stepButton = ttwidget.NewButtonWithIcon(labelStep, theme.MediaSkipNextIcon(), a.onStep)
	a.resetButton = ttwidget.NewButtonWithIcon(labelReset, theme.MediaReplayIcon(), a.onReset)
	a.helpButton = ttwidget.NewButtonWithIcon("", theme.HelpIcon(), a.onShowHotkeys)

	a.intervalSelect = widget.NewSelect(intervalOptions(), a.onIntervalSelected)
	a.intervalSelect.SetSelected(intervalLabel(a.session.Caller.Interval()))

	title := canvas.NewText(a.config.Title, theme.Color(theme.ColorNamePrimary))
	title.TextSize = 24
	title.TextStyle = fyne.TextStyle{Bold: true}

	header := container.NewHBox(
		title,
		layout.NewSpacer(),
		a.playButton,
		widget.NewLabel("Интервал:"),
		a.intervalSelect,
		a.stepButton,
		a.resetButton,
		a.helpButton,
	)

	// Current number
	a.caption = widget.NewLabel("")
	a.caption.Alignment = fyne.TextAlignCenter
	a.bigNumber = canvas.NewText(idleNumber, theme.Color(theme.ColorNameForeground))
	a.bigNumber.TextSize = 96
	a.bigNumber.TextStyle = fyne.TextStyle{Bold: true}
	a.bigNumber.Alignment = fyne.TextAlignCenter
	a.progress = widget.NewProgressBar()
	a.progress.TextFormatter = func() string { return "" }

	current := container.NewVBox(a.caption, a.bigNumber, a.progress)

	// Status row
	a.audioStatus = widget.NewLabel(audioStatusText(false))
	a.audioStatus.TextStyle = fyne.TextStyle{Bold: true}
	a.drawnLabel = widget.NewLabel("")
	a.statusLabel = widget.NewLabel("")
	status := container.NewHBox(a.audioStatus, layout.NewSpacer(), a.statusLabel, a.drawnLabel)

	// Number grid
	a.board = NewBoard(a.onCell)

	main := container.NewVBox(
		widget.NewCard("", "", current),
		status,
		a.board,
	)

	var content fyne.CanvasObject = container.NewVScroll(main)
	if a.logs != nil {
		split := container.NewVSplit(content, a.logs.Widget())
		split.Offset = 0.8
		content = split
	}
	content = container.NewBorder(container.NewPadded(header), nil, nil, nil, content)

	// Add the tooltip layer to enable tooltips
	a.window.SetContent(fynetooltip.AddWindowToolTipLayer(content, a.window.Canvas()))
	a.setupTooltips()

	a.window.SetOnClosed(func() {
		if a.unsubscribe != nil {
			a.unsubscribe()
		}
	})

	a.setupKeyboardShortcuts()
}

// Run shows the board and blocks until the window is closed
func (a *Application) Run() {
	a.log.Info().Msg("Board opened")
	a.window.ShowAndRun()
}

// setupTooltips sets up all tooltips after the tooltip layer has been created
func (a *Application) setupTooltips() {
	a.playButton.SetToolTip("Старт / пауза (интервал, с)")
	a.stepButton.SetToolTip("Изтегли следващото число (n, н)")
	a.resetButton.SetToolTip("Ново теглене (r, р)")
	a.helpButton.SetToolTip("Клавишни комбинации (h, х)")
	a.board.SetToolTips()
}

func (a *Application) handleEvent(ev caller.Event) {
	if ev.Kind == caller.EventProgress {
		a.progress.SetValue(ev.Snapshot.Progress)
		return
	}
	a.render(ev.Snapshot)
}

// render brings every widget in line with s. It runs on the UI goroutine.
func (a *Application) render(s caller.Snapshot) {
	a.playButton.SetText(playLabel(s))
	if s.Playing {
		a.playButton.SetIcon(theme.MediaPauseIcon())
	} else {
		a.playButton.SetIcon(theme.MediaPlayIcon())
	}

	start, step := controlsEnabled(s)
	setEnabled(a.playButton, start)
	setEnabled(a.stepButton, step)

	a.bigNumber.Text = bigText(s)
	a.bigNumber.Refresh()
	a.caption.SetText(captionText(s))
	a.progress.SetValue(s.Progress)
	a.drawnLabel.SetText(drawnText(s))

	if label := intervalLabel(s.Interval); s.Interval > 0 && a.intervalSelect.Selected != label {
		a.intervalSelect.SetSelected(label)
	}
	if s.State == caller.StateFinished {
		a.statusLabel.SetText("Всички числа са изтеглени")
	} else {
		a.statusLabel.SetText("")
	}

	a.board.Update(s)
}

func (a *Application) setAudioStatus(blocked bool) {
	a.audioStatus.SetText(audioStatusText(blocked))
}

func (a *Application) onTogglePlay() {
	if err := a.session.Caller.TogglePlay(); err != nil {
		a.showError(err)
	}
}

func (a *Application) onStep() {
	if err := a.session.Caller.Step(); err != nil && !errors.Is(err, caller.ErrPlaying) {
		a.showError(err)
	}
}

func (a *Application) onReset() {
	a.session.Caller.Reset()
}

func (a *Application) onIntervalSelected(label string) {
	d, ok := parseIntervalLabel(label)
	if !ok {
		return
	}
	if err := a.session.Caller.SetInterval(d); err != nil {
		a.showError(err)
	}
}

func (a *Application) onCell(n int) {
	if err := a.session.Preview(n); err != nil {
		a.showError(err)
	}
}

// selectInterval picks the i-th interval option
func (a *Application) selectInterval(i int) {
	if i < 0 || i >= len(caller.Intervals) {
		return
	}
	a.intervalSelect.SetSelected(intervalLabel(caller.Intervals[i]))
}

func (a *Application) showError(err error) {
	if errors.Is(err, caller.ErrFinished) {
		a.statusLabel.SetText("Всички числа са изтеглени")
		return
	}
	a.log.Warn().Err(err).Msg("Action failed")
	a.statusLabel.SetText(err.Error())
}

func setEnabled(w fyne.Disableable, enabled bool) {
	if enabled {
		w.Enable()
	} else {
		w.Disable()
	}
}

// onShowHotkeys displays a dialog with all available keyboard shortcuts
func (a *Application) onShowHotkeys() {
	hotkeys := `## Игра
**интервал / s / с** Старт или пауза  
**n / н** Следващо число  
**r / р** Ново теглене  
**1 - 4** Интервал 3s, 5s, 8s, 10s  

## Приложение
**h / х** Клавишни комбинации  
**c / ц** Затвори прозореца  
**q / ч** Изход  

---
*Клавишите работят с латиница и кирилица*

Кликни върху число, за да го чуеш.`

	content := widget.NewRichTextFromMarkdown(hotkeys)
	content.Wrapping = fyne.TextWrapWord

	scroll := container.NewScroll(container.NewPadded(content))
	scroll.SetMinSize(fyne.NewSize(420, 320))

	d := dialog.NewCustom("Клавишни комбинации", "Затвори", scroll, a.window)

	a.mu.Lock()
	a.dialogOpen = true
	a.mu.Unlock()

	d.SetOnClosed(func() {
		a.mu.Lock()
		a.dialogOpen = false
		a.mu.Unlock()
	})
	a.closeDialog = d.Hide
	d.Show()
}
