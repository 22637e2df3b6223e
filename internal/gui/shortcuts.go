package gui

import (
	"fyne.io/fyne/v2"
)

// setupKeyboardShortcuts binds the board hotkeys. Every letter works with
// both Latin and Cyrillic keyboard layouts.
func (a *Application) setupKeyboardShortcuts() {
	a.window.Canvas().SetOnTypedRune(a.handleRune)
	a.window.Canvas().SetOnTypedKey(a.handleKey)
}

func (a *Application) handleRune(r rune) {
	a.mu.Lock()
	dialogOpen, closeDialog := a.dialogOpen, a.closeDialog
	a.mu.Unlock()

	if dialogOpen {
		switch r {
		case 'c', 'C', 'ц', 'Ц', 'h', 'H', 'х', 'Х':
			if closeDialog != nil {
				closeDialog()
			}
		}
		return
	}

	switch r {
	case ' ', 's', 'S', 'с', 'С':
		if !a.playButton.Disabled() {
			a.onTogglePlay()
		}
	case 'n', 'N', 'н', 'Н':
		if !a.stepButton.Disabled() {
			a.onStep()
		}
	case 'r', 'R', 'р', 'Р':
		a.onReset()
	case '1', '2', '3', '4':
		a.selectInterval(int(r - '1'))
	case 'h', 'H', 'х', 'Х', '?':
		a.onShowHotkeys()
	case 'q', 'Q', 'ч', 'Ч':
		a.app.Quit()
	}
}

func (a *Application) handleKey(ev *fyne.KeyEvent) {
	switch ev.Name {
	case fyne.KeyRight:
		if !a.stepButton.Disabled() {
			a.onStep()
		}
	case fyne.KeyEscape:
		a.mu.Lock()
		closeDialog := a.closeDialog
		open := a.dialogOpen
		a.mu.Unlock()
		if open && closeDialog != nil {
			closeDialog()
		}
	}
}
