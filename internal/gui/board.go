package gui

import (
	"strconv"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	ttwidget "github.com/dweymouth/fyne-tooltip/widget"

	"codeberg.org/snonux/bingobg/internal/caller"
	"codeberg.org/snonux/bingobg/internal/numbers"
)

// Board is the grid of the 90 numbers. Drawn numbers are highlighted and
// the latest one stands out.
type Board struct {
	widget.BaseWidget

	container *fyne.Container
	cells     []*ttwidget.Button
	onTap     func(n int)
}

// NewBoard creates the grid; onTap receives the number of a clicked cell
func NewBoard(onTap func(n int)) *Board {
	b := &Board{
		cells: make([]*ttwidget.Button, numbers.Max),
		onTap: onTap,
	}

	objects := make([]fyne.CanvasObject, numbers.Max)
	for i := range b.cells {
		n := i + 1
		cell := ttwidget.NewButton(strconv.Itoa(n), func() {
			if b.onTap != nil {
				b.onTap(n)
			}
		})
		cell.Importance = widget.LowImportance
		b.cells[i] = cell
		objects[i] = cell
	}
	b.container = container.NewGridWithColumns(gridColumns, objects...)

	b.ExtendBaseWidget(b)
	return b
}

// CreateRenderer implements fyne.Widget
func (b *Board) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(b.container)
}

// SetToolTips attaches the cell hint; the tooltip layer must exist first
func (b *Board) SetToolTips() {
	for _, cell := range b.cells {
		cell.SetToolTip(cellTooltip)
	}
}

// Update highlights the drawn numbers of s
func (b *Board) Update(s caller.Snapshot) {
	drawn := make(map[int]bool, len(s.Drawn))
	for _, n := range s.Drawn {
		drawn[n] = true
	}

	for i, cell := range b.cells {
		n := i + 1
		want := cellImportance(n, drawn, s)
		if cell.Importance != want {
			cell.Importance = want
			cell.Refresh()
		}
	}
}

// Cell returns the button of n, for tests and shortcuts
func (b *Board) Cell(n int) *ttwidget.Button {
	if n < 1 || n > len(b.cells) {
		return nil
	}
	return b.cells[n-1]
}

func cellImportance(n int, drawn map[int]bool, s caller.Snapshot) widget.Importance {
	switch {
	case s.HasCurrent() && n == s.Current:
		return widget.SuccessImportance
	case drawn[n]:
		return widget.HighImportance
	default:
		return widget.LowImportance
	}
}
