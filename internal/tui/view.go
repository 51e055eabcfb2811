package tui

import (
	"fmt"
	"strings"

	"coinboard/internal/market"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
)

const (
	title = "coinboard · CoinCap top assets"

	// title, status and help lines plus the table's borders and header;
	// the error banner adds one more
	chromeLines = 7
)

var (
	upColor     = lipgloss.Color("10")
	downColor   = lipgloss.Color("9")
	accentColor = lipgloss.Color("12")
	dimColor    = lipgloss.Color("240")

	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(accentColor)
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(accentColor).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	upStyle     = cellStyle.Foreground(upColor)
	downStyle   = cellStyle.Foreground(downColor)
	borderStyle = lipgloss.NewStyle().Foreground(dimColor)
	dimStyle    = lipgloss.NewStyle().Foreground(dimColor)
	errStyle    = lipgloss.NewStyle().Foreground(downColor)
)

// rowStyle colours a row by the sign of its 24h change.
func rowStyle(r market.Row, selected bool) lipgloss.Style {
	s := upStyle
	if r.Down {
		s = downStyle
	}
	if selected {
		s = s.Reverse(true).Bold(true)
	}
	return s
}

func (m *Model) View() string {
	rows := m.state.Rows()
	sel, ok := m.state.Selected()
	if !ok {
		sel = -1
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(title))
	b.WriteByte('\n')
	b.WriteString(renderTable(rows, sel, m.offset, m.tableRows()))
	b.WriteByte('\n')
	b.WriteString(m.statusLine(len(rows)))
	b.WriteByte('\n')
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m *Model) statusLine(n int) string {
	var parts []string
	if m.inFlight > 0 {
		parts = append(parts, m.spinner.View()+" refreshing")
	}

	last := m.state.LastRefresh()
	if last.IsZero() {
		parts = append(parts, "waiting for data")
	} else {
		parts = append(parts, fmt.Sprintf("%d assets, updated %s", n, humanize.RelTime(last, m.now(), "ago", "from now")))
	}
	line := dimStyle.Render(strings.Join(parts, "  "))

	if err := m.state.LastError(); err != nil {
		// response bodies may span lines; the banner must not
		msg := strings.Join(strings.Fields("refresh failed: "+err.Error()), " ")
		if m.width > 0 {
			msg = market.Truncate(msg, m.width)
		}
		line += "\n" + errStyle.Render(msg)
	}
	return line
}

// RenderTable draws rows as a bordered table with no selection.
func RenderTable(rows []market.Row) string {
	return renderTable(rows, -1, 0, 0)
}

// renderTable draws at most limit rows starting at offset; limit <= 0 draws
// everything.
func renderTable(rows []market.Row, selected, offset, limit int) string {
	if offset < 0 || offset > len(rows) {
		offset = 0
	}
	end := len(rows)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	visible := rows[offset:end]

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers(market.Headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if row < 0 || row >= len(visible) {
				return cellStyle
			}
			return rowStyle(visible[row], offset+row == selected)
		})
	for _, r := range visible {
		t.Row(r.Cells()...)
	}
	return t.String()
}

func (m *Model) tableRows() int {
	chrome := chromeLines
	if m.state.LastError() != nil {
		chrome++
	}
	return visibleRows(m.height, chrome)
}

// visibleRows is how many table rows fit in a terminal of the given height
// next to chrome other lines. Zero means the height is unknown and every row
// is drawn.
func visibleRows(height, chrome int) int {
	if height <= 0 {
		return 0
	}
	return max(height-chrome, 1)
}

// scrollWindow returns the first visible row so that selected stays on
// screen.
func scrollWindow(offset, selected, total, visible int) int {
	if visible <= 0 || total <= visible {
		return 0
	}
	if selected >= 0 {
		if selected < offset {
			offset = selected
		} else if selected >= offset+visible {
			offset = selected - visible + 1
		}
	}
	return min(max(offset, 0), total-visible)
}
