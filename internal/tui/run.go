package tui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
)

// Run drives m until the user quits or ctx is cancelled. The terminal is put
// in the alternate screen with mouse reporting on, and is restored on every
// exit path: quit, error, cancellation and panic.
func Run(ctx context.Context, m *Model, opts ...tea.ProgramOption) error {
	base := []tea.ProgramOption{
		tea.WithContext(ctx),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	}
	p := tea.NewProgram(m, append(base, opts...)...)

	_, err := p.Run()
	if err != nil && ctx.Err() != nil && errors.Is(err, tea.ErrProgramKilled) {
		// shutdown by signal
		return nil
	}
	return err
}
