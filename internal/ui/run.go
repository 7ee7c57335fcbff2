package ui

import (
	"context"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jonboulle/clockwork"

	"github.com/DaanHessen/storyreel/internal/story"
	"github.com/DaanHessen/storyreel/internal/util"
)

// Run boots the TUI program and blocks until it exits. When cfg names a
// group the viewer opens on it straight away.
func Run(ctx context.Context, catalog *story.Catalog, cfg util.Config, log *slog.Logger) error {
	m := initialModel(ctx, catalog, cfg, log, clockwork.NewRealClock())
	if cfg.App.Group != "" {
		if _, err := m.open(cfg.App.Group); err != nil {
			return err
		}
	}
	program := tea.NewProgram(m, tea.WithContext(ctx), tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := program.Run()
	return err
}
