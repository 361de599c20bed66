// Package tui implements the interactive project explorer.
package tui

import (
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Run shows the explorer on stderr until the user quits. stdout stays free
// for scripted use.
func Run(opts Options) error {
	lipgloss.SetDefaultRenderer(lipgloss.NewRenderer(os.Stderr, termenv.WithColorCache(true)))

	p := tea.NewProgram(NewExplorerModel(opts), tea.WithOutput(os.Stderr), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
