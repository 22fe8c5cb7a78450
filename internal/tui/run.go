package tui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Run starts the TUI from a prepared setup (catalogs loaded, host detected by the caller).
func Run(s Setup) error {
	app, err := NewApp(s)
	if err != nil {
		return err
	}
	m := &model{app: app}
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err = p.Run()
	return err
}

type model struct {
	app *App
}

func (m *model) Init() tea.Cmd {
	return nil
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.app.Width = msg.Width
		m.app.Height = msg.Height
		return m, nil
	case tea.KeyMsg:
		switch m.app.InputMode {
		case InputModeNormal:
			m.handleNormal(msg)
		case InputModeSearch:
			m.handleSearch(msg)
		case InputModeVendorPopup:
			m.handleVendorPopup(msg)
		}
		if m.app.ShouldQuit {
			return m, tea.Quit
		}
		return m, nil
	}
	return m, nil
}

func (m *model) handleNormal(msg tea.KeyMsg) {
	s := msg.String()
	switch s {
	case "q", "esc":
		if m.app.ShowDetail {
			m.app.ShowDetail = false
		} else {
			m.app.ShouldQuit = true
		}
	case "up", "k":
		m.app.MoveUp()
	case "down", "j":
		m.app.MoveDown()
	case "pgup":
		m.app.PageUp()
	case "pgdown":
		m.app.PageDown()
	case "home", "g":
		m.app.Home()
	case "end", "G":
		m.app.End()
	case "]", "tab":
		m.app.NextModel()
	case "[", "shift+tab":
		m.app.PrevModel()
	case "b":
		m.app.AdjustBatch(true)
	case "B":
		m.app.AdjustBatch(false)
	case "i":
		m.app.AdjustPrompt(true)
	case "I":
		m.app.AdjustPrompt(false)
	case "o":
		m.app.AdjustOutput(true)
	case "O":
		m.app.AdjustOutput(false)
	case "t":
		m.app.CycleQuant()
	case "+", "=":
		m.app.AdjustEfficiency(true)
	case "-":
		m.app.AdjustEfficiency(false)
	case "s":
		m.app.ToggleStrict()
	case "c":
		m.app.ToggleKVBasis()
	case "a":
		m.app.ToggleApproximate()
	case "/":
		m.app.EnterSearch()
	case "f":
		m.app.CycleFitFilter()
	case "v":
		m.app.OpenVendorPopup()
	case "enter":
		m.app.ToggleDetail()
	}
}

func (m *model) handleSearch(msg tea.KeyMsg) {
	s := msg.String()
	switch s {
	case "esc", "enter":
		m.app.ExitSearch()
	case "backspace":
		m.app.SearchBackspace()
	case "delete":
		m.app.SearchDelete()
	case "ctrl+u":
		m.app.ClearSearch()
	case "up":
		m.app.MoveUp()
	case "down":
		m.app.MoveDown()
	default:
		if len(msg.Runes) == 1 {
			m.app.SearchInput(msg.Runes[0])
		}
	}
}

func (m *model) handleVendorPopup(msg tea.KeyMsg) {
	s := msg.String()
	switch s {
	case "esc", "v", "q":
		m.app.CloseVendorPopup()
	case "up", "k":
		m.app.VendorPopupUp()
	case "down", "j":
		m.app.VendorPopupDown()
	case " ", "enter":
		m.app.VendorPopupToggle()
	case "a":
		m.app.VendorPopupSelectAll()
	}
}

func (m *model) View() string {
	return Render(m.app)
}
