package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap lists every binding of the dashboard. It satisfies help.KeyMap.
type keyMap struct {
	Predict       key.Binding
	EditSymbol    key.Binding
	Model         key.Binding
	HorizonUp     key.Binding
	HorizonDown   key.Binding
	ClearFile     key.Binding
	Dark          key.Binding
	Notifications key.Binding
	Language      key.Binding
	Currency      key.Binding
	Timezone      key.Binding
	AutoRefresh   key.Binding
	Save          key.Binding
	Export        key.Binding
	Dismiss       key.Binding
	Help          key.Binding
	Quit          key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Predict:       key.NewBinding(key.WithKeys("enter", "p"), key.WithHelp("enter", "predict")),
		EditSymbol:    key.NewBinding(key.WithKeys("/", "i"), key.WithHelp("/", "symbol")),
		Model:         key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "model")),
		HorizonUp:     key.NewBinding(key.WithKeys("+", "=", "up"), key.WithHelp("+", "more days")),
		HorizonDown:   key.NewBinding(key.WithKeys("-", "down"), key.WithHelp("-", "fewer days")),
		ClearFile:     key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "clear csv")),
		Dark:          key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "dark mode")),
		Notifications: key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "notifications")),
		Language:      key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "language")),
		Currency:      key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "currency")),
		Timezone:      key.NewBinding(key.WithKeys("z"), key.WithHelp("z", "timezone")),
		AutoRefresh:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "auto-refresh")),
		Save:          key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "save")),
		Export:        key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "export")),
		Dismiss:       key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "dismiss toast")),
		Help:          key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:          key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Predict, k.EditSymbol, k.Model, k.HorizonUp, k.HorizonDown, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Predict, k.EditSymbol, k.Model, k.HorizonUp, k.HorizonDown, k.ClearFile},
		{k.Dark, k.Notifications, k.Language, k.Currency, k.Timezone, k.AutoRefresh},
		{k.Save, k.Export, k.Dismiss, k.Help, k.Quit},
	}
}
