package tui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Choice is one row of a single-choice picker.
type Choice struct {
	Label  string
	Detail string
	// Value is what the caller acts on (library name, FQBN, port address).
	Value  string
	Status string
}

func (c Choice) Title() string {
	if c.Status == "" {
		return c.Label
	}
	return c.Label + "  " + StatusStyle(c.Status).Render(c.Status)
}

func (c Choice) Description() string { return c.Detail }
func (c Choice) FilterValue() string { return c.Label }

// PickerModel is a filterable single-choice list. It shows a spinner until
// its choices arrive through ChoicesMsg.
type PickerModel struct {
	title     string
	list      list.Model
	spinner   spinner.Model
	loading   bool
	chosen    *Choice
	cancelled bool
	err       error
}

// NewPickerModel creates a picker that waits for ChoicesMsg.
func NewPickerModel(title string) PickerModel {
	l := list.New(nil, list.NewDefaultDelegate(), 80, 20)
	l.Title = title
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	return PickerModel{
		title:   title,
		list:    l,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
		loading: true,
	}
}

// WithChoices returns a picker already populated with choices.
func (m PickerModel) WithChoices(choices []Choice) PickerModel {
	m.setChoices(choices)
	return m
}

func (m *PickerModel) setChoices(choices []Choice) tea.Cmd {
	items := make([]list.Item, len(choices))
	for i, c := range choices {
		items[i] = c
	}
	m.loading = false
	return m.list.SetItems(items)
}

func (m PickerModel) Init() tea.Cmd {
	if m.loading {
		return m.spinner.Tick
	}
	return nil
}

func (m PickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width, msg.Height-1)
		return m, nil

	case ChoicesMsg:
		return m, m.setChoices(msg.Choices)

	case ErrorMsg:
		m.err = msg.Err
		return m, tea.Quit

	case WorkDoneMsg:
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.cancelled = true
			return m, tea.Quit
		}
		if m.loading {
			if msg.String() == "esc" || msg.String() == "q" {
				m.cancelled = true
				return m, tea.Quit
			}
			return m, nil
		}
		if m.list.FilterState() != list.Filtering {
			switch msg.String() {
			case "enter":
				if item, ok := m.list.SelectedItem().(Choice); ok {
					m.chosen = &item
				}
				return m, tea.Quit
			case "esc", "q":
				if m.list.FilterState() == list.FilterApplied && msg.String() == "esc" {
					break
				}
				m.cancelled = true
				return m, tea.Quit
			}
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m PickerModel) View() string {
	if m.err != nil {
		return fmt.Sprintf("Error: %v\n", m.err)
	}
	if m.chosen != nil || m.cancelled {
		return ""
	}
	if m.loading {
		return fmt.Sprintf("\n %s %s\n", m.spinner.View(), faintStyle.Render("Loading "+m.title+"..."))
	}
	return lipgloss.NewStyle().Margin(0, 1).Render(m.list.View())
}

// Selected returns the chosen entry. ok is false when the user cancelled.
func (m PickerModel) Selected() (Choice, bool) {
	if m.chosen == nil {
		return Choice{}, false
	}
	return *m.chosen, true
}

// Err returns any fatal error that occurred while loading.
func (m PickerModel) Err() error {
	return m.err
}

// RunPicker shows a picker while load runs and returns the user's choice.
func RunPicker(out io.Writer, title string, load func() ([]Choice, error)) (Choice, bool, error) {
	final, err := RunWithWork(out, NewPickerModel(title), func(send func(tea.Msg)) {
		choices, err := load()
		if err != nil {
			send(ErrorMsg{Err: err})
			return
		}
		send(ChoicesMsg{Choices: choices})
	})
	if err != nil {
		return Choice{}, false, err
	}
	picker, ok := final.(PickerModel)
	if !ok {
		return Choice{}, false, nil
	}
	if picker.Err() != nil {
		return Choice{}, false, picker.Err()
	}
	choice, chosen := picker.Selected()
	return choice, chosen, nil
}
