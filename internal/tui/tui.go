// Package tui is the interactive consumer of the todo store: a Bubble
// Tea list that subscribes to full-state snapshots and dispatches domain
// operations from keybindings. It never touches state directly.
package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/idilsaglam/todostate/internal/model"
	"github.com/idilsaglam/todostate/internal/store"
	"github.com/idilsaglam/todostate/internal/ui"
)

// listItem adapts a todo to bubbles/list.Item.
type listItem struct {
	todo model.Todo
}

func (i listItem) Title() string       { return i.todo.Title }
func (i listItem) Description() string { return "" }
func (i listItem) FilterValue() string { return i.todo.Title }

// stateMsg carries a store snapshot into the Bubble Tea loop.
type stateMsg store.State

type modelTUI struct {
	store   *store.Store
	updates chan store.State
	list    list.Model

	// Inline add / edit share one text input.
	adding  bool
	editing bool
	editID  string
	ti      textinput.Model
	inErr   string
}

// Custom delegate to render each todo on a single line.
type itemDelegate struct{}

func (d itemDelegate) Height() int                               { return 1 }
func (d itemDelegate) Spacing() int                              { return 0 }
func (d itemDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, _ := item.(listItem)

	box := ui.Muted.Render(ui.BoxUnchecked)
	text := it.todo.Title
	if it.todo.Completed {
		box = ui.Success.Render(ui.BoxChecked)
		text = ui.Done.Render(text)
	}

	prefix := "  "
	if index == m.Index() {
		prefix = ui.Selected.Render("> ")
	}
	fmt.Fprintln(w, prefix+box+" "+text)
}

// Run starts the interactive list against s and blocks until quit.
// Every mutation flows through the store; the list re-renders from the
// snapshots the subscription delivers.
func Run(s *store.Store) error {
	updates := make(chan store.State, 16)
	unsub := s.Subscribe(func(st store.State) {
		// Never block the notify loop; drop the oldest pending
		// snapshot instead, the latest one wins anyway.
		for {
			select {
			case updates <- st:
				return
			default:
				select {
				case <-updates:
				default:
				}
			}
		}
	})
	defer unsub()

	l := list.New(nil, itemDelegate{}, 0, 0)
	l.SetShowHelp(true)
	l.SetShowPagination(true)
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = ui.Title
	l.Styles.HelpStyle = ui.Help
	l.Styles.PaginationStyle = ui.Help
	l.FilterInput.Prompt = "/ "
	l.SetStatusBarItemName("item", "items")

	bindings := []key.Binding{
		key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
		key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
		key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "toggle")),
		key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		key.NewBinding(key.WithKeys("J"), key.WithHelp("J/K", "move")),
	}
	l.AdditionalShortHelpKeys = func() []key.Binding { return bindings }
	l.AdditionalFullHelpKeys = func() []key.Binding { return bindings }

	m := modelTUI{store: s, updates: updates, list: l}
	m.ti = textinput.New()
	m.ti.Prompt = "> "
	m.ti.Placeholder = "New item title..."
	m.ti.CharLimit = 200

	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func (m modelTUI) Init() tea.Cmd { return m.waitForUpdate }

// waitForUpdate bridges the subscription channel into the message loop.
func (m modelTUI) waitForUpdate() tea.Msg {
	return stateMsg(<-m.updates)
}

// selected returns the todo under the cursor.
func (m modelTUI) selected() (model.Todo, bool) {
	it, ok := m.list.SelectedItem().(listItem)
	if !ok {
		return model.Todo{}, false
	}
	return it.todo, true
}

func (m modelTUI) applySnapshot(st store.State) modelTUI {
	items := append([]model.Todo(nil), st.Items...)
	model.SortByPosition(items)
	li := make([]list.Item, len(items))
	for i, t := range items {
		li[i] = listItem{todo: t}
	}
	idx := m.list.Index()
	m.list.SetItems(li)
	if idx >= len(li) {
		idx = len(li) - 1
	}
	if idx >= 0 {
		m.list.Select(idx)
	}

	done := 0
	for _, t := range items {
		if t.Completed {
			done++
		}
	}
	m.list.Title = fmt.Sprintf("%s   %s %d  %s %d  %s %d",
		ui.Title.Render("Todos"),
		ui.Success.Render("✔"), done,
		ui.Pending.Render("•"), len(items)-done,
		ui.Accent.Render("Total"), len(items),
	)
	return m
}

func (m modelTUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if st, ok := msg.(stateMsg); ok {
		return m.applySnapshot(store.State(st)), m.waitForUpdate
	}
	if ws, ok := msg.(tea.WindowSizeMsg); ok {
		m.list.SetSize(ws.Width-4, ws.Height-4)
		return m, nil
	}

	if m.adding || m.editing {
		return m.updateInput(msg)
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "q", "esc":
			return m, tea.Quit
		case " ":
			if t, ok := m.selected(); ok {
				m.store.Toggle(t.ID)
			}
			return m, nil
		case "d":
			if t, ok := m.selected(); ok {
				m.store.Delete(t.ID)
			}
			return m, nil
		case "J":
			if t, ok := m.selected(); ok {
				m.store.Reorder(t.ID, t.Position+1)
				m.list.Select(min(t.Position+1, len(m.list.Items())-1))
			}
			return m, nil
		case "K":
			if t, ok := m.selected(); ok {
				m.store.Reorder(t.ID, t.Position-1)
				m.list.Select(max(t.Position-1, 0))
			}
			return m, nil
		case "a":
			m.adding = true
			m.inErr = ""
			m.ti.SetValue("")
			m.ti.Placeholder = "New item title..."
			m.ti.Focus()
			return m, nil
		case "e":
			if t, ok := m.selected(); ok {
				m.editing = true
				m.editID = t.ID
				m.inErr = ""
				m.ti.SetValue(t.Title)
				m.ti.CursorEnd()
				m.ti.Placeholder = "Edit item title..."
				m.ti.Focus()
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// updateInput handles the inline add/edit text input.
func (m modelTUI) updateInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	if x, ok := msg.(tea.KeyMsg); ok {
		switch x.String() {
		case "enter":
			title := strings.TrimSpace(m.ti.Value())
			var err error
			if m.adding {
				_, err = m.store.Add(title)
			} else {
				_, err = m.store.Rename(m.editID, title)
			}
			if err != nil {
				m.inErr = "Title cannot be empty"
				return m, nil
			}
			m.ti.SetValue("")
			m.ti.Blur()
			m.adding, m.editing = false, false
			return m, nil
		case "esc":
			m.adding, m.editing = false, false
			m.ti.SetValue("")
			m.ti.Blur()
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.ti, cmd = m.ti.Update(msg)
	return m, cmd
}

func (m modelTUI) View() string {
	content := m.list.View()
	if m.adding || m.editing {
		bar := lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("8")).Padding(0, 1)
		title := "Add new item"
		if m.editing {
			title = "Edit item"
		}
		if m.inErr != "" {
			title += " — " + ui.Error.Render(m.inErr)
		}
		content += "\n" + bar.Render(title+"\n"+m.ti.View())
	}
	border := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("8")).
		Padding(0, 1)
	return border.Render(content)
}
