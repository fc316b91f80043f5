package cli

import (
	"fmt"
	"sort"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"scribe/internal/links"
)

// Styles for the interactive UI
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("99")).
			MarginLeft(2)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

const (
	maxTitleWidth = 50
	maxURLWidth   = 70
)

// linkItem is one suggested link in the picker
type linkItem struct {
	link     links.Link
	selected bool
}

func (i linkItem) Title() string {
	mark := "[ ] "
	if i.selected {
		mark = "[x] "
	}
	title := i.link.Title
	if title == "" {
		title = i.link.URL
	}
	return mark + i.link.AnchorText + DimStyle.Render(" → ") + runewidth.Truncate(title, maxTitleWidth, "…")
}

func (i linkItem) Description() string {
	return "    " + runewidth.Truncate(i.link.URL, maxURLWidth, "…")
}

func (i linkItem) FilterValue() string { return i.link.AnchorText + " " + i.link.Title }

// linkPickerModel is a multi-select list of suggested links
type linkPickerModel struct {
	list     list.Model
	items    []linkItem
	keys     *listKeyMap
	quitting bool
	aborted  bool
}

// Custom key bindings
type listKeyMap struct {
	toggleItem key.Binding
	selectAll  key.Binding
	selectNone key.Binding
	confirm    key.Binding
	abort      key.Binding
}

func newListKeyMap() *listKeyMap {
	return &listKeyMap{
		toggleItem: key.NewBinding(
			key.WithKeys(" ", "x"),
			key.WithHelp("space/x", "toggle"),
		),
		selectAll: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "select all"),
		),
		selectNone: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "select none"),
		),
		confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "apply"),
		),
		abort: key.NewBinding(
			key.WithKeys("esc", "q"),
			key.WithHelp("esc/q", "cancel"),
		),
	}
}

func newLinkPicker(suggested []links.Link) linkPickerModel {
	items := make([]linkItem, len(suggested))
	for i, l := range suggested {
		items[i] = linkItem{link: l}
	}

	const defaultHeight = 16
	l := list.New(itemsToList(items), list.NewDefaultDelegate(), 0, defaultHeight)
	l.Title = "Suggested Links"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = titleStyle

	return linkPickerModel{
		list:  l,
		items: items,
		keys:  newListKeyMap(),
	}
}

func (m linkPickerModel) Init() tea.Cmd {
	return nil
}

func (m linkPickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.toggleItem):
			if idx := m.list.Index(); idx >= 0 && idx < len(m.items) {
				m.items[idx].selected = !m.items[idx].selected
				m.list.SetItems(itemsToList(m.items))
			}
			return m, nil

		case key.Matches(msg, m.keys.selectAll):
			m.setAll(true)
			return m, nil

		case key.Matches(msg, m.keys.selectNone):
			m.setAll(false)
			return m, nil

		case key.Matches(msg, m.keys.confirm):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, m.keys.abort):
			m.aborted = true
			m.quitting = true
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width, msg.Height-4)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *linkPickerModel) setAll(selected bool) {
	for i := range m.items {
		m.items[i].selected = selected
	}
	m.list.SetItems(itemsToList(m.items))
}

// chosen returns the indices of the selected links in list order
func (m linkPickerModel) chosen() []int {
	var indices []int
	for i, item := range m.items {
		if item.selected {
			indices = append(indices, i)
		}
	}
	sort.Ints(indices)
	return indices
}

func (m linkPickerModel) View() string {
	if m.quitting {
		return ""
	}

	header := titleStyle.Render(fmt.Sprintf("Choose links to apply (%d selected)", len(m.chosen())))
	help := helpStyle.Render("\n[space] toggle • [a] all • [n] none • [enter] apply • [esc] cancel")

	return fmt.Sprintf("%s\n\n%s%s", header, m.list.View(), help)
}

func itemsToList(items []linkItem) []list.Item {
	listItems := make([]list.Item, len(items))
	for i, item := range items {
		listItems[i] = item
	}
	return listItems
}

// InteractiveLinkSelect shows the suggested links and returns the indices the user
// chose. A cancelled picker returns no indices.
func InteractiveLinkSelect(suggested []links.Link) ([]int, error) {
	p := tea.NewProgram(newLinkPicker(suggested), tea.WithAltScreen())
	result, err := p.Run()
	if err != nil {
		return nil, err
	}

	final := result.(linkPickerModel)
	if final.aborted {
		return nil, nil
	}
	return final.chosen(), nil
}
