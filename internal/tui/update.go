package tui

import (
	"fmt"
	"sort"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sahilm/fuzzy"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	ktypes "k8s.io/apimachinery/pkg/types"

	"github.com/tapcraft-io/kubesync/internal/logging"
	"github.com/tapcraft-io/kubesync/internal/namespaces"
	"github.com/tapcraft-io/kubesync/internal/watchmux"
	"github.com/tapcraft-io/kubesync/pkg/types"
)

// Update handles all state updates
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = GetMaxWidth(msg.Width)
		m.viewport.Height = GetMaxHeight(msg.Height)
		m.resourceList.SetWidth(GetMaxWidth(msg.Width))
		m.resourceList.SetHeight(GetMaxHeight(msg.Height))
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case switchKindMsg:
		return m.subscribe(msg.index)

	case storeChangedMsg:
		return m.handleStoreChanged(msg)

	case loadFailedMsg:
		m.lastFailure = msg.err
		m.logger.Debug("load failure reported to the ui", logging.Err(msg.err))
		return m, waitForFailure(m.failures)

	case spinner.TickMsg:
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	// Update active component based on mode
	switch m.mode {
	case types.ModeBrowsing:
		m.resourceList, cmd = m.resourceList.Update(msg)
		cmds = append(cmds, cmd)

	case types.ModeViewingDetail:
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// handleStoreChanged re-renders after a store change and re-arms the wait.
// Messages of replaced subscriptions are dropped.
func (m Model) handleStoreChanged(msg storeChangedMsg) (tea.Model, tea.Cmd) {
	if msg.detail {
		if m.detail == nil || m.detail.gen != msg.gen {
			return m, nil
		}
		m.refreshDetail()
		return m, m.detail.wait(true)
	}
	if m.sub == nil || m.sub.gen != msg.gen {
		return m, nil
	}
	m.refreshList()
	if m.mode == types.ModeViewingDetail {
		m.refreshDetail()
	}
	return m, m.sub.wait(false)
}

// handleKeyPress handles keyboard input
func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Global keybindings
	if msg.String() == "ctrl+c" {
		now := time.Now()
		// Reset counter if more than 1 second has passed since last Ctrl+C
		if now.Sub(m.ctrlCTime) > time.Second {
			m.ctrlCPressed = 0
		}

		m.ctrlCPressed++
		m.ctrlCTime = now

		// Require double Ctrl+C to quit
		if m.ctrlCPressed >= 2 {
			m.quitting = true
			return m, tea.Quit
		}

		m.statusMsg = "Press Ctrl+C again to quit"
		return m, nil
	}
	m.ctrlCPressed = 0

	// Mode-specific keybindings
	switch m.mode {
	case types.ModeBrowsing:
		return m.handleBrowsingMode(msg)
	case types.ModePickingKind:
		return m.handlePickingKindMode(msg)
	case types.ModeViewingDetail:
		return m.handleViewingDetailMode(msg)
	case types.ModeError:
		if msg.String() == "enter" || msg.String() == "esc" {
			m.err = nil
			m.mode = types.ModeBrowsing
		}
		return m, nil
	}
	return m, nil
}

// handleBrowsingMode handles key presses while browsing a kind
func (m Model) handleBrowsingMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg.String() {
	case "q":
		m.quitting = true
		return m, tea.Quit

	case "tab":
		return m.subscribe(m.kindIdx + 1)

	case "shift+tab":
		return m.subscribe(m.kindIdx - 1)

	case "/":
		m.mode = types.ModePickingKind
		m.kindInput.SetValue("")
		m.kindInput.Focus()
		m.matches = matchKinds("", m.kindNames())
		m.matchIdx = 0
		return m, nil

	case "n":
		sel := m.mux.Selector()
		next, all := nextNamespace(sel.Selected(), sel.Available())
		if all {
			sel.SelectAll()
		} else {
			sel.Select(next)
		}
		m.statusMsg = "Namespaces: " + describeSelection(sel.Selected())
		m.refreshList()
		return m, nil

	case "a":
		m.mux.Selector().SelectAll()
		m.statusMsg = "Namespaces: all"
		m.refreshList()
		return m, nil

	case "r":
		// Resubscribe after a failure.
		if s := m.current(); s != nil {
			m.statusMsg = "Reloading " + s.Descriptor().Kind
		}
		return m.subscribe(m.kindIdx)

	case "enter":
		return m.openDetail()
	}

	m.resourceList, cmd = m.resourceList.Update(msg)
	return m, cmd
}

// handlePickingKindMode handles key presses in the fuzzy kind picker
func (m Model) handlePickingKindMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg.String() {
	case "esc":
		m.mode = types.ModeBrowsing
		m.kindInput.Blur()
		return m, nil

	case "up", "ctrl+p":
		if m.matchIdx > 0 {
			m.matchIdx--
		}
		return m, nil

	case "down", "ctrl+n", "tab":
		if m.matchIdx < len(m.matches)-1 {
			m.matchIdx++
		}
		return m, nil

	case "enter":
		m.mode = types.ModeBrowsing
		m.kindInput.Blur()
		if len(m.matches) == 0 {
			m.statusMsg = "No kind matches " + m.kindInput.Value()
			return m, nil
		}
		return m.subscribe(m.matches[m.matchIdx])
	}

	m.kindInput, cmd = m.kindInput.Update(msg)
	m.matches = matchKinds(m.kindInput.Value(), m.kindNames())
	if m.matchIdx >= len(m.matches) {
		m.matchIdx = 0
	}
	return m, cmd
}

// handleViewingDetailMode handles key presses in the detail view
func (m Model) handleViewingDetailMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg.String() {
	case "esc", "backspace", "q":
		m.detail.stop()
		m.detail = nil
		m.detailUID = ""
		m.mode = types.ModeBrowsing
		return m, nil
	}

	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// openDetail shows the selected object and keeps its events loaded while the
// detail view is open.
func (m Model) openDetail() (tea.Model, tea.Cmd) {
	selected, ok := m.resourceList.SelectedItem().(listItem)
	if !ok {
		return m, nil
	}
	obj := m.detailObject(selected.item)
	if obj == nil {
		m.statusMsg = "Object is gone"
		return m, nil
	}

	m.detailUID = obj.GetUID()
	m.mode = types.ModeViewingDetail
	m.detail.stop()
	m.detail = nil

	var cmd tea.Cmd
	if m.events != nil {
		ns := obj.GetNamespace()
		if ns == "" {
			ns = "default"
		}
		m.gen++
		changes, stopChanges := m.events.Changes()
		dispose := m.mux.SubscribeStores([]watchmux.Store{m.events}, watchmux.Options{
			Namespaces:    []string{ns},
			OnLoadFailure: m.report(),
		})
		m.detail = newSubscription(m.gen, dispose, changes, stopChanges)
		cmd = m.detail.wait(true)
	}

	m.refreshDetail()
	m.viewport.GotoTop()
	return m, cmd
}

func (m Model) detailObject(item types.ListItem) *unstructured.Unstructured {
	s := m.current()
	if s == nil {
		return nil
	}
	if uid := item.UID(); uid != "" {
		if obj := s.Get(ktypes.UID(uid)); obj != nil {
			return obj
		}
	}
	return s.GetByName(item.Title, item.Metadata["namespace"])
}

func (m *Model) refreshDetail() {
	s := m.current()
	if s == nil || m.detailUID == "" {
		return
	}
	obj := s.Get(m.detailUID)
	if obj == nil {
		m.viewport.SetContent(RenderWarning("The object was deleted"))
		return
	}
	m.viewport.SetContent(m.renderDetail(obj))
}

func (m Model) kindNames() []string {
	names := make([]string, len(m.stores))
	for i, s := range m.stores {
		names[i] = s.Descriptor().Kind
	}
	return names
}

// matchKinds returns the indexes of names matching query, best match first.
// An empty query matches everything in order.
func matchKinds(query string, names []string) []int {
	if query == "" {
		out := make([]int, len(names))
		for i := range names {
			out[i] = i
		}
		return out
	}
	found := fuzzy.Find(query, names)
	out := make([]int, len(found))
	for i, match := range found {
		out[i] = match.Index
	}
	return out
}

// nextNamespace steps the selection through the available namespaces one at
// a time and wraps around to all of them.
func nextNamespace(sel namespaces.Selection, available []string) (next string, all bool) {
	if len(available) == 0 {
		return "", true
	}
	sorted := append([]string(nil), available...)
	sort.Strings(sorted)
	if sel.AllSelected || len(sel.Namespaces) == 0 {
		return sorted[0], false
	}
	cur := sel.Namespaces[0]
	i := sort.SearchStrings(sorted, cur)
	if i < len(sorted) && sorted[i] == cur {
		i++
	}
	if i >= len(sorted) {
		return "", true
	}
	return sorted[i], false
}

func describeSelection(sel namespaces.Selection) string {
	if sel.AllSelected {
		return "all"
	}
	if len(sel.Namespaces) == 1 {
		return sel.Namespaces[0]
	}
	return fmt.Sprintf("%d selected", len(sel.Namespaces))
}
