package tui

import (
	"log/slog"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	ktypes "k8s.io/apimachinery/pkg/types"

	"github.com/tapcraft-io/kubesync/internal/apimanager"
	"github.com/tapcraft-io/kubesync/internal/kinds"
	"github.com/tapcraft-io/kubesync/internal/logging"
	"github.com/tapcraft-io/kubesync/internal/store"
	"github.com/tapcraft-io/kubesync/internal/watchmux"
	"github.com/tapcraft-io/kubesync/pkg/types"
)

// Config wires the explorer to the sync layer.
type Config struct {
	Manager *apimanager.Manager
	Mux     *watchmux.Mux
	// Stores are the kinds offered as tabs, in display order.
	Stores []*store.ObjectStore
	// Events backs the detail view. Optional.
	Events  *store.ObjectStore
	Context string
	Logger  *slog.Logger
}

// Model represents the application state
type Model struct {
	// UI Components
	resourceList list.Model
	kindInput    textinput.Model
	viewport     viewport.Model
	spinner      spinner.Model

	// Application State
	mode   types.Mode
	width  int
	height int

	// Sync State
	manager  *apimanager.Manager
	mux      *watchmux.Mux
	stores   []*store.ObjectStore
	events   *store.ObjectStore
	kindIdx  int
	context  string
	logger   *slog.Logger
	gen      int
	sub      *subscription
	detail   *subscription
	failures chan error

	// Detail State
	detailUID ktypes.UID

	// Kind picker
	matches  []int
	matchIdx int

	// Flags
	quitting     bool
	err          error
	lastFailure  error
	statusMsg    string
	ctrlCPressed int       // Track consecutive Ctrl+C presses
	ctrlCTime    time.Time // Track time of last Ctrl+C
}

// subscription is one live mux subscription plus the store change feed the
// model waits on. Its generation tells stale messages apart.
type subscription struct {
	gen         int
	dispose     func()
	changes     <-chan struct{}
	stopChanges func()
	done        chan struct{}
	once        sync.Once
}

func newSubscription(gen int, dispose func(), changes <-chan struct{}, stopChanges func()) *subscription {
	return &subscription{
		gen:         gen,
		dispose:     dispose,
		changes:     changes,
		stopChanges: stopChanges,
		done:        make(chan struct{}),
	}
}

// wait returns a command that delivers the next change of the subscription.
func (s *subscription) wait(detail bool) tea.Cmd {
	return waitForChange(s.changes, s.done, s.gen, detail)
}

func (s *subscription) stop() {
	if s == nil {
		return
	}
	s.once.Do(func() {
		s.dispose()
		s.stopChanges()
		close(s.done)
	})
}

// NewModel creates a new application model
func NewModel(cfg Config) Model {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	ti := textinput.New()
	ti.Placeholder = "kind"
	ti.CharLimit = 64
	ti.Width = 40

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle

	vp := viewport.New(80, 20)
	vp.Style = viewportStyle

	delegate := list.NewDefaultDelegate()
	rl := list.New([]list.Item{}, delegate, 60, 20)
	rl.SetShowStatusBar(false)
	rl.SetShowTitle(false)
	rl.SetFilteringEnabled(false)

	return Model{
		resourceList: rl,
		kindInput:    ti,
		viewport:     vp,
		spinner:      s,
		mode:         types.ModeBrowsing,
		manager:      cfg.Manager,
		mux:          cfg.Mux,
		stores:       cfg.Stores,
		events:       cfg.Events,
		context:      cfg.Context,
		logger:       cfg.Logger,
		failures:     make(chan error, 16),
	}
}

// Init subscribes the first kind and starts listening for failures.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		spinner.Tick,
		waitForFailure(m.failures),
		func() tea.Msg { return switchKindMsg{index: 0} },
	)
}

// Messages for async operations
type (
	// storeChangedMsg reports that the store of subscription gen changed.
	storeChangedMsg struct {
		gen    int
		detail bool
	}
	loadFailedMsg struct{ err error }
	switchKindMsg struct{ index int }
)

// waitForChange blocks until the store changes or the subscription stops.
func waitForChange(changes <-chan struct{}, done <-chan struct{}, gen int, detail bool) tea.Cmd {
	return func() tea.Msg {
		select {
		case <-changes:
			return storeChangedMsg{gen: gen, detail: detail}
		case <-done:
			return nil
		}
	}
}

func waitForFailure(failures <-chan error) tea.Cmd {
	return func() tea.Msg {
		return loadFailedMsg{err: <-failures}
	}
}

// report hands a load failure to the UI without blocking the watch.
func (m Model) report() store.FailureFunc {
	failures := m.failures
	logger := m.logger
	return func(err error) {
		select {
		case failures <- err:
		default:
			logger.Warn("dropping load failure", logging.Err(err))
		}
	}
}

// current returns the store of the active tab.
func (m Model) current() *store.ObjectStore {
	if len(m.stores) == 0 {
		return nil
	}
	return m.stores[m.kindIdx]
}

// subscribe replaces the active subscription with one for the store of kind
// index idx.
func (m Model) subscribe(idx int) (Model, tea.Cmd) {
	if len(m.stores) == 0 {
		return m, nil
	}
	m.sub.stop()
	m.kindIdx = (idx%len(m.stores) + len(m.stores)) % len(m.stores)
	m.gen++
	m.lastFailure = nil

	s := m.current()
	changes, stopChanges := s.Changes()
	dispose := m.mux.SubscribeStores([]watchmux.Store{s}, watchmux.Options{OnLoadFailure: m.report()})
	m.sub = newSubscription(m.gen, dispose, changes, stopChanges)
	m.logger.Debug("browsing kind", slog.String("kind", s.Descriptor().Kind))

	m.refreshList()
	return m, m.sub.wait(false)
}

// visible returns the objects of the active store inside the namespace
// selection.
func (m Model) visible() []*unstructured.Unstructured {
	s := m.current()
	if s == nil {
		return nil
	}
	sel := m.mux.Selector().Selected()
	if !s.Descriptor().Namespaced || sel.AllSelected {
		return s.Items()
	}
	return s.AllByNamespace(sel.Namespaces...)
}

func (m *Model) refreshList() {
	_ = m.resourceList.SetItems(convertToListItems(kinds.ListItems(m.visible())))
}

// Item adapter for list.Item interface
type listItem struct {
	item types.ListItem
}

func (i listItem) FilterValue() string {
	return i.item.Title
}

func (i listItem) Title() string {
	return RenderStatus(i.item.Metadata["status"]) + " " + i.item.Title
}

func (i listItem) Description() string {
	return i.item.Description
}

// convertToListItems converts types.ListItem to list.Item
func convertToListItems(items []types.ListItem) []list.Item {
	result := make([]list.Item, len(items))
	for i, item := range items {
		result[i] = listItem{item: item}
	}
	return result
}

// Stop releases the subscriptions the model still holds.
func (m Model) Stop() {
	m.sub.stop()
	m.detail.stop()
}
