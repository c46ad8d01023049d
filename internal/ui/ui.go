package ui

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/skyplay/internal/filters"
	"github.com/desertthunder/skyplay/internal/models"
	"github.com/desertthunder/skyplay/internal/player"
	"github.com/desertthunder/skyplay/internal/services"
	"github.com/desertthunder/skyplay/internal/shared"
	"github.com/desertthunder/skyplay/internal/store"
	"github.com/desertthunder/skyplay/internal/tasks"
)

var _ Painter = (*Palette)(nil)

const (
	tickInterval = 250 * time.Millisecond
	seekStep     = 10.0
	volumeStep   = 5
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	TrackListView ViewState = iota
	SelectionListView
	SearchView
)

// Source is the track list the track view is built from.
type Source int

const (
	SourceAll Source = iota
	SourceFavorites
	SourceSelection
)

// Deps carries the collaborators the TUI drives.
type Deps struct {
	Engine     *tasks.CatalogEngine
	Catalog    services.Catalog
	Controller *player.Controller
	Player     *store.Store[store.PlayerState]
	Favorites  *store.Store[store.FavoritesState]
	Offline    bool
	// Selection opens the given selection instead of the full catalog when non-zero.
	Selection int
	// FavoritesOnly starts on the favorites source.
	FavoritesOnly bool
}

// Model represents the TUI application state.
type Model struct {
	ctx  context.Context
	deps Deps
	view ViewState

	source     Source
	sourceName string
	catalog    []models.Track
	base       []models.Track
	visible    []models.Track
	filter     filters.State
	authors    []string
	genres     []string

	currentID int
	favIDs    []int

	trackList     list.Model
	selectionList list.Model
	search        textinput.Model
	sub           *player.Subscription

	status  string
	likeErr string
	err     error
	loading bool

	width  int
	height int
	help   help.Model
	keys   keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, deps Deps) *Model {
	search := textinput.New()
	search.Placeholder = "track name"
	search.Prompt = "/ "

	m := &Model{
		ctx:           ctx,
		deps:          deps,
		view:          TrackListView,
		sourceName:    "All tracks",
		filter:        filters.State{Sort: filters.SortDefault},
		trackList:     newList("All tracks"),
		selectionList: newList("Selections"),
		search:        search,
		help:          help.New(),
		keys:          newKeyMap(),
		loading:       true,
	}
	if deps.FavoritesOnly {
		m.source = SourceFavorites
		m.sourceName = "Favorites"
	}
	if deps.Controller != nil {
		m.sub = deps.Controller.Subscribe()
	}
	return m
}

func newList(title string) list.Model {
	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.Title = title
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	return l
}

// Init starts the catalog fetch, the favorites sync and the state poll.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.fetchTracks(), m.syncFavorites(), m.tick(), m.waitForPlayerError(), m.waitForLikeError()}
	if m.deps.Selection != 0 {
		cmds = append(cmds, m.fetchSelection(m.deps.Selection))
	}
	return tea.Batch(cmds...)
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.trackList.SetSize(msg.Width-4, max(msg.Height-10, 4))
		m.selectionList.SetSize(msg.Width-4, max(msg.Height-10, 4))
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case TrackListView:
			return m.handleTrackListKeys(msg)
		case SelectionListView:
			return m.handleSelectionListKeys(msg)
		case SearchView:
			return m.handleSearchKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateLists(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgTracksFetched:
		data := msg.data.(tracksData)
		m.loading = false
		if data.err != nil {
			m.err = data.err
			return m, nil
		}
		m.catalog = data.tracks
		m.authors = filters.UniqueAuthors(data.tracks)
		m.genres = filters.UniqueGenres(data.tracks)
		if m.source != SourceSelection {
			m.rebuild()
		}
		return m, nil

	case MsgSelectionsFetched:
		data := msg.data.(selectionsData)
		if data.err != nil {
			m.status = styles.err.Render(data.err.Error())
			return m, nil
		}
		m.selectionList.SetItems(selectionItems(data.selections))
		return m, nil

	case MsgSelectionFetched:
		data := msg.data.(selectionData)
		if data.err != nil {
			m.status = styles.err.Render(data.err.Error())
			return m, nil
		}
		m.source = SourceSelection
		m.sourceName = data.selection.Name
		m.base = data.selection.Tracks
		m.view = TrackListView
		m.applyFilters()
		return m, nil

	case MsgFavoritesSynced:
		if err, _ := msg.data.(error); err != nil {
			m.status = styles.warn.Render("favorites unavailable: " + err.Error())
		}
		m.refreshFromStores(true)
		return m, nil

	case MsgPlayerError:
		e := msg.data.(player.ErrorEvent)
		m.status = styles.err.Render(fmt.Sprintf("%s failed: %v", e.Operation, e.Err))
		return m, m.waitForPlayerError()

	case MsgLikeError:
		m.likeErr = msg.data.(string)
		return m, m.waitForLikeError()

	case MsgLikeDone:
		err, _ := msg.data.(error)
		switch {
		case err == nil:
			m.refreshFromStores(true)
		case errors.Is(err, shared.ErrNotAuthenticated):
			m.status = styles.warn.Render("sign in to like tracks (skyplay auth login)")
		case errors.Is(err, shared.ErrTrackNotFound):
			m.status = styles.warn.Render("nothing is playing")
		}
		return m, nil

	case MsgTick:
		m.refreshFromStores(false)
		return m, m.tick()
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	var body string
	switch m.view {
	case SelectionListView:
		body = m.selectionList.View()
	default:
		body = m.renderTrackList()
	}

	state := m.playerState()
	bar := renderPlayerBar(state, m.isFavorite(m.currentID), m.likeErr)
	helpView := m.help.ShortHelpView(m.keys.ShortHelp())

	out := fmt.Sprintf("%s\n%s\n", body, styles.bar.Render(bar))
	if m.status != "" {
		out += m.status + "\n"
	}
	return out + helpView
}

func (m *Model) renderTrackList() string {
	header := styles.help.Render(renderFilterLine(m.filter, len(m.visible), len(m.base)))
	if m.loading {
		header = styles.help.Render("Loading tracks...")
	}
	if m.view == SearchView {
		header = m.search.View()
	}
	return fmt.Sprintf("%s\n%s", header, m.trackList.View())
}

func (m *Model) handleTrackListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	c := m.deps.Controller
	state := m.playerState()

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.enter):
		if i := m.trackList.Index(); i >= 0 && i < len(m.visible) && c != nil {
			c.Select(m.visible[i], m.visible)
			m.status = ""
		}
		return m, nil
	case key.Matches(msg, m.keys.play):
		if c != nil {
			c.TogglePlay()
		}
		return m, nil
	case key.Matches(msg, m.keys.next):
		if c != nil && !c.Next() {
			m.status = styles.help.Render("end of list")
		}
		return m, nil
	case key.Matches(msg, m.keys.prev):
		if c != nil && !c.Previous() {
			m.status = styles.help.Render("start of list")
		}
		return m, nil
	case key.Matches(msg, m.keys.seekBack):
		if c != nil {
			c.Seek(max(state.CurrentTime-seekStep, 0))
		}
		return m, nil
	case key.Matches(msg, m.keys.seekFwd):
		if c != nil {
			c.Seek(state.CurrentTime + seekStep)
		}
		return m, nil
	case key.Matches(msg, m.keys.volUp):
		if c != nil {
			c.SetVolume(min(state.Volume+volumeStep, 100))
		}
		return m, nil
	case key.Matches(msg, m.keys.volDown):
		if c != nil {
			c.SetVolume(max(state.Volume-volumeStep, 0))
		}
		return m, nil
	case key.Matches(msg, m.keys.shuffle):
		if c != nil {
			c.ToggleShuffle()
		}
		return m, nil
	case key.Matches(msg, m.keys.repeat):
		if c != nil {
			c.ToggleRepeat()
		}
		return m, nil
	case key.Matches(msg, m.keys.like):
		return m, m.toggleLike()
	case key.Matches(msg, m.keys.search):
		m.view = SearchView
		m.search.SetValue(m.filter.Search)
		return m, m.search.Focus()
	case key.Matches(msg, m.keys.author):
		m.filter.Author = cycle(m.authors, m.filter.Author)
		m.applyFilters()
		return m, nil
	case key.Matches(msg, m.keys.genre):
		m.filter.Genre = cycle(m.genres, m.filter.Genre)
		m.applyFilters()
		return m, nil
	case key.Matches(msg, m.keys.sort):
		m.filter.Sort = nextSort(m.filter.Sort)
		m.applyFilters()
		return m, nil
	case key.Matches(msg, m.keys.clear):
		m.filter = filters.State{Sort: filters.SortDefault}
		m.applyFilters()
		return m, nil
	case key.Matches(msg, m.keys.favorites):
		if m.source == SourceFavorites {
			m.source, m.sourceName = SourceAll, "All tracks"
		} else {
			m.source, m.sourceName = SourceFavorites, "Favorites"
		}
		m.rebuild()
		return m, nil
	case key.Matches(msg, m.keys.selections):
		m.view = SelectionListView
		return m, m.fetchSelections()
	case key.Matches(msg, m.keys.back):
		if m.source == SourceSelection {
			m.source, m.sourceName = SourceAll, "All tracks"
			m.rebuild()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.trackList, cmd = m.trackList.Update(msg)
	return m, cmd
}

func (m *Model) handleSelectionListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back), key.Matches(msg, m.keys.selections):
		m.view = TrackListView
		return m, nil
	case key.Matches(msg, m.keys.enter):
		if item, ok := m.selectionList.SelectedItem().(selectionItem); ok {
			return m, m.fetchSelection(item.selection.ID)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.selectionList, cmd = m.selectionList.Update(msg)
	return m, cmd
}

func (m *Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.search.Blur()
		m.search.SetValue("")
		m.filter.Search = ""
		m.view = TrackListView
		m.applyFilters()
		return m, nil
	case "enter":
		m.search.Blur()
		m.view = TrackListView
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if v := m.search.Value(); v != m.filter.Search {
		m.filter.Search = v
		m.applyFilters()
	}
	return m, cmd
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case TrackListView:
		m.trackList, cmd = m.trackList.Update(msg)
	case SelectionListView:
		m.selectionList, cmd = m.selectionList.Update(msg)
	}
	return m, cmd
}

// rebuild recomputes the source list from the catalog and favorites.
func (m *Model) rebuild() {
	switch m.source {
	case SourceAll:
		m.base = m.catalog
	case SourceFavorites:
		m.base = favoriteTracks(m.catalog, m.favIDs)
	}
	m.applyFilters()
}

func (m *Model) applyFilters() {
	m.visible = filters.Apply(m.base, m.filter)
	m.trackList.Title = m.sourceName
	m.refreshItems()
}

func (m *Model) refreshItems() {
	m.trackList.SetItems(trackItems(m.visible, m.currentID, m.isFavorite))
}

// refreshFromStores picks up store changes made outside the UI goroutine.
func (m *Model) refreshFromStores(force bool) {
	changed := force
	if id, _ := m.playerState().CurrentID(); id != m.currentID {
		m.currentID = id
		changed = true
	}
	if m.deps.Favorites != nil {
		if ids := m.deps.Favorites.State().IDs; !slices.Equal(ids, m.favIDs) {
			m.favIDs = ids
			changed = true
		}
	}
	if !changed {
		return
	}
	if m.source == SourceFavorites {
		m.rebuild()
		return
	}
	m.refreshItems()
}

func (m *Model) playerState() store.PlayerState {
	if m.deps.Player == nil {
		return store.NewPlayerState()
	}
	return m.deps.Player.State()
}

func (m *Model) isFavorite(id int) bool {
	return slices.Contains(m.favIDs, id)
}

func (m *Model) fetchTracks() tea.Cmd {
	return func() tea.Msg {
		if m.deps.Engine == nil {
			return tracksFetchedMsg(nil, fmt.Errorf("%w: catalog engine not configured", shared.ErrServiceUnavailable))
		}
		tracks, err := m.deps.Engine.Tracks(m.ctx, m.deps.Offline)
		return tracksFetchedMsg(tracks, err)
	}
}

func (m *Model) fetchSelections() tea.Cmd {
	return func() tea.Msg {
		if m.deps.Catalog == nil {
			return selectionsFetchedMsg(nil, shared.ErrServiceUnavailable)
		}
		selections, err := m.deps.Catalog.FetchSelections(m.ctx)
		return selectionsFetchedMsg(selections, err)
	}
}

func (m *Model) fetchSelection(id int) tea.Cmd {
	return func() tea.Msg {
		if m.deps.Catalog == nil {
			return selectionFetchedMsg(nil, shared.ErrServiceUnavailable)
		}
		selection, err := m.deps.Catalog.FetchSelectionTracks(m.ctx, id)
		return selectionFetchedMsg(selection, err)
	}
}

func (m *Model) syncFavorites() tea.Cmd {
	return func() tea.Msg {
		if m.deps.Engine == nil || m.deps.Favorites == nil {
			return favoritesSyncedMsg(nil)
		}
		return favoritesSyncedMsg(m.deps.Engine.SyncFavorites(m.ctx, m.deps.Favorites))
	}
}

func (m *Model) toggleLike() tea.Cmd {
	c := m.deps.Controller
	if c == nil {
		return nil
	}
	return func() tea.Msg {
		return likeDoneMsg(c.ToggleLike(m.ctx))
	}
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(tickInterval, func(time.Time) tea.Msg { return tickMsg() })
}

func (m *Model) waitForPlayerError() tea.Cmd {
	if m.sub == nil {
		return nil
	}
	sub := m.sub
	return func() tea.Msg {
		select {
		case e := <-sub.Error:
			return playerErrorMsg(e)
		case <-sub.Done:
			return nil
		}
	}
}

func (m *Model) waitForLikeError() tea.Cmd {
	if m.sub == nil {
		return nil
	}
	sub := m.sub
	return func() tea.Msg {
		select {
		case msg := <-sub.LikeError:
			return likeErrorMsg(msg)
		case <-sub.Done:
			return nil
		}
	}
}

func favoriteTracks(tracks []models.Track, ids []int) []models.Track {
	out := make([]models.Track, 0, len(ids))
	for _, t := range tracks {
		if slices.Contains(ids, t.ID) {
			out = append(out, t)
		}
	}
	return out
}

// cycle steps through "" and then each option in order, wrapping back to "".
func cycle(options []string, current string) string {
	if len(options) == 0 {
		return ""
	}
	i := slices.Index(options, current)
	if i == len(options)-1 {
		return ""
	}
	return options[i+1]
}

func nextSort(order filters.SortOrder) filters.SortOrder {
	switch order {
	case filters.SortNewest:
		return filters.SortOldest
	case filters.SortOldest:
		return filters.SortDefault
	default:
		return filters.SortNewest
	}
}
