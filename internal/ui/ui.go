package ui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/desertthunder/tanin/internal/audio"
	"github.com/desertthunder/tanin/internal/catalog"
	"github.com/desertthunder/tanin/internal/models"
	"github.com/desertthunder/tanin/internal/shared"
	"github.com/desertthunder/tanin/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	MainView ViewState = iota
	DownloadsView
	PresetsView
	HelpView
)

var formLabels = []string{"Name", "Category", "Icon", "URL"}

// Model represents the TUI application state.
type Model struct {
	mixer   *Mixer
	catalog *catalog.Catalog
	queue   *tasks.Queue
	logger  *log.Logger

	view   ViewState
	keys   keyMap
	help   help.Model
	width  int
	height int

	cursor    int
	query     textinput.Model
	searching bool

	form  []textinput.Model
	focus int
	bar   progress.Model

	presets   list.Model
	naming    bool
	renaming  *models.Preset
	nameInput textinput.Model

	status   string
	statusOK bool
	last     time.Time
}

// NewModel creates a new TUI model. queue may be nil, which disables the downloads view.
func NewModel(mixer *Mixer, cat *catalog.Catalog, queue *tasks.Queue, logger *log.Logger) *Model {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	query := textinput.New()
	query.Prompt = "/ "
	query.Placeholder = "search name or category"

	form := make([]textinput.Model, len(formLabels))
	for i, label := range formLabels {
		ti := textinput.New()
		ti.Prompt = fmt.Sprintf("%-9s ", label+":")
		ti.CharLimit = 512
		form[i] = ti
	}
	form[2].Placeholder = models.DefaultIcon

	nameInput := textinput.New()
	nameInput.Prompt = "Preset name: "
	nameInput.CharLimit = 64

	presets := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	presets.Title = "Presets"
	presets.SetShowHelp(false)
	presets.SetFilteringEnabled(false)

	m := &Model{
		mixer:     mixer,
		catalog:   cat,
		queue:     queue,
		logger:    logger,
		view:      MainView,
		keys:      newKeyMap(),
		help:      help.New(),
		query:     query,
		form:      form,
		bar:       progress.New(progress.WithDefaultGradient(), progress.WithWidth(30)),
		presets:   presets,
		nameInput: nameInput,
	}
	if !mixer.Enabled() {
		m.setStatus("Audio output unavailable; playback is disabled", false)
	}
	return m
}

// Init starts the control loop.
func (m *Model) Init() tea.Cmd {
	return tick()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.presets.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case tickMsg:
		m.advance(time.Time(msg))
		return m, tick()

	case tea.KeyMsg:
		switch m.view {
		case MainView:
			return m.handleMainKeys(msg)
		case DownloadsView:
			return m.handleDownloadKeys(msg)
		case PresetsView:
			return m.handlePresetKeys(msg)
		case HelpView:
			return m.handleHelpKeys(msg)
		}
	}

	return m, nil
}

// advance runs one control loop iteration at wall-clock time now.
func (m *Model) advance(now time.Time) {
	var dt time.Duration
	if !m.last.IsZero() {
		dt = now.Sub(m.last)
	}
	m.last = now

	m.mixer.Tick(dt)
	if m.queue != nil {
		m.queue.Poll()
	}
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case MainView:
		return m.renderMain()
	case DownloadsView:
		return m.renderDownloads()
	case PresetsView:
		return m.renderPresets()
	case HelpView:
		return m.renderHelp()
	default:
		return ""
	}
}

func (m *Model) handleMainKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.searching {
		switch msg.Type {
		case tea.KeyEnter:
			m.searching = false
			m.query.Blur()
			return m, nil
		case tea.KeyEsc:
			m.searching = false
			m.query.Reset()
			m.query.Blur()
			m.cursor = 0
			return m, nil
		}
		var cmd tea.Cmd
		m.query, cmd = m.query.Update(msg)
		m.cursor = 0
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, m.quit()
	case key.Matches(msg, m.keys.up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.down):
		if m.cursor < len(m.visible())-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.toggle):
		if s := m.selected(); s != nil {
			m.report(m.mixer.Toggle(s.ID))
		}
	case key.Matches(msg, m.keys.volumeDown):
		if s := m.selected(); s != nil {
			m.mixer.AdjustVolume(s.ID, -VolumeStep)
		}
	case key.Matches(msg, m.keys.volumeUp):
		if s := m.selected(); s != nil {
			m.mixer.AdjustVolume(s.ID, VolumeStep)
		}
	case key.Matches(msg, m.keys.masterDown):
		m.mixer.AdjustMaster(-VolumeStep)
	case key.Matches(msg, m.keys.masterUp):
		m.mixer.AdjustMaster(VolumeStep)
	case key.Matches(msg, m.keys.mute):
		m.mixer.ToggleMute()
	case key.Matches(msg, m.keys.stopAll):
		m.mixer.StopAll()
	case key.Matches(msg, m.keys.search):
		m.searching = true
		return m, m.query.Focus()
	case key.Matches(msg, m.keys.back):
		m.query.Reset()
		m.cursor = 0
	case key.Matches(msg, m.keys.downloads):
		m.view = DownloadsView
		return m, m.focusField(0)
	case key.Matches(msg, m.keys.presets):
		m.view = PresetsView
		m.reloadPresets()
	case key.Matches(msg, m.keys.help):
		m.view = HelpView
	}
	return m, nil
}

func (m *Model) handleDownloadKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, m.quit()
	case tea.KeyTab, tea.KeyEsc:
		m.form[m.focus].Blur()
		m.view = MainView
		return m, nil
	case tea.KeyUp, tea.KeyShiftTab:
		return m, m.focusField((m.focus + len(m.form) - 1) % len(m.form))
	case tea.KeyDown:
		return m, m.focusField((m.focus + 1) % len(m.form))
	case tea.KeyEnter:
		m.submitDownload()
		return m, m.focusField(0)
	}

	var cmd tea.Cmd
	m.form[m.focus], cmd = m.form[m.focus].Update(msg)
	return m, cmd
}

func (m *Model) submitDownload() {
	if m.queue == nil {
		m.setStatus("Downloads are unavailable", false)
		return
	}

	req := tasks.Request{
		Name:     m.form[0].Value(),
		Category: m.form[1].Value(),
		Icon:     m.form[2].Value(),
		URL:      m.form[3].Value(),
	}
	if _, err := m.queue.Enqueue(req); err != nil {
		if errors.Is(err, shared.ErrInvalidInput) {
			m.setStatus("All fields (except icon) are required", false)
			return
		}
		m.setStatus(err.Error(), false)
		return
	}

	for i := range m.form {
		m.form[i].Reset()
	}
	m.setStatus(fmt.Sprintf("Queued %s", strings.TrimSpace(req.Name)), true)
}

func (m *Model) focusField(i int) tea.Cmd {
	m.form[m.focus].Blur()
	m.focus = i
	return m.form[i].Focus()
}

func (m *Model) handlePresetKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.naming {
		switch msg.Type {
		case tea.KeyCtrlC:
			return m, m.quit()
		case tea.KeyEnter:
			m.commitName()
			return m, nil
		case tea.KeyEsc:
			m.naming = false
			m.renaming = nil
			m.nameInput.Blur()
			return m, nil
		}
		var cmd tea.Cmd
		m.nameInput, cmd = m.nameInput.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, m.quit()
	case key.Matches(msg, m.keys.back):
		m.view = MainView
		return m, nil
	case key.Matches(msg, m.keys.enter):
		if p := m.selectedPreset(); p != nil {
			if err := m.mixer.LoadPreset(p); err != nil {
				m.setStatus(fmt.Sprintf("Loaded %s with errors: %v", p.Name(), err), false)
			} else {
				m.setStatus(fmt.Sprintf("Loaded %s", p.Name()), true)
			}
			m.view = MainView
		}
		return m, nil
	case key.Matches(msg, m.keys.newPreset):
		m.naming = true
		m.renaming = nil
		m.nameInput.Reset()
		return m, m.nameInput.Focus()
	case key.Matches(msg, m.keys.rename):
		if p := m.selectedPreset(); p != nil {
			m.naming = true
			m.renaming = p
			m.nameInput.SetValue(p.Name())
			m.nameInput.CursorEnd()
			return m, m.nameInput.Focus()
		}
		return m, nil
	case key.Matches(msg, m.keys.update):
		if p := m.selectedPreset(); p != nil {
			m.report(m.mixer.UpdatePreset(p))
			m.reloadPresets()
		}
		return m, nil
	case key.Matches(msg, m.keys.remove):
		if p := m.selectedPreset(); p != nil {
			m.report(m.mixer.DeletePreset(p))
			m.reloadPresets()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.presets, cmd = m.presets.Update(msg)
	return m, cmd
}

func (m *Model) commitName() {
	name := strings.TrimSpace(m.nameInput.Value())
	m.naming = false
	m.nameInput.Blur()
	if name == "" {
		m.renaming = nil
		m.setStatus("Preset name is required", false)
		return
	}

	if m.renaming != nil {
		m.report(m.mixer.RenamePreset(m.renaming, name))
		m.renaming = nil
	} else if _, err := m.mixer.SavePreset(name); err != nil {
		m.report(err)
	} else {
		m.setStatus(fmt.Sprintf("Saved %s", name), true)
	}
	m.reloadPresets()
}

func (m *Model) reloadPresets() {
	presets, err := m.mixer.Presets()
	if err != nil {
		m.report(err)
		return
	}
	items := make([]list.Item, len(presets))
	for i, p := range presets {
		items[i] = presetItem{preset: p}
	}
	m.presets.SetItems(items)
}

func (m *Model) selectedPreset() *models.Preset {
	if it, ok := m.presets.SelectedItem().(presetItem); ok {
		return it.preset
	}
	return nil
}

func (m *Model) handleHelpKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.quit) {
		return m, m.quit()
	}
	m.view = MainView
	return m, nil
}

// quit saves the session and ends the program.
func (m *Model) quit() tea.Cmd {
	if err := m.mixer.Persist(); err != nil {
		m.logger.Error("failed to persist session", "error", err)
	}
	return tea.Quit
}

func (m *Model) visible() []*models.Sound {
	sounds := m.catalog.Visible(m.query.Value())
	if m.cursor >= len(sounds) {
		m.cursor = max(len(sounds)-1, 0)
	}
	return sounds
}

func (m *Model) selected() *models.Sound {
	sounds := m.visible()
	if len(sounds) == 0 {
		return nil
	}
	return sounds[m.cursor]
}

// report shows err in the status line. Disabled audio is not an error.
func (m *Model) report(err error) {
	switch {
	case err == nil:
	case errors.Is(err, audio.ErrDeviceUnavailable):
		m.setStatus("Audio output unavailable; playback is disabled", false)
	default:
		m.setStatus(err.Error(), false)
	}
}

func (m *Model) setStatus(text string, ok bool) {
	m.status = text
	m.statusOK = ok
}

func (m *Model) renderStatus() string {
	if m.status == "" {
		return ""
	}
	if m.statusOK {
		return styles.ok.Render(m.status)
	}
	return styles.warn.Render(m.status)
}

func (m *Model) renderMain() string {
	var b strings.Builder
	b.WriteString(styles.title.Render("tanin"))
	b.WriteString("\n")

	if m.searching || m.query.Value() != "" {
		b.WriteString(m.query.View())
		b.WriteString("\n\n")
	}

	sounds := m.visible()
	if len(sounds) == 0 {
		b.WriteString(styles.help.Render("No sounds"))
		b.WriteString("\n")
	}

	category := ""
	for i, s := range sounds {
		if s.Category != category || i == 0 {
			if i > 0 {
				b.WriteString("\n")
			}
			category = s.Category
			b.WriteString(styles.category.Render(category))
			b.WriteString("\n")
		}
		b.WriteString(m.renderSound(s, i == m.cursor))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	master := m.mixer.MasterVolume()
	line := fmt.Sprintf("Master %s %3.0f%%", volumeBar(master), master*100)
	if m.mixer.Muted() {
		line += " " + styles.warn.Render("(muted)")
	}
	b.WriteString(line)
	b.WriteString("\n")

	if m.queue != nil {
		if t, ok := m.queue.Active(); ok {
			b.WriteString(styles.help.Render(fmt.Sprintf("↓ %s %s", t.Request.Name, t.Label())))
			b.WriteString("\n")
		}
	}
	if status := m.renderStatus(); status != "" {
		b.WriteString(status)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.ShortHelpView(m.keys.ShortHelp()))
	return b.String()
}

func (m *Model) renderSound(s *models.Sound, selected bool) string {
	cursor := "  "
	if selected {
		cursor = "> "
	}

	state := " "
	switch {
	case s.Errored:
		state = styles.err.Render("✗")
	case m.mixer.engine.IsPlaying(s.ID):
		state = styles.ok.Render("▶")
	case m.mixer.engine.IsFading(s.ID):
		state = styles.help.Render("▷")
	}

	name := fmt.Sprintf("%s %-24s", s.Icon, s.Name)
	if selected {
		name = styles.selected.Render(name)
	}
	return fmt.Sprintf("%s%s %s %s %3.0f%%", cursor, state, name, volumeBar(s.Volume), s.Volume*100)
}

func (m *Model) renderDownloads() string {
	var b strings.Builder
	b.WriteString(styles.title.Render("Add sound"))
	b.WriteString("\n")
	for _, ti := range m.form {
		b.WriteString(ti.View())
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(styles.category.Render("Queue"))
	b.WriteString("\n")

	var queued []tasks.Task
	if m.queue != nil {
		queued = m.queue.Tasks()
	}
	if len(queued) == 0 {
		b.WriteString(styles.help.Render("Nothing queued"))
		b.WriteString("\n")
	}
	for _, t := range queued {
		line := fmt.Sprintf("%s %-24s ", t.Request.Icon, t.Request.Name)
		switch t.Status {
		case tasks.Downloading:
			line += m.bar.ViewAs(t.Percent/100) + " " + t.Label()
		case tasks.Done:
			line += styles.ok.Render(t.Label())
		case tasks.Failed:
			line += styles.err.Render(t.Label())
		default:
			line += styles.help.Render(t.Label())
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	if status := m.renderStatus(); status != "" {
		b.WriteString("\n")
		b.WriteString(status)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(styles.help.Render("enter queue • ↑/↓ field • tab/esc back • ctrl+c quit"))
	return b.String()
}

func (m *Model) renderPresets() string {
	var b strings.Builder
	if m.naming {
		b.WriteString(m.nameInput.View())
		b.WriteString("\n\n")
	}
	b.WriteString(m.presets.View())
	b.WriteString("\n")
	if status := m.renderStatus(); status != "" {
		b.WriteString(status)
		b.WriteString("\n")
	}
	helpKeys := []key.Binding{m.keys.enter, m.keys.newPreset, m.keys.rename, m.keys.update, m.keys.remove, m.keys.back}
	b.WriteString(m.help.ShortHelpView(helpKeys))
	return b.String()
}

func (m *Model) renderHelp() string {
	title := styles.title.Render("Keys")
	return fmt.Sprintf("%s\n%s\n\n%s", title, m.help.FullHelpView(m.keys.FullHelp()), styles.help.Render("press any key to go back"))
}
