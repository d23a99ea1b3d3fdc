// Package statsui provides the Bubble Tea catalog browser.
package statsui

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/verte-zerg/reelstats/internal/model"
	"github.com/verte-zerg/reelstats/internal/stats"
)

const (
	tabOverview = iota
	tabDurations
	tabDecades
)

const (
	inputKind = iota
	inputDecade
	inputGenre
	inputMaxDuration
)

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	cardStyle   = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	tableMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
)

// Model implements the Bubble Tea catalog browser.
type Model struct {
	src stats.TitleSource
	cfg model.StatsConfig

	records  []model.TitleRecord
	result   model.StatsResult
	decades  []model.StatsResult
	freqs    []stats.DurationCount
	errMsg   string
	emptyMsg string

	tabs          []string
	activeTab     int
	viewports     []viewport.Model
	durationTable table.Model

	width  int
	height int

	filterMode   bool
	filterInputs []textinput.Model
	filterIndex  int
	filterError  string
}

// NewModel constructs a browser over src.
func NewModel(src stats.TitleSource, cfg model.StatsConfig) *Model {
	m := &Model{
		src:  src,
		cfg:  cfg,
		tabs: []string{"Overview", "Durations", "Decades"},
	}
	m.initInputs()
	m.durationTable = buildDurationTable(nil, 0, 0, 1)
	m.viewports = make([]viewport.Model, len(m.tabs))
	for i := range m.viewports {
		m.viewports[i] = viewport.New(0, 0)
	}
	m.reload()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		m.renderTabContents()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.filterMode {
			return m.updateFilter(msg)
		}
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "left", "h":
			m.moveTab(-1)
			return m, tea.ClearScreen
		case "right", "l":
			m.moveTab(1)
			return m, tea.ClearScreen
		case "[":
			m.cfg.Decade -= 10
			m.recompute()
			return m, nil
		case "]":
			m.cfg.Decade += 10
			m.recompute()
			return m, nil
		case "/":
			return m.startFilter()
		default:
			if m.activeTab == tabDurations {
				var cmd tea.Cmd
				m.durationTable, cmd = m.durationTable.Update(msg)
				return m, cmd
			}
			var cmd tea.Cmd
			m.viewports[m.activeTab], cmd = m.viewports[m.activeTab].Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(bodyHeight), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

func (m *Model) initInputs() {
	m.filterInputs = []textinput.Model{
		newFilterInput("Kind: "),
		newFilterInput("Decade: "),
		newFilterInput("Genre: "),
		newFilterInput("Max duration: "),
	}
	m.setInputsFromConfig()
}

func newFilterInput(prompt string) textinput.Model {
	input := textinput.New()
	input.Prompt = prompt
	input.CharLimit = 0
	input.Cursor.SetMode(cursor.CursorBlink)
	return input
}

func (m *Model) setInputsFromConfig() {
	m.filterInputs[inputKind].SetValue(m.cfg.Kind)
	m.filterInputs[inputDecade].SetValue(strconv.Itoa(m.cfg.Decade))
	m.filterInputs[inputGenre].SetValue(m.cfg.Genre)
	m.filterInputs[inputMaxDuration].SetValue(stats.FormatDuration(m.cfg.MaxDuration))
}

// reload fetches titles for the configured kind and recomputes everything.
func (m *Model) reload() {
	records, err := m.src.ListTitles(context.Background(), m.cfg.Kind)
	if err != nil {
		m.errMsg = err.Error()
		m.records = nil
		m.renderTabContents()
		return
	}
	m.errMsg = ""
	m.records = records
	m.recompute()
}

func (m *Model) recompute() {
	criteria := m.cfg.Criteria()
	m.errMsg = ""
	m.emptyMsg = ""
	res, err := stats.ComputeDecadeStats(m.records, m.cfg.Window(), criteria)
	switch {
	case errors.Is(err, stats.ErrEmptyInput):
		m.emptyMsg = err.Error()
		m.result = model.StatsResult{Window: m.cfg.Window()}
	case err != nil:
		m.errMsg = err.Error()
	default:
		m.result = res
	}
	m.freqs = stats.DurationFrequencies(stats.FilterByDecade(m.records, m.cfg.Window()))
	decades, err := stats.ComputeAllDecades(m.records, criteria)
	if err != nil {
		m.errMsg = err.Error()
	}
	m.decades = decades
	m.applyDurationTable()
	m.renderTabContents()
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := lipgloss.Height(activeNavStyle.Render("X"))
	if tabsHeight < 1 {
		tabsHeight = 1
	}
	headerHeight = tabsHeight + 1
	footerHeight = 1
	if !m.filterMode && m.errMsg != "" {
		footerHeight++
	}
	bodyHeight = m.height - headerHeight - footerHeight
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, bodyHeight, _ := m.layoutHeights()
	for i := range m.viewports {
		m.viewports[i].Width = m.width
		m.viewports[i].Height = bodyHeight
	}
	m.durationTable.SetWidth(m.width)
	m.durationTable.SetHeight(maxInt(1, bodyHeight-1))
	for i := range m.filterInputs {
		promptWidth := lipgloss.Width(m.filterInputs[i].Prompt)
		m.filterInputs[i].Width = maxInt(10, m.width-promptWidth-2)
	}
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	next := (m.activeTab + delta + count) % count
	m.activeTab = next
	if m.activeTab == tabDurations {
		m.durationTable.Focus()
	} else {
		m.durationTable.Blur()
	}
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderHeader() string {
	tabs := padLines(m.renderTabs(), m.width)
	return tabs + "\n" + padLines(m.renderFilterSummary(), m.width)
}

func (m *Model) renderFilterSummary() string {
	kind := m.cfg.Kind
	if kind == "" {
		kind = "any"
	}
	summary := fmt.Sprintf("Settings: decade=%s  kind=%s  genre=%q  max-duration=%s",
		m.cfg.Window().Label(), kind, m.cfg.Genre, stats.FormatDuration(m.cfg.MaxDuration))
	return headerStyle.Render(truncateLine(summary, m.width))
}

func (m *Model) renderFooter() string {
	if m.filterMode {
		return headerStyle.Render("tab/shift+tab: next field  enter: apply  esc: cancel")
	}
	help := headerStyle.Render("Nav: left/right  Scroll: up/down  Decade: [/]  Settings: /  Quit: q")
	if m.errMsg != "" {
		return help + "\n" + errorStyle.Render(m.errMsg)
	}
	return help
}

func (m *Model) renderBody(height int) string {
	if m.filterMode {
		return fitLines(m.renderFilterForm(), m.width, height)
	}
	if m.activeTab == tabDurations {
		if len(m.freqs) == 0 {
			return fitLines(m.noTitlesMessage(), m.width, height)
		}
		return fitLines(tableMutedStyle.Render(m.durationTable.View()), m.width, height)
	}
	return fitLines(m.viewports[m.activeTab].View(), m.width, height)
}

func (m *Model) renderFilterForm() string {
	lines := []string{"Settings (enter to apply, esc to cancel)"}
	for _, input := range m.filterInputs {
		lines = append(lines, input.View())
	}
	if m.filterError != "" {
		lines = append(lines, errorStyle.Render(m.filterError))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) noTitlesMessage() string {
	if m.emptyMsg != "" {
		return fmt.Sprintf("No statistics: %s.", m.emptyMsg)
	}
	return "No titles found."
}

func (m *Model) renderTabContents() {
	if len(m.viewports) == 0 {
		return
	}
	if m.errMsg != "" {
		for i := range m.viewports {
			m.viewports[i].SetContent("Failed to load titles.")
		}
		return
	}
	width := m.width
	if width <= 0 {
		width = 80
	}
	m.viewports[tabOverview].SetContent(m.renderOverview(width))
	m.viewports[tabDecades].SetContent(m.renderDecades())
}

func (m *Model) renderOverview(width int) string {
	if m.emptyMsg != "" {
		return m.noTitlesMessage()
	}
	label := m.result.Window.Label()
	cards := []string{
		metricCard("Catalog", humanize.Comma(int64(len(m.records)))),
		metricCard("Titles "+label, humanize.Comma(int64(m.result.Titles))),
		metricCard("Mode duration", stats.FormatDuration(m.result.ModeDuration)+" min"),
		metricCard(stats.ShortTitleLabel(m.cfg.Criteria()), humanize.Comma(int64(m.result.ShortTitleCount))),
	}
	if width < 80 {
		return strings.Join(cards, "\n")
	}
	row1 := lipgloss.JoinHorizontal(lipgloss.Top, cards[0], cards[1])
	row2 := lipgloss.JoinHorizontal(lipgloss.Top, cards[2], cards[3])
	return lipgloss.JoinVertical(lipgloss.Left, row1, row2)
}

func (m *Model) renderDecades() string {
	var buf bytes.Buffer
	if err := stats.RenderDecadeTable(&buf, m.decades, m.cfg.Criteria(), true); err != nil {
		return fmt.Sprintf("Failed to render decades: %v", err)
	}
	return strings.TrimRight(buf.String(), "\n")
}

func metricCard(label, value string) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value))
	return cardStyle.Render(content)
}

func (m *Model) applyDurationTable() {
	width := m.width
	if width <= 0 {
		width = 80
	}
	_, bodyHeight, _ := m.layoutHeights()
	m.durationTable = buildDurationTable(m.freqs, m.result.Titles, width, bodyHeight)
	if m.activeTab == tabDurations {
		m.durationTable.Focus()
	}
}

func buildDurationTable(freqs []stats.DurationCount, total, width, height int) table.Model {
	columns := []table.Column{
		{Title: "Duration", Width: 9},
		{Title: "Titles", Width: 7},
		{Title: "Share", Width: 8},
	}
	rows := make([]table.Row, 0, len(freqs))
	for _, f := range freqs {
		share := 0.0
		if total > 0 {
			share = float64(f.Count) / float64(total) * 100
		}
		rows = append(rows, table.Row{
			stats.FormatDuration(f.Duration),
			strconv.Itoa(f.Count),
			fmt.Sprintf("%.2f%%", share),
		})
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithHeight(maxInt(1, height-1)),
	)
	t.SetWidth(width)
	t.SetStyles(durationTableStyles())
	return t
}

func durationTableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}

func (m *Model) startFilter() (tea.Model, tea.Cmd) {
	m.filterMode = true
	m.filterError = ""
	m.setInputsFromConfig()
	return m, m.setFilterIndex(0)
}

func (m *Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.filterMode = false
		m.filterError = ""
		return m, nil
	case tea.KeyEnter:
		kindChanged, err := m.applyFilter()
		if err != nil {
			m.filterError = err.Error()
			return m, nil
		}
		m.filterMode = false
		m.filterError = ""
		if kindChanged {
			m.reload()
		} else {
			m.recompute()
		}
		m.updateLayout()
		return m, nil
	case tea.KeyTab:
		return m, m.setFilterIndex(m.filterIndex + 1)
	case tea.KeyShiftTab:
		return m, m.setFilterIndex(m.filterIndex - 1)
	}
	var cmd tea.Cmd
	m.filterInputs[m.filterIndex], cmd = m.filterInputs[m.filterIndex].Update(msg)
	return m, cmd
}

func (m *Model) setFilterIndex(idx int) tea.Cmd {
	count := len(m.filterInputs)
	m.filterIndex = (idx + count) % count
	var cmd tea.Cmd
	for i := range m.filterInputs {
		if i == m.filterIndex {
			cmd = m.filterInputs[i].Focus()
		} else {
			m.filterInputs[i].Blur()
		}
	}
	return cmd
}

// applyFilter validates the form and reports whether the kind changed.
func (m *Model) applyFilter() (bool, error) {
	decade, err := strconv.Atoi(strings.TrimSpace(m.filterInputs[inputDecade].Value()))
	if err != nil {
		return false, fmt.Errorf("invalid decade (use a year such as 1990)")
	}
	maxDuration, err := strconv.ParseFloat(strings.TrimSpace(m.filterInputs[inputMaxDuration].Value()), 64)
	if err != nil || math.IsNaN(maxDuration) || maxDuration < 0 {
		return false, fmt.Errorf("invalid max duration (use a number >= 0)")
	}
	kind := strings.TrimSpace(m.filterInputs[inputKind].Value())
	kindChanged := kind != m.cfg.Kind
	m.cfg.Kind = kind
	m.cfg.Decade = decade
	m.cfg.Genre = m.filterInputs[inputGenre].Value()
	m.cfg.MaxDuration = maxDuration
	return kindChanged, nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func padLines(s string, width int) string {
	if width <= 0 || s == "" {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	return strings.Join(lines, "\n")
}

func padLine(line string, width int) string {
	lineWidth := lipgloss.Width(line)
	if lineWidth < width {
		return line + strings.Repeat(" ", width-lineWidth)
	}
	return line
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

func truncateLine(s string, width int) string {
	if width <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}
