// Package browse is the terminal browser over a run result.
package browse

import (
	"fmt"
	"os/exec"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/amishk599/jobradar/internal/adapter"
	"github.com/amishk599/jobradar/internal/model"
	"github.com/amishk599/jobradar/internal/pipeline"
	"github.com/amishk599/jobradar/internal/view"
)

// Lines per job item in the list (title + subtitle + blank separator).
const jobItemHeight = 3

// distanceStep is how far +/- move the max distance.
const distanceStep = 5.0

type viewState int

const (
	viewList viewState = iota
	viewDetail
)

// workTypeCycle is the order w steps through.
var workTypeCycle = [][]model.WorkType{
	nil,
	{model.WorkRemote},
	{model.WorkHybrid},
	{model.WorkOnsite},
	{model.WorkRemote, model.WorkHybrid},
}

var (
	borderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("39"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			Padding(0, 1)

	filterBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Padding(0, 1)

	statusBarStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("236"))

	jobTitleStyle = lipgloss.NewStyle().
			Bold(true)

	jobSubtitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("245"))

	selectedJobTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("24"))

	selectedJobSubtitleStyle = lipgloss.NewStyle().
					Foreground(lipgloss.Color("252")).
					Background(lipgloss.Color("24"))

	detailLabelStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")).
				Width(12)

	detailTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15"))

	dividerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	doneLineStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))
)

type browseModel struct {
	result pipeline.Result
	crit   view.Criteria
	wtIdx  int
	shown  []model.Job
	cursor int

	list   viewport.Model
	detail viewport.Model
	search textinput.Model

	searching bool
	view      viewState
	width     int
	height    int
	ready     bool

	now     func() time.Time
	openURL func(string)
}

func newModel(res pipeline.Result, maxMiles float64) browseModel {
	ti := textinput.New()
	ti.Prompt = "/ "
	ti.Placeholder = "title, company, skill"
	ti.CharLimit = 64

	m := browseModel{
		result:  res,
		crit:    view.Default(maxMiles),
		search:  ti,
		now:     time.Now,
		openURL: openURL,
	}
	m.shown = m.crit.Apply(m.result.Jobs)
	return m
}

func (m browseModel) Init() tea.Cmd {
	return nil
}

func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.recalcLayout()
		return m, nil

	case tea.KeyMsg:
		if m.view == viewDetail {
			return m.updateDetailView(msg)
		}
		if m.searching {
			return m.updateSearch(msg)
		}
		return m.updateListView(msg)
	}
	return m, nil
}

func (m browseModel) updateListView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		m.moveCursor(-1)
		return m, nil
	case "down", "j":
		m.moveCursor(1)
		return m, nil
	case "w":
		m.wtIdx = (m.wtIdx + 1) % len(workTypeCycle)
		m.crit.WorkTypes = workTypeCycle[m.wtIdx]
		m.refresh()
		return m, nil
	case "s":
		i := slices.Index(view.Sorts, m.crit.SortBy)
		m.crit.SortBy = view.Sorts[(i+1)%len(view.Sorts)]
		m.refresh()
		return m, nil
	case "+", "=":
		m.crit.MaxDistance += distanceStep
		m.refresh()
		return m, nil
	case "-":
		m.crit.MaxDistance = max(m.crit.MaxDistance-distanceStep, distanceStep)
		m.refresh()
		return m, nil
	case "/":
		m.searching = true
		m.search.SetValue(m.crit.Query)
		return m, m.search.Focus()
	case "o":
		if job, ok := m.selected(); ok && job.URL != "" {
			m.openURL(job.URL)
		}
		return m, nil
	case "enter":
		return m.openDetailView()
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// updateSearch filters as the user types; enter keeps the query, esc clears it.
func (m browseModel) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.searching = false
		m.search.Blur()
		return m, nil
	case tea.KeyEsc:
		m.searching = false
		m.search.Blur()
		m.search.SetValue("")
		m.crit.Query = ""
		m.refresh()
		return m, nil
	case tea.KeyCtrlC:
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.crit.Query = m.search.Value()
	m.refresh()
	return m, cmd
}

func (m browseModel) updateDetailView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc", "backspace":
		m.view = viewList
		return m, nil
	case "o":
		if job, ok := m.selected(); ok && job.URL != "" {
			m.openURL(job.URL)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.detail, cmd = m.detail.Update(msg)
	return m, cmd
}

func (m browseModel) openDetailView() (tea.Model, tea.Cmd) {
	job, ok := m.selected()
	if !ok {
		return m, nil
	}
	m.view = viewDetail
	m.detail = viewport.New(max(m.width-4, 20), max(m.height-4, 5))
	m.detail.SetContent(m.renderDetail(job))
	return m, nil
}

func (m browseModel) selected() (model.Job, bool) {
	if len(m.shown) == 0 {
		return model.Job{}, false
	}
	return m.shown[m.cursor], true
}

func (m *browseModel) moveCursor(delta int) {
	m.cursor = clamp(m.cursor+delta, 0, max(len(m.shown)-1, 0))
	m.list.SetContent(m.renderJobs())
	m.ensureCursorVisible()
}

// refresh reapplies the criteria and keeps the cursor in range.
func (m *browseModel) refresh() {
	m.shown = m.crit.Apply(m.result.Jobs)
	m.cursor = clamp(m.cursor, 0, max(len(m.shown)-1, 0))
	if m.ready {
		m.list.SetContent(m.renderJobs())
		m.ensureCursorVisible()
	}
}

func (m *browseModel) ensureCursorVisible() {
	top := m.cursor * jobItemHeight
	bottom := top + jobItemHeight - 1
	if top < m.list.YOffset {
		m.list.SetYOffset(top)
	} else if bottom >= m.list.YOffset+m.list.Height {
		m.list.SetYOffset(bottom - m.list.Height + 1)
	}
}

func (m *browseModel) recalcLayout() {
	// Header, filter bar, border top/bottom and status bar.
	width := max(m.width-2, 20)
	height := max(m.height-5, 5)

	if !m.ready {
		m.list = viewport.New(width, height)
		m.ready = true
	} else {
		m.list.Width = width
		m.list.Height = height
	}
	m.list.SetContent(m.renderJobs())

	if m.view == viewDetail {
		m.detail.Width = max(m.width-4, 20)
		m.detail.Height = max(m.height-4, 5)
		if job, ok := m.selected(); ok {
			m.detail.SetContent(m.renderDetail(job))
		}
	}
}

func (m browseModel) View() string {
	if !m.ready {
		return "Initializing..."
	}
	if m.view == viewDetail {
		return m.viewDetail()
	}
	return m.viewList()
}

func (m browseModel) viewList() string {
	header := headerStyle.Render(fmt.Sprintf("%d commutable jobs (%d found, %d shown)",
		m.result.TotalFiltered, m.result.TotalFound, len(m.shown)))
	if n := len(m.result.Errors); n > 0 {
		header += " " + errorStyle.Render(fmt.Sprintf("%d source errors", n))
	}

	bar := filterBarStyle.Render(m.filterSummary())
	if m.searching {
		bar = filterBarStyle.Render(m.search.View())
	}

	pane := borderStyle.Width(m.list.Width).Render(m.list.View())
	status := statusBarStyle.Width(m.width).Render(
		" ↑/↓ move  enter detail  w work type  s sort  +/- distance  / search  o open  q quit")

	return header + "\n" + bar + "\n" + pane + "\n" + status
}

func (m browseModel) filterSummary() string {
	work := "all"
	if len(m.crit.WorkTypes) > 0 {
		parts := make([]string, len(m.crit.WorkTypes))
		for i, wt := range m.crit.WorkTypes {
			parts[i] = string(wt)
		}
		work = strings.Join(parts, "+")
	}
	s := fmt.Sprintf("work: %s   sort: %s   max: %g mi", work, m.crit.SortBy, m.crit.MaxDistance)
	if m.crit.Query != "" {
		s += fmt.Sprintf("   search: %q", m.crit.Query)
	}
	return s
}

func (m browseModel) viewDetail() string {
	title := detailTitleStyle.Render("Job Details")
	content := borderStyle.Width(max(m.width-2, 20)).Render(m.detail.View())
	status := statusBarStyle.Width(m.width).Render(" o open URL  esc/backspace back  ↑/↓ scroll  q quit")
	return title + "\n" + content + "\n" + status
}

func (m browseModel) renderJobs() string {
	if len(m.shown) == 0 {
		return "  (no jobs match)"
	}

	var b strings.Builder
	for i, j := range m.shown {
		titleSt, subtitleSt, prefix := jobTitleStyle, jobSubtitleStyle, "  "
		if i == m.cursor {
			titleSt, subtitleSt, prefix = selectedJobTitleStyle, selectedJobSubtitleStyle, "> "
		}

		b.WriteString(prefix)
		b.WriteString(titleSt.Render(j.Title))
		b.WriteByte('\n')

		sub := fmt.Sprintf("%s · %s · %s", j.Company, j.DistanceLabel(), j.WorkType)
		if posted := m.posted(j); posted != "" {
			sub += " · " + posted
		}
		b.WriteString(prefix)
		b.WriteString(subtitleSt.Render(sub))
		b.WriteByte('\n')

		if i < len(m.shown)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func (m browseModel) renderDetail(j model.Job) string {
	var b strings.Builder
	addField := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString(detailLabelStyle.Render(label))
		b.WriteString(value)
		b.WriteByte('\n')
	}

	addField("Title", j.Title)
	addField("Company", j.Company)
	addField("Location", j.Location)
	addField("Distance", j.DistanceLabel())
	addField("Work type", string(j.WorkType))
	addField("Source", string(j.Source))
	if j.Summary != nil {
		addField("Summary", *j.Summary)
	}
	addField("Skills", strings.Join(j.Skills, ", "))
	if t, ok := view.PostedTime(j); ok {
		addField("Posted", t.Format("2006-01-02")+" ("+m.posted(j)+")")
	}
	addField("URL", j.URL)

	wrapWidth := max(m.width-8, 20)
	if desc := adapter.PlainText(j.Description); desc != "" {
		b.WriteByte('\n')
		b.WriteString(dividerStyle.Render("── Description " + strings.Repeat("─", max(wrapWidth-15, 3))))
		b.WriteString("\n\n")
		b.WriteString(wordWrap(desc, wrapWidth))
		b.WriteByte('\n')
	}
	return b.String()
}

// posted is the relative posting time, or "" when the board gave none.
func (m browseModel) posted(j model.Job) string {
	t, ok := view.PostedTime(j)
	if !ok {
		return ""
	}
	return humanize.RelTime(t, m.now(), "ago", "from now")
}

func wordWrap(text string, width int) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}
	var lines []string
	line := words[0]
	for _, w := range words[1:] {
		if len(line)+1+len(w) <= width {
			line += " " + w
		} else {
			lines = append(lines, line)
			line = w
		}
	}
	lines = append(lines, line)
	return strings.Join(lines, "\n")
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// openURL opens url in the default system browser, fire-and-forget.
func openURL(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	default:
		return
	}
	_ = cmd.Start()
}

// Run opens the full-screen browser over res. maxMiles seeds the distance
// filter.
func Run(res pipeline.Result, maxMiles float64) error {
	_, err := tea.NewProgram(newModel(res, maxMiles), tea.WithAltScreen()).Run()
	return err
}
