package cli

import (
	"context"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	errs "github.com/matzehuels/menuboard/pkg/errors"
	"github.com/matzehuels/menuboard/pkg/pipeline"
)

// =============================================================================
// checkModel - Live reconciliation view
// =============================================================================

type (
	checkResultMsg struct {
		vis *pipeline.VisibilityResult
		err error
		at  time.Time
	}
	checkTickMsg struct{}
)

// checkModel is the bubbletea model behind check --watch. It reloads on
// every tick and on "r"; a failed load keeps the last good table on screen.
type checkModel struct {
	ctx      context.Context
	input    string
	interval time.Duration
	load     func(context.Context) (*pipeline.VisibilityResult, error)

	vis      *pipeline.VisibilityResult
	err      error
	updated  time.Time
	loading  bool
	quitting bool
}

func newCheckModel(ctx context.Context, input string, interval time.Duration, load func(context.Context) (*pipeline.VisibilityResult, error)) checkModel {
	return checkModel{ctx: ctx, input: input, interval: interval, load: load, loading: true}
}

func (m checkModel) Init() tea.Cmd {
	return m.fetch()
}

func (m checkModel) fetch() tea.Cmd {
	return func() tea.Msg {
		vis, err := m.load(m.ctx)
		return checkResultMsg{vis: vis, err: err, at: time.Now()}
	}
}

func (m checkModel) tick() tea.Cmd {
	return tea.Tick(m.interval, func(time.Time) tea.Msg { return checkTickMsg{} })
}

func (m checkModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "r":
			if !m.loading {
				m.loading = true
				return m, m.fetch()
			}
		}
	case checkTickMsg:
		if m.loading {
			return m, nil
		}
		m.loading = true
		return m, m.fetch()
	case checkResultMsg:
		m.loading = false
		m.err = msg.err
		m.updated = msg.at
		if msg.err == nil {
			m.vis = msg.vis
		}
		return m, m.tick()
	}
	return m, nil
}

func (m checkModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(StyleTitle.Render("menuboard check") + " " + StyleValue.Render(m.input))
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("r refresh  q quit"))
	b.WriteString("\n\n")

	if m.vis != nil {
		b.WriteString(checkTable(m.vis))
		b.WriteString("\n")
		b.WriteString(StyleDim.Render(statsLine(m.vis.Stats.Rows, len(m.vis.RawVisibleIDs), len(m.vis.VisibleIDs), len(m.vis.Prices))))
		b.WriteString("\n")
	}

	switch {
	case m.err != nil:
		b.WriteString(styleIconError.Render(iconError) + " " + errs.UserMessage(m.err))
	case m.loading:
		b.WriteString(styleIconSpinner.Render(iconInfo) + " " + StyleDim.Render("loading..."))
	default:
		b.WriteString(StyleDim.Render("updated " + m.updated.Format("15:04:05") + ", next in " + m.interval.String()))
	}
	b.WriteString("\n")
	return b.String()
}
