package watch

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lormic/ecomax360/internal/poller"
	"github.com/lormic/ecomax360/internal/protocol"
)

// Message types for async operations
type refreshMsg struct {
	bulk       protocol.Values
	thermostat protocol.Values
	err        error
}

type tickMsg time.Time

// fieldLabels maps registry keys to display labels.
var fieldLabels = map[string]string{
	"heat_source_temp":   "Heat source",
	"radiator_flow_temp": "Radiator flow",
	"dhw_temp":           "Hot water (DHW)",
	"buffer_tank_temp":   "Buffer tank",
	"outside_temp":       "Outside",
	"current_temp":       "Current",
	"target_temp":        "Target",
	"day_temp":           "Day setpoint",
	"night_temp":         "Night setpoint",
	"mode":               "Preset",
	"auto":               "Auto",
	"heating":            "Heating",
}

// Model is the live readings screen: it refreshes controller state on a
// fixed interval and renders the latest values.
type Model struct {
	fetcher  poller.Fetcher
	addr     string
	interval time.Duration

	spinner  spinner.Model
	width    int
	height   int
	fetching bool

	bulk       protocol.Values
	thermostat protocol.Values
	updatedAt  time.Time
	lastErr    error
}

// New creates a watch model reading from fetcher every interval.
func New(fetcher poller.Fetcher, addr string, interval time.Duration) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	return Model{
		fetcher:  fetcher,
		addr:     addr,
		interval: interval,
		spinner:  s,
		fetching: true,
	}
}

// Run starts the full-screen program and blocks until the user quits.
func Run(fetcher poller.Fetcher, addr string, interval time.Duration) error {
	_, err := tea.NewProgram(New(fetcher, addr, interval), tea.WithAltScreen()).Run()
	return err
}

// Init kicks off the spinner and the first refresh.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.refreshCmd())
}

// refreshCmd performs both exchanges off the update loop.
func (m Model) refreshCmd() tea.Cmd {
	fetcher := m.fetcher
	return func() tea.Msg {
		ctx := context.Background()
		bulk, bulkErr := fetcher.FetchBulkData(ctx)
		thermostat, thermErr := fetcher.FetchThermostatState(ctx)

		err := bulkErr
		if err == nil {
			err = thermErr
		}
		return refreshMsg{bulk: bulk, thermostat: thermostat, err: err}
	}
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "r":
			if !m.fetching {
				m.fetching = true
				return m, m.refreshCmd()
			}
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case refreshMsg:
		m.fetching = false
		m.lastErr = msg.err
		if msg.bulk != nil {
			m.bulk = msg.bulk
		}
		if msg.thermostat != nil {
			m.thermostat = msg.thermostat
		}
		if msg.err == nil {
			m.updatedAt = time.Now()
		}
		return m, tea.Tick(m.interval, func(t time.Time) tea.Msg {
			return tickMsg(t)
		})

	case tickMsg:
		m.fetching = true
		return m, m.refreshCmd()
	}

	return m, nil
}

// View renders the readings screen
func (m Model) View() string {
	title := TitleStyle.Render(fmt.Sprintf("ecoMAX 360 • %s", m.addr))

	status := m.renderStatus()

	box := BoxStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		SectionStyle.Render("HEATING PLANT"),
		m.renderFields(m.bulk, protocol.FieldsFor(protocol.FrameBulkData)),
		"",
		SectionStyle.Render("THERMOSTAT"),
		m.renderFields(m.thermostat, protocol.FieldsFor(protocol.FrameThermostat)),
	))

	help := HelpStyle.Render("r refresh • q quit")

	return lipgloss.JoinVertical(lipgloss.Left, title, status, box, help)
}

func (m Model) renderStatus() string {
	if m.fetching {
		return m.spinner.View() + " refreshing..."
	}
	if m.lastErr != nil {
		line := ErrorStyle.Render("✗ " + m.lastErr.Error())
		if !m.updatedAt.IsZero() {
			line += StaleStyle.Render(fmt.Sprintf("  (showing data from %s)",
				m.updatedAt.Format("15:04:05")))
		}
		return line
	}
	return HelpStyle.Render("updated " + m.updatedAt.Format("15:04:05"))
}

// renderFields renders one line per registry field, in registry order.
func (m Model) renderFields(values protocol.Values, specs []protocol.FieldSpec) string {
	if values == nil {
		return HelpStyle.Render("  (no data yet)")
	}

	lines := make([]string, 0, len(specs))
	for _, spec := range specs {
		value, ok := values[spec.Key]
		if !ok {
			continue
		}

		label := fieldLabels[spec.Key]
		if label == "" {
			label = spec.Key
		}

		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Left,
			LabelStyle.Render(label),
			ValueStyle.Render(formatValue(spec.Key, value)),
		))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// formatValue renders a decoded value for display: temperatures get a unit,
// the mode code becomes a preset name, bitflags become yes/no.
func formatValue(key string, value protocol.Value) string {
	if key == "mode" {
		if code, ok := value.Int(); ok {
			return protocol.ModeName(code)
		}
	}
	if b, ok := value.Bool(); ok {
		if b {
			return "yes"
		}
		return "no"
	}
	if value.Type == protocol.Float32 {
		f, _ := value.Float64()
		return fmt.Sprintf("%.1f °C", f)
	}
	return value.String()
}
