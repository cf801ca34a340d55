package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/NimbleMarkets/ntcharts/canvas/runes"
	"github.com/NimbleMarkets/ntcharts/linechart/streamlinechart"

	"github.com/gwillem/origami/pkg/handtrack"
	"github.com/gwillem/origami/pkg/motor"
	"github.com/gwillem/origami/pkg/rig"
	"github.com/gwillem/origami/pkg/sim"
	"github.com/gwillem/origami/pkg/tension"
)

type RunCommand struct {
	Hz       int    `long:"hz" description:"Control loop frequency (overrides config)"`
	Port     string `short:"p" long:"port" description:"Serial port of the winch board (overrides config)"`
	Listen   string `long:"listen" description:"UDP address for landmark frames (overrides config)"`
	Stdin    bool   `long:"stdin" description:"Read newline-delimited landmark frames from stdin (needs --headless)"`
	NoHand   bool   `long:"no-hand" description:"Disable hand tracking, keyboard only"`
	Connect  bool   `long:"connect" description:"Connect to the rig on start"`
	Headless bool   `long:"headless" description:"Run without the terminal UI and log the state once per second"`
}

const (
	headerHeight = 2 // title + blank line
	legendHeight = 3 // legend row + status row + blank
	footerHeight = 7 // log box height
	maxLogs      = 5 // number of log messages to show
	borderSize   = 2 // chart border
	logFeedSize  = 100
)

var wireColors = map[tension.Wire]string{
	tension.Up:    "196", // red
	tension.Down:  "46",  // green
	tension.Left:  "51",  // cyan
	tension.Right: "226", // yellow
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	chartStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	onlineStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	alertStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

const helpText = "q/a w/s e/d r/f wind/unwind wires · c connect · x disconnect · esc quit"

func (c *RunCommand) Execute(args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	c.override(cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	if c.Stdin && !c.Headless {
		return errors.New("--stdin needs --headless, the terminal UI reads the keyboard from stdin")
	}

	var feed *sim.LogFeed
	var logger zerolog.Logger
	if c.Headless {
		logger = newLogger(os.Stderr, cfg.LogLevel, true)
	} else {
		feed = sim.NewLogFeed(logFeedSize)
		logger = newLogger(feed, cfg.LogLevel, false)
	}

	link := rig.NewLink(rig.LinkConfig{Port: cfg.Port, BaudRate: cfg.BaudRate}, logger)
	defer link.Close()

	var det handtrack.Detector
	switch {
	case c.NoHand:
	case c.Stdin:
		det = handtrack.NewReaderSource(os.Stdin, logger)
	default:
		det = handtrack.NewUDPSource(cfg.Hand.Listen, logger)
	}

	loop, err := sim.NewLoop(simConfig(cfg), sim.Deps{
		Detector:  det,
		Transport: link,
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if c.Connect {
		if err := link.Connect(ctx); err != nil {
			logger.Warn().Err(err).Msg("rig not connected, simulating only")
		}
	}

	done := make(chan error, 1)
	go func() { done <- loop.Start(ctx) }()

	if c.Headless {
		runHeadless(ctx, loop, logger)
	} else {
		p := tea.NewProgram(newRunModel(loop, link, feed, cfg.Motor, logger), tea.WithAltScreen())
		_, err = p.Run()
	}

	// the loop sends the stop command on its way out, before the link closes
	cancel()
	if lerr := <-done; lerr != nil && !errors.Is(lerr, context.Canceled) {
		logger.Error().Err(lerr).Msg("simulation failed")
	}
	if err != nil {
		return fmt.Errorf("run terminal UI: %w", err)
	}
	return nil
}

func (c *RunCommand) override(cfg *rig.Config) {
	if c.Hz > 0 {
		cfg.Hz = c.Hz
	}
	if c.Port != "" {
		cfg.Port = c.Port
	}
	if c.Listen != "" {
		cfg.Hand.Listen = c.Listen
	}
}

func simConfig(cfg *rig.Config) sim.Config {
	return sim.Config{
		Hz:          cfg.Hz,
		MinPalmSize: cfg.Hand.MinPalmSize,
		Fingers:     cfg.Hand.Fingers,
		HandTimeout: cfg.Hand.Timeout,
		Step:        cfg.Input.Step,
		KeyHold:     cfg.Input.KeyHold,
		Geometry:    cfg.Geometry,
		Motor:       cfg.Motor,
	}
}

// runHeadless logs the latest state once per second until ctx is done.
func runHeadless(ctx context.Context, loop *sim.Loop, logger zerolog.Logger) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	var last sim.State
	var have bool
	for {
		select {
		case <-ctx.Done():
			return
		case s := <-loop.States():
			last, have = s, true
		case <-ticker.C:
			if have {
				logStatus(logger, last)
			}
		}
	}
}

func logStatus(logger zerolog.Logger, s sim.State) {
	logger.Info().
		Str("source", string(s.Source)).
		Str("tensions", formatTensions(s.Tensions)).
		Str("compression", fmt.Sprintf("%.0f%%", s.Compression*100)).
		Str("head", formatHead(s)).
		Str("command", s.Command.String()).
		Bool("connected", s.Connected).
		Dur("sim_time", s.SimTime).
		Msg("status")
}

func formatTensions(v tension.Vector) string {
	parts := make([]string, 0, 4)
	for _, w := range tension.AllWires() {
		parts = append(parts, fmt.Sprintf("%s=%.2f", w, v.Get(w)))
	}
	return strings.Join(parts, " ")
}

func formatHead(s sim.State) string {
	return fmt.Sprintf("%.1f,%.1f,%.1f", s.Head.X, s.Head.Y, s.Head.Z)
}

type runModel struct {
	loop   *sim.Loop
	link   *rig.Link
	feed   *sim.LogFeed
	stop   motor.Command
	logger zerolog.Logger

	chart    *streamlinechart.Model
	width    int // terminal width
	height   int // terminal height
	logs     []string
	state    sim.State
	haveData bool
	quitting bool
}

// Messages from the loop and the link
type stateMsg sim.State
type logMsg string
type linkMsg struct {
	connect bool
	err     error
}

func waitForState(loop *sim.Loop) tea.Cmd {
	return func() tea.Msg {
		return stateMsg(<-loop.States())
	}
}

func waitForLog(feed *sim.LogFeed) tea.Cmd {
	return func() tea.Msg {
		return logMsg(<-feed.Lines())
	}
}

func connectLink(link *rig.Link) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return linkMsg{connect: true, err: link.Connect(ctx)}
	}
}

// disconnectLink stops the winches before closing the port, since the
// last speed command keeps them turning.
func disconnectLink(link *rig.Link, stop motor.Command) tea.Cmd {
	return func() tea.Msg {
		return linkMsg{err: link.CloseWith(stop.String())}
	}
}

func newRunModel(loop *sim.Loop, link *rig.Link, feed *sim.LogFeed, p motor.Params, logger zerolog.Logger) runModel {
	chart := streamlinechart.New(80, 20,
		streamlinechart.WithYRange(0, 1),
	)
	for _, w := range tension.AllWires() {
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(wireColors[w]))
		chart.SetDataSetStyles(string(w), runes.ThinLineStyle, style)
	}

	return runModel{
		loop:   loop,
		link:   link,
		feed:   feed,
		stop:   p.Stop(),
		logger: logger,
		chart:  &chart,
	}
}

func (m *runModel) addLog(msg string) {
	m.logs = append(m.logs, msg)
	if len(m.logs) > maxLogs {
		m.logs = m.logs[len(m.logs)-maxLogs:]
	}
}

// chartSize calculates the size of the chart based on terminal dimensions
func (m *runModel) chartSize() (width, height int) {
	if m.width == 0 || m.height == 0 {
		return 80, 20
	}
	width = max(m.width-borderSize-2, 40)
	height = max(m.height-headerHeight-legendHeight-footerHeight-borderSize, 10)
	return width, height
}

func (m runModel) Init() tea.Cmd {
	return tea.Batch(
		waitForState(m.loop),
		waitForLog(m.feed),
	)
}

func (m runModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.chart.Resize(m.chartSize())
		return m, nil

	case tea.KeyMsg:
		key := msg.String()
		switch key {
		case "esc", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "c":
			return m, connectLink(m.link)
		case "x":
			return m, disconnectLink(m.link, m.stop)
		}
		if tension.IsBound(key) {
			m.loop.Press(key)
		}
		return m, nil

	case linkMsg:
		switch {
		case msg.err != nil && errors.Is(msg.err, rig.ErrNoPort):
			m.logger.Warn().Msg("no serial port configured, run 'origami setup' or pass --port")
		case msg.err != nil:
			m.logger.Error().Err(msg.err).Msg("serial link")
		case !msg.connect:
			m.logger.Info().Msg("disconnected, simulating only")
		}
		return m, nil

	case stateMsg:
		s := sim.State(msg)
		// freeze the chart while the tensions are still
		if !m.haveData || s.Tensions != m.state.Tensions {
			for _, w := range tension.AllWires() {
				m.chart.PushDataSet(string(w), s.Tensions.Get(w))
			}
			m.chart.DrawAll()
		}
		m.state = s
		m.haveData = true
		return m, waitForState(m.loop)

	case logMsg:
		m.addLog(string(msg))
		return m, waitForLog(m.feed)
	}

	return m, nil
}

func (m runModel) View() string {
	if m.quitting {
		return "Stopped.\n"
	}

	var sb strings.Builder

	sb.WriteString(titleStyle.Render("Origami"))
	sb.WriteString(fmt.Sprintf(" - %d Hz", m.loop.Hz()))
	if m.width > 0 {
		sb.WriteString(statusStyle.Render(fmt.Sprintf("  [%dx%d]", m.width, m.height)))
	}
	sb.WriteString("\n\n")

	sb.WriteString(chartStyle.Render(m.chart.View()))
	sb.WriteString("\n")

	sb.WriteString(renderLegend(m.state.Tensions))
	sb.WriteString("\n")
	sb.WriteString(m.renderStatus())
	sb.WriteString("\n")

	logStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Width(max(m.width-4, 20))

	var logLines string
	if len(m.logs) == 0 {
		logLines = statusStyle.Render(helpText)
	} else {
		logLines = strings.Join(m.logs, "\n")
	}
	sb.WriteString(logStyle.Render(logLines))
	sb.WriteString("\n")

	return sb.String()
}

func renderLegend(v tension.Vector) string {
	var items []string
	for _, w := range tension.AllWires() {
		colorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(wireColors[w])).Bold(true)
		items = append(items, colorStyle.Render("━━")+fmt.Sprintf(" %s %.2f", w, v.Get(w)))
	}
	return strings.Join(items, "  ")
}

func (m runModel) renderStatus() string {
	s := m.state
	if !m.haveData {
		return statusStyle.Render("waiting for first tick")
	}

	hand := statusStyle.Render("no hand")
	switch s.Source {
	case sim.SourceHand:
		hand = onlineStyle.Render("hand")
	case sim.SourceRejected:
		hand = alertStyle.Render("hand rejected")
	case sim.SourceManual:
		hand = "keyboard"
	}

	link := alertStyle.Render("offline")
	if s.Connected {
		link = onlineStyle.Render(m.link.Port()) + " " + s.Command.String()
	}

	fields := []string{
		hand,
		fmt.Sprintf("compression %3.0f%%", s.Compression*100),
		fmt.Sprintf("twist %5.1f°", s.Twist*180/math.Pi),
		"head " + formatHead(s),
		link,
		statusStyle.Render(s.SimTime.Truncate(time.Second).String()),
	}
	return strings.Join(fields, "  ")
}
