package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/rs/zerolog"

	"github.com/gwillem/origami/pkg/handtrack"
	"github.com/gwillem/origami/pkg/rig"
	"github.com/gwillem/origami/pkg/tension"
)

var (
	headerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	subHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	successStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type SetupCommand struct {
	SkipPort    bool `long:"skip-port" description:"Keep the configured serial port"`
	SkipFingers bool `long:"skip-fingers" description:"Keep the configured finger calibration"`
}

const noPort = "-"

func (c *SetupCommand) Execute(args []string) error {
	fmt.Println(headerStyle.Render("Origami Setup"))
	fmt.Println(dimStyle.Render("━━━━━━━━━━━━━"))
	fmt.Println()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Step 1: serial port of the winch board
	if !c.SkipPort {
		port, err := choosePort(cfg.Port)
		if err != nil {
			return err
		}
		cfg.Port = port
		if err := cfg.SaveTo(configPath()); err != nil {
			return fmt.Errorf("save config: %w", err)
		}
	}

	// Step 2: finger calibration
	if !c.SkipFingers {
		fmt.Println()
		fmt.Println(subHeaderStyle.Render("━━━ Calibrating Finger Tracking ━━━"))
		fmt.Println()
		if err := calibrateFingers(cfg); err != nil {
			return err
		}
		if err := cfg.SaveTo(configPath()); err != nil {
			return fmt.Errorf("save config: %w", err)
		}
	}

	fmt.Println()
	fmt.Println(dimStyle.Render("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"))
	fmt.Println(successStyle.Render("Setup complete!"))
	fmt.Printf("Configuration saved to %s\n", configPath())
	fmt.Println()
	fmt.Println("Start the rig with: " + headerStyle.Render("origami run"))

	return nil
}

func choosePort(current string) (string, error) {
	fmt.Println("Scanning for serial ports...")
	fmt.Println()

	ports, err := rig.Ports()
	if err != nil {
		fmt.Printf("Error listing ports: %v\n", err)
	}

	var options []huh.Option[string]
	for _, p := range ports {
		options = append(options, huh.NewOption(p.String(), p.Name))
	}
	if current != "" {
		options = append(options, huh.NewOption(fmt.Sprintf("Keep %s", current), current))
	}
	options = append(options, huh.NewOption("None (simulate only)", noPort))

	if len(ports) == 0 {
		fmt.Println("No serial ports found.")
		fmt.Println("Make sure the winch board is plugged in, or continue without one.")
		fmt.Println()
	}

	choice := current
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Which port is the winch board on?").
				Description("USB adapters are listed first").
				Options(options...).
				Value(&choice),
		),
	)
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			fmt.Println()
			os.Exit(0)
		}
		return "", fmt.Errorf("choose port: %w", err)
	}

	if choice == noPort {
		return "", nil
	}
	fmt.Printf("  Winch board: %s\n", choice)
	return choice, nil
}

func calibrateFingers(cfg *rig.Config) error {
	fmt.Printf("Waiting for landmark frames on udp://%s\n", cfg.Hand.Listen)
	fmt.Println()
	fmt.Println(subHeaderStyle.Render("Record range of motion"))
	fmt.Println("Hold your hand up to the camera.")
	fmt.Println("Open it wide, then make a tight fist. Repeat a few times.")
	fmt.Println()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	src := handtrack.NewUDPSource(cfg.Hand.Listen, zerolog.Nop())
	slot := handtrack.NewSlot()
	srcErr := make(chan error, 1)
	go func() { srcErr <- src.Run(ctx, slot) }()

	model := newCalibrationModel(
		tension.NewEstimator(cfg.Hand.Fingers, cfg.Hand.MinPalmSize),
		slot,
		srcErr,
	)
	finalModel, err := tea.NewProgram(model).Run()
	if err != nil {
		return fmt.Errorf("run calibration: %w", err)
	}

	cm := finalModel.(calibrationModel)
	if cm.err != nil {
		return fmt.Errorf("landmark source: %w", cm.err)
	}
	if cm.aborted {
		fmt.Println("Calibration aborted, keeping the previous values.")
		return nil
	}

	cal, skipped := cm.recorder.Calibration(cfg.Hand.Fingers)
	cfg.Hand.Fingers = cal

	fmt.Println()
	for _, w := range skipped {
		fmt.Printf("  %s finger moved less than %.1f palm lengths, keeping %.2f..%.2f\n",
			w.Finger(), tension.MinCalibrationSpan, cal[w].Extended, cal[w].Curled)
	}
	fmt.Println("Finger tracking calibrated.")
	return nil
}

// Calibration TUI model
type calibrationModel struct {
	estimator *tension.Estimator
	recorder  *tension.Recorder
	slot      *handtrack.Slot
	srcErr    <-chan error
	frames    int
	rejected  int
	err       error
	aborted   bool
	quitting  bool
}

type tickMsg time.Time

func newCalibrationModel(e *tension.Estimator, slot *handtrack.Slot, srcErr <-chan error) calibrationModel {
	return calibrationModel{
		estimator: e,
		recorder:  tension.NewRecorder(),
		slot:      slot,
		srcErr:    srcErr,
	}
}

func tick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m calibrationModel) Init() tea.Cmd {
	return tick()
}

func (m calibrationModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			m.quitting = true
			return m, tea.Quit
		case "esc", "ctrl+c":
			m.aborted = true
			m.quitting = true
			return m, tea.Quit
		}

	case tickMsg:
		select {
		case err := <-m.srcErr:
			if err != nil {
				m.err = err
				m.quitting = true
				return m, tea.Quit
			}
		default:
		}

		if f, ok := m.slot.Poll(); ok && len(f.Hands) > 0 {
			m.frames++
			if ratios, ok := m.estimator.Ratios(f.Hands[0]); ok {
				m.recorder.Observe(ratios)
			} else {
				m.rejected++
			}
		}
		return m, tick()
	}

	return m, nil
}

func (m calibrationModel) View() string {
	if m.quitting {
		return ""
	}

	var sb strings.Builder

	// Table styles
	tableHeaderStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Padding(0, 1)
	tableFingerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Padding(0, 1)
	tableCellStyle := lipgloss.NewStyle().Padding(0, 1)
	tableCurrentStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Padding(0, 1)
	tableRangeGoodStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Padding(0, 1)
	tableRangeLowStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Padding(0, 1)

	wires := tension.AllWires()
	rows := make([][]string, 0, len(wires))
	spans := make([]float64, 0, len(wires))
	for _, w := range wires {
		rg := m.recorder.Range(w)
		spans = append(spans, rg.Span())
		if !rg.Seen {
			rows = append(rows, []string{w.Finger(), string(w), "-", "-", "-", "-"})
			continue
		}
		rows = append(rows, []string{
			w.Finger(),
			string(w),
			fmt.Sprintf("%.2f", rg.Current),
			fmt.Sprintf("%.2f", rg.Min),
			fmt.Sprintf("%.2f", rg.Max),
			fmt.Sprintf("%.2f", rg.Span()),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers("Finger", "Wire", "Current", "Curled", "Extended", "Range").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			switch col {
			case 0:
				return tableFingerStyle
			case 2:
				return tableCurrentStyle
			case 5:
				if row >= 0 && row < len(spans) && spans[row] >= tension.MinCalibrationSpan {
					return tableRangeGoodStyle
				}
				return tableRangeLowStyle
			default:
				return tableCellStyle
			}
		})

	sb.WriteString(t.Render())
	sb.WriteString("\n")
	sb.WriteString(dimStyle.Render(fmt.Sprintf("%d frames, %d rejected", m.frames, m.rejected)))
	sb.WriteString("\n\n")
	sb.WriteString(dimStyle.Render("Press Enter when done, Esc to keep the previous values"))

	return sb.String()
}
