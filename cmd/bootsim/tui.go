package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/moffa90/go-sdboot/bootloader"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	boxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

const maxLogLines = 12

// Messages
type progressMsg bootloader.Progress
type logLineMsg string
type doneMsg struct {
	report *bootloader.Report
}

// bootModel is the live view of one boot.
type bootModel struct {
	device  string
	console string

	last     bootloader.Progress
	states   []bootloader.State
	logLines []string
	report   *bootloader.Report

	bar   progress.Model
	width int
}

func newBootModel(device, console string) bootModel {
	return bootModel{
		device:  device,
		console: console,
		bar:     progress.New(progress.WithDefaultGradient()),
		width:   80,
	}
}

func (m bootModel) Init() tea.Cmd {
	return nil
}

func (m bootModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = max(10, msg.Width-20)

	case progressMsg:
		p := bootloader.Progress(msg)
		if len(m.states) == 0 || m.states[len(m.states)-1] != p.State {
			m.states = append(m.states, p.State)
		}
		m.last = p

	case logLineMsg:
		m.logLines = append(m.logLines, string(msg))
		if len(m.logLines) > maxLogLines {
			m.logLines = m.logLines[len(m.logLines)-maxLogLines:]
		}

	case doneMsg:
		m.report = msg.report
		return m, tea.Quit
	}
	return m, nil
}

func (m bootModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("bootsim"))
	b.WriteString(labelStyle.Render(fmt.Sprintf("  device %s  console %s", m.device, m.console)))
	b.WriteString("\n\n")

	names := make([]string, len(m.states))
	for i, s := range m.states {
		names[i] = s.String()
	}
	b.WriteString(labelStyle.Render("State: "))
	b.WriteString(strings.Join(names, " > "))
	b.WriteString("\n")

	if m.last.TotalRows > 0 {
		b.WriteString(labelStyle.Render(fmt.Sprintf("Slot %s  row %d/%d  ", m.last.Slot, m.last.CurrentRow, m.last.TotalRows)))
		if m.last.FailedRows > 0 {
			b.WriteString(errStyle.Render(fmt.Sprintf("%d failed", m.last.FailedRows)))
		} else {
			b.WriteString(okStyle.Render("no failures"))
		}
		b.WriteString("\n")
		b.WriteString(m.bar.ViewAs(m.last.Percentage / 100))
		b.WriteString("\n")
	}

	if len(m.logLines) > 0 {
		b.WriteString(boxStyle.Width(max(20, m.width-4)).Render(strings.Join(m.logLines, "\n")))
		b.WriteString("\n")
	}

	if m.report != nil {
		style := okStyle
		if m.report.Final != bootloader.StateHandoff || m.report.UpdateErr != nil {
			style = errStyle
		}
		b.WriteString(style.Render("Finished: " + m.report.Final.String()))
		b.WriteString("\n")
	} else {
		b.WriteString(labelStyle.Render("Press q to quit"))
		b.WriteString("\n")
	}
	return b.String()
}

// teaWriter forwards console lines to the live view.
type teaWriter struct {
	p *tea.Program
}

func (w *teaWriter) Write(p []byte) (int, error) {
	for _, line := range strings.Split(strings.TrimRight(string(p), "\n"), "\n") {
		w.p.Send(logLineMsg(line))
	}
	return len(p), nil
}

func (w *teaWriter) Close() error {
	return nil
}
