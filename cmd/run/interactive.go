package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/js-bridge/bridge"
	"github.com/wippyai/js-bridge/engine"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	outputStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type interactiveModel struct {
	err      error
	filename string
	cfg      fileConfig

	inputs   []textinput.Model
	focusIdx int
	state    modelState

	exitCode int
	stdout   string
	stderr   string
	elapsed  time.Duration
}

type modelState int

const (
	stateConfigure modelState = iota
	stateRunning
	stateDone
)

const (
	inputArgs = iota
	inputEnv
)

func newInteractiveModel(filename string, cfg fileConfig) *interactiveModel {
	args := textinput.New()
	args.Prompt = "argv: "
	args.Placeholder = "comma-separated guest arguments"
	args.Width = 50
	args.SetValue(strings.Join(cfg.Args, ","))
	args.Focus()

	env := textinput.New()
	env.Prompt = "env:  "
	env.Placeholder = "KEY=VAL,KEY2=VAL2"
	env.Width = 50
	env.SetValue(formatEnv(cfg.Env))

	return &interactiveModel{
		filename: filename,
		cfg:      cfg,
		inputs:   []textinput.Model{args, env},
	}
}

type doneMsg struct {
	err      error
	exitCode int
	stdout   string
	stderr   string
	elapsed  time.Duration
}

func (m *interactiveModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *interactiveModel) runSession() tea.Msg {
	ctx := context.Background()
	started := time.Now()

	data, err := os.ReadFile(m.filename)
	if err != nil {
		return doneMsg{err: err}
	}

	eng, err := engine.NewWithConfig(ctx, &engine.Config{MemoryLimitPages: m.cfg.MemoryLimitPages})
	if err != nil {
		return doneMsg{err: err}
	}
	defer eng.Close(ctx)

	var stdout, stderr bytes.Buffer
	sess := bridge.NewSession(bridge.Config{
		Args:   guestArgs(m.filename, m.cfg.Args),
		Env:    m.cfg.Env,
		Stdout: &stdout,
		Stderr: &stderr,
	})
	if _, err := eng.Instantiate(ctx, data, sess); err != nil {
		return doneMsg{err: err}
	}

	code, err := sess.Run(ctx)
	return doneMsg{
		err:      err,
		exitCode: code,
		stdout:   stdout.String(),
		stderr:   stderr.String(),
		elapsed:  time.Since(started),
	}
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "q":
			if m.state != stateConfigure {
				return m, tea.Quit
			}

		case "tab":
			if m.state == stateConfigure {
				m.inputs[m.focusIdx].Blur()
				m.focusIdx = (m.focusIdx + 1) % len(m.inputs)
				m.inputs[m.focusIdx].Focus()
			}

		case "enter":
			switch m.state {
			case stateConfigure:
				m.cfg.Args = splitArgs(m.inputs[inputArgs].Value())
				m.cfg.Env = parseEnv(m.inputs[inputEnv].Value())
				m.state = stateRunning
				return m, m.runSession

			case stateDone:
				m.state = stateConfigure
				m.err = nil
				m.stdout = ""
				m.stderr = ""
			}

		case "esc":
			if m.state == stateDone {
				m.state = stateConfigure
				m.err = nil
			}
		}

	case doneMsg:
		m.err = msg.err
		m.exitCode = msg.exitCode
		m.stdout = msg.stdout
		m.stderr = msg.stderr
		m.elapsed = msg.elapsed
		m.state = stateDone
	}

	if m.state == stateConfigure {
		var cmds []tea.Cmd
		for i := range m.inputs {
			var cmd tea.Cmd
			m.inputs[i], cmd = m.inputs[i].Update(msg)
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)
	}

	return m, nil
}

func (m *interactiveModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("JS Bridge Runner"))
	b.WriteString(" ")
	b.WriteString(m.filename)
	b.WriteString("\n\n")

	switch m.state {
	case stateConfigure:
		b.WriteString("Configure the session:\n\n")
		for _, input := range m.inputs {
			b.WriteString(input.View())
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("tab next field • enter run • ctrl+c quit"))

	case stateRunning:
		b.WriteString("Running...\n")

	case stateDone:
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Session failed: %v", m.err)))
		} else {
			b.WriteString(okStyle.Render(fmt.Sprintf("Exit code %d", m.exitCode)))
			b.WriteString(helpStyle.Render(fmt.Sprintf("  (%s)", m.elapsed.Round(time.Millisecond))))
		}
		b.WriteString("\n")
		if m.stdout != "" {
			b.WriteString("\n")
			b.WriteString(labelStyle.Render("stdout"))
			b.WriteString("\n")
			b.WriteString(outputStyle.Render(m.stdout))
		}
		if m.stderr != "" {
			b.WriteString("\n")
			b.WriteString(labelStyle.Render("stderr"))
			b.WriteString("\n")
			b.WriteString(errorStyle.Render(m.stderr))
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("enter run again • q quit"))
	}

	return b.String()
}

func formatEnv(env map[string]string) string {
	if len(env) == 0 {
		return ""
	}
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, len(keys))
	for i, k := range keys {
		pairs[i] = k + "=" + env[k]
	}
	return strings.Join(pairs, ",")
}

func splitArgs(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

func runInteractive(filename string, cfg fileConfig) error {
	p := tea.NewProgram(newInteractiveModel(filename, cfg), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
