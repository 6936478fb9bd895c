package acquire

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/filepicker"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var imageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".bmp", ".tif", ".tiff"}

// Picker lets the user browse for images in the terminal. Quitting the
// picker without choosing a file yields ErrNoFileSelected.
type Picker struct {
	dir    string
	input  io.Reader
	output io.Writer
}

func NewPicker(dir string) *Picker {
	if dir == "" {
		dir = "."
	}
	return &Picker{dir: dir, input: os.Stdin, output: os.Stderr}
}

func (p *Picker) Acquire(ctx context.Context) (Upload, error) {
	paths, err := p.run(ctx, false)
	if err != nil {
		return Upload{}, err
	}
	return FromFile(paths[0])
}

// AcquireMultiple keeps the picker open after each selection until the
// user quits, then reads every chosen file.
func (p *Picker) AcquireMultiple(ctx context.Context) ([]Upload, error) {
	paths, err := p.run(ctx, true)
	if err != nil {
		return nil, err
	}
	return NewPaths(paths...).AcquireMultiple(ctx)
}

func (p *Picker) run(ctx context.Context, multiple bool) ([]string, error) {
	fp := filepicker.New()
	fp.CurrentDirectory = p.dir
	fp.AllowedTypes = imageExtensions
	fp.AutoHeight = true

	program := tea.NewProgram(
		pickerModel{picker: fp, multiple: multiple},
		tea.WithContext(ctx),
		tea.WithInput(p.input),
		tea.WithOutput(p.output),
	)
	final, err := program.Run()
	if err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("file picker: %w", err)
	}

	m, ok := final.(pickerModel)
	if !ok || len(m.selected) == 0 {
		return nil, ErrNoFileSelected
	}
	return m.selected, nil
}

type pickerModel struct {
	picker   filepicker.Model
	multiple bool
	selected []string
}

func (m pickerModel) Init() tea.Cmd {
	return m.picker.Init()
}

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)

	if didSelect, path := m.picker.DidSelectFile(msg); didSelect {
		m.selected = append(m.selected, path)
		if !m.multiple {
			return m, tea.Quit
		}
	}
	return m, cmd
}

func (m pickerModel) View() string {
	hint := "enter: select  q/esc: cancel"
	if m.multiple {
		hint = fmt.Sprintf("enter: add (%d selected)  q/esc: done", len(m.selected))
	}
	lines := []string{
		pickerTitleStyle.Render("Pick an image"),
		m.picker.View(),
		pickerHintStyle.Render(hint),
	}
	return strings.Join(lines, "\n")
}

var (
	pickerTitleStyle = lipgloss.NewStyle().Bold(true)
	pickerHintStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)
