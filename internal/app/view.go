package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	chromeBG        = lipgloss.Color("#070B0E")
	panelBorder     = lipgloss.Color("#3A5F71")
	accentPrimary   = lipgloss.Color("#6FD08C")
	accentSecondary = lipgloss.Color("#F2B441")
	mutedText       = lipgloss.Color("#8FA3AD")
	warningText     = lipgloss.Color("#FF6B6B")
)

var (
	headerStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Bold(true).
			Foreground(accentPrimary)

	statusStyle = lipgloss.NewStyle().
			Foreground(accentSecondary).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(warningText).
			Bold(true)

	panelTitleStyle = lipgloss.NewStyle().
			Foreground(accentPrimary).
			Bold(true)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(panelBorder).
			Padding(0, 1)

	helpStyle = lipgloss.NewStyle().
			Foreground(mutedText)

	focusedRowStyle = lipgloss.NewStyle().
			Foreground(accentPrimary).
			Bold(true)

	unitStyle = lipgloss.NewStyle().
			Foreground(mutedText)

	resultValueStyle = lipgloss.NewStyle().
				Foreground(accentSecondary).
				Bold(true)
)

func (m Model) View() string {
	if !m.ready {
		return "Booting concrete-tui..."
	}

	innerWidth := maxInt(60, m.width-2)
	innerHeight := maxInt(16, m.height-2)

	header := headerStyle.Render("Concrete Strength Predictor")

	statusPrefix := "*"
	if m.phase == phaseWaiting {
		statusPrefix = m.spinner.View()
	}
	statusBody := strings.TrimSpace(m.statusText)
	if statusBody == "" {
		statusBody = "Ready"
	}
	statusLine := statusStyle.Render(statusPrefix + " " + statusBody)

	formPanel := renderPanel("Mix Design", m.renderForm(), m.formW, m.formH, true)
	rightColumn := lipgloss.JoinVertical(
		lipgloss.Left,
		renderPanel("Prediction", m.renderResult(), m.resultW, m.resultH, false),
		renderPanel("Session Log", m.sessionLog.View(), m.logW, m.logH, false),
	)
	mainRow := lipgloss.JoinHorizontal(lipgloss.Top, formPanel, rightColumn)

	parts := []string{header, statusLine}
	if overlay := m.renderOverlay(innerWidth); overlay != "" {
		parts = append(parts, overlay)
	}
	parts = append(parts, mainRow)
	if m.showHelp {
		parts = append(parts, helpStyle.Render("ctrl+r/enter predict | ctrl+g model accuracy | ctrl+o load mix file | tab/↑/↓ move | ←/→ model | ctrl+l clear log | ? help | q quit"))
	}

	body := strings.Join(parts, "\n")
	return lipgloss.NewStyle().
		Background(chromeBG).
		Foreground(lipgloss.Color("#E9F1EC")).
		Width(innerWidth).
		Height(innerHeight).
		Padding(0, 1).
		Render(body)
}

func (m Model) renderForm() string {
	labelWidth := 0
	for _, field := range m.fields {
		if len(field.Label) > labelWidth {
			labelWidth = len(field.Label)
		}
	}

	lines := make([]string, 0, len(m.inputs)+2)
	for idx, field := range m.fields {
		marker := "  "
		label := fmt.Sprintf("%-*s", labelWidth, field.Label)
		if idx == m.focusIdx {
			marker = "▶ "
			label = focusedRowStyle.Render(label)
		}
		lines = append(lines, marker+label+" "+m.inputs[idx].View()+" "+unitStyle.Render(field.Unit))
	}

	marker := "  "
	selectorLabel := fmt.Sprintf("%-*s", labelWidth, "Model")
	if m.focusIdx == len(m.inputs) {
		marker = "▶ "
		selectorLabel = focusedRowStyle.Render(selectorLabel)
	}
	lines = append(lines, "", marker+selectorLabel+" ◀ "+m.selectedModel()+" ▶")
	return strings.Join(lines, "\n")
}

func (m Model) renderResult() string {
	if m.prediction == nil {
		return "No prediction yet.\nFill the mix fields and press ctrl+r."
	}
	lines := []string{
		"Compressive strength:",
		"",
		resultValueStyle.Render(fmt.Sprintf("  %.2f MPa", *m.prediction)),
		"",
		unitStyle.Render("Model: " + m.selectedModel()),
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderOverlay(innerWidth int) string {
	overlayWidth := clampInt(innerWidth-8, 44, 80)

	if m.showError {
		message := strings.TrimSpace(m.failureText)
		if message == "" {
			message = genericFailureText
		}
		wrapped := wrapLineToWidth(message, overlayWidth-4)
		for idx := range wrapped {
			wrapped[idx] = errorStyle.Render(wrapped[idx])
		}
		body := strings.Join([]string{
			strings.Join(wrapped, "\n"),
			"",
			helpStyle.Render("enter/esc dismiss"),
		}, "\n")
		return renderPanel("Request Failed", body, overlayWidth, 0, true)
	}

	if m.metrics != nil {
		lines := []string{
			fmt.Sprintf("MAE          %.2f", m.metrics.MAE),
			fmt.Sprintf("RMSE         %.2f", m.metrics.RMSE),
			fmt.Sprintf("R²           %.2f", m.metrics.R2),
			fmt.Sprintf("Correlation  %.2f", m.metrics.Correlation),
		}
		if description := strings.TrimSpace(m.metrics.Description); description != "" {
			lines = append(lines, "")
			lines = append(lines, wrapLineToWidth(description, overlayWidth-4)...)
		}
		lines = append(lines, "", helpStyle.Render("enter/esc dismiss"))
		return renderPanel("Model Accuracy ("+m.selectedModel()+")", strings.Join(lines, "\n"), overlayWidth, 0, true)
	}

	if m.showMixPrompt {
		body := strings.Join([]string{
			"Path to local JSON mix file:",
			m.mixPathInput.View(),
			"",
			".json files in current directory:",
			m.renderMixPathChoices(),
			"",
			helpStyle.Render("up/down select | enter load | esc cancel"),
		}, "\n")
		return renderPanel("Load Mix File", body, overlayWidth, 0, true)
	}

	return ""
}

func (m Model) renderMixPathChoices() string {
	if len(m.mixPathChoices) == 0 {
		return helpStyle.Render("No .json files in current directory.")
	}

	const visibleRows = 6
	start := 0
	if m.mixPathChoiceCursor >= visibleRows {
		start = m.mixPathChoiceCursor - visibleRows + 1
	}
	end := minInt(len(m.mixPathChoices), start+visibleRows)

	lines := make([]string, 0, (end-start)+1)
	for idx := start; idx < end; idx++ {
		if idx == m.mixPathChoiceCursor {
			lines = append(lines, focusedRowStyle.Render("▶ "+m.mixPathChoices[idx]))
		} else {
			lines = append(lines, "  "+m.mixPathChoices[idx])
		}
	}
	lines = append(lines, helpStyle.Render(fmt.Sprintf("Showing %d-%d of %d", start+1, end, len(m.mixPathChoices))))
	return strings.Join(lines, "\n")
}

func renderPanel(title, body string, width, height int, focused bool) string {
	borderColor := panelBorder
	if focused {
		borderColor = accentSecondary
	}
	style := panelStyle.
		BorderForeground(borderColor).
		Width(width)
	if height > 0 {
		style = style.Height(height)
	}

	titleLine := panelTitleStyle.Render(title)
	return style.Render(titleLine + "\n" + body)
}

func (m *Model) resizePanels() {
	if m.width <= 0 || m.height <= 0 {
		return
	}

	usableW := maxInt(60, m.width-8)
	formW := clampInt(int(float64(usableW)*0.52), 46, usableW-34)
	rightW := usableW - formW

	m.formW = formW
	m.formH = len(m.inputs) + 3

	m.resultW = rightW
	m.resultH = 6

	logInnerW := maxInt(20, rightW-4)
	logInnerH := clampInt(m.height-m.resultH-12, 4, 20)
	m.sessionLog.Width = logInnerW
	m.sessionLog.Height = logInnerH
	m.logW = rightW
	m.logH = logInnerH + 1

	m.mixPathInput.Width = clampInt(usableW-28, 24, 70)
}

func wrapLineToWidth(line string, width int) []string {
	width = maxInt(1, width)
	runes := []rune(line)
	if len(runes) == 0 {
		return []string{""}
	}
	if len(runes) <= width {
		return []string{line}
	}
	segments := make([]string, 0, (len(runes)/width)+1)
	start := 0
	for start < len(runes) {
		end := start + width
		if end > len(runes) {
			end = len(runes)
		}
		segments = append(segments, string(runes[start:end]))
		start = end
	}
	return segments
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func clampInt(v, low, high int) int {
	if v < low {
		return low
	}
	if v > high {
		return high
	}
	return v
}
