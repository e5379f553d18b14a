package app

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tdissana/concrete-compressive-strength-predictor/internal/api"
	"github.com/tdissana/concrete-compressive-strength-predictor/internal/registry"
)

const defaultRequestTimeout = 120 * time.Second

// modelChoices lists the selectable prediction algorithms. The backend
// currently implements KNN only.
var modelChoices = []string{"KNN"}

const genericFailureText = "No response from the backend. Please try again later."

// requestPhase is the single-slot request state machine. Exactly one request
// may be in flight, so one phase value covers both operations.
type requestPhase int

const (
	phaseIdle requestPhase = iota
	phaseWaiting
	phaseSucceeded
	phaseFailed
)

type requestKind int

const (
	requestNone requestKind = iota
	requestPredict
	requestMetrics
)

func (k requestKind) String() string {
	switch k {
	case requestPredict:
		return "predict"
	case requestMetrics:
		return "model-metrics"
	default:
		return "none"
	}
}

type predictSettledMsg struct {
	requestID int64
	value     float64
	err       error
}

type metricsSettledMsg struct {
	requestID int64
	metrics   *api.Metrics
	err       error
}

type healthCheckedMsg struct {
	err error
}

type mixFileLoadedMsg struct {
	path   string
	values map[string]string
	err    error
}

type Options struct {
	Timeout time.Duration
}

type Model struct {
	client  *api.Client
	timeout time.Duration

	ready  bool
	width  int
	height int

	fields   []registry.Field
	inputs   []textinput.Model
	focusIdx int // 0..len(inputs)-1 are mix fields, len(inputs) is the model selector
	modelIdx int

	phase     requestPhase
	inflight  requestKind
	requestID int64

	prediction  *float64
	metrics     *api.Metrics
	failureText string // message from the backend; empty means generic fallback
	showError   bool

	statusText string
	spinner    spinner.Model

	logEntries []string
	sessionLog viewport.Model

	showMixPrompt       bool
	mixPathInput        textinput.Model
	mixPathChoices      []string
	mixPathChoiceCursor int
	lastMixPath         string

	showHelp bool

	formW   int
	formH   int
	resultW int
	resultH int
	logW    int
	logH    int
}

func NewModel(client *api.Client, opts Options) Model {
	fields := registry.Fields()
	inputs := make([]textinput.Model, len(fields))
	for idx, field := range fields {
		in := textinput.New()
		in.Prompt = ""
		in.Placeholder = field.Placeholder
		in.CharLimit = 16
		in.Width = 14
		in.Validate = numericValidator(field.Integer)
		inputs[idx] = in
	}
	inputs[0].Focus()

	spin := spinner.New()
	spin.Spinner = spinner.MiniDot
	spin.Style = lipgloss.NewStyle().Foreground(accentSecondary)

	sessionLog := viewport.New(46, 12)
	sessionLog.SetContent("No requests yet.")

	pathInput := textinput.New()
	pathInput.Prompt = "> "
	pathInput.Placeholder = "./mix.json"
	pathInput.CharLimit = 2048
	pathInput.Width = 46

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	return Model{
		client:       client,
		timeout:      timeout,
		fields:       fields,
		inputs:       inputs,
		spinner:      spin,
		sessionLog:   sessionLog,
		mixPathInput: pathInput,
		showHelp:     true,
		statusText:   "Checking backend...",
		formW:        52,
		formH:        14,
		resultW:      50,
		resultH:      9,
		logW:         50,
		logH:         10,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		checkHealthCmd(m.client),
		textinput.Blink,
	)
}

func checkHealthCmd(client *api.Client) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 8*time.Second)
		defer cancel()
		return healthCheckedMsg{err: client.Health(ctx)}
	}
}

func predictCmd(client *api.Client, req api.PredictRequest, timeout time.Duration, requestID int64) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		value, err := client.Predict(ctx, req)
		return predictSettledMsg{requestID: requestID, value: value, err: err}
	}
}

func fetchMetricsCmd(client *api.Client, model string, timeout time.Duration, requestID int64) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		metrics, err := client.ModelMetrics(ctx, model)
		return metricsSettledMsg{requestID: requestID, metrics: metrics, err: err}
	}
}

func loadMixFileCmd(path string) tea.Cmd {
	requestedPath := strings.TrimSpace(path)
	return func() tea.Msg {
		values, resolvedPath, err := LoadMixFile(requestedPath)
		if err != nil {
			return mixFileLoadedMsg{path: requestedPath, err: err}
		}
		return mixFileLoadedMsg{path: resolvedPath, values: values}
	}
}

// selectedModel returns the current model identifier.
func (m Model) selectedModel() string {
	return modelChoices[m.modelIdx]
}

// snapshot serializes the current form state: all eight mix fields as typed,
// plus the model selection.
func (m Model) snapshot() api.PredictRequest {
	values := make(map[string]string, len(m.inputs))
	for idx, field := range m.fields {
		values[field.Key] = strings.TrimSpace(m.inputs[idx].Value())
	}
	return api.PredictRequest{
		Cement:           values["cement"],
		Slag:             values["slag"],
		FlyAsh:           values["flyash"],
		Water:            values["water"],
		Superplasticizer: values["superplasticizer"],
		CoarseAgg:        values["coarseagg"],
		FineAgg:          values["fineagg"],
		Age:              values["age"],
		Model:            m.selectedModel(),
	}
}

// setField overwrites the value for one mix field.
func (m *Model) setField(key, value string) {
	for idx, field := range m.fields {
		if field.Key == key {
			m.inputs[idx].SetValue(value)
			m.inputs[idx].CursorEnd()
			return
		}
	}
}

// setModel overwrites the model selection when id is a known choice.
func (m *Model) setModel(id string) {
	for idx, choice := range modelChoices {
		if choice == id {
			m.modelIdx = idx
			return
		}
	}
}

func (m *Model) cycleModel(step int) {
	m.modelIdx = (m.modelIdx + step + len(modelChoices)) % len(modelChoices)
}

// submitPrediction runs the predict protocol: guard, waiting transition,
// dispatch with the configured timeout.
func (m *Model) submitPrediction() tea.Cmd {
	if m.phase == phaseWaiting {
		m.statusText = "A request is already in flight."
		return nil
	}
	for idx, field := range m.fields {
		if strings.TrimSpace(m.inputs[idx].Value()) == "" {
			m.statusText = field.Label + " is required."
			return nil
		}
	}

	m.phase = phaseWaiting
	m.inflight = requestPredict
	m.requestID++
	m.failureText = ""
	m.showError = false
	m.statusText = "Predicting strength..."
	m.appendLog(fmt.Sprintf("predict | dispatched (model=%s)", m.selectedModel()))
	return tea.Batch(
		m.spinner.Tick,
		predictCmd(m.client, m.snapshot(), m.timeout, m.requestID),
	)
}

// fetchMetrics runs the same protocol against the metrics endpoint.
func (m *Model) fetchMetrics() tea.Cmd {
	if m.phase == phaseWaiting {
		m.statusText = "A request is already in flight."
		return nil
	}

	m.phase = phaseWaiting
	m.inflight = requestMetrics
	m.requestID++
	m.failureText = ""
	m.showError = false
	m.statusText = "Fetching model accuracy..."
	m.appendLog(fmt.Sprintf("model-metrics | dispatched (model=%s)", m.selectedModel()))
	return tea.Batch(
		m.spinner.Tick,
		fetchMetricsCmd(m.client, m.selectedModel(), m.timeout, m.requestID),
	)
}

// settleFailure records a failed settlement. The three failure kinds collapse
// to the same failed state; the message survives when the backend supplied
// one. An application error during prediction also clears the shown result.
func (m *Model) settleFailure(err error, kind requestKind) {
	m.phase = phaseFailed
	m.showError = true

	var apiErr *api.APIError
	var srvErr *api.ServerError
	switch {
	case errors.As(err, &apiErr):
		m.failureText = apiErr.Message
		if kind == requestPredict {
			m.prediction = nil
		}
	case errors.As(err, &srvErr):
		m.failureText = srvErr.Error()
	default:
		m.failureText = ""
	}

	reason := m.failureText
	if reason == "" {
		reason = "no response"
	}
	m.appendLog(fmt.Sprintf("%s | failed: %s", kind, reason))
	m.statusText = "Request failed."
}

func (m *Model) dismissError() {
	m.showError = false
	m.failureText = ""
	m.phase = phaseIdle
	m.statusText = "Ready."
}

func (m *Model) dismissMetrics() {
	m.metrics = nil
	m.phase = phaseIdle
	m.statusText = "Ready."
}

func (m *Model) appendLog(line string) {
	entry := time.Now().Format("15:04:05") + " | " + line
	m.logEntries = append(m.logEntries, entry)
	if len(m.logEntries) > 200 {
		m.logEntries = m.logEntries[len(m.logEntries)-200:]
	}
	m.sessionLog.SetContent(strings.Join(m.logEntries, "\n"))
	m.sessionLog.GotoBottom()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.resizePanels()
		return m, nil

	case spinner.TickMsg:
		if m.phase != phaseWaiting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case healthCheckedMsg:
		if msg.err != nil {
			m.statusText = "Backend not reachable yet (it may be cold-starting): " + msg.err.Error()
			m.appendLog("health | " + msg.err.Error())
			return m, nil
		}
		m.statusText = "Backend reachable. Fill the mix and press ctrl+r to predict."
		m.appendLog("health | backend reachable")
		return m, nil

	case predictSettledMsg:
		if msg.requestID != m.requestID || m.inflight != requestPredict {
			// Settlement from an aborted or superseded request.
			return m, nil
		}
		m.inflight = requestNone
		if msg.err != nil {
			m.settleFailure(msg.err, requestPredict)
			return m, nil
		}
		rounded := round2(msg.value)
		m.prediction = &rounded
		m.phase = phaseSucceeded
		m.statusText = fmt.Sprintf("Predicted strength: %.2f MPa", rounded)
		m.appendLog(fmt.Sprintf("predict | succeeded: %.2f MPa", rounded))
		return m, nil

	case metricsSettledMsg:
		if msg.requestID != m.requestID || m.inflight != requestMetrics {
			return m, nil
		}
		m.inflight = requestNone
		if msg.err != nil {
			m.settleFailure(msg.err, requestMetrics)
			return m, nil
		}
		roundedMetrics := roundMetrics(*msg.metrics)
		m.metrics = &roundedMetrics
		m.phase = phaseSucceeded
		m.statusText = "Model accuracy loaded."
		m.appendLog("model-metrics | succeeded")
		return m, nil

	case mixFileLoadedMsg:
		m.showMixPrompt = false
		m.mixPathInput.Blur()
		m.applyFocusState()
		if msg.err != nil {
			m.statusText = "Mix file load failed: " + msg.err.Error()
			return m, tea.ClearScreen
		}
		applied := 0
		for _, field := range m.fields {
			if value, ok := msg.values[field.Key]; ok {
				m.setField(field.Key, value)
				applied++
			}
		}
		m.lastMixPath = msg.path
		m.statusText = fmt.Sprintf("Loaded %d field(s) from %s", applied, msg.path)
		m.appendLog(fmt.Sprintf("mix-file | loaded %d field(s)", applied))
		return m, tea.ClearScreen

	case tea.KeyMsg:
		return m.updateKeys(msg)
	}

	return m, nil
}

func (m Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showError {
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "enter", "esc":
			m.dismissError()
			return m, nil
		}
		return m, nil
	}

	if m.metrics != nil {
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "enter", "esc":
			m.dismissMetrics()
			return m, nil
		}
		return m, nil
	}

	if m.showMixPrompt {
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "up":
			m.setMixPathChoiceCursor(m.mixPathChoiceCursor - 1)
			return m, nil
		case "down":
			m.setMixPathChoiceCursor(m.mixPathChoiceCursor + 1)
			return m, nil
		case "esc":
			m.showMixPrompt = false
			m.mixPathInput.Blur()
			m.applyFocusState()
			m.statusText = "Mix file load cancelled."
			return m, tea.ClearScreen
		case "enter":
			path := strings.TrimSpace(m.mixPathInput.Value())
			if path == "" && len(m.mixPathChoices) > 0 {
				path = m.mixPathChoices[m.mixPathChoiceCursor]
			}
			m.showMixPrompt = false
			m.mixPathInput.Blur()
			m.applyFocusState()
			if path == "" {
				m.statusText = "Mix file path is required."
				return m, tea.ClearScreen
			}
			m.lastMixPath = path
			m.statusText = "Loading mix file..."
			return m, loadMixFileCmd(path)
		}
		var cmd tea.Cmd
		m.mixPathInput, cmd = m.mixPathInput.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "?":
		m.showHelp = !m.showHelp
		return m, nil
	case "tab", "down":
		m.moveFocus(1)
		return m, nil
	case "shift+tab", "backtab", "up":
		m.moveFocus(-1)
		return m, nil
	case "left":
		if m.focusIdx == len(m.inputs) {
			m.cycleModel(-1)
			return m, nil
		}
	case "right":
		if m.focusIdx == len(m.inputs) {
			m.cycleModel(1)
			return m, nil
		}
	case "enter", "ctrl+r":
		return m, m.submitPrediction()
	case "ctrl+g":
		return m, m.fetchMetrics()
	case "ctrl+o":
		m.showMixPrompt = true
		m.mixPathInput.SetValue(m.lastMixPath)
		m.mixPathInput.CursorEnd()
		m.mixPathInput.Focus()
		if err := m.refreshMixPathChoices(); err != nil {
			m.statusText = "Could not list .json files: " + err.Error()
		} else {
			m.statusText = "Choose a JSON file with up/down or type a path, then press Enter."
		}
		m.applyFocusState()
		return m, nil
	case "ctrl+l":
		m.logEntries = nil
		m.sessionLog.SetContent("No requests yet.")
		m.statusText = "Session log cleared."
		return m, nil
	}

	if m.focusIdx < len(m.inputs) {
		var cmd tea.Cmd
		m.inputs[m.focusIdx], cmd = m.inputs[m.focusIdx].Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) moveFocus(step int) {
	rows := len(m.inputs) + 1 // mix fields plus the model selector
	m.focusIdx = (m.focusIdx + step + rows) % rows
	m.applyFocusState()
}

func (m *Model) applyFocusState() {
	if m.showMixPrompt {
		for idx := range m.inputs {
			m.inputs[idx].Blur()
		}
		m.mixPathInput.Focus()
		return
	}
	m.mixPathInput.Blur()
	for idx := range m.inputs {
		if idx == m.focusIdx {
			m.inputs[idx].Focus()
		} else {
			m.inputs[idx].Blur()
		}
	}
}

func (m *Model) setMixPathChoiceCursor(cursor int) {
	if len(m.mixPathChoices) == 0 {
		m.mixPathChoiceCursor = 0
		return
	}
	m.mixPathChoiceCursor = clampInt(cursor, 0, len(m.mixPathChoices)-1)
	m.mixPathInput.SetValue(m.mixPathChoices[m.mixPathChoiceCursor])
	m.mixPathInput.CursorEnd()
}

func (m *Model) refreshMixPathChoices() error {
	choices, err := listJSONFilesInDir(".")
	if err != nil {
		m.mixPathChoices = nil
		m.mixPathChoiceCursor = 0
		return err
	}
	m.mixPathChoices = choices
	m.mixPathChoiceCursor = 0
	return nil
}

// round2 rounds half away from zero to two decimals, the display precision
// for predictions and metrics.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func roundMetrics(metrics api.Metrics) api.Metrics {
	metrics.MAE = round2(metrics.MAE)
	metrics.RMSE = round2(metrics.RMSE)
	metrics.R2 = round2(metrics.R2)
	metrics.Correlation = round2(metrics.Correlation)
	return metrics
}
