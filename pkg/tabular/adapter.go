// Package tabular analyzes CSV data through the text model, optionally
// fetching the data from a remote URL first.
package tabular

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/TuanHung1810/ChatBox-AI/pkg/llm"
	"github.com/TuanHung1810/ChatBox-AI/pkg/session"
)

// DefaultPrompt is used when the caller asks nothing specific.
const DefaultPrompt = "Please overview this CSV data and respond in the same language as the previous conversation:"

const (
	// historyWindow caps how many prior turns accompany a CSV request.
	historyWindow = 4
	// sampleRows is how many data rows are rendered into the prompt.
	sampleRows = 3
)

// Table is a parsed CSV document: the header row plus data rows.
type Table struct {
	Columns []string
	Rows    [][]string
}

// Parse reads CSV bytes into a Table. The first record is the header.
func Parse(data []byte) (*Table, error) {
	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("parse csv: empty input")
	}
	return &Table{Columns: records[0], Rows: records[1:]}, nil
}

// Sample renders the header and the first n data rows as a plain text
// block.
func (t *Table) Sample(n int) string {
	if n > len(t.Rows) {
		n = len(t.Rows)
	}
	lines := make([]string, 0, n+1)
	lines = append(lines, strings.Join(t.Columns, " | "))
	for _, row := range t.Rows[:n] {
		lines = append(lines, strings.Join(row, " | "))
	}
	return strings.Join(lines, "\n")
}

// Adapter builds CSV analysis prompts and delegates generation to the
// gateway. Like the vision adapter it never writes history.
type Adapter struct {
	gateway llm.Completer
}

// New creates a tabular adapter.
func New(gateway llm.Completer) *Adapter {
	return &Adapter{gateway: gateway}
}

// Analyze parses the CSV data, builds the analysis prompt with the
// trailing turns of history, and asks the text model.
func (a *Adapter) Analyze(ctx context.Context, history []session.Turn, data []byte, question string) (string, error) {
	table, err := Parse(data)
	if err != nil {
		return "", err
	}

	reply, err := a.gateway.Complete(ctx, llm.Request{
		Mode:     llm.ModeText,
		Messages: buildMessages(history, BuildPrompt(table, question)),
	})
	if err != nil {
		return "", fmt.Errorf("table completion: %w", err)
	}
	return reply, nil
}

// BuildPrompt renders the question (or the default overview prompt)
// followed by the dataset metadata block and a sample of the rows.
func BuildPrompt(table *Table, question string) string {
	var b strings.Builder

	if q := strings.TrimSpace(question); q != "" {
		b.WriteString(q)
	} else {
		b.WriteString(DefaultPrompt)
	}
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "Dataset: %d rows, %d columns\n", len(table.Rows), len(table.Columns))
	fmt.Fprintf(&b, "Columns: %s\n", strings.Join(table.Columns, ", "))
	b.WriteString("Sample data:\n")
	b.WriteString(table.Sample(sampleRows))

	return b.String()
}

func buildMessages(history []session.Turn, prompt string) []llm.Message {
	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}

	msgs := make([]llm.Message, 0, len(history)+1)
	for _, turn := range history {
		msgs = append(msgs, llm.Message{Role: turn.Role, Content: turn.Content})
	}
	return append(msgs, llm.Message{Role: session.RoleUser, Content: prompt})
}
