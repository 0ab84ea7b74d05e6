package agent

import (
	"fmt"
	"strings"

	"bitableqa/internal/record"
)

const promptPrefix = `First look at all the columns of the table below,
note the column names, then answer the question.
`

const promptSuffix = `
- **ALWAYS** before giving the Final Answer, try another method.
Then reflect on the answers of the two methods you did and ask yourself
if it answers correctly the original question.
If you are not sure, try another method.
- If the methods tried do not give the same result, reflect and
try again until you have two methods that have the same result.
- If you still cannot arrive to a consistent result, say that
you are not sure of the answer.
- If you are sure of the correct answer, create a beautiful
and thorough response using Markdown.
- **DO NOT MAKE UP AN ANSWER OR USE PRIOR KNOWLEDGE,
ONLY USE THE RESULTS OF THE CALCULATIONS YOU HAVE DONE**.
- output with Chinese.
`

const responseFormat = `
Reply with valid JSON only, no code fences, in exactly this shape:
{"steps": ["<one reasoning step per entry>", "..."], "final_answer": "<markdown answer>"}
`

// SystemPrompt describes the table the agent works on: its columns, a short
// summary, and every row as CSV.
func SystemPrompt(table *record.Table) (string, error) {
	var b strings.Builder

	b.WriteString("You are a data analyst answering questions about a single table of expense records.\n")
	b.WriteString("Columns: " + strings.Join(table.Columns(), ", ") + "\n")

	s := table.Summary()
	fmt.Fprintf(&b, "Rows: %d\n", s.Rows)
	if s.From != nil && s.To != nil {
		fmt.Fprintf(&b, "Date range: %s to %s\n", s.From.Format(record.DateLayout), s.To.Format(record.DateLayout))
	}
	if len(s.Categories) > 0 {
		b.WriteString("Categories: " + strings.Join(s.Categories, ", ") + "\n")
	}
	b.WriteString("Empty cells are missing values.\n\nTABLE (CSV):\n")

	if err := table.WriteCSV(&b); err != nil {
		return "", fmt.Errorf("failed to render table: %w", err)
	}

	return b.String(), nil
}

// UserPrompt wraps a question in the analysis instructions.
func UserPrompt(question string) string {
	return promptPrefix + question + promptSuffix + responseFormat
}
