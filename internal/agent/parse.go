package agent

import (
	"encoding/json"
	"strings"
)

type modelReply struct {
	Steps       []string `json:"steps"`
	FinalAnswer string   `json:"final_answer"`
}

// ParseResponse extracts steps and the final answer from the model's text.
// Replies that are not the requested JSON become a single answer with no steps.
func ParseResponse(raw string) *Response {
	clean := cleanModelJSON(raw)

	var reply modelReply
	if err := json.Unmarshal([]byte(clean), &reply); err == nil && reply.FinalAnswer != "" {
		return &Response{
			Steps:  reply.Steps,
			Answer: reply.FinalAnswer,
		}
	}

	return &Response{Answer: strings.TrimSpace(raw)}
}

// cleanModelJSON removes markdown fences and anything outside the outermost
// JSON object.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		}
		if idx := strings.LastIndex(s, "```"); idx != -1 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}

	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end > start {
			s = s[start : end+1]
		}
	}

	return s
}
