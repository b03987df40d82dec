package conversation

import (
	"strings"

	"github.com/cloudwego/eino/schema"
)

type ContextStrategy interface {
	BuildContext(messages []*schema.Message) string
	GetMaxTurns() int
}

// ExtractionContextStrategy keeps the last few turns of a quotation thread
type ExtractionContextStrategy struct {
	maxTurns int
}

func NewExtractionContextStrategy(maxTurns int) *ExtractionContextStrategy {
	if maxTurns <= 0 {
		maxTurns = 6
	}
	return &ExtractionContextStrategy{maxTurns: maxTurns}
}

func (s *ExtractionContextStrategy) GetMaxTurns() int {
	return s.maxTurns
}

func (s *ExtractionContextStrategy) BuildContext(messages []*schema.Message) string {
	recentMessages := trimTail(messages, s.maxTurns)
	if len(recentMessages) == 0 {
		return ""
	}

	var contextBuilder strings.Builder
	contextBuilder.WriteString("<conversation_context>\n")

	for _, msg := range recentMessages {
		switch msg.Role {
		case schema.User:
			contextBuilder.WriteString("Caller(" + msg.Content + ")\n")
		case schema.Assistant:
			contextBuilder.WriteString("Extracted(" + msg.Content + ")\n")
		}
	}

	contextBuilder.WriteString("</conversation_context>")
	return contextBuilder.String()
}

func trimTail(messages []*schema.Message, maxTurns int) []*schema.Message {
	if len(messages) <= maxTurns {
		return messages
	}
	return messages[len(messages)-maxTurns:]
}
