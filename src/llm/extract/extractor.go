package extract

import (
	"context"
	"fmt"
	"time"

	"tracking_ivr/src/model"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"
)

// Extractor turns a transcript into the structured field the stage needs
type Extractor interface {
	Extract(ctx context.Context, stage model.Stage, transcript, conversationContext string) (*model.QuotationFields, string, error)
}

// ChainExtractor runs an eino chain: extraction template → chat model
type ChainExtractor struct {
	chain   compose.Runnable[map[string]any, *schema.Message]
	timeout time.Duration
	log     zerolog.Logger
}

func NewChainExtractor(ctx context.Context, chatModel einomodel.BaseChatModel, timeout time.Duration, log zerolog.Logger) (*ChainExtractor, error) {
	chain, err := compose.NewChain[map[string]any, *schema.Message]().
		AppendChatTemplate(createExtractionTemplate()).
		AppendChatModel(chatModel).
		Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("error compiling extraction chain: %v", err)
	}
	return &ChainExtractor{chain: chain, timeout: timeout, log: log}, nil
}

// Extract returns the parsed fields and the raw model answer. The call is
// bounded by the configured timeout.
func (e *ChainExtractor) Extract(ctx context.Context, stage model.Stage, transcript, conversationContext string) (*model.QuotationFields, string, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	start := time.Now()
	msg, err := e.chain.Invoke(ctx, templateVariables(stage, transcript, conversationContext))
	if err != nil {
		return nil, "", fmt.Errorf("extract: invoke: %w", err)
	}

	e.log.Debug().
		Str("stage", string(stage)).
		Dur("elapsed", time.Since(start)).
		Str("output", msg.Content).
		Msg("extraction completed")

	fields, err := ParseFields(stage, msg.Content)
	if err != nil {
		return nil, msg.Content, err
	}
	return fields, msg.Content, nil
}
