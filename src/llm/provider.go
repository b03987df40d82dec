package llm

import (
	"context"
	"fmt"
	"strings"

	"tracking_ivr/src/model"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino-ext/components/model/deepseek"
	"github.com/cloudwego/eino-ext/components/model/ollama"
	"github.com/cloudwego/eino-ext/components/model/openai"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/ollama/ollama/api"
)

// ProviderNone disables AI extraction; the pattern fallback still runs
const ProviderNone = "none"

// NewChatModel builds the chat model named by config.Provider. It returns a
// nil model and no error for ProviderNone.
func NewChatModel(ctx context.Context, config model.LLMConfig) (einomodel.BaseChatModel, error) {
	maxTokens := config.MaxTokens
	temperature := float32(config.Temperature)

	switch strings.ToLower(config.Provider) {
	case "", "openai":
		chatModel, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
			APIKey:      config.APIKey,
			BaseURL:     config.BaseURL,
			Model:       config.Model,
			MaxTokens:   &maxTokens,
			Temperature: &temperature,
			Timeout:     config.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("error creating openai chat model: %v", err)
		}
		return chatModel, nil

	case "deepseek":
		chatModel, err := deepseek.NewChatModel(ctx, &deepseek.ChatModelConfig{
			APIKey:      config.APIKey,
			BaseURL:     config.BaseURL,
			Model:       config.Model,
			MaxTokens:   maxTokens,
			Temperature: temperature,
			Timeout:     config.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("error creating deepseek chat model: %v", err)
		}
		return chatModel, nil

	case "ollama":
		chatModel, err := ollama.NewChatModel(ctx, &ollama.ChatModelConfig{
			BaseURL: config.BaseURL,
			Model:   config.Model,
			Timeout: config.Timeout,
			Options: &api.Options{
				Temperature: temperature,
				NumPredict:  maxTokens,
			},
		})
		if err != nil {
			return nil, fmt.Errorf("error creating ollama chat model: %v", err)
		}
		return chatModel, nil

	case "ark":
		timeout := config.Timeout
		chatModel, err := ark.NewChatModel(ctx, &ark.ChatModelConfig{
			APIKey:      config.APIKey,
			BaseURL:     config.BaseURL,
			Model:       config.Model,
			MaxTokens:   &maxTokens,
			Temperature: &temperature,
			Timeout:     &timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("error creating ark chat model: %v", err)
		}
		return chatModel, nil

	case ProviderNone:
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown LLM_PROVIDER %q", config.Provider)
	}
}
