// Package openai adapts the OpenAI chat completions API to the pipeline's
// comment generator boundary. Errors are returned, never panicked; the
// pipeline substitutes its fallback comment.
package openai

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/sirupsen/logrus"
)

const systemPromptTemplate = `You are a smart, lively person who comments on posts in a Telegram channel. Your job is to write short, vivid, human comments.

Channel name: %s
About the channel: %s

COMMENT RULES:
- Length: 2-6 words maximum
- Style: lively and emotional, like a real person
- Use emoji sometimes, not always: 😁⚡️🔥😂💪🎯🚀💡👍👏
- Show emotion and reaction
- Be concrete and on point
- Avoid formality and bot-speak

If the post carries several photos, react to the album as a whole.

Write a short lively comment for this post:`

// Generator produces candidate comments with the chat completions API.
type Generator struct {
	client openai.Client
	model  string
}

func NewGenerator(apiKey, model, proxyURL string) (*Generator, error) {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}

	if proxyURL != "" {
		proxy, err := url.Parse(proxyURL)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy url: %w", err)
		}
		opts = append(opts, option.WithHTTPClient(&http.Client{
			Transport: &http.Transport{Proxy: http.ProxyURL(proxy)},
		}))
		logrus.Infof("[OPENAI] Using proxy %s", proxy.Host)
	}

	return &Generator{
		client: openai.NewClient(opts...),
		model:  model,
	}, nil
}

// Generate asks the model for a short comment on the post, attaching any
// post photos as data URLs.
func (g *Generator) Generate(ctx context.Context, text string, imageURLs []string, channelDescription, channelName string) (string, error) {
	systemPrompt := fmt.Sprintf(systemPromptTemplate, channelName, channelDescription)

	userParts := []openai.ChatCompletionContentPartUnionParam{
		openai.TextContentPart(fmt.Sprintf("Post text: %s", text)),
	}
	for _, imageURL := range imageURLs {
		userParts = append(userParts, openai.ImageContentPart(
			openai.ChatCompletionContentPartImageImageURLParam{URL: imageURL},
		))
	}

	completion, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(g.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userParts),
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}

	comment := strings.TrimSpace(completion.Choices[0].Message.Content)
	logrus.Debugf("[OPENAI] Generated comment: %.50s", comment)
	return comment, nil
}
