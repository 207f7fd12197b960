package interpret

import (
	"context"
	"fmt"

	"yijing/internal/config"

	"github.com/Azure/azure-sdk-for-go/sdk/ai/azopenai"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
)

// Azure completes through an Azure OpenAI deployment.
type Azure struct {
	client     *azopenai.Client
	deployment string
}

// NewAzure creates an Azure OpenAI completer.
func NewAzure(endpoint, apiKey, deployment string) (*Azure, error) {
	if endpoint == "" || apiKey == "" {
		return nil, fmt.Errorf("azure openai endpoint and key are required")
	}
	if deployment == "" {
		deployment = config.DefaultAzureDeployment
	}

	client, err := azopenai.NewClientWithKeyCredential(endpoint, azcore.NewKeyCredential(apiKey), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure OpenAI client: %w", err)
	}
	return &Azure{client: client, deployment: deployment}, nil
}

func (a *Azure) Complete(ctx context.Context, req Request) (string, error) {
	resp, err := a.client.GetChatCompletions(ctx, azopenai.ChatCompletionsOptions{
		DeploymentName: to.Ptr(a.deployment),
		Messages: []azopenai.ChatRequestMessageClassification{
			&azopenai.ChatRequestSystemMessage{
				Content: azopenai.NewChatRequestSystemMessageContent(req.System),
			},
			&azopenai.ChatRequestUserMessage{
				Content: azopenai.NewChatRequestUserMessageContent(req.Prompt),
			},
		},
		MaxTokens:   to.Ptr(req.MaxTokens),
		Temperature: to.Ptr(req.Temperature),
	}, nil)
	if err != nil {
		return "", fmt.Errorf("azure chat completion: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message == nil || resp.Choices[0].Message.Content == nil {
		return "", ErrEmptyCompletion
	}
	return *resp.Choices[0].Message.Content, nil
}
