package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/adk/agent"
	"google.golang.org/adk/agent/llmagent"
	"google.golang.org/adk/model/gemini"
	"google.golang.org/adk/runner"
	"google.golang.org/adk/session"
	"google.golang.org/genai"

	"github.com/muhammadolammi/careerwise/internal/config"
)

var errEmptyAgentResponse = errors.New("empty agent response")

func GetAgent(ctx context.Context, cfg config.GenAIConfig) (agent.Agent, error) {
	model, err := gemini.NewModel(ctx, cfg.Model, &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create model: %w", err)
	}

	advisor, err := llmagent.New(llmagent.Config{
		Name:        cfg.AgentName,
		Model:       model,
		Description: "Assess career readiness from a resume",
		Instruction: prompt(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create agent: %w", err)
	}
	return advisor, nil
}

// agentRecommender sends each prompt through the ADK runner in a session of
// its own, deleted once the final response arrives.
type agentRecommender struct {
	runner   *runner.Runner
	sessions session.Service
	appName  string
	timeout  time.Duration
}

func newAgentRecommender(ctx context.Context, cfg config.GenAIConfig) (*agentRecommender, error) {
	advisor, err := GetAgent(ctx, cfg)
	if err != nil {
		return nil, err
	}

	sessions := session.InMemoryService()
	r, err := runner.New(runner.Config{
		AppName:        advisor.Name(),
		Agent:          advisor,
		SessionService: sessions,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create runner: %w", err)
	}

	return &agentRecommender{
		runner:   r,
		sessions: sessions,
		appName:  advisor.Name(),
		timeout:  config.GetDuration(cfg.Timeout),
	}, nil
}

func (a *agentRecommender) Recommend(ctx context.Context, msg string) (string, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	created, err := a.sessions.Create(ctx, &session.CreateRequest{
		AppName:   a.appName,
		UserID:    "careerwise",
		SessionID: uuid.NewString(),
	})
	if err != nil {
		return "", fmt.Errorf("failed to create agent session: %w", err)
	}
	defer a.sessions.Delete(context.WithoutCancel(ctx), &session.DeleteRequest{
		AppName:   created.Session.AppName(),
		UserID:    created.Session.UserID(),
		SessionID: created.Session.ID(),
	})

	stream := a.runner.Run(ctx, created.Session.UserID(), created.Session.ID(), &genai.Content{
		Role: "user",
		Parts: []*genai.Part{
			{Text: msg},
		},
	}, agent.RunConfig{})

	var output string
	for event, err := range stream {
		if err != nil {
			return "", fmt.Errorf("agent stream: %w", err)
		}
		if event != nil && event.IsFinalResponse() && event.Content != nil && len(event.Content.Parts) > 0 {
			output = event.Content.Parts[0].Text
		}
	}

	if strings.TrimSpace(output) == "" {
		return "", errEmptyAgentResponse
	}
	return output, nil
}
