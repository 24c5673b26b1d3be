package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/google/uuid"
	"github.com/joeshaw/envdecode"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"

	aichef "github.com/prasha-au/aichef"
	"github.com/prasha-au/aichef/agent"
	"github.com/prasha-au/aichef/extract"
	"github.com/prasha-au/aichef/gemini"
	"github.com/prasha-au/aichef/llm"
	"github.com/prasha-au/aichef/search"
	"github.com/prasha-au/aichef/session"
	"github.com/prasha-au/aichef/store"
	"github.com/prasha-au/aichef/websearch"
)

func main() {
	ctx := context.Background()

	var modelConfig aichef.ModelConfig
	if err := envdecode.Decode(&modelConfig); err != nil {
		log.Fatalf("Failed to decode: %s", err)
	}

	var agentConfig aichef.AgentConfig
	if err := envdecode.Decode(&agentConfig); err != nil {
		log.Fatalf("Failed to decode: %s", err)
	}

	var storeConfig aichef.StoreConfig
	if err := envdecode.Decode(&storeConfig); err != nil {
		log.Fatalf("Failed to decode: %s", err)
	}

	var searchConfig aichef.SearchConfig
	if err := envdecode.Decode(&searchConfig); err != nil {
		log.Fatalf("Failed to decode: %s", err)
	}

	brc, err := newBedrockRuntimeClient(ctx)
	if err != nil {
		slog.Error("SETUP: Failed to create Bedrock client", "error", err)
		return
	}

	llmClient := llm.NewBedrockClient(brc, llm.BedrockOptions{
		ModelID:     modelConfig.ModelID,
		MaxTokens:   modelConfig.MaxTokens,
		Temperature: modelConfig.Temperature,
		TopP:        modelConfig.TopP,
	})

	embedder, err := gemini.NewEmbedder(ctx, storeConfig.GeminiAPIKey)
	if err != nil {
		slog.Error("SETUP: Failed to create embedder", "error", err)
		return
	}
	defer embedder.Close()

	wc, err := weaviate.NewClient(weaviate.Config{
		Host:   storeConfig.WeaviateHost,
		Scheme: storeConfig.WeaviateScheme,
	})
	if err != nil {
		slog.Error("SETUP: Failed to create Weaviate client", "error", err)
		return
	}
	recipeStore := store.NewWeaviate(wc)
	if err := recipeStore.EnsureSchema(ctx); err != nil {
		slog.Error("SETUP: Failed to ensure recipe schema", "error", err)
		return
	}
	slog.Info("SETUP: Recipe store ready", "host", storeConfig.WeaviateHost)

	webClient := websearch.NewClient("", searchConfig.GoogleSearchKey, searchConfig.GoogleSearchCtx, http.DefaultClient)
	aggregator := search.NewAggregator(webClient, recipeStore, embedder, llmClient, searchConfig.ResultLimit)
	extractor := extract.New(http.DefaultClient, llmClient, embedder, recipeStore)
	sessions := session.NewFileStore(agentConfig.SessionsPath)

	sessionID := uuid.NewString()

	logger, cleanup, err := newCoordinationLogger(sessionID, modelConfig.ModelID)
	if err != nil {
		slog.Error("SETUP: Failed to create coordination logger", "error", err)
		return
	}
	defer func() {
		if err := cleanup(); err != nil {
			slog.Error("Failed to flush coordination log", "error", err)
		}
	}()

	coordinator := agent.NewCoordinator(llmClient, agentConfig.MaxIterations, logger)
	svc := agent.NewService(llmClient, coordinator, sessions, aggregator, extractor)

	slog.Info("SETUP: Chat session started", "session_id", sessionID, "model", modelConfig.ModelID)
	fmt.Println("Ask about recipes. Ctrl+D to quit.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		query := strings.TrimSpace(scanner.Text())
		if query == "" {
			continue
		}

		reply, err := svc.QueryReply(ctx, sessionID, query, aichef.ChatState{})
		if err != nil {
			slog.Error("RESULT: Error handling query", "error", err)
			continue
		}

		fmt.Println(reply.Text)
		if reply.ChatState.RequestedRedirect != "" {
			fmt.Printf("[redirect: %s]\n", reply.ChatState.RequestedRedirect)
		}
	}
}

func newBedrockRuntimeClient(ctx context.Context) (*bedrockruntime.Client, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRetryMaxAttempts(5))
	if err != nil {
		return nil, err
	}
	return bedrockruntime.NewFromConfig(awsCfg), nil
}

func newCoordinationLogger(sessionID, modelID string) (aichef.CoordinationLogger, func() error, error) {
	logFilePath := aichef.NewCoordinationLogFilePath(sessionID, modelID)
	if err := os.MkdirAll(filepath.Dir(logFilePath), 0755); err != nil {
		return nil, func() error { return err }, fmt.Errorf("failed to create log directory: %w", err)
	}
	logFile, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, func() error { return err }, fmt.Errorf("failed to open log file: %w", err)
	}

	logger := aichef.NewFileCoordinationLogger(logFile)
	cleanup := func() error {
		return errors.Join(logger.Flush(), logFile.Close())
	}
	return logger, cleanup, nil
}
