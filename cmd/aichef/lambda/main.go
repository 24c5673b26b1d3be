package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/s3"
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

type Params struct {
	Op        string           `json:"op"`
	SessionID string           `json:"sessionId"`
	Query     string           `json:"query"`
	URL       string           `json:"url"`
	ChatState aichef.ChatState `json:"chatState"`
}

type Results struct {
	Output any `json:"output"`
}

func main() {
	fn := func(ctx context.Context, params Params) (Results, error) {
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

		if agentConfig.SessionsS3Bucket == "" {
			return Results{}, fmt.Errorf("missing S3 config: SESSIONS_S3_BUCKET must be set")
		}

		awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRetryMaxAttempts(5))
		if err != nil {
			return Results{}, fmt.Errorf("failed to load AWS config: %w", err)
		}
		sessions := session.NewS3Store(s3.NewFromConfig(awsCfg), agentConfig.SessionsS3Bucket, agentConfig.SessionsS3Prefix)
		slog.Info("SETUP: S3 session store initialized", "bucket", agentConfig.SessionsS3Bucket)

		llmClient := llm.NewBedrockClient(bedrockruntime.NewFromConfig(awsCfg), llm.BedrockOptions{
			ModelID:     modelConfig.ModelID,
			MaxTokens:   modelConfig.MaxTokens,
			Temperature: modelConfig.Temperature,
			TopP:        modelConfig.TopP,
		})

		embedder, err := gemini.NewEmbedder(ctx, storeConfig.GeminiAPIKey)
		if err != nil {
			slog.Error("SETUP: Failed to create embedder", "error", err)
			return Results{}, err
		}
		defer embedder.Close()

		wc, err := weaviate.NewClient(weaviate.Config{
			Host:   storeConfig.WeaviateHost,
			Scheme: storeConfig.WeaviateScheme,
		})
		if err != nil {
			slog.Error("SETUP: Failed to create Weaviate client", "error", err)
			return Results{}, err
		}
		recipeStore := store.NewWeaviate(wc)
		if err := recipeStore.EnsureSchema(ctx); err != nil {
			slog.Error("SETUP: Failed to ensure recipe schema", "error", err)
			return Results{}, err
		}

		webClient := websearch.NewClient("", searchConfig.GoogleSearchKey, searchConfig.GoogleSearchCtx, http.DefaultClient)
		aggregator := search.NewAggregator(webClient, recipeStore, embedder, llmClient, searchConfig.ResultLimit)
		extractor := extract.New(http.DefaultClient, llmClient, embedder, recipeStore)

		tracerProvider, meterProvider, otelShutdown, err := aichef.InitOtel(ctx)
		if err != nil {
			slog.Error("SETUP: Failed to initialize OpenTelemetry", "error", err)
			return Results{}, err
		}
		defer func() {
			if err := otelShutdown(ctx); err != nil {
				slog.Error("SETUP: Failed to shutdown OpenTelemetry", "error", err)
			}
		}()

		coordinator := agent.NewInstrumentedCoordinator(
			agent.NewCoordinator(llmClient, agentConfig.MaxIterations, aichef.NewStdoutCoordinationLogger()),
			tracerProvider.Tracer(aichef.TracerNameAgent),
			meterProvider.Meter(aichef.TracerNameAgent),
		)
		svc := agent.NewService(llmClient, coordinator, sessions, aggregator, extractor)

		switch params.Op {
		case "query_reply":
			reply, err := svc.QueryReply(ctx, params.SessionID, params.Query, params.ChatState)
			if err != nil {
				slog.Error("RESULT: Error handling query", "error", err)
				return Results{}, err
			}
			return Results{Output: reply}, nil

		case "get_session_info":
			info, err := svc.GetSessionInfo(ctx, params.SessionID)
			if err != nil {
				slog.Error("RESULT: Error loading session", "error", err)
				return Results{}, err
			}
			return Results{Output: info}, nil

		case "search_for_recipes":
			results, err := svc.SearchForRecipes(ctx, params.Query)
			if err != nil {
				slog.Error("RESULT: Error searching recipes", "error", err)
				return Results{}, err
			}
			return Results{Output: results}, nil

		case "get_recipe_from_url":
			recipe, err := svc.GetRecipeFromURL(ctx, params.URL)
			if err != nil {
				slog.Error("RESULT: Error extracting recipe", "error", err)
				return Results{}, err
			}
			return Results{Output: recipe}, nil

		default:
			return Results{}, fmt.Errorf("unknown op %q", params.Op)
		}
	}

	lambda.Start(fn)
}
