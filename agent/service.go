package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	aichef "github.com/prasha-au/aichef"
	"github.com/prasha-au/aichef/llm"
	"github.com/prasha-au/aichef/session"
	"github.com/prasha-au/aichef/tools"
)

// Runner is the coordination loop; satisfied by Coordinator and
// InstrumentedCoordinator.
type Runner interface {
	Run(ctx context.Context, prompt llm.Prompt, tp ToolProvider) (string, error)
}

// SearchProvider is the search surface the service and its tools share.
type SearchProvider interface {
	Search(ctx context.Context, query string) ([]aichef.SearchResult, error)
	SearchWeb(ctx context.Context, query string) ([]aichef.SearchResult, error)
	SearchSaved(ctx context.Context, query string) ([]aichef.SearchResult, error)
}

// Service is the application surface: one method per exposed operation.
type Service struct {
	llm       llm.Client
	runner    Runner
	sessions  session.Store
	search    SearchProvider
	extractor tools.RecipeFetcher
}

func NewService(llmClient llm.Client, runner Runner, sessions session.Store, search SearchProvider, extractor tools.RecipeFetcher) *Service {
	return &Service{
		llm:       llmClient,
		runner:    runner,
		sessions:  sessions,
		search:    search,
		extractor: extractor,
	}
}

// Reply is the outcome of one chat turn.
type Reply struct {
	Text      string           `json:"text"`
	ChatState aichef.ChatState `json:"chatState"`
}

// QueryReply runs one chat turn: load the session, fold in client state, run
// the tool loop, persist, reply. The session is saved exactly once, after the
// turn succeeds; a failed turn leaves the stored session untouched.
func (s *Service) QueryReply(ctx context.Context, sessionID, query string, clientState aichef.ChatState) (Reply, error) {
	if strings.TrimSpace(sessionID) == "" {
		return Reply{}, fmt.Errorf("session id is required")
	}
	if strings.TrimSpace(query) == "" {
		return Reply{}, fmt.Errorf("query is required")
	}

	sess, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return Reply{}, fmt.Errorf("load session: %w", err)
	}

	state := sess.State
	// A redirect is an instruction for this turn only; stale ones must not
	// survive into the next.
	state.RequestedRedirect = ""
	state.Merge(clientState)

	registry, err := tools.NewRegistry(&state, tools.Deps{
		LLM:       s.llm,
		Extractor: s.extractor,
		Search:    s.search,
	})
	if err != nil {
		return Reply{}, err
	}

	prompt, err := NewPrompt(sess, state, query, registry)
	if err != nil {
		return Reply{}, err
	}

	text, err := s.runner.Run(ctx, prompt, registry)
	if err != nil {
		return Reply{}, err
	}

	sess.Messages = append(sess.Messages,
		aichef.Message{Role: aichef.RoleUser, Text: query},
		aichef.Message{Role: aichef.RoleModel, Text: text},
	)
	sess.State = state

	if err := s.sessions.Save(ctx, sess); err != nil {
		return Reply{}, fmt.Errorf("save session: %w", err)
	}

	slog.Info("AGENT: Turn complete", "session_id", sessionID, "messages", len(sess.Messages))
	return Reply{Text: text, ChatState: state}, nil
}

// SessionMessage is a display-ready chat message.
type SessionMessage struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// SessionInfo is the client-facing view of a session.
type SessionInfo struct {
	Messages []SessionMessage `json:"messages"`
	State    aichef.ChatState `json:"state"`
}

// GetSessionInfo returns the display view of a session: only text-bearing
// user and model messages, with the model role mapped to "ai".
func (s *Service) GetSessionInfo(ctx context.Context, sessionID string) (SessionInfo, error) {
	if strings.TrimSpace(sessionID) == "" {
		return SessionInfo{}, fmt.Errorf("session id is required")
	}

	sess, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return SessionInfo{}, fmt.Errorf("load session: %w", err)
	}

	messages := make([]SessionMessage, 0, len(sess.Messages))
	for _, m := range sess.Messages {
		if m.Text == "" {
			continue
		}
		switch m.Role {
		case aichef.RoleUser:
			messages = append(messages, SessionMessage{Role: "user", Text: m.Text})
		case aichef.RoleModel:
			messages = append(messages, SessionMessage{Role: "ai", Text: m.Text})
		}
	}

	return SessionInfo{Messages: messages, State: sess.State}, nil
}

// SearchForRecipes is the direct (non-conversational) search operation.
func (s *Service) SearchForRecipes(ctx context.Context, query string) ([]aichef.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query is required")
	}
	return s.search.Search(ctx, query)
}

// GetRecipeFromURL is the direct extraction operation.
func (s *Service) GetRecipeFromURL(ctx context.Context, url string) (*aichef.Recipe, error) {
	if strings.TrimSpace(url) == "" {
		return nil, fmt.Errorf("url is required")
	}
	return s.extractor.FromURL(ctx, url)
}
