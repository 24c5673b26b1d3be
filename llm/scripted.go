package llm

import (
	"context"
	"fmt"
	"sync"
)

// ScriptedClient replays a fixed sequence of responses and records the
// prompts it was invoked with. Deterministic stand-in for a real model in
// tests.
type ScriptedClient struct {
	mu      sync.Mutex
	steps   []Response
	errs    []error
	next    int
	Prompts []Prompt
}

func NewScriptedClient(steps ...Response) *ScriptedClient {
	return &ScriptedClient{steps: steps}
}

// FailAt makes the step at index i (zero-based) return err instead of its
// scripted response.
func (s *ScriptedClient) FailAt(i int, err error) *ScriptedClient {
	for len(s.errs) <= i {
		s.errs = append(s.errs, nil)
	}
	s.errs[i] = err
	return s
}

func (s *ScriptedClient) Invoke(_ context.Context, prompt Prompt) (Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Prompts = append(s.Prompts, prompt)

	i := s.next
	if i >= len(s.steps) {
		return Response{}, fmt.Errorf("scripted client exhausted after %d steps", len(s.steps))
	}
	s.next++

	if i < len(s.errs) && s.errs[i] != nil {
		return Response{}, s.errs[i]
	}
	return s.steps[i], nil
}

// Calls returns how many times Invoke was called.
func (s *ScriptedClient) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Prompts)
}
