package tools

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

type stubTool struct {
	name string
	run  func() (interface{}, error)
}

func (s *stubTool) Name() string            { return s.name }
func (s *stubTool) Description() string     { return "stub" }
func (s *stubTool) Schema() json.RawMessage { return json.RawMessage(`{"type":"object"}`) }
func (s *stubTool) Execute(json.RawMessage) (interface{}, error) {
	return s.run()
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(&stubTool{name: "a"}); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if err := r.Register(&stubTool{name: "a"}); err == nil {
		t.Fatal("expected duplicate registration to fail")
	}
}

func TestListIsSorted(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		r.Register(&stubTool{name: name})
	}

	got := r.Names()
	want := []string{"alpha", "mid", "zeta"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Names() = %v, want %v", got, want)
		}
	}
	if r.List()[0].Name() != "alpha" {
		t.Errorf("List() not sorted")
	}
}

func TestExecuteUnknownTool(t *testing.T) {
	r := NewRegistry()

	_, err := r.ExecuteWithTimeout("missing", nil, time.Second)
	var toolErr *ToolError
	if !errors.As(err, &toolErr) || toolErr.Code != CodeMethodNotFound {
		t.Fatalf("expected not-found tool error, got %v", err)
	}
}

func TestExecuteWithTimeout(t *testing.T) {
	r := NewRegistry()
	release := make(chan struct{})
	defer close(release)

	r.Register(&stubTool{name: "slow", run: func() (interface{}, error) {
		<-release
		return nil, nil
	}})
	r.Register(&stubTool{name: "fast", run: func() (interface{}, error) {
		return "ok", nil
	}})

	if got, err := r.ExecuteWithTimeout("fast", nil, time.Second); err != nil || got != "ok" {
		t.Fatalf("fast tool: got %v, %v", got, err)
	}

	_, err := r.ExecuteWithTimeout("slow", nil, 20*time.Millisecond)
	var toolErr *ToolError
	if !errors.As(err, &toolErr) || toolErr.Code != CodeInternalError {
		t.Fatalf("expected timeout error, got %v", err)
	}
}

func TestExecuteRecoversPanic(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubTool{name: "boom", run: func() (interface{}, error) {
		panic("kaput")
	}})

	if _, err := r.ExecuteWithTimeout("boom", nil, time.Second); err == nil {
		t.Fatal("expected panic to surface as error")
	}
}

func TestHealthListsTools(t *testing.T) {
	r := NewRegistry()
	r.Register(NewHealthTool(r))

	out, err := r.Execute("health", nil)
	if err != nil {
		t.Fatal(err)
	}
	status := out.(map[string]interface{})
	if status["status"] != "healthy" {
		t.Errorf("unexpected status %v", status["status"])
	}
	names := status["tools"].([]string)
	if len(names) != 1 || names[0] != "health" {
		t.Errorf("unexpected tools %v", names)
	}
}
