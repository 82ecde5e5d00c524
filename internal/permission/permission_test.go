package permission

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentx/agentx/internal/bus"
)

func TestMatchBashPermission(t *testing.T) {
	permissions := map[string]PermissionAction{
		"git *":         ActionAllow,
		"rm *":          ActionDeny,
		"npm install *": ActionAsk,
		"*":             ActionAsk,
	}

	tests := []struct {
		name     string
		cmd      BashCommand
		expected PermissionAction
	}{
		{name: "git allowed", cmd: BashCommand{Name: "git", Subcommand: "commit"}, expected: ActionAllow},
		{name: "git push allowed", cmd: BashCommand{Name: "git", Subcommand: "push", Args: []string{"push", "origin", "main"}}, expected: ActionAllow},
		{name: "rm denied", cmd: BashCommand{Name: "rm", Args: []string{"-rf", "dir"}}, expected: ActionDeny},
		{name: "npm install ask", cmd: BashCommand{Name: "npm", Subcommand: "install", Args: []string{"install", "express"}}, expected: ActionAsk},
		{name: "unknown command defaults to global wildcard", cmd: BashCommand{Name: "unknown"}, expected: ActionAsk},
		{name: "ls defaults to global wildcard", cmd: BashCommand{Name: "ls", Args: []string{"-la"}}, expected: ActionAsk},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := MatchBashPermission(tt.cmd, permissions)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestBuildPattern(t *testing.T) {
	tests := []struct {
		name     string
		cmd      BashCommand
		expected string
	}{
		{name: "simple command", cmd: BashCommand{Name: "ls", Args: []string{"-la"}}, expected: "ls *"},
		{name: "command with subcommand", cmd: BashCommand{Name: "git", Subcommand: "commit", Args: []string{"commit", "-m", "msg"}}, expected: "git commit *"},
		{name: "npm install", cmd: BashCommand{Name: "npm", Subcommand: "install", Args: []string{"install", "express"}}, expected: "npm install *"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := BuildPattern(tt.cmd)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestDoomLoopDetector(t *testing.T) {
	detector := NewDoomLoopDetector()
	agentID := "agent_test"

	assert.False(t, detector.Check(agentID, "read", map[string]string{"file": "test.txt"}))
	assert.False(t, detector.Check(agentID, "read", map[string]string{"file": "test.txt"}))
	assert.True(t, detector.Check(agentID, "read", map[string]string{"file": "test.txt"}))
	assert.True(t, detector.Check(agentID, "read", map[string]string{"file": "test.txt"}))
}

func TestDoomLoopDetector_DifferentInput(t *testing.T) {
	detector := NewDoomLoopDetector()
	agentID := "agent_test"

	assert.False(t, detector.Check(agentID, "read", map[string]string{"file": "a.txt"}))
	assert.False(t, detector.Check(agentID, "read", map[string]string{"file": "a.txt"}))
	assert.False(t, detector.Check(agentID, "read", map[string]string{"file": "b.txt"}))
}

func newTestChecker() *Checker {
	return NewChecker(bus.New(zerolog.Nop()))
}

func TestChecker_Check(t *testing.T) {
	checker := newTestChecker()
	ctx := context.Background()

	err := checker.Check(ctx, Request{AgentID: "agent_1"}, ActionAllow)
	assert.NoError(t, err)

	err = checker.Check(ctx, Request{AgentID: "agent_1", Type: PermBash}, ActionDeny)
	assert.Error(t, err)
	assert.True(t, IsRejectedError(err))
}

func TestChecker_AlreadyApproved(t *testing.T) {
	checker := newTestChecker()
	ctx := context.Background()

	checker.approve(PermBash, nil)

	done := make(chan error)
	go func() {
		done <- checker.Ask(ctx, Request{AgentID: "agent_1", Type: PermBash})
	}()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(100 * time.Millisecond):
		t.Fatal("Ask should return immediately for approved permission")
	}
}

func TestChecker_PatternApproved(t *testing.T) {
	checker := newTestChecker()
	ctx := context.Background()

	checker.ApprovePattern("git *")
	checker.ApprovePattern("npm install *")

	done := make(chan error)
	go func() {
		done <- checker.Ask(ctx, Request{AgentID: "agent_1", Type: PermBash, Pattern: []string{"git *"}})
	}()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(100 * time.Millisecond):
		t.Fatal("Ask should return immediately for approved pattern")
	}
}

func TestChecker_AskAndRespond(t *testing.T) {
	checker := newTestChecker()
	ctx := context.Background()

	var receivedData RequiredData
	var wg sync.WaitGroup
	wg.Add(1)

	unsub := checker.bus.On([]string{PermissionRequired}, func(e bus.Event) {
		receivedData = e.Data.(RequiredData)
		wg.Done()
	}, bus.Options{})
	defer unsub()

	errChan := make(chan error)
	go func() {
		errChan <- checker.Ask(ctx, Request{
			ID: "test-request-id", AgentID: "agent_1", Type: PermBash,
			Title: "git commit -m 'test'", Pattern: []string{"git *"},
		})
	}()

	wg.Wait()
	require.Equal(t, "test-request-id", receivedData.ID)
	assert.Equal(t, "agent_1", receivedData.AgentID)
	assert.Equal(t, PermBash, receivedData.Type)

	checker.Respond("test-request-id", "once")

	select {
	case err := <-errChan:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Ask should complete after Respond")
	}
}

func TestChecker_AskAndReject(t *testing.T) {
	checker := newTestChecker()
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(1)
	unsub := checker.bus.On([]string{PermissionRequired}, func(e bus.Event) { wg.Done() }, bus.Options{})
	defer unsub()

	errChan := make(chan error)
	go func() {
		errChan <- checker.Ask(ctx, Request{ID: "reject-request-id", AgentID: "agent_1", Type: PermBash, Title: "rm -rf /"})
	}()

	wg.Wait()
	checker.Respond("reject-request-id", "reject")

	select {
	case err := <-errChan:
		assert.Error(t, err)
		assert.True(t, IsRejectedError(err))
	case <-time.After(time.Second):
		t.Fatal("Ask should complete after Respond")
	}
}

func TestChecker_AskContextCanceled(t *testing.T) {
	checker := newTestChecker()
	ctx, cancel := context.WithCancel(context.Background())

	errChan := make(chan error)
	go func() {
		errChan <- checker.Ask(ctx, Request{AgentID: "agent_1", Type: PermBash})
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-errChan:
		assert.Error(t, err)
		assert.Equal(t, context.Canceled, err)
	case <-time.After(time.Second):
		t.Fatal("Ask should complete when context is canceled")
	}
}

func TestChecker_ClearSession(t *testing.T) {
	checker := newTestChecker()

	checker.approve(PermBash, []string{"git *"})
	checker.ApprovePattern("npm *")

	assert.True(t, checker.IsApproved(PermBash))
	assert.True(t, checker.IsPatternApproved("npm *"))

	checker.ClearSession()

	assert.False(t, checker.IsApproved(PermBash))
	assert.False(t, checker.IsPatternApproved("npm *"))
}

func TestRejectedError(t *testing.T) {
	err := &RejectedError{
		AgentID:  "agent_1",
		Type:     PermBash,
		CallID:   "call-123",
		Message:  "Permission denied",
		Metadata: map[string]any{"command": "rm -rf /"},
	}

	assert.Equal(t, "Permission denied", err.Error())
	assert.True(t, IsRejectedError(err))
	assert.False(t, IsRejectedError(context.Canceled))
}

func TestDefaultAgentPermissions(t *testing.T) {
	perms := DefaultAgentPermissions()

	assert.Equal(t, ActionAsk, perms.Edit)
	assert.Equal(t, ActionAsk, perms.WebFetch)
	assert.Equal(t, ActionAsk, perms.ExternalDir)
	assert.Equal(t, ActionAsk, perms.DoomLoop)
	assert.NotNil(t, perms.Bash)
}
