package mcp

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/deixis/devsetup/internal/config"
	"github.com/deixis/devsetup/internal/report"
	"github.com/deixis/devsetup/internal/runner"
)

// fakeRunner answers version probes and records every other command.
type fakeRunner struct {
	mu      sync.Mutex
	Results map[string]*runner.Result
	Calls   [][]string
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{
		Results: map[string]*runner.Result{
			"python3 --version": {Stdout: []byte("Python 3.12.1\n")},
			"node --version":    {Stdout: []byte("v22.3.0\n")},
			"npm --version":     {Stdout: []byte("10.8.1\n")},
		},
	}
}

func (f *fakeRunner) Run(_ context.Context, argv []string, _ string) (*runner.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, argv)

	key := filepath.Base(argv[0])
	if len(argv) > 1 {
		key += " " + argv[1]
	}
	if r, ok := f.Results[key]; ok {
		out := *r
		out.Argv = argv
		return &out, nil
	}
	return &runner.Result{Argv: argv}, nil
}

// newSession creates a devsetup MCP server + client over in-memory transports.
func newSession(t *testing.T, workspaceDir string, r *fakeRunner, cfg *config.Config) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()

	if cfg == nil {
		cfg = &config.Config{}
	}
	store := report.NewLRUStore(5, report.NewDiskStore(t.TempDir()))

	server := NewServer(cfg, r, store, workspaceDir)

	ct, st := mcp.NewInMemoryTransports()
	ss, err := server.Connect(ctx, st, nil)
	if err != nil {
		t.Fatalf("server.Connect: %v", err)
	}

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	cs, err := client.Connect(ctx, ct, nil)
	if err != nil {
		t.Fatalf("client.Connect: %v", err)
	}

	t.Cleanup(func() {
		_ = cs.Close()
		_ = ss.Wait()
	})

	return cs
}

// newProject lays out a minimal project checkout.
func newProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"README.md":        "# demo\n",
		"requirements.txt": "flask\n",
		".env.example":     "OPENAI_API_KEY=\nPORT=3000\n",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "backend"), 0o755); err != nil {
		t.Fatal(err)
	}
	return dir
}

func callTool(t *testing.T, cs *mcp.ClientSession, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		t.Fatalf("CallTool(%s): %v", name, err)
	}
	return res
}

func resultText(r *mcp.CallToolResult) string {
	var parts []string
	for _, c := range r.Content {
		if tc, ok := c.(*mcp.TextContent); ok {
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n")
}

var runIDRe = regexp.MustCompile(`Run: ([0-9a-f-]{36})`)

func runID(t *testing.T, text string) string {
	t.Helper()
	m := runIDRe.FindStringSubmatch(text)
	if m == nil {
		t.Fatalf("no run id in:\n%s", text)
	}
	return m[1]
}

func TestListTools(t *testing.T) {
	cs := newSession(t, newProject(t), newFakeRunner(), nil)

	res, err := cs.ListTools(context.Background(), nil)
	if err != nil {
		t.Fatalf("ListTools: %v", err)
	}
	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	sort.Strings(names)
	want := "setup_check,setup_env,setup_inspect,setup_run,setup_workspace"
	if got := strings.Join(names, ","); got != want {
		t.Errorf("tools = %s, want %s", got, want)
	}
}

// --- setup_workspace ---

func TestSetupWorkspace(t *testing.T) {
	dir := newProject(t)
	cs := newSession(t, dir, newFakeRunner(), nil)

	res := callTool(t, cs, "setup_workspace", nil)
	text := resultText(res)
	if res.IsError {
		t.Fatalf("unexpected error: %s", text)
	}
	for _, want := range []string{
		"Project: " + filepath.Base(dir),
		"Root marker: README.md (present)",
		"Project file: (none, using defaults)",
		"Steps: backend, python, frontend, env",
		"virtual environment  venv",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("missing %q in:\n%s", want, text)
		}
	}
}

// --- setup_check ---

func TestSetupCheck_Passing(t *testing.T) {
	cs := newSession(t, newProject(t), newFakeRunner(), nil)

	res := callTool(t, cs, "setup_check", nil)
	text := resultText(res)
	if res.IsError {
		t.Fatalf("unexpected error: %s", text)
	}
	for _, want := range []string{"Status: PASS", "3.12.1", "✅ Node.js is available", "All check operations passed."} {
		if !strings.Contains(text, want) {
			t.Errorf("missing %q in:\n%s", want, text)
		}
	}
}

func TestSetupCheck_MissingTool(t *testing.T) {
	r := newFakeRunner()
	r.Results["npm --version"] = &runner.Result{ExitCode: 127}
	cs := newSession(t, newProject(t), r, nil)

	text := resultText(callTool(t, cs, "setup_check", nil))
	for _, want := range []string{"Status: FAIL", "❌ npm is not installed or not in PATH", "Action: npm is required but not installed or not in PATH."} {
		if !strings.Contains(text, want) {
			t.Errorf("missing %q in:\n%s", want, text)
		}
	}
}

// --- setup_run ---

func TestSetupRun_Passing(t *testing.T) {
	dir := newProject(t)
	r := newFakeRunner()
	cs := newSession(t, dir, r, nil)

	text := resultText(callTool(t, cs, "setup_run", nil))
	if !strings.Contains(text, "Status: PASS") {
		t.Fatalf("expected PASS:\n%s", text)
	}
	if !strings.Contains(text, "🎉 Setup completed successfully!") {
		t.Errorf("missing completion banner:\n%s", text)
	}

	got, err := os.ReadFile(filepath.Join(dir, ".env"))
	if err != nil {
		t.Fatalf("reading .env: %v", err)
	}
	if string(got) != "OPENAI_API_KEY=\nPORT=3000\n" {
		t.Errorf(".env = %q", got)
	}
}

func TestSetupRun_NotProjectRoot(t *testing.T) {
	r := newFakeRunner()
	cs := newSession(t, t.TempDir(), r, nil)

	text := resultText(callTool(t, cs, "setup_run", nil))
	for _, want := range []string{"Status: FAIL", "Aborted: not the project root", "Action: resolve the problem above and re-run setup_run."} {
		if !strings.Contains(text, want) {
			t.Errorf("missing %q in:\n%s", want, text)
		}
	}
	if len(r.Calls) != 0 {
		t.Errorf("commands ran outside project root: %v", r.Calls)
	}
}

func TestSetupRun_SelectedSteps(t *testing.T) {
	dir := newProject(t)
	r := newFakeRunner()
	cs := newSession(t, dir, r, nil)

	text := resultText(callTool(t, cs, "setup_run", map[string]any{"steps": []string{"env"}}))
	if !strings.Contains(text, "Status: PASS") {
		t.Fatalf("expected PASS:\n%s", text)
	}
	if strings.Contains(text, "backend    ") {
		t.Errorf("unselected step ran:\n%s", text)
	}
	for _, c := range r.Calls {
		if c[len(c)-1] != "--version" {
			t.Errorf("unexpected command %v", c)
		}
	}
}

func TestSetupRun_FailureThenInspect(t *testing.T) {
	dir := newProject(t)
	r := newFakeRunner()
	r.Results["pip install"] = &runner.Result{ExitCode: 1, Stderr: []byte("ERROR: No matching distribution found for flask")}
	cs := newSession(t, dir, r, nil)

	text := resultText(callTool(t, cs, "setup_run", nil))
	if !strings.Contains(text, "Status: FAIL") {
		t.Fatalf("expected FAIL:\n%s", text)
	}
	id := runID(t, text)
	if !strings.Contains(text, `setup_inspect(run_id="`+id+`")`) {
		t.Errorf("missing inspect hint:\n%s", text)
	}

	res := callTool(t, cs, "setup_inspect", map[string]any{"run_id": id})
	detail := resultText(res)
	if res.IsError {
		t.Fatalf("unexpected error: %s", detail)
	}
	for _, want := range []string{
		"python     fail",
		"install -r requirements.txt  exit 1",
		"No matching distribution found for flask",
		"$ npm install  (in backend)",
	} {
		if !strings.Contains(detail, want) {
			t.Errorf("missing %q in:\n%s", want, detail)
		}
	}
}

// --- setup_env ---

func TestSetupEnv(t *testing.T) {
	dir := newProject(t)
	r := newFakeRunner()
	cs := newSession(t, dir, r, nil)

	text := resultText(callTool(t, cs, "setup_env", nil))
	for _, want := range []string{"Status: PASS", "Created .env file from .env.example", "Unset: OPENAI_API_KEY"} {
		if !strings.Contains(text, want) {
			t.Errorf("missing %q in:\n%s", want, text)
		}
	}
	if len(r.Calls) != 0 {
		t.Errorf("env bootstrap ran commands: %v", r.Calls)
	}

	text = resultText(callTool(t, cs, "setup_env", nil))
	if !strings.Contains(text, ".env file already exists") {
		t.Errorf("second call did not detect existing file:\n%s", text)
	}
}

// --- setup_inspect ---

func TestSetupInspect_NoRuns(t *testing.T) {
	cs := newSession(t, newProject(t), newFakeRunner(), nil)

	res := callTool(t, cs, "setup_inspect", nil)
	if !res.IsError {
		t.Fatal("expected error result")
	}
	if !strings.Contains(resultText(res), "No runs recorded yet") {
		t.Errorf("got %s", resultText(res))
	}
}

func TestSetupInspect_InvalidRunID(t *testing.T) {
	cs := newSession(t, newProject(t), newFakeRunner(), nil)

	res := callTool(t, cs, "setup_inspect", map[string]any{"run_id": "../etc/passwd"})
	if !res.IsError {
		t.Fatal("expected error result")
	}
}

func TestSetupInspect_Latest(t *testing.T) {
	cs := newSession(t, newProject(t), newFakeRunner(), nil)

	id := runID(t, resultText(callTool(t, cs, "setup_check", nil)))

	text := resultText(callTool(t, cs, "setup_inspect", nil))
	if !strings.Contains(text, "Run: "+id+" (check)") {
		t.Errorf("latest run not shown:\n%s", text)
	}
}

func TestSetupInspect_KindMismatch(t *testing.T) {
	cs := newSession(t, newProject(t), newFakeRunner(), nil)

	id := runID(t, resultText(callTool(t, cs, "setup_check", nil)))

	res := callTool(t, cs, "setup_inspect", map[string]any{"run_id": id, "kind": "setup"})
	if !res.IsError {
		t.Fatalf("expected error result, got:\n%s", resultText(res))
	}
	if !strings.Contains(resultText(res), "is a check run, not a setup run") {
		t.Errorf("got %s", resultText(res))
	}

	res = callTool(t, cs, "setup_inspect", map[string]any{"run_id": id, "kind": "check"})
	if res.IsError {
		t.Errorf("unexpected error: %s", resultText(res))
	}
}
