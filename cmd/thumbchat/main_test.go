package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/manash/thumbchat/internal/provider"
	"github.com/manash/thumbchat/internal/usage"
)

type mockProvider struct {
	generateFunc func(ctx context.Context, req *provider.GenerateRequest) (*provider.Result, error)
}

func (m *mockProvider) Name() string { return "mock" }

func (m *mockProvider) Generate(ctx context.Context, req *provider.GenerateRequest) (*provider.Result, error) {
	if m.generateFunc != nil {
		return m.generateFunc(ctx, req)
	}
	return &provider.Result{Image: []byte("fake png bytes")}, nil
}

func (m *mockProvider) Edit(context.Context, *provider.EditRequest) (*provider.Result, error) {
	return nil, errors.New("not implemented")
}

// resetFlags clears the package-level flag state that cobra binds to, so
// tests do not leak values into each other.
func resetFlags() {
	flagAPIKey = ""
	flagModel = ""
	flagSize = ""
	flagQuality = ""
	flagOutput = ""
	flagVerbose = false
}

func testApp(prov provider.Provider) (*App, *bytes.Buffer, *bytes.Buffer) {
	out := &bytes.Buffer{}
	errBuf := &bytes.Buffer{}
	app := &App{
		Out:    out,
		Err:    errBuf,
		GetEnv: func(string) string { return "" },
		NewProvider: func(*provider.Config) provider.Provider {
			return prov
		},
		NewLedger: func(string) (*usage.Store, error) {
			return nil, errors.New("no ledger in tests")
		},
	}
	return app, out, errBuf
}

func isolateEnv(t *testing.T) {
	t.Helper()
	t.Setenv("THUMBCHAT_CONFIG_DIR", t.TempDir())
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("THUMBCHAT_BASE_URL", "")
	t.Setenv("THUMBCHAT_MODEL", "")
	t.Setenv("THUMBCHAT_SIZE", "")
	t.Setenv("THUMBCHAT_QUALITY", "")
	t.Setenv("THUMBCHAT_TIMEOUT_SEC", "")
	t.Setenv("THUMBCHAT_DATA_DIR", "")
}

func TestRootCmd_Help(t *testing.T) {
	resetFlags()
	app, out, _ := testApp(&mockProvider{})

	cmd := newRootCmd(app)
	cmd.SetOut(out)
	cmd.SetArgs([]string{"--help"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	for _, frag := range []string{"thumbchat", "interactive chat", "keys", "usage"} {
		if !strings.Contains(out.String(), frag) {
			t.Errorf("help output missing %q", frag)
		}
	}
}

func TestRootCmd_RejectsExtraArgs(t *testing.T) {
	resetFlags()
	app, _, _ := testApp(&mockProvider{})

	cmd := newRootCmd(app)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"one prompt", "two prompts"})

	if err := cmd.Execute(); err == nil {
		t.Error("Execute() with two positional args should return error")
	}
}

func TestRootCmd_OneShot(t *testing.T) {
	resetFlags()
	isolateEnv(t)

	var gotPrompt string
	prov := &mockProvider{
		generateFunc: func(_ context.Context, req *provider.GenerateRequest) (*provider.Result, error) {
			gotPrompt = req.Prompt
			return &provider.Result{Image: []byte("fake png bytes")}, nil
		},
	}
	app, out, _ := testApp(prov)

	outPath := filepath.Join(t.TempDir(), "thumb.png")
	cmd := newRootCmd(app)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"a red arrow on a shocked face", "-o", outPath})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if !strings.Contains(gotPrompt, "a red arrow on a shocked face") {
		t.Errorf("provider prompt = %q, want it to contain the user text", gotPrompt)
	}
	if !strings.Contains(out.String(), "Saved: "+outPath) {
		t.Errorf("output = %q, want save confirmation", out.String())
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("reading saved file: %v", err)
	}
	if string(data) != "fake png bytes" {
		t.Errorf("saved bytes = %q", data)
	}
}

func TestRootCmd_OneShotProviderError(t *testing.T) {
	resetFlags()
	isolateEnv(t)

	prov := &mockProvider{
		generateFunc: func(context.Context, *provider.GenerateRequest) (*provider.Result, error) {
			return nil, provider.ErrGenerationFailed
		},
	}
	app, _, _ := testApp(prov)

	cmd := newRootCmd(app)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"a volcano"})

	if err := cmd.Execute(); !errors.Is(err, provider.ErrGenerationFailed) {
		t.Errorf("Execute() error = %v, want ErrGenerationFailed", err)
	}
}

func TestRootCmd_ModelOverrideFlag(t *testing.T) {
	resetFlags()
	isolateEnv(t)

	var gotModel string
	app, _, _ := testApp(&mockProvider{})
	app.NewProvider = func(cfg *provider.Config) provider.Provider {
		gotModel = cfg.Model
		return &mockProvider{}
	}

	outPath := filepath.Join(t.TempDir(), "thumb.png")
	cmd := newRootCmd(app)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"a volcano", "-m", "dall-e-3", "-o", outPath})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if gotModel != "dall-e-3" {
		t.Errorf("provider model = %q, want dall-e-3", gotModel)
	}
}

func TestKeysCmd_SetShowDelete(t *testing.T) {
	resetFlags()
	isolateEnv(t)

	app, out, _ := testApp(&mockProvider{})

	cmd := newRootCmd(app)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"keys", "set", "sk-1234567890abcdef"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("keys set error = %v", err)
	}
	if !strings.Contains(out.String(), "Stored key sk-1***********cdef") {
		t.Errorf("keys set output = %q", out.String())
	}

	out.Reset()
	cmd = newRootCmd(app)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"keys", "show"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("keys show error = %v", err)
	}
	if !strings.Contains(out.String(), "sk-1***********cdef") {
		t.Errorf("keys show output = %q", out.String())
	}
	if strings.Contains(out.String(), "sk-1234567890abcdef") {
		t.Error("keys show printed the raw key")
	}

	out.Reset()
	cmd = newRootCmd(app)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"keys", "delete"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("keys delete error = %v", err)
	}
	if !strings.Contains(out.String(), "Key deleted.") {
		t.Errorf("keys delete output = %q", out.String())
	}

	out.Reset()
	cmd = newRootCmd(app)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"keys", "show"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("keys show error = %v", err)
	}
	if !strings.Contains(out.String(), "No key stored.") {
		t.Errorf("keys show after delete = %q", out.String())
	}
}

func TestUsageCmd(t *testing.T) {
	resetFlags()
	isolateEnv(t)

	store, err := usage.NewStoreWithPath(filepath.Join(t.TempDir(), "usage.db"))
	if err != nil {
		t.Fatalf("NewStoreWithPath() error = %v", err)
	}
	if err := store.Record(context.Background(), &usage.Entry{
		SessionID:    "s1",
		Operation:    "generate",
		Model:        "gpt-image-1",
		InputTokens:  10,
		OutputTokens: 4000,
		TotalTokens:  4010,
	}); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	app, out, _ := testApp(&mockProvider{})
	app.NewLedger = func(string) (*usage.Store, error) { return store, nil }

	cmd := newRootCmd(app)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"usage"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("usage error = %v", err)
	}
	if !strings.Contains(out.String(), "All time: 1 call(s), 4010 tokens") {
		t.Errorf("usage output = %q", out.String())
	}
	if !strings.Contains(out.String(), "generate") {
		t.Errorf("usage output missing per-operation line: %q", out.String())
	}
}
