package workflow

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/silkstream/tunnelctl/internal/provision"
	"github.com/silkstream/tunnelctl/internal/routing"
	"github.com/silkstream/tunnelctl/internal/tunnel"
	"github.com/silkstream/tunnelctl/internal/vhost"
)

type fixture struct {
	runner    *Runner
	mock      *tunnel.Mock
	configDir string
	vhostPath string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	configDir := t.TempDir()
	vhostPath := filepath.Join(t.TempDir(), "httpd-vhosts.conf")
	if err := os.WriteFile(vhostPath, []byte("# vhosts\n"), 0644); err != nil {
		t.Fatal(err)
	}

	mock := tunnel.NewMock()
	mock.SetIdentity(tunnel.Identity{
		UUID:            "abc-123",
		CredentialsPath: filepath.Join(configDir, "abc-123.json"),
	})

	return &fixture{
		runner: &Runner{
			Provisioner: mock,
			Writer:      &routing.Writer{Dir: configDir},
			Patcher:     &vhost.Patcher{Path: vhostPath},
		},
		mock:      mock,
		configDir: configDir,
		vhostPath: vhostPath,
	}
}

func baseRequest() provision.Request {
	return provision.Request{
		TunnelName: "my-site",
		ConfigName: "my-site",
		Hostname:   "my-site.example.com",
		Port:       8888,
	}
}

func run(t *testing.T, f *fixture, req provision.Request) (Result, []string) {
	t.Helper()
	var progress []string
	result := Wait(f.runner.Run(context.Background(), req), func(msg string) {
		progress = append(progress, msg)
	})
	return result, progress
}

func (f *fixture) configPath() string {
	return filepath.Join(f.configDir, "my-site.yml")
}

func TestRun_Success(t *testing.T) {
	f := newFixture(t)

	result, progress := run(t, f, baseRequest())

	if result.Status != StatusSuccess {
		t.Fatalf("Status = %v, want success (err: %v)", result.Status, result.Err)
	}
	if result.VHostUpdated {
		t.Error("VHostUpdated should be false when not requested")
	}
	if !strings.HasSuffix(result.ConfigPath, "my-site.yml") {
		t.Errorf("ConfigPath = %q", result.ConfigPath)
	}
	if result.Tunnel == nil || result.Tunnel.UUID != "abc-123" {
		t.Errorf("Tunnel = %+v", result.Tunnel)
	}

	data, err := os.ReadFile(result.ConfigPath)
	if err != nil {
		t.Fatalf("config file missing: %v", err)
	}
	for _, s := range []string{"abc-123", "my-site.example.com", "8888"} {
		if !strings.Contains(string(data), s) {
			t.Errorf("config should contain %q", s)
		}
	}

	if len(progress) < 3 {
		t.Errorf("expected progress notices for each stage, got %v", progress)
	}
}

func TestRun_SuccessLeavesVHostUntouched(t *testing.T) {
	f := newFixture(t)
	before, _ := os.ReadFile(f.vhostPath)

	result, _ := run(t, f, baseRequest())
	if result.Status != StatusSuccess {
		t.Fatalf("Status = %v", result.Status)
	}

	after, _ := os.ReadFile(f.vhostPath)
	if string(before) != string(after) {
		t.Error("vhost file must be byte-identical when UpdateVHost is false")
	}
}

func TestRun_SuccessWithVHost(t *testing.T) {
	f := newFixture(t)

	req := baseRequest()
	req.UpdateVHost = true
	req.DocumentRoot = t.TempDir()

	result, _ := run(t, f, req)

	if result.Status != StatusSuccess {
		t.Fatalf("Status = %v (err: %v)", result.Status, result.Err)
	}
	if !result.VHostUpdated {
		t.Error("VHostUpdated should be true")
	}

	data, _ := os.ReadFile(f.vhostPath)
	content := string(data)
	if !strings.Contains(content, "my-site.example.com") {
		t.Error("vhost file should gain a block for the hostname")
	}
	if !strings.Contains(content, req.DocumentRoot) {
		t.Error("vhost block should reference the document root")
	}
	if n := strings.Count(content, "ServerName my-site.example.com"); n != 1 {
		t.Errorf("ServerName count = %d, want 1", n)
	}
}

func TestRun_ValidationFailureMakesNoCalls(t *testing.T) {
	f := newFixture(t)

	invalid := []provision.Request{
		{TunnelName: "", ConfigName: "c", Hostname: "a.example.com", Port: 80},
		{TunnelName: "t", ConfigName: "a/b", Hostname: "a.example.com", Port: 80},
		{TunnelName: "t", ConfigName: "c", Hostname: "nodots", Port: 80},
		{TunnelName: "t", ConfigName: "c", Hostname: "a.example.com", Port: 0},
		{TunnelName: "t", ConfigName: "c", Hostname: "a.example.com", Port: 80, UpdateVHost: true},
	}

	for _, req := range invalid {
		result, _ := run(t, f, req)

		if result.Status != StatusFailure {
			t.Errorf("Status = %v for %+v, want failure", result.Status, req)
		}
		if result.Stage != StageValidate {
			t.Errorf("Stage = %v, want validate", result.Stage)
		}
	}

	if calls := f.mock.GetCallsFor("Create"); len(calls) != 0 {
		t.Errorf("provisioner was invoked %d times for invalid requests", len(calls))
	}

	entries, _ := os.ReadDir(f.configDir)
	if len(entries) != 0 {
		t.Error("no local files may be created before validation passes")
	}
}

func TestRun_ProvisionFailure(t *testing.T) {
	f := newFixture(t)
	f.mock.SetError(&tunnel.Error{Message: "name already in use"})

	result, _ := run(t, f, baseRequest())

	if result.Status != StatusFailure {
		t.Fatalf("Status = %v, want failure", result.Status)
	}
	if result.Stage != StageTunnel {
		t.Errorf("Stage = %v, want tunnel", result.Stage)
	}
	if result.Err == nil || result.Err.Error() != "name already in use" {
		t.Errorf("Err = %v, want the remote diagnostic verbatim", result.Err)
	}

	if _, err := os.Stat(f.configPath()); !os.IsNotExist(err) {
		t.Error("config file must not exist after a tunnel failure")
	}
}

func TestRun_ConfigWriteFailureIsPartial(t *testing.T) {
	f := newFixture(t)

	// Pre-existing config of the same name and Overwrite unset force the
	// write stage to fail after the tunnel is created.
	if err := os.WriteFile(f.configPath(), []byte("tunnel: old\n"), 0644); err != nil {
		t.Fatal(err)
	}
	vhostBefore, _ := os.ReadFile(f.vhostPath)

	req := baseRequest()
	req.UpdateVHost = true
	req.DocumentRoot = t.TempDir()

	result, _ := run(t, f, req)

	if result.Status != StatusPartialFailure {
		t.Fatalf("Status = %v, want partial-failure", result.Status)
	}
	if result.Stage != StageConfig {
		t.Errorf("Stage = %v, want config", result.Stage)
	}
	if result.Tunnel == nil {
		t.Error("partial failure must carry the orphaned tunnel identity")
	}

	// No vhost patch may be attempted after a config failure.
	vhostAfter, _ := os.ReadFile(f.vhostPath)
	if string(vhostBefore) != string(vhostAfter) {
		t.Error("vhost file must be untouched after a config-stage failure")
	}
}

func TestRun_VHostFailureIsPartial(t *testing.T) {
	f := newFixture(t)
	f.runner.Patcher = &vhost.Patcher{Path: filepath.Join(t.TempDir(), "missing.conf")}

	req := baseRequest()
	req.UpdateVHost = true
	req.DocumentRoot = t.TempDir()

	result, _ := run(t, f, req)

	if result.Status != StatusPartialFailure {
		t.Fatalf("Status = %v, want partial-failure", result.Status)
	}
	if result.Stage != StageVHost {
		t.Errorf("Stage = %v, want vhost", result.Stage)
	}

	// The config stage already succeeded and stays in place.
	if result.ConfigPath == "" {
		t.Error("ConfigPath should be set on a vhost-stage failure")
	}
	if _, err := os.Stat(f.configPath()); err != nil {
		t.Errorf("config file should survive a vhost failure: %v", err)
	}
}

func TestRun_CancellationBeforeProvisioning(t *testing.T) {
	f := newFixture(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := Wait(f.runner.Run(ctx, baseRequest()), nil)

	if result.Status != StatusFailure {
		t.Fatalf("Status = %v, want failure", result.Status)
	}
	if calls := f.mock.GetCallsFor("Create"); len(calls) != 0 {
		t.Error("a cancelled run must not reach the provisioner")
	}
}

func TestRun_RejectsConcurrentSameConfigName(t *testing.T) {
	f := newFixture(t)

	// Hold the in-flight slot as a running workflow would.
	if !f.runner.acquire("my-site") {
		t.Fatal("acquire failed on a fresh runner")
	}
	defer f.runner.release("my-site")

	result, _ := run(t, f, baseRequest())

	if result.Status != StatusFailure {
		t.Fatalf("Status = %v, want failure", result.Status)
	}
	if result.Err == nil || !strings.Contains(result.Err.Error(), "in flight") {
		t.Errorf("Err = %v, want an in-flight rejection", result.Err)
	}
	if calls := f.mock.GetCallsFor("Create"); len(calls) != 0 {
		t.Error("a rejected duplicate must not reach the provisioner")
	}
}

func TestRun_DifferentConfigNamesProceedIndependently(t *testing.T) {
	f := newFixture(t)

	var wg sync.WaitGroup
	results := make([]Result, 2)
	reqs := []provision.Request{
		{TunnelName: "one", ConfigName: "one", Hostname: "one.example.com", Port: 8001},
		{TunnelName: "two", ConfigName: "two", Hostname: "two.example.com", Port: 8002},
	}

	for i := range reqs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = Wait(f.runner.Run(context.Background(), reqs[i]), nil)
		}(i)
	}
	wg.Wait()

	for i, r := range results {
		if r.Status != StatusSuccess {
			t.Errorf("request %d: Status = %v (err: %v)", i, r.Status, r.Err)
		}
	}
}

func TestRun_EventStreamEndsInResult(t *testing.T) {
	f := newFixture(t)

	events := f.runner.Run(context.Background(), baseRequest())

	var sawResult bool
	for ev := range events {
		if sawResult {
			t.Fatal("no events may follow the terminal result")
		}
		if ev.Result != nil {
			sawResult = true
		}
	}
	if !sawResult {
		t.Fatal("stream must end in a terminal result")
	}
}
