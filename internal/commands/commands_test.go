package commands

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"rcos/taskos/export"
	"rcos/taskos/metrics"
	"rcos/taskos/proto"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := root.ExecuteContext(ctx)
	return out.String(), errOut.String(), err
}

func TestRunCommand(t *testing.T) {
	out, log, err := execute(t, "run", "hello", "yield_a", "--sleep-ms", "1")
	if err != nil {
		t.Fatalf("run: %v\n%s", err, log)
	}
	if !strings.Contains(out, "Hello, world from user mode program!") || !strings.Contains(out, "yield A pass.") {
		t.Fatalf("unexpected console output:\n%s", out)
	}
	if !strings.Contains(log, "[ INFO] rcos: all programs exited") {
		t.Fatalf("missing completion log:\n%s", log)
	}
}

func TestRunCommandRejectsBadFlags(t *testing.T) {
	if _, _, err := execute(t, "run", "--log-level", "loud"); err == nil {
		t.Fatal("expected error for unknown log level")
	}
	if _, _, err := execute(t, "run", "--mem", "0"); err == nil {
		t.Fatal("expected error for zero memory")
	}
	if _, _, err := execute(t, "run", "nope"); err == nil {
		t.Fatal("expected error for unknown program")
	}
}

func TestSnapshotCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "acct.parquet")
	_, log, err := execute(t, "snapshot", "-o", path, "--sleep-ms", "2", "hello", "taskinfo")
	if err != nil {
		t.Fatalf("snapshot: %v\n%s", err, log)
	}

	rows, err := export.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[0].Name != "hello" || rows[1].Name != "taskinfo" {
		t.Fatalf("rows = %+v", rows)
	}
	for _, r := range rows {
		if r.Status != "exited" || r.Exit != 1 || r.BootID == "" {
			t.Fatalf("row = %+v", r)
		}
	}
	if rows[0].BootID != rows[1].BootID || !strings.Contains(log, "boot "+rows[0].BootID+" ") {
		t.Fatalf("boot id %q not in boot log:\n%s", rows[0].BootID, log)
	}
	if rows[1].TaskInfo != 1 || rows[1].GetTime == 0 {
		t.Fatalf("taskinfo row = %+v", rows[1])
	}
}

func TestVersionCommand(t *testing.T) {
	out, _, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out, "rcos ") {
		t.Fatalf("version output = %q", out)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prom.NewRegistry()
	exp, err := metrics.NewExporter("rcos", reg, "boot-test")
	if err != nil {
		t.Fatalf("NewExporter: %v", err)
	}
	exp.RecordSwitch(0, 1)

	srv := httptest.NewServer(newMux(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(body), `rcos_context_switch_total{boot_id="boot-test"} 1`) {
		t.Fatalf("metrics body:\n%s", body)
	}

	resp, err = http.Get(srv.URL + "/missing")
	if err != nil {
		t.Fatalf("GET /missing: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestServeStopsOnCancel(t *testing.T) {
	opts := &kernelOptions{logLevel: "info", memBytes: 16 << 10, sleepMs: 1}
	cfg, err := opts.config([]string{"hello"})
	if err != nil {
		t.Fatalf("config: %v", err)
	}

	var out, log bytes.Buffer
	cmd := NewServeCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&log)
	s, err := boot(cmd, cfg)
	if err != nil {
		t.Fatalf("boot: %v", err)
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serve(ctx, s, ln, prom.NewRegistry()) }()

	deadline := time.Now().Add(5 * time.Second)
	for s.sys.Kernel().Snapshot()[0].Status != proto.StatusExited {
		if time.Now().After(deadline) {
			t.Fatal("workload did not run")
		}
		time.Sleep(10 * time.Millisecond)
	}
	cancel()

	select {
	case err := <-done:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Fatalf("serve: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not stop")
	}
}
