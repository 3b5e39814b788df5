package blackbox

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func projectRootFromThisFile(t *testing.T) string {
	t.Helper()
	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("runtime.Caller failed")
	}
	// this file: <root>/tests/blackbox/blackbox_test.go
	bbDir := filepath.Dir(thisFile)
	root := filepath.Dir(filepath.Dir(bbDir))
	return root
}

func buildBinary(t *testing.T) string {
	t.Helper()
	root := projectRootFromThisFile(t)
	outDir := t.TempDir()
	binPath := filepath.Join(outDir, "llamadeck")
	cmd := exec.Command("go", "build", "-o", binPath, "./cmd/llamadeck")
	cmd.Dir = root
	cmd.Env = append(os.Environ(), "CGO_ENABLED=0")
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("go build failed: %v\n%s", err, string(out))
	}
	return binPath
}

func run(t *testing.T, bin string, env []string, args ...string) (string, string, int) {
	t.Helper()
	cmd := exec.Command(bin, args...)
	cmd.Env = append(os.Environ(), env...)
	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	code := 0
	if err != nil {
		ee, ok := err.(*exec.ExitError)
		if !ok {
			t.Fatalf("run %v: %v", args, err)
		}
		code = ee.ExitCode()
	}
	return stdout.String(), stderr.String(), code
}

func TestBlackbox_ConfigProxy(t *testing.T) {
	bin := buildBinary(t)

	stdout, _, code := run(t, bin,
		[]string{"API_TOKEN=blackbox-token"},
		"config", "proxy", "--proxy-port", "18000", "--supervisor-port", "18080")
	if code != 0 {
		t.Fatalf("exit code %d", code)
	}
	if !strings.Contains(stdout, "listen 18000;") {
		t.Fatalf("missing listen directive:\n%s", stdout)
	}
	if !strings.Contains(stdout, "http://localhost:18080") {
		t.Fatalf("missing upstream:\n%s", stdout)
	}
	if !strings.Contains(stdout, `"Bearer blackbox-token"`) {
		t.Fatalf("missing bearer guard:\n%s", stdout)
	}
}

func TestBlackbox_ConfigProxyOpen(t *testing.T) {
	bin := buildBinary(t)

	stdout, _, code := run(t, bin, []string{"API_TOKEN="}, "config", "proxy")
	if code != 0 {
		t.Fatalf("exit code %d", code)
	}
	if strings.Contains(stdout, "403") {
		t.Fatalf("open proxy should carry no auth guard:\n%s", stdout)
	}
}

func TestBlackbox_UnknownCommandFails(t *testing.T) {
	bin := buildBinary(t)

	_, stderr, code := run(t, bin, nil, "frobnicate")
	if code == 0 {
		t.Fatalf("unknown command should fail\nstderr: %s", stderr)
	}
}

func TestBlackbox_Help(t *testing.T) {
	bin := buildBinary(t)

	stdout, _, code := run(t, bin, nil, "--help")
	if code != 0 {
		t.Fatalf("exit code %d", code)
	}
	for _, sub := range []string{"serve", "build", "gpus", "config"} {
		if !strings.Contains(stdout, sub) {
			t.Fatalf("help missing %q:\n%s", sub, stdout)
		}
	}
}
