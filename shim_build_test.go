package luahook_test

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sliverarmory/luahook"
	"github.com/sliverarmory/luahook/dynsym"
)

type shimTarget struct {
	goarch    string
	zigTarget string
	fileProbe string
}

var shimTargets = []shimTarget{
	{goarch: "amd64", zigTarget: "x86_64-linux-gnu", fileProbe: "x86-64"},
	{goarch: "arm64", zigTarget: "aarch64-linux-gnu", fileProbe: "ARM aarch64"},
}

func TestBuildShimMatrix(t *testing.T) {
	if testing.Short() {
		t.Skip("builds the shim with the go toolchain")
	}
	requireCommand(t, "go")
	requireCommand(t, "zig")
	requireCommand(t, "file")
	requireCommand(t, "nm")

	outDir := t.TempDir()

	for _, target := range shimTargets {
		t.Run("linux-"+target.goarch, func(t *testing.T) {
			path := buildShim(t, outDir, target)

			fileOut := runCmd(t, "file", path)
			assert.Contains(t, fileOut, target.fileProbe)

			nmOut := runCmd(t, "nm", "-D", "--defined-only", path)
			for _, name := range []string{luahook.SymDoFile, "luahook_native_write"} {
				assert.True(t, hasSymbol(nmOut, name), "expected exported symbol %s in %s", name, path)
			}

			exports, err := dynsym.FindExports(path, []string{luahook.SymDoFile, luahook.SymDoString})
			require.NoError(t, err)
			assert.Contains(t, exports, luahook.SymDoFile)
			assert.NotContains(t, exports, luahook.SymDoString, "the shim must not define companion entry points")
		})
	}
}

func buildShim(t *testing.T, outDir string, target shimTarget) string {
	t.Helper()

	outputPath := filepath.Join(outDir, fmt.Sprintf("libluahook_linux-%s.so", target.goarch))
	cmd := exec.Command("go", "build", "-buildmode=c-shared", "-trimpath", "-o", outputPath, "./shim")
	cmd.Env = overrideEnv(os.Environ(), map[string]string{
		"GOOS":                 "linux",
		"GOARCH":               target.goarch,
		"CGO_ENABLED":          "1",
		"CC":                   "zig cc -target " + target.zigTarget,
		"CXX":                  "zig c++ -target " + target.zigTarget,
		"GOCACHE":              filepath.Join(os.TempDir(), "luahook-go-build-cache"),
		"ZIG_GLOBAL_CACHE_DIR": filepath.Join(os.TempDir(), "luahook-zig-global-cache"),
		"ZIG_LOCAL_CACHE_DIR":  filepath.Join(os.TempDir(), "luahook-zig-local-cache"),
	})
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("build shim target=linux/%s: %v\n%s", target.goarch, err, out)
	}

	_ = os.Remove(strings.TrimSuffix(outputPath, ".so") + ".h")
	return outputPath
}

func hasSymbol(nmOut string, name string) bool {
	for _, line := range strings.Split(nmOut, "\n") {
		fields := strings.Fields(line)
		if len(fields) > 0 && fields[len(fields)-1] == name {
			return true
		}
	}
	return false
}

func overrideEnv(base []string, overrides map[string]string) []string {
	out := make([]string, 0, len(base)+len(overrides))
	for _, kv := range base {
		eq := strings.IndexByte(kv, '=')
		if eq <= 0 {
			continue
		}
		if _, drop := overrides[kv[:eq]]; drop {
			continue
		}
		out = append(out, kv)
	}
	for key, value := range overrides {
		out = append(out, key+"="+value)
	}
	return out
}

func runCmd(t *testing.T, name string, args ...string) string {
	t.Helper()

	output, err := exec.Command(name, args...).CombinedOutput()
	if err != nil {
		t.Fatalf("%s %s failed: %v\n%s", name, strings.Join(args, " "), err, output)
	}
	return string(output)
}

func requireCommand(t *testing.T, name string) {
	t.Helper()
	if _, err := exec.LookPath(name); err != nil {
		t.Skipf("%s not found in PATH", name)
	}
}
