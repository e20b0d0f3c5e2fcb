package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"

	"github.com/ardiustech/eng-ai-assistant/internal/errdefs"
)

// BrowserKind identifies the type of Chromium-based browser.
type BrowserKind string

const (
	BrowserEdge     BrowserKind = "edge"
	BrowserChrome   BrowserKind = "chrome"
	BrowserChromium BrowserKind = "chromium"
	BrowserCustom   BrowserKind = "custom"
)

// BrowserExecutable represents a found browser binary.
type BrowserExecutable struct {
	Kind BrowserKind
	Path string
}

// VersionInfo is the subset of /json/version the assistant reads.
type VersionInfo struct {
	Browser              string `json:"Browser"`
	ProtocolVersion      string `json:"Protocol-Version"`
	UserAgent            string `json:"User-Agent"`
	WebSocketDebuggerURL string `json:"webSocketDebuggerUrl"`
}

// candidate is one well-known install location.
type candidate struct {
	kind BrowserKind
	path string
}

// FindBrowserExecutable returns the first installed browser, trying the
// custom path first and then the platform's well-known locations with Edge
// ahead of Chrome.
func FindBrowserExecutable(customPath string) (*BrowserExecutable, error) {
	if customPath != "" {
		if !fileExists(customPath) {
			return nil, &errdefs.NotFoundError{Kind: "executable", Name: customPath,
				Hint: "BROWSER_EXECUTABLE points at a file that does not exist."}
		}
		return &BrowserExecutable{Kind: BrowserCustom, Path: customPath}, nil
	}

	for _, c := range candidates(runtime.GOOS) {
		if fileExists(c.path) {
			return &BrowserExecutable{Kind: c.kind, Path: c.path}, nil
		}
	}
	return nil, &errdefs.NotFoundError{Kind: "executable", Name: "Microsoft Edge, Google Chrome or Chromium"}
}

func candidates(goos string) []candidate {
	home := os.Getenv("HOME")
	switch goos {
	case "darwin":
		return []candidate{
			{BrowserEdge, "/Applications/Microsoft Edge.app/Contents/MacOS/Microsoft Edge"},
			{BrowserEdge, filepath.Join(home, "Applications/Microsoft Edge.app/Contents/MacOS/Microsoft Edge")},
			{BrowserChrome, "/Applications/Google Chrome.app/Contents/MacOS/Google Chrome"},
			{BrowserChrome, filepath.Join(home, "Applications/Google Chrome.app/Contents/MacOS/Google Chrome")},
			{BrowserChromium, "/Applications/Chromium.app/Contents/MacOS/Chromium"},
		}
	case "linux":
		return []candidate{
			{BrowserEdge, "/usr/bin/microsoft-edge"},
			{BrowserEdge, "/usr/bin/microsoft-edge-stable"},
			{BrowserEdge, "/opt/microsoft/msedge/msedge"},
			{BrowserChrome, "/usr/bin/google-chrome"},
			{BrowserChrome, "/usr/bin/google-chrome-stable"},
			{BrowserChromium, "/usr/bin/chromium"},
			{BrowserChromium, "/usr/bin/chromium-browser"},
			{BrowserChromium, "/snap/bin/chromium"},
		}
	case "windows":
		programFiles := os.Getenv("ProgramFiles")
		if programFiles == "" {
			programFiles = `C:\Program Files`
		}
		programFilesX86 := os.Getenv("ProgramFiles(x86)")
		if programFilesX86 == "" {
			programFilesX86 = `C:\Program Files (x86)`
		}
		out := []candidate{
			{BrowserEdge, filepath.Join(programFilesX86, "Microsoft", "Edge", "Application", "msedge.exe")},
			{BrowserEdge, filepath.Join(programFiles, "Microsoft", "Edge", "Application", "msedge.exe")},
		}
		if local := os.Getenv("LOCALAPPDATA"); local != "" {
			out = append(out, candidate{BrowserChrome, filepath.Join(local, "Google", "Chrome", "Application", "chrome.exe")})
		}
		return append(out,
			candidate{BrowserChrome, filepath.Join(programFiles, "Google", "Chrome", "Application", "chrome.exe")},
			candidate{BrowserChrome, filepath.Join(programFilesX86, "Google", "Chrome", "Application", "chrome.exe")},
		)
	}
	return nil
}

// ProbeVersion fetches /json/version from the debugging endpoint on port.
// Any failure, including a response without a Browser field, means the
// endpoint is not usable. A non-positive timeout means DefaultProbeTimeout.
func ProbeVersion(ctx context.Context, port int, timeout time.Duration) (*VersionInfo, error) {
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpointURL(port)+"/json/version", nil)
	if err != nil {
		return nil, err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("debug endpoint returned %s", resp.Status)
	}

	var version VersionInfo
	if err := json.NewDecoder(resp.Body).Decode(&version); err != nil {
		return nil, fmt.Errorf("decode /json/version: %w", err)
	}
	if version.Browser == "" {
		return nil, fmt.Errorf("no Browser field in /json/version")
	}
	return &version, nil
}

// IsReachable reports whether a browser answers on port.
func IsReachable(ctx context.Context, port int, timeout time.Duration) bool {
	_, err := ProbeVersion(ctx, port, timeout)
	return err == nil
}

func endpointURL(port int) string {
	return fmt.Sprintf("http://localhost:%d", port)
}

// Process is a browser process started by the assistant.
type Process interface {
	Pid() int
	Kill() error
}

type execProcess struct {
	cmd *exec.Cmd
}

func (p *execProcess) Pid() int {
	if p.cmd.Process == nil {
		return 0
	}
	return p.cmd.Process.Pid
}

func (p *execProcess) Kill() error {
	if p.cmd.Process == nil {
		return nil
	}
	killProcessGroup(p.cmd, false)
	done := make(chan struct{})
	go func() {
		_ = p.cmd.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		killProcessGroup(p.cmd, true)
	}
	return nil
}

// LaunchDetached starts exe with args in its own process group and returns
// without waiting for the debugging endpoint.
func LaunchDetached(exe *BrowserExecutable, args []string) (Process, error) {
	cmd := exec.Command(exe.Path, args...)
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil
	setProcessGroup(cmd)

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", exe.Kind, err)
	}
	return &execProcess{cmd: cmd}, nil
}

func buildLaunchArgs(port int, userDataDir string, extra []string) []string {
	args := []string{
		fmt.Sprintf("--remote-debugging-port=%d", port),
		fmt.Sprintf("--user-data-dir=%s", userDataDir),
	}
	return append(args, extra...)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
