// Copyright 2025 SirSeer, LLC
//
// Licensed under the Business Source License 1.1 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://mariadb.com/bsl11
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package testutil

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

// cliTimeout bounds a single CLI invocation.
const cliTimeout = 2 * time.Minute

var (
	binaryOnce sync.Once
	binaryPath string
	buildErr   error
)

// BuildBinary builds the scout binary once per test run.
func BuildBinary(t *testing.T) string {
	t.Helper()

	binaryOnce.Do(func() {
		root, err := findProjectRoot()
		if err != nil {
			buildErr = err
			return
		}

		// Outlives any single test's TempDir.
		dir, err := os.MkdirTemp("", "sirseer-scout-test")
		if err != nil {
			buildErr = err
			return
		}
		binaryPath = filepath.Join(dir, "scout")

		cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/scout")
		cmd.Dir = root
		if output, err := cmd.CombinedOutput(); err != nil {
			buildErr = errors.New(strings.TrimSpace(string(output)))
		}
	})

	if buildErr != nil {
		t.Fatalf("Failed to build binary: %v", buildErr)
	}
	return binaryPath
}

// CLIResult contains the result of running a CLI command
type CLIResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Err      error
}

// RunCLI executes the scout binary with args. env entries override the
// inherited environment.
func RunCLI(t *testing.T, args []string, env map[string]string) CLIResult {
	t.Helper()

	binary := BuildBinary(t)

	ctx, cancel := context.WithTimeout(context.Background(), cliTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Env = os.Environ()
	for k, v := range env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	result := CLIResult{Stdout: stdout.String(), Stderr: stderr.String(), Err: err}
	var exitErr *exec.ExitError
	switch {
	case errors.As(err, &exitErr):
		result.ExitCode = exitErr.ExitCode()
	case err != nil:
		result.ExitCode = -1
	}
	return result
}

// SearchEnv is the environment for running search against a mock GraphQL
// endpoint. HOME points at stateDir so no user config file is picked up.
func SearchEnv(graphqlURL, stateDir string) map[string]string {
	return map[string]string{
		"GITHUB_TOKEN":            "test-token",
		"GITHUB_GRAPHQL_ENDPOINT": graphqlURL,
		"SCOUT_STATE_DIR":         stateDir,
		"HOME":                    stateDir,
	}
}

// RunSearchWithMockServer runs `scout search query args...` against a mock
// GraphQL endpoint, keeping checkpoints and metadata in stateDir.
func RunSearchWithMockServer(t *testing.T, graphqlURL, stateDir, query string, args ...string) CLIResult {
	t.Helper()
	return RunCLI(t, append([]string{"search", query}, args...), SearchEnv(graphqlURL, stateDir))
}

// AssertCLISuccess checks that the CLI command succeeded
func AssertCLISuccess(t *testing.T, result CLIResult) {
	t.Helper()
	if result.Err != nil {
		t.Fatalf("Command failed: %v\nStderr: %s", result.Err, result.Stderr)
	}
}

// AssertExitCode checks the command exit code
func AssertExitCode(t *testing.T, result CLIResult, expected int) {
	t.Helper()
	if result.ExitCode != expected {
		t.Errorf("Expected exit code %d, got %d\nStderr: %s", expected, result.ExitCode, result.Stderr)
	}
}

func findProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", os.ErrNotExist
		}
		dir = parent
	}
}
