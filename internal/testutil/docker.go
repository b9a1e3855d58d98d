// Package testutil содержит помощники для интеграционных тестов.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/docker/docker/client"
)

// RequireDocker пропускает тест в -short режиме и когда демон Docker недоступен.
func RequireDocker(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		t.Skipf("Docker client init error: %v", err)
	}
	defer cli.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := cli.Ping(ctx); err != nil {
		t.Skipf("Docker daemon is not accessible: %v", err)
	}
}
