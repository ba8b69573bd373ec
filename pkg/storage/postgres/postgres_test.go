package postgres

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	pgmodule "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/mrorigo/ors-proxy/pkg/api"
)

func init() {
	// Configure testcontainers to use podman.
	if os.Getenv("DOCKER_HOST") == "" {
		out, err := exec.Command("podman", "machine", "inspect", "--format", "{{.ConnectionInfo.PodmanSocket.Path}}").Output()
		if err == nil {
			sock := strings.TrimSpace(string(out))
			if sock != "" {
				os.Setenv("DOCKER_HOST", "unix://"+sock)
			}
		}
	}
	if os.Getenv("TESTCONTAINERS_RYUK_CONTAINER_PRIVILEGED") == "" {
		os.Setenv("TESTCONTAINERS_RYUK_CONTAINER_PRIVILEGED", "true")
	}
}

// setupTestDB starts a PostgreSQL container and returns a connected Store.
// Tests are skipped if SKIP_INTEGRATION=true, if no podman binary is on
// PATH, or if the container fails to start.
func setupTestDB(t *testing.T) *Store {
	t.Helper()

	if os.Getenv("SKIP_INTEGRATION") == "true" {
		t.Skip("SKIP_INTEGRATION=true, skipping PostgreSQL integration tests")
	}
	if _, err := exec.LookPath("podman"); err != nil {
		t.Skip("podman not found, skipping integration tests")
	}

	ctx := context.Background()

	container, err := pgmodule.Run(ctx,
		"postgres:16-alpine",
		pgmodule.WithDatabase("orsproxy_test"),
		pgmodule.WithUsername("test"),
		pgmodule.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Skipf("skipping: could not start PostgreSQL container (is podman running?): %v", err)
	}
	t.Cleanup(func() { container.Terminate(context.Background()) })

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("getting connection string: %v", err)
	}

	store, err := New(ctx, Config{
		DSN:            connStr,
		MaxConns:       5,
		MinConns:       1,
		MigrateOnStart: true,
	})
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return store
}

func testConversationID() string {
	return fmt.Sprintf("conv_pg_test_%d", time.Now().UnixNano())
}

func userMessage(text string) api.Item {
	return api.Item{
		Type: api.ItemTypeMessage,
		Message: &api.MessageData{
			Role:    api.RoleUser,
			Content: []api.ContentPart{{Type: api.ContentPartInputText, Text: text}},
		},
	}
}

func TestPostgres_LoadContext_UnknownConversationIsEmpty(t *testing.T) {
	store := setupTestDB(t)
	items, err := store.LoadContext(context.Background(), "conv_nonexistent")
	if err != nil {
		t.Fatalf("LoadContext failed: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected no items, got %+v", items)
	}
}

func TestPostgres_SaveThenLoadRoundTrips(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()
	conv := testConversationID()

	input := []api.Item{userMessage("hello")}
	events := []api.StreamEvent{
		{Type: api.EventOutputItemAdded, Item: &api.Item{ID: "msg_out1", Type: api.ItemTypeMessage}},
		{Type: api.EventOutputTextDelta, ItemID: "msg_out1", Delta: "hi there"},
		{Type: api.EventOutputItemDone, Item: &api.Item{ID: "msg_out1", Type: api.ItemTypeMessage, Status: api.ItemStatusCompleted}},
	}

	if err := store.SaveInteraction(ctx, conv, input, events); err != nil {
		t.Fatalf("SaveInteraction failed: %v", err)
	}

	items, err := store.LoadContext(ctx, conv)
	if err != nil {
		t.Fatalf("LoadContext failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].Message.Role != api.RoleUser {
		t.Errorf("input item role = %q, want user", items[0].Message.Role)
	}
	if items[1].Message.Role != api.RoleAssistant || items[1].Message.Content[0].Text != "hi there" {
		t.Errorf("output item mismatch: %+v", items[1])
	}
}

func TestPostgres_SaveInteractionAppendsSequentially(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()
	conv := testConversationID()

	store.SaveInteraction(ctx, conv, []api.Item{userMessage("first")}, nil)
	store.SaveInteraction(ctx, conv, []api.Item{userMessage("second")}, nil)

	items, err := store.LoadContext(ctx, conv)
	if err != nil {
		t.Fatalf("LoadContext failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items across both turns, got %d", len(items))
	}
	if items[0].Message.Content[0].Text != "first" || items[1].Message.Content[0].Text != "second" {
		t.Fatalf("unexpected order: %+v", items)
	}
}

func TestPostgres_HealthCheck(t *testing.T) {
	store := setupTestDB(t)
	if err := store.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck failed: %v", err)
	}
}
