//go:build integration

package events

import (
	"encoding/json"
	"log/slog"
	"os"
	"testing"
	"time"
)

func skipWithoutNATS(t *testing.T) string {
	t.Helper()
	url := os.Getenv("NATS_URL")
	if url == "" {
		t.Skip("NATS_URL not set, skipping integration test")
	}
	return url
}

func TestIntegration_PubSub(t *testing.T) {
	natsURL := skipWithoutNATS(t)
	logger := slog.Default()

	client, err := NewClient(natsURL, os.Getenv("NATS_TOKEN"), logger)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	defer client.Close()

	received := make(chan SessionBuilt, 1)

	err = client.Subscribe("chatweave.session.>", func(subject string, data []byte) {
		var evt SessionBuilt
		json.Unmarshal(data, &evt)
		received <- evt
	})
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}

	// Give subscription time to propagate
	time.Sleep(100 * time.Millisecond)

	err = client.Publish(SubjectSessionBuilt, SessionBuilt{
		RunID:        "run-integration",
		SessionID:    "session-integration",
		Platforms:    []string{"chatgpt"},
		PromptGroups: 3,
		Timestamp:    Timestamp(time.Now()),
	})
	if err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	select {
	case evt := <-received:
		if evt.SessionID != "session-integration" {
			t.Errorf("expected session-integration, got %v", evt)
		}
		if evt.PromptGroups != 3 {
			t.Errorf("expected 3 prompt groups, got %d", evt.PromptGroups)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event")
	}
}
