package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"talk2trade/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBackend(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var chatCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/api/chat", func(w http.ResponseWriter, r *http.Request) {
		chatCalls.Add(1)
		var req models.ChatRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		_ = json.NewEncoder(w).Encode(models.ChatResponse{Response: "echo: " + req.Message + " @ " + req.ConversationID})
	})
	mux.HandleFunc("/api/conversations/", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]models.ConversationMessage{
			{Role: "user", Content: "hi"},
			{Role: "assistant", Content: "hello there"},
		})
	})
	mux.HandleFunc("/api/markets/status", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(models.MarketStatus{Status: "data_available", MarketsCount: 7})
	})
	mux.HandleFunc("/api/markets/refresh", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(models.RefreshResponse{Success: true, Message: "refreshed 7 markets"})
	})
	mux.HandleFunc("/api/events/categories", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(models.CategoriesResponse{Success: true, TotalEvents: 3, CategoriesCount: 2, Categories: []string{"Sports", "Crypto"}})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &chatCalls
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("TALK2TRADE_GLAMOUR_STYLE", "notty")
	t.Chdir(t.TempDir())

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append(args, "--config", filepath.Join(t.TempDir(), "config.yaml")))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestAskCommand(t *testing.T) {
	srv, calls := newBackend(t)

	out, err := execute(t, "ask", "--base-url", srv.URL, "--conversation", "chat_1", "what", "is", "up")
	require.NoError(t, err)
	assert.Contains(t, out, "echo: what is up @ chat_1")
	assert.EqualValues(t, 1, calls.Load())
}

func TestHistoryCommand(t *testing.T) {
	srv, _ := newBackend(t)

	out, err := execute(t, "history", "--base-url", srv.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "You:")
	assert.Contains(t, out, "hello there")
}

func TestMarketsCommands(t *testing.T) {
	srv, calls := newBackend(t)

	out, err := execute(t, "markets", "--base-url", srv.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "Active markets: 7")

	out, err = execute(t, "markets", "refresh", "--base-url", srv.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "refreshed 7 markets")
	assert.Zero(t, calls.Load())
}

func TestStatusCommand(t *testing.T) {
	srv, _ := newBackend(t)

	out, err := execute(t, "status", "--base-url", srv.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "Active markets: 7")
	assert.Contains(t, out, "Crypto")
}

func TestBackendDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := execute(t, "categories", "--base-url", srv.URL)
	require.Error(t, err)
	var statusErr *models.StatusError
	assert.True(t, errors.As(err, &statusErr))
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "talk2trade", "config.yaml")

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"config", "init", "--config", path})
	require.NoError(t, cmd.Execute())
	assert.FileExists(t, path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "base_url")

	cmd = newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"config", "init", "--config", path})
	assert.Error(t, cmd.Execute())
}

type failingStatus struct{}

func (failingStatus) MarketStatus(ctx context.Context) (*models.MarketStatus, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (failingStatus) EventCategories(context.Context) (*models.CategoriesResponse, error) {
	return nil, errors.New("categories down")
}

func TestFetchStatusCancelsOnFailure(t *testing.T) {
	_, _, err := fetchStatus(context.Background(), failingStatus{})
	assert.EqualError(t, err, "categories down")
}
