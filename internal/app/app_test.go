package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/quiz-bank/internal/config"
	"github.com/gokatarajesh/quiz-bank/internal/storage"
)

func memoryConfig(t *testing.T) *config.App {
	t.Helper()
	t.Setenv("STORAGE_BACKEND", config.BackendMemory)
	t.Setenv("HTTP_ADDR", "127.0.0.1:0")
	t.Setenv("GRACEFUL_SHUTDOWN_SECONDS", "2s")
	cfg, err := config.Load(context.Background())
	require.NoError(t, err)
	return cfg
}

func TestOpenStorageSelectsBackend(t *testing.T) {
	cfg := memoryConfig(t)
	kv, err := OpenStorage(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &storage.MemoryStore{}, kv)

	cfg.Storage.Backend = config.BackendFile
	cfg.Storage.FileDir = t.TempDir()
	kv, err = OpenStorage(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &storage.FileStore{}, kv)

	cfg.Storage.Backend = "etcd"
	_, err = OpenStorage(context.Background(), cfg, zerolog.Nop())
	assert.ErrorContains(t, err, `unknown storage backend "etcd"`)
}

func TestApplicationServesQuestionBank(t *testing.T) {
	cfg := memoryConfig(t)
	kv := storage.NewMemoryStore()
	a := build(context.Background(), cfg, zerolog.Nop(), kv)
	t.Cleanup(a.Close)

	srv := httptest.NewServer(a.Handler())
	t.Cleanup(srv.Close)

	resp, err := http.Post(srv.URL+"/v1/questions", "application/json",
		strings.NewReader(`{"question":"Ibu kota Jepang?","options":["Tokyo","Osaka"],"answer":"Tokyo"}`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/v1/questions")
	require.NoError(t, err)
	defer resp.Body.Close()
	var body struct {
		Total int `json:"total"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, a.store.Len(), body.Total)

	stored, err := kv.Get(context.Background(), cfg.Storage.Key)
	require.NoError(t, err)
	assert.Contains(t, string(stored), "Ibu kota Jepang?")

	resp, err = http.Get(srv.URL + "/readyz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRunStopsWhenContextEnds(t *testing.T) {
	cfg := memoryConfig(t)
	a := build(context.Background(), cfg, zerolog.Nop(), storage.NewMemoryStore())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
	a.Close()
}
