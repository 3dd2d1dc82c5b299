package extraction

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func streamServer(t *testing.T, lines []string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Contains(t, r.URL.Path, "/stream/")
		flusher, ok := w.(http.Flusher)
		require.True(t, ok)

		for _, line := range lines {
			fmt.Fprintln(w, line)
			flusher.Flush()
		}
	}))
}

func TestStreamTransportAssemblesPartialData(t *testing.T) {
	server := streamServer(t, []string{
		`{"type":"metadata","message":"connected"}`,
		`{"type":"property_info","property_info":{"title":"Villa des Pins"}}`,
		`{"type":"room","label":"Chambre 1","photos":[{"url":"https://img/1.jpg"},{"url":"https://img/2.jpg"}]}`,
		`{"type":"room","label":"Cuisine","photos":[{"url":"https://img/3.jpg"}]}`,
		`{"type":"tasks","label":"Cuisine","tasks":{"ai_generated_tasks":[{"title":"🧹 Nettoyer le plan de travail","description":"","photo_required":true}]}}`,
		`{"type":"stats","stats":{"room_count":99,"task_count":99,"photo_count":99}}`,
		`{"type":"complete"}`,
	})
	defer server.Close()

	transport := NewStreamTransport(NewClient(server.URL), time.Minute, "conciergerie", 0)
	payload, err := transport.Await(context.Background(), "job-1")

	require.NoError(t, err)
	assert.Equal(t, "Villa des Pins", payload.PropertyInfo.Title)
	assert.Len(t, payload.Rooms["Chambre 1"], 2)
	assert.Len(t, payload.Rooms["Cuisine"], 1)
	assert.Len(t, payload.Tasks["Cuisine"].AIGeneratedTasks, 1)
	assert.Equal(t, 99, payload.Stats.PhotoCount)
}

func TestStreamTransportRemoteError(t *testing.T) {
	server := streamServer(t, []string{
		`{"type":"room","label":"Chambre","photos":[]}`,
		`{"type":"error","error":"blocked"}`,
	})
	defer server.Close()

	transport := NewStreamTransport(NewClient(server.URL), time.Minute, "conciergerie", 0)
	_, err := transport.Await(context.Background(), "job-1")

	require.Error(t, err)
	remoteErr, ok := err.(*ErrRemoteExtraction)
	require.True(t, ok, "expected ErrRemoteExtraction, got %T", err)
	assert.Equal(t, "blocked", remoteErr.Message)
}

func TestStreamTransportWallClockTimeout(t *testing.T) {
	// server keeps the connection open without ever sending a terminal event
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher := w.(http.Flusher)
		fmt.Fprintln(w, `{"type":"metadata"}`)
		flusher.Flush()
		<-r.Context().Done()
	}))
	defer server.Close()

	transport := NewStreamTransport(NewClient(server.URL), 50*time.Millisecond, "conciergerie", 0)

	start := time.Now()
	_, err := transport.Await(context.Background(), "job-1")

	require.IsType(t, &ErrTimeout{}, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestStreamTransportCancellationReleasesConnection(t *testing.T) {
	connClosed := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher := w.(http.Flusher)
		fmt.Fprintln(w, `{"type":"metadata"}`)
		flusher.Flush()
		<-r.Context().Done()
		close(connClosed)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	transport := NewStreamTransport(NewClient(server.URL), time.Hour, "conciergerie", 0)

	errCh := make(chan error, 1)
	go func() {
		_, err := transport.Await(ctx, "job-1")
		errCh <- err
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("stream did not stop after cancellation")
	}

	select {
	case <-connClosed:
	case <-time.After(5 * time.Second):
		t.Fatal("server connection was not released")
	}
}

func TestStreamTransportNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unknown extraction", http.StatusNotFound)
	}))
	defer server.Close()

	transport := NewStreamTransport(NewClient(server.URL), time.Minute, "conciergerie", 0)
	_, err := transport.Await(context.Background(), "missing")

	require.IsType(t, &ErrJobGone{}, err)
}

func TestStreamTransportStreamEndsWithoutTerminalEvent(t *testing.T) {
	server := streamServer(t, []string{
		`{"type":"room","label":"Chambre","photos":[]}`,
	})
	defer server.Close()

	transport := NewStreamTransport(NewClient(server.URL), time.Minute, "conciergerie", 0)
	_, err := transport.Await(context.Background(), "job-1")

	require.IsType(t, &ErrRemoteExtraction{}, err)
}
