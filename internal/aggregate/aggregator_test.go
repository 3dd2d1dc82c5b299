package aggregate

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	api "github.com/conciergo/onboarding-gateway/api/v1alpha1"
	"github.com/conciergo/onboarding-gateway/internal/classify"
)

func photoServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write([]byte("fake-jpeg-bytes"))
	}))
}

func refs(server *httptest.Server, n int) []api.PhotoRef {
	out := make([]api.PhotoRef, n)
	for i := range out {
		out[i] = api.PhotoRef{URL: server.URL + "/photo"}
	}
	return out
}

func TestAggregateMergesRoomsAndCounts(t *testing.T) {
	server := photoServer(t)
	defer server.Close()

	raw := &api.RawExtraction{
		PropertyInfo: api.RawPropertyInfo{Title: "Bel appartement"},
		Rooms: map[string][]api.PhotoRef{
			"Chambre 1":      refs(server, 3),
			"Chambre 2":      refs(server, 2),
			"Office image 1": refs(server, 1),
		},
		// self-reported stats are untrusted and must be ignored
		Stats: api.RawStats{RoomCount: 99, TaskCount: 99, PhotoCount: 99},
	}

	model, err := New(NewPhotoFetcher(2)).Aggregate(context.Background(), raw, api.ParcoursMenage)
	require.NoError(t, err)

	require.Len(t, model.Rooms, 2)

	byCategory := map[string]api.CanonicalRoom{}
	for _, room := range model.Rooms {
		byCategory[room.Category] = room
	}

	bedroom := byCategory[string(classify.CategoryBedroom)]
	assert.Equal(t, 2, bedroom.Quantity)
	assert.Len(t, bedroom.Photos, 5)

	office := byCategory[string(classify.CategoryOffice)]
	assert.Equal(t, 1, office.Quantity)
	assert.Len(t, office.Photos, 1)

	assert.Equal(t, 3, model.RoomCount)
	assert.Equal(t, 6, model.PhotoCount)
	assert.Equal(t, "Bel appartement", model.Title)

	// invariant: the aggregate photo counter equals the per-room sum
	sum := 0
	for _, room := range model.Rooms {
		sum += len(room.Photos)
	}
	assert.Equal(t, model.PhotoCount, sum)
}

func TestAggregateIsIdempotentOnCounters(t *testing.T) {
	server := photoServer(t)
	defer server.Close()

	raw := &api.RawExtraction{
		Rooms: map[string][]api.PhotoRef{
			"Chambre 1": refs(server, 2),
			"Cuisine":   refs(server, 1),
		},
	}

	aggregator := New(NewPhotoFetcher(1))
	first, err := aggregator.Aggregate(context.Background(), raw, api.ParcoursMenage)
	require.NoError(t, err)
	second, err := aggregator.Aggregate(context.Background(), raw, api.ParcoursMenage)
	require.NoError(t, err)

	assert.Equal(t, first.RoomCount, second.RoomCount)
	assert.Equal(t, first.TaskCount, second.TaskCount)
	assert.Equal(t, first.PhotoCount, second.PhotoCount)
}

func TestAggregateUncategorizedSurfacedFirst(t *testing.T) {
	server := photoServer(t)
	defer server.Close()

	raw := &api.RawExtraction{
		Rooms: map[string][]api.PhotoRef{
			"Chambre":       refs(server, 1),
			"Salle de yoga": refs(server, 1),
			"Cuisine":       refs(server, 1),
		},
	}

	model, err := New(NewPhotoFetcher(1)).Aggregate(context.Background(), raw, api.ParcoursVoyageur)
	require.NoError(t, err)

	require.Len(t, model.Rooms, 3)
	assert.Equal(t, string(classify.CategoryUncategorized), model.Rooms[0].Category)
	assert.Equal(t, "Salle de yoga", model.Rooms[0].Label)
}

func TestAggregateDistinctUncategorizedStayDistinct(t *testing.T) {
	server := photoServer(t)
	defer server.Close()

	raw := &api.RawExtraction{
		Rooms: map[string][]api.PhotoRef{
			"Salle de yoga": refs(server, 1),
			"Cave a vin":    refs(server, 1),
		},
	}

	model, err := New(NewPhotoFetcher(1)).Aggregate(context.Background(), raw, api.ParcoursMenage)
	require.NoError(t, err)
	require.Len(t, model.Rooms, 2)
	assert.NotEqual(t, model.Rooms[0].Label, model.Rooms[1].Label)
}

func TestAggregateTaskGlyphs(t *testing.T) {
	server := photoServer(t)
	defer server.Close()

	raw := &api.RawExtraction{
		Rooms: map[string][]api.PhotoRef{"Cuisine": nil},
		Tasks: map[string]api.RawRoomTasks{
			"Cuisine": {AIGeneratedTasks: []api.RawTask{
				{Title: "🧹 Clean counters", Description: "wipe", PhotoRequired: true},
				{Title: "Clean counters", Description: "wipe again"},
			}},
		},
	}

	model, err := New(NewPhotoFetcher(1)).Aggregate(context.Background(), raw, api.ParcoursMenage)
	require.NoError(t, err)

	require.Len(t, model.Rooms, 1)
	tasks := model.Rooms[0].Tasks
	require.Len(t, tasks, 2)

	assert.Equal(t, "🧹", tasks[0].Glyph)
	assert.Equal(t, "Clean counters", tasks[0].Title)
	assert.True(t, tasks[0].PhotoRequired)

	assert.Equal(t, "✓", tasks[1].Glyph)
	assert.Equal(t, "Clean counters", tasks[1].Title)

	assert.Equal(t, 2, model.TaskCount)
}

func TestAggregatePhotoFetchFailureFallsBackToURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	raw := &api.RawExtraction{
		Rooms: map[string][]api.PhotoRef{
			"Chambre": {{URL: server.URL + "/missing.jpg", Caption: "vue"}},
		},
	}

	model, err := New(NewPhotoFetcher(1)).Aggregate(context.Background(), raw, api.ParcoursMenage)
	require.NoError(t, err, "an individual photo failure must never fail the aggregation")

	require.Len(t, model.Rooms, 1)
	require.Len(t, model.Rooms[0].Photos, 1)

	photo := model.Rooms[0].Photos[0]
	assert.False(t, photo.Inline)
	assert.Equal(t, server.URL+"/missing.jpg", photo.Data)
	assert.Equal(t, "vue", photo.Caption)
	assert.Equal(t, 1, model.PhotoCount)
}

func TestAggregateInlinePhotoEncoding(t *testing.T) {
	server := photoServer(t)
	defer server.Close()

	raw := &api.RawExtraction{
		Rooms: map[string][]api.PhotoRef{"Chambre": refs(server, 1)},
	}

	model, err := New(NewPhotoFetcher(1)).Aggregate(context.Background(), raw, api.ParcoursMenage)
	require.NoError(t, err)

	photo := model.Rooms[0].Photos[0]
	assert.True(t, photo.Inline)
	assert.True(t, strings.HasPrefix(photo.Data, "data:image/jpeg;base64,"))
}

func TestAggregateMissingDataSection(t *testing.T) {
	tests := []struct {
		name string
		raw  *api.RawExtraction
	}{
		{name: "nil payload", raw: nil},
		{name: "missing rooms", raw: &api.RawExtraction{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(NewPhotoFetcher(1)).Aggregate(context.Background(), tt.raw, api.ParcoursMenage)
			require.IsType(t, &ErrIncompleteExtraction{}, err)
		})
	}
}

func TestFetchAllPreservesInputOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte(r.URL.Path))
	}))
	defer server.Close()

	fetcher := NewPhotoFetcher(4)
	input := []api.PhotoRef{
		{URL: server.URL + "/a"},
		{URL: server.URL + "/b"},
		{URL: server.URL + "/c"},
		{URL: server.URL + "/d"},
	}

	photos := fetcher.FetchAll(context.Background(), input)
	require.Len(t, photos, 4)
	for i, suffix := range []string{"/a", "/b", "/c", "/d"} {
		assert.True(t, photos[i].Inline)
		assert.True(t, strings.HasSuffix(photos[i].Data, base64Of(suffix)), "photo %d out of order", i)
	}
}

// data URIs end with the base64 body
func base64Of(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}
