package catalog

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	c := New()

	it, ok := c.Lookup("r1")
	require.True(t, ok)
	require.Equal(t, "Pizza Place Roma", it.Name)
	require.Equal(t, "restaurant", it.Type)

	_, ok = c.Lookup("nope")
	require.False(t, ok)
}

func TestSearch(t *testing.T) {
	c := New()

	cases := []struct {
		name  string
		query string
		typ   string
		want  []string
	}{
		{"everything", "", "", []string{"p1", "r1", "a1", "p2", "r2", "a2"}},
		{"by type", "", "restaurant", []string{"r1", "r2"}},
		{"by name", "louvre", "", []string{"p2"}},
		{"by category", "japanese", "", []string{"r2"}},
		{"type and query", "room", "activity", []string{"a2"}},
		{"no match", "zzz", "", []string{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := c.Search(tc.query, tc.typ)
			ids := make([]string, 0, len(got))
			for _, it := range got {
				ids = append(ids, it.ID)
			}
			require.Equal(t, tc.want, ids)
		})
	}
}

func TestTypes(t *testing.T) {
	require.Equal(t, []string{"place", "restaurant", "activity"}, New().Types())
}

func TestCustomItems(t *testing.T) {
	c := New(Item{ID: "x", Name: "Lake", Category: "Nature", Type: "place"})

	require.Len(t, c.Search("", ""), 1)
	_, ok := c.Lookup("p1")
	require.False(t, ok)
}

func TestHandler(t *testing.T) {
	r := chi.NewRouter()
	NewHandler(New(), slog.New(slog.NewTextHandler(io.Discard, nil))).RegisterRoutes(r)

	t.Run("catalog", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/catalog?type=place", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		var body SearchResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Len(t, body.Items, 2)
		require.Equal(t, "Eiffel Tower", body.Items[0].Name)
	})

	t.Run("emotions", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/emotions", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		var body map[string][]map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Len(t, body["emotions"], 5)
		require.Equal(t, "VERY_INTERESTED", body["emotions"][0]["key"])
	})
}
