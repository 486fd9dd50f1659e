package locality

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"viacarona/internal/platform/logger"
)

func newCatalogue(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /estados", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode([]State{
			{ID: 35, Code: "SP", Name: "São Paulo"},
			{ID: 12, Code: "AC", Name: "Acre"},
			{ID: 33, Code: "RJ", Name: "Rio de Janeiro"},
			{ID: 27, Code: "AL", Name: "Alagoas"},
			{ID: 16, Code: "AP", Name: "Amapá"},
		})
	})
	mux.HandleFunc("GET /estados/{uf}/municipios", func(w http.ResponseWriter, r *http.Request) {
		switch r.PathValue("uf") {
		case "SP":
			_ = json.NewEncoder(w).Encode([]City{{ID: 3509502, Name: "Campinas"}, {ID: 3500105, Name: "Adamantina"}})
		case "RJ":
			_ = json.NewEncoder(w).Encode([]City{{ID: 3304557, Name: "Rio de Janeiro"}})
		default:
			http.Error(w, "not found", http.StatusNotFound)
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestStates_SortedInPortugueseOrder(t *testing.T) {
	srv := newCatalogue(t)
	states, err := New(srv.URL).States(context.Background())
	require.NoError(t, err)

	var names []string
	for _, s := range states {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"Acre", "Alagoas", "Amapá", "Rio de Janeiro", "São Paulo"}, names)
}

func TestCitiesFor_LoadsConcurrently(t *testing.T) {
	srv := newCatalogue(t)
	cities, err := New(srv.URL).CitiesFor(context.Background(), "sp", "RJ")
	require.NoError(t, err)

	require.Len(t, cities["SP"], 2)
	assert.Equal(t, "Adamantina", cities["SP"][0].Name)
	assert.Equal(t, "Rio de Janeiro", cities["RJ"][0].Name)
}

func TestCitiesFor_DuplicateCodesFetchedOnce(t *testing.T) {
	var calls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET /estados/{uf}/municipios", func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		_ = json.NewEncoder(w).Encode([]City{{ID: 1, Name: "Santos"}})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cities, err := New(srv.URL).CitiesFor(context.Background(), "sp", " SP", "Sp", "")
	require.NoError(t, err)
	assert.Len(t, cities, 1)
	assert.Equal(t, int32(1), calls.Load())
}

func TestCitiesFor_FailureIsReturned(t *testing.T) {
	srv := newCatalogue(t)
	_, err := New(srv.URL).CitiesFor(context.Background(), "SP", "ZZ")
	assert.ErrorContains(t, err, "ZZ")
}

func TestKnownStateCodes(t *testing.T) {
	srv := newCatalogue(t)
	codes := New(srv.URL).KnownStateCodes(context.Background())
	assert.Len(t, codes, 5)
	assert.Contains(t, codes, "SP")

	srv.Close()
	assert.Nil(t, New(srv.URL, WithLogger(logger.Discard())).KnownStateCodes(context.Background()))
}

func TestCities_RequiresCode(t *testing.T) {
	_, err := New("http://unused").Cities(context.Background(), "  ")
	assert.Error(t, err)
}
