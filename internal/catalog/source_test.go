package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"platehub/pkg/utils"
)

func TestLoadSourcesMergesFileAndMirror(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plates.csv")
	require.NoError(t, os.WriteFile(path, []byte("region,title,image\nCA,Sequoia,seq.png\n"), 0o644))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte("region,title,image,category,rarity\nCA,Sequoia,other.png,Specialty,rare\nOR,Tree,or.png,Standard,common\n"))
	}))
	defer srv.Close()

	store, report, err := LoadSources(context.Background(), utils.DiscardLogger(),
		FileSource{Path: path},
		NewHTTPSource(srv.URL, 0),
	)
	require.NoError(t, err)
	assert.Empty(t, report.Failed)
	assert.Equal(t, 2, store.Len())

	seq, ok := store.Lookup("CA", "Sequoia")
	require.True(t, ok)
	assert.Equal(t, "seq.png", seq.Image, "first source wins")
	assert.Equal(t, "Specialty", seq.Category, "later source fills missing fields")
	assert.Equal(t, "rare", seq.Rarity)
}

func TestLoadSourcesSkipsBrokenSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "plates.csv")
	require.NoError(t, os.WriteFile(path, []byte("region,title,image\nOR,Tree,or.png\n"), 0o644))

	store, report, err := LoadSources(context.Background(), utils.DiscardLogger(),
		NewHTTPSource(srv.URL, 0),
		FileSource{Path: path},
	)
	require.NoError(t, err)
	assert.Len(t, report.Failed, 1)
	assert.Equal(t, 1, store.Len())
}

func TestLoadSourcesNothingLoaded(t *testing.T) {
	_, report, err := LoadSources(context.Background(), utils.DiscardLogger(),
		FileSource{Path: filepath.Join(t.TempDir(), "missing.csv")})
	require.Error(t, err)
	assert.Len(t, report.Failed, 1)
}

func TestSourcesFromConfig(t *testing.T) {
	srcs := SourcesFromConfig(utils.CatalogConfig{Path: "data/plates.csv", MirrorURL: "http://mirror/plates.csv"})
	require.Len(t, srcs, 2)
	assert.Equal(t, "file:data/plates.csv", srcs[0].Name())
	assert.Equal(t, "http:http://mirror/plates.csv", srcs[1].Name())

	assert.Empty(t, SourcesFromConfig(utils.CatalogConfig{}))
}

func TestHTTPSourceMirrorResponses(t *testing.T) {
	const url = "https://mirror.example/plates.csv"
	src := NewHTTPSource(url, time.Second)
	httpmock.ActivateNonDefault(src.Client)
	t.Cleanup(httpmock.DeactivateAndReset)

	httpmock.RegisterResponder(http.MethodGet, url,
		httpmock.NewStringResponder(http.StatusServiceUnavailable, "down"))
	_, err := LoadSource(context.Background(), src)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 503")

	httpmock.RegisterResponder(http.MethodGet, url,
		httpmock.NewStringResponder(http.StatusOK, "state,name,filename\nwa,Rainier,wa.png\n"))
	res, err := LoadSource(context.Background(), src)
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.Equal(t, "WA", res.Records[0].Region)
	assert.Equal(t, 2, httpmock.GetTotalCallCount())
}
