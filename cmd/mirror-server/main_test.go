package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"platehub/internal/catalog"
	"platehub/pkg/utils"
)

func TestMirrorServesLoadableCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plates.csv")
	require.NoError(t, os.WriteFile(path, []byte("region,title,image\nCA,Sequoia,ca.png\n"), 0o644))

	srv := httptest.NewServer(newMux(path, utils.DiscardLogger()))
	defer srv.Close()

	res, err := catalog.LoadSource(context.Background(), catalog.NewHTTPSource(srv.URL+"/plates.csv", 5*time.Second))
	require.NoError(t, err)
	assert.Len(t, res.Records, 1)
}

func TestMirrorRejectsBrokenCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plates.csv")
	require.NoError(t, os.WriteFile(path, []byte("name,colour\nfoo,bar\n"), 0o644))

	srv := httptest.NewServer(newMux(path, utils.DiscardLogger()))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/plates.csv")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}
