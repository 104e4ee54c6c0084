package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"livecam-geo/internal/config"
	"livecam-geo/internal/dataset"
	"livecam-geo/internal/snapshot"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeGz(t *testing.T, p, s string) {
	t.Helper()
	var b bytes.Buffer
	zw := gzip.NewWriter(&b)
	_, err := zw.Write([]byte(s))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, os.WriteFile(p, b.Bytes(), 0o644))
}

func clearEnv(t *testing.T) {
	for _, k := range []string{"DEVELOPER_KEYS", "DEVELOPER_KEY0", "CONFIG_FILE", "OUTPUT_GCS_BUCKET", "PG_MIRROR_ENABLE", "REDIS_ENABLE", "PUSHGATEWAY_URL"} {
		t.Setenv(k, "")
	}
}

func TestMaintenanceCommand(t *testing.T) {
	clearEnv(t)
	in, out := t.TempDir(), t.TempDir()
	writeGz(t, filepath.Join(in, snapshot.GeoFile), "37,-122,aaaaaaaaaaa\n1.5,2.5,bbbbbbbbbbb\n-33.8688,151.2093,ccccccccccc\n")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		state := "live"
		if r.URL.Query().Get("id") == "bbbbbbbbbbb" {
			state = "none"
		}
		_, _ = w.Write([]byte(`{"items":[{"snippet":{"liveBroadcastContent":"` + state + `"}}]}`))
	}))
	defer srv.Close()
	t.Setenv("DATA_URL", filepath.Join(in, snapshot.GeoFile))
	t.Setenv("LIVE_URL_BASE", srv.URL+"/videos?part=snippet")
	t.Setenv("DEVELOPER_KEYS", "k0,k1")
	t.Setenv("OUTPUT_DIR", out)

	cmd := newRootCmd()
	cmd.SetArgs([]string{"--env", filepath.Join(in, "absent.env"), "maintenance"})
	require.NoError(t, cmd.ExecuteContext(context.Background()))

	f, err := os.Open(filepath.Join(out, snapshot.GeoFile))
	require.NoError(t, err)
	defer f.Close()
	ls, err := dataset.Load(f)
	require.NoError(t, err)
	assert.Equal(t, []string{"aaaaaaaaaaa", "ccccccccccc"}, ls.IDs())
	_, err = os.Stat(filepath.Join(out, snapshot.BlacklistFile))
	assert.True(t, os.IsNotExist(err))
}

func TestFullRunRequiresConfiguration(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATA_URL", "geo.csv.gz")
	t.Setenv("LIVE_URL_BASE", "http://127.0.0.1:1/videos")
	t.Setenv("DEVELOPER_KEYS", "k0")
	t.Setenv("BLACKLIST_URL", "")
	t.Setenv("GEOCODER", "")

	cmd := newRootCmd()
	cmd.SetArgs([]string{"--env", filepath.Join(t.TempDir(), "absent.env")})
	err := cmd.ExecuteContext(context.Background())
	require.ErrorIs(t, err, config.ErrMissing)
	assert.Contains(t, err.Error(), "BLACKLIST_URL")
}
