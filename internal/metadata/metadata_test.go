package metadata_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/dappmarket/marketplace-core/internal/metadata"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cid = "QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG"

func newService(hosts ...string) metadata.Service {
	client := retryablehttp.NewClient()
	client.RetryMax = 0
	client.Logger = nil

	return metadata.NewMetadataService(client, hosts)
}

func TestGetMetadata(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"name": "Sample Asset", "description": "A sample asset", "image": "ipfs://`+cid+`"}`)
	}))
	defer ts.Close()

	md, err := newService().GetMetadata(ts.URL + "/metadata/1")
	require.NoError(t, err)
	assert.Equal(t, "Sample Asset", md.Name)
	assert.Equal(t, "A sample asset", md.Description)
	assert.Equal(t, "ipfs://"+cid, md.Image)
}

func TestGetMetadata_Cached(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		fmt.Fprint(w, `{"name": "Sample Asset"}`)
	}))
	defer ts.Close()

	svc := newService()

	_, err := svc.GetMetadata(ts.URL + "/metadata/1")
	require.NoError(t, err)
	_, err = svc.GetMetadata(ts.URL + "/metadata/1")
	require.NoError(t, err)

	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestGetMetadata_IpfsGateway(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ipfs/"+cid+"/1" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `{"name": "Sample Asset"}`)
	}))
	defer ts.Close()

	md, err := newService(ts.URL).GetMetadata("ipfs://" + cid + "/1")
	require.NoError(t, err)
	assert.Equal(t, "Sample Asset", md.Name)
}

func TestGetMetadata_GatewayFallback(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer bad.Close()

	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"name": "Sample Asset"}`)
	}))
	defer good.Close()

	md, err := newService(bad.URL, good.URL).GetMetadata("ipfs://" + cid)
	require.NoError(t, err)
	assert.Equal(t, "Sample Asset", md.Name)
}

func TestGetMetadata_InvalidUri(t *testing.T) {
	_, err := newService().GetMetadata("not a uri")
	assert.ErrorIs(t, err, metadata.ErrInvalidUri)
}

func TestIsIpfs(t *testing.T) {
	assert.True(t, metadata.IsIpfs("ipfs://"+cid))
	assert.True(t, metadata.IsIpfs("https://gateway.pinata.cloud/ipfs/"+cid))
	assert.False(t, metadata.IsIpfs("https://example.com/metadata/1"))
	assert.False(t, metadata.IsIpfs("not a uri"))
}
