package sink

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isectech/ctf-datagen/config"
	"github.com/isectech/ctf-datagen/domain/entity"
	"github.com/isectech/ctf-datagen/shared/common"
)

// fakeCluster answers ping and _bulk the way Elasticsearch does
type fakeCluster struct {
	mu        sync.Mutex
	bulkReply string
	bulks     [][]byte
}

func (f *fakeCluster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")

	if r.URL.Path == "/_bulk" {
		body, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.bulks = append(f.bulks, body)
		reply := f.bulkReply
		f.mu.Unlock()
		io.WriteString(w, reply)
		return
	}
	io.WriteString(w, `{"version":{"number":"8.11.1"},"tagline":"You Know, for Search"}`)
}

func newFakeCluster(t *testing.T, reply string) (*fakeCluster, config.ElasticsearchConfig) {
	f := &fakeCluster{bulkReply: reply}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return f, config.ElasticsearchConfig{
		Addresses:   []string{srv.URL},
		IndexPrefix: "kql",
		BatchSize:   400,
	}
}

func TestElasticsearchPublish(t *testing.T) {
	cluster, cfg := newFakeCluster(t, `{"took":1,"errors":false,"items":[]}`)
	s, err := NewElasticsearch(context.Background(), cfg, testLogger(t))
	require.NoError(t, err)
	defer s.Close()

	ds := composeDataset(t, entity.ExerciseHelloKQL)
	require.NoError(t, s.Publish(context.Background(), ds))

	assert.Equal(t, "kql-hello-kql-securityevent", s.IndexName(ds.Exercise, entity.TableSecurityEvent))
	require.Len(t, cluster.bulks, 3)

	docs := 0
	for _, body := range cluster.bulks {
		sc := bufio.NewScanner(bytes.NewReader(body))
		sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for line := 0; sc.Scan(); line++ {
			if line%2 == 0 {
				assert.JSONEq(t, `{"index":{"_index":"kql-hello-kql-securityevent"}}`, sc.Text())
				continue
			}
			var doc map[string]interface{}
			require.NoError(t, json.Unmarshal(sc.Bytes(), &doc))
			assert.Contains(t, doc, "EventID")
			docs++
		}
	}
	assert.Equal(t, ds.RecordCount(), docs)
}

func TestElasticsearchSurfacesItemErrors(t *testing.T) {
	_, cfg := newFakeCluster(t, `{"errors":true,"items":[
		{"index":{"_index":"kql-hello-kql-securityevent","status":201}},
		{"index":{"_index":"kql-hello-kql-securityevent","status":400,
		  "error":{"type":"mapper_parsing_exception","reason":"failed to parse field [EventID]"}}}]}`)
	s, err := NewElasticsearch(context.Background(), cfg, testLogger(t))
	require.NoError(t, err)

	err = s.Publish(context.Background(), composeDataset(t, entity.ExerciseHelloKQL))
	require.Error(t, err)
	assert.True(t, common.HasErrorCode(err, common.ErrCodeExternalService))
	assert.Contains(t, err.Error(), "mapper_parsing_exception")
	assert.Equal(t, common.ExitIO, common.ExitCodeOf(err))
}

func TestBulkItemError(t *testing.T) {
	assert.NoError(t, bulkItemError([]byte(`{"errors":false,"items":[]}`)))
	assert.Error(t, bulkItemError([]byte(`not json`)))

	err := bulkItemError([]byte(`{"errors":true,"items":[
		{"index":{"status":429,"error":{"type":"es_rejected_execution_exception","reason":"queue full"}}},
		{"index":{"status":429,"error":{"type":"es_rejected_execution_exception","reason":"queue full"}}}]}`))
	require.Error(t, err)
	assert.Equal(t, "2 bulk items failed, first: es_rejected_execution_exception: queue full", err.Error())
}

func TestElasticsearchUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	_, err := NewElasticsearch(context.Background(), config.ElasticsearchConfig{
		Addresses: []string{srv.URL},
	}, testLogger(t))
	assert.True(t, common.HasErrorCode(err, common.ErrCodeExternalService))
}
