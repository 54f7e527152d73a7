package coastline

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// arcgisStub mimics the two request shapes of an ArcGIS MapServer query
// endpoint: returnIdsOnly id listing and objectIds feature fetching.
type arcgisStub struct {
	ids []int

	mu         sync.Mutex
	idRequests int
	chunks     [][]int
	failFirst  map[string]bool // objectIds param -> fail next request
}

func (s *arcgisStub) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()

		if query.Get("returnIdsOnly") == "true" {
			s.mu.Lock()
			s.idRequests++
			s.mu.Unlock()
			fmt.Fprintf(w, `{"objectIds":%s}`, intsJSON(s.ids))
			return
		}

		param := query.Get("objectIds")
		ids, err := parseIDs(param)
		if err != nil {
			t.Errorf("bad objectIds param %q: %v", param, err)
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}

		s.mu.Lock()
		if s.failFirst[param] {
			delete(s.failFirst, param)
			s.mu.Unlock()
			http.Error(w, "transient", http.StatusInternalServerError)
			return
		}
		s.chunks = append(s.chunks, ids)
		s.mu.Unlock()

		fc := geojson.NewFeatureCollection()
		for _, id := range ids {
			feature := geojson.NewFeature(orb.LineString{
				{float64(id), 0}, {float64(id), 1},
			})
			feature.Properties["OBJECTID"] = id
			fc.Append(feature)
		}
		data, err := fc.MarshalJSON()
		if err != nil {
			t.Errorf("marshal features: %v", err)
			http.Error(w, "internal", http.StatusInternalServerError)
			return
		}
		w.Write(data)
	}
}

func intsJSON(ids []int) string {
	strs := make([]string, len(ids))
	for i, id := range ids {
		strs[i] = strconv.Itoa(id)
	}
	return "[" + strings.Join(strs, ",") + "]"
}

func parseIDs(param string) ([]int, error) {
	if param == "" {
		return nil, fmt.Errorf("empty objectIds")
	}
	parts := strings.Split(param, ",")
	ids := make([]int, len(parts))
	for i, part := range parts {
		id, err := strconv.Atoi(part)
		if err != nil {
			return nil, err
		}
		ids[i] = id
	}
	return ids, nil
}

func testFetcher(url string) *Fetcher {
	fetcher := NewFetcher()
	fetcher.QueryURL = url
	fetcher.ChunkSize = 2
	fetcher.Retries = 2
	fetcher.RetryDelay = time.Millisecond
	fetcher.Client = &http.Client{Timeout: 5 * time.Second}
	return fetcher
}

func testBBox() orb.Bound {
	return orb.Bound{Min: orb.Point{-123.0, 47.0}, Max: orb.Point{-122.0, 48.0}}
}

func TestObjectIDsSorted(t *testing.T) {
	stub := &arcgisStub{ids: []int{30, 10, 20}}
	server := httptest.NewServer(stub.handler(t))
	defer server.Close()

	ids, err := testFetcher(server.URL).ObjectIDs(testBBox())
	if err != nil {
		t.Fatalf("ObjectIDs failed: %v", err)
	}
	if want := []int{10, 20, 30}; !reflect.DeepEqual(ids, want) {
		t.Errorf("ids = %v, want %v", ids, want)
	}
}

func TestObjectIDsServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// ArcGIS reports errors inside a 200 response.
		fmt.Fprint(w, `{"error":{"code":400,"message":"Invalid geometry"}}`)
	}))
	defer server.Close()

	_, err := testFetcher(server.URL).ObjectIDs(testBBox())
	if err == nil {
		t.Fatal("ObjectIDs succeeded on an error payload")
	}
	if !strings.Contains(err.Error(), "Invalid geometry") {
		t.Errorf("error = %v, want server message included", err)
	}
}

func TestFetchShorelineChunking(t *testing.T) {
	stub := &arcgisStub{ids: []int{5, 3, 1, 4, 2}}
	server := httptest.NewServer(stub.handler(t))
	defer server.Close()

	opts := FetchOptions{Parallel: false}
	var progress []int
	opts.Progress = func(done, total int) {
		if total != 3 {
			t.Errorf("progress total = %d, want 3", total)
		}
		progress = append(progress, done)
	}

	fc, err := testFetcher(server.URL).FetchShoreline(testBBox(), opts)
	if err != nil {
		t.Fatalf("FetchShoreline failed: %v", err)
	}

	if len(fc.Features) != 5 {
		t.Fatalf("got %d features, want 5", len(fc.Features))
	}
	// Sorted ids split into chunks of 2.
	wantChunks := [][]int{{1, 2}, {3, 4}, {5}}
	if !reflect.DeepEqual(stub.chunks, wantChunks) {
		t.Errorf("chunks = %v, want %v", stub.chunks, wantChunks)
	}
	if want := []int{1, 2, 3}; !reflect.DeepEqual(progress, want) {
		t.Errorf("progress = %v, want %v", progress, want)
	}

	// Features arrive in chunk order.
	for i, feature := range fc.Features {
		oid, ok := featureObjectID(feature)
		if !ok {
			t.Fatalf("feature %d has no OBJECTID", i)
		}
		if oid != int64(i+1) {
			t.Errorf("feature %d OBJECTID = %d, want %d", i, oid, i+1)
		}
	}
}

func TestFetchShorelineParallel(t *testing.T) {
	ids := make([]int, 20)
	for i := range ids {
		ids[i] = i + 1
	}
	stub := &arcgisStub{ids: ids}
	server := httptest.NewServer(stub.handler(t))
	defer server.Close()

	opts := FetchOptions{Parallel: true, Workers: 4}
	fc, err := testFetcher(server.URL).FetchShoreline(testBBox(), opts)
	if err != nil {
		t.Fatalf("FetchShoreline failed: %v", err)
	}

	if len(fc.Features) != 20 {
		t.Fatalf("got %d features, want 20", len(fc.Features))
	}
	// Assembly order is chunk order regardless of worker scheduling.
	for i, feature := range fc.Features {
		oid, _ := featureObjectID(feature)
		if oid != int64(i+1) {
			t.Fatalf("feature %d OBJECTID = %d, want %d", i, oid, i+1)
		}
	}
}

func TestFetchShorelineRetry(t *testing.T) {
	stub := &arcgisStub{
		ids:       []int{1, 2, 3, 4},
		failFirst: map[string]bool{"3,4": true},
	}
	server := httptest.NewServer(stub.handler(t))
	defer server.Close()

	fc, err := testFetcher(server.URL).FetchShoreline(testBBox(), FetchOptions{Parallel: false})
	if err != nil {
		t.Fatalf("FetchShoreline failed despite retries: %v", err)
	}
	if len(fc.Features) != 4 {
		t.Errorf("got %d features, want 4", len(fc.Features))
	}
}

func TestFetchShorelineChunkFailure(t *testing.T) {
	// Every request for the second chunk fails.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		if query.Get("returnIdsOnly") == "true" {
			fmt.Fprint(w, `{"objectIds":[1,2,3,4]}`)
			return
		}
		if query.Get("objectIds") == "3,4" {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		fc := geojson.NewFeatureCollection()
		for _, id := range []int{1, 2} {
			feature := geojson.NewFeature(orb.LineString{{0, 0}, {1, 1}})
			feature.Properties["OBJECTID"] = id
			fc.Append(feature)
		}
		data, _ := fc.MarshalJSON()
		w.Write(data)
	}))
	defer server.Close()

	fetcher := testFetcher(server.URL)

	t.Run("abort by default", func(t *testing.T) {
		_, err := fetcher.FetchShoreline(testBBox(), FetchOptions{Parallel: false})
		if err == nil {
			t.Fatal("FetchShoreline succeeded despite failing chunk")
		}
	})

	t.Run("skip errors keeps partial result", func(t *testing.T) {
		var errLog strings.Builder
		opts := FetchOptions{Parallel: false, SkipErrors: true, ErrorLog: &errLog}
		fc, err := fetcher.FetchShoreline(testBBox(), opts)
		if err != nil {
			t.Fatalf("FetchShoreline failed with SkipErrors: %v", err)
		}
		if len(fc.Features) != 2 {
			t.Errorf("got %d features, want 2", len(fc.Features))
		}
		if !strings.Contains(errLog.String(), "chunk 2/2") {
			t.Errorf("error log %q does not name the failed chunk", errLog.String())
		}
	})
}

func TestFetchShorelineDedupe(t *testing.T) {
	// The server reports id 2 in both chunks; the first copy wins.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		if query.Get("returnIdsOnly") == "true" {
			fmt.Fprint(w, `{"objectIds":[1,2,3,4]}`)
			return
		}
		ids, _ := parseIDs(query.Get("objectIds"))
		fc := geojson.NewFeatureCollection()
		for _, id := range ids {
			feature := geojson.NewFeature(orb.LineString{{0, 0}, {1, 1}})
			feature.Properties["OBJECTID"] = id
			feature.Properties["chunk"] = query.Get("objectIds")
			fc.Append(feature)
		}
		if ids[0] == 3 {
			extra := geojson.NewFeature(orb.LineString{{0, 0}, {1, 1}})
			extra.Properties["OBJECTID"] = 2
			extra.Properties["chunk"] = query.Get("objectIds")
			fc.Append(extra)
		}
		data, _ := fc.MarshalJSON()
		w.Write(data)
	}))
	defer server.Close()

	fc, err := testFetcher(server.URL).FetchShoreline(testBBox(), FetchOptions{Parallel: false})
	if err != nil {
		t.Fatalf("FetchShoreline failed: %v", err)
	}
	if len(fc.Features) != 4 {
		t.Fatalf("got %d features, want 4 after dedupe", len(fc.Features))
	}
	for _, feature := range fc.Features {
		oid, _ := featureObjectID(feature)
		if oid == 2 && feature.Properties["chunk"] != "1,2" {
			t.Errorf("duplicate id 2 kept from chunk %v, want first chunk", feature.Properties["chunk"])
		}
	}
}

func TestFetchShorelineEmpty(t *testing.T) {
	stub := &arcgisStub{ids: nil}
	server := httptest.NewServer(stub.handler(t))
	defer server.Close()

	fc, err := testFetcher(server.URL).FetchShoreline(testBBox(), FetchOptions{})
	if err != nil {
		t.Fatalf("FetchShoreline failed: %v", err)
	}
	if len(fc.Features) != 0 {
		t.Errorf("got %d features, want 0", len(fc.Features))
	}
}

func TestFeatureObjectID(t *testing.T) {
	tests := []struct {
		name   string
		value  interface{}
		want   int64
		wantOK bool
	}{
		{"float64", float64(42), 42, true},
		{"int", 42, 42, true},
		{"int64", int64(42), 42, true},
		{"string", "42", 42, true},
		{"bad string", "forty-two", 0, false},
		{"missing", nil, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			feature := geojson.NewFeature(orb.Point{0, 0})
			if tt.value != nil {
				feature.Properties["OBJECTID"] = tt.value
			}
			got, ok := featureObjectID(feature)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("featureObjectID = (%d, %v), want (%d, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
