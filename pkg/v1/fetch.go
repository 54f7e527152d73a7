package coastline

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// DefaultQueryURL is the WA Ecology Coastal Atlas shoreline layer (high
// detail polylines, layer 13).
const DefaultQueryURL = "https://gis.ecology.wa.gov/serverext/rest/services/GIS/CoastalAtlas/MapServer/13/query"

// Fetcher downloads shoreline polylines from an ArcGIS MapServer query
// endpoint.
//
// ArcGIS servers cap result counts per request, so fetching works in two
// steps: list the object ids intersecting a bbox, then fetch feature chunks
// by explicit id lists. Chunks are retried individually with a linear
// backoff before the fetch fails.
//
// Example:
//
//	fetcher := coastline.NewFetcher()
//	bbox, _ := coastline.ParseBBox("-123.5,46.9,-122.0,49.1")
//	fc, err := fetcher.FetchShoreline(bbox, coastline.DefaultFetchOptions())
type Fetcher struct {
	// QueryURL is the MapServer layer query endpoint.
	QueryURL string

	// OutFields lists the attribute fields to request per feature.
	OutFields string

	// ChunkSize is the number of object ids per feature request.
	ChunkSize int

	// Retries is the number of additional attempts per failed chunk.
	Retries int

	// RetryDelay is the base backoff; attempt n waits n*RetryDelay.
	RetryDelay time.Duration

	// Client is the HTTP client used for all requests.
	Client *http.Client
}

// NewFetcher returns a fetcher for the WA Ecology shoreline layer.
func NewFetcher() *Fetcher {
	return &Fetcher{
		QueryURL:   DefaultQueryURL,
		OutFields:  "OBJECTID,Shoretype,DataSource",
		ChunkSize:  500,
		Retries:    3,
		RetryDelay: 1500 * time.Millisecond,
		Client:     &http.Client{Timeout: 2 * time.Minute},
	}
}

// getJSON issues a GET and returns the response body.
func (f *Fetcher) getJSON(query url.Values) ([]byte, error) {
	resp, err := f.Client.Get(f.QueryURL + "?" + query.Encode())
	if err != nil {
		return nil, fmt.Errorf("query layer: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("query failed: HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return body, nil
}

// ObjectIDs returns the sorted object ids of features intersecting bbox.
func (f *Fetcher) ObjectIDs(bbox orb.Bound) ([]int, error) {
	query := url.Values{}
	query.Set("where", "1=1")
	query.Set("geometry", fmt.Sprintf("%v,%v,%v,%v", bbox.Min[0], bbox.Min[1], bbox.Max[0], bbox.Max[1]))
	query.Set("geometryType", "esriGeometryEnvelope")
	query.Set("inSR", "4326")
	query.Set("spatialRel", "esriSpatialRelIntersects")
	query.Set("returnIdsOnly", "true")
	query.Set("f", "json")

	body, err := f.getJSON(query)
	if err != nil {
		return nil, err
	}

	var payload struct {
		ObjectIDs []int `json:"objectIds"`
		Error     *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("parse id response: %w", err)
	}
	if payload.Error != nil {
		return nil, fmt.Errorf("server error %d: %s", payload.Error.Code, payload.Error.Message)
	}

	sort.Ints(payload.ObjectIDs)
	return payload.ObjectIDs, nil
}

// FetchChunk fetches the features for an explicit object id list.
func (f *Fetcher) FetchChunk(ids []int) ([]*geojson.Feature, error) {
	strs := make([]string, len(ids))
	for i, id := range ids {
		strs[i] = strconv.Itoa(id)
	}

	query := url.Values{}
	query.Set("objectIds", strings.Join(strs, ","))
	query.Set("outFields", f.OutFields)
	query.Set("outSR", "4326")
	query.Set("f", "geojson")

	body, err := f.getJSON(query)
	if err != nil {
		return nil, err
	}

	fc, err := geojson.UnmarshalFeatureCollection(body)
	if err != nil {
		return nil, fmt.Errorf("parse feature response: %w", err)
	}
	return fc.Features, nil
}

// fetchChunkRetry retries FetchChunk with linear backoff.
func (f *Fetcher) fetchChunkRetry(ids []int) ([]*geojson.Feature, error) {
	var lastErr error
	for attempt := 0; attempt <= f.Retries; attempt++ {
		if attempt > 0 {
			time.Sleep(time.Duration(attempt) * f.RetryDelay)
		}
		features, err := f.FetchChunk(ids)
		if err == nil {
			return features, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("chunk failed after %d retries: %w", f.Retries, lastErr)
}

// FetchShoreline fetches every feature intersecting bbox.
//
// Object ids are listed first, then fetched in chunks of ChunkSize by a
// worker pool (FetchOptions controls parallelism, progress reporting, and
// whether chunk failures abort the fetch). Features are assembled in chunk
// order and de-duplicated by OBJECTID, so the result is deterministic for a
// fixed server state regardless of worker scheduling.
func (f *Fetcher) FetchShoreline(bbox orb.Bound, opts FetchOptions) (*geojson.FeatureCollection, error) {
	ids, err := f.ObjectIDs(bbox)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return geojson.NewFeatureCollection(), nil
	}

	chunkSize := f.ChunkSize
	if chunkSize <= 0 {
		chunkSize = 500
	}
	var chunks [][]int
	for start := 0; start < len(ids); start += chunkSize {
		end := start + chunkSize
		if end > len(ids) {
			end = len(ids)
		}
		chunks = append(chunks, ids[start:end])
	}

	results, errs := f.fetchChunks(chunks, opts)
	if len(errs) > 0 && !opts.SkipErrors {
		return nil, errs[0]
	}

	// Assemble in chunk order, keeping the first feature seen per OBJECTID.
	fc := geojson.NewFeatureCollection()
	seen := make(map[int64]bool)
	for _, features := range results {
		for _, feature := range features {
			oid, ok := featureObjectID(feature)
			if !ok {
				continue
			}
			if seen[oid] {
				continue
			}
			seen[oid] = true
			fc.Append(feature)
		}
	}
	return fc, nil
}

// fetchChunks runs the chunk requests, optionally in parallel, returning
// per-chunk feature slices in input order plus any chunk errors.
func (f *Fetcher) fetchChunks(chunks [][]int, opts FetchOptions) ([][]*geojson.Feature, []error) {
	results := make([][]*geojson.Feature, len(chunks))

	report := func(done int) {
		if opts.Progress != nil {
			opts.Progress(done, len(chunks))
		}
	}
	logErr := func(index int, err error) {
		if opts.ErrorLog != nil {
			fmt.Fprintf(opts.ErrorLog, "Error fetching chunk %d/%d: %v\n", index+1, len(chunks), err)
		}
	}

	if !opts.Parallel || len(chunks) == 1 {
		var errs []error
		for i, chunk := range chunks {
			features, err := f.fetchChunkRetry(chunk)
			report(i + 1)
			if err != nil {
				err = fmt.Errorf("chunk %d/%d: %w", i+1, len(chunks), err)
				logErr(i, err)
				errs = append(errs, err)
				if !opts.SkipErrors {
					return results, errs
				}
				continue
			}
			results[i] = features
		}
		return results, errs
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultFetchOptions().Workers
	}
	if workers > len(chunks) {
		workers = len(chunks)
	}

	type chunkResult struct {
		index    int
		features []*geojson.Feature
		err      error
	}

	jobs := make(chan int, len(chunks))
	out := make(chan chunkResult, len(chunks))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for index := range jobs {
				features, err := f.fetchChunkRetry(chunks[index])
				out <- chunkResult{index: index, features: features, err: err}
			}
		}()
	}

	for i := range chunks {
		jobs <- i
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(out)
	}()

	var errs []error
	done := 0
	for result := range out {
		done++
		report(done)
		if result.err != nil {
			err := fmt.Errorf("chunk %d/%d: %w", result.index+1, len(chunks), result.err)
			logErr(result.index, err)
			errs = append(errs, err)
			continue
		}
		results[result.index] = result.features
	}
	return results, errs
}

// featureObjectID extracts the OBJECTID property. JSON numbers decode as
// float64; servers occasionally return ids as strings.
func featureObjectID(feature *geojson.Feature) (int64, bool) {
	if feature == nil {
		return 0, false
	}
	switch v := feature.Properties["OBJECTID"].(type) {
	case float64:
		return int64(v), true
	case int:
		return int64(v), true
	case int64:
		return v, true
	case string:
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, false
		}
		return id, true
	}
	return 0, false
}
