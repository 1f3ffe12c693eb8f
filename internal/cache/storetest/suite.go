// Package storetest provides a conformance suite for cache.Store
// implementations.
//
// Usage:
//
//	func TestMyStore(t *testing.T) {
//	    storetest.TestStore(t, func(t *testing.T) cache.Store {
//	        return newMyStore(t)
//	    })
//	}
package storetest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jmgilman/go/econt/internal/cache"
)

// Factory returns a new, empty store. The suite closes it when the subtest ends.
type Factory func(t *testing.T) cache.Store

// TestStore runs every conformance test against stores built by newStore.
func TestStore(t *testing.T, newStore Factory) {
	run := func(name string, fn func(t *testing.T, s cache.Store)) {
		t.Run(name, func(t *testing.T) {
			s := newStore(t)
			t.Cleanup(func() { _ = s.Close() })
			fn(t, s)
		})
	}

	run("ReadMissing", testReadMissing)
	run("WriteRead", testWriteRead)
	run("Overwrite", testOverwrite)
	run("KeysWithSeparators", testKeysWithSeparators)
	run("DeleteKeys", testDeleteKeys)
	run("DeleteAll", testDeleteAll)
	run("List", testList)
	run("ConcurrentWriteRead", testConcurrentWriteRead)
}

func entry(key string, n int) *cache.Entry {
	records := make([]map[string]int, n)
	for i := range records {
		records[i] = map[string]int{"id": i}
	}
	payload, _ := json.Marshal(records)
	return &cache.Entry{
		Key:       key,
		Payload:   payload,
		Count:     n,
		FetchedAt: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		TTL:       time.Hour,
	}
}

func mustWrite(t *testing.T, s cache.Store, e *cache.Entry) {
	t.Helper()
	if err := s.Write(context.Background(), e); err != nil {
		t.Fatalf("Write(%s): setup failed: %v", e.Key, err)
	}
}

func testReadMissing(t *testing.T, s cache.Store) {
	_, err := s.Read(context.Background(), "countries")
	if !cache.IsNotFound(err) {
		t.Errorf("Read(countries): got error %v, want not found", err)
	}
}

func testWriteRead(t *testing.T, s cache.Store) {
	want := entry("offices", 3)
	mustWrite(t, s, want)

	got, err := s.Read(context.Background(), "offices")
	if err != nil {
		t.Fatalf("Read(offices): got error %v, want nil", err)
	}
	if got.Key != want.Key || got.Count != want.Count || got.TTL != want.TTL {
		t.Errorf("Read(offices): got %+v, want %+v", got, want)
	}
	if !got.FetchedAt.Equal(want.FetchedAt) {
		t.Errorf("Read(offices).FetchedAt: got %v, want %v", got.FetchedAt, want.FetchedAt)
	}
	if !bytes.Equal(compact(t, got.Payload), compact(t, want.Payload)) {
		t.Errorf("Read(offices).Payload: got %s, want %s", got.Payload, want.Payload)
	}
}

func testOverwrite(t *testing.T, s cache.Store) {
	mustWrite(t, s, entry("cities", 2))
	mustWrite(t, s, entry("cities", 5))

	got, err := s.Read(context.Background(), "cities")
	if err != nil {
		t.Fatalf("Read(cities): got error %v, want nil", err)
	}
	if got.Count != 5 {
		t.Errorf("Read(cities).Count: got %d, want 5", got.Count)
	}
}

func testKeysWithSeparators(t *testing.T, s cache.Store) {
	keys := []string{cache.StreetsKey(41), "a/b", "x y"}
	for i, key := range keys {
		mustWrite(t, s, entry(key, i+1))
	}
	for i, key := range keys {
		got, err := s.Read(context.Background(), key)
		if err != nil {
			t.Errorf("Read(%q): got error %v, want nil", key, err)
			continue
		}
		if got.Count != i+1 {
			t.Errorf("Read(%q).Count: got %d, want %d", key, got.Count, i+1)
		}
	}
}

func testDeleteKeys(t *testing.T, s cache.Store) {
	ctx := context.Background()
	mustWrite(t, s, entry("countries", 1))
	mustWrite(t, s, entry("cities", 1))

	if err := s.Delete(ctx, "countries", "never-written"); err != nil {
		t.Fatalf("Delete(countries, never-written): got error %v, want nil", err)
	}
	if _, err := s.Read(ctx, "countries"); !cache.IsNotFound(err) {
		t.Errorf("Read(countries) after delete: got error %v, want not found", err)
	}
	if _, err := s.Read(ctx, "cities"); err != nil {
		t.Errorf("Read(cities) after deleting countries: got error %v, want nil", err)
	}
}

func testDeleteAll(t *testing.T, s cache.Store) {
	ctx := context.Background()
	for _, key := range []string{"countries", "cities", cache.StreetsKey(1)} {
		mustWrite(t, s, entry(key, 1))
	}

	if err := s.Delete(ctx); err != nil {
		t.Fatalf("Delete(): got error %v, want nil", err)
	}
	statuses, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List(): got error %v, want nil", err)
	}
	if len(statuses) != 0 {
		t.Errorf("List() after Delete(): got %d entries, want 0", len(statuses))
	}
}

func testList(t *testing.T, s cache.Store) {
	mustWrite(t, s, entry("offices", 4))
	mustWrite(t, s, entry("countries", 2))

	statuses, err := s.List(context.Background())
	if err != nil {
		t.Fatalf("List(): got error %v, want nil", err)
	}
	if len(statuses) != 2 {
		t.Fatalf("List(): got %d entries, want 2", len(statuses))
	}
	if statuses[0].Key != "countries" || statuses[1].Key != "offices" {
		t.Errorf("List(): got keys [%s %s], want [countries offices]", statuses[0].Key, statuses[1].Key)
	}
	st := statuses[1]
	if !st.Present || st.Count != 4 || st.TTL != time.Hour {
		t.Errorf("List()[offices]: got %+v", st)
	}
	if want := st.FetchedAt.Add(time.Hour); !st.ExpiresAt.Equal(want) {
		t.Errorf("List()[offices].ExpiresAt: got %v, want %v", st.ExpiresAt, want)
	}
}

// testConcurrentWriteRead checks that readers only ever observe whole entries.
func testConcurrentWriteRead(t *testing.T, s cache.Store) {
	ctx := context.Background()
	mustWrite(t, s, entry("offices", 1))

	var wg sync.WaitGroup
	errs := make(chan error, 64)
	for i := 1; i <= 8; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			if err := s.Write(ctx, entry("offices", n)); err != nil {
				errs <- err
			}
		}(i)
		go func() {
			defer wg.Done()
			e, err := s.Read(ctx, "offices")
			if err != nil {
				errs <- err
				return
			}
			var records []json.RawMessage
			if err := json.Unmarshal(e.Payload, &records); err != nil {
				errs <- err
				return
			}
			if len(records) != e.Count {
				errs <- fmt.Errorf("torn entry: count %d, payload has %d records", e.Count, len(records))
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("concurrent access: %v", err)
	}
}

func compact(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := json.Compact(&buf, data); err != nil {
		t.Fatalf("invalid JSON %s: %v", data, err)
	}
	return buf.Bytes()
}
