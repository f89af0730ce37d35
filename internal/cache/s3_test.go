package cache

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"si-go/internal/config"
	"si-go/internal/si"
)

// fakeS3 serves path-style object requests from memory.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	denyPut bool
}

func newFakeS3(t *testing.T) (*fakeS3, *httptest.Server) {
	t.Helper()

	f := &fakeS3{objects: make(map[string][]byte)}
	r := chi.NewRouter()
	r.Head("/{bucket}/*", f.head)
	r.Get("/{bucket}/*", f.get)
	r.Put("/{bucket}/*", f.put)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return f, srv
}

func objectPath(r *http.Request) string {
	return chi.URLParam(r, "bucket") + "/" + chi.URLParam(r, "*")
}

func (f *fakeS3) object(path string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[path]
	return data, ok
}

func (f *fakeS3) head(w http.ResponseWriter, r *http.Request) {
	data, ok := f.object(objectPath(r))
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Length", fmt.Sprint(len(data)))
	w.WriteHeader(http.StatusOK)
}

func (f *fakeS3) get(w http.ResponseWriter, r *http.Request) {
	data, ok := f.object(objectPath(r))
	if !ok {
		writeS3Error(w, http.StatusNotFound, "NoSuchKey", "The specified key does not exist.")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", fmt.Sprint(len(data)))
	w.Write(data)
}

func (f *fakeS3) put(w http.ResponseWriter, r *http.Request) {
	if f.denyPut {
		writeS3Error(w, http.StatusForbidden, "AccessDenied", "Access Denied")
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	f.objects[objectPath(r)] = body
	f.mu.Unlock()

	w.Header().Set("ETag", `"fake-etag"`)
	w.WriteHeader(http.StatusOK)
}

func writeS3Error(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(status)
	fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>%s</Code><Message>%s</Message></Error>`, code, message)
}

func newTestS3Store(t *testing.T, endpoint string) *S3Store {
	t.Helper()
	t.Setenv("AWS_EC2_METADATA_DISABLED", "true")

	store, err := NewS3Store(config.CacheConfig{
		Type:              "s3",
		S3Bucket:          "team-cache",
		S3Prefix:          "si",
		S3Region:          "us-east-1",
		S3Endpoint:        endpoint,
		S3AccessKeyID:     "test",
		S3SecretAccessKey: "test",
	}, "work")
	if err != nil {
		t.Fatalf("NewS3Store() error = %v", err)
	}
	return store
}

func TestS3Store_MissingObject(t *testing.T) {
	_, srv := newFakeS3(t)
	store := newTestS3Store(t, srv.URL)

	if store.IsInitialized() {
		t.Error("IsInitialized() = true before any Save")
	}

	_, err := store.Load()
	if !errors.Is(err, si.ErrCacheNotFound) {
		t.Errorf("Load() error = %v, want ErrCacheNotFound", err)
	}
}

func TestS3Store_SaveAndLoad(t *testing.T) {
	fake, srv := newFakeS3(t)
	store := newTestS3Store(t, srv.URL)

	doc := exampleDocument()
	if err := store.Save(doc); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	stored, ok := fake.object("team-cache/si/work.json")
	if !ok {
		t.Fatal("no object at team-cache/si/work.json after Save")
	}
	want, err := si.EncodeDocument(doc)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(stored, want) {
		t.Errorf("stored object:\n%s\nwant:\n%s", stored, want)
	}

	if !store.IsInitialized() {
		t.Error("IsInitialized() = false after Save")
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Me.ID != doc.Me.ID {
		t.Errorf("Me.ID = %q, want %q", loaded.Me.ID, doc.Me.ID)
	}
	if len(loaded.Team) != len(doc.Team) {
		t.Errorf("len(Team) = %d, want %d", len(loaded.Team), len(doc.Team))
	}
}

func TestS3Store_CorruptObject(t *testing.T) {
	fake, srv := newFakeS3(t)
	fake.objects["team-cache/si/work.json"] = []byte("not json")
	store := newTestS3Store(t, srv.URL)

	if _, err := store.Load(); !errors.Is(err, si.ErrCacheCorrupt) {
		t.Errorf("Load() error = %v, want ErrCacheCorrupt", err)
	}
}

func TestS3Store_SaveDenied(t *testing.T) {
	fake, srv := newFakeS3(t)
	fake.denyPut = true
	store := newTestS3Store(t, srv.URL)

	if err := store.Save(exampleDocument()); !errors.Is(err, si.ErrCacheWrite) {
		t.Errorf("Save() error = %v, want ErrCacheWrite", err)
	}
}
