package export

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeS3 answers the bucket and object calls an upload makes.
type fakeS3 struct {
	mu      sync.Mutex
	buckets map[string]bool
	objects map[string]string
	calls   []string
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, r.Method+" "+r.URL.Path)

	bucket, object, _ := strings.Cut(strings.TrimPrefix(r.URL.Path, "/"), "/")
	switch {
	case r.Method == http.MethodHead && object == "":
		if !f.buckets[bucket] {
			w.WriteHeader(http.StatusNotFound)
			return
		}
	case r.Method == http.MethodPut && object == "":
		f.buckets[bucket] = true
	case r.Method == http.MethodPut:
		f.objects[bucket+"/"+object] = r.Header.Get("Content-Type")
		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
	}
	w.WriteHeader(http.StatusOK)
}

func TestMinIOUploader(t *testing.T) {
	s3 := &fakeS3{buckets: map[string]bool{}, objects: map[string]string{}}
	srv := httptest.NewServer(s3)
	defer srv.Close()

	u, err := NewMinIOUploader(MinIOConfig{
		Endpoint:  strings.TrimPrefix(srv.URL, "http://"),
		AccessKey: "access",
		SecretKey: "secret",
		Bucket:    "menus",
		Region:    "us-east-1",
		URLExpiry: time.Hour,
	})
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	for _, ms := range []int64{1000, 2000} {
		url, err := u.Upload(ctx, NewArtifact([]byte("png"), time.UnixMilli(ms)))
		if err != nil {
			t.Fatalf("Upload: %v", err)
		}
		if !strings.Contains(url, "/menus/"+FileName(time.UnixMilli(ms))) || !strings.Contains(url, "X-Amz-Signature=") {
			t.Errorf("url = %q, want presigned object URL", url)
		}
	}

	if got := s3.objects["menus/svg-1000.png"]; got != ContentTypePNG {
		t.Errorf("content type = %q, want %q", got, ContentTypePNG)
	}

	bucketChecks := 0
	for _, c := range s3.calls {
		if c == "HEAD /menus/" || c == "HEAD /menus" {
			bucketChecks++
		}
	}
	if bucketChecks != 1 {
		t.Errorf("bucket checked %d times, want once: %v", bucketChecks, s3.calls)
	}
}
