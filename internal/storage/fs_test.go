package storage_test

import (
	"io"
	"strings"
	"testing"

	"github.com/classhub/classhub-lms/internal/storage"
)

func TestFSStoreRoundTrip(t *testing.T) {
	st, err := storage.NewFSStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	key, err := st.Put("submissions/a1/s1/essay.txt", strings.NewReader("my essay"))
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	rc, err := st.Get(key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer rc.Close()
	b, _ := io.ReadAll(rc)
	if string(b) != "my essay" {
		t.Fatalf("content = %q", b)
	}

	u, err := st.SignedURL(key)
	if err != nil || !strings.HasPrefix(u, "file://") {
		t.Fatalf("SignedURL = %q, %v", u, err)
	}

	if err := st.Delete(key); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := st.Get(key); err == nil {
		t.Fatal("get after delete should fail")
	}
	// deleting a missing key is not an error
	if err := st.Delete(key); err != nil {
		t.Fatalf("re-delete: %v", err)
	}
}

func TestFSStoreRejectsTraversal(t *testing.T) {
	st, err := storage.NewFSStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"", ".", ".."} {
		if _, err := st.Put(key, strings.NewReader("x")); err == nil {
			t.Errorf("Put(%q) should fail", key)
		}
	}
	// dot-dot segments are stripped, keeping the path inside the base
	for _, key := range []string{"../escape.txt", "a/../../../etc/passwd"} {
		u, err := st.SignedURL(key)
		if err != nil {
			t.Fatalf("SignedURL(%q): %v", key, err)
		}
		if strings.Contains(u, "..") {
			t.Errorf("key %q survived normalization: %s", key, u)
		}
	}
}
