package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

const testListing = `[
  {"name": "ckd.prb", "path": "rules/ckd.prb", "sha": "a1", "size": 10, "type": "file"},
  {"name": "anaemia.prb", "path": "rules/anaemia.prb", "sha": "b2", "size": 12, "type": "file"},
  {"name": "README.md", "path": "rules/README.md", "type": "file"},
  {"name": "old.prb", "path": "rules/old.prb", "type": "dir"}
]`

// headerLog records request headers seen by the test server.
type headerLog struct {
	mu      sync.Mutex
	headers []http.Header
}

func (l *headerLog) first() http.Header {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.headers[0]
}

func newTestGitHub(t *testing.T, token string) (*GitHub, *headerLog) {
	t.Helper()
	seen := &headerLog{}

	mux := http.NewServeMux()
	mux.HandleFunc("/repos/asaabey/rules/contents/rules", func(w http.ResponseWriter, r *http.Request) {
		seen.mu.Lock()
		seen.headers = append(seen.headers, r.Header.Clone())
		seen.mu.Unlock()
		if r.URL.Query().Get("ref") != "master" {
			http.Error(w, "bad ref", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(testListing))
	})
	mux.HandleFunc("/repos/asaabey/rules/contents/templates", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	})
	mux.HandleFunc("/asaabey/rules/master/rules/ckd.prb", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("egfr => eadv.lab_bld_egfr.val.last();"))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	gh := NewGitHub(GitHubOptions{
		Owner:         "asaabey",
		Repo:          "rules",
		Branch:        "master",
		RuleblockPath: "rules",
		TemplatePath:  "templates",
		Token:         token,
		APIURL:        srv.URL + "/",
		RawURL:        srv.URL,
	})
	return gh, seen
}

func TestGitHubListRuleblocks(t *testing.T) {
	gh, seen := newTestGitHub(t, "secret")

	files, err := gh.ListRuleblocks(context.Background())
	if err != nil {
		t.Fatalf("ListRuleblocks: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("got %d files, want 2: %+v", len(files), files)
	}
	if files[0].Name != "anaemia.prb" || files[1].Name != "ckd.prb" {
		t.Errorf("files not sorted by name: %s, %s", files[0].Name, files[1].Name)
	}
	if files[1].SHA != "a1" || files[1].Size != 10 {
		t.Errorf("ckd.prb fields = %+v", files[1])
	}

	hdr := seen.first()
	if got := hdr.Get("Authorization"); got != "token secret" {
		t.Errorf("Authorization = %q, want %q", got, "token secret")
	}
	if got := hdr.Get("Accept"); got != "application/vnd.github.v3+json" {
		t.Errorf("Accept = %q", got)
	}
}

func TestGitHubNoTokenHeader(t *testing.T) {
	gh, seen := newTestGitHub(t, "")
	if _, err := gh.ListRuleblocks(context.Background()); err != nil {
		t.Fatalf("ListRuleblocks: %v", err)
	}
	if got := seen.first().Get("Authorization"); got != "" {
		t.Errorf("Authorization = %q, want none", got)
	}
}

func TestGitHubListError(t *testing.T) {
	gh, _ := newTestGitHub(t, "")
	_, err := gh.ListTemplates(context.Background())
	if err == nil {
		t.Fatal("ListTemplates expected error")
	}
	if !strings.Contains(err.Error(), "403") {
		t.Errorf("error %q does not name the status", err)
	}
	if errors.Is(err, ErrNotFound) {
		t.Error("403 must not wrap ErrNotFound")
	}
}

func TestGitHubFetch(t *testing.T) {
	gh, _ := newTestGitHub(t, "")
	ctx := context.Background()

	content, err := gh.Fetch(ctx, testFile("ckd.prb", "rules/ckd.prb"))
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !strings.HasPrefix(content, "egfr =>") {
		t.Errorf("content = %q", content)
	}

	_, err = gh.Fetch(ctx, testFile("gone.prb", "rules/gone.prb"))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Fetch(missing) error = %v, want ErrNotFound", err)
	}
}

func TestGitHubBlobURL(t *testing.T) {
	gh := NewGitHub(GitHubOptions{
		Owner:        "asaabey",
		Repo:         "tkc-picorules-rules",
		Branch:       "master",
		TemplatePath: "/picodomain_template_pack/template_blocks/",
	})
	want := "https://github.com/asaabey/tkc-picorules-rules/blob/master/picodomain_template_pack/template_blocks/ckd.txt"
	if got := gh.BlobURL("ckd.txt"); got != want {
		t.Errorf("BlobURL = %q, want %q", got, want)
	}
}
