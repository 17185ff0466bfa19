package redline

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hazyhaar/redline/ooxml"
)

// multipartBody builds a form with one file part per field.
func multipartBody(t *testing.T, files map[string]string, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for field, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		fw, err := mw.CreateFormFile(field, filepath.Base(path))
		if err != nil {
			t.Fatal(err)
		}
		fw.Write(data)
	}
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func postCompare(t *testing.T, srv *httptest.Server, files, fields map[string]string) *http.Response {
	t.Helper()
	body, ct := multipartBody(t, files, fields)
	resp, err := http.Post(srv.URL+"/api/compare", ct, body)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func errorOf(t *testing.T, resp *http.Response) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body.Error
}

func TestHTTP_Health(t *testing.T) {
	srv := httptest.NewServer(newComparator(t, Config{}).Routes())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if resp.Header.Get("X-Request-ID") == "" || resp.Header.Get("X-Content-Type-Options") != "nosniff" {
		t.Errorf("middleware headers missing: %v", resp.Header)
	}
}

func TestHTTP_Compare(t *testing.T) {
	dir := t.TempDir()
	src := writeDocx(t, dir, "old.docx", "keep", "drop")
	dst := writeDocx(t, filepath.Join(t.TempDir()), "new.docx", "keep", "drop", "added")

	srv := httptest.NewServer(newComparator(t, Config{}).Routes())
	defer srv.Close()

	resp := postCompare(t, srv, map[string]string{"source": src, "target": dst}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.StatusCode, errorOf(t, resp))
	}
	if ct := resp.Header.Get("Content-Type"); ct != DocxContentType {
		t.Errorf("content type = %q", ct)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "result_old_vs_new.docx") {
		t.Errorf("content disposition = %q", cd)
	}
	if resp.Header.Get("X-Redline-Mode") != ModeParagraph || resp.Header.Get("X-Redline-Insert") != "1" {
		t.Errorf("stat headers = %v", resp.Header)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(t.TempDir(), "got.docx")
	os.WriteFile(out, data, 0o644)
	text, err := newComparator(t, Config{}).Pipeline().Text(t.Context(), out)
	if err != nil {
		t.Fatalf("response is not a readable docx: %v", err)
	}
	if text != "keep\ndrop\nadded" {
		t.Fatalf("text = %q", text)
	}
}

func TestHTTP_Compare_SameFileNames(t *testing.T) {
	// WHAT: two uploads with the same client file name do not overwrite
	// each other.
	a := writeDocx(t, t.TempDir(), "doc.docx", "one")
	b := writeDocx(t, t.TempDir(), "doc.docx", "two")

	srv := httptest.NewServer(newComparator(t, Config{}).Routes())
	defer srv.Close()

	resp := postCompare(t, srv, map[string]string{"source": a, "target": b}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if resp.Header.Get("X-Redline-Replace") != "1" {
		t.Fatalf("expected a replace, headers = %v", resp.Header)
	}
}

func TestHTTP_Compare_PDFWarning(t *testing.T) {
	dir := t.TempDir()
	src := writePDF(t, dir, "a.pdf", "Page1")
	dst := writePDF(t, dir, "b.pdf", "Page2")

	srv := httptest.NewServer(newComparator(t, Config{}).Routes())
	defer srv.Close()

	resp := postCompare(t, srv, map[string]string{"source": src, "target": dst}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.StatusCode, errorOf(t, resp))
	}
	if resp.Header.Get("X-Redline-Mode") != ModeText || resp.Header.Get("X-Redline-Warning") != PDFWarning {
		t.Errorf("headers = %v", resp.Header)
	}
}

func TestHTTP_Compare_Errors(t *testing.T) {
	dir := t.TempDir()
	docx := writeDocx(t, dir, "a.docx", "x")
	pdf := writePDF(t, dir, "b.pdf", "x")
	txt := filepath.Join(dir, "c.txt")
	os.WriteFile(txt, []byte("x"), 0o644)
	bad := filepath.Join(dir, "bad.docx")
	os.WriteFile(bad, []byte("not a zip"), 0o644)

	srv := httptest.NewServer(newComparator(t, Config{}).Routes())
	defer srv.Close()

	tests := []struct {
		name   string
		files  map[string]string
		status int
	}{
		{"mismatch", map[string]string{"source": docx, "target": pdf}, http.StatusBadRequest},
		{"unsupported", map[string]string{"source": txt, "target": txt}, http.StatusBadRequest},
		{"missing target", map[string]string{"source": docx}, http.StatusBadRequest},
		{"corrupt", map[string]string{"source": docx, "target": bad}, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		resp := postCompare(t, srv, tt.files, nil)
		if resp.StatusCode != tt.status {
			t.Errorf("%s: status = %d, want %d", tt.name, resp.StatusCode, tt.status)
			continue
		}
		if msg := errorOf(t, resp); msg == "" {
			t.Errorf("%s: empty error message", tt.name)
		}
	}
}

func TestHTTP_Compare_TooLarge(t *testing.T) {
	dir := t.TempDir()
	doc := ooxml.New()
	doc.AddParagraph().AddRun(strings.Repeat("x", 1<<20))
	big := filepath.Join(dir, "big.docx")
	if err := doc.Save(big); err != nil {
		t.Fatal(err)
	}

	srv := httptest.NewServer(newComparator(t, Config{MaxFileSize: 10}).Routes())
	defer srv.Close()

	resp := postCompare(t, srv, map[string]string{"source": big, "target": big}, nil)
	if resp.StatusCode != http.StatusUnprocessableEntity && resp.StatusCode != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestHTTP_History(t *testing.T) {
	dir := t.TempDir()
	src := writeDocx(t, dir, "a.docx", "x")
	c := newComparator(t, Config{HistoryDB: filepath.Join(dir, "history.db")})
	srv := httptest.NewServer(c.Routes())
	defer srv.Close()

	resp := postCompare(t, srv, map[string]string{"source": src, "target": src}, nil)
	id := resp.Header.Get("X-Redline-Id")
	if resp.StatusCode != http.StatusOK || id == "" {
		t.Fatalf("compare status = %d, id = %q", resp.StatusCode, id)
	}

	list, err := http.Get(srv.URL + "/api/history?limit=5")
	if err != nil {
		t.Fatal(err)
	}
	defer list.Body.Close()
	var recs []Record
	if err := json.NewDecoder(list.Body).Decode(&recs); err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 || recs[0].ID != id {
		t.Fatalf("history = %+v", recs)
	}

	one, err := http.Get(srv.URL + "/api/history/" + id)
	if err != nil {
		t.Fatal(err)
	}
	defer one.Body.Close()
	if one.StatusCode != http.StatusOK {
		t.Fatalf("get status = %d", one.StatusCode)
	}

	missing, err := http.Get(srv.URL + "/api/history/cmp_nope")
	if err != nil {
		t.Fatal(err)
	}
	defer missing.Body.Close()
	if missing.StatusCode != http.StatusNotFound {
		t.Fatalf("missing status = %d", missing.StatusCode)
	}
}

func TestHTTP_HistoryDisabled(t *testing.T) {
	srv := httptest.NewServer(newComparator(t, Config{}).Routes())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/history")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}
