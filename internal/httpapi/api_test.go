package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jonboulle/clockwork"

	"github.com/local/pdfsigner/internal/docstore"
	"github.com/local/pdfsigner/internal/export"
	"github.com/local/pdfsigner/internal/flatten"
	"github.com/local/pdfsigner/internal/pdftest"
	"github.com/local/pdfsigner/internal/render"
	"github.com/local/pdfsigner/internal/session"
	"github.com/local/pdfsigner/internal/signature"
	"github.com/local/pdfsigner/internal/statuscheck"
	"github.com/local/pdfsigner/internal/surface"
	"github.com/local/pdfsigner/internal/viewport"
)

type raster struct{ pages int }

func (f raster) Open(data []byte) (render.Document, error) { return doc{n: f.pages}, nil }

type doc struct{ n int }

func (d doc) PageCount() int                    { return d.n }
func (d doc) Page(ord int) (render.Page, error) { return page{}, nil }
func (d doc) Close() error                      { return nil }

type page struct{}

func (page) Viewport(scale float64) render.Viewport {
	return render.Viewport{Scale: scale, Width: int(400 * scale), Height: int(600 * scale)}
}
func (page) Render(ctx context.Context, dst *surface.Surface, vp render.Viewport) error { return nil }

type editor struct{ pages int }

func (e editor) Load(data []byte) (flatten.Document, error) {
	d := &editDoc{}
	for i := 0; i < e.pages; i++ {
		d.pages = append(d.pages, editPage{})
	}
	return d, nil
}

type editDoc struct{ pages []flatten.Page }

func (d *editDoc) Pages() []flatten.Page                       { return d.pages }
func (d *editDoc) EmbedPNG(data []byte) (flatten.Image, error) { return img{}, nil }
func (d *editDoc) Save() ([]byte, error)                       { return []byte("%PDF-1.7 signed"), nil }

type editPage struct{}

func (editPage) Width() float64                                      { return 400 }
func (editPage) Height() float64                                     { return 600 }
func (editPage) DrawImage(i flatten.Image, x, y, w, h float64) error { return nil }

type img struct{}

func (img) Width() int  { return 1 }
func (img) Height() int { return 1 }

type health struct{ ok bool }

func (h health) Summary(ctx context.Context) statuscheck.Summary { return statuscheck.Summary{OK: h.ok} }

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	fonts, err := signature.NewFontBank("", 48)
	if err != nil {
		t.Fatal(err)
	}
	m := session.New(session.Config{
		Viewport:  viewport.Config{Threshold: 0.25, PageGap: 10, ThumbGap: 10, MainHeight: 900, RailHeight: 900},
		Signature: signature.Config{CharLimit: 25, PadWidth: 300, PadHeight: 100},
	}, session.Deps{
		Store:     docstore.New(docstore.NewMemorySlot()),
		Renderer:  render.NewRenderer(raster{pages: 2}, 1.5, 0.3),
		Flattener: flatten.NewPipeline(editor{pages: 2}),
		Exporter:  export.NewExporter(export.NewMemoryStore()),
		Fonts:     fonts,
		Clock:     clockwork.NewFakeClock(),
	})
	t.Cleanup(m.Close)
	srv := httptest.NewServer(New(m, health{ok: true}).Router())
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, method, url, contentType string, body []byte) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode: %v", err)
	}
}

type errBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func TestUploadMultipartAndSummary(t *testing.T) {
	srv := newServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, _ := mw.CreateFormFile("file", "contract.pdf")
	_, _ = fw.Write(pdftest.Build(pdftest.Pages(2)...))
	_ = mw.Close()

	resp := do(t, http.MethodPost, srv.URL+"/document", mw.FormDataContentType(), buf.Bytes())
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var s session.Summary
	decodeBody(t, resp, &s)
	if s.PageCount != 2 || s.ContainerWidth != 600 {
		t.Fatalf("summary = %+v", s)
	}

	resp = do(t, http.MethodGet, srv.URL+"/pages/2/thumb.png", "", nil)
	if resp.StatusCode != http.StatusOK || resp.Header.Get("Content-Type") != "image/png" {
		t.Fatalf("thumb: %d %s", resp.StatusCode, resp.Header.Get("Content-Type"))
	}
	resp = do(t, http.MethodGet, srv.URL+"/pages/7/main.png", "", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("missing page status = %d", resp.StatusCode)
	}
}

func TestUploadRejectsNonPDF(t *testing.T) {
	srv := newServer(t)
	resp := do(t, http.MethodPost, srv.URL+"/document", "text/plain", []byte("not a pdf"))
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var e errBody
	decodeBody(t, resp, &e)
	if e.Error != "Please upload a valid PDF file." || e.Kind != "invalid_input" {
		t.Fatalf("error = %+v", e)
	}
}

func TestSignCommitDownload(t *testing.T) {
	srv := newServer(t)
	do(t, http.MethodPost, srv.URL+"/document", "application/pdf", pdftest.Build(pdftest.Pages(2)...))

	resp := do(t, http.MethodGet, srv.URL+"/download", "", nil)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("early download status = %d", resp.StatusCode)
	}

	resp = do(t, http.MethodPost, srv.URL+"/signature/save", "", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("empty save status = %d", resp.StatusCode)
	}

	do(t, http.MethodPost, srv.URL+"/signature/strokes", "application/json",
		[]byte(`{"points":[{"x":10,"y":10},{"x":120,"y":60}]}`))
	resp = do(t, http.MethodPost, srv.URL+"/signature/save", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("save status = %d", resp.StatusCode)
	}
	var armed session.ArmedView
	decodeBody(t, resp, &armed)
	if armed.Width != 300 || armed.Height != 100 || armed.Source != "draw" {
		t.Fatalf("armed = %+v", armed)
	}

	resp = do(t, http.MethodPost, srv.URL+"/pages/1/click", "application/json", []byte(`{"x":200,"y":200}`))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("click status = %d", resp.StatusCode)
	}
	var res session.CommitResult
	decodeBody(t, resp, &res)
	if !res.Committed || res.X != 50 || res.Y != 150 || res.Artifact == nil {
		t.Fatalf("commit = %+v", res)
	}

	resp = do(t, http.MethodGet, srv.URL+"/download", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("download status = %d", resp.StatusCode)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "signed_document.pdf") {
		t.Fatalf("content-disposition = %q", cd)
	}

	resp = do(t, http.MethodDelete, srv.URL+"/document", "", nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("reset status = %d", resp.StatusCode)
	}
	resp = do(t, http.MethodPost, srv.URL+"/document/restore", "", nil)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("restore after reset status = %d", resp.StatusCode)
	}
}

func TestModeValidation(t *testing.T) {
	srv := newServer(t)
	resp := do(t, http.MethodPost, srv.URL+"/signature/mode", "application/json", []byte(`{"mode":"paint"}`))
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	resp = do(t, http.MethodPost, srv.URL+"/signature/mode", "application/json", []byte(`{"mode":"type"}`))
	var st session.SignatureState
	decodeBody(t, resp, &st)
	if st.Mode != signature.ModeType {
		t.Fatalf("mode = %s", st.Mode)
	}
	resp = do(t, http.MethodPost, srv.URL+"/signature/text", "application/json", []byte(`{bad`))
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad json status = %d", resp.StatusCode)
	}
}

func TestHealth(t *testing.T) {
	srv := newServer(t)
	resp := do(t, http.MethodGet, srv.URL+"/health", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}
