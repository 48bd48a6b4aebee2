// Package httpapi exposes a signing session over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/local/pdfsigner/internal/apperr"
	"github.com/local/pdfsigner/internal/logger"
	"github.com/local/pdfsigner/internal/metrics"
	"github.com/local/pdfsigner/internal/session"
	"github.com/local/pdfsigner/internal/signature"
	"github.com/local/pdfsigner/internal/statuscheck"
	"github.com/local/pdfsigner/internal/viewport"
)

const maxUpload = 64 << 20

// Health reports dependency status.
type Health interface {
	Summary(ctx context.Context) statuscheck.Summary
}

// API serves one session.
type API struct {
	m      *session.Manager
	health Health
}

func New(m *session.Manager, h Health) *API { return &API{m: m, health: h} }

// Router builds the chi router with request logging and panic recovery.
func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	a.RegisterHTTP(r)
	return r
}

// RegisterHTTP mounts every endpoint on r.
func (a *API) RegisterHTTP(r chi.Router) {
	r.Get("/health", a.handleHealth)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/document", func(r chi.Router) {
		r.Get("/", a.handleSummary)
		r.Post("/", a.handleUpload)
		r.Delete("/", a.handleReset)
		r.Post("/restore", a.handleRestore)
	})

	r.Get("/pages/{ordinal}/main.png", a.handlePagePNG(false))
	r.Get("/pages/{ordinal}/thumb.png", a.handlePagePNG(true))
	r.Post("/pages/{ordinal}/click", a.handlePageClick)

	r.Put("/viewport", a.handleResize)
	r.Post("/viewport/scroll", a.handleScroll)
	r.Post("/thumbnails/{ordinal}/click", a.handleThumbnailClick)

	r.Route("/signature", func(r chi.Router) {
		r.Get("/", a.handleSignature)
		r.Post("/mode", a.handleMode)
		r.Post("/toggle", a.handleToggle)
		r.Post("/strokes", a.handleStrokes)
		r.Post("/text", a.handleText)
		r.Post("/font", a.handleFont)
		r.Post("/image", a.handleImage)
		r.Get("/suggestions", a.handleSignature)
		r.Get("/suggestions/{index}.png", a.handleSuggestionPNG)
		r.Post("/clear", a.handleClear)
		r.Post("/save", a.handleSave)
	})

	r.Post("/pointer/move", a.handlePointerMove)
	r.Get("/download", a.handleDownload)
}

func requestLogger(next http.Handler) http.Handler {
	lg := logger.Component("http")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		ev := lg.Debug()
		if ww.Status() >= 500 {
			ev = lg.Warn()
		}
		ev.Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("took", time.Since(start)).
			Msg("http request")
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindInvalidInput:
		return http.StatusBadRequest
	case apperr.KindMissingPrecondition:
		return http.StatusConflict
	case apperr.KindExternalFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	kind := apperr.KindOf(err)
	status := statusFor(kind)
	if status >= 500 {
		log.Error().Err(err).Msg("request failed")
	}
	writeJSON(w, status, map[string]string{"error": apperr.Message(err), "kind": string(kind)})
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperr.InvalidInput("httpapi.decode", fmt.Sprintf("Invalid JSON body: %v", err))
	}
	return nil
}

func intParam(r *http.Request, name string) (int, error) {
	n, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil {
		return 0, apperr.InvalidInput("httpapi.param", fmt.Sprintf("Invalid %s.", name))
	}
	return n, nil
}

// readUpload returns the multipart "file" part, or the raw body otherwise.
func readUpload(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUpload)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxUpload); err != nil {
			return nil, apperr.InvalidInput("httpapi.upload", "invalid multipart form")
		}
		f, _, err := r.FormFile("file")
		if err != nil {
			return nil, apperr.InvalidInput("httpapi.upload", "missing file")
		}
		defer f.Close()
		return io.ReadAll(f)
	}
	data, err := io.ReadAll(r.Body)
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return nil, apperr.InvalidInput("httpapi.upload", "file too large")
		}
		return nil, err
	}
	return data, nil
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	s := a.health.Summary(r.Context())
	status := http.StatusOK
	if !s.OK {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, s)
}

func (a *API) handleSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.m.Summary())
}

func (a *API) handleUpload(w http.ResponseWriter, r *http.Request) {
	data, err := readUpload(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	s, err := a.m.Upload(r.Context(), data)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, s)
}

func (a *API) handleRestore(w http.ResponseWriter, r *http.Request) {
	s, err := a.m.Restore(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (a *API) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := a.m.Reset(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handlePagePNG(thumb bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ord, err := intParam(r, "ordinal")
		if err != nil {
			writeError(w, err)
			return
		}
		data, err := a.m.PagePNG(ord, thumb)
		if err != nil {
			writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(data)
	}
}

type pointBody struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p pointBody) point() viewport.Point { return viewport.Point{X: p.X, Y: p.Y} }

func (a *API) handlePageClick(w http.ResponseWriter, r *http.Request) {
	ord, err := intParam(r, "ordinal")
	if err != nil {
		writeError(w, err)
		return
	}
	var body pointBody
	if err := decode(r, &body); err != nil {
		writeError(w, err)
		return
	}
	res, err := a.m.ClickPage(r.Context(), ord, body.point())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (a *API) handleResize(w http.ResponseWriter, r *http.Request) {
	var body struct {
		X          float64 `json:"x"`
		Y          float64 `json:"y"`
		Width      float64 `json:"width"`
		Height     float64 `json:"height"`
		RailHeight float64 `json:"rail_height"`
	}
	if err := decode(r, &body); err != nil {
		writeError(w, err)
		return
	}
	st := a.m.Resize(viewport.Point{X: body.X, Y: body.Y}, body.Width, body.Height, body.RailHeight)
	writeJSON(w, http.StatusOK, st)
}

func (a *API) handleScroll(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Top  float64 `json:"top"`
		Left float64 `json:"left"`
	}
	if err := decode(r, &body); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a.m.Scroll(body.Top, body.Left))
}

func (a *API) handleThumbnailClick(w http.ResponseWriter, r *http.Request) {
	ord, err := intParam(r, "ordinal")
	if err != nil {
		writeError(w, err)
		return
	}
	st, err := a.m.ClickThumbnail(ord)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (a *API) handleSignature(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.m.Signature())
}

func (a *API) handleMode(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Mode string `json:"mode"`
	}
	if err := decode(r, &body); err != nil {
		writeError(w, err)
		return
	}
	mode, err := signature.ParseMode(body.Mode)
	if err != nil {
		writeError(w, apperr.InvalidInput("httpapi.mode", err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, a.m.SelectMode(mode))
}

func (a *API) handleToggle(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.m.ToggleTyping())
}

func (a *API) handleStrokes(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Points []signature.Point `json:"points"`
	}
	if err := decode(r, &body); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a.m.AddStroke(body.Points))
}

func (a *API) handleText(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Text string `json:"text"`
	}
	if err := decode(r, &body); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a.m.SetText(body.Text))
}

func (a *API) handleFont(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Index int `json:"index"`
	}
	if err := decode(r, &body); err != nil {
		writeError(w, err)
		return
	}
	st, err := a.m.SelectFont(body.Index)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (a *API) handleImage(w http.ResponseWriter, r *http.Request) {
	data, err := readUpload(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	st, err := a.m.SetImage(data)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (a *API) handleSuggestionPNG(w http.ResponseWriter, r *http.Request) {
	idx, err := intParam(r, "index")
	if err != nil {
		writeError(w, err)
		return
	}
	data, err := a.m.SuggestionPNG(idx)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(data)
}

func (a *API) handleClear(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.m.ClearSignature())
}

func (a *API) handleSave(w http.ResponseWriter, r *http.Request) {
	armed, err := a.m.SaveSignature()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, armed)
}

func (a *API) handlePointerMove(w http.ResponseWriter, r *http.Request) {
	var body pointBody
	if err := decode(r, &body); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a.m.PointerMove(body.point()))
}

func (a *API) handleDownload(w http.ResponseWriter, r *http.Request) {
	h, data, err := a.m.Download(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename="+h.Filename)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	_, _ = w.Write(data)
}
