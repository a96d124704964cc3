package server

import (
	"bytes"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/resume-site/internal/chat"
	"github.com/jonathan/resume-site/internal/rendering"
	"github.com/jonathan/resume-site/internal/server/middleware"
	"github.com/jonathan/resume-site/internal/types"
	"github.com/jonathan/resume-site/internal/variants"
	"go.uber.org/zap"
)

// maxAskRunes caps the bridge prompt taken from the ?ask= parameter
const maxAskRunes = 500

// VariantsResponse is the response for /api/variants
type VariantsResponse struct {
	Default  string                 `json:"default"`
	Variants []types.VariantSummary `json:"variants"`
}

// variantSlug returns the first segment of the {variant...} path value. Deeper segments are
// ignored, so /default/anything resolves like /default.
func variantSlug(r *http.Request) string {
	slug, _, _ := strings.Cut(strings.Trim(r.PathValue("variant"), "/"), "/")
	return slug
}

// handlePage renders the resume page for a variant. Unknown slugs render the default variant.
// Expansion state and the bridge prompt travel in the query string: open, seen and ask.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	// unmatched API paths are not pages
	if strings.HasPrefix(r.URL.Path, "/api/") {
		http.NotFound(w, r)
		return
	}
	slug := variantSlug(r)

	q := r.URL.Query()
	data := rendering.BuildPageData(
		s.library.Resolve(slug),
		s.library.Variants(),
		rendering.ParseExpansionState(q.Get("open"), q.Get("seen")),
		chat.ChatPath,
	)
	if ask := strings.TrimSpace(q.Get("ask")); ask != "" && utf8.RuneCountInString(ask) <= maxAskRunes {
		data.InitialPrompt = ask
	}

	var buf bytes.Buffer
	if err := s.renderer.Render(&buf, data); err != nil {
		s.logger.Error("failed to render page",
			zap.String("variant", slug),
			zap.String("request_id", middleware.GetRequestID(r.Context())),
			zap.Error(err))
		http.Error(w, msgRenderFailed, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// handleResume returns the merged resume for a variant as JSON
func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, s.library.Resolve(variantSlug(r)))
}

// handleVariants lists the registered variants
func (s *Server) handleVariants(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, VariantsResponse{
		Default:  s.library.DefaultSlug(),
		Variants: s.library.Variants(),
	})
}

// NewPageHandler serves only the rendered pages, with no chat or API routes. It backs PDF
// export, which needs the page but no model.
func NewPageHandler(lib *variants.Library, renderer *rendering.Renderer, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{library: lib, renderer: renderer, logger: logger}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{variant...}", s.handlePage)
	return mux
}
