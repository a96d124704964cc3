package server

import (
	"net/http"

	"github.com/jonathan/resume-site/internal/server/middleware"
	"github.com/jonathan/resume-site/internal/types"
	"go.uber.org/zap"
)

// handleQuery answers a question from the ingested documents
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	logger := s.logger.With(zap.String("request_id", middleware.GetRequestID(r.Context())))

	var req types.QueryRequest
	if err := decodeRequest(w, r, &req, req.Validate); err != nil {
		logger.Debug("rejected query request", zap.Error(err))
		s.errorResponse(w, HTTPStatus(err), msgInvalidRequest)
		return
	}

	answer, err := s.answerer.Answer(r.Context(), req.Query, req.TopK)
	if err != nil {
		status := HTTPStatus(err)
		if status == http.StatusNotFound {
			logger.Info("no context for query", zap.Int("query_length", len(req.Query)))
			s.errorResponse(w, status, msgNoContext)
			return
		}
		logger.Error("failed to answer query", zap.Error(err))
		s.errorResponse(w, http.StatusInternalServerError, msgQueryFailed)
		return
	}

	s.jsonResponse(w, http.StatusOK, types.QueryResponse{
		Query:   answer.Query,
		Answer:  answer.Text,
		Sources: answer.Sources,
	})
}
