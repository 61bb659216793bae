// Copyright 2025 SirSeer, LLC
//
// Licensed under the Business Source License 1.1 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://mariadb.com/bsl11
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	scouterrors "github.com/sirseerhq/sirseer-scout/internal/errors"
	"github.com/sirseerhq/sirseer-scout/internal/search"
	"github.com/sirseerhq/sirseer-scout/internal/version"
)

// statusClientClosedRequest is logged when the caller disconnects before
// the search finishes.
const statusClientClosedRequest = 499

// errorResponse is the body of every failed request.
type errorResponse struct {
	Error   bool   `json:"error"`
	Type    string `json:"type"`
	Message string `json:"message"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": version.Version,
	})
}

func (s *Server) handleSearchUsers(w http.ResponseWriter, r *http.Request) {
	req, err := parseSearchRequest(r, s.defaultLimit)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	page, err := s.search.SearchUsersInfinite(r.Context(), req)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.respondJSON(w, http.StatusOK, page)
}

func (s *Server) handleSearchUsersSimple(w http.ResponseWriter, r *http.Request) {
	page, err := s.search.SearchUsers(r.Context(), r.URL.Query().Get("query"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.respondJSON(w, http.StatusOK, page)
}

func (s *Server) handleSearchUsersREST(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()
	page, limit, err := pageParams(values, s.defaultLimit)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	result, err := s.rest.SearchUsersByQualifiers(r.Context(), values.Get("location"), values.Get("language"), page, limit)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.respondJSON(w, http.StatusOK, result)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("Failed to encode response", zap.Error(err))
	}
}

// respondError maps err to a status and writes the error body. A cancelled
// request gets a status and no body.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, context.Canceled) {
		s.logger.Info("Search cancelled by client",
			zap.String("path", r.URL.Path),
			zap.Error(err))
		w.WriteHeader(statusClientClosedRequest)
		return
	}

	status, kind := classify(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("Search failed",
			zap.String("path", r.URL.Path),
			zap.String("type", kind),
			zap.Error(err))
	}

	s.respondJSON(w, status, errorResponse{
		Error:   true,
		Type:    kind,
		Message: err.Error(),
	})
}

// classify maps an error to an HTTP status and a stable error type.
func classify(err error) (int, string) {
	var validationErr *search.ValidationError
	switch {
	case errors.As(err, &validationErr), errors.Is(err, scouterrors.ErrValidation):
		return http.StatusBadRequest, "validation"
	case errors.Is(err, scouterrors.ErrInvalidToken):
		return http.StatusUnauthorized, "invalid_token"
	case errors.Is(err, scouterrors.ErrRateLimit):
		return http.StatusTooManyRequests, "rate_limit"
	case errors.Is(err, scouterrors.ErrNetworkFailure):
		return http.StatusBadGateway, "network"
	case errors.Is(err, scouterrors.ErrQueryComplexity):
		return http.StatusBadGateway, "query_complexity"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	default:
		return http.StatusBadGateway, "upstream"
	}
}
