package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/southsideweekly/south-side-weekly/internal/authpw"
	"github.com/southsideweekly/south-side-weekly/internal/rbac"
	"github.com/southsideweekly/south-side-weekly/internal/search"
	"github.com/southsideweekly/south-side-weekly/internal/store"
	"github.com/southsideweekly/south-side-weekly/internal/workflow"
)

type HTTPServer struct {
	service    *Service
	corsOrigin string
}

func NewHTTPServer(service *Service, corsOrigin string) *HTTPServer {
	return &HTTPServer{service: service, corsOrigin: corsOrigin}
}

func (s *HTTPServer) Handler() http.Handler {
	return s.withMiddleware(http.HandlerFunc(s.handle))
}

func (s *HTTPServer) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		writeJSON(w, http.StatusNoContent, map[string]any{})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/health" {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/ready" {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		status := "ready"
		statusCode := http.StatusOK
		checks := map[string]any{
			"database": map[string]any{"status": "ok"},
		}

		if err := s.service.Ping(ctx); err != nil {
			status = "not_ready"
			statusCode = http.StatusServiceUnavailable
			checks["database"] = map[string]any{
				"status": "error",
				"error":  err.Error(),
			}
		}

		writeJSON(w, statusCode, map[string]any{
			"ok":     status == "ready",
			"status": status,
			"checks": checks,
		})
		return
	}

	// Auth routes (no session required)
	if r.Method == http.MethodPost && r.URL.Path == "/api/auth/signup" {
		s.handleAuthSignUp(w, r)
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/auth/signin" {
		s.handleAuthSignIn(w, r)
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/auth/refresh" {
		var body struct {
			RefreshToken string `json:"refreshToken"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		sess, err := s.service.Refresh(r.Context(), body.RefreshToken)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Refresh token invalid", nil)
			return
		}
		writeJSON(w, http.StatusOK, sessionPayload(sess))
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/auth/logout" {
		var body struct {
			RefreshToken string `json:"refreshToken"`
		}
		_ = decodeBody(r, &body)
		_ = s.service.Logout(r.Context(), body.RefreshToken)
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/session" {
		token := bearerToken(r)
		if token == "" {
			writeJSON(w, http.StatusOK, map[string]any{"authenticated": false, "userName": nil})
			return
		}
		session, err := s.service.SessionFromToken(r.Context(), token)
		if err != nil {
			writeJSON(w, http.StatusOK, map[string]any{"authenticated": false, "userName": nil})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"authenticated": true, "userName": session.UserName, "userId": session.UserID, "role": session.Role})
		return
	}

	session, ok := s.requireSession(w, r)
	if !ok {
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/search" {
		s.handleSearch(w, r, session)
		return
	}

	if r.URL.Path == "/api/pitches" {
		s.handlePitchCollection(w, r, session)
		return
	}

	if r.URL.Path == "/api/issues" {
		s.handleIssueCollection(w, r, session)
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/users/pending" {
		if !s.service.Can(session.Role, rbac.ActionReviewUsers) {
			writeError(w, http.StatusForbidden, "FORBIDDEN", "Forbidden", nil)
			return
		}
		users, err := s.service.PendingUsers(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "SERVER_ERROR", "Could not list pending users", nil)
			return
		}
		payload := make([]map[string]any, 0, len(users))
		for _, u := range users {
			payload = append(payload, userPayload(u))
		}
		writeJSON(w, http.StatusOK, map[string]any{"users": payload})
		return
	}

	if r.URL.Path == "/api/teams" {
		s.handleTeams(w, r, session)
		return
	}

	if r.URL.Path == "/api/interests" {
		s.handleInterests(w, r, session)
		return
	}

	parts := splitPath(r.URL.Path)

	if len(parts) >= 3 && parts[0] == "api" && parts[1] == "pitches" {
		s.handlePitch(w, r, session, parts[2], parts)
		return
	}

	if len(parts) >= 3 && parts[0] == "api" && parts[1] == "issues" {
		s.handleIssue(w, r, session, parts[2], parts)
		return
	}

	if len(parts) == 4 && parts[0] == "api" && parts[1] == "users" {
		s.handleUserReview(w, r, session, parts[2], parts[3])
		return
	}

	writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
}

func (s *HTTPServer) handleSearch(w http.ResponseWriter, r *http.Request, session Session) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	limit := 20
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "limit must be an integer", nil)
			return
		}
		limit = parsed
	}
	offset := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("offset")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "offset must be an integer", nil)
			return
		}
		offset = parsed
	}

	payload := s.service.Search(search.Query{
		Text:            q,
		FilterStatus:    strings.TrimSpace(r.URL.Query().Get("status")),
		IncludeInternal: s.service.Can(session.Role, rbac.ActionReviewPitches),
		Limit:           limit,
		Offset:          offset,
	})
	writeJSON(w, http.StatusOK, payload)
}

func (s *HTTPServer) handlePitchCollection(w http.ResponseWriter, r *http.Request, session Session) {
	if r.Method == http.MethodGet {
		filter := store.PitchFilter{
			Status: strings.TrimSpace(r.URL.Query().Get("status")),
			Author: strings.TrimSpace(r.URL.Query().Get("author")),
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil {
				writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "limit must be an integer", nil)
				return
			}
			filter.Limit = parsed
		}
		// Internal pitches stay hidden from non-staff listings.
		if !s.service.Can(session.Role, rbac.ActionReviewPitches) {
			public := false
			filter.Internal = &public
		}
		pitches, err := s.service.ListPitches(r.Context(), filter)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "SERVER_ERROR", "Could not list pitches", nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"pitches": pitches})
		return
	}

	if r.Method == http.MethodPost {
		if !s.service.Can(session.Role, rbac.ActionSubmitPitch) {
			writeError(w, http.StatusForbidden, "FORBIDDEN", "Forbidden", nil)
			return
		}
		var body struct {
			Title                   string   `json:"title"`
			Description             string   `json:"description"`
			ConflictOfInterest      bool     `json:"conflictOfInterest"`
			Topics                  []string `json:"topics"`
			Neighborhoods           []string `json:"neighborhoods"`
			IsInternal              bool     `json:"isInternal"`
			AssignmentGoogleDocLink string   `json:"assignmentGoogleDocLink"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		pitch, err := s.service.SubmitPitch(r.Context(), workflow.SubmitPitchInput{
			Title:                   body.Title,
			Description:             body.Description,
			Author:                  session.UserID,
			ConflictOfInterest:      body.ConflictOfInterest,
			Topics:                  body.Topics,
			Neighborhoods:           body.Neighborhoods,
			IsInternal:              body.IsInternal,
			AssignmentGoogleDocLink: body.AssignmentGoogleDocLink,
		})
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"pitch": pitch})
		return
	}

	writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
}

func (s *HTTPServer) handlePitch(w http.ResponseWriter, r *http.Request, session Session, pitchID string, parts []string) {
	if len(parts) == 3 {
		switch r.Method {
		case http.MethodGet:
			pitch, err := s.service.GetPitch(r.Context(), pitchID)
			if err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"pitch": pitch})
			return
		case http.MethodPut:
			if !s.service.Can(session.Role, rbac.ActionReviewPitches) {
				writeError(w, http.StatusForbidden, "FORBIDDEN", "Forbidden", nil)
				return
			}
			s.handleProductionUpdate(w, r, pitchID)
			return
		}
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		return
	}

	if r.Method != http.MethodPost && r.Method != http.MethodPut && r.Method != http.MethodDelete {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		return
	}

	if len(parts) == 4 && parts[3] == "approve" && r.Method == http.MethodPost {
		if !s.service.Can(session.Role, rbac.ActionReviewPitches) {
			writeError(w, http.StatusForbidden, "FORBIDDEN", "Forbidden", nil)
			return
		}
		var body struct {
			Writer        string         `json:"writer"`
			PrimaryEditor string         `json:"primaryEditor"`
			SecondEditors []string       `json:"secondEditors"`
			ThirdEditors  []string       `json:"thirdEditors"`
			TeamTargets   map[string]int `json:"teamTargets"`
			Deadline      *time.Time     `json:"deadline"`
			Neighborhoods []string       `json:"neighborhoods"`
			Topics        []string       `json:"topics"`
			WordCount     *int           `json:"wordCount"`
			PageCount     *int           `json:"pageCount"`
			Issues        []string       `json:"issues"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		pitch, err := s.service.ApprovePitch(r.Context(), pitchID, workflow.ApprovePayload{
			Writer:        body.Writer,
			PrimaryEditor: body.PrimaryEditor,
			SecondEditors: body.SecondEditors,
			ThirdEditors:  body.ThirdEditors,
			TeamTotals:    body.TeamTargets,
			Deadline:      body.Deadline,
			Neighborhoods: body.Neighborhoods,
			Topics:        body.Topics,
			WordCount:     body.WordCount,
			PageCount:     body.PageCount,
			IssueIDs:      body.Issues,
			ReviewedBy:    session.UserID,
		})
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"pitch": pitch})
		return
	}

	if len(parts) == 4 && parts[3] == "decline" && r.Method == http.MethodPost {
		if !s.service.Can(session.Role, rbac.ActionReviewPitches) {
			writeError(w, http.StatusForbidden, "FORBIDDEN", "Forbidden", nil)
			return
		}
		var body struct {
			Reasoning string `json:"reasoning"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		pitch, err := s.service.DeclinePitch(r.Context(), pitchID, body.Reasoning, session.UserID)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"pitch": pitch})
		return
	}

	if len(parts) == 4 && parts[3] == "claims" && r.Method == http.MethodPost {
		if !s.service.Can(session.Role, rbac.ActionClaim) {
			writeError(w, http.StatusForbidden, "FORBIDDEN", "Forbidden", nil)
			return
		}
		var body struct {
			Teams   []string `json:"teams"`
			Message string   `json:"message"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		pitch, err := s.service.SubmitClaim(r.Context(), pitchID, session.UserID, body.Teams, body.Message)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"pitch": pitch})
		return
	}

	if len(parts) == 6 && parts[3] == "claims" && r.Method == http.MethodPost {
		if !s.service.Can(session.Role, rbac.ActionReviewClaims) {
			writeError(w, http.StatusForbidden, "FORBIDDEN", "Forbidden", nil)
			return
		}
		claimUserID := parts[4]
		var body struct {
			Teams []string `json:"teams"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		var (
			pitch workflow.Pitch
			err   error
		)
		switch parts[5] {
		case "approve":
			pitch, err = s.service.ApproveClaim(r.Context(), pitchID, claimUserID, body.Teams, session.UserID)
		case "decline":
			pitch, err = s.service.DeclineClaim(r.Context(), pitchID, claimUserID, body.Teams, session.UserID)
		default:
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
			return
		}
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"pitch": pitch})
		return
	}

	if len(parts) == 4 && parts[3] == "contributors" && r.Method == http.MethodPost {
		if !s.service.Can(session.Role, rbac.ActionReviewClaims) {
			writeError(w, http.StatusForbidden, "FORBIDDEN", "Forbidden", nil)
			return
		}
		var body struct {
			UserID string `json:"userId"`
			TeamID string `json:"teamId"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		pitch, err := s.service.AddContributor(r.Context(), pitchID, body.UserID, body.TeamID, session.UserID)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"pitch": pitch})
		return
	}

	if len(parts) == 6 && parts[3] == "contributors" && r.Method == http.MethodDelete {
		if !s.service.Can(session.Role, rbac.ActionReviewClaims) {
			writeError(w, http.StatusForbidden, "FORBIDDEN", "Forbidden", nil)
			return
		}
		pitch, err := s.service.RemoveContributor(r.Context(), pitchID, parts[4], parts[5])
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"pitch": pitch})
		return
	}

	if len(parts) == 5 && parts[3] == "teams" && r.Method == http.MethodPut {
		if !s.service.Can(session.Role, rbac.ActionReviewClaims) {
			writeError(w, http.StatusForbidden, "FORBIDDEN", "Forbidden", nil)
			return
		}
		var body struct {
			Total int `json:"total"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		pitch, err := s.service.SetTeamTarget(r.Context(), pitchID, parts[4], body.Total)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"pitch": pitch})
		return
	}

	writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
}

func (s *HTTPServer) handleProductionUpdate(w http.ResponseWriter, r *http.Request, pitchID string) {
	var body struct {
		Title                   *string    `json:"title"`
		Description             *string    `json:"description"`
		Topics                  []string   `json:"topics"`
		Deadline                *time.Time `json:"deadline"`
		WordCount               *int       `json:"wordCount"`
		PageCount               *int       `json:"pageCount"`
		IsInternal              *bool      `json:"isInternal"`
		AssignmentStatus        *string    `json:"assignmentStatus"`
		AssignmentGoogleDocLink *string    `json:"assignmentGoogleDocLink"`
		EditStatus              *string    `json:"editStatus"`
		FactCheckingStatus      *string    `json:"factCheckingStatus"`
		FactCheckingLink        *string    `json:"factCheckingLink"`
		VisualStatus            *string    `json:"visualStatus"`
		VisualLink              *string    `json:"visualLink"`
		VisualNotes             *string    `json:"visualNotes"`
		LayoutStatus            *string    `json:"layoutStatus"`
		LayoutNotes             *string    `json:"layoutNotes"`
		Issues                  []string   `json:"issues"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	pitch, err := s.service.UpdateProduction(r.Context(), pitchID, workflow.ProductionUpdate{
		Title:                   body.Title,
		Description:             body.Description,
		Topics:                  body.Topics,
		Deadline:                body.Deadline,
		WordCount:               body.WordCount,
		PageCount:               body.PageCount,
		IsInternal:              body.IsInternal,
		AssignmentStatus:        enumPtr[workflow.AssignmentStatus](body.AssignmentStatus),
		AssignmentGoogleDocLink: body.AssignmentGoogleDocLink,
		EditStatus:              enumPtr[workflow.EditStatus](body.EditStatus),
		FactCheckingStatus:      enumPtr[workflow.FactCheckingStatus](body.FactCheckingStatus),
		FactCheckingLink:        body.FactCheckingLink,
		VisualStatus:            enumPtr[workflow.VisualStatus](body.VisualStatus),
		VisualLink:              body.VisualLink,
		VisualNotes:             body.VisualNotes,
		LayoutStatus:            enumPtr[workflow.LayoutStatus](body.LayoutStatus),
		LayoutNotes:             body.LayoutNotes,
		IssueIDs:                body.Issues,
	})
	if err != nil {
		status, code, message, details := mapError(err)
		writeError(w, status, code, message, details)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"pitch": pitch})
}

func (s *HTTPServer) handleIssueCollection(w http.ResponseWriter, r *http.Request, session Session) {
	if r.Method == http.MethodGet {
		filter := store.IssueFilter{
			Type: strings.TrimSpace(r.URL.Query().Get("type")),
		}
		if r.URL.Query().Get("deleted") == "true" && s.service.Can(session.Role, rbac.ActionManageIssues) {
			filter.Deleted = true
		}
		issues, err := s.service.ListIssues(r.Context(), filter)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "SERVER_ERROR", "Could not list issues", nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"issues": issues})
		return
	}

	if r.Method == http.MethodPost {
		if !s.service.Can(session.Role, rbac.ActionManageIssues) {
			writeError(w, http.StatusForbidden, "FORBIDDEN", "Forbidden", nil)
			return
		}
		var body struct {
			Name        *string    `json:"name"`
			ReleaseDate *time.Time `json:"releaseDate"`
			Type        *string    `json:"type"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		issue, err := s.service.CreateIssue(r.Context(), IssueInput{Name: body.Name, ReleaseDate: body.ReleaseDate, Type: body.Type})
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"issue": issue})
		return
	}

	writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
}

func (s *HTTPServer) handleIssue(w http.ResponseWriter, r *http.Request, session Session, issueID string, parts []string) {
	if len(parts) == 4 && parts[3] == "export" && r.Method == http.MethodGet {
		result, err := s.service.ExportIssueLineup(r.Context(), issueID)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
		w.Header().Set("Content-Type", result.MimeType)
		_, _ = w.Write(result.Data)
		return
	}

	if len(parts) != 3 {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
		return
	}

	switch r.Method {
	case http.MethodGet:
		issue, err := s.service.GetIssue(r.Context(), issueID)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"issue": issue})
		return
	case http.MethodPut:
		if !s.service.Can(session.Role, rbac.ActionManageIssues) {
			writeError(w, http.StatusForbidden, "FORBIDDEN", "Forbidden", nil)
			return
		}
		var body struct {
			Name        *string    `json:"name"`
			ReleaseDate *time.Time `json:"releaseDate"`
			Type        *string    `json:"type"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		issue, err := s.service.UpdateIssue(r.Context(), issueID, IssueInput{Name: body.Name, ReleaseDate: body.ReleaseDate, Type: body.Type})
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"issue": issue})
		return
	case http.MethodDelete:
		if !s.service.Can(session.Role, rbac.ActionManageIssues) {
			writeError(w, http.StatusForbidden, "FORBIDDEN", "Forbidden", nil)
			return
		}
		if err := s.service.DeleteIssue(r.Context(), issueID); err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
}

func (s *HTTPServer) handleUserReview(w http.ResponseWriter, r *http.Request, session Session, userID, action string) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		return
	}
	if !s.service.Can(session.Role, rbac.ActionReviewUsers) {
		writeError(w, http.StatusForbidden, "FORBIDDEN", "Forbidden", nil)
		return
	}

	switch action {
	case "approve":
		user, err := s.service.ApproveUser(r.Context(), userID)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"user": userPayload(user)})
		return
	case "deny":
		var body struct {
			Reasoning string `json:"reasoning"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		user, err := s.service.DenyUser(r.Context(), userID, body.Reasoning)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"user": userPayload(user)})
		return
	}

	writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
}

func (s *HTTPServer) handleTeams(w http.ResponseWriter, r *http.Request, session Session) {
	if r.Method == http.MethodGet {
		teams, err := s.service.ListTeams(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "SERVER_ERROR", "Could not list teams", nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"teams": teams})
		return
	}

	if r.Method == http.MethodPut {
		if !s.service.Can(session.Role, rbac.ActionManageCatalogs) {
			writeError(w, http.StatusForbidden, "FORBIDDEN", "Forbidden", nil)
			return
		}
		var body store.Team
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		team, err := s.service.UpsertTeam(r.Context(), body)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"team": team})
		return
	}

	writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
}

func (s *HTTPServer) handleInterests(w http.ResponseWriter, r *http.Request, session Session) {
	if r.Method == http.MethodGet {
		interests, err := s.service.ListInterests(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "SERVER_ERROR", "Could not list interests", nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"interests": interests})
		return
	}

	if r.Method == http.MethodPut {
		if !s.service.Can(session.Role, rbac.ActionManageCatalogs) {
			writeError(w, http.StatusForbidden, "FORBIDDEN", "Forbidden", nil)
			return
		}
		var body store.Interest
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		interest, err := s.service.UpsertInterest(r.Context(), body)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"interest": interest})
		return
	}

	writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
}

// Auth handlers for email/password authentication

func (s *HTTPServer) handleAuthSignUp(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name      string   `json:"name"`
		Email     string   `json:"email"`
		Password  string   `json:"password"`
		Teams     []string `json:"teams"`
		Interests []string `json:"interests"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}

	user, err := s.service.SignUp(r.Context(), authpw.SignUpRequest{
		Name:      body.Name,
		Email:     body.Email,
		Password:  body.Password,
		Teams:     body.Teams,
		Interests: body.Interests,
	})
	if err != nil {
		if errors.Is(err, authpw.ErrEmailTaken) {
			writeError(w, http.StatusConflict, "EMAIL_EXISTS", "Email already registered", nil)
			return
		}
		writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error(), nil)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"user":    userPayload(user),
		"message": "Account created. An editor will reach out to schedule your onboarding.",
	})
}

func (s *HTTPServer) handleAuthSignIn(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}

	sess, err := s.service.SignIn(r.Context(), body.Email, body.Password)
	if err != nil {
		status, code, message, details := mapError(err)
		writeError(w, status, code, message, details)
		return
	}
	writeJSON(w, http.StatusOK, sessionPayload(sess))
}

func (s *HTTPServer) requireSession(w http.ResponseWriter, r *http.Request) (Session, bool) {
	token := bearerToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
		return Session{}, false
	}
	session, err := s.service.SessionFromToken(r.Context(), token)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
		return Session{}, false
	}
	return session, true
}

func (s *HTTPServer) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = randomRequestID()
		}
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		started := time.Now()
		writer := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		setCORSHeaders(writer.Header(), s.corsOrigin)
		writer.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(writer, r)

		log.Printf(`{"request_id":"%s","method":"%s","path":"%s","status":%d,"duration_ms":%d}`,
			requestID,
			r.Method,
			r.URL.Path,
			writer.status,
			time.Since(started).Milliseconds(),
		)
	})
}

type requestIDKey struct{}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func randomRequestID() string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

func setCORSHeaders(header http.Header, corsOrigin string) {
	header.Set("Access-Control-Allow-Origin", corsOrigin)
	header.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
	header.Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
	header.Set("Cache-Control", "no-store")
	header.Set("Content-Type", "application/json")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string, details any) {
	response := map[string]any{
		"code":  code,
		"error": message,
	}
	if details != nil {
		response["details"] = details
	}
	writeJSON(w, status, response)
}

func decodeBody(r *http.Request, target any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(target); err != nil {
		if errors.Is(err, http.ErrBodyReadAfterClose) {
			return nil
		}
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

func enumPtr[T ~string](v *string) *T {
	if v == nil {
		return nil
	}
	t := T(*v)
	return &t
}

func sessionPayload(sess Session) map[string]any {
	return map[string]any{
		"accessToken":  sess.Token,
		"refreshToken": sess.RefreshToken,
		"userId":       sess.UserID,
		"userName":     sess.UserName,
		"role":         sess.Role,
		"expiresAt":    sess.ExpiresAt.Unix(),
	}
}

func userPayload(user store.User) map[string]any {
	return map[string]any{
		"id":               user.ID,
		"name":             user.Name,
		"email":            user.Email,
		"role":             user.Role,
		"onboardingStatus": user.OnboardingStatus,
		"teams":            user.Teams,
		"interests":        user.Interests,
		"createdAt":        user.CreatedAt,
	}
}
