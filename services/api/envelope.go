package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"kuasap-backend/lib/scrapers/kuasap"
	"kuasap-backend/lib/sessions"
	"kuasap-backend/services/news"
)

const (
	statusOk        = 200
	statusNoContent = 204
)

type errorBody struct {
	Status           int    `json:"status"`
	DeveloperMessage string `json:"developer_message"`
	UserMessage      string `json:"user_message"`
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, body any) {
	w.Header().Set("content-type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(body)
	if err != nil {
		slog.WarnContext(ctx, "failed to write response", "err", err)
	}
}

func writeError(ctx context.Context, w http.ResponseWriter, status int, developerMessage, userMessage string) {
	writeJSON(ctx, w, status, errorBody{
		Status:           status,
		DeveloperMessage: developerMessage,
		UserMessage:      userMessage,
	})
}

// statusOf maps an error from the ap or news services to an http status.
func statusOf(err error) int {
	var transportErr *kuasap.TransportError
	switch {
	case errors.Is(err, kuasap.ErrAuthFailed), errors.Is(err, sessions.ErrUnknownToken):
		return http.StatusUnauthorized
	case errors.Is(err, kuasap.ErrInvalidQueryId):
		return http.StatusBadRequest
	case errors.Is(err, news.ErrNoNews), errors.Is(err, news.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &transportErr):
		if transportErr.Timeout() {
			return http.StatusGatewayTimeout
		}
		return http.StatusBadGateway
	case errors.Is(err, kuasap.ErrMalformedResponse):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

var userMessages = map[int]string{
	http.StatusUnauthorized:        "Login failed or the auth token has expired.",
	http.StatusBadRequest:          "The request was invalid.",
	http.StatusNotFound:            "Nothing was found.",
	http.StatusBadGateway:          "The school server returned an unexpected response.",
	http.StatusGatewayTimeout:      "The school server did not respond in time.",
	http.StatusInternalServerError: "Something went wrong.",
}

func writeServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	status := statusOf(err)
	if status >= 500 {
		slog.ErrorContext(ctx, "request failed", "status", status, "err", err)
	}
	writeError(ctx, w, status, err.Error(), userMessages[status])
}
