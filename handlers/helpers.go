package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/Dosada05/stage-engine/services"
	"github.com/go-chi/chi/v5"
)

type jsonResponse map[string]interface{}

// RetryHeader marks requests sent by automated retriers. Such callers get a
// 200 "already_done" response when the step they repeat was already applied.
const RetryHeader = "X-Automated-Retry"

const maxBodyBytes = 1_048_576

func readJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBodyBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError
		var invalidUnmarshalError *json.InvalidUnmarshalError
		var maxBytesError *http.MaxBytesError

		switch {
		case errors.As(err, &syntaxError):
			return fmt.Errorf("body contains badly-formed JSON (at character %d)", syntaxError.Offset)
		case errors.Is(err, io.ErrUnexpectedEOF):
			return errors.New("body contains badly-formed JSON")
		case errors.As(err, &unmarshalTypeError):
			if unmarshalTypeError.Field != "" {
				return fmt.Errorf("body contains incorrect JSON type for field %q", unmarshalTypeError.Field)
			}
			return fmt.Errorf("body contains incorrect JSON type (at character %d)", unmarshalTypeError.Offset)
		case errors.Is(err, io.EOF):
			return errors.New("body must not be empty")
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
			return fmt.Errorf("body contains unknown key %s", fieldName)
		case errors.As(err, &maxBytesError):
			return fmt.Errorf("body must not be larger than %d bytes", maxBodyBytes)
		case errors.As(err, &invalidUnmarshalError):
			panic(err)
		default:
			return err
		}
	}

	err = dec.Decode(&struct{}{})
	if !errors.Is(err, io.EOF) {
		return errors.New("body must only contain a single JSON value")
	}

	return nil
}

func writeJSON(w http.ResponseWriter, status int, data interface{}, headers http.Header) error {
	js, err := json.MarshalIndent(data, "", "\t")
	if err != nil {
		return err
	}
	js = append(js, '\n')

	for key, value := range headers {
		w.Header()[key] = value
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(js)
	return err
}

func errorResponse(w http.ResponseWriter, r *http.Request, status int, message interface{}) {
	if err := writeJSON(w, status, jsonResponse{"error": message}, nil); err != nil {
		http.Error(w, http.StatusText(status), status)
	}
}

func serverErrorResponse(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	logger.ErrorContext(r.Context(), "Internal server error",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Any("error", err))
	message := "the server encountered a problem and could not process your request"
	errorResponse(w, r, http.StatusInternalServerError, message)
}

func badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	errorResponse(w, r, http.StatusBadRequest, err.Error())
}

func failedValidationResponse(w http.ResponseWriter, r *http.Request, errors map[string]string) {
	errorResponse(w, r, http.StatusUnprocessableEntity, errors)
}

func notFoundResponse(w http.ResponseWriter, r *http.Request) {
	message := "the requested resource could not be found"
	errorResponse(w, r, http.StatusNotFound, message)
}

func conflictResponse(w http.ResponseWriter, r *http.Request, message string) {
	errorResponse(w, r, http.StatusConflict, message)
}

func alreadyDoneResponse(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	body := jsonResponse{"status": "already_done", "detail": err.Error()}
	if err := writeJSON(w, http.StatusOK, body, nil); err != nil {
		serverErrorResponse(w, r, logger, err)
	}
}

func isAutomatedRetry(r *http.Request) bool {
	v, err := strconv.ParseBool(r.Header.Get(RetryHeader))
	return err == nil && v
}

// mapServiceErrorToHTTP turns a service error into the matching HTTP response.
func mapServiceErrorToHTTP(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, services.ErrTournamentNotFound),
		errors.Is(err, services.ErrStageNotFound),
		errors.Is(err, services.ErrMatchNotFound):
		notFoundResponse(w, r)

	// A repeated stage-advancing call is harmless for retriers.
	case services.IsAlreadyDone(err):
		if isAutomatedRetry(r) {
			alreadyDoneResponse(w, r, logger, err)
			return
		}
		conflictResponse(w, r, err.Error())

	case errors.Is(err, services.ErrInvalidConfig),
		errors.Is(err, services.ErrUnsupportedTiebreaker),
		errors.Is(err, services.ErrInvalidPairingMapping),
		errors.Is(err, services.ErrDuplicateTeamInBracket),
		errors.Is(err, services.ErrTeamCountMismatch):
		failedValidationResponse(w, r, map[string]string{"stage": err.Error()})

	case errors.Is(err, services.ErrInvalidInput),
		errors.Is(err, services.ErrInvalidMatchday),
		errors.Is(err, services.ErrWrongStageType):
		badRequestResponse(w, r, err)

	case errors.Is(err, services.ErrInvalidStatusTransition),
		errors.Is(err, services.ErrStageNotActive),
		errors.Is(err, services.ErrStageNotComplete),
		errors.Is(err, services.ErrGroupNotFull),
		errors.Is(err, services.ErrDrawNotInProgress),
		errors.Is(err, services.ErrRevealPending),
		errors.Is(err, services.ErrMatchAlreadyComplete),
		errors.Is(err, services.ErrTournamentConflict):
		conflictResponse(w, r, err.Error())

	default:
		serverErrorResponse(w, r, logger, err)
	}
}

func getIDFromURL(r *http.Request, paramName string) (string, error) {
	id := strings.TrimSpace(chi.URLParam(r, paramName))
	if id == "" {
		return "", fmt.Errorf("missing %s in URL path", paramName)
	}
	return id, nil
}

func getIntFromURL(r *http.Request, paramName string) (int, error) {
	raw := chi.URLParam(r, paramName)
	if raw == "" {
		return 0, fmt.Errorf("missing %s in URL path", paramName)
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s format: %q", paramName, raw)
	}
	return n, nil
}
