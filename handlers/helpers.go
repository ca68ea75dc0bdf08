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

	"github.com/Dosada05/fjj-brasileirao/ledger"
	"github.com/Dosada05/fjj-brasileirao/middleware"
	"github.com/Dosada05/fjj-brasileirao/services"
	"github.com/Dosada05/fjj-brasileirao/syncer"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

type jsonResponse map[string]interface{}

func readJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	maxBytes := 1_048_576 // 1MB
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

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
			return fmt.Errorf("body must not be larger than %d bytes", maxBytes)
		case errors.As(err, &invalidUnmarshalError):
			panic(err) // ошибка программиста: передан не указатель
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

func logError(r *http.Request, msg string, err error) {
	attrs := []any{
		slog.String("request_id", chiMiddleware.GetReqID(r.Context())),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Any("error", err),
	}
	if actor, aerr := middleware.GetSubjectFromContext(r.Context()); aerr == nil {
		attrs = append(attrs, slog.String("actor", actor))
	}
	slog.ErrorContext(r.Context(), msg, attrs...)
}

func errorResponse(w http.ResponseWriter, r *http.Request, status int, message interface{}) {
	env := jsonResponse{"error": message}
	if err := writeJSON(w, status, env, nil); err != nil {
		logError(r, "failed to write error response", err)
		w.WriteHeader(http.StatusInternalServerError)
	}
}

// serverErrorResponse never lets a failed write look like a success.
func serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	logError(r, "internal server error", err)
	message := "the server encountered a problem and could not process your request"
	if r.Method != http.MethodGet {
		message = "the change was not confirmed, please try again"
	}
	errorResponse(w, r, http.StatusInternalServerError, message)
}

func badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	errorResponse(w, r, http.StatusBadRequest, err.Error())
}

func failedValidationResponse(w http.ResponseWriter, r *http.Request, err error) {
	errorResponse(w, r, http.StatusUnprocessableEntity, err.Error())
}

func notFoundResponse(w http.ResponseWriter, r *http.Request, err error) {
	errorResponse(w, r, http.StatusNotFound, err.Error())
}

func conflictResponse(w http.ResponseWriter, r *http.Request, message string) {
	errorResponse(w, r, http.StatusConflict, message)
}

func unauthorizedResponse(w http.ResponseWriter, r *http.Request, message string) {
	errorResponse(w, r, http.StatusUnauthorized, message)
}

// mapServiceErrorToHTTP преобразует ошибки сервисного слоя в HTTP-ответы
func mapServiceErrorToHTTP(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound),
		errors.Is(err, services.ErrTeamNotFound),
		errors.Is(err, services.ErrPlayerNotFound),
		errors.Is(err, services.ErrMatchNotFound),
		errors.Is(err, services.ErrChampionshipNotFound):
		notFoundResponse(w, r, err)

	// Невалидные данные
	case errors.Is(err, services.ErrValidationFailed),
		errors.Is(err, services.ErrTeamNameRequired),
		errors.Is(err, services.ErrPlayerNameRequired),
		errors.Is(err, services.ErrChampionshipNameReq),
		errors.Is(err, services.ErrInvalidMaxTeams),
		errors.Is(err, services.ErrInvalidScheduleType),
		errors.Is(err, services.ErrInvalidMatchStage),
		errors.Is(err, services.ErrInvalidMatchDate),
		errors.Is(err, services.ErrInvalidLimit),
		errors.Is(err, services.ErrDuplicateTeamEntry),
		errors.Is(err, services.ErrWinnerNotInChampionship),
		errors.Is(err, services.ErrScorerNotFound),
		errors.Is(err, ledger.ErrInvalidScore),
		errors.Is(err, ledger.ErrSameTeams),
		errors.Is(err, ledger.ErrInvalidAttribution),
		errors.Is(err, ledger.ErrAttributionMismatch),
		errors.Is(err, ledger.ErrPenaltyWinnerRequired),
		errors.Is(err, ledger.ErrUnexpectedPenaltyWinner),
		errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrSameTeam):
		failedValidationResponse(w, r, err)

	// Конфликты и нарушенные предусловия
	case errors.Is(err, services.ErrTeamNameConflict),
		errors.Is(err, services.ErrInvalidStatusTransition),
		errors.Is(err, services.ErrChampionshipExists),
		errors.Is(err, services.ErrChampionshipFull),
		errors.Is(err, services.ErrChampionshipNotFull),
		errors.Is(err, services.ErrRegistrationClosed),
		errors.Is(err, services.ErrTeamAlreadyRegistered),
		errors.Is(err, services.ErrTeamNotRegistered),
		errors.Is(err, services.ErrTeamHasPlayers),
		errors.Is(err, services.ErrTeamLocked),
		errors.Is(err, services.ErrPlayerOnTeam),
		errors.Is(err, services.ErrGroupPhaseIncomplete),
		errors.Is(err, services.ErrNoGroupMatches),
		errors.Is(err, services.ErrMatchAlreadyScheduled),
		errors.Is(err, services.ErrMatchNotEditable),
		errors.Is(err, services.ErrMatchPlayed),
		errors.Is(err, services.ErrMatchNotManual),
		errors.Is(err, services.ErrDependentMatchPlayed),
		errors.Is(err, services.ErrResultNotAllowed),
		errors.Is(err, ledger.ErrTeamsPending),
		errors.Is(err, ledger.ErrInsufficientBalance),
		errors.Is(err, ledger.ErrPlayerNotOnSourceTeam),
		errors.Is(err, ledger.ErrPlayerNotFreeAgent),
		errors.Is(err, ledger.ErrPlayerAlreadyOnTeam):
		conflictResponse(w, r, err.Error())

	case errors.Is(err, services.ErrInvalidAdminPassword):
		unauthorizedResponse(w, r, err.Error())

	case errors.Is(err, syncer.ErrRemoteStoreDisabled):
		errorResponse(w, r, http.StatusServiceUnavailable, err.Error())

	default:
		serverErrorResponse(w, r, err)
	}
}

func getIDFromURL(r *http.Request, paramName string) (string, error) {
	id := strings.TrimSpace(chi.URLParam(r, paramName))
	if id == "" {
		return "", fmt.Errorf("missing %s in URL path", paramName)
	}
	return id, nil
}

// readLimit reads ?limit=; an absent value is 0 and lets the service pick its default.
func readLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid limit %q", raw)
	}
	return limit, nil
}
