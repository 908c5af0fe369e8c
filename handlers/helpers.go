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

	"github.com/Dosada05/raceday/middleware"
	"github.com/Dosada05/raceday/services"
	"github.com/go-chi/chi/v5"
)

type jsonResponse map[string]interface{}

var (
	errorLogger         = slog.Default()
	exposeInternalError bool
)

// ConfigureErrors sets the logger for unexpected errors and whether their text reaches the client.
func ConfigureErrors(logger *slog.Logger, exposeDetails bool) {
	if logger != nil {
		errorLogger = logger
	}
	exposeInternalError = exposeDetails
}

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

// writeData wraps data in the success envelope.
func writeData(w http.ResponseWriter, r *http.Request, status int, data interface{}, message string) {
	if err := writeJSON(w, status, jsonResponse{"data": data, "message": message}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func errorResponse(w http.ResponseWriter, r *http.Request, status int, message interface{}) {
	env := jsonResponse{"error": message}
	if err := writeJSON(w, status, env, nil); err != nil {
		errorLogger.ErrorContext(r.Context(), "Failed to write error response", slog.Any("error", err))
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	errorLogger.ErrorContext(r.Context(), "Internal server error",
		slog.String("method", r.Method), slog.String("path", r.URL.Path), slog.Any("error", err))
	message := "the server encountered a problem and could not process your request"
	if exposeInternalError {
		message = err.Error()
	}
	errorResponse(w, r, http.StatusInternalServerError, message)
}

func badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	errorResponse(w, r, http.StatusBadRequest, err.Error())
}

func notFoundResponse(w http.ResponseWriter, r *http.Request, message string) {
	errorResponse(w, r, http.StatusNotFound, message)
}

func conflictResponse(w http.ResponseWriter, r *http.Request, message string) {
	errorResponse(w, r, http.StatusConflict, message)
}

func unauthorizedResponse(w http.ResponseWriter, r *http.Request, message string) {
	errorResponse(w, r, http.StatusUnauthorized, message)
}

func forbiddenResponse(w http.ResponseWriter, r *http.Request, message string) {
	errorResponse(w, r, http.StatusForbidden, message)
}

// mapServiceErrorToHTTP преобразует ошибки сервисного слоя в HTTP-ответы
func mapServiceErrorToHTTP(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	// Не найдено
	case errors.Is(err, services.ErrNotFound),
		errors.Is(err, services.ErrClubNotFound),
		errors.Is(err, services.ErrPlayerNotFound),
		errors.Is(err, services.ErrTeamNotFound),
		errors.Is(err, services.ErrEventNotFound),
		errors.Is(err, services.ErrRaceNotFound),
		errors.Is(err, services.ErrNoPlayersMatch),
		errors.Is(err, services.ErrParticipationNotFound),
		errors.Is(err, services.ErrRaceTeamNotAssigned),
		errors.Is(err, services.ErrBibNotFound):
		notFoundResponse(w, r, err.Error())

	// Конфликты уникальности
	case errors.Is(err, services.ErrClubNameConflict),
		errors.Is(err, services.ErrPlayerCNICConflict),
		errors.Is(err, services.ErrTeamNameConflict),
		errors.Is(err, services.ErrEventNameConflict),
		errors.Is(err, services.ErrRaceNameConflict):
		conflictResponse(w, r, err.Error())

	// Бизнес-правила и валидация
	case errors.Is(err, services.ErrValidationFailed),
		errors.Is(err, services.ErrNoFieldsToUpdate),
		errors.Is(err, services.ErrTeamCapacityExceeded),
		errors.Is(err, services.ErrPlayerGenderNotAllowed),
		errors.Is(err, services.ErrPlayerAlreadyUnassigned),
		errors.Is(err, services.ErrPlayerAssignedToTeam),
		errors.Is(err, services.ErrTeamHasPlayers),
		errors.Is(err, services.ErrTeamInRaces),
		errors.Is(err, services.ErrTeamTypeMismatch),
		errors.Is(err, services.ErrTeamTooSmall),
		errors.Is(err, services.ErrTeamAlreadyInRace),
		errors.Is(err, services.ErrTeamHasNoPlayers),
		errors.Is(err, services.ErrActiveLimitReached),
		errors.Is(err, services.ErrActiveAboveLimit),
		errors.Is(err, services.ErrPlayersAlreadyInRace),
		errors.Is(err, services.ErrGroupBlocksSubstitute),
		errors.Is(err, services.ErrGroupRequiresActive),
		errors.Is(err, services.ErrGroupNotSupported),
		errors.Is(err, services.ErrInvalidBibNumber),
		errors.Is(err, services.ErrBibNumberTaken),
		errors.Is(err, services.ErrPlayerHasBib),
		errors.Is(err, services.ErrBibNumberInUse),
		errors.Is(err, services.ErrEventHasRaces),
		errors.Is(err, services.ErrRaceHasTeams),
		errors.Is(err, services.ErrStorageNotConfigured),
		errors.Is(err, services.ErrInvalidFileType):
		badRequestResponse(w, r, err)

	case errors.Is(err, services.ErrInvalidCredentials):
		unauthorizedResponse(w, r, err.Error())
	case errors.Is(err, services.ErrForbiddenOperation):
		forbiddenResponse(w, r, err.Error())

	default:
		serverErrorResponse(w, r, err)
	}
}

func getIDFromURL(r *http.Request, paramName string) (int, error) {
	idStr := chi.URLParam(r, paramName)
	if idStr == "" {
		return 0, fmt.Errorf("missing %s in URL path", paramName)
	}
	id, err := strconv.Atoi(idStr)
	if err != nil {
		return 0, fmt.Errorf("invalid %s format: %q", paramName, idStr)
	}
	if id <= 0 {
		return 0, fmt.Errorf("invalid %s value: %d", paramName, id)
	}
	return id, nil
}

// queryIDs reads required positive integer query parameters in order.
func queryIDs(r *http.Request, names ...string) ([]int, error) {
	q := r.URL.Query()
	out := make([]int, 0, len(names))
	missing := make([]string, 0)
	for _, name := range names {
		raw := strings.TrimSpace(q.Get(name))
		if raw == "" {
			missing = append(missing, name)
			continue
		}
		id, err := strconv.Atoi(raw)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid %s value: %q", name, raw)
		}
		out = append(out, id)
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%s %s required", strings.Join(missing, ", "), pluralIs(len(missing)))
	}
	return out, nil
}

func pluralIs(n int) string {
	if n == 1 {
		return "is"
	}
	return "are"
}

// currentClubID resolves the authenticated club or writes a 401.
func currentClubID(w http.ResponseWriter, r *http.Request) (int, bool) {
	clubID, err := middleware.GetClubIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "Club authentication failed.")
		return 0, false
	}
	return clubID, true
}

// requirePositive returns an error naming the first field whose value is not positive.
func requirePositive(fields map[string]int, order ...string) error {
	missing := make([]string, 0)
	for _, name := range order {
		if fields[name] <= 0 {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%s %s required", strings.Join(missing, ", "), pluralIs(len(missing)))
	}
	return nil
}
