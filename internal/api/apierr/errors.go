package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/tictactoe3d/internal/model"
	"github.com/mcoot/tictactoe3d/internal/services/auth"
)

// APIError represents an API error response
type APIError struct {
	Kind    string `json:"kind"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest      = "INVALID_REQUEST"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeInvalidInitData     = "INVALID_INIT_DATA"
	CodeInitDataExpired     = "INIT_DATA_EXPIRED"
	CodeNotHost             = "NOT_HOST"
	CodeNotYourTurn         = "NOT_YOUR_TURN"
	CodeWrongSymbol         = "WRONG_SYMBOL"
	CodeOutOfRange          = "OUT_OF_RANGE"
	CodePlayerNotFound      = "PLAYER_NOT_FOUND"
	CodeLobbyNotFound       = "LOBBY_NOT_FOUND"
	CodeLobbyFull           = "LOBBY_FULL"
	CodeAlreadyInLobby      = "ALREADY_IN_LOBBY"
	CodeNotInLobby          = "NOT_IN_LOBBY"
	CodeGameInProgress      = "GAME_IN_PROGRESS"
	CodeNoGameInProgress    = "NO_GAME_IN_PROGRESS"
	CodeGameComplete        = "GAME_COMPLETE"
	CodeCellOccupied        = "CELL_OCCUPIED"
	CodeInsufficientPlayers = "INSUFFICIENT_PLAYERS"
	CodeNotFound            = "NOT_FOUND"
	CodeInternalError       = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// Describe returns the client-facing description of an error.
// Internal failures never leak their message.
func Describe(err error) APIError {
	return toHTTPError(err).apiError
}

// StatusFor returns the HTTP status for an error kind
func StatusFor(kind model.ErrorKind) int {
	switch kind {
	case model.KindUnauthorized:
		return http.StatusUnauthorized
	case model.KindNotFound:
		return http.StatusNotFound
	case model.KindForbidden:
		return http.StatusForbidden
	case model.KindConflict:
		return http.StatusConflict
	case model.KindInvalidInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	kind := model.KindOf(err)
	code, message := codeFor(err)
	if kind == model.KindInternal {
		code, message = CodeInternalError, "Internal server error"
	}
	return &httpError{StatusFor(kind), APIError{string(kind), code, message}}
}

// codeFor picks the machine code for a classified error
func codeFor(err error) (string, string) {
	switch {
	// Auth errors
	case errors.Is(err, auth.ErrInvalidSession):
		return CodeUnauthorized, "Invalid or expired session"
	case errors.Is(err, auth.ErrInitDataExpired):
		return CodeInitDataExpired, "Init data has expired"
	case errors.Is(err, auth.ErrInvalidSignature),
		errors.Is(err, auth.ErrMalformedInitData),
		errors.Is(err, auth.ErrMissingInitData),
		errors.Is(err, auth.ErrMissingUser):
		return CodeInvalidInitData, err.Error()
	case errors.Is(err, model.ErrUnauthorized):
		return CodeUnauthorized, "Authentication required"

	// Model errors
	case errors.Is(err, model.ErrPlayerNotFound):
		return CodePlayerNotFound, "Player not found"
	case errors.Is(err, model.ErrLobbyNotFound):
		return CodeLobbyNotFound, "Lobby not found"
	case errors.Is(err, model.ErrNotInLobby):
		return CodeNotInLobby, "Player not in lobby"
	case errors.Is(err, model.ErrLobbyFull):
		return CodeLobbyFull, "Lobby is full"
	case errors.Is(err, model.ErrAlreadyInLobby):
		return CodeAlreadyInLobby, "Player already in lobby"
	case errors.Is(err, model.ErrNotHost):
		return CodeNotHost, "Only host can start the game"
	case errors.Is(err, model.ErrInsufficientPlayers):
		return CodeInsufficientPlayers, "Need 2 players to start"
	case errors.Is(err, model.ErrGameInProgress):
		return CodeGameInProgress, "Game is in progress"
	case errors.Is(err, model.ErrNoGameInProgress):
		return CodeNoGameInProgress, "No game in progress"
	case errors.Is(err, model.ErrGameComplete):
		return CodeGameComplete, "Game is already complete"
	case errors.Is(err, model.ErrNotPlayerTurn):
		return CodeNotYourTurn, "Not your turn"
	case errors.Is(err, model.ErrWrongSymbol):
		return CodeWrongSymbol, "That symbol is not yours"
	case errors.Is(err, model.ErrOutOfRange):
		return CodeOutOfRange, "Coordinates must be -1, 0 or 1"
	case errors.Is(err, model.ErrCellOccupied):
		return CodeCellOccupied, "Cell is already occupied"
	case errors.Is(err, model.ErrInvalidInput):
		return CodeInvalidRequest, err.Error()
	default:
		return CodeInternalError, "Internal server error"
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{string(model.KindInvalidInput), CodeInvalidRequest, message}}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError() error {
	return &httpError{http.StatusUnauthorized, APIError{string(model.KindUnauthorized), CodeUnauthorized, "Authentication required"}}
}

// NewNotFoundError creates a not found error for unknown routes
func NewNotFoundError() error {
	return &httpError{http.StatusNotFound, APIError{string(model.KindNotFound), CodeNotFound, "Endpoint not found"}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{string(model.KindInternal), CodeInternalError, "Internal server error"}}
}
