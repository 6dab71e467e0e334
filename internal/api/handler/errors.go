package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/tictactoe3d/internal/api/apierr"
	"github.com/mcoot/tictactoe3d/internal/api/request"
	"github.com/mcoot/tictactoe3d/internal/model"
)

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	apierr.WriteError(w, err)
}

// NotFound answers unknown routes with a JSON 404
func NotFound(w http.ResponseWriter, _ *http.Request) {
	apierr.WriteError(w, apierr.NewNotFoundError())
}

// decodeBody parses a JSON body into dst. An empty body leaves dst untouched.
func decodeBody(r *http.Request, dst any) error {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return apierr.NewInvalidRequestError("invalid request body")
}

// lobbyCode reads the {code} path variable
func lobbyCode(r *http.Request) (model.LobbyCode, error) {
	return request.ParseLobbyCode(mux.Vars(r)["code"])
}
