// Package respond writes HTTP responses as JSON, or as MessagePack when the
// client asks for it with an Accept header.
package respond

import (
	"encoding/json"
	"mime"
	"net/http"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

// Content types
const (
	ContentTypeJSON    = "application/json"
	ContentTypeMsgpack = "application/msgpack"
)

// msgpackAliases are the media types clients use for MessagePack
var msgpackAliases = map[string]bool{
	ContentTypeMsgpack:        true,
	"application/x-msgpack":   true,
	"application/vnd.msgpack": true,
}

// ErrorBody is the payload of every error response
type ErrorBody struct {
	Error string `json:"error" msgpack:"error"`
}

// WantsMsgpack reports whether the request accepts MessagePack
func WantsMsgpack(r *http.Request) bool {
	for _, part := range strings.Split(r.Header.Get("Accept"), ",") {
		mediaType, _, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err == nil && msgpackAliases[mediaType] {
			return true
		}
	}
	return false
}

// Write encodes data with the negotiated encoding and status code
func Write(w http.ResponseWriter, r *http.Request, status int, data interface{}) error {
	if WantsMsgpack(r) {
		body, err := msgpack.Marshal(data)
		if err != nil {
			return writeEncodingFailure(w, err)
		}
		w.Header().Set("Content-Type", ContentTypeMsgpack)
		w.WriteHeader(status)
		_, err = w.Write(body)
		return err
	}

	body, err := json.Marshal(data)
	if err != nil {
		return writeEncodingFailure(w, err)
	}
	w.Header().Set("Content-Type", ContentTypeJSON)
	w.WriteHeader(status)
	_, err = w.Write(append(body, '\n'))
	return err
}

// Error writes an ErrorBody with the negotiated encoding
func Error(w http.ResponseWriter, r *http.Request, status int, message string) error {
	return Write(w, r, status, ErrorBody{Error: message})
}

func writeEncodingFailure(w http.ResponseWriter, err error) error {
	http.Error(w, `{"error":"failed to encode response"}`, http.StatusInternalServerError)
	return err
}
