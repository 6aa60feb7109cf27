package adminapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// decodeJSON reads and unmarshals req's body into v. v must be a pointer.
func decodeJSON(req *http.Request, v interface{}) error {
	data, err := io.ReadAll(req.Body)
	if err != nil {
		return fmt.Errorf("could not read request body: %w", err)
	}
	if len(data) == 0 {
		return fmt.Errorf("request body is empty")
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("malformed JSON in request: %w", err)
	}
	return nil
}
