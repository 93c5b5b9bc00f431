package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// flexID accepts an id sent either as a JSON number or a numeric string.
type flexID int64

func (id *flexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var raw json.Number
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		raw = json.Number(strings.TrimSpace(s))
	} else {
		raw = json.Number(data)
	}
	v, err := strconv.ParseInt(raw.String(), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %q", raw)
	}
	*id = flexID(v)
	return nil
}

func parseID(value, name string) (int64, error) {
	if value == "" {
		return 0, fmt.Errorf("%w: %s", ErrMissingParameter, name)
	}
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer", ErrInvalidParameter, name)
	}
	return id, nil
}

func pathID(c *gin.Context) (int64, error) {
	return parseID(c.Param("id"), "id")
}
