package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
)

var (
	// ErrUnauthorized means the bearer token was rejected; it has been cleared.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden means the caller lacks the role for the resource.
	ErrForbidden = errors.New("forbidden")
	// ErrCanceled is returned when the caller's context was canceled. It is
	// not a failure and must never reach the user.
	ErrCanceled = errors.New("request canceled")
	ErrTimeout  = errors.New("request timed out")
	ErrNetwork  = errors.New("backend unreachable")

	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
)

// Messages are the localized texts used when the backend gives none.
type Messages struct {
	Network      string
	Timeout      string
	Server       string
	Unauthorized string
	Forbidden    string
	Generic      string
}

// DefaultMessages are Vietnamese, the language of the dashboard.
var DefaultMessages = Messages{
	Network:      "Không thể kết nối đến máy chủ. Vui lòng kiểm tra kết nối mạng.",
	Timeout:      "Máy chủ phản hồi quá lâu. Vui lòng thử lại.",
	Server:       "Máy chủ gặp sự cố. Vui lòng thử lại sau.",
	Unauthorized: "Phiên đăng nhập đã hết hạn. Vui lòng đăng nhập lại.",
	Forbidden:    "Bạn không có quyền thực hiện thao tác này.",
	Generic:      "Đã xảy ra lỗi. Vui lòng thử lại.",
}

type FieldError struct {
	Field    string   `json:"field"`
	Messages []string `json:"messages"`
}

// APIError is a non-2xx answer other than 401/403.
type APIError struct {
	StatusCode  int
	Message     string
	FieldErrors []FieldError
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnprocessableEntity, http.StatusBadRequest:
		return ErrValidation
	case http.StatusNotFound:
		return ErrNotFound
	}
	return nil
}

// UserMessage returns the text to show in a toast for any error this package
// produces. Cancellations yield "".
func UserMessage(err error, msgs Messages) string {
	var apiErr *APIError
	switch {
	case err == nil, errors.Is(err, ErrCanceled):
		return ""
	case errors.As(err, &apiErr):
		return apiErr.Message
	case errors.Is(err, ErrUnauthorized):
		return msgs.Unauthorized
	case errors.Is(err, ErrForbidden):
		return msgs.Forbidden
	case errors.Is(err, ErrTimeout):
		return msgs.Timeout
	case errors.Is(err, ErrNetwork):
		return msgs.Network
	}
	return msgs.Generic
}

// IsCanceled reports whether err stems from the caller giving up.
func IsCanceled(err error) bool {
	return errors.Is(err, ErrCanceled) || errors.Is(err, context.Canceled)
}

type errorBody struct {
	Message string          `json:"message"`
	Errors  json.RawMessage `json:"errors"`
}

func (c *Client) apiError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status}

	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		apiErr.FieldErrors = parseFieldErrors(eb.Errors)
		apiErr.Message = strings.TrimSpace(eb.Message)
	}

	// The first field's first message is the most specific thing to show.
	for _, fe := range apiErr.FieldErrors {
		if len(fe.Messages) > 0 && fe.Messages[0] != "" {
			apiErr.Message = fe.Messages[0]
			break
		}
	}

	if apiErr.Message == "" {
		if status >= 500 {
			apiErr.Message = c.messages.Server
		} else {
			apiErr.Message = c.messages.Generic
		}
	}
	return apiErr
}

// parseFieldErrors keeps the field order of the document, which a map would lose.
func parseFieldErrors(raw json.RawMessage) []FieldError {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}

	if raw[0] == '[' {
		var list []string
		if err := json.Unmarshal(raw, &list); err != nil || len(list) == 0 {
			return nil
		}
		return []FieldError{{Messages: list}}
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return nil
	}

	var out []FieldError
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return out
		}
		key, _ := keyTok.(string)

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return out
		}

		var msgs []string
		if err := json.Unmarshal(value, &msgs); err != nil {
			var single string
			if json.Unmarshal(value, &single) == nil {
				msgs = []string{single}
			}
		}
		out = append(out, FieldError{Field: key, Messages: msgs})
	}
	return out
}

func transportError(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.Canceled) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", ErrCanceled, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrNetwork, err)
}
