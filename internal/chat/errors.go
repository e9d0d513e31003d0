package chat

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// StreamError wraps a failure while opening or reading a completion stream.
type StreamError struct {
	Operation string
	Err       error
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("streaming error during %s: %v", e.Operation, e.Err)
}

func (e *StreamError) Unwrap() error {
	return e.Err
}

// IsModelNotFound reports whether err is the inference server rejecting the
// configured model name.
func IsModelNotFound(err error) bool {
	if err == nil {
		return false
	}
	status := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}
	if status != http.StatusNotFound {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "model") || strings.Contains(msg, "not found")
}

// Guidance returns the help text shown to the user for a failed request.
func Guidance(err error, model string) string {
	if IsModelNotFound(err) {
		return fmt.Sprintf("Model %s was not found.\n\n"+
			"Ollama: Run `ollama list`, then `ollama pull <name>` (e.g. `ollama pull qwen3:8b`). "+
			"Set --model to that name.", model)
	}
	return "Could not reach the local inference server. Make sure it is running.\n\n" +
		"LM Studio: Start LM Studio, open the in-app Local Server, start the server, and load a model.\n\n" +
		"Ollama: Run `ollama serve`, then `ollama pull <model>` (e.g. `ollama pull qwen3:8b`). " +
		"Set --api-url to http://localhost:11434/v1 for Ollama."
}
