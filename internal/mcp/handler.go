package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/sproutapp/sprout/internal/model"
	"github.com/sproutapp/sprout/internal/service"
)

// --------------------------------------------------------------------------
// Parameter extraction helpers
// --------------------------------------------------------------------------

// requireString extracts a required string argument from the tool request.
func requireString(request mcp.CallToolRequest, key string) (string, error) {
	val, err := request.RequireString(key)
	if err != nil {
		return "", fmt.Errorf("missing required parameter %q", key)
	}
	return val, nil
}

// optionalString extracts an optional string argument from the tool request.
func optionalString(request mcp.CallToolRequest, key string) string {
	return request.GetString(key, "")
}

// optionalInt extracts an optional integer argument from the tool request.
func optionalInt(request mcp.CallToolRequest, key string, defaultVal int) int {
	return request.GetInt(key, defaultVal)
}

// requireInt extracts a required integer argument from the tool request.
func requireInt(request mcp.CallToolRequest, key string) (int, error) {
	if _, ok := request.GetArguments()[key]; !ok {
		return 0, fmt.Errorf("missing required parameter %q", key)
	}
	return request.GetInt(key, 0), nil
}

// requireFloat extracts a required numeric argument from the tool request.
func requireFloat(request mcp.CallToolRequest, key string) (float64, error) {
	if _, ok := request.GetArguments()[key]; !ok {
		return 0, fmt.Errorf("missing required parameter %q", key)
	}
	return request.GetFloat(key, 0), nil
}

// optionalStringPtr returns the string argument as a pointer when the key
// is present in the call, nil when it is absent. Partial updates depend on
// the distinction between "not sent" and "sent empty".
func optionalStringPtr(request mcp.CallToolRequest, key string) *string {
	args := request.GetArguments()
	if args == nil {
		return nil
	}
	raw, ok := args[key]
	if !ok {
		return nil
	}
	s, ok := raw.(string)
	if !ok {
		return nil
	}
	return &s
}

// optionalIntPtr returns the numeric argument as an int pointer when the
// key is present, nil when it is absent.
func optionalIntPtr(request mcp.CallToolRequest, key string) *int {
	args := request.GetArguments()
	if args == nil {
		return nil
	}
	raw, ok := args[key]
	if !ok {
		return nil
	}
	f, ok := raw.(float64)
	if !ok {
		return nil
	}
	n := int(f)
	return &n
}

// dateArg extracts an optional ISO-8601 date argument. An absent or empty
// value defaults to today (UTC); a malformed value is an error.
func dateArg(request mcp.CallToolRequest, key string) (string, error) {
	val := request.GetString(key, "")
	if val == "" {
		return time.Now().UTC().Format(model.DateFormat), nil
	}
	if !model.ValidDate(val) {
		return "", fmt.Errorf("parameter %q must be a date in YYYY-MM-DD format, got %q", key, val)
	}
	return val, nil
}

// identity returns the authenticated user carried on the context, or an
// error result when the transport supplied none.
func identity(ctx context.Context) (*model.User, *mcp.CallToolResult) {
	user := service.IdentityFromContext(ctx)
	if user == nil {
		res, _ := toolError("No authenticated identity on this session.")
		return nil, res
	}
	return user, nil
}

// --------------------------------------------------------------------------
// Response builders
// --------------------------------------------------------------------------

// successJSON marshals data to JSON and returns it as a tool result.
func successJSON(data interface{}) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response: %w", err)
	}
	return mcp.NewToolResultText(string(b)), nil
}

// successText returns a plain confirmation message as a tool result.
func successText(format string, args ...interface{}) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(fmt.Sprintf(format, args...)), nil
}

// toolError returns a tool-level error result. Errors returned this way
// are visible to the calling agent so it can self-correct; they do NOT
// terminate the session and are distinct from transport failures.
func toolError(format string, args ...interface{}) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultError(fmt.Sprintf(format, args...)), nil
}
