package mcp

import (
	"context"
	"encoding/json"
	stderrors "errors"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/repovault/internal/config"
	"github.com/hpungsan/repovault/internal/errors"
	"github.com/hpungsan/repovault/internal/gateway"
	"github.com/hpungsan/repovault/internal/ops"
	"github.com/hpungsan/repovault/internal/vault"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	store   *vault.Store
	gw      gateway.Gateway
	cfg     *config.Config
	baseDir string
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(store *vault.Store, gw gateway.Gateway, cfg *config.Config, baseDir string) *Handlers {
	return &Handlers{store: store, gw: gw, cfg: cfg, baseDir: baseDir}
}

// Request types for each tool

// AddRequest represents the arguments for bookmark_add.
type AddRequest struct {
	URL      string `json:"url"`
	Category string `json:"category,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

// DeleteRequest represents the arguments for bookmark_delete.
type DeleteRequest struct {
	ID *int64 `json:"id"`
}

// ClearRequest represents the arguments for bookmark_clear.
type ClearRequest struct {
	Confirm bool `json:"confirm"`
}

// ListRequest represents the arguments for bookmark_list.
type ListRequest struct {
	Search   string `json:"search,omitempty"`
	Category string `json:"category,omitempty"`
	Limit    int    `json:"limit,omitempty"`
	Offset   int    `json:"offset,omitempty"`
}

// ExportRequest represents the arguments for bookmark_export.
type ExportRequest struct {
	Path string `json:"path,omitempty"`
}

// ImportRequest represents the arguments for bookmark_import.
type ImportRequest struct {
	Path string `json:"path"`
}

// HandleAdd handles the bookmark_add tool call.
func (h *Handlers) HandleAdd(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[AddRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidInput(err.Error())), nil
	}

	result, err := ops.Add(ctx, h.store, ops.AddInput{
		URL:      input.URL,
		Category: input.Category,
		Notes:    input.Notes,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleDelete handles the bookmark_delete tool call.
func (h *Handlers) HandleDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[DeleteRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidInput(err.Error())), nil
	}
	if input.ID == nil {
		return errorResult(errors.NewInvalidInput("id is required")), nil
	}

	result, err := ops.Delete(ctx, h.store, ops.DeleteInput{ID: *input.ID})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleClear handles the bookmark_clear tool call.
func (h *Handlers) HandleClear(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ClearRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidInput(err.Error())), nil
	}

	result, err := ops.Clear(ctx, h.store, ops.ClearInput{Confirm: input.Confirm})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleList handles the bookmark_list tool call.
func (h *Handlers) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidInput(err.Error())), nil
	}

	result, err := ops.List(h.store, ops.ListInput{
		Search:   input.Search,
		Category: input.Category,
		Limit:    input.Limit,
		Offset:   input.Offset,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleCategories handles the bookmark_categories tool call.
func (h *Handlers) HandleCategories(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return successResult(ops.Categories(h.store))
}

// HandleExport handles the bookmark_export tool call.
func (h *Handlers) HandleExport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ExportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidInput(err.Error())), nil
	}

	result, err := ops.Export(ctx, h.store, h.cfg, h.baseDir, ops.ExportInput{Path: input.Path})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleImport handles the bookmark_import tool call.
func (h *Handlers) HandleImport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ImportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidInput(err.Error())), nil
	}

	result, err := ops.Import(ctx, h.store, h.cfg, h.baseDir, ops.ImportInput{Path: input.Path})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleCount handles the bookmark_count tool call.
func (h *Handlers) HandleCount(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := ops.HandleMessage(ctx, h.gw, h.store.CollectionName(), ops.Message{
		Action: ops.ActionGetBookmarkCount,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Server-side failures are reported without their message or details.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	var vErr *errors.VaultError
	if stderrors.As(err, &vErr) {
		errorObj := map[string]any{
			"code":    vErr.Code,
			"message": err.Error(),
			"status":  vErr.Status,
		}
		if vErr == err {
			errorObj["message"] = vErr.Message
		}
		if vErr.Status >= 500 {
			errorObj["message"] = "an internal error occurred"
		}
		if vErr.Code != errors.ErrInternal && vErr.Code != errors.ErrPersistence && vErr.Details != nil {
			errorObj["details"] = vErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    errors.ErrInternal,
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
