package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"ledger/internal/ledger"
	"ledger/internal/log"
)

const (
	ServerName    = "ExpenseTracker"
	ServerVersion = "1.0.0"

	// CategoriesURI names the static categories resource.
	CategoriesURI = "expense:///categories"

	categoriesMIMEType = "application/json"
	maxRequestBody     = 1 << 20
)

// newMCPServer registers every tool of the toolbox and the categories
// resource on an MCP server.
func newMCPServer(tools *Toolbox, svc *ledger.Service, logger *log.Logger) *server.MCPServer {
	s := server.NewMCPServer(ServerName, ServerVersion,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithRecovery(),
	)

	for _, t := range tools.List() {
		schema, err := json.Marshal(t.InputSchema)
		if err != nil {
			logger.Error("Skipping tool with unencodable schema", log.FieldTool, t.Name, log.FieldError, err)
			continue
		}
		s.AddTool(mcp.NewToolWithRawSchema(t.Name, t.Description, schema), toolHandler(tools, t.Name, logger))
	}

	s.AddResource(
		mcp.NewResource(CategoriesURI, "categories",
			mcp.WithResourceDescription("Fixed list of expense categories"),
			mcp.WithMIMEType(categoriesMIMEType)),
		func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
			return []mcp.ResourceContents{
				mcp.TextResourceContents{
					URI:      CategoriesURI,
					MIMEType: categoriesMIMEType,
					Text:     svc.Categories().JSON(),
				},
			}, nil
		})

	return s
}

// toolHandler runs a tool and wraps its JSON result as a text block.
// Argument errors become error results so the model can correct them.
func toolHandler(tools *Toolbox, name string, logger *log.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		resp, err := tools.Call(ctx, name, Arguments(req.GetArguments()))
		var argErr *ArgumentError
		if errors.As(err, &argErr) {
			logger.WarnContext(ctx, "Rejected tool arguments",
				log.FieldTool, name,
				log.FieldErrorType, log.ErrorTypeValidation,
				log.FieldError, err)
			resp = ledger.Response{
				Body:  ledger.Envelope{Status: ledger.StatusError, Message: fmt.Sprintf("Invalid arguments: %v", err)},
				Error: true,
			}
		} else if err != nil {
			return nil, err
		}

		text, err := json.Marshal(resp)
		if err != nil {
			return nil, fmt.Errorf("encode tool result: %w", err)
		}
		if resp.Error {
			return mcp.NewToolResultError(string(text)), nil
		}
		return mcp.NewToolResultText(string(text)), nil
	}
}
