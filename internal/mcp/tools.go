package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	mcp "github.com/metoro-io/mcp-golang"

	"scribe/internal/document"
	"scribe/internal/links"
	"scribe/internal/operations"
	"scribe/internal/selection"
)

// LinkArg is a link as passed by MCP clients
type LinkArg struct {
	URL        string `json:"url" jsonschema:"required,description=Target URL"`
	AnchorText string `json:"anchorText" jsonschema:"required,description=Text to turn into the link"`
	Title      string `json:"title" jsonschema:"description=Title of the linked page"`
}

// RegisterOperationsTools registers all operations-based tools with the MCP server
func RegisterOperationsTools(server *mcp.Server, ops *operations.Operations) error {
	if err := registerWritingOperations(server, ops.Writing); err != nil {
		return fmt.Errorf("failed to register writing operations: %w", err)
	}
	if err := registerLinkOperations(server, ops.Links); err != nil {
		return fmt.Errorf("failed to register link operations: %w", err)
	}
	if err := registerEditorOperations(server, ops.Editor); err != nil {
		return fmt.Errorf("failed to register editor operations: %w", err)
	}
	return nil
}

func registerWritingOperations(server *mcp.Server, writingOps *operations.WritingOps) error {
	return server.RegisterTool(
		"rewrite_text",
		"Rewrite, shorten or lengthen a piece of text while keeping its meaning",
		func(args struct {
			Selection string `json:"selection" jsonschema:"required,description=Exact text to transform"`
			Context   string `json:"context" jsonschema:"description=Full document text for context"`
			Mode      string `json:"mode" jsonschema:"required,enum=rewrite,enum=shorter,enum=longer,description=Transformation to apply"`
		}) (*mcp.ToolResponse, error) {
			result, err := writingOps.Rewrite(context.Background(), args.Mode, args.Selection, args.Context)
			if err != nil {
				return nil, err
			}
			return mcp.NewToolResponse(mcp.NewTextContent(result.Text)), nil
		},
	)
}

func registerLinkOperations(server *mcp.Server, linkOps *operations.LinkOps) error {
	err := server.RegisterTool(
		"suggest_links",
		"Suggest external links for anchor expressions found in a piece of text",
		func(args struct {
			Selection string `json:"selection" jsonschema:"required,description=Text to find link anchors in"`
			Context   string `json:"context" jsonschema:"description=Full document text for context"`
		}) (*mcp.ToolResponse, error) {
			result, err := linkOps.SuggestLinks(context.Background(), args.Selection, args.Context)
			if err != nil {
				return nil, err
			}

			data, err := json.MarshalIndent(map[string]any{"links": result.Links}, "", "  ")
			if err != nil {
				return nil, fmt.Errorf("failed to marshal links: %w", err)
			}
			return mcp.NewToolResponse(mcp.NewTextContent(string(data))), nil
		},
	)
	if err != nil {
		return err
	}

	return server.RegisterTool(
		"merge_links",
		"Make a fragment link exactly the given links: other markdown links are unwrapped and new anchors are linked at their first whole-word match",
		func(args struct {
			Fragment string    `json:"fragment" jsonschema:"required,description=Text that may contain [text](url) links"`
			Links    []LinkArg `json:"links" jsonschema:"description=Links to keep or insert"`
		}) (*mcp.ToolResponse, error) {
			chosen := make([]links.Link, len(args.Links))
			for i, l := range args.Links {
				chosen[i] = links.Link{URL: l.URL, AnchorText: l.AnchorText, Title: l.Title}
			}
			return mcp.NewToolResponse(mcp.NewTextContent(linkOps.Merge(args.Fragment, chosen))), nil
		},
	)
}

func registerEditorOperations(server *mcp.Server, editorOps *operations.EditorOps) error {
	return server.RegisterTool(
		"expand_selection",
		"Widen a selection of text to whole-word boundaries. Positions count an opening and closing token around each paragraph, so the first character is at 1",
		func(args struct {
			Text string `json:"text" jsonschema:"required,description=Document text; blank lines separate paragraphs"`
			From int    `json:"from" jsonschema:"required,description=Selection start position"`
			To   int    `json:"to" jsonschema:"required,description=Selection end position"`
		}) (*mcp.ToolResponse, error) {
			doc := document.FromText(args.Text)
			result, err := editorOps.Expand(doc, selection.Selection{From: args.From, To: args.To})
			if err != nil {
				return nil, err
			}

			response := fmt.Sprintf("from: %d\nto: %d\ntext: %s", result.Selection.From, result.Selection.To, result.Text)
			return mcp.NewToolResponse(mcp.NewTextContent(response)), nil
		},
	)
}
