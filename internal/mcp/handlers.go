package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/docchat/internal/document"
	"github.com/ziadkadry99/docchat/internal/vectordb"
)

// handleAskDocuments answers a question and records the turn in the session.
func (s *Server) handleAskDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, err := request.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: question"), nil
	}

	s.mu.Lock()
	ans, err := s.svc.Ask(ctx, s.sess, question)
	s.mu.Unlock()
	if err != nil {
		return mcp.NewToolResultError(toolError(err)), nil
	}

	var sb strings.Builder
	sb.WriteString(ans.Text)
	sb.WriteString("\n")
	if len(ans.Context) > 0 {
		fmt.Fprintf(&sb, "\n(grounded on %d chunk(s), %s, %dms)\n", len(ans.Context), ans.Model, ans.Latency.Milliseconds())
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// handleSearchDocuments runs a similarity search over the vector index.
func (s *Server) handleSearchDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}

	limit := request.GetInt("limit", vectordb.DefaultTopK)
	if limit <= 0 {
		limit = vectordb.DefaultTopK
	}

	s.mu.Lock()
	results, err := s.svc.Search(ctx, query, limit)
	s.mu.Unlock()
	if err != nil {
		return mcp.NewToolResultError(toolError(err)), nil
	}

	if len(results) == 0 {
		return mcp.NewToolResultText("No results found. The processed documents may contain no text."), nil
	}

	return mcp.NewToolResultText(vectordb.FormatResults(results)), nil
}

// handleProcessDocuments loads files from disk and processes them. File
// types are checked by the service, not here.
func (s *Server) handleProcessDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := request.RequireString("paths")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: paths"), nil
	}

	var docs []document.Document
	for _, p := range strings.Split(raw, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		doc, err := document.Load(p)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		docs = append(docs, doc)
	}

	s.mu.Lock()
	res, err := s.svc.Process(ctx, s.sess, docs)
	s.mu.Unlock()
	if err != nil {
		return mcp.NewToolResultError(toolError(err)), nil
	}

	if res.Type == document.TypeCSV {
		return mcp.NewToolResultText(fmt.Sprintf("CSV staged at %s. Questions now go to the tabular agent.", res.StagedPath)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Processed %d %s file(s) into %d chunk(s).", res.Files, res.Type, res.Chunks)), nil
}

// handleGetHistory lists the session's turns, newest first.
func (s *Server) handleGetHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.mu.Lock()
	turns := s.sess.Recent()
	s.mu.Unlock()

	if len(turns) == 0 {
		return mcp.NewToolResultText("No questions asked yet."), nil
	}

	var sb strings.Builder
	for i, t := range turns {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "Q: %s\nA: %s\n", t.Question, t.Answer)
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// toolError renders err for the calling agent. A missing index gets a hint
// naming the tool that builds it.
func toolError(err error) string {
	if errors.Is(err, vectordb.ErrIndexNotFound) {
		return "No documents have been processed yet: process a file first with the process_documents tool."
	}
	return err.Error()
}
