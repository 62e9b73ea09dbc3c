package mcp

import "github.com/mark3labs/mcp-go/mcp"

// askDocumentsTool defines the ask_documents MCP tool.
var askDocumentsTool = mcp.NewTool("ask_documents",
	mcp.WithDescription("Ask a question about the processed documents. The answer is grounded in the indexed text, or in the staged CSV file when one was processed last."),
	mcp.WithString("question",
		mcp.Required(),
		mcp.Description("Natural language question, 5 to 200 characters"),
	),
)

// searchDocumentsTool defines the search_documents MCP tool.
var searchDocumentsTool = mcp.NewTool("search_documents",
	mcp.WithDescription("Return the indexed text chunks most similar to a query, without generating an answer."),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("Natural language search query"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of chunks to return (default 4)"),
	),
)

// processDocumentsTool defines the process_documents MCP tool.
var processDocumentsTool = mcp.NewTool("process_documents",
	mcp.WithDescription("Index PDF or Word files, or stage one CSV file, from the local filesystem. Replaces the current index."),
	mcp.WithString("paths",
		mcp.Required(),
		mcp.Description("Comma-separated file paths, all of the same type (.pdf, .docx or .csv)"),
	),
)

// getHistoryTool defines the get_history MCP tool.
var getHistoryTool = mcp.NewTool("get_history",
	mcp.WithDescription("Return the questions and answers of this session, newest first."),
)
