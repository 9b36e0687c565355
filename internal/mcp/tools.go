package mcp

import "github.com/mark3labs/mcp-go/mcp"

const pathDescription = "Path to a .qdpx archive or a bare .qde document"

var projectSummaryToolDef = mcp.NewTool("project_summary",
	mcp.WithDescription("Decode a project file and count its users, codes, sources, selections, codings and other entities. Non-fatal decode findings are listed under diagnostics."),
	mcp.WithString("path", mcp.Required(), mcp.Description(pathDescription)),
	mcp.WithReadOnlyHintAnnotation(true),
)

var projectCodesToolDef = mcp.NewTool("project_codes",
	mcp.WithDescription("Return the code hierarchy of a project file with colors and the number of codings applying each code."),
	mcp.WithString("path", mcp.Required(), mcp.Description(pathDescription)),
	mcp.WithReadOnlyHintAnnotation(true),
)

var projectValidateToolDef = mcp.NewTool("project_validate",
	mcp.WithDescription("Check identifier uniqueness and cross-references of a project file. Lenient mode reports every problem; strict mode stops at the first dangling reference."),
	mcp.WithString("path", mcp.Required(), mcp.Description(pathDescription)),
	mcp.WithBoolean("strict", mcp.Description("Stop at the first dangling reference (default from config)")),
	mcp.WithBoolean("check_sources", mcp.Description("Reject an empty Sources element (default from config)")),
	mcp.WithReadOnlyHintAnnotation(true),
)

var projectReportToolDef = mcp.NewTool("project_report",
	mcp.WithDescription("Render an overview report of a project file: metadata, code tree and source table."),
	mcp.WithString("path", mcp.Required(), mcp.Description(pathDescription)),
	mcp.WithString("format", mcp.Enum("markdown", "html"), mcp.Description("Output format (default markdown)")),
	mcp.WithBoolean("validate", mcp.Description("Append a lenient reference check section")),
	mcp.WithReadOnlyHintAnnotation(true),
)

var indexAddToolDef = mcp.NewTool("index_add",
	mcp.WithDescription("Decode a project file and store its summary, code tree and a snapshot in the local index. Re-indexing the same path replaces the earlier record."),
	mcp.WithString("path", mcp.Required(), mcp.Description(pathDescription)),
)

var indexListToolDef = mcp.NewTool("index_list",
	mcp.WithDescription("List indexed projects, most recently indexed first."),
	mcp.WithNumber("limit", mcp.Min(1), mcp.Max(100), mcp.Description("Page size (default 20)")),
	mcp.WithNumber("offset", mcp.Min(0), mcp.Description("Items to skip")),
	mcp.WithBoolean("include_deleted", mcp.Description("Include soft-deleted projects")),
	mcp.WithReadOnlyHintAnnotation(true),
)

var indexSearchCodesToolDef = mcp.NewTool("index_search_codes",
	mcp.WithDescription("Search code names across indexed projects (case-insensitive substring). With project_id and no query, lists that project's whole code tree."),
	mcp.WithString("query", mcp.Description("Text to find in code names")),
	mcp.WithString("project_id", mcp.Description("Restrict to one indexed project")),
	mcp.WithNumber("limit", mcp.Min(1), mcp.Max(200), mcp.Description("Page size (default 50)")),
	mcp.WithNumber("offset", mcp.Min(0), mcp.Description("Items to skip")),
	mcp.WithReadOnlyHintAnnotation(true),
)
