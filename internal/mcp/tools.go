package mcp

import "github.com/mark3labs/mcp-go/mcp"

var addToolDef = mcp.NewTool("bookmark_add",
	mcp.WithDescription("Bookmark a GitHub repository. Accepts github.com/owner/repo with or without scheme, www or trailing path."),
	mcp.WithString("url",
		mcp.Required(),
		mcp.Description("Repository URL, e.g. https://github.com/golang/go"),
	),
	mcp.WithString("category",
		mcp.Description("Category label (default: uncategorized)"),
	),
	mcp.WithString("notes",
		mcp.Description("Free-form notes, markdown allowed"),
	),
)

var deleteToolDef = mcp.NewTool("bookmark_delete",
	mcp.WithDescription("Delete a bookmark by id. A missing id reports deleted=false."),
	mcp.WithDestructiveHintAnnotation(true),
	mcp.WithNumber("id",
		mcp.Required(),
		mcp.Description("Bookmark id"),
	),
)

var clearToolDef = mcp.NewTool("bookmark_clear",
	mcp.WithDescription("Delete every bookmark in the collection."),
	mcp.WithDestructiveHintAnnotation(true),
	mcp.WithBoolean("confirm",
		mcp.Required(),
		mcp.Description("Must be true"),
	),
)

var listToolDef = mcp.NewTool("bookmark_list",
	mcp.WithDescription("List bookmarks newest first, optionally filtered by a case-insensitive search over repo, owner and notes and an exact category."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithString("search",
		mcp.Description("Substring to match against repo, owner and notes"),
	),
	mcp.WithString("category",
		mcp.Description("Exact category to match"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Max items (default: 50, max: 500)"),
	),
	mcp.WithNumber("offset",
		mcp.Description("Items to skip (default: 0)"),
	),
)

var categoriesToolDef = mcp.NewTool("bookmark_categories",
	mcp.WithDescription("List the distinct categories in ascending order."),
	mcp.WithReadOnlyHintAnnotation(true),
)

var exportToolDef = mcp.NewTool("bookmark_export",
	mcp.WithDescription("Export the collection to a pretty-printed JSON file."),
	mcp.WithString("path",
		mcp.Description("Output .json path (default: <base>/exports/repovault-backup-<unix-ms>.json)"),
	),
)

var importToolDef = mcp.NewTool("bookmark_import",
	mcp.WithDescription("Merge bookmarks from a JSON export file. Entries whose url is already present are skipped."),
	mcp.WithString("path",
		mcp.Required(),
		mcp.Description("Path to a .json export"),
	),
)

var countToolDef = mcp.NewTool("bookmark_count",
	mcp.WithDescription("Return the number of persisted bookmarks."),
	mcp.WithReadOnlyHintAnnotation(true),
)
