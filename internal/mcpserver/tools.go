package mcpserver

import "github.com/mark3labs/mcp-go/mcp"

// Tool definitions for the IPSentry MCP server.
// Descriptions are what the LLM reads to decide which tool to use.

var ToolTrackIP = mcp.NewTool("track_ip",
	mcp.WithDescription(
		"Evaluate an IP address for risk. Enriches the IP with geolocation and "+
			"fraud signals (VPN, Tor, abuse history, bot activity), scores it, and "+
			"returns a Safe or Suspicious verdict. The evaluation is also recorded "+
			"in the tracking history."),
	mcp.WithString("ip",
		mcp.Required(),
		mcp.Description("The IP address to evaluate (IPv4 or IPv6, e.g. '8.8.8.8')")),
)

var ToolListRecords = mcp.NewTool("list_records",
	mcp.WithDescription(
		"List previously tracked IP records, newest first. "+
			"Each record includes geolocation, fraud signals, and the verdict."),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of records to return (default 20)")),
)

var ToolGetStats = mcp.NewTool("get_stats",
	mcp.WithDescription(
		"Get aggregate tracking statistics: how many IPs have been evaluated "+
			"and the split between Safe and Suspicious verdicts."),
)
