package api

import (
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/cyberkunju/NREGA-sub000/pkg/kit"
)

// NewMCPServer returns an MCP server exposing the lookup tools.
func NewMCPServer(svc *Service, version string) *server.MCPServer {
	srv := server.NewMCPServer("districtmap", version, server.WithToolCapabilities(false))
	RegisterMCPTools(srv, svc)
	return srv
}

// RegisterMCPTools registers the three lookup tools on the server.
func RegisterMCPTools(srv *server.MCPServer, svc *Service) {
	kit.RegisterMCPTool(srv,
		mcp.NewTool("lookup_district",
			mcp.WithDescription("Resolve a (state, district) pair from the statistics provider to its boundary id using the current mapping artifact. Returns the mapping, or the exclusion reason when the district has no boundary."),
			mcp.WithString("state", mcp.Required(), mcp.Description("State name as reported, e.g. Odisha")),
			mcp.WithString("district", mcp.Required(), mcp.Description("District name as reported, e.g. Baleshwar")),
		),
		svc.lookup,
		func(req mcp.CallToolRequest) (any, error) {
			args := req.GetArguments()
			state, _ := args["state"].(string)
			district, _ := args["district"].(string)
			return &lookupReq{State: strings.TrimSpace(state), District: strings.TrimSpace(district)}, nil
		})

	kit.RegisterMCPTool(srv,
		mcp.NewTool("artifact_summary",
			mcp.WithDescription("Coverage statistics of the current mapping artifact (mapped, excluded, collisions, per-method counts)."),
		),
		svc.summary, noArgs)

	kit.RegisterMCPTool(srv,
		mcp.NewTool("list_collisions",
			mcp.WithDescription("Boundary ids claimed by more than one source district, with the contributing keys. These mappings are provisional."),
		),
		svc.collisions, noArgs)
}

func noArgs(mcp.CallToolRequest) (any, error) { return nil, nil }
