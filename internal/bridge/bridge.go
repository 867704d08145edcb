// Package bridge exposes openseat's boundary operations to the GUI host as
// tool calls on an MCP server. The host spawns `openseat serve` and talks to
// it over stdio.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/openseat/openseat/internal/settings"
	"github.com/openseat/openseat/internal/storage"
)

// SettingsStore is the part of settings.Store the bridge needs.
type SettingsStore interface {
	Content() settings.Content
	Write(content settings.Content) error
}

// PlanStore is the part of storage.Store the plan tools need.
type PlanStore interface {
	Name() (string, error)
	Floors() ([]storage.Floor, error)
	Seats(floorID int64) ([]storage.Seat, error)
	AddSeat(seat storage.Seat) (int64, error)
	DeleteSeat(id int64) error
	SeatCount() (int, error)
	FloorImage(id int64) ([]byte, error)
	AddFloor(f storage.Floor) (int64, error)
	Participants() ([]storage.Participant, error)
	AddParticipant(p storage.Participant) (int64, error)
	AssignSeat(participantID, seatID int64) error
	Assignments() ([]storage.Assignment, error)
}

// Deps holds dependencies for the bridge server.
type Deps struct {
	Settings SettingsStore
	Locale   func() string
	Plan     PlanStore    // optional; plan tools are only registered when set
	Logger   *slog.Logger // optional; defaults to slog.Default()

	// OnFatal is called when a save fails with an error outside the
	// recoverable write class. serve uses it to shut down.
	OnFatal func(error)
}

func (d Deps) logger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}

// NewServer creates an MCP server with the openseat commands registered.
func NewServer(deps Deps, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"openseat",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("get_config",
			mcp.WithDescription("Return the current user settings."),
		),
		handleGetConfig(deps),
	)

	s.AddTool(
		mcp.NewTool("save_config",
			mcp.WithDescription("Persist user settings. Returns true when the settings file was written."),
			mcp.WithObject("content",
				mcp.Description("Settings object with language, theme and optional version"),
				mcp.Required(),
			),
		),
		handleSaveConfig(deps),
	)

	s.AddTool(
		mcp.NewTool("get_default_locale",
			mcp.WithDescription("Return the operating system locale as a BCP 47 tag, or \"en\"."),
		),
		handleGetDefaultLocale(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"openseat://config",
			"User Settings",
			mcp.WithResourceDescription("Current user settings as JSON"),
			mcp.WithMIMEType("application/json"),
		),
		handleConfigResource(deps),
	)

	if deps.Plan != nil {
		addPlanTools(s, deps)
	}

	return s
}

func handleGetConfig(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		b, err := json.Marshal(deps.Settings.Content())
		if err != nil {
			return toolError(fmt.Sprintf("failed to marshal settings: %v", err)), nil
		}
		return toolText(string(b)), nil
	}
}

// saveRequest is the content argument of save_config. The GUI does not
// always send a version, so it defaults to the current one.
type saveRequest struct {
	Version  *uint16 `json:"version"`
	Language *string `json:"language"`
	Theme    *string `json:"theme"`
}

func parseContent(arg any) (settings.Content, error) {
	if arg == nil {
		return settings.Content{}, errors.New("content is required")
	}

	b, err := json.Marshal(arg)
	if err != nil {
		return settings.Content{}, err
	}
	var req saveRequest
	if err := json.Unmarshal(b, &req); err != nil {
		return settings.Content{}, fmt.Errorf("invalid content: %v", err)
	}
	if req.Language == nil || req.Theme == nil {
		return settings.Content{}, errors.New("content needs language and theme")
	}

	c := settings.Content{
		Version:  settings.CurrentVersion,
		Language: *req.Language,
		Theme:    *req.Theme,
	}
	if req.Version != nil {
		c.Version = *req.Version
	}
	return c, nil
}

func handleSaveConfig(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		content, err := parseContent(req.GetArguments()["content"])
		if err != nil {
			return toolError(err.Error()), nil
		}

		err = deps.Settings.Write(content)
		switch {
		case err == nil:
			return toolText("true"), nil
		case settings.IsFatal(err):
			deps.logger().Error("settings store failed", "error", err)
			if deps.OnFatal != nil {
				deps.OnFatal(err)
			}
			return toolError(fmt.Sprintf("settings store failed: %v", err)), nil
		default:
			deps.logger().Error("saving settings failed", "error", err)
			return toolText("false"), nil
		}
	}
}

func handleGetDefaultLocale(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return toolText(deps.Locale()), nil
	}
}

func handleConfigResource(deps Deps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		b, err := json.Marshal(deps.Settings.Content())
		if err != nil {
			return nil, fmt.Errorf("failed to marshal settings: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func toolText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func toolError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
