package bridge

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/openseat/openseat/internal/storage"
)

func addPlanTools(s *server.MCPServer, deps Deps) {
	s.AddTool(
		mcp.NewTool("plan_info",
			mcp.WithDescription("Return the open seat plan's name and seat count."),
		),
		handlePlanInfo(deps),
	)

	s.AddTool(
		mcp.NewTool("list_floors",
			mcp.WithDescription("List the plan's floors ordered by level."),
		),
		handleListFloors(deps),
	)

	s.AddTool(
		mcp.NewTool("list_seats",
			mcp.WithDescription("List the seats on one floor."),
			mcp.WithNumber("floor_id", mcp.Description("Floor ID"), mcp.Required()),
		),
		handleListSeats(deps),
	)

	s.AddTool(
		mcp.NewTool("add_seat",
			mcp.WithDescription("Add a seat to a floor. Returns the new seat ID."),
			mcp.WithNumber("floor_id", mcp.Description("Floor ID"), mcp.Required()),
			mcp.WithString("name", mcp.Description("Seat or table name"), mcp.Required()),
			mcp.WithNumber("capacity", mcp.Description("Number of people the seat holds"), mcp.Required()),
			mcp.WithNumber("lat1", mcp.Description("First corner latitude")),
			mcp.WithNumber("lng1", mcp.Description("First corner longitude")),
			mcp.WithNumber("lat2", mcp.Description("Second corner latitude")),
			mcp.WithNumber("lng2", mcp.Description("Second corner longitude")),
		),
		handleAddSeat(deps),
	)

	s.AddTool(
		mcp.NewTool("delete_seat",
			mcp.WithDescription("Delete a seat and its assignments."),
			mcp.WithNumber("id", mcp.Description("Seat ID"), mcp.Required()),
		),
		handleDeleteSeat(deps),
	)

	s.AddTool(
		mcp.NewTool("seat_count",
			mcp.WithDescription("Count all seats in the plan."),
		),
		handleSeatCount(deps),
	)

	s.AddTool(
		mcp.NewTool("add_floor",
			mcp.WithDescription("Add a floor to the plan. Returns the new floor ID."),
			mcp.WithNumber("level", mcp.Description("Floor level, unique within the plan"), mcp.Required()),
			mcp.WithString("name", mcp.Description("Floor name"), mcp.Required()),
			mcp.WithString("image", mcp.Description("Base64-encoded floor plan image")),
		),
		handleAddFloor(deps),
	)

	s.AddTool(
		mcp.NewTool("floor_image",
			mcp.WithDescription("Return a floor's plan image."),
			mcp.WithNumber("floor_id", mcp.Description("Floor ID"), mcp.Required()),
		),
		handleFloorImage(deps),
	)

	s.AddTool(
		mcp.NewTool("list_participants",
			mcp.WithDescription("List participants ordered by last name."),
		),
		handleListParticipants(deps),
	)

	s.AddTool(
		mcp.NewTool("add_participant",
			mcp.WithDescription("Add a participant to the guest list. Returns the new participant ID."),
			mcp.WithString("first_name", mcp.Description("First name")),
			mcp.WithString("last_name", mcp.Description("Last name")),
			mcp.WithNumber("guest_amount", mcp.Description("Number of accompanying guests")),
		),
		handleAddParticipant(deps),
	)

	s.AddTool(
		mcp.NewTool("assign_seat",
			mcp.WithDescription("Assign a participant to a seat."),
			mcp.WithNumber("participant_id", mcp.Description("Participant ID"), mcp.Required()),
			mcp.WithNumber("seat_id", mcp.Description("Seat ID"), mcp.Required()),
		),
		handleAssignSeat(deps),
	)

	s.AddTool(
		mcp.NewTool("list_assignments",
			mcp.WithDescription("List all seat assignments."),
		),
		handleListAssignments(deps),
	)
}

func handlePlanInfo(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, err := deps.Plan.Name()
		if err != nil {
			return toolError(fmt.Sprintf("failed to read plan name: %v", err)), nil
		}
		count, err := deps.Plan.SeatCount()
		if err != nil {
			return toolError(fmt.Sprintf("failed to count seats: %v", err)), nil
		}
		return toolJSON(map[string]any{"name": name, "seat_count": count})
	}
}

func handleListFloors(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		floors, err := deps.Plan.Floors()
		if err != nil {
			return toolError(fmt.Sprintf("failed to list floors: %v", err)), nil
		}
		if floors == nil {
			floors = []storage.Floor{}
		}
		return toolJSON(floors)
	}
}

func handleListSeats(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		floorID, err := req.RequireInt("floor_id")
		if err != nil {
			return toolError("floor_id is required"), nil
		}

		seats, err := deps.Plan.Seats(int64(floorID))
		if err != nil {
			return toolError(fmt.Sprintf("failed to list seats: %v", err)), nil
		}
		if seats == nil {
			seats = []storage.Seat{}
		}
		return toolJSON(seats)
	}
}

func handleAddSeat(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		floorID, err := req.RequireInt("floor_id")
		if err != nil {
			return toolError("floor_id is required"), nil
		}
		name, err := req.RequireString("name")
		if err != nil {
			return toolError("name is required"), nil
		}
		capacity, err := req.RequireInt("capacity")
		if err != nil {
			return toolError("capacity is required"), nil
		}
		if capacity < 1 {
			return toolError("capacity must be at least 1"), nil
		}

		seat := storage.Seat{
			Name:     name,
			Capacity: capacity,
			FloorID:  int64(floorID),
			Lat1:     req.GetFloat("lat1", 0),
			Lat2:     req.GetFloat("lat2", 0),
			Lng1:     req.GetFloat("lng1", 0),
			Lng2:     req.GetFloat("lng2", 0),
		}
		id, err := deps.Plan.AddSeat(seat)
		if err != nil {
			deps.logger().Error("adding seat failed", "seat", name, "error", err)
			return toolError(fmt.Sprintf("failed to add seat: %v", err)), nil
		}
		return toolJSON(map[string]int64{"id": id})
	}
}

func handleDeleteSeat(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireInt("id")
		if err != nil {
			return toolError("id is required"), nil
		}

		if err := deps.Plan.DeleteSeat(int64(id)); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return toolError(fmt.Sprintf("seat %d not found", id)), nil
			}
			return toolError(fmt.Sprintf("failed to delete seat: %v", err)), nil
		}
		return toolText(fmt.Sprintf("Deleted seat %d", id)), nil
	}
}

func handleSeatCount(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		n, err := deps.Plan.SeatCount()
		if err != nil {
			return toolError(fmt.Sprintf("failed to count seats: %v", err)), nil
		}
		return toolJSON(n)
	}
}

func handleAddFloor(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		level, err := req.RequireInt("level")
		if err != nil {
			return toolError("level is required"), nil
		}
		name, err := req.RequireString("name")
		if err != nil || name == "" {
			return toolError("name is required"), nil
		}

		f := storage.Floor{Level: level, Name: name}
		if encoded := req.GetString("image", ""); encoded != "" {
			f.Image, err = base64.StdEncoding.DecodeString(encoded)
			if err != nil {
				return toolError(fmt.Sprintf("image is not valid base64: %v", err)), nil
			}
		}

		id, err := deps.Plan.AddFloor(f)
		if err != nil {
			deps.logger().Error("adding floor failed", "floor", name, "level", level, "error", err)
			return toolError(fmt.Sprintf("failed to add floor: %v", err)), nil
		}
		return toolJSON(map[string]int64{"id": id})
	}
}

func handleFloorImage(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireInt("floor_id")
		if err != nil {
			return toolError("floor_id is required"), nil
		}

		img, err := deps.Plan.FloorImage(int64(id))
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return toolError(fmt.Sprintf("floor %d not found", id)), nil
			}
			return toolError(fmt.Sprintf("failed to load floor image: %v", err)), nil
		}
		if len(img) == 0 {
			return toolError(fmt.Sprintf("floor %d has no image", id)), nil
		}

		return mcp.NewToolResultImage(
			fmt.Sprintf("Floor %d", id),
			base64.StdEncoding.EncodeToString(img),
			http.DetectContentType(img),
		), nil
	}
}

func handleListParticipants(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		participants, err := deps.Plan.Participants()
		if err != nil {
			return toolError(fmt.Sprintf("failed to list participants: %v", err)), nil
		}
		if participants == nil {
			participants = []storage.Participant{}
		}
		return toolJSON(participants)
	}
}

func handleAddParticipant(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		p := storage.Participant{
			FirstName:   req.GetString("first_name", ""),
			LastName:    req.GetString("last_name", ""),
			GuestAmount: req.GetInt("guest_amount", 0),
		}
		if p.FirstName == "" && p.LastName == "" {
			return toolError("first_name or last_name is required"), nil
		}
		if p.GuestAmount < 0 {
			return toolError("guest_amount must not be negative"), nil
		}

		id, err := deps.Plan.AddParticipant(p)
		if err != nil {
			return toolError(fmt.Sprintf("failed to add participant: %v", err)), nil
		}
		return toolJSON(map[string]int64{"id": id})
	}
}

func handleAssignSeat(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		participantID, err := req.RequireInt("participant_id")
		if err != nil {
			return toolError("participant_id is required"), nil
		}
		seatID, err := req.RequireInt("seat_id")
		if err != nil {
			return toolError("seat_id is required"), nil
		}

		if err := deps.Plan.AssignSeat(int64(participantID), int64(seatID)); err != nil {
			return toolError(fmt.Sprintf("failed to assign seat: %v", err)), nil
		}
		return toolText(fmt.Sprintf("Assigned participant %d to seat %d", participantID, seatID)), nil
	}
}

func handleListAssignments(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		assignments, err := deps.Plan.Assignments()
		if err != nil {
			return toolError(fmt.Sprintf("failed to list assignments: %v", err)), nil
		}
		if assignments == nil {
			assignments = []storage.Assignment{}
		}
		return toolJSON(assignments)
	}
}

func toolJSON(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return toolError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return toolText(string(b)), nil
}
