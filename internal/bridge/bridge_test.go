package bridge

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/openseat/openseat/internal/settings"
	"github.com/openseat/openseat/internal/storage"
)

// --- mocks ---

type failingSettings struct {
	content settings.Content
	err     error // defaults to ErrWrite
	writes  int
}

func (f *failingSettings) Content() settings.Content { return f.content }

func (f *failingSettings) Write(settings.Content) error {
	f.writes++
	if f.err != nil {
		return f.err
	}
	return fmt.Errorf("%w: disk full", settings.ErrWrite)
}

// --- helpers ---

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func newTestDeps(t *testing.T) Deps {
	t.Helper()
	store, err := settings.Open(filepath.Join(t.TempDir(), "openseat", "config.json"))
	if err != nil {
		t.Fatalf("opening settings: %v", err)
	}
	return Deps{
		Settings: store,
		Locale:   func() string { return "de-DE" },
		Logger:   quietLogger,
	}
}

func newTestPlan(t *testing.T) *storage.Store {
	t.Helper()
	plan, err := storage.Create(filepath.Join(t.TempDir(), "plan.db"), "Gala", []storage.Floor{
		{Level: 1, Name: "Ground"},
	})
	if err != nil {
		t.Fatalf("creating plan: %v", err)
	}
	t.Cleanup(func() { plan.Close() })
	return plan
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("no content in result")
	}
	tc, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected TextContent, got %T", result.Content[0])
	}
	return tc.Text
}

func makeCallToolRequest(name string, args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func call(t *testing.T, h func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	result, err := h(context.Background(), makeCallToolRequest(name, args))
	if err != nil {
		t.Fatalf("%s: unexpected error: %v", name, err)
	}
	return result
}

// --- tests ---

func TestGetConfig_ReturnsDefaults(t *testing.T) {
	deps := newTestDeps(t)

	result := call(t, handleGetConfig(deps), "get_config", nil)
	if result.IsError {
		t.Fatalf("unexpected error: %s", resultText(t, result))
	}

	var got settings.Content
	if err := json.Unmarshal([]byte(resultText(t, result)), &got); err != nil {
		t.Fatalf("parsing response: %v", err)
	}
	if diff := cmp.Diff(settings.Default(), got); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestSaveConfig_PersistsAndRefreshesCache(t *testing.T) {
	deps := newTestDeps(t)

	result := call(t, handleSaveConfig(deps), "save_config", map[string]any{
		"content": map[string]any{"language": "de", "theme": "light"},
	})
	if result.IsError {
		t.Fatalf("unexpected error: %s", resultText(t, result))
	}
	if text := resultText(t, result); text != "true" {
		t.Fatalf("save_config = %s, want true", text)
	}

	result = call(t, handleGetConfig(deps), "get_config", nil)
	want := `{"version":1,"language":"de","theme":"light"}`
	if text := resultText(t, result); text != want {
		t.Errorf("get_config after save = %s, want %s", text, want)
	}

	reopened, err := settings.Open(deps.Settings.(*settings.Store).Path())
	if err != nil {
		t.Fatalf("reopening settings: %v", err)
	}
	if reopened.Content().Language != "de" {
		t.Errorf("settings file not updated: %+v", reopened.Content())
	}
}

func TestSaveConfig_KeepsExplicitVersion(t *testing.T) {
	deps := newTestDeps(t)

	call(t, handleSaveConfig(deps), "save_config", map[string]any{
		"content": map[string]any{"version": 0, "language": "en", "theme": "dark"},
	})

	if v := deps.Settings.Content().Version; v != 0 {
		t.Errorf("Version = %d, want 0", v)
	}
}

func TestSaveConfig_WriteFailureReturnsFalse(t *testing.T) {
	fake := &failingSettings{content: settings.Default()}
	deps := Deps{Settings: fake, Logger: quietLogger}

	result := call(t, handleSaveConfig(deps), "save_config", map[string]any{
		"content": map[string]any{"language": "de", "theme": "light"},
	})
	if result.IsError {
		t.Fatalf("write failure should not be a tool error: %s", resultText(t, result))
	}
	if text := resultText(t, result); text != "false" {
		t.Errorf("save_config = %s, want false", text)
	}
	if fake.writes != 1 {
		t.Errorf("writes = %d, want 1", fake.writes)
	}
}

func TestSaveConfig_WriteFailureDoesNotStop(t *testing.T) {
	var stopped error
	deps := Deps{
		Settings: &failingSettings{content: settings.Default()},
		Logger:   quietLogger,
		OnFatal:  func(err error) { stopped = err },
	}

	call(t, handleSaveConfig(deps), "save_config", map[string]any{
		"content": map[string]any{"language": "de", "theme": "light"},
	})
	if stopped != nil {
		t.Errorf("OnFatal called for a recoverable error: %v", stopped)
	}
}

func TestSaveConfig_FatalErrorStops(t *testing.T) {
	cases := map[string]error{
		"create dir": fmt.Errorf("%w: /nope", settings.ErrCreateDir),
		"encode":     fmt.Errorf("%w: bad value", settings.ErrEncode),
	}
	for name, writeErr := range cases {
		t.Run(name, func(t *testing.T) {
			var stopped error
			deps := Deps{
				Settings: &failingSettings{content: settings.Default(), err: writeErr},
				Logger:   quietLogger,
				OnFatal:  func(err error) { stopped = err },
			}

			result := call(t, handleSaveConfig(deps), "save_config", map[string]any{
				"content": map[string]any{"language": "de", "theme": "light"},
			})
			if !result.IsError {
				t.Errorf("expected tool error, got %s", resultText(t, result))
			}
			if !errors.Is(stopped, writeErr) {
				t.Errorf("OnFatal got %v, want %v", stopped, writeErr)
			}
		})
	}
}

func TestSaveConfig_DirectoryReplacedByFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "openseat")
	store, err := settings.Open(filepath.Join(dir, "config.json"))
	if err != nil {
		t.Fatalf("opening settings: %v", err)
	}
	if err := os.RemoveAll(dir); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(dir, []byte("not a directory"), 0o644); err != nil {
		t.Fatal(err)
	}

	var stopped error
	deps := Deps{Settings: store, Logger: quietLogger, OnFatal: func(err error) { stopped = err }}

	result := call(t, handleSaveConfig(deps), "save_config", map[string]any{
		"content": map[string]any{"language": "de", "theme": "light"},
	})
	if !result.IsError {
		t.Errorf("expected tool error, got %s", resultText(t, result))
	}
	if !errors.Is(stopped, settings.ErrCreateDir) {
		t.Errorf("OnFatal got %v, want ErrCreateDir", stopped)
	}
	if diff := cmp.Diff(settings.Default(), store.Content()); diff != "" {
		t.Errorf("cached content changed (-want +got):\n%s", diff)
	}
}

func TestSaveConfig_InvalidContent(t *testing.T) {
	deps := newTestDeps(t)

	cases := map[string]map[string]any{
		"missing content": {},
		"missing theme":   {"content": map[string]any{"language": "de"}},
		"wrong type":      {"content": map[string]any{"language": 5, "theme": "dark"}},
		"not an object":   {"content": "de"},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			result := call(t, handleSaveConfig(deps), "save_config", args)
			if !result.IsError {
				t.Fatalf("expected tool error, got %s", resultText(t, result))
			}
		})
	}

	if diff := cmp.Diff(settings.Default(), deps.Settings.Content()); diff != "" {
		t.Errorf("settings changed by invalid requests (-want +got):\n%s", diff)
	}
}

func TestGetDefaultLocale(t *testing.T) {
	deps := newTestDeps(t)

	result := call(t, handleGetDefaultLocale(deps), "get_default_locale", nil)
	if text := resultText(t, result); text != "de-DE" {
		t.Errorf("get_default_locale = %q, want %q", text, "de-DE")
	}
}

func TestConfigResource(t *testing.T) {
	deps := newTestDeps(t)

	req := mcp.ReadResourceRequest{Params: mcp.ReadResourceParams{URI: "openseat://config"}}
	contents, err := handleConfigResource(deps)(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(contents) != 1 {
		t.Fatalf("expected 1 resource content, got %d", len(contents))
	}
	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok {
		t.Fatalf("expected TextResourceContents, got %T", contents[0])
	}
	if tc.Text != `{"version":1,"language":"en","theme":"dark"}` {
		t.Errorf("resource text = %s", tc.Text)
	}
}

func TestNewServer_RegistersPlanToolsOnlyWithPlan(t *testing.T) {
	deps := newTestDeps(t)

	if s := NewServer(deps, "test"); s.GetTool("list_floors") != nil {
		t.Error("plan tools registered without a plan")
	}
	if s := NewServer(deps, "test"); s.GetTool("save_config") == nil {
		t.Error("save_config not registered")
	}

	deps.Plan = newTestPlan(t)
	s := NewServer(deps, "test")
	for _, name := range []string{"list_floors", "add_floor", "floor_image", "list_participants", "add_participant", "assign_seat", "list_assignments"} {
		if s.GetTool(name) == nil {
			t.Errorf("plan tool %s missing with a plan attached", name)
		}
	}
}

func TestPlanTools_SeatLifecycle(t *testing.T) {
	deps := newTestDeps(t)
	plan := newTestPlan(t)
	deps.Plan = plan

	result := call(t, handleListFloors(deps), "list_floors", nil)
	var floors []storage.Floor
	if err := json.Unmarshal([]byte(resultText(t, result)), &floors); err != nil {
		t.Fatalf("parsing floors: %v", err)
	}
	if len(floors) != 1 || floors[0].Name != "Ground" {
		t.Fatalf("unexpected floors: %+v", floors)
	}

	result = call(t, handleAddSeat(deps), "add_seat", map[string]any{
		"floor_id": float64(floors[0].ID),
		"name":     "Table 1",
		"capacity": 6,
		"lat1":     1.0,
		"lng2":     2.5,
	})
	if result.IsError {
		t.Fatalf("add_seat failed: %s", resultText(t, result))
	}
	var added map[string]int64
	if err := json.Unmarshal([]byte(resultText(t, result)), &added); err != nil {
		t.Fatalf("parsing add_seat: %v", err)
	}

	result = call(t, handleListSeats(deps), "list_seats", map[string]any{"floor_id": float64(floors[0].ID)})
	var seats []storage.Seat
	if err := json.Unmarshal([]byte(resultText(t, result)), &seats); err != nil {
		t.Fatalf("parsing seats: %v", err)
	}
	want := []storage.Seat{{ID: added["id"], Name: "Table 1", Capacity: 6, FloorID: floors[0].ID, Lat1: 1.0, Lng2: 2.5}}
	if diff := cmp.Diff(want, seats); diff != "" {
		t.Errorf("seats mismatch (-want +got):\n%s", diff)
	}

	result = call(t, handlePlanInfo(deps), "plan_info", nil)
	if text := resultText(t, result); text != `{"name":"Gala","seat_count":1}` {
		t.Errorf("plan_info = %s", text)
	}

	result = call(t, handleDeleteSeat(deps), "delete_seat", map[string]any{"id": float64(added["id"])})
	if result.IsError {
		t.Fatalf("delete_seat failed: %s", resultText(t, result))
	}

	result = call(t, handleDeleteSeat(deps), "delete_seat", map[string]any{"id": float64(added["id"])})
	if !result.IsError {
		t.Error("deleting a missing seat should be a tool error")
	}

	result = call(t, handleSeatCount(deps), "seat_count", nil)
	if text := resultText(t, result); text != "0" {
		t.Errorf("seat_count = %s, want 0", text)
	}
}

func TestPlanTools_AddSeatValidation(t *testing.T) {
	deps := newTestDeps(t)
	deps.Plan = newTestPlan(t)

	cases := map[string]map[string]any{
		"missing name":  {"floor_id": 1, "capacity": 2},
		"zero capacity": {"floor_id": 1, "name": "T", "capacity": 0},
		"unknown floor": {"floor_id": 999, "name": "T", "capacity": 2},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			result := call(t, handleAddSeat(deps), "add_seat", args)
			if !result.IsError {
				t.Fatalf("expected tool error, got %s", resultText(t, result))
			}
		})
	}
}

func TestPlanTools_FloorImage(t *testing.T) {
	deps := newTestDeps(t)
	deps.Plan = newTestPlan(t)

	img := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	encoded := base64.StdEncoding.EncodeToString(img)

	result := call(t, handleAddFloor(deps), "add_floor", map[string]any{
		"level": 2,
		"name":  "Balcony",
		"image": encoded,
	})
	if result.IsError {
		t.Fatalf("add_floor failed: %s", resultText(t, result))
	}
	var added map[string]int64
	if err := json.Unmarshal([]byte(resultText(t, result)), &added); err != nil {
		t.Fatalf("parsing add_floor: %v", err)
	}

	result = call(t, handleFloorImage(deps), "floor_image", map[string]any{"floor_id": float64(added["id"])})
	if result.IsError {
		t.Fatalf("floor_image failed: %s", resultText(t, result))
	}
	var image *mcp.ImageContent
	for _, c := range result.Content {
		if ic, ok := c.(mcp.ImageContent); ok {
			image = &ic
		}
	}
	if image == nil {
		t.Fatalf("no image content in %+v", result.Content)
	}
	if image.Data != encoded {
		t.Errorf("image data = %q, want %q", image.Data, encoded)
	}
	if image.MIMEType != "image/png" {
		t.Errorf("MIME type = %q, want image/png", image.MIMEType)
	}

	cases := map[string]map[string]any{
		"floor without image": {"floor_id": 1},
		"unknown floor":       {"floor_id": 999},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			if result := call(t, handleFloorImage(deps), "floor_image", args); !result.IsError {
				t.Errorf("expected tool error, got %s", resultText(t, result))
			}
		})
	}

	result = call(t, handleAddFloor(deps), "add_floor", map[string]any{"level": 3, "name": "Roof", "image": "%%%"})
	if !result.IsError {
		t.Error("invalid base64 should be a tool error")
	}
	result = call(t, handleAddFloor(deps), "add_floor", map[string]any{"level": 2, "name": "Again"})
	if !result.IsError {
		t.Error("duplicate level should be a tool error")
	}
}

func TestPlanTools_ParticipantsAndAssignments(t *testing.T) {
	deps := newTestDeps(t)
	plan := newTestPlan(t)
	deps.Plan = plan

	floors, err := plan.Floors()
	if err != nil {
		t.Fatalf("Floors: %v", err)
	}
	seatID, err := plan.AddSeat(storage.Seat{Name: "Table 1", Capacity: 4, FloorID: floors[0].ID})
	if err != nil {
		t.Fatalf("AddSeat: %v", err)
	}

	result := call(t, handleAddParticipant(deps), "add_participant", map[string]any{
		"first_name":   "Ada",
		"last_name":    "Lovelace",
		"guest_amount": 2,
	})
	if result.IsError {
		t.Fatalf("add_participant failed: %s", resultText(t, result))
	}
	var added map[string]int64
	if err := json.Unmarshal([]byte(resultText(t, result)), &added); err != nil {
		t.Fatalf("parsing add_participant: %v", err)
	}

	result = call(t, handleListParticipants(deps), "list_participants", nil)
	var participants []storage.Participant
	if err := json.Unmarshal([]byte(resultText(t, result)), &participants); err != nil {
		t.Fatalf("parsing participants: %v", err)
	}
	wantParticipants := []storage.Participant{{ID: added["id"], FirstName: "Ada", LastName: "Lovelace", GuestAmount: 2}}
	if diff := cmp.Diff(wantParticipants, participants); diff != "" {
		t.Errorf("participants mismatch (-want +got):\n%s", diff)
	}

	result = call(t, handleAssignSeat(deps), "assign_seat", map[string]any{
		"participant_id": float64(added["id"]),
		"seat_id":        float64(seatID),
	})
	if result.IsError {
		t.Fatalf("assign_seat failed: %s", resultText(t, result))
	}

	result = call(t, handleListAssignments(deps), "list_assignments", nil)
	var assignments []storage.Assignment
	if err := json.Unmarshal([]byte(resultText(t, result)), &assignments); err != nil {
		t.Fatalf("parsing assignments: %v", err)
	}
	if diff := cmp.Diff([]storage.Assignment{{ParticipantID: added["id"], SeatID: seatID}}, assignments); diff != "" {
		t.Errorf("assignments mismatch (-want +got):\n%s", diff)
	}

	result = call(t, handleAssignSeat(deps), "assign_seat", map[string]any{
		"participant_id": float64(added["id"]),
		"seat_id":        float64(999),
	})
	if !result.IsError {
		t.Error("assigning to an unknown seat should be a tool error")
	}

	result = call(t, handleAddParticipant(deps), "add_participant", map[string]any{"guest_amount": 1})
	if !result.IsError {
		t.Error("participant without a name should be a tool error")
	}
}
