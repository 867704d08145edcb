package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/openseat/openseat/internal/config"
	"github.com/openseat/openseat/internal/locale"
	"github.com/openseat/openseat/internal/settings"
	"github.com/openseat/openseat/internal/storage"
)

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update user settings",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current user settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, store, err := loadSettings()
		if err != nil {
			return err
		}

		c := store.Content()
		w := cmd.OutOrStdout()
		printStatus(w, "version", "%d", c.Version)
		printStatus(w, "language", "%s", c.Language)
		printStatus(w, "theme", "%s", c.Theme)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:       "set <language|theme> <value>",
	Short:     "Set a user setting",
	Args:      cobra.ExactArgs(2),
	ValidArgs: []string{"language", "theme"},
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		_, store, err := loadSettings()
		if err != nil {
			return err
		}

		c := store.Content()
		switch key {
		case "language":
			c.Language = value
		case "theme":
			c.Theme = value
		default:
			return fmt.Errorf("unknown setting %q (want language or theme)", key)
		}

		if err := store.Write(c); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the settings file location",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), cfg.SettingsPath())
		return nil
	},
}

var configEnvCmd = &cobra.Command{
	Use:   "env",
	Short: "Show runtime configuration and its environment variables",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		for _, k := range config.ShowAll(cfg) {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s = %s (%s)\n", colorize(boldColor, k.Key), k.Value, k.EnvVar)
		}
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configEnvCmd)
}

// --- locale ---

var localeCmd = &cobra.Command{
	Use:   "locale",
	Short: "Print the detected system locale",
	RunE: func(cmd *cobra.Command, args []string) error {
		supported, _ := cmd.Flags().GetStringSlice("supported")

		tag := locale.Default()
		w := cmd.OutOrStdout()
		printStatus(w, "System locale", "%s", tag)
		if len(supported) > 0 {
			printStatus(w, "UI language", "%s", locale.Match(tag, supported))
		}
		return nil
	},
}

func init() {
	localeCmd.Flags().StringSlice("supported", []string{"en", "de"}, "UI languages to match the locale against")
}

// --- plan ---

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Create and inspect seat plan files",
}

var planCreateCmd = &cobra.Command{
	Use:   "create <file>",
	Short: "Create a new seat plan",
	Long: `Create a new seat plan.

Examples:
  openseat plan create gala.seats --name "Gala 2024" --floor 1:Ground:ground.png
  openseat plan create hall.seats --name Hall --floor 1:Main --floor 2:Balcony`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		floorSpecs, _ := cmd.Flags().GetStringArray("floor")

		if strings.TrimSpace(name) == "" && len(floorSpecs) == 0 {
			return errors.New("--name or at least one --floor is required")
		}

		floors := make([]storage.Floor, 0, len(floorSpecs))
		for _, spec := range floorSpecs {
			f, err := parseFloorSpec(spec)
			if err != nil {
				return err
			}
			floors = append(floors, f)
		}

		plan, err := storage.Create(args[0], name, floors)
		if err != nil {
			return err
		}
		defer plan.Close()

		imported, err := plan.Floors()
		if err != nil {
			return err
		}
		if len(imported) < len(floors) {
			printWarning("Imported %d of %d floors", len(imported), len(floors))
		}

		printSuccess("Created plan %s", args[0])
		return nil
	},
}

// parseFloorSpec parses "level:name[:image]" where image is a path to the
// floor plan picture.
func parseFloorSpec(spec string) (storage.Floor, error) {
	parts := strings.SplitN(spec, ":", 3)
	if len(parts) < 2 || parts[1] == "" {
		return storage.Floor{}, fmt.Errorf("invalid floor %q (want level:name[:image])", spec)
	}

	level, err := strconv.Atoi(parts[0])
	if err != nil {
		return storage.Floor{}, fmt.Errorf("invalid floor level in %q: %w", spec, err)
	}

	f := storage.Floor{Level: level, Name: parts[1]}
	if len(parts) == 3 && parts[2] != "" {
		img, err := os.ReadFile(parts[2])
		if err != nil {
			return storage.Floor{}, fmt.Errorf("reading floor image: %w", err)
		}
		f.Image = img
	}
	return f, nil
}

var planInfoCmd = &cobra.Command{
	Use:   "info <file>",
	Short: "Show plan name, schema version and seat count",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		plan, err := storage.Open(args[0])
		if err != nil {
			return err
		}
		defer plan.Close()

		name, err := plan.Name()
		if err != nil {
			return err
		}
		version, err := plan.Info(storage.InfoVersion)
		if err != nil {
			return err
		}
		seats, err := plan.SeatCount()
		if err != nil {
			return err
		}
		floors, err := plan.Floors()
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		printStatus(w, "Name", "%s", name)
		printStatus(w, "Schema version", "%s", version)
		printStatus(w, "Floors", "%d", len(floors))
		printStatus(w, "Seats", "%d", seats)
		return nil
	},
}

var planFloorsCmd = &cobra.Command{
	Use:   "floors <file>",
	Short: "List floors as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		plan, err := storage.Open(args[0])
		if err != nil {
			return err
		}
		defer plan.Close()

		floors, err := plan.Floors()
		if err != nil {
			return err
		}
		if floors == nil {
			floors = []storage.Floor{}
		}
		return writeJSON(cmd, floors)
	},
}

var planSeatsCmd = &cobra.Command{
	Use:   "seats <file> <floor-id>",
	Short: "List the seats on a floor as JSON",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		floorID, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid floor id: %w", err)
		}

		plan, err := storage.Open(args[0])
		if err != nil {
			return err
		}
		defer plan.Close()

		seats, err := plan.Seats(floorID)
		if err != nil {
			return err
		}
		if seats == nil {
			seats = []storage.Seat{}
		}
		return writeJSON(cmd, seats)
	},
}

var planAddSeatCmd = &cobra.Command{
	Use:   "add-seat <file>",
	Short: "Add a seat to a floor",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		floorID, _ := cmd.Flags().GetInt64("floor")
		name, _ := cmd.Flags().GetString("name")
		capacity, _ := cmd.Flags().GetInt("capacity")
		lat1, _ := cmd.Flags().GetFloat64("lat1")
		lat2, _ := cmd.Flags().GetFloat64("lat2")
		lng1, _ := cmd.Flags().GetFloat64("lng1")
		lng2, _ := cmd.Flags().GetFloat64("lng2")

		if name == "" {
			return errors.New("--name is required")
		}
		if capacity < 1 {
			return errors.New("--capacity must be at least 1")
		}

		plan, err := storage.Open(args[0])
		if err != nil {
			return err
		}
		defer plan.Close()

		id, err := plan.AddSeat(storage.Seat{
			Name: name, Capacity: capacity, FloorID: floorID,
			Lat1: lat1, Lat2: lat2, Lng1: lng1, Lng2: lng2,
		})
		if err != nil {
			return fmt.Errorf("adding seat: %w", err)
		}

		printSuccess("Added seat %s (id %d)", name, id)
		return nil
	},
}

var planDeleteSeatCmd = &cobra.Command{
	Use:   "delete-seat <file> <seat-id>",
	Short: "Delete a seat and its assignments",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid seat id: %w", err)
		}

		plan, err := storage.Open(args[0])
		if err != nil {
			return err
		}
		defer plan.Close()

		if err := plan.DeleteSeat(id); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return fmt.Errorf("seat %d not found", id)
			}
			return err
		}

		printSuccess("Deleted seat %d", id)
		return nil
	},
}

var planAddFloorCmd = &cobra.Command{
	Use:   "add-floor <file> <level:name[:image]>",
	Short: "Add a floor to an existing plan",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := parseFloorSpec(args[1])
		if err != nil {
			return err
		}

		plan, err := storage.Open(args[0])
		if err != nil {
			return err
		}
		defer plan.Close()

		id, err := plan.AddFloor(f)
		if err != nil {
			return fmt.Errorf("adding floor: %w", err)
		}

		printSuccess("Added floor %s (id %d)", f.Name, id)
		return nil
	},
}

var planFloorImageCmd = &cobra.Command{
	Use:   "floor-image <file> <floor-id>",
	Short: "Export a floor plan image",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		floorID, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid floor id: %w", err)
		}
		outPath, _ := cmd.Flags().GetString("out")
		if outPath == "" {
			return errors.New("--out is required")
		}

		plan, err := storage.Open(args[0])
		if err != nil {
			return err
		}
		defer plan.Close()

		img, err := plan.FloorImage(floorID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return fmt.Errorf("floor %d not found", floorID)
			}
			return err
		}
		if len(img) == 0 {
			printWarning("Floor %d has no image", floorID)
			return nil
		}
		if err := os.WriteFile(outPath, img, 0o644); err != nil {
			return fmt.Errorf("writing image: %w", err)
		}

		printSuccess("Wrote %s (%d bytes)", outPath, len(img))
		return nil
	},
}

var planParticipantsCmd = &cobra.Command{
	Use:   "participants <file>",
	Short: "List participants as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		plan, err := storage.Open(args[0])
		if err != nil {
			return err
		}
		defer plan.Close()

		participants, err := plan.Participants()
		if err != nil {
			return err
		}
		if participants == nil {
			participants = []storage.Participant{}
		}
		return writeJSON(cmd, participants)
	},
}

var planAddParticipantCmd = &cobra.Command{
	Use:   "add-participant <file>",
	Short: "Add a participant to the guest list",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		first, _ := cmd.Flags().GetString("first")
		last, _ := cmd.Flags().GetString("last")
		guests, _ := cmd.Flags().GetInt("guests")

		if first == "" && last == "" {
			return errors.New("--first or --last is required")
		}
		if guests < 0 {
			return errors.New("--guests must not be negative")
		}

		plan, err := storage.Open(args[0])
		if err != nil {
			return err
		}
		defer plan.Close()

		id, err := plan.AddParticipant(storage.Participant{FirstName: first, LastName: last, GuestAmount: guests})
		if err != nil {
			return fmt.Errorf("adding participant: %w", err)
		}

		printSuccess("Added participant %s %s (id %d)", first, last, id)
		return nil
	},
}

var planAssignCmd = &cobra.Command{
	Use:   "assign <file> <participant-id> <seat-id>",
	Short: "Assign a participant to a seat",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		participantID, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid participant id: %w", err)
		}
		seatID, err := strconv.ParseInt(args[2], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid seat id: %w", err)
		}

		plan, err := storage.Open(args[0])
		if err != nil {
			return err
		}
		defer plan.Close()

		if err := plan.AssignSeat(participantID, seatID); err != nil {
			return fmt.Errorf("assigning seat: %w", err)
		}

		printSuccess("Assigned participant %d to seat %d", participantID, seatID)
		return nil
	},
}

var planAssignmentsCmd = &cobra.Command{
	Use:   "assignments <file>",
	Short: "List seat assignments as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		plan, err := storage.Open(args[0])
		if err != nil {
			return err
		}
		defer plan.Close()

		assignments, err := plan.Assignments()
		if err != nil {
			return err
		}
		if assignments == nil {
			assignments = []storage.Assignment{}
		}
		return writeJSON(cmd, assignments)
	},
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	planCreateCmd.Flags().String("name", "", "plan name")
	planCreateCmd.Flags().StringArray("floor", nil, "floor as level:name[:image], repeatable")

	planAddSeatCmd.Flags().Int64("floor", 0, "floor id")
	planAddSeatCmd.Flags().String("name", "", "seat or table name")
	planAddSeatCmd.Flags().Int("capacity", 1, "number of people")
	planAddSeatCmd.Flags().Float64("lat1", 0, "first corner latitude")
	planAddSeatCmd.Flags().Float64("lat2", 0, "second corner latitude")
	planAddSeatCmd.Flags().Float64("lng1", 0, "first corner longitude")
	planAddSeatCmd.Flags().Float64("lng2", 0, "second corner longitude")

	planFloorImageCmd.Flags().String("out", "", "file to write the image to")

	planAddParticipantCmd.Flags().String("first", "", "first name")
	planAddParticipantCmd.Flags().String("last", "", "last name")
	planAddParticipantCmd.Flags().Int("guests", 0, "number of accompanying guests")

	planCmd.AddCommand(planCreateCmd)
	planCmd.AddCommand(planInfoCmd)
	planCmd.AddCommand(planFloorsCmd)
	planCmd.AddCommand(planSeatsCmd)
	planCmd.AddCommand(planAddSeatCmd)
	planCmd.AddCommand(planDeleteSeatCmd)
	planCmd.AddCommand(planAddFloorCmd)
	planCmd.AddCommand(planFloorImageCmd)
	planCmd.AddCommand(planParticipantsCmd)
	planCmd.AddCommand(planAddParticipantCmd)
	planCmd.AddCommand(planAssignCmd)
	planCmd.AddCommand(planAssignmentsCmd)
}

// settingsFailureHint turns a startup settings error into advice for the user.
func settingsFailureHint(err error) string {
	switch {
	case errors.Is(err, settings.ErrUnsupportedVersion):
		return "the settings file was written by a newer openseat; upgrade or remove it"
	case errors.Is(err, settings.ErrMalformed):
		return "fix or delete the settings file to recreate defaults"
	case errors.Is(err, settings.ErrUnreadable):
		return "check the settings file permissions"
	case errors.Is(err, settings.ErrCreateDir):
		return "make sure the settings directory path is not blocked by a file"
	default:
		return ""
	}
}
