package mcp

import (
	"context"
	"errors"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/sproutapp/sprout/internal/model"
	"github.com/sproutapp/sprout/internal/service"
	"github.com/sproutapp/sprout/internal/store"
)

// registerTools registers the fixed plant-care tool catalogue.
func (s *MCPServer) registerTools(srv *server.MCPServer) {

	// ----- Plants -----

	srv.AddTool(
		mcp.NewTool("add_plant",
			mcp.WithDescription(
				"Add a new plant to your collection. Returns the new plant's id.",
			),
			mcp.WithToolAnnotation(mutatingAnnotation()),
			mcp.WithString("name",
				mcp.Required(),
				mcp.Description("Display name of the plant (e.g. \"Monstera\")"),
			),
			mcp.WithNumber("watering_frequency_days",
				mcp.Required(),
				mcp.Description("How often the plant should be watered, in days (positive integer)"),
			),
			mcp.WithString("species",
				mcp.Description("Botanical or common species name"),
			),
			mcp.WithString("location",
				mcp.Description("Where the plant lives (e.g. \"Kitchen\")"),
			),
			mcp.WithString("acquired_date",
				mcp.Description("Date the plant was acquired, YYYY-MM-DD"),
			),
			mcp.WithString("notes",
				mcp.Description("Free-text notes"),
			),
		),
		s.handleAddPlant,
	)

	srv.AddTool(
		mcp.NewTool("list_plants",
			mcp.WithDescription(
				"List your plants, ordered by name. Optionally narrow by exact "+
					"location and/or species.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithString("location",
				mcp.Description("Only plants in this exact location"),
			),
			mcp.WithString("species",
				mcp.Description("Only plants of this exact species"),
			),
		),
		s.handleListPlants,
	)

	srv.AddTool(
		mcp.NewTool("get_plant",
			mcp.WithDescription("Get one plant by id."),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithString("plant_id",
				mcp.Required(),
				mcp.Description("Id of the plant"),
			),
		),
		s.handleGetPlant,
	)

	srv.AddTool(
		mcp.NewTool("update_plant",
			mcp.WithDescription(
				"Update fields of a plant. Only the fields you pass are changed; "+
					"omitted fields keep their current value.",
			),
			mcp.WithToolAnnotation(mutatingAnnotation()),
			mcp.WithString("plant_id",
				mcp.Required(),
				mcp.Description("Id of the plant to update"),
			),
			mcp.WithString("name", mcp.Description("New display name")),
			mcp.WithString("species", mcp.Description("New species")),
			mcp.WithString("location", mcp.Description("New location")),
			mcp.WithString("acquired_date", mcp.Description("New acquisition date, YYYY-MM-DD")),
			mcp.WithNumber("watering_frequency_days", mcp.Description("New watering frequency in days")),
			mcp.WithString("notes", mcp.Description("New notes")),
		),
		s.handleUpdatePlant,
	)

	srv.AddTool(
		mcp.NewTool("delete_plant",
			mcp.WithDescription(
				"Delete a plant. Its watering history, growth logs, and image "+
					"references are removed with it.",
			),
			mcp.WithToolAnnotation(mutatingAnnotation()),
			mcp.WithString("plant_id",
				mcp.Required(),
				mcp.Description("Id of the plant to delete"),
			),
		),
		s.handleDeletePlant,
	)

	// ----- Watering -----

	srv.AddTool(
		mcp.NewTool("water_plant",
			mcp.WithDescription(
				"Record that a plant was watered. Updates the plant's last-watered "+
					"date and appends to its watering history.",
			),
			mcp.WithToolAnnotation(mutatingAnnotation()),
			mcp.WithString("plant_id",
				mcp.Required(),
				mcp.Description("Id of the plant that was watered"),
			),
			mcp.WithString("watered_date",
				mcp.Description("Date of watering, YYYY-MM-DD (default: today)"),
			),
			mcp.WithString("notes",
				mcp.Description("Optional notes (e.g. \"added fertilizer\")"),
			),
		),
		s.handleWaterPlant,
	)

	srv.AddTool(
		mcp.NewTool("get_watering_history",
			mcp.WithDescription("Get a plant's watering events, most recent first."),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithString("plant_id",
				mcp.Required(),
				mcp.Description("Id of the plant"),
			),
		),
		s.handleGetWateringHistory,
	)

	srv.AddTool(
		mcp.NewTool("get_watering_schedule",
			mcp.WithDescription(
				"Which plants need watering soon. A plant qualifies when it is due "+
					"within the lookahead window or overdue; a plant that has never "+
					"been watered is always due.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithNumber("lookahead_days",
				mcp.Description("How many days ahead to look (default 3)"),
			),
		),
		s.handleGetWateringSchedule,
	)

	// ----- Growth logs -----

	srv.AddTool(
		mcp.NewTool("add_growth_log",
			mcp.WithDescription("Record a growth measurement for a plant."),
			mcp.WithToolAnnotation(mutatingAnnotation()),
			mcp.WithString("plant_id",
				mcp.Required(),
				mcp.Description("Id of the plant"),
			),
			mcp.WithString("measurement_kind",
				mcp.Required(),
				mcp.Description("What was measured: height, width, leafCount, or other"),
			),
			mcp.WithString("measurement_unit",
				mcp.Required(),
				mcp.Description("Unit of the value: cm, inches, count, or other"),
			),
			mcp.WithNumber("value",
				mcp.Required(),
				mcp.Description("Numeric measurement value"),
			),
			mcp.WithString("log_date",
				mcp.Description("Date of the measurement, YYYY-MM-DD (default: today)"),
			),
			mcp.WithString("notes",
				mcp.Description("Optional notes"),
			),
		),
		s.handleAddGrowthLog,
	)

	srv.AddTool(
		mcp.NewTool("get_growth_logs",
			mcp.WithDescription("Get a plant's growth measurements, most recent first."),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithString("plant_id",
				mcp.Required(),
				mcp.Description("Id of the plant"),
			),
		),
		s.handleGetGrowthLogs,
	)

	// ----- Images -----

	srv.AddTool(
		mcp.NewTool("add_plant_image",
			mcp.WithDescription(
				"Attach an image reference to a plant. Only the filename is "+
					"stored, not the image itself.",
			),
			mcp.WithToolAnnotation(mutatingAnnotation()),
			mcp.WithString("plant_id",
				mcp.Required(),
				mcp.Description("Id of the plant"),
			),
			mcp.WithString("filename",
				mcp.Required(),
				mcp.Description("Filename of the image"),
			),
			mcp.WithString("caption",
				mcp.Description("Optional caption"),
			),
			mcp.WithString("taken_date",
				mcp.Description("Date the photo was taken, YYYY-MM-DD (default: today)"),
			),
		),
		s.handleAddPlantImage,
	)

	srv.AddTool(
		mcp.NewTool("get_plant_image",
			mcp.WithDescription("Get one image reference by id."),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithString("image_id",
				mcp.Required(),
				mcp.Description("Id of the image reference"),
			),
		),
		s.handleGetPlantImage,
	)

	srv.AddTool(
		mcp.NewTool("get_plant_images",
			mcp.WithDescription("Get a plant's image references, most recently taken first."),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithString("plant_id",
				mcp.Required(),
				mcp.Description("Id of the plant"),
			),
		),
		s.handleGetPlantImages,
	)
}

// storeError maps a store failure to a tool result. Not-found — including
// "owned by someone else" — stays a quiet not-found; everything else is a
// generic storage failure.
func storeError(err error, what string) (*mcp.CallToolResult, error) {
	if errors.Is(err, store.ErrNotFound) {
		return toolError("%s not found.", what)
	}
	return toolError("Storage failure: %v", err)
}

// =========================================================================
// Tool handlers
// =========================================================================

func (s *MCPServer) handleAddPlant(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	user, errRes := identity(ctx)
	if errRes != nil {
		return errRes, nil
	}

	name, err := requireString(request, "name")
	if err != nil {
		return toolError("%v", err)
	}
	freq, err := requireInt(request, "watering_frequency_days")
	if err != nil {
		return toolError("%v", err)
	}
	if freq <= 0 {
		return toolError("watering_frequency_days must be a positive number of days, got %d", freq)
	}

	p := &model.Plant{
		Name:                  name,
		Species:               optionalString(request, "species"),
		Location:              optionalString(request, "location"),
		WateringFrequencyDays: freq,
		Notes:                 optionalString(request, "notes"),
	}
	if acquired := optionalString(request, "acquired_date"); acquired != "" {
		if !model.ValidDate(acquired) {
			return toolError("acquired_date must be a date in YYYY-MM-DD format, got %q", acquired)
		}
		p.AcquiredOn = &acquired
	}

	if err := s.store.AddPlant(ctx, user.ID, p); err != nil {
		return storeError(err, "Plant")
	}

	return successText("Added plant %q (id %s). Water it every %d days.", p.Name, p.ID, freq)
}

func (s *MCPServer) handleListPlants(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	user, errRes := identity(ctx)
	if errRes != nil {
		return errRes, nil
	}

	filter := model.PlantFilter{
		Location: optionalString(request, "location"),
		Species:  optionalString(request, "species"),
	}

	plants, err := s.store.ListPlants(ctx, user.ID, filter)
	if err != nil {
		return storeError(err, "Plant")
	}

	return successJSON(map[string]interface{}{
		"plants": plants,
		"count":  len(plants),
	})
}

func (s *MCPServer) handleGetPlant(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	user, errRes := identity(ctx)
	if errRes != nil {
		return errRes, nil
	}

	plantID, err := requireString(request, "plant_id")
	if err != nil {
		return toolError("%v", err)
	}

	plant, err := s.store.GetPlant(ctx, user.ID, plantID)
	if err != nil {
		return storeError(err, "Plant")
	}

	return successJSON(plant)
}

func (s *MCPServer) handleUpdatePlant(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	user, errRes := identity(ctx)
	if errRes != nil {
		return errRes, nil
	}

	plantID, err := requireString(request, "plant_id")
	if err != nil {
		return toolError("%v", err)
	}

	upd := model.PlantUpdate{
		Name:                  optionalStringPtr(request, "name"),
		Species:               optionalStringPtr(request, "species"),
		Location:              optionalStringPtr(request, "location"),
		AcquiredOn:            optionalStringPtr(request, "acquired_date"),
		WateringFrequencyDays: optionalIntPtr(request, "watering_frequency_days"),
		Notes:                 optionalStringPtr(request, "notes"),
	}
	if upd.AcquiredOn != nil && !model.ValidDate(*upd.AcquiredOn) {
		return toolError("acquired_date must be a date in YYYY-MM-DD format, got %q", *upd.AcquiredOn)
	}
	if upd.WateringFrequencyDays != nil && *upd.WateringFrequencyDays <= 0 {
		return toolError("watering_frequency_days must be a positive number of days, got %d", *upd.WateringFrequencyDays)
	}

	plant, err := s.store.UpdatePlant(ctx, user.ID, plantID, upd)
	if err != nil {
		return storeError(err, "Plant")
	}

	return successJSON(plant)
}

func (s *MCPServer) handleDeletePlant(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	user, errRes := identity(ctx)
	if errRes != nil {
		return errRes, nil
	}

	plantID, err := requireString(request, "plant_id")
	if err != nil {
		return toolError("%v", err)
	}

	deleted, err := s.store.DeletePlant(ctx, user.ID, plantID)
	if err != nil {
		return storeError(err, "Plant")
	}
	if !deleted {
		return toolError("Plant not found.")
	}

	return successText("Deleted plant %s along with its watering history, growth logs, and images.", plantID)
}

func (s *MCPServer) handleWaterPlant(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	user, errRes := identity(ctx)
	if errRes != nil {
		return errRes, nil
	}

	plantID, err := requireString(request, "plant_id")
	if err != nil {
		return toolError("%v", err)
	}
	wateredOn, err := dateArg(request, "watered_date")
	if err != nil {
		return toolError("%v", err)
	}

	ev, err := s.store.WaterPlant(ctx, user.ID, plantID, wateredOn, optionalString(request, "notes"))
	if err != nil {
		return storeError(err, "Plant")
	}

	return successText("Watered plant %s on %s (event %s).", plantID, ev.WateredOn, ev.ID)
}

func (s *MCPServer) handleGetWateringHistory(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	user, errRes := identity(ctx)
	if errRes != nil {
		return errRes, nil
	}

	plantID, err := requireString(request, "plant_id")
	if err != nil {
		return toolError("%v", err)
	}

	events, err := s.store.GetWateringHistory(ctx, user.ID, plantID)
	if err != nil {
		return storeError(err, "Plant")
	}

	return successJSON(map[string]interface{}{
		"events": events,
		"count":  len(events),
	})
}

func (s *MCPServer) handleGetWateringSchedule(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	user, errRes := identity(ctx)
	if errRes != nil {
		return errRes, nil
	}

	lookahead := optionalInt(request, "lookahead_days", service.DefaultLookaheadDays)
	if lookahead < 0 {
		lookahead = service.DefaultLookaheadDays
	}

	plants, err := s.store.ListPlants(ctx, user.ID, model.PlantFilter{})
	if err != nil {
		return storeError(err, "Plant")
	}

	entries := service.WateringSchedule(plants, time.Now(), lookahead)

	return successJSON(map[string]interface{}{
		"lookaheadDays": lookahead,
		"due":           entries,
		"count":         len(entries),
	})
}

func (s *MCPServer) handleAddGrowthLog(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	user, errRes := identity(ctx)
	if errRes != nil {
		return errRes, nil
	}

	plantID, err := requireString(request, "plant_id")
	if err != nil {
		return toolError("%v", err)
	}
	kind, err := requireString(request, "measurement_kind")
	if err != nil {
		return toolError("%v", err)
	}
	if !model.ValidMeasurementKind(kind) {
		return toolError("measurement_kind must be one of height, width, leafCount, other; got %q", kind)
	}
	unit, err := requireString(request, "measurement_unit")
	if err != nil {
		return toolError("%v", err)
	}
	if !model.ValidMeasurementUnit(unit) {
		return toolError("measurement_unit must be one of cm, inches, count, other; got %q", unit)
	}
	value, err := requireFloat(request, "value")
	if err != nil {
		return toolError("%v", err)
	}
	loggedOn, err := dateArg(request, "log_date")
	if err != nil {
		return toolError("%v", err)
	}

	log := &model.GrowthLog{
		PlantID:  plantID,
		LoggedOn: loggedOn,
		Kind:     kind,
		Unit:     unit,
		Value:    value,
		Notes:    optionalString(request, "notes"),
	}
	if err := s.store.AddGrowthLog(ctx, user.ID, log); err != nil {
		return storeError(err, "Plant")
	}

	return successText("Logged %s %g %s for plant %s on %s.", kind, value, unit, plantID, loggedOn)
}

func (s *MCPServer) handleGetGrowthLogs(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	user, errRes := identity(ctx)
	if errRes != nil {
		return errRes, nil
	}

	plantID, err := requireString(request, "plant_id")
	if err != nil {
		return toolError("%v", err)
	}

	logs, err := s.store.GetGrowthLogs(ctx, user.ID, plantID)
	if err != nil {
		return storeError(err, "Plant")
	}

	return successJSON(map[string]interface{}{
		"logs":  logs,
		"count": len(logs),
	})
}

func (s *MCPServer) handleAddPlantImage(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	user, errRes := identity(ctx)
	if errRes != nil {
		return errRes, nil
	}

	plantID, err := requireString(request, "plant_id")
	if err != nil {
		return toolError("%v", err)
	}
	filename, err := requireString(request, "filename")
	if err != nil {
		return toolError("%v", err)
	}
	takenOn, err := dateArg(request, "taken_date")
	if err != nil {
		return toolError("%v", err)
	}

	img := &model.PlantImage{
		PlantID:  plantID,
		Filename: filename,
		Caption:  optionalString(request, "caption"),
		TakenOn:  takenOn,
	}
	if err := s.store.AddPlantImage(ctx, user.ID, img); err != nil {
		return storeError(err, "Plant")
	}

	return successText("Added image %q to plant %s (id %s).", filename, plantID, img.ID)
}

func (s *MCPServer) handleGetPlantImage(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	user, errRes := identity(ctx)
	if errRes != nil {
		return errRes, nil
	}

	imageID, err := requireString(request, "image_id")
	if err != nil {
		return toolError("%v", err)
	}

	img, err := s.store.GetPlantImage(ctx, user.ID, imageID)
	if err != nil {
		return storeError(err, "Image")
	}

	return successJSON(img)
}

func (s *MCPServer) handleGetPlantImages(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	user, errRes := identity(ctx)
	if errRes != nil {
		return errRes, nil
	}

	plantID, err := requireString(request, "plant_id")
	if err != nil {
		return toolError("%v", err)
	}

	images, err := s.store.GetPlantImages(ctx, user.ID, plantID)
	if err != nil {
		return storeError(err, "Plant")
	}

	return successJSON(map[string]interface{}{
		"images": images,
		"count":  len(images),
	})
}
