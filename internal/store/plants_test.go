package store

import (
	"context"
	"errors"
	"testing"

	"github.com/sproutapp/sprout/internal/model"
)

func addTestPlant(t *testing.T, s *Store, ownerID, name string) *model.Plant {
	t.Helper()
	p := &model.Plant{
		Name:                  name,
		WateringFrequencyDays: 7,
	}
	if err := s.AddPlant(context.Background(), ownerID, p); err != nil {
		t.Fatalf("AddPlant: %v", err)
	}
	return p
}

func TestPlantRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := newTestUser(t, s)

	acquired := "2026-03-15"
	p := &model.Plant{
		Name:                  "Monstera",
		Species:               "Monstera deliciosa",
		Location:              "Living room",
		AcquiredOn:            &acquired,
		WateringFrequencyDays: 7,
		Notes:                 "Near the window",
	}
	if err := s.AddPlant(ctx, u.ID, p); err != nil {
		t.Fatalf("AddPlant: %v", err)
	}
	if p.ID == "" {
		t.Fatal("expected non-empty ID after create")
	}

	got, err := s.GetPlant(ctx, u.ID, p.ID)
	if err != nil {
		t.Fatalf("GetPlant: %v", err)
	}
	if got.Name != "Monstera" {
		t.Errorf("got name %q, want %q", got.Name, "Monstera")
	}
	if got.AcquiredOn == nil || *got.AcquiredOn != acquired {
		t.Errorf("got acquired %v, want %q", got.AcquiredOn, acquired)
	}
	if got.LastWatered != nil {
		t.Errorf("expected nil LastWatered, got %q", *got.LastWatered)
	}
	if got.WateringFrequencyDays != 7 {
		t.Errorf("got frequency %d, want 7", got.WateringFrequencyDays)
	}
}

func TestPlantOwnerIsolation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	owner := newTestUser(t, s)
	intruder := newTestUser(t, s)

	p := addTestPlant(t, s, owner.ID, "Fern")

	// Another user's plant reads as not found, not as forbidden.
	if _, err := s.GetPlant(ctx, intruder.ID, p.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetPlant across owners: got %v, want ErrNotFound", err)
	}

	name := "Stolen"
	if _, err := s.UpdatePlant(ctx, intruder.ID, p.ID, model.PlantUpdate{Name: &name}); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdatePlant across owners: got %v, want ErrNotFound", err)
	}

	deleted, err := s.DeletePlant(ctx, intruder.ID, p.ID)
	if err != nil {
		t.Fatalf("DeletePlant: %v", err)
	}
	if deleted {
		t.Error("DeletePlant across owners: expected no deletion")
	}

	if _, err := s.WaterPlant(ctx, intruder.ID, p.ID, "2026-04-01", ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("WaterPlant across owners: got %v, want ErrNotFound", err)
	}

	plants, err := s.ListPlants(ctx, intruder.ID, model.PlantFilter{})
	if err != nil {
		t.Fatalf("ListPlants: %v", err)
	}
	if len(plants) != 0 {
		t.Errorf("got %d plants for other user, want 0", len(plants))
	}
}

func TestListPlantsFilterAndOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := newTestUser(t, s)

	for _, spec := range []struct{ name, location, species string }{
		{"Zebra plant", "Kitchen", "Aphelandra squarrosa"},
		{"Aloe", "Kitchen", "Aloe vera"},
		{"Monstera", "Living room", "Monstera deliciosa"},
	} {
		p := &model.Plant{
			Name:                  spec.name,
			Location:              spec.location,
			Species:               spec.species,
			WateringFrequencyDays: 7,
		}
		if err := s.AddPlant(ctx, u.ID, p); err != nil {
			t.Fatalf("AddPlant: %v", err)
		}
	}

	all, err := s.ListPlants(ctx, u.ID, model.PlantFilter{})
	if err != nil {
		t.Fatalf("ListPlants: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("got %d plants, want 3", len(all))
	}
	// Sorted by name.
	if all[0].Name != "Aloe" || all[1].Name != "Monstera" || all[2].Name != "Zebra plant" {
		t.Errorf("wrong order: %q, %q, %q", all[0].Name, all[1].Name, all[2].Name)
	}

	kitchen, err := s.ListPlants(ctx, u.ID, model.PlantFilter{Location: "Kitchen"})
	if err != nil {
		t.Fatalf("ListPlants(location): %v", err)
	}
	if len(kitchen) != 2 {
		t.Errorf("got %d kitchen plants, want 2", len(kitchen))
	}

	aloe, err := s.ListPlants(ctx, u.ID, model.PlantFilter{Location: "Kitchen", Species: "Aloe vera"})
	if err != nil {
		t.Fatalf("ListPlants(both): %v", err)
	}
	if len(aloe) != 1 || aloe[0].Name != "Aloe" {
		t.Errorf("combined filter: got %v", aloe)
	}
}

func TestUpdatePlantPartial(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := newTestUser(t, s)
	p := addTestPlant(t, s, u.ID, "Pothos")

	loc := "Bedroom"
	freq := 10
	got, err := s.UpdatePlant(ctx, u.ID, p.ID, model.PlantUpdate{
		Location:              &loc,
		WateringFrequencyDays: &freq,
	})
	if err != nil {
		t.Fatalf("UpdatePlant: %v", err)
	}
	if got.Location != "Bedroom" {
		t.Errorf("got location %q, want %q", got.Location, "Bedroom")
	}
	if got.WateringFrequencyDays != 10 {
		t.Errorf("got frequency %d, want 10", got.WateringFrequencyDays)
	}
	// Untouched fields survive.
	if got.Name != "Pothos" {
		t.Errorf("got name %q, want %q", got.Name, "Pothos")
	}
	if !got.UpdatedAt.After(p.UpdatedAt) {
		t.Error("expected UpdatedAt to advance")
	}
}

func TestUpdatePlantNoFields(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := newTestUser(t, s)
	p := addTestPlant(t, s, u.ID, "Cactus")

	// An empty update returns the current record unchanged.
	got, err := s.UpdatePlant(ctx, u.ID, p.ID, model.PlantUpdate{})
	if err != nil {
		t.Fatalf("UpdatePlant: %v", err)
	}
	if got.Name != "Cactus" {
		t.Errorf("got name %q, want %q", got.Name, "Cactus")
	}
	if !got.UpdatedAt.Equal(p.UpdatedAt) {
		t.Error("expected UpdatedAt to be untouched by empty update")
	}
}

func TestDeletePlantCascades(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := newTestUser(t, s)
	p := addTestPlant(t, s, u.ID, "Basil")

	if _, err := s.WaterPlant(ctx, u.ID, p.ID, "2026-04-01", ""); err != nil {
		t.Fatalf("WaterPlant: %v", err)
	}
	if err := s.AddGrowthLog(ctx, u.ID, &model.GrowthLog{
		PlantID: p.ID, LoggedOn: "2026-04-01", Kind: model.MeasurementHeight,
		Unit: model.UnitCentimeters, Value: 12.5,
	}); err != nil {
		t.Fatalf("AddGrowthLog: %v", err)
	}
	if err := s.AddPlantImage(ctx, u.ID, &model.PlantImage{
		PlantID: p.ID, Filename: "basil.jpg", TakenOn: "2026-04-01",
	}); err != nil {
		t.Fatalf("AddPlantImage: %v", err)
	}

	deleted, err := s.DeletePlant(ctx, u.ID, p.ID)
	if err != nil {
		t.Fatalf("DeletePlant: %v", err)
	}
	if !deleted {
		t.Fatal("expected plant to be deleted")
	}

	// Dependent rows are gone with the plant.
	for _, table := range []string{"watering_events", "growth_logs", "plant_images"} {
		var count int
		q := s.rebind("SELECT COUNT(*) FROM " + table + " WHERE plant_id = ?")
		if err := s.db.GetContext(ctx, &count, q, p.ID); err != nil {
			t.Fatalf("count %s: %v", table, err)
		}
		if count != 0 {
			t.Errorf("%s: got %d rows after delete, want 0", table, count)
		}
	}
}

func TestWaterPlantUpdatesLastWatered(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := newTestUser(t, s)
	p := addTestPlant(t, s, u.ID, "Ivy")

	ev, err := s.WaterPlant(ctx, u.ID, p.ID, "2026-04-02", "added fertilizer")
	if err != nil {
		t.Fatalf("WaterPlant: %v", err)
	}
	if ev.ID == "" {
		t.Fatal("expected non-empty event ID")
	}
	if ev.WateredOn != "2026-04-02" {
		t.Errorf("got watered date %q, want %q", ev.WateredOn, "2026-04-02")
	}

	got, err := s.GetPlant(ctx, u.ID, p.ID)
	if err != nil {
		t.Fatalf("GetPlant: %v", err)
	}
	if got.LastWatered == nil || *got.LastWatered != "2026-04-02" {
		t.Errorf("got last watered %v, want %q", got.LastWatered, "2026-04-02")
	}
}

func TestWaterPlantAtomic(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := newTestUser(t, s)
	p := addTestPlant(t, s, u.ID, "Orchid")

	// Force the plant update half of the transaction to fail; the event
	// insert that preceded it must roll back with it.
	if _, err := s.db.Exec(`CREATE TRIGGER fail_update BEFORE UPDATE ON plants
		BEGIN SELECT RAISE(ABORT, 'forced failure'); END`); err != nil {
		t.Fatalf("create trigger: %v", err)
	}

	if _, err := s.WaterPlant(ctx, u.ID, p.ID, "2026-04-03", ""); err == nil {
		t.Fatal("expected WaterPlant to fail")
	}

	if _, err := s.db.Exec(`DROP TRIGGER fail_update`); err != nil {
		t.Fatalf("drop trigger: %v", err)
	}

	events, err := s.GetWateringHistory(ctx, u.ID, p.ID)
	if err != nil {
		t.Fatalf("GetWateringHistory: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("got %d events after failed watering, want 0", len(events))
	}
	got, err := s.GetPlant(ctx, u.ID, p.ID)
	if err != nil {
		t.Fatalf("GetPlant: %v", err)
	}
	if got.LastWatered != nil {
		t.Errorf("got last watered %q after failed watering, want nil", *got.LastWatered)
	}
}

func TestWateringHistoryOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := newTestUser(t, s)
	p := addTestPlant(t, s, u.ID, "Palm")

	for _, d := range []string{"2026-04-01", "2026-04-08", "2026-04-05"} {
		if _, err := s.WaterPlant(ctx, u.ID, p.ID, d, ""); err != nil {
			t.Fatalf("WaterPlant(%s): %v", d, err)
		}
	}

	events, err := s.GetWateringHistory(ctx, u.ID, p.ID)
	if err != nil {
		t.Fatalf("GetWateringHistory: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}
	want := []string{"2026-04-08", "2026-04-05", "2026-04-01"}
	for i, w := range want {
		if events[i].WateredOn != w {
			t.Errorf("event %d: got %q, want %q", i, events[i].WateredOn, w)
		}
	}
}

func TestGrowthLogs(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := newTestUser(t, s)
	p := addTestPlant(t, s, u.ID, "Rubber plant")

	for _, spec := range []struct {
		date  string
		value float64
	}{
		{"2026-04-01", 30},
		{"2026-05-01", 34.5},
	} {
		log := &model.GrowthLog{
			PlantID:  p.ID,
			LoggedOn: spec.date,
			Kind:     model.MeasurementHeight,
			Unit:     model.UnitCentimeters,
			Value:    spec.value,
		}
		if err := s.AddGrowthLog(ctx, u.ID, log); err != nil {
			t.Fatalf("AddGrowthLog: %v", err)
		}
		if log.ID == "" {
			t.Fatal("expected non-empty ID after create")
		}
	}

	logs, err := s.GetGrowthLogs(ctx, u.ID, p.ID)
	if err != nil {
		t.Fatalf("GetGrowthLogs: %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("got %d logs, want 2", len(logs))
	}
	// Most recent first.
	if logs[0].LoggedOn != "2026-05-01" {
		t.Errorf("got first log date %q, want %q", logs[0].LoggedOn, "2026-05-01")
	}
	if logs[0].Value != 34.5 {
		t.Errorf("got value %v, want 34.5", logs[0].Value)
	}

	// Unknown plant.
	if _, err := s.GetGrowthLogs(ctx, u.ID, "no-such-plant"); !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestPlantImages(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := newTestUser(t, s)
	other := newTestUser(t, s)
	p := addTestPlant(t, s, u.ID, "Snake plant")

	img := &model.PlantImage{
		PlantID:  p.ID,
		Filename: "snake-april.jpg",
		Caption:  "New leaf!",
		TakenOn:  "2026-04-10",
	}
	if err := s.AddPlantImage(ctx, u.ID, img); err != nil {
		t.Fatalf("AddPlantImage: %v", err)
	}
	if err := s.AddPlantImage(ctx, u.ID, &model.PlantImage{
		PlantID: p.ID, Filename: "snake-may.jpg", TakenOn: "2026-05-10",
	}); err != nil {
		t.Fatalf("AddPlantImage: %v", err)
	}

	got, err := s.GetPlantImage(ctx, u.ID, img.ID)
	if err != nil {
		t.Fatalf("GetPlantImage: %v", err)
	}
	if got.Filename != "snake-april.jpg" {
		t.Errorf("got filename %q, want %q", got.Filename, "snake-april.jpg")
	}
	if got.Caption != "New leaf!" {
		t.Errorf("got caption %q, want %q", got.Caption, "New leaf!")
	}

	// Image ids are owner-scoped too.
	if _, err := s.GetPlantImage(ctx, other.ID, img.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}

	images, err := s.GetPlantImages(ctx, u.ID, p.ID)
	if err != nil {
		t.Fatalf("GetPlantImages: %v", err)
	}
	if len(images) != 2 {
		t.Fatalf("got %d images, want 2", len(images))
	}
	// Most recently taken first.
	if images[0].Filename != "snake-may.jpg" {
		t.Errorf("got first image %q, want %q", images[0].Filename, "snake-may.jpg")
	}
}
