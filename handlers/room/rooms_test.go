package room

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/usched/usched-api/database"
	"github.com/usched/usched-api/database/dbtest"
	"github.com/usched/usched-api/model"
	"gorm.io/gorm"
)

func TestFirstRoomNumber(t *testing.T) {
	tests := []struct {
		building, roomType string
		want               int
	}{
		{model.BuildingMain, model.RoomTypeLecture, 101},
		{model.BuildingMain, model.RoomTypeLaboratory, 101},
		{model.BuildingBagongCabuyao, model.RoomTypeLecture, 201},
		{model.BuildingBCH, model.RoomTypeLaboratory, 201},
		{"Annex", model.RoomTypeLecture, 101},
		{model.BuildingMain, model.RoomTypeGym, 1},
		{model.BuildingBagongCabuyao, model.RoomTypeComputerLab, 1},
	}
	for _, tt := range tests {
		if got := FirstRoomNumber(tt.building, tt.roomType); got != tt.want {
			t.Errorf("FirstRoomNumber(%q, %q) = %d, want %d", tt.building, tt.roomType, got, tt.want)
		}
	}
}

func newApp(t *testing.T) (*fiber.App, *gorm.DB, map[string]uint) {
	t.Helper()
	db := dbtest.Open(t)
	if err := database.NewSeeder(db).SeedBuildings(); err != nil {
		t.Fatalf("seed buildings: %v", err)
	}
	annex := model.Building{Name: "Annex"}
	db.Create(&annex)
	dbtest.SeedCollege(t, db, "CCS", "BSCS")

	var buildings []model.Building
	db.Find(&buildings)
	ids := map[string]uint{}
	for _, b := range buildings {
		ids[b.Name] = b.ID
	}

	h := NewRoomHandler(db)
	app := fiber.New()
	app.Get("/api/rooms", h.ListRooms)
	app.Get("/api/rooms/room-options", h.RoomOptions)
	app.Get("/api/rooms/latest-room/:building_id/:room_type", h.LatestRoom)
	app.Post("/api/rooms", h.CreateRoom)
	app.Put("/api/rooms/:id", h.UpdateRoom)
	return app, db, ids
}

func call(t *testing.T, app *fiber.App, method, path string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	var out map[string]interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
	return resp.StatusCode, out
}

func TestCreateRoomNumbersSequentially(t *testing.T) {
	app, _, ids := newApp(t)
	req := CreateRoomRequest{BuildingID: ids[model.BuildingBagongCabuyao], RoomType: model.RoomTypeLecture,
		Status: model.RoomAvailable, FloorNumber: 2}

	for _, want := range []float64{201, 202} {
		status, res := call(t, app, http.MethodPost, "/api/rooms", req)
		if status != fiber.StatusCreated {
			t.Fatalf("create = %d %v", status, res)
		}
		if got := res["data"].(map[string]interface{})["room_number"]; got != want {
			t.Errorf("room_number = %v, want %v", got, want)
		}
	}

	path := fmt.Sprintf("/api/rooms/latest-room/%d/Lecture%%20Room", ids[model.BuildingBagongCabuyao])
	status, res := call(t, app, http.MethodGet, path, nil)
	if status != fiber.StatusOK {
		t.Fatalf("latest-room = %d %v", status, res)
	}
	if next := res["data"].(map[string]interface{})["next_room_number"]; next != float64(203) {
		t.Errorf("next_room_number = %v", next)
	}

	req.RoomNumber = 201
	if status, _ = call(t, app, http.MethodPost, "/api/rooms", req); status != fiber.StatusConflict {
		t.Errorf("duplicate number = %d, want 409", status)
	}

	if status, _ = call(t, app, http.MethodGet, "/api/rooms/latest-room/999/GYM", nil); status != fiber.StatusBadRequest {
		t.Errorf("unknown building = %d, want 400", status)
	}
}

func TestOccupiedRoomsNeedCollege(t *testing.T) {
	app, db, ids := newApp(t)
	req := CreateRoomRequest{BuildingID: ids[model.BuildingMain], RoomType: model.RoomTypeGym, Status: model.RoomOccupied}

	if status, _ := call(t, app, http.MethodPost, "/api/rooms", req); status != fiber.StatusBadRequest {
		t.Fatalf("occupied without college = %d", status)
	}

	code := "ccs"
	req.CollegeCode = &code
	status, res := call(t, app, http.MethodPost, "/api/rooms", req)
	if status != fiber.StatusCreated {
		t.Fatalf("create = %d %v", status, res)
	}
	id := int(res["data"].(map[string]interface{})["room_id"].(float64))

	status, _ = call(t, app, http.MethodPut, fmt.Sprintf("/api/rooms/%d", id), UpdateRoomRequest{
		RoomType: model.RoomTypeGym, Status: model.RoomAvailable, CollegeCode: &code,
	})
	if status != fiber.StatusOK {
		t.Fatalf("update = %d", status)
	}
	var room model.Room
	db.First(&room, id)
	if room.CollegeCode != nil {
		t.Errorf("college code kept for available room: %q", *room.CollegeCode)
	}

	if status, _ = call(t, app, http.MethodPut, "/api/rooms/9999", UpdateRoomRequest{
		RoomType: model.RoomTypeGym, Status: model.RoomAvailable,
	}); status != fiber.StatusNotFound {
		t.Errorf("unknown room = %d, want 404", status)
	}
	if status, _ = call(t, app, http.MethodPut, fmt.Sprintf("/api/rooms/%d", id), UpdateRoomRequest{
		RoomType: model.RoomTypeGym, Status: "Closed",
	}); status != fiber.StatusBadRequest {
		t.Errorf("bad status = %d, want 400", status)
	}
}

func TestListRoomsOrdersBuildings(t *testing.T) {
	app, _, ids := newApp(t)
	for _, b := range []string{"Annex", model.BuildingBagongCabuyao, model.BuildingMain, model.BuildingMain} {
		req := CreateRoomRequest{BuildingID: ids[b], RoomType: model.RoomTypeLecture, Status: model.RoomAvailable}
		if status, res := call(t, app, http.MethodPost, "/api/rooms", req); status != fiber.StatusCreated {
			t.Fatalf("create in %s = %d %v", b, status, res)
		}
	}

	_, res := call(t, app, http.MethodGet, "/api/rooms", nil)
	rows := res["data"].([]interface{})
	var order []string
	for _, r := range rows {
		row := r.(map[string]interface{})
		order = append(order, fmt.Sprintf("%s %v", row["building_name"], row["room_number"]))
	}
	want := []string{
		model.BuildingMain + " 101",
		model.BuildingMain + " 102",
		model.BuildingBagongCabuyao + " 201",
		"Annex 101",
	}
	if fmt.Sprint(order) != fmt.Sprint(want) {
		t.Errorf("order = %v, want %v", order, want)
	}
}

func TestRoomOptions(t *testing.T) {
	app, db, _ := newApp(t)
	db.Create(&model.College{Name: generalEducation, Code: "GE"})

	_, res := call(t, app, http.MethodGet, "/api/rooms/room-options", nil)
	data := res["data"].(map[string]interface{})
	depts := data["departments"].([]interface{})
	if len(depts) != 1 || depts[0] != "CCS" {
		t.Errorf("departments = %v", depts)
	}
	if len(data["buildings"].([]interface{})) != 3 {
		t.Errorf("buildings = %v", data["buildings"])
	}
}
