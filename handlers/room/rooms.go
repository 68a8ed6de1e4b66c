package room

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/usched/usched-api/database"
	"github.com/usched/usched-api/model"
	"github.com/usched/usched-api/utils/response"
	"github.com/usched/usched-api/utils/validation"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	errUnknownBuilding = errors.New("building does not exist")
	errUnknownCollege  = errors.New("college does not exist")
)

// generalEducation is left out of the department options.
const generalEducation = "General Education"

// RoomHandler handles room requests
type RoomHandler struct {
	db        *gorm.DB
	validator *validation.Validator
}

// NewRoomHandler creates a new room handler
func NewRoomHandler(db *gorm.DB) *RoomHandler {
	return &RoomHandler{
		db:        db,
		validator: validation.NewValidator(),
	}
}

// RoomRow is a room with its building name.
type RoomRow struct {
	model.Room
	BuildingName string `json:"building_name"`
}

// CreateRoomRequest adds a room. A zero RoomNumber is assigned automatically.
type CreateRoomRequest struct {
	BuildingID  uint    `json:"building_id" validate:"required"`
	RoomType    string  `json:"room_type" validate:"required"`
	Status      string  `json:"status" validate:"required"`
	CollegeCode *string `json:"college_code"`
	FloorNumber int     `json:"floor_number" validate:"gte=0"`
	RoomNumber  int     `json:"room_number" validate:"gte=0"`
}

// UpdateRoomRequest edits the mutable fields of a room.
type UpdateRoomRequest struct {
	RoomType    string  `json:"room_type" validate:"required"`
	Status      string  `json:"status" validate:"required"`
	CollegeCode *string `json:"college_code"`
}

// FirstRoomNumber is the number given to the first room of a type in a building.
func FirstRoomNumber(buildingName, roomType string) int {
	switch roomType {
	case model.RoomTypeGym, model.RoomTypeComputerLab:
		return 1
	case model.RoomTypeLecture, model.RoomTypeLaboratory:
		switch buildingName {
		case model.BuildingBagongCabuyao, model.BuildingBCH:
			return 201
		}
		return 101
	}
	return 1
}

// nextRoomNumber is one past the highest number of the type in the building,
// or FirstRoomNumber when there is none.
func nextRoomNumber(tx *gorm.DB, building model.Building, roomType string) (int, error) {
	var last sql.NullInt64
	err := tx.Model(&model.Room{}).
		Where("building_id = ? AND room_type = ?", building.ID, roomType).
		Select("MAX(room_number)").Row().Scan(&last)
	if err != nil {
		return 0, err
	}
	if !last.Valid {
		return FirstRoomNumber(building.Name, roomType), nil
	}
	return int(last.Int64) + 1, nil
}

func findBuilding(tx *gorm.DB, id uint) (model.Building, error) {
	var b model.Building
	if err := tx.First(&b, id).Error; err != nil {
		if database.IsNotFound(err) {
			return b, errUnknownBuilding
		}
		return b, err
	}
	return b, nil
}

// collegeCodeFor returns the code stored for status: the existing college
// code when Occupied, nil otherwise.
func collegeCodeFor(tx *gorm.DB, status string, code *string) (*string, error) {
	if status != model.RoomOccupied {
		return nil, nil
	}
	if code == nil || validation.NormalizeCode(*code) == "" {
		return nil, errUnknownCollege
	}
	normalized := validation.NormalizeCode(*code)

	var n int64
	if err := tx.Model(&model.College{}).Where("college_code = ?", normalized).Count(&n).Error; err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, errUnknownCollege
	}
	return &normalized, nil
}

// roomOrder lists Main Building first, then Bagong Cabuyao Hall (or BCH), then
// the rest by name. It is one clause because a later Order call would replace
// an expression-based ORDER BY.
var roomOrder = clause.OrderBy{Expression: clause.Expr{
	SQL: "CASE b.building_name WHEN ? THEN 0 WHEN ? THEN 1 WHEN ? THEN 1 ELSE 2 END, " +
		"b.building_name ASC, r.room_type ASC, r.room_number ASC",
	Vars:               []interface{}{model.BuildingMain, model.BuildingBagongCabuyao, model.BuildingBCH},
	WithoutParentheses: true,
}}

// ListRooms handles GET /api/rooms
func (h *RoomHandler) ListRooms(c *fiber.Ctx) error {
	rows := []RoomRow{}
	err := h.db.WithContext(c.UserContext()).
		Table("room AS r").
		Select("r.*, b.building_name").
		Joins("JOIN building b ON b.building_id = r.building_id").
		Order(roomOrder).
		Scan(&rows).Error
	if err != nil {
		slog.Error("failed to list rooms", "error", err)
		return response.InternalServerError(c, "Failed to fetch rooms")
	}
	return response.Success(c, rows)
}

// RoomOptions handles GET /api/rooms/room-options
func (h *RoomHandler) RoomOptions(c *fiber.Ctx) error {
	db := h.db.WithContext(c.UserContext())

	departments := []string{}
	if err := db.Model(&model.College{}).Where("college_name <> ?", generalEducation).
		Order("college_code ASC").Pluck("college_code", &departments).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch room options")
	}
	buildings := []model.Building{}
	if err := db.Order("building_name ASC").Find(&buildings).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch room options")
	}

	return response.Success(c, fiber.Map{
		"statuses":    model.RoomStatuses,
		"room_types":  model.RoomTypes,
		"departments": departments,
		"buildings":   buildings,
	})
}

// LatestRoom handles GET /api/rooms/latest-room/:building_id/:room_type
func (h *RoomHandler) LatestRoom(c *fiber.Ctx) error {
	buildingID, err := c.ParamsInt("building_id")
	if err != nil || buildingID <= 0 {
		return response.BadRequest(c, "Invalid building ID")
	}
	roomType, err := url.PathUnescape(c.Params("room_type"))
	if err != nil || !model.IsRoomType(roomType) {
		return response.BadRequest(c, "Invalid room type.")
	}

	db := h.db.WithContext(c.UserContext())
	building, err := findBuilding(db, uint(buildingID))
	if err != nil {
		if errors.Is(err, errUnknownBuilding) {
			return response.BadRequest(c, "Invalid building ID")
		}
		return response.InternalServerError(c, "Failed to fetch building")
	}

	next, err := nextRoomNumber(db, building, roomType)
	if err != nil {
		return response.InternalServerError(c, "Failed to compute room number")
	}
	return response.Success(c, fiber.Map{"next_room_number": next})
}

// CreateRoom handles POST /api/rooms
func (h *RoomHandler) CreateRoom(c *fiber.Ctx) error {
	var req CreateRoomRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	req.RoomType = strings.TrimSpace(req.RoomType)
	req.Status = strings.TrimSpace(req.Status)
	if ok, err := h.check(c, &req); !ok {
		return err
	}
	if !model.IsRoomType(req.RoomType) {
		return response.BadRequest(c, "Invalid room type.")
	}
	if !model.IsRoomStatus(req.Status) {
		return response.BadRequest(c, "Invalid status.")
	}

	room := model.Room{
		BuildingID:  req.BuildingID,
		RoomType:    req.RoomType,
		Status:      req.Status,
		FloorNumber: req.FloorNumber,
		RoomNumber:  req.RoomNumber,
	}
	err := h.db.WithContext(c.UserContext()).Transaction(func(tx *gorm.DB) error {
		building, err := findBuilding(tx, req.BuildingID)
		if err != nil {
			return err
		}
		if room.CollegeCode, err = collegeCodeFor(tx, req.Status, req.CollegeCode); err != nil {
			return err
		}
		if room.RoomNumber == 0 {
			if room.RoomNumber, err = nextRoomNumber(tx, building, req.RoomType); err != nil {
				return err
			}
		}
		return tx.Create(&room).Error
	})

	switch {
	case errors.Is(err, errUnknownBuilding):
		return response.BadRequest(c, "Invalid building ID")
	case errors.Is(err, errUnknownCollege):
		return response.BadRequest(c, "Occupied rooms need an existing college code.")
	case database.IsUniqueViolation(err):
		return response.Conflict(c, "Room number already exists for this building and room type.")
	case err != nil:
		slog.Error("failed to add room", "error", err)
		return response.InternalServerError(c, "Failed to add room")
	}

	slog.Info("room added", "room_id", room.ID, "room_number", room.RoomNumber)
	return response.Created(c, "Room added successfully.", room)
}

// UpdateRoom handles PUT /api/rooms/:id
func (h *RoomHandler) UpdateRoom(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return response.BadRequest(c, "Invalid room ID")
	}

	var req UpdateRoomRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	req.RoomType = strings.TrimSpace(req.RoomType)
	req.Status = strings.TrimSpace(req.Status)
	if ok, err := h.check(c, &req); !ok {
		return err
	}
	if !model.IsRoomStatus(req.Status) {
		return response.BadRequest(c, "Invalid status.")
	}
	if !model.IsRoomType(req.RoomType) {
		return response.BadRequest(c, "Invalid room type.")
	}

	var room model.Room
	err = h.db.WithContext(c.UserContext()).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&room, id).Error; err != nil {
			return err
		}
		code, err := collegeCodeFor(tx, req.Status, req.CollegeCode)
		if err != nil {
			return err
		}
		room.Status, room.RoomType, room.CollegeCode = req.Status, req.RoomType, code
		return tx.Model(&room).Select("status", "room_type", "college_code").Updates(&room).Error
	})

	switch {
	case database.IsNotFound(err):
		return response.NotFound(c, "Room not found")
	case errors.Is(err, errUnknownCollege):
		return response.BadRequest(c, "Occupied rooms need an existing college code.")
	case database.IsUniqueViolation(err):
		return response.Conflict(c, "Room number already exists for this building and room type.")
	case err != nil:
		slog.Error("failed to update room", "room_id", id, "error", err)
		return response.InternalServerError(c, "Failed to update room")
	}
	return response.SuccessWithMessage(c, "Room updated successfully.", room)
}

// check runs struct validation and writes the 400 on failure.
func (h *RoomHandler) check(c *fiber.Ctx, req interface{}) (bool, error) {
	err := h.validator.Check(req)
	if err == nil {
		return true, nil
	}
	var missing *validation.MissingFieldsError
	if errors.As(err, &missing) {
		return false, response.MissingFields(c, missing.Fields)
	}
	return false, response.ValidationError(c, err)
}
