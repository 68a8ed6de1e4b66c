package model

import "time"

// Room statuses.
const (
	RoomAvailable  = "Available"
	RoomOccupied   = "Occupied"
	RoomOutOfOrder = "Out of Order"
)

// Room types.
const (
	RoomTypeLecture     = "Lecture Room"
	RoomTypeLaboratory  = "Laboratory Room"
	RoomTypeGym         = "GYM"
	RoomTypeComputerLab = "Computer Laboratory"
)

var (
	RoomStatuses = []string{RoomAvailable, RoomOccupied, RoomOutOfOrder}
	RoomTypes    = []string{RoomTypeLecture, RoomTypeLaboratory, RoomTypeGym, RoomTypeComputerLab}
)

// Well-known building names that drive room numbering.
const (
	BuildingMain          = "Main Building"
	BuildingBagongCabuyao = "Bagong Cabuyao Hall"
	BuildingBCH           = "BCH"
)

// Building groups rooms.
type Building struct {
	ID        uint      `gorm:"column:building_id;primaryKey" json:"building_id"`
	Name      string    `gorm:"column:building_name;type:varchar(255);uniqueIndex;not null" json:"building_name"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for Building
func (Building) TableName() string {
	return "building"
}

// Room numbers are unique per (building, room type).
type Room struct {
	ID          uint      `gorm:"column:room_id;primaryKey" json:"room_id"`
	RoomNumber  int       `gorm:"not null;uniqueIndex:idx_room_number" json:"room_number"`
	BuildingID  uint      `gorm:"not null;uniqueIndex:idx_room_number" json:"building_id"`
	RoomType    string    `gorm:"type:varchar(50);not null;uniqueIndex:idx_room_number" json:"room_type"`
	Status      string    `gorm:"type:varchar(20);not null" json:"status"`
	CollegeCode *string   `gorm:"type:varchar(50)" json:"college_code"`
	FloorNumber int       `gorm:"not null" json:"floor_number"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Building *Building `gorm:"foreignKey:BuildingID" json:"building,omitempty"`
}

// TableName specifies the table name for Room
func (Room) TableName() string {
	return "room"
}

func IsRoomStatus(s string) bool { return contains(RoomStatuses, s) }
func IsRoomType(s string) bool   { return contains(RoomTypes, s) }

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
