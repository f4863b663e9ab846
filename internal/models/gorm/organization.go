package gorm

import gormio "gorm.io/gorm"

// Department is shown to end users as a "Directorate".
type Department struct {
	ID          uint    `gorm:"column:id;primaryKey" json:"id"`
	Name        string  `gorm:"column:name;size:100;not null" json:"name"`
	NameKey     string  `gorm:"column:name_key;size:100;not null;uniqueIndex" json:"-"`
	Description *string `gorm:"column:description;type:text" json:"description"`
	MiscFields
}

func (Department) TableName() string {
	return "departments"
}

func (d *Department) BeforeSave(*gormio.DB) error {
	d.NameKey = NameKey(d.Name)
	return nil
}

type Committee struct {
	ID          uint    `gorm:"column:id;primaryKey" json:"id"`
	Name        string  `gorm:"column:name;size:100;not null" json:"name"`
	NameKey     string  `gorm:"column:name_key;size:100;not null;uniqueIndex" json:"-"`
	Description *string `gorm:"column:description;type:text" json:"description"`
	MiscFields
}

func (Committee) TableName() string {
	return "committees"
}

func (c *Committee) BeforeSave(*gormio.DB) error {
	c.NameKey = NameKey(c.Name)
	return nil
}

// CommitteeDepartment links a committee to the departments it draws from.
type CommitteeDepartment struct {
	ID           uint        `gorm:"column:id;primaryKey" json:"id"`
	CommitteeID  uint        `gorm:"column:committee_id;not null;uniqueIndex:idx_committee_department" json:"committee_id"`
	DepartmentID uint        `gorm:"column:department_id;not null;uniqueIndex:idx_committee_department" json:"department_id"`
	Committee    *Committee  `gorm:"foreignKey:CommitteeID;constraint:OnDelete:CASCADE" json:"committee,omitempty"`
	Department   *Department `gorm:"foreignKey:DepartmentID;constraint:OnDelete:CASCADE" json:"department,omitempty"`
	MiscFields
}

func (CommitteeDepartment) TableName() string {
	return "committee_departments"
}

type VenueType string

const (
	VenueHall   VenueType = "hall"
	VenueRoom   VenueType = "room"
	VenueGround VenueType = "ground"
	VenueOther  VenueType = "other"
)

var VenueTypes = []VenueType{VenueHall, VenueRoom, VenueGround, VenueOther}

func (t VenueType) Valid() bool {
	for _, v := range VenueTypes {
		if v == t {
			return true
		}
	}
	return false
}

type Venue struct {
	ID          uint      `gorm:"column:id;primaryKey" json:"id"`
	Name        string    `gorm:"column:name;size:100;not null" json:"name"`
	NameKey     string    `gorm:"column:name_key;size:100;not null;uniqueIndex" json:"-"`
	Description *string   `gorm:"column:description;type:text" json:"description"`
	VenueType   VenueType `gorm:"column:venue_type;size:20;not null;default:room" json:"venue_type"`
	Capacity    int       `gorm:"column:capacity;not null;default:0" json:"capacity"`
	MiscFields
}

func (Venue) TableName() string {
	return "venues"
}

func (v *Venue) BeforeSave(*gormio.DB) error {
	v.NameKey = NameKey(v.Name)
	if v.VenueType == "" {
		v.VenueType = VenueRoom
	}
	return nil
}
