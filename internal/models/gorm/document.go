package gorm

import gormio "gorm.io/gorm"

type EventDocument struct {
	ID          uint    `gorm:"column:id;primaryKey" json:"id"`
	EventID     uint    `gorm:"column:event_id;not null;uniqueIndex:idx_event_document_title;index" json:"event_id"`
	Title       string  `gorm:"column:title;size:100;not null" json:"title"`
	TitleKey    string  `gorm:"column:title_key;size:100;not null;uniqueIndex:idx_event_document_title" json:"-"`
	Description *string `gorm:"column:description;type:text" json:"description"`
	File        string  `gorm:"column:file;type:text;not null" json:"file"`
	AuthorID    *uint   `gorm:"column:author_id" json:"author_id"`
	Event       *Event  `gorm:"foreignKey:EventID;constraint:OnDelete:CASCADE" json:"-"`
	Author      *User   `gorm:"foreignKey:AuthorID;constraint:OnDelete:SET NULL" json:"author,omitempty"`
	MiscFields
}

func (EventDocument) TableName() string {
	return "event_documents"
}

func (d *EventDocument) BeforeSave(*gormio.DB) error {
	d.TitleKey = NameKey(d.Title)
	return nil
}

// EventDocumentDepartment restricts a document to the listed departments.
type EventDocumentDepartment struct {
	ID              uint           `gorm:"column:id;primaryKey" json:"id"`
	EventDocumentID uint           `gorm:"column:event_document_id;not null;uniqueIndex:idx_document_department" json:"event_document_id"`
	DepartmentID    uint           `gorm:"column:department_id;not null;uniqueIndex:idx_document_department" json:"department_id"`
	EventDocument   *EventDocument `gorm:"foreignKey:EventDocumentID;constraint:OnDelete:CASCADE" json:"-"`
	Department      *Department    `gorm:"foreignKey:DepartmentID;constraint:OnDelete:CASCADE" json:"department,omitempty"`
	MiscFields
}

func (EventDocumentDepartment) TableName() string {
	return "event_document_departments"
}

// EventUserDocumentNote is a user's private note on a document, one per pair.
type EventUserDocumentNote struct {
	ID              uint           `gorm:"column:id;primaryKey" json:"id"`
	EventDocumentID uint           `gorm:"column:event_document_id;not null;uniqueIndex:idx_document_user_note" json:"event_document_id"`
	UserID          uint           `gorm:"column:user_id;not null;uniqueIndex:idx_document_user_note" json:"user_id"`
	Note            string         `gorm:"column:note;type:text;not null" json:"note"`
	EventDocument   *EventDocument `gorm:"foreignKey:EventDocumentID;constraint:OnDelete:CASCADE" json:"-"`
	User            *User          `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	MiscFields
}

func (EventUserDocumentNote) TableName() string {
	return "event_user_document_notes"
}
