package gorm

import "fmt"

type DeletionStrategy string

const (
	// DeleteHard removes the row; dependents go with it through ON DELETE CASCADE.
	DeleteHard DeletionStrategy = "hard"
	// DeleteSoft only clears is_active.
	DeleteSoft DeletionStrategy = "soft"
)

// Lifecycle says how a table is retired. Blockable tables also expose
// block/unblock, which toggles is_active without touching dependents.
type Lifecycle struct {
	Delete    DeletionStrategy
	Blockable bool
}

var lifecycles = map[string]Lifecycle{
	User{}.TableName():                    {Delete: DeleteHard, Blockable: true},
	Department{}.TableName():              {Delete: DeleteHard, Blockable: true},
	Committee{}.TableName():               {Delete: DeleteHard, Blockable: true},
	Venue{}.TableName():                   {Delete: DeleteHard, Blockable: true},
	Event{}.TableName():                   {Delete: DeleteHard, Blockable: true},
	UserDepartment{}.TableName():          {Delete: DeleteHard},
	UserCommittee{}.TableName():           {Delete: DeleteHard},
	CommitteeDepartment{}.TableName():     {Delete: DeleteHard},
	EventDepartment{}.TableName():         {Delete: DeleteHard},
	EventCommittee{}.TableName():          {Delete: DeleteHard},
	EventAttendee{}.TableName():           {Delete: DeleteHard},
	EventAgenda{}.TableName():             {Delete: DeleteHard},
	EventMinute{}.TableName():             {Delete: DeleteHard},
	EventDocument{}.TableName():           {Delete: DeleteHard},
	EventDocumentDepartment{}.TableName(): {Delete: DeleteHard},
	EventUserDocumentNote{}.TableName():   {Delete: DeleteHard},
}

// LifecycleOf returns the declared lifecycle for a table. Unknown tables
// are a programming error.
func LifecycleOf(table string) Lifecycle {
	lc, ok := lifecycles[table]
	if !ok {
		panic(fmt.Sprintf("no lifecycle declared for table %q", table))
	}
	return lc
}
