package models

import "time"

type ItemType string

const (
	ItemTypeIdea     ItemType = "IDEA"
	ItemTypeRecipe   ItemType = "RECIPE"
	ItemTypeActivity ItemType = "ACTIVITY"
	ItemTypeProject  ItemType = "PROJECT"
	ItemTypeLocation ItemType = "LOCATION"
)

func ValidItemType(t ItemType) bool {
	switch t {
	case ItemTypeIdea, ItemTypeRecipe, ItemTypeActivity, ItemTypeProject, ItemTypeLocation:
		return true
	}
	return false
}

type ItemStatus string

const (
	ItemStatusActive   ItemStatus = "ACTIVE"
	ItemStatusDone     ItemStatus = "DONE"
	ItemStatusArchived ItemStatus = "ARCHIVED"
)

func ValidItemStatus(s ItemStatus) bool {
	switch s {
	case ItemStatusActive, ItemStatusDone, ItemStatusArchived:
		return true
	}
	return false
}

// Item is the core domain entity. Status and the soft-delete marker are two
// independent axes: an item in any status can sit in the trash, and restoring
// it from the trash brings its status back untouched. Version increases by
// exactly one on every successful mutating write and is the sole arbiter of
// "has this record changed since I last read it".
type Item struct {
	ID          string
	Title       string
	Type        ItemType
	Description *string
	Priority    int
	Status      ItemStatus
	DueDate     *time.Time
	Tags        []string
	Pinned      bool
	Version     int
	DeletedAt   *time.Time
	CreatedByID string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type ItemLink struct {
	ID          string
	ItemID      string
	Title       *string
	URL         string
	Description *string
	ImageURL    *string
	CreatedAt   time.Time
}

type ItemImage struct {
	ID          string
	ItemID      string
	StorageKey  string
	URL         string
	ContentType string
	ByteSize    int64
	Width       *int
	Height      *int
	SortOrder   int
	CreatedAt   time.Time
}
