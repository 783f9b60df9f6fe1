package domain

import "time"

// EntityKind distinguishes the vendor-scoped resources sharing the lifecycle shape.
type EntityKind string

const (
	EntityProduct  EntityKind = "product"
	EntitySoftware EntityKind = "software"
)

// Vendor is a manufacturer or publisher.
type Vendor struct {
	ID   int64
	Name string
}

// LifecycleDates holds the announced and effective end-of-* dates. Nil means unknown.
type LifecycleDates struct {
	EndOfLifeAnnounced *time.Time
	EndOfEngineering   *time.Time
	EndOfSale          *time.Time
	EndOfLife          *time.Time
}

// Entity is a product or software package tracked for a vendor.
type Entity struct {
	ID         int64
	Kind       EntityKind
	VendorID   int64
	VendorName string
	Name       string
	Lifecycle  LifecycleDates
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
