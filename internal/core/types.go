package core

import (
	"io"
	"math"
	"strings"
	"time"
)

// Status is the lifecycle state of a product.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	return s == StatusActive || s == StatusInactive
}

// Product is a single inventory record.
type Product struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Unit      string    `json:"unit"`
	Category  string    `json:"category"`
	Brand     string    `json:"brand"`
	Stock     int       `json:"stock"`
	Status    Status    `json:"status"`
	Image     string    `json:"image"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewProduct holds the values for inserting a product.
type NewProduct struct {
	Name     string
	Unit     string
	Category string
	Brand    string
	Stock    int
	Status   Status
	Image    string
}

// ProductPatch lists the columns to change. Nil fields are left untouched.
type ProductPatch struct {
	Name     *string
	Unit     *string
	Category *string
	Brand    *string
	Stock    *int
	Status   *Status
	Image    *string
}

// Empty reports whether the patch changes nothing.
func (p ProductPatch) Empty() bool {
	return p.Name == nil && p.Unit == nil && p.Category == nil && p.Brand == nil &&
		p.Stock == nil && p.Status == nil && p.Image == nil
}

// ProductUpdate is a partial update request. Nil fields were not supplied.
// UserInfo attributes the stock change, if any, in the history log.
type ProductUpdate struct {
	Name     *string `json:"name" validate:"omitnil,min=1"`
	Unit     *string `json:"unit"`
	Category *string `json:"category"`
	Brand    *string `json:"brand"`
	Stock    *int    `json:"stock" validate:"omitnil,min=0,max=2147483647"`
	Status   *string `json:"status" validate:"omitnil,oneof=active inactive"`
	Image    *string `json:"image" validate:"omitnil,url"`
	UserInfo *string `json:"user_info"`
}

// normalized trims the free-text fields.
func (u ProductUpdate) normalized() ProductUpdate {
	u.Name = trimmed(u.Name)
	u.Unit = trimmed(u.Unit)
	u.Category = trimmed(u.Category)
	u.Brand = trimmed(u.Brand)
	u.Image = trimmed(u.Image)
	return u
}

// patch converts the request into the columns to write.
func (u ProductUpdate) patch() ProductPatch {
	p := ProductPatch{
		Name:     u.Name,
		Unit:     u.Unit,
		Category: u.Category,
		Brand:    u.Brand,
		Stock:    u.Stock,
		Image:    u.Image,
	}
	if u.Status != nil {
		st := Status(*u.Status)
		p.Status = &st
	}
	return p
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

// HistoryEntry records one stock quantity change.
type HistoryEntry struct {
	ID          int64     `json:"id"`
	ProductID   int64     `json:"product_id"`
	OldQuantity int       `json:"old_quantity"`
	NewQuantity int       `json:"new_quantity"`
	ChangeDate  time.Time `json:"change_date"`
	UserInfo    string    `json:"user_info"`
}

// NewHistoryEntry holds the values for appending a history entry.
type NewHistoryEntry struct {
	ProductID   int64
	OldQuantity int
	NewQuantity int
	ChangeDate  time.Time
	UserInfo    string
}

// MaxStock is the largest stock quantity the store column can hold.
const MaxStock = math.MaxInt32

// DefaultAttribution is recorded when a stock change names no user.
const DefaultAttribution = "System"

// ProductSummary identifies a product in history responses.
type ProductSummary struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// ProductHistory is a product with its stock changes, newest first.
type ProductHistory struct {
	Product ProductSummary `json:"product"`
	History []HistoryEntry `json:"history"`
}

// ListFilter selects a page of products.
type ListFilter struct {
	Category string // exact match, empty for all
	Search   string // name substring, empty for all
	Limit    int
	Offset   int
}

// ImportFile is an uploaded file to import.
type ImportFile struct {
	Name   string
	Size   int64 // 0 if unknown
	Reader io.Reader
}

// Duplicate reports an import row that was not inserted because of its name.
type Duplicate struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// ImportResult aggregates the outcome of an import.
type ImportResult struct {
	Added      int         `json:"added"`
	Skipped    int         `json:"skipped"`
	Duplicates []Duplicate `json:"duplicates"`
}
