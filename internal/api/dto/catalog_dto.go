package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Cristi-la/EOL-Net/internal/domain"
	"github.com/Cristi-la/EOL-Net/internal/service"
)

const dateLayout = "2006-01-02"

// Date is a calendar date encoded as YYYY-MM-DD.
type Date struct {
	time.Time
}

// UnmarshalJSON accepts "YYYY-MM-DD".
func (d *Date) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("date must be a YYYY-MM-DD string")
	}
	parsed, err := time.Parse(dateLayout, raw)
	if err != nil {
		return fmt.Errorf("date %q must be YYYY-MM-DD", raw)
	}
	d.Time = parsed
	return nil
}

// MarshalJSON renders the date as "YYYY-MM-DD".
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Format(dateLayout))
}

// VendorID accepts a JSON number or a numeric string.
type VendorID int64

// UnmarshalJSON decodes 5 or "5".
func (v *VendorID) UnmarshalJSON(data []byte) error {
	raw := string(bytes.TrimSpace(data))
	if strings.HasPrefix(raw, `"`) {
		if err := json.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("vendor must be an integer id")
		}
		raw = strings.TrimSpace(raw)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("vendor must be an integer id")
	}
	*v = VendorID(id)
	return nil
}

// NullableDate tells an absent date apart from an explicit null.
type NullableDate struct {
	Set  bool
	Date *Date
}

// UnmarshalJSON is also called for a null literal, which marks the date as cleared.
func (n *NullableDate) UnmarshalJSON(data []byte) error {
	n.Set = true
	n.Date = nil
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	var d Date
	if err := d.UnmarshalJSON(data); err != nil {
		return err
	}
	n.Date = &d
	return nil
}

func (n NullableDate) cleared() bool {
	return n.Set && n.Date == nil
}

// EntityRequest payload for product and software writes. Vendor and name are nil
// when absent or null; dates keep the difference.
type EntityRequest struct {
	Vendor             *VendorID    `json:"vendor"`
	Name               *string      `json:"name"`
	EndOfLifeAnnounced NullableDate `json:"end_of_life_announced_date"`
	EndOfEngineering   NullableDate `json:"end_of_engineering_date"`
	EndOfSale          NullableDate `json:"end_of_sale_date"`
	EndOfLife          NullableDate `json:"end_of_life_date"`
}

// Input converts the request for the catalog service.
func (r EntityRequest) Input() service.EntityInput {
	var input service.EntityInput
	if r.Vendor != nil {
		id := int64(*r.Vendor)
		input.VendorID = &id
	}
	input.Name = r.Name
	input.Lifecycle = domain.LifecycleDates{
		EndOfLifeAnnounced: r.EndOfLifeAnnounced.Date.ptr(),
		EndOfEngineering:   r.EndOfEngineering.Date.ptr(),
		EndOfSale:          r.EndOfSale.Date.ptr(),
		EndOfLife:          r.EndOfLife.Date.ptr(),
	}
	input.Clear = service.LifecycleClear{
		EndOfLifeAnnounced: r.EndOfLifeAnnounced.cleared(),
		EndOfEngineering:   r.EndOfEngineering.cleared(),
		EndOfSale:          r.EndOfSale.cleared(),
		EndOfLife:          r.EndOfLife.cleared(),
	}
	return input
}

func (d *Date) ptr() *time.Time {
	if d == nil {
		return nil
	}
	t := d.Time
	return &t
}

// VendorResponse describes a vendor.
type VendorResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// EntityResponse describes a product or software entry.
type EntityResponse struct {
	ID                 int64     `json:"id"`
	Vendor             int64     `json:"vendor"`
	VendorName         string    `json:"vendor_name"`
	Name               string    `json:"name"`
	EndOfLifeAnnounced *Date     `json:"end_of_life_announced_date"`
	EndOfEngineering   *Date     `json:"end_of_engineering_date"`
	EndOfSale          *Date     `json:"end_of_sale_date"`
	EndOfLife          *Date     `json:"end_of_life_date"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// NewEntityResponse maps an entity for output.
func NewEntityResponse(entity *domain.Entity) EntityResponse {
	return EntityResponse{
		ID:                 entity.ID,
		Vendor:             entity.VendorID,
		VendorName:         entity.VendorName,
		Name:               entity.Name,
		EndOfLifeAnnounced: toDate(entity.Lifecycle.EndOfLifeAnnounced),
		EndOfEngineering:   toDate(entity.Lifecycle.EndOfEngineering),
		EndOfSale:          toDate(entity.Lifecycle.EndOfSale),
		EndOfLife:          toDate(entity.Lifecycle.EndOfLife),
		CreatedAt:          entity.CreatedAt,
		UpdatedAt:          entity.UpdatedAt,
	}
}

func toDate(t *time.Time) *Date {
	if t == nil {
		return nil
	}
	return &Date{Time: *t}
}
