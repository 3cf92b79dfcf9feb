package model

type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

type CatalogEntry struct {
	ID            string   `json:"id"`
	CanonicalName string   `json:"canonical_name"`
	Category      string   `json:"category"`
	Aliases       []string `json:"aliases,omitempty"`
}

// VendorOffer is a validated listing. Offers only exist in a snapshot once
// their record passed the catalog boundary checks.
type VendorOffer struct {
	OfferID        string         `json:"offer_id"`
	VendorID       string         `json:"vendor_id"`
	VendorName     string         `json:"vendor_name"`
	Company        string         `json:"company,omitempty"`
	CatalogEntryID string         `json:"catalog_entry_id"`
	Price          float64        `json:"price"`
	Unit           string         `json:"unit,omitempty"`
	Stock          int            `json:"stock"`
	LeadTimeDays   int            `json:"lead_time_days"`
	Rating         float64        `json:"rating"`
	Available      bool           `json:"available"`
	ApprovalStatus ApprovalStatus `json:"approval_status"`
}

func (o VendorOffer) Approved() bool {
	return o.ApprovalStatus == ApprovalApproved
}

// InStock reports whether the vendor can deliver now: stock on hand and not
// marked unavailable.
func (o VendorOffer) InStock() bool {
	return o.Available && o.Stock > 0
}

// OfferRecord is the loosely structured shape offers arrive in from a
// catalog source. Price, stock, lead time and rating are optional here so a
// missing value can be told apart from a zero.
type OfferRecord struct {
	OfferID        string   `json:"offer_id"`
	VendorID       string   `json:"vendor_id"`
	VendorName     string   `json:"vendor_name"`
	Company        string   `json:"company,omitempty"`
	CatalogEntryID string   `json:"catalog_entry_id"`
	Price          *float64 `json:"price,omitempty"`
	Unit           string   `json:"unit,omitempty"`
	Stock          *int     `json:"stock,omitempty"`
	LeadTimeDays   *int     `json:"lead_time_days,omitempty"`
	Rating         *float64 `json:"rating,omitempty"`
	Available      *bool    `json:"available,omitempty"`
	ApprovalStatus string   `json:"approval_status"`
}
