package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Role string

const (
	RoleCustomer Role = "CUSTOMER"
	RoleSupplier Role = "SUPPLIER"
	RoleAdmin    Role = "ADMIN"
)

type ProjectStatus string

const (
	ProjectActive    ProjectStatus = "ACTIVE"
	ProjectInactive  ProjectStatus = "INACTIVE"
	ProjectCompleted ProjectStatus = "COMPLETED"
	ProjectCancelled ProjectStatus = "CANCELLED"
)

type ProductCategory string

const (
	CategoryElectronics ProductCategory = "ELECTRONICS"
	CategorySoftware    ProductCategory = "SOFTWARE"
	CategoryHardware    ProductCategory = "HARDWARE"
	CategoryServices    ProductCategory = "SERVICES"
	CategoryConsulting  ProductCategory = "CONSULTING"
	CategoryMaintenance ProductCategory = "MAINTENANCE"
	CategoryOther       ProductCategory = "OTHER"
)

func ValidProductCategory(c ProductCategory) bool {
	switch c {
	case CategoryElectronics, CategorySoftware, CategoryHardware, CategoryServices,
		CategoryConsulting, CategoryMaintenance, CategoryOther:
		return true
	default:
		return false
	}
}

type RFPStatus string

const (
	RFPDraft     RFPStatus = "DRAFT"
	RFPActive    RFPStatus = "ACTIVE"
	RFPClosed    RFPStatus = "CLOSED"
	RFPCancelled RFPStatus = "CANCELLED"
)

type ProposalStatus string

const (
	ProposalPending   ProposalStatus = "PENDING"
	ProposalAccepted  ProposalStatus = "ACCEPTED"
	ProposalRejected  ProposalStatus = "REJECTED"
	ProposalWithdrawn ProposalStatus = "WITHDRAWN"
)

// User is an account. The password hash never leaves the service.
type User struct {
	ID           int64     `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password" json:"-"`
	FirstName    string    `db:"first_name" json:"firstName"`
	LastName     string    `db:"last_name" json:"lastName"`
	Company      *string   `db:"company" json:"company"`
	Phone        *string   `db:"phone" json:"phone"`
	Role         Role      `db:"role" json:"role"`
	IsActive     bool      `db:"is_active" json:"isActive"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

// Project is owned by one customer and groups products and RFPs.
type Project struct {
	ID          int64               `db:"id" json:"id"`
	Title       string              `db:"title" json:"title"`
	Description *string             `db:"description" json:"description"`
	Status      ProjectStatus       `db:"status" json:"status"`
	Budget      decimal.NullDecimal `db:"budget" json:"budget"`
	StartDate   *time.Time          `db:"start_date" json:"startDate"`
	EndDate     *time.Time          `db:"end_date" json:"endDate"`
	CustomerID  int64               `db:"customer_id" json:"customerId"`
	CreatedAt   time.Time           `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time           `db:"updated_at" json:"updatedAt"`

	Customer *User     `db:"-" json:"customer,omitempty"`
	Products []Product `db:"-" json:"products,omitempty"`
	RFPs     []RFP     `db:"-" json:"rfps,omitempty"`
}

type Product struct {
	ID          int64           `db:"id" json:"id"`
	Name        string          `db:"name" json:"name"`
	Description *string         `db:"description" json:"description"`
	Category    ProductCategory `db:"category" json:"category"`
	Unit        *string         `db:"unit" json:"unit"`
	ProjectID   int64           `db:"project_id" json:"projectId"`
	CreatedAt   time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updatedAt"`
}

// RFP is a request for proposals. Status and IsActive are independent flags;
// see AvailableAt for how they combine.
type RFP struct {
	ID          int64     `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Description *string   `db:"description" json:"description"`
	Status      RFPStatus `db:"status" json:"status"`
	IsActive    bool      `db:"is_active" json:"isActive"`
	StartDate   time.Time `db:"start_date" json:"startDate"`
	EndDate     time.Time `db:"end_date" json:"endDate"`
	ProjectID   int64     `db:"project_id" json:"projectId"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`

	Project   *Project   `db:"-" json:"project,omitempty"`
	Items     []RFPItem  `db:"-" json:"items"`
	Proposals []Proposal `db:"-" json:"proposals,omitempty"`
}

// AvailableAt reports whether the RFP accepts proposals at the given instant.
// The SQL store applies the same predicate in its WHERE clause.
func (r RFP) AvailableAt(now time.Time) bool {
	return r.Status == RFPActive && r.IsActive && !r.EndDate.Before(now)
}

// ItemIndex maps RFP item ids to the items.
func (r RFP) ItemIndex() map[int64]RFPItem {
	index := make(map[int64]RFPItem, len(r.Items))
	for _, item := range r.Items {
		index[item.ID] = item
	}
	return index
}

type RFPItem struct {
	ID        int64     `db:"id" json:"id"`
	RFPID     int64     `db:"rfp_id" json:"rfpId"`
	ProductID int64     `db:"product_id" json:"productId"`
	Quantity  int       `db:"quantity" json:"quantity"`
	Notes     *string   `db:"notes" json:"notes"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`

	Product *Product `db:"-" json:"product,omitempty"`
}

type Proposal struct {
	ID          int64           `db:"id" json:"id"`
	RFPID       int64           `db:"rfp_id" json:"rfpId"`
	SupplierID  int64           `db:"supplier_id" json:"supplierId"`
	Status      ProposalStatus  `db:"status" json:"status"`
	TotalAmount decimal.Decimal `db:"total_amount" json:"totalAmount"`
	Notes       *string         `db:"notes" json:"notes"`
	SubmittedAt time.Time       `db:"submitted_at" json:"submittedAt"`
	CreatedAt   time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updatedAt"`

	Supplier *User          `db:"-" json:"supplier,omitempty"`
	RFP      *RFP           `db:"-" json:"rfp,omitempty"`
	Items    []ProposalItem `db:"-" json:"items,omitempty"`
}

type ProposalItem struct {
	ID         int64           `db:"id" json:"id"`
	ProposalID int64           `db:"proposal_id" json:"proposalId"`
	RFPItemID  int64           `db:"rfp_item_id" json:"rfpItemId"`
	UnitPrice  decimal.Decimal `db:"unit_price" json:"unitPrice"`
	TotalPrice decimal.Decimal `db:"total_price" json:"totalPrice"`
	Notes      *string         `db:"notes" json:"notes"`
	CreatedAt  time.Time       `db:"created_at" json:"createdAt"`

	RFPItem *RFPItem `db:"-" json:"rfpItem,omitempty"`
}
