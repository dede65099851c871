package models

import (
	"github.com/shopspring/decimal"
)

type RegisterRequest struct {
	Email     string  `json:"email" validate:"required,email"`
	Password  string  `json:"password" validate:"required,min=8"`
	FirstName string  `json:"firstName" validate:"required,min=2,max=50"`
	LastName  string  `json:"lastName" validate:"required,min=2,max=50"`
	Company   *string `json:"company" validate:"omitempty,max=100"`
	Phone     *string `json:"phone" validate:"omitempty,max=20"`
	Role      Role    `json:"role" validate:"required,oneof=CUSTOMER SUPPLIER"`
}

func (r RegisterRequest) Validate() error { return Validate(r) }

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (r LoginRequest) Validate() error { return Validate(r) }

type UpdateProfileRequest struct {
	FirstName *string `json:"firstName" validate:"omitempty,min=2,max=50"`
	LastName  *string `json:"lastName" validate:"omitempty,min=2,max=50"`
	Company   *string `json:"company" validate:"omitempty,max=100"`
	Phone     *string `json:"phone" validate:"omitempty,max=20"`
}

func (r UpdateProfileRequest) Validate() error { return Validate(r) }

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8"`
}

func (r ChangePasswordRequest) Validate() error { return Validate(r) }

type CreateProjectRequest struct {
	Title       string              `json:"title" validate:"required,min=3,max=100"`
	Description *string             `json:"description" validate:"omitempty,max=500"`
	StartDate   *Timestamp          `json:"startDate"`
	EndDate     *Timestamp          `json:"endDate"`
	Budget      decimal.NullDecimal `json:"budget" validate:"omitempty,gt=0,lte=999999999999.99"`
}

func (r CreateProjectRequest) Validate() error {
	return merge(Validate(r), checkDateOrder(r.StartDate, r.EndDate))
}

type UpdateProjectRequest struct {
	Title       *string             `json:"title" validate:"omitempty,min=3,max=100"`
	Description *string             `json:"description" validate:"omitempty,max=500"`
	Status      *ProjectStatus      `json:"status" validate:"omitempty,oneof=ACTIVE INACTIVE COMPLETED CANCELLED"`
	StartDate   *Timestamp          `json:"startDate"`
	EndDate     *Timestamp          `json:"endDate"`
	Budget      decimal.NullDecimal `json:"budget" validate:"omitempty,gt=0,lte=999999999999.99"`
}

func (r UpdateProjectRequest) Validate() error {
	return merge(Validate(r), checkDateOrder(r.StartDate, r.EndDate))
}

type CreateProductRequest struct {
	Name        string          `json:"name" validate:"required,min=2,max=100"`
	Description *string         `json:"description" validate:"omitempty,max=500"`
	Category    ProductCategory `json:"category" validate:"required,oneof=ELECTRONICS SOFTWARE HARDWARE SERVICES CONSULTING MAINTENANCE OTHER"`
	Unit        *string         `json:"unit" validate:"omitempty,max=20"`
}

func (r CreateProductRequest) Validate() error { return Validate(r) }

type UpdateProductRequest struct {
	Name        *string          `json:"name" validate:"omitempty,min=2,max=100"`
	Description *string          `json:"description" validate:"omitempty,max=500"`
	Category    *ProductCategory `json:"category" validate:"omitempty,oneof=ELECTRONICS SOFTWARE HARDWARE SERVICES CONSULTING MAINTENANCE OTHER"`
	Unit        *string          `json:"unit" validate:"omitempty,max=20"`
}

func (r UpdateProductRequest) Validate() error { return Validate(r) }

type RFPItemInput struct {
	ProductID int64   `json:"productId" validate:"required,gt=0"`
	Quantity  int     `json:"quantity" validate:"required,gt=0,lte=1000000"`
	Notes     *string `json:"notes" validate:"omitempty,max=200"`
}

type CreateRFPRequest struct {
	Title       string         `json:"title" validate:"required,min=3,max=100"`
	Description *string        `json:"description" validate:"omitempty,max=500"`
	StartDate   *Timestamp     `json:"startDate" validate:"required"`
	EndDate     *Timestamp     `json:"endDate" validate:"required"`
	Items       []RFPItemInput `json:"items" validate:"required,min=1,dive"`
}

func (r CreateRFPRequest) Validate() error {
	return merge(Validate(r), checkDateOrder(r.StartDate, r.EndDate))
}

// ProductIDs returns the distinct product ids referenced by the items.
func (r CreateRFPRequest) ProductIDs() []int64 {
	seen := make(map[int64]struct{}, len(r.Items))
	ids := make([]int64, 0, len(r.Items))
	for _, item := range r.Items {
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		ids = append(ids, item.ProductID)
	}
	return ids
}

type UpdateRFPRequest struct {
	Title       *string    `json:"title" validate:"omitempty,min=3,max=100"`
	Description *string    `json:"description" validate:"omitempty,max=500"`
	Status      *RFPStatus `json:"status" validate:"omitempty,oneof=DRAFT ACTIVE CLOSED CANCELLED"`
	IsActive    *bool      `json:"isActive"`
	StartDate   *Timestamp `json:"startDate"`
	EndDate     *Timestamp `json:"endDate"`
}

func (r UpdateRFPRequest) Validate() error {
	return merge(Validate(r), checkDateOrder(r.StartDate, r.EndDate))
}

type ToggleRFPRequest struct {
	IsActive *bool `json:"isActive" validate:"required"`
}

func (r ToggleRFPRequest) Validate() error { return Validate(r) }

type ProposalItemInput struct {
	RFPItemID int64           `json:"rfpItemId" validate:"required,gt=0"`
	UnitPrice decimal.Decimal `json:"unitPrice" validate:"gt=0,lte=999999999999.99"`
	Notes     *string         `json:"notes" validate:"omitempty,max=200"`
}

type CreateProposalRequest struct {
	RFPID int64               `json:"rfpId" validate:"required,gt=0"`
	Items []ProposalItemInput `json:"items" validate:"required,min=1,dive"`
	Notes *string             `json:"notes" validate:"omitempty,max=500"`
}

func (r CreateProposalRequest) Validate() error { return Validate(r) }

// UpdateProposalRequest replaces the priced items when Items is non-nil.
type UpdateProposalRequest struct {
	Items []ProposalItemInput `json:"items" validate:"omitempty,min=1,dive"`
	Notes *string             `json:"notes" validate:"omitempty,max=500"`
}

func (r UpdateProposalRequest) Validate() error { return Validate(r) }

type ProposalStatusRequest struct {
	Status ProposalStatus `json:"status" validate:"required,oneof=PENDING ACCEPTED REJECTED WITHDRAWN"`
}

func (r ProposalStatusRequest) Validate() error { return Validate(r) }

// ProposalDecisionRequest is the customer's accept or reject verdict.
type ProposalDecisionRequest struct {
	Status ProposalStatus `json:"status" validate:"required,oneof=ACCEPTED REJECTED"`
}

func (r ProposalDecisionRequest) Validate() error { return Validate(r) }

// CreateAdminRequest is used by the operator CLI; admins cannot self-register.
type CreateAdminRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"firstName" validate:"required,min=2,max=50"`
	LastName  string `json:"lastName" validate:"required,min=2,max=50"`
}

func (r CreateAdminRequest) Validate() error { return Validate(r) }
