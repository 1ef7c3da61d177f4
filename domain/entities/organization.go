package entities

import (
	"fmt"
	"time"
)

// BillingPlan is an organization's subscription tier, updated by the billing
// provider callback.
type BillingPlan string

const (
	BillingPlanFree BillingPlan = "FREE"
	BillingPlanPaid BillingPlan = "PAID"
)

// Organization owns teams and carries the billing plan.
type Organization struct {
	ID          string
	Name        string
	CreatedBy   string
	BillingPlan BillingPlan
	CreatedAt   time.Time
}

// NewOrganization creates an organization on the free plan.
func NewOrganization(name, createdBy string) (*Organization, error) {
	if name == "" {
		return nil, fmt.Errorf("organization name is required")
	}
	return &Organization{
		ID:          NewOrganizationID(),
		Name:        name,
		CreatedBy:   createdBy,
		BillingPlan: BillingPlanFree,
		CreatedAt:   time.Now().UTC(),
	}, nil
}
