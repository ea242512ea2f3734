package customer

import (
	"strings"
	"time"
)

// Status is a customer's payment state for the current billing cycle.
type Status string

const (
	StatusPaid   Status = "paid"
	StatusUnpaid Status = "unpaid" // initial state for new customers
)

// ServiceType distinguishes the two subscription products.
type ServiceType string

const (
	ServiceCable    ServiceType = "cable"
	ServiceInternet ServiceType = "internet"
)

// Customer represents a subscription customer.
// Deleted customers live in the recycle bin: they are invisible to every
// engine operation except restore, and are only hard-deleted by an explicit
// purge.
type Customer struct {
	ID                string      `json:"id"`
	Name              string      `json:"name"`
	ServiceType       ServiceType `json:"type"`
	Packages          []string    `json:"packages"` // order-preserving, duplicates allowed
	Status            Status      `json:"status"`
	Address           string      `json:"address"`
	Mobile            string      `json:"mobile"`
	BoxNumber         string      `json:"boxNumber,omitempty"`  // cable set-top box
	MACAddress        string      `json:"macAddress,omitempty"` // internet CPE
	LastPaymentDate   *time.Time  `json:"lastPaymentDate,omitempty"`
	ExcludedFromReset bool        `json:"excludedFromReset"`
	Deleted           bool        `json:"deleted"`
	CreatedAt         time.Time   `json:"createdAt"`
	UpdatedAt         time.Time   `json:"updatedAt"`
}

// Package is a single subscribable channel package or internet plan.
type Package struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	ServiceType ServiceType `json:"type"`
	Price       float64     `json:"price"`
}

// Bundle groups several packages under one price. Bundles are not scoped by
// service type; backup and restore always treat them all-or-nothing.
type Bundle struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	PackageIDs []string `json:"packageIds"`
	Price      float64  `json:"price"`
}

// JoinPackages renders the package list in its comma-joined storage form.
func JoinPackages(pkgs []string) string {
	return strings.Join(pkgs, ",")
}

// SplitPackages parses the comma-joined storage form. An empty string means
// no packages, not one empty package name.
func SplitPackages(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}
