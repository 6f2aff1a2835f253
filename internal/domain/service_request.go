package domain

import "time"

// ServiceRequestStatus enumerates the lifecycle of a field service visit.
type ServiceRequestStatus string

const (
	ServiceRequestReceived   ServiceRequestStatus = "RECEIVED"
	ServiceRequestScheduled  ServiceRequestStatus = "SCHEDULED"
	ServiceRequestInProgress ServiceRequestStatus = "IN_PROGRESS"
	ServiceRequestDone       ServiceRequestStatus = "DONE"
)

// Valid reports whether s is a known status.
func (s ServiceRequestStatus) Valid() bool {
	switch s {
	case ServiceRequestReceived, ServiceRequestScheduled, ServiceRequestInProgress, ServiceRequestDone:
		return true
	}
	return false
}

// ServiceRequest is an after-sales ticket raised for a farm's equipment.
type ServiceRequest struct {
	ID            int64
	FarmCode      string
	EquipmentCode string
	Category      string
	Title         string
	Description   string
	Status        ServiceRequestStatus
	RequestedBy   string
	VisitDate     *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// StatusCount is one row of the dashboard status breakdown.
type StatusCount struct {
	Status ServiceRequestStatus
	Count  int64
}
