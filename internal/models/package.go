package models

import "time"

type Package struct {
	ID                string    `json:"id"`
	TrackingCode      string    `json:"trackingCode"`
	SenderName        string    `json:"senderName"`
	RecipientName     string    `json:"recipientName"`
	RecipientEmail    *string   `json:"recipientEmail,omitempty"`
	RecipientPhone    *string   `json:"recipientPhone,omitempty"`
	RecipientAddress  string    `json:"recipientAddress"`
	CurrentLocation   string    `json:"currentLocation"`
	Destination       string    `json:"destination"`
	EstimatedDelivery string    `json:"estimatedDelivery"`
	Weight            *string   `json:"weight,omitempty"`
	Dimensions        *string   `json:"dimensions,omitempty"`
	ServiceType       string    `json:"serviceType"`
	Status            string    `json:"status"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// TrackingEvent keeps date and time as separate components: EventDate is
// "2006-01-02", EventTime is "15:04:05".
type TrackingEvent struct {
	ID          string    `json:"id"`
	PackageID   string    `json:"packageId"`
	EventDate   string    `json:"eventDate"`
	EventTime   string    `json:"eventTime"`
	Location    string    `json:"location"`
	Status      string    `json:"status"`
	Description string    `json:"description"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"createdAt"`
}

type PackageCreateInput struct {
	SenderName        string  `json:"senderName" validate:"required"`
	RecipientName     string  `json:"recipientName" validate:"required"`
	RecipientEmail    *string `json:"recipientEmail"`
	RecipientPhone    *string `json:"recipientPhone"`
	RecipientAddress  string  `json:"recipientAddress" validate:"required"`
	CurrentLocation   string  `json:"currentLocation" validate:"required"`
	Destination       string  `json:"destination" validate:"required"`
	EstimatedDelivery string  `json:"estimatedDelivery" validate:"required"`
	Weight            *string `json:"weight"`
	Dimensions        *string `json:"dimensions"`
	ServiceType       string  `json:"serviceType"`
	Status            string  `json:"status" validate:"omitempty,lifecycle"`
}

// PackageUpdate carries only the fields an admin supplied; nil means "leave as is".
type PackageUpdate struct {
	Status            *string `json:"status" validate:"omitempty,lifecycle"`
	CurrentLocation   *string `json:"currentLocation" validate:"omitempty,min=1"`
	EstimatedDelivery *string `json:"estimatedDelivery" validate:"omitempty,min=1"`

	UpdatedAt time.Time `json:"-"`
}

type AdminUser struct {
	ID           string
	Email        string
	PasswordHash string
	FullName     string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
