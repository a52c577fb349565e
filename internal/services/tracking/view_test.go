package tracking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/BearBump/ParcelPortal/internal/models"
)

func TestBuildView(t *testing.T) {
	email := "jane@example.com"
	weight := "2.5 kg"
	p := &models.Package{
		ID:                "p1",
		TrackingCode:      "CLAB12CD34EF",
		SenderName:        "Acme Corp",
		RecipientName:     "Jane Doe",
		RecipientEmail:    &email,
		RecipientAddress:  "1 Main St",
		CurrentLocation:   "Lagos",
		Destination:       "Springfield",
		EstimatedDelivery: "June 10, 2025",
		Weight:            &weight,
		ServiceType:       "Express",
		Status:            models.StatusPickedUpByCustoms,
		UpdatedAt:         time.Date(2025, 6, 3, 16, 5, 9, 0, time.UTC),
	}
	events := []*models.TrackingEvent{
		{EventDate: "2025-06-01", EventTime: "09:05:00", Location: "Lagos", Status: models.StatusAwaitingShipment, Description: "Package picked up from Lagos", Completed: true},
		{EventDate: "2025-06-03", EventTime: "16:05:09", Location: "Accra", Status: models.StatusPickedUpByCustoms, Description: "Status updated to Picked up by customs for clearance", Completed: false},
	}

	v := BuildView(p, events)
	require.Equal(t, "CLAB12CD34EF", v.ID)
	require.Equal(t, models.ToneCustoms, v.StatusTone)
	require.Equal(t, "6/3/2025, 4:05:09 PM", v.LastUpdate)
	require.Equal(t, Party{Name: "Acme Corp"}, v.Sender)
	require.Equal(t, &email, v.Recipient.Email)
	require.Nil(t, v.Recipient.Phone)
	require.Equal(t, PackageInfo{Weight: "2.5 kg", Dimensions: "N/A", Service: "Express"}, v.PackageInfo)

	require.Len(t, v.Timeline, 2)
	require.Equal(t, TimelineEntry{
		Date: "Jun 1", Time: "9:05 AM", Location: "Lagos",
		Status: models.StatusAwaitingShipment, Description: "Package picked up from Lagos", Completed: true,
	}, v.Timeline[0])
	require.Equal(t, "Jun 3", v.Timeline[1].Date)
	require.Equal(t, "4:05 PM", v.Timeline[1].Time)
	require.False(t, v.Timeline[1].Completed)
}

func TestBuildView_UnknownStatusAndRawTimestamps(t *testing.T) {
	p := &models.Package{TrackingCode: "CL0000000000", Status: "Lost at sea", ServiceType: "Standard Shipping"}
	events := []*models.TrackingEvent{{EventDate: "yesterday", EventTime: "noon"}}

	v := BuildView(p, events)
	require.Equal(t, models.ToneOther, v.StatusTone)
	require.Equal(t, "yesterday", v.Timeline[0].Date)
	require.Equal(t, "noon", v.Timeline[0].Time)
	require.Equal(t, "N/A", v.PackageInfo.Weight)
}

func TestBuildView_NoEvents(t *testing.T) {
	v := BuildView(&models.Package{TrackingCode: "CL0000000000"}, nil)
	require.NotNil(t, v.Timeline)
	require.Empty(t, v.Timeline)
}
