package tracking

import (
	"time"

	"github.com/BearBump/ParcelPortal/internal/models"
)

const (
	notAvailable = "N/A"

	eventDateLayout  = "2006-01-02"
	eventTimeLayout  = "15:04:05"
	timelineDate     = "Jan 2"
	timelineTime     = "3:04 PM"
	lastUpdateLayout = "1/2/2006, 3:04:05 PM"
)

// View is the public tracking document. ID is the tracking code.
type View struct {
	ID                string          `json:"id"`
	Status            string          `json:"status"`
	StatusTone        string          `json:"statusTone"`
	CurrentLocation   string          `json:"currentLocation"`
	Destination       string          `json:"destination"`
	EstimatedDelivery string          `json:"estimatedDelivery"`
	LastUpdate        string          `json:"lastUpdate"`
	Sender            Party           `json:"sender"`
	Recipient         Party           `json:"recipient"`
	Timeline          []TimelineEntry `json:"timeline"`
	PackageInfo       PackageInfo     `json:"packageInfo"`
}

type Party struct {
	Name    string  `json:"name"`
	Email   *string `json:"email,omitempty"`
	Phone   *string `json:"phone,omitempty"`
	Address string  `json:"address,omitempty"`
}

type TimelineEntry struct {
	Date        string `json:"date"`
	Time        string `json:"time"`
	Location    string `json:"location"`
	Status      string `json:"status"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
}

type PackageInfo struct {
	Weight     string `json:"weight"`
	Dimensions string `json:"dimensions"`
	Service    string `json:"service"`
}

// BuildView projects a package and its ordered events into the public view.
// events must already be in display order.
func BuildView(p *models.Package, events []*models.TrackingEvent) *View {
	v := &View{
		ID:                p.TrackingCode,
		Status:            p.Status,
		StatusTone:        models.StatusTone(p.Status),
		CurrentLocation:   p.CurrentLocation,
		Destination:       p.Destination,
		EstimatedDelivery: p.EstimatedDelivery,
		LastUpdate:        p.UpdatedAt.UTC().Format(lastUpdateLayout),
		Sender:            Party{Name: p.SenderName},
		Recipient: Party{
			Name:    p.RecipientName,
			Email:   p.RecipientEmail,
			Phone:   p.RecipientPhone,
			Address: p.RecipientAddress,
		},
		Timeline: make([]TimelineEntry, 0, len(events)),
		PackageInfo: PackageInfo{
			Weight:     orNA(p.Weight),
			Dimensions: orNA(p.Dimensions),
			Service:    p.ServiceType,
		},
	}
	for _, e := range events {
		v.Timeline = append(v.Timeline, TimelineEntry{
			Date:        reformat(e.EventDate, eventDateLayout, timelineDate),
			Time:        reformat(e.EventTime, eventTimeLayout, timelineTime),
			Location:    e.Location,
			Status:      e.Status,
			Description: e.Description,
			Completed:   e.Completed,
		})
	}
	return v
}

// reformat returns raw unchanged when it does not parse with layout.
func reformat(raw, layout, out string) string {
	t, err := time.Parse(layout, raw)
	if err != nil {
		return raw
	}
	return t.Format(out)
}

func orNA(s *string) string {
	if s == nil || *s == "" {
		return notAvailable
	}
	return *s
}
