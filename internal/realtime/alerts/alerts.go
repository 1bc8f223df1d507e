package alerts

import (
	"strings"
	"time"

	gtfs "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
)

// Event type codes fed to the model's event_type_code feature
const (
	EventTypeNone        = 0
	EventTypePublicOrder = 1 // strikes and demonstrations
	EventTypeHoliday     = 2
	EventTypeOther       = 3
)

// Alert is a service alert extracted from a GTFS-RT feed
type Alert struct {
	ID       string
	Cause    string
	Effect   string
	Periods  []Period
	RouteIDs []string
}

// Period is an active window; nil bounds are open
type Period struct {
	Start *time.Time
	End   *time.Time
}

// CauseMap maps the GTFS-RT Cause enum to its name
var CauseMap = map[int32]string{
	1:  "UNKNOWN_CAUSE",
	2:  "OTHER_CAUSE",
	3:  "TECHNICAL_PROBLEM",
	4:  "STRIKE",
	5:  "DEMONSTRATION",
	6:  "ACCIDENT",
	7:  "HOLIDAY",
	8:  "WEATHER",
	9:  "MAINTENANCE",
	10: "CONSTRUCTION",
	11: "POLICE_ACTIVITY",
	12: "MEDICAL_EMERGENCY",
}

// EffectMap maps the GTFS-RT Effect enum to its name
var EffectMap = map[int32]string{
	1:  "NO_SERVICE",
	2:  "REDUCED_SERVICE",
	3:  "SIGNIFICANT_DELAYS",
	4:  "DETOUR",
	5:  "ADDITIONAL_SERVICE",
	6:  "MODIFIED_SERVICE",
	7:  "OTHER_EFFECT",
	8:  "UNKNOWN_EFFECT",
	9:  "STOP_MOVED",
	10: "NO_EFFECT",
	11: "ACCESSIBILITY_ISSUE",
}

// EventTypeForCause maps an alert cause name to an event type code
func EventTypeForCause(cause string) int {
	switch cause {
	case "STRIKE", "DEMONSTRATION":
		return EventTypePublicOrder
	case "HOLIDAY":
		return EventTypeHoliday
	default:
		return EventTypeOther
	}
}

// ActiveAt reports whether any period covers t. An alert without
// periods is always active.
func (a Alert) ActiveAt(t time.Time) bool {
	if len(a.Periods) == 0 {
		return true
	}
	for _, p := range a.Periods {
		if p.Start != nil && t.Before(*p.Start) {
			continue
		}
		if p.End != nil && t.After(*p.End) {
			continue
		}
		return true
	}
	return false
}

// Affects reports whether the alert names line among its informed routes
func (a Alert) Affects(line string) bool {
	for _, id := range a.RouteIDs {
		if strings.EqualFold(id, line) {
			return true
		}
	}
	return false
}

// ParseFeed extracts the alerts of a decoded feed. Entities without an
// id or an alert body are skipped.
func ParseFeed(feed *gtfs.FeedMessage) []Alert {
	var out []Alert
	for _, entity := range feed.GetEntity() {
		alert := entity.GetAlert()
		if alert == nil || entity.GetId() == "" {
			continue
		}

		parsed := Alert{ID: entity.GetId()}

		if alert.Cause != nil {
			parsed.Cause = CauseMap[int32(alert.GetCause())]
		}
		if alert.Effect != nil {
			parsed.Effect = EffectMap[int32(alert.GetEffect())]
		}

		for _, period := range alert.GetActivePeriod() {
			var p Period
			if period.Start != nil {
				t := time.Unix(int64(period.GetStart()), 0).UTC()
				p.Start = &t
			}
			if period.End != nil {
				t := time.Unix(int64(period.GetEnd()), 0).UTC()
				p.End = &t
			}
			parsed.Periods = append(parsed.Periods, p)
		}

		for _, ie := range alert.GetInformedEntity() {
			if ie.GetRouteId() != "" {
				parsed.RouteIDs = append(parsed.RouteIDs, ie.GetRouteId())
			}
		}

		out = append(out, parsed)
	}
	return out
}
