package gtfs

// Data holds the subset of a GTFS static feed needed to build lines
type Data struct {
	Routes    []Route
	Stops     []Stop
	Trips     []Trip
	StopTimes []StopTime
}

// Route represents a route from routes.txt
type Route struct {
	RouteID        string
	AgencyID       string
	RouteShortName string
	RouteLongName  string
	RouteType      int
}

// Stop represents a stop from stops.txt.
// HasPosition is false when stop_lat/stop_lon are missing or unparsable.
type Stop struct {
	StopID      string
	StopName    string
	StopLat     float64
	StopLon     float64
	HasPosition bool
}

// Trip represents a trip from trips.txt
type Trip struct {
	RouteID     string
	ServiceID   string
	TripID      string
	DirectionID int
}

// StopTime represents a stop time from stop_times.txt
type StopTime struct {
	TripID       string
	StopID       string
	StopSequence int
}
