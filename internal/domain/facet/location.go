package facet

import (
	"context"
	"strconv"

	"go.uber.org/zap"

	"github.com/kailas-cloud/facetsearch/internal/domain/geo"
	"github.com/kailas-cloud/facetsearch/internal/domain/query"
	"github.com/kailas-cloud/facetsearch/internal/domain/response"
	"github.com/kailas-cloud/facetsearch/internal/eventloop"
)

// DefaultRadius is the radius in meters proposed when the location picker opens.
const DefaultRadius = 500

// Geocoder turns a coordinate into a display string.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, lat, lng string) (string, error)
}

// Point is a map coordinate.
type Point = geo.Point

// LocationConfig wires the reverse-geocoding sub-request.
// Ctx bounds every geocode request; Geocoder and Scheduler may be nil,
// in which case no description is resolved.
type LocationConfig struct {
	Ctx           context.Context
	Geocoder      Geocoder
	Scheduler     eventloop.Scheduler
	DefaultRadius int
	Logger        *zap.Logger
}

// Location filters by distance around a point. Nothing is encoded until a
// positive radius is set.
type Location struct {
	lat    string
	lng    string
	radius int

	marker        *Point
	defaultRadius int

	description string
	descLat     string
	descLng     string
	pendingLat  string
	pendingLng  string

	ctx      context.Context
	geocoder Geocoder
	sched    eventloop.Scheduler
	logger   *zap.Logger
}

// NewLocation creates an unset location facet.
func NewLocation(cfg LocationConfig) *Location {
	if cfg.Ctx == nil {
		cfg.Ctx = context.Background()
	}
	if cfg.DefaultRadius <= 0 {
		cfg.DefaultRadius = DefaultRadius
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Location{
		defaultRadius: cfg.DefaultRadius,
		ctx:           cfg.Ctx,
		geocoder:      cfg.Geocoder,
		sched:         cfg.Scheduler,
		logger:        cfg.Logger,
	}
}

// Lat returns the encoded latitude, or "".
func (l *Location) Lat() string { return l.lat }

// Lng returns the encoded longitude, or "".
func (l *Location) Lng() string { return l.lng }

// Radius returns the encoded radius in meters; 0 means unset.
func (l *Location) Radius() int { return l.radius }

// DefaultRadius returns the radius the picker proposes.
func (l *Location) DefaultRadius() int { return l.defaultRadius }

// Marker returns the placed marker, if any.
func (l *Location) Marker() (Point, bool) {
	if l.marker == nil {
		return Point{}, false
	}
	return *l.marker, true
}

// Place puts the single map marker at p, replacing any previous one.
// The encoded state changes only on Apply.
func (l *Location) Place(p Point) {
	l.marker = &p
}

// Apply copies the marker position and radius into the encoded state.
// It does nothing without a marker or with a non-positive radius.
func (l *Location) Apply(radius int) bool {
	if l.marker == nil || radius <= 0 {
		return false
	}
	l.lat = formatCoord(l.marker.Lat)
	l.lng = formatCoord(l.marker.Lng)
	l.radius = radius
	l.refreshDescription()
	return true
}

// Discard removes the marker and resets the radius to 0.
func (l *Location) Discard() {
	l.marker = nil
	l.radius = 0
	l.refreshDescription()
}

// Description returns the reverse-geocoded label of the active location.
// ok is false while the location is unset or the label is still resolving.
func (l *Location) Description() (string, bool) {
	if !l.active() || l.description == "" {
		return "", false
	}
	return l.description, true
}

// Resolving reports whether a label request for the current coordinate is in flight.
func (l *Location) Resolving() bool { return l.pendingLat != "" }

// QueryString implements Facet.
func (l *Location) QueryString() string {
	if l.radius <= 0 {
		return ""
	}
	return query.Token(query.KeyLat, l.lat) +
		query.Token(query.KeyLng, l.lng) +
		query.Token(query.KeyRadius, strconv.Itoa(l.radius))
}

// SetFromQueryString implements Facet. All three keys are required.
func (l *Location) SetFromQueryString(params query.Params) {
	if params.Has(query.KeyLat) && params.Has(query.KeyLng) && params.Has(query.KeyRadius) {
		l.lat = params.Get(query.KeyLat)
		l.lng = params.Get(query.KeyLng)
		l.radius, _ = strconv.Atoi(params.Get(query.KeyRadius))
		l.marker = nil
		if p, err := geo.Parse(l.lat, l.lng); err == nil {
			l.marker = &p
		}
	} else {
		l.lat = ""
		l.lng = ""
		l.radius = 0
		l.marker = nil
	}
	l.refreshDescription()
}

// Update implements Facet. The location has no server-side counts.
func (l *Location) Update(*response.Response) {}

func (l *Location) sealed() {}

func (l *Location) active() bool {
	return l.lat != "" && l.lng != "" && l.radius > 0
}

// refreshDescription resolves the label for the current coordinate. Only the
// answer for the coordinate still selected when it arrives is kept.
func (l *Location) refreshDescription() {
	if !l.active() {
		l.pendingLat, l.pendingLng = "", ""
		return
	}
	if l.descLat == l.lat && l.descLng == l.lng {
		return
	}
	if l.pendingLat == l.lat && l.pendingLng == l.lng {
		return
	}

	l.description, l.descLat, l.descLng = "", "", ""
	if l.geocoder == nil || l.sched == nil {
		return
	}

	lat, lng := l.lat, l.lng
	l.pendingLat, l.pendingLng = lat, lng
	ctx, geocoder, logger := l.ctx, l.geocoder, l.logger

	l.sched.Go(func() func() {
		formatted, err := geocoder.ReverseGeocode(ctx, lat, lng)
		return func() {
			if l.pendingLat == lat && l.pendingLng == lng {
				l.pendingLat, l.pendingLng = "", ""
			}
			if err != nil {
				logger.Warn("Reverse geocoding failed",
					zap.String("lat", lat), zap.String("lng", lng), zap.Error(err))
				return
			}
			if l.lat != lat || l.lng != lng {
				return
			}
			l.description, l.descLat, l.descLng = formatted, lat, lng
		}
	})
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
