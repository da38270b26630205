package ghm

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

var ErrBadMap = errors.New("invalid map request")

// TrackPoint is one recorded position of the CanSat.
type TrackPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
	Ts  float64 `json:"ts,omitempty"`
}

// Track extracts the positions of entries carrying both coordinates.
func (mc MapConfig) Track(data []Entry) []TrackPoint {
	res := []TrackPoint{}
	for _, e := range data {
		lat, okLat := e.Float(mc.Latitude)
		lon, okLon := e.Float(mc.Longitude)
		if !okLat || !okLon {
			continue
		}
		ts, _ := e.Float("ts")
		res = append(res, TrackPoint{Lat: lat, Lon: lon, Ts: ts})
	}
	return res
}

// MapRequest holds the choices of the map form.
type MapRequest struct {
	Title string
	Icon  string
	Color string
	Zoom  int
}

// Resolve fills the defaults and checks the choices against the catalog.
func (mc MapConfig) Resolve(req MapRequest) (MapRequest, error) {
	if req.Title == "" {
		req.Title = mc.DefaultTitle
	}
	if req.Icon == "" {
		req.Icon = mc.DefaultIcon
	}
	if req.Color == "" {
		req.Color = mc.IconColor
	}
	if req.Zoom == 0 {
		req.Zoom = mc.DefaultZoom
	}
	switch {
	case len(mc.Icons) > 0 && !contains(mc.Icons, req.Icon):
		return req, fmt.Errorf("%w: icon %q", ErrBadMap, req.Icon)
	case len(mc.IconColors) > 0 && !contains(mc.IconColors, req.Color):
		return req, fmt.Errorf("%w: color %q", ErrBadMap, req.Color)
	case req.Zoom < 1 || req.Zoom > 19:
		return req, fmt.Errorf("%w: zoom %d", ErrBadMap, req.Zoom)
	}
	return req, nil
}

type mapModel struct {
	MapRequest
	Config MapConfig
	Track  []TrackPoint
}

func (ht *HttpServer[R]) track(c *gin.Context) {
	c.JSON(http.StatusOK, ht.Catalog.Map.Track(ht.mem.Data(ht.ToRawConverter)))
}

func (ht *HttpServer[R]) mapPage(c *gin.Context) {
	req := MapRequest{
		Title: c.Query("title"),
		Icon:  c.Query("icon"),
		Color: c.Query("color"),
	}
	if z := c.Query("zoom"); z != "" {
		v, err := strconv.Atoi(z)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid zoom"})
			return
		}
		req.Zoom = v
	}
	req, err := ht.Catalog.Map.Resolve(req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	m := mapModel{
		MapRequest: req,
		Config:     ht.Catalog.Map,
		Track:      ht.Catalog.Map.Track(ht.mem.Data(ht.ToRawConverter)),
	}
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := ht.mapContent.Execute(c.Writer, &m); err != nil {
		log.Println(err)
	}
}
