package ghm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/LC-Sat/web-application-online/pkg/axis"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

const formCookie = "cansat_form"

// formSession is the server side state of one browser's chart form.
type formSession struct {
	sel *axis.Select
	ctl *axis.Controller
}

type axisChange struct {
	X string `json:"x" binding:"required"`
}

type axisState struct {
	X      string       `json:"x"`
	Series []axis.State `json:"series"`
}

type HttpServer[R any] struct {
	port     int
	sessions int
	fields   string
	engine   *gin.Engine
	srv      *http.Server

	mem MemoryConsumer[R]

	ToJsonConverter func(R) any
	// ToRawConverter must return a new Entry on every call.
	ToRawConverter func(R) Entry
	Catalog        *Catalog

	forms        *lru.Cache[string, *formSession]
	renderer     *ChartRenderer
	indexContent *template.Template
	mapContent   *template.Template
	name         string
}

func (ht *HttpServer[R]) Setup(cmd *cobra.Command, name string) {
	cmd.PersistentFlags().IntVar(&ht.port, "port", 2999, "Http port")
	cmd.PersistentFlags().IntVar(&ht.sessions, "form-sessions", 1024, "Chart form sessions kept in memory")
	cmd.PersistentFlags().StringVar(&ht.fields, "fields", "", "Field catalog (YAML), built-in catalog when empty")
	ht.mem.Setup(cmd, name)
	ht.name = name
}

func (ht *HttpServer[R]) Init(d bool) error {
	if err := ht.prepare(d); err != nil {
		return err
	}
	ht.srv = &http.Server{
		Addr:    fmt.Sprintf(":%d", ht.port),
		Handler: ht.engine,
	}
	go func() {
		if err := ht.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()
	log.Printf("Chart server listening on :%d", ht.port)
	return nil
}

// prepare builds everything but the listener.
func (ht *HttpServer[R]) prepare(d bool) error {
	if err := ht.mem.Init(d); err != nil {
		return err
	}
	if ht.ToJsonConverter == nil {
		ht.ToJsonConverter = func(r R) any { return r }
	}
	if ht.ToRawConverter == nil {
		ht.ToRawConverter = func(r R) Entry { return Entry{"value": r} }
	}
	if ht.Catalog == nil {
		c, err := LoadCatalog(ht.fields)
		if err != nil {
			return err
		}
		ht.Catalog = c
	}
	if err := ht.Catalog.Validate(); err != nil {
		return err
	}
	if ht.sessions <= 0 {
		ht.sessions = 1024
	}
	var err error
	ht.forms, err = lru.NewWithEvict[string, *formSession](ht.sessions, func(string, *formSession) {
		formSessions.Dec()
	})
	if err != nil {
		return err
	}
	ht.renderer = &ChartRenderer{Catalog: ht.Catalog}
	if ht.indexContent, err = template.New("index").Parse(index_html); err != nil {
		return err
	}
	if ht.mapContent, err = template.New("map").Parse(map_html); err != nil {
		return err
	}

	if !d {
		gin.SetMode(gin.ReleaseMode)
	}
	ht.engine = gin.Default()
	ht.engine.GET("/", ht.index)
	ht.engine.GET("/api/v1/current", ht.current)
	ht.engine.GET("/api/v1/data", ht.data)
	ht.engine.GET("/api/v1/fields", ht.catalog)
	ht.engine.GET("/api/v1/axis", ht.formState)
	ht.engine.POST("/api/v1/axis", ht.changeAxis)
	ht.engine.GET("/api/v1/chart.png", ht.chart)
	ht.engine.GET("/map", ht.mapPage)
	ht.engine.GET("/api/v1/track", ht.track)
	ht.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return nil
}

func (ht *HttpServer[R]) Consume(v R) error {
	return ht.mem.Consume(v)
}

func (ht *HttpServer[R]) Close() error {
	if ht.srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := ht.srv.Shutdown(ctx); err != nil {
			log.Println(err)
		}
	}
	return ht.mem.Close()
}

// form returns the chart form of the caller, creating one on first visit.
func (ht *HttpServer[R]) form(c *gin.Context) (*formSession, error) {
	if id, err := c.Cookie(formCookie); err == nil {
		if fs, ok := ht.forms.Get(id); ok {
			return fs, nil
		}
	}
	sel, ctl, err := ht.Catalog.NewForm()
	if err != nil {
		return nil, err
	}
	fs := &formSession{sel: sel, ctl: ctl}
	id := uuid.NewString()
	ht.forms.Add(id, fs)
	formSessions.Inc()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(formCookie, id, 0, "/", "", false, true)
	return fs, nil
}

func (ht *HttpServer[R]) current(c *gin.Context) {
	v, ok := ht.mem.Last()
	if !ok {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, ht.ToJsonConverter(v))
}

func (ht *HttpServer[R]) data(c *gin.Context) {
	c.JSON(http.StatusOK, ht.mem.Data(ht.ToRawConverter))
}

func (ht *HttpServer[R]) catalog(c *gin.Context) {
	c.JSON(http.StatusOK, ht.Catalog)
}

func (ht *HttpServer[R]) formState(c *gin.Context) {
	fs, err := ht.form(c)
	if err != nil {
		c.AbortWithError(http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, axisState{X: fs.sel.Value(), Series: fs.ctl.Snapshot()})
}

func (ht *HttpServer[R]) changeAxis(c *gin.Context) {
	var req axisChange
	if err := c.ShouldBindJSON(&req); err != nil {
		axisChangesTotal.WithLabelValues("invalid").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if _, ok := ht.Catalog.Lookup(req.X); !ok {
		axisChangesTotal.WithLabelValues("unknown").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("%v: %q", axis.ErrUnknownField, req.X)})
		return
	}
	fs, err := ht.form(c)
	if err != nil {
		c.AbortWithError(http.StatusInternalServerError, err)
		return
	}
	// the selector notifies the controller
	fs.sel.Set(req.X)
	axisChangesTotal.WithLabelValues("ok").Inc()
	c.JSON(http.StatusOK, axisState{X: fs.sel.Value(), Series: fs.ctl.Snapshot()})
}

func (ht *HttpServer[R]) chart(c *gin.Context) {
	req := ChartRequest{
		X:      c.DefaultQuery("x", axis.Time),
		Y:      c.QueryArray("y"),
		Title:  c.Query("title"),
		XLabel: c.Query("xLabel"),
		YLabel: c.Query("yLabel"),
	}
	if lw := c.Query("lineWidth"); lw != "" {
		v, err := strconv.ParseFloat(lw, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lineWidth"})
			return
		}
		req.LineWidth = v
	}
	req.Styles = seriesStyles(c, req.Y)

	var buf bytes.Buffer
	err := ht.renderer.Render(&buf, ht.mem.Data(ht.ToRawConverter), req)
	switch {
	case err == nil:
		chartRendersTotal.WithLabelValues("ok").Inc()
		c.Data(http.StatusOK, "image/png", buf.Bytes())
	case errors.Is(err, ErrNoSeries), errors.Is(err, ErrUnknownSeries), errors.Is(err, ErrBadStyle):
		chartRendersTotal.WithLabelValues("invalid").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, ErrNotEnoughData):
		chartRendersTotal.WithLabelValues("empty").Inc()
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		chartRendersTotal.WithLabelValues("error").Inc()
		c.AbortWithError(http.StatusInternalServerError, err)
	}
}

// seriesStyles reads the <name>Color, <name>PointStyle and <name>LineStyle
// parameters of the chart form.
func seriesStyles(c *gin.Context, names []string) map[string]SeriesStyle {
	res := map[string]SeriesStyle{}
	for _, n := range names {
		st := SeriesStyle{
			Color: c.Query(n + "Color"),
			Point: c.Query(n + "PointStyle"),
			Line:  c.Query(n + "LineStyle"),
		}
		if st != (SeriesStyle{}) {
			res[n] = st
		}
	}
	return res
}

type indexSeries struct {
	Field
	Disabled bool
}

type IndexModel struct {
	Name      string
	X         string
	XFields   []Field
	Series    []indexSeries
	LineWidth float64
	Points    []string
	Lines     []string
}

func (ht *HttpServer[R]) index(c *gin.Context) {
	fs, err := ht.form(c)
	if err != nil {
		c.AbortWithError(http.StatusInternalServerError, err)
		return
	}
	m := IndexModel{
		Name:      ht.name,
		X:         fs.sel.Value(),
		XFields:   ht.Catalog.XFields(),
		LineWidth: ht.Catalog.DefaultLineWidth,
		Points:    ht.Catalog.PointsType,
		Lines:     ht.Catalog.LinesType,
	}
	for i, s := range fs.ctl.Snapshot() {
		m.Series = append(m.Series, indexSeries{Field: ht.Catalog.Fields[i], Disabled: s.Disabled})
	}
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := ht.indexContent.Execute(c.Writer, &m); err != nil {
		log.Println(err)
	}
}
