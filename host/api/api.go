// Package api serves a Controller over HTTP: JSON endpoints under /api and a
// websocket distance stream under /ws.
package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"wheelbot/core"
	"wheelbot/host/robot"
)

// DefaultInterval paces the distance stream.
const DefaultInterval = 200 * time.Millisecond

type Server struct {
	ctl      robot.Controller
	interval time.Duration
}

func New(ctl robot.Controller, interval time.Duration) *Server {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Server{ctl: ctl, interval: interval}
}

// Routes builds the router.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		r.Get("/distance", s.Distance)
		r.Get("/line/{side}", s.Line)
		r.Get("/light/{side}", s.Light)

		r.Post("/motor", s.Motor)
		r.Post("/drive", s.Drive)
		r.Post("/turn", s.Turn)
		r.Post("/stop", s.Stop)
		r.Post("/buzzer", s.Buzzer)
		r.Post("/leds", s.LEDs)
	})

	r.Route("/ws", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Get("/distance", s.DistanceStream)
	})
	return r
}

//---
// Responses
//---

type ErrResponse struct {
	Err            error `json:"-"`
	HTTPStatusCode int   `json:"-"`

	ErrorText string `json:"error"`
}

func (e *ErrResponse) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatusCode)
	return nil
}

func ErrInvalidRequest(err error) render.Renderer {
	return &ErrResponse{Err: err, HTTPStatusCode: http.StatusBadRequest, ErrorText: err.Error()}
}

func ErrController(err error) render.Renderer {
	return &ErrResponse{Err: err, HTTPStatusCode: http.StatusBadGateway, ErrorText: err.Error()}
}

// errRender maps a controller error: argument errors are the caller's fault,
// the rest come from the robot.
func errRender(err error) render.Renderer {
	switch {
	case errors.Is(err, core.ErrInvalidSide),
		errors.Is(err, core.ErrInvalidUnit),
		errors.Is(err, core.ErrInvalidDirection),
		errors.Is(err, robot.ErrInvalid),
		errors.Is(err, robot.ErrBadDirection),
		errors.Is(err, robot.ErrBadColor):
		return ErrInvalidRequest(err)
	}
	return ErrController(err)
}

type StatusResponse struct {
	Status string `json:"status"`
}

type DistanceResponse struct {
	Unit  string `json:"unit"`
	Value uint32 `json:"value"`
}

type LineResponse struct {
	Side     string `json:"side"`
	Detected bool   `json:"detected"`
}

type LightResponse struct {
	Side  string `json:"side"`
	Value uint16 `json:"value"`
}

func ok(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, StatusResponse{Status: "ok"})
}

//---
// Sensors
//---

func (s *Server) measure(unitName string) (DistanceResponse, error) {
	unit, err := core.ParseDistanceUnit(unitName)
	if err != nil {
		return DistanceResponse{}, err
	}
	v, err := s.ctl.MeasureDistance(unit)
	if err != nil {
		return DistanceResponse{}, err
	}
	return DistanceResponse{Unit: unit.String(), Value: v}, nil
}

func (s *Server) Distance(w http.ResponseWriter, r *http.Request) {
	resp, err := s.measure(r.URL.Query().Get("unit"))
	if err != nil {
		render.Render(w, r, errRender(err))
		return
	}
	render.JSON(w, r, resp)
}

func (s *Server) Line(w http.ResponseWriter, r *http.Request) {
	side, err := robot.ParseSide(chi.URLParam(r, "side"), false)
	if err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}
	on, err := s.ctl.ReadLine(side)
	if err != nil {
		render.Render(w, r, errRender(err))
		return
	}
	render.JSON(w, r, LineResponse{Side: side.String(), Detected: on})
}

func (s *Server) Light(w http.ResponseWriter, r *http.Request) {
	side, err := robot.ParseSide(chi.URLParam(r, "side"), false)
	if err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}
	v, err := s.ctl.ReadLight(side)
	if err != nil {
		render.Render(w, r, errRender(err))
		return
	}
	render.JSON(w, r, LightResponse{Side: side.String(), Value: v})
}

//---
// Motion
//---

type MotorPayload struct {
	Side  string `json:"side"`
	Speed *int   `json:"speed"`

	side core.Side
}

func (p *MotorPayload) Bind(r *http.Request) error {
	side, err := robot.ParseSide(p.Side, true)
	if err != nil {
		return err
	}
	if p.Speed == nil {
		return errors.New("speed is required")
	}
	p.side = side
	return nil
}

// DrivePayload drives straight. A present MS makes it timed, and zero or
// negative MS stops right after starting.
type DrivePayload struct {
	Speed *int `json:"speed"`
	MS    *int `json:"ms"`
}

func (p *DrivePayload) Bind(r *http.Request) error {
	if p.Speed == nil {
		return errors.New("speed is required")
	}
	return nil
}

type TurnPayload struct {
	Direction string `json:"direction"`
	Speed     *int   `json:"speed"`
	MS        *int   `json:"ms"`

	dir core.SteerDirection
}

func (p *TurnPayload) Bind(r *http.Request) error {
	dir, err := robot.ParseSteer(p.Direction)
	if err != nil {
		return err
	}
	if p.Speed == nil {
		return errors.New("speed is required")
	}
	p.dir = dir
	return nil
}

func (s *Server) Motor(w http.ResponseWriter, r *http.Request) {
	data := &MotorPayload{}
	if err := render.Bind(r, data); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}
	s.reply(w, r, s.ctl.SetMotor(data.side, *data.Speed))
}

func (s *Server) Drive(w http.ResponseWriter, r *http.Request) {
	data := &DrivePayload{}
	if err := render.Bind(r, data); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}
	if data.MS != nil {
		s.reply(w, r, s.ctl.DriveStraightTimed(*data.Speed, millis(*data.MS)))
		return
	}
	s.reply(w, r, s.ctl.DriveStraight(*data.Speed))
}

func (s *Server) Turn(w http.ResponseWriter, r *http.Request) {
	data := &TurnPayload{}
	if err := render.Bind(r, data); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}
	if data.MS != nil {
		s.reply(w, r, s.ctl.TurnTimed(data.dir, *data.Speed, millis(*data.MS)))
		return
	}
	s.reply(w, r, s.ctl.Turn(data.dir, *data.Speed))
}

func (s *Server) Stop(w http.ResponseWriter, r *http.Request) {
	s.reply(w, r, s.ctl.Stop())
}

//---
// Outputs
//---

type BuzzerPayload struct {
	On *bool `json:"on"`
}

func (p *BuzzerPayload) Bind(r *http.Request) error {
	if p.On == nil {
		return errors.New("on is required")
	}
	return nil
}

func (s *Server) Buzzer(w http.ResponseWriter, r *http.Request) {
	data := &BuzzerPayload{}
	if err := render.Bind(r, data); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}
	s.reply(w, r, s.ctl.SetBuzzer(*data.On))
}

// LEDPayload is one strip operation. Color is used by fill and set, Index by
// set, Value by brightness, shift and rotate.
type LEDPayload struct {
	Op    string `json:"op"`
	Color string `json:"color"`
	Index *int   `json:"index"`
	Value int    `json:"value"`

	color core.Color
}

func (p *LEDPayload) Bind(r *http.Request) error {
	switch p.Op {
	case "fill", "set":
		c, err := robot.ParseColor(p.Color)
		if err != nil {
			return err
		}
		p.color = c
		if p.Op == "set" && (p.Index == nil || *p.Index < 0) {
			return errors.New("set needs a non-negative index")
		}
	case "brightness":
		if p.Value < 0 || p.Value > 255 {
			return fmt.Errorf("brightness must be 0-255, got %d", p.Value)
		}
	case "clear", "rainbow", "shift", "rotate":
	default:
		return fmt.Errorf("unknown LED op %q", p.Op)
	}
	return nil
}

func (s *Server) LEDs(w http.ResponseWriter, r *http.Request) {
	data := &LEDPayload{}
	if err := render.Bind(r, data); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}
	var err error
	switch data.Op {
	case "fill":
		err = s.ctl.FillLEDs(data.color)
	case "set":
		err = s.ctl.SetLED(*data.Index, data.color)
	case "clear":
		err = s.ctl.ClearLEDs()
	case "brightness":
		err = s.ctl.SetLEDBrightness(uint8(data.Value))
	case "rainbow":
		err = s.ctl.RainbowLEDs()
	case "shift":
		err = s.ctl.ShiftLEDs(data.Value)
	case "rotate":
		err = s.ctl.RotateLEDs(data.Value)
	}
	s.reply(w, r, err)
}

func millis(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

func (s *Server) reply(w http.ResponseWriter, r *http.Request, err error) {
	if err != nil {
		render.Render(w, r, errRender(err))
		return
	}
	ok(w, r)
}
