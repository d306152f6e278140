package api

import (
	"errors"
	"net/http"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/open-teleop/console/domain/teleop"
	customlog "github.com/open-teleop/console/pkg/log"
)

// TeleopHandler serves the operator console endpoints of a session.
type TeleopHandler struct {
	session *teleop.Session
	hub     *ParticleHub
	logger  customlog.Logger
}

// RegisterTeleopRoutes registers the telemetry, control and particle stream
// endpoints with the Fiber app.
func RegisterTeleopRoutes(app *fiber.App, session *teleop.Session, hub *ParticleHub, logger customlog.Logger) {
	h := &TeleopHandler{session: session, hub: hub, logger: logger}

	api := app.Group("/api")
	api.Get("/telemetry", h.handleTelemetry)
	api.Get("/motion", h.handleGetMotion)
	api.Post("/motion/toggle", h.handleToggleMotion)
	api.Put("/motion", h.handleSetMotion)
	api.Post("/calibrate", h.handleCalibrate)
	api.Post("/mesh", h.handleSetMesh)
	api.Delete("/mesh", h.handleClearMesh)
	api.Get("/particles/stats", h.handleParticleStats)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/control", websocket.New(func(conn *websocket.Conn) {
		ControlWebSocketHandler(conn, logger, session)
	}))
	app.Get("/ws/particles", websocket.New(func(conn *websocket.Conn) {
		ParticlesWebSocketHandler(conn, logger, hub)
	}))

	logger.Infof("Registered teleop endpoints under /api and /ws")
}

func (h *TeleopHandler) handleTelemetry(c *fiber.Ctx) error {
	return c.JSON(h.session.Snapshot())
}

func (h *TeleopHandler) handleGetMotion(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"enabled": h.session.MotionEnabled()})
}

func (h *TeleopHandler) handleToggleMotion(c *fiber.Ctx) error {
	enabled := h.session.ToggleMotion()
	h.logger.Infof("Motion detection toggled: enabled=%t", enabled)
	return c.JSON(fiber.Map{"enabled": enabled})
}

type motionRequest struct {
	Enabled *bool `json:"enabled"`
}

func (h *TeleopHandler) handleSetMotion(c *fiber.Ctx) error {
	var req motionRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid motion request: "+err.Error())
	}
	if req.Enabled == nil {
		return fiber.NewError(http.StatusBadRequest, "missing field: enabled")
	}
	h.session.SetMotionEnabled(*req.Enabled)
	return c.JSON(fiber.Map{"enabled": *req.Enabled})
}

func (h *TeleopHandler) handleCalibrate(c *fiber.Ctx) error {
	if err := h.session.Calibrate(); err != nil {
		h.logger.Errorf("Calibration request failed: %v", err)
		return fiber.NewError(http.StatusBadGateway, "calibration request failed: "+err.Error())
	}
	return c.Status(http.StatusAccepted).JSON(fiber.Map{"status": "calibration requested"})
}

func (h *TeleopHandler) handleSetMesh(c *fiber.Ctx) error {
	var req MeshRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid mesh request: "+err.Error())
	}
	buf := h.session.OnMesh(req.vectors())
	return c.JSON(fiber.Map{
		"points": buf.Count,
		"width":  buf.Width,
		"height": buf.Height,
	})
}

func (h *TeleopHandler) handleClearMesh(c *fiber.Ctx) error {
	h.session.OnMesh(nil)
	return c.SendStatus(http.StatusNoContent)
}

func (h *TeleopHandler) handleParticleStats(c *fiber.Ctx) error {
	return c.JSON(h.hub.Stats())
}

// ErrorHandler renders every handler error as a JSON body.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}
