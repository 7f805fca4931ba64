package web

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/teslashibe/go-vector/pkg/camera"
	"github.com/teslashibe/go-vector/pkg/robot"
	"github.com/teslashibe/go-vector/pkg/session"
)

// animSelectorPrefix names the animation dropdowns: "animSelector0".."animSelector9".
const animSelectorPrefix = "animSelector"

// KeyRequest is the body of /keydown and /keyup.
type KeyRequest struct {
	KeyCode  int  `json:"keyCode"`
	HasShift bool `json:"hasShift"`
	HasAlt   bool `json:"hasAlt"`
}

// MouseMoveRequest is the body of /mousemove. Coordinates are 0..1.
type MouseMoveRequest struct {
	ClientX float64 `json:"clientX"`
	ClientY float64 `json:"clientY"`
}

// DropDownRequest is the body of /dropDownSelect.
type DropDownRequest struct {
	ItemName      string `json:"itemName"`
	SelectedIndex int    `json:"selectedIndex"`
}

// withSession decodes the JSON body into req (if non-nil) and runs fn with
// the session held. Without a session it returns an empty 200 and ignores
// the body.
func (s *Server) withSession(c *fiber.Ctx, req any, fn func(*session.Controller) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return c.SendString("")
	}
	if req != nil {
		if err := json.Unmarshal(c.Body(), req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid JSON body: "+err.Error())
		}
	}
	if err := fn(s.session); err != nil {
		return err
	}
	return c.SendString("")
}

func (s *Server) handleKey(down bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req KeyRequest
		return s.withSession(c, &req, func(sess *session.Controller) error {
			sess.OnKey(req.KeyCode, req.HasShift, req.HasAlt, down)
			return nil
		})
	}
}

func (s *Server) handleMouseMove(c *fiber.Ctx) error {
	var req MouseMoveRequest
	return s.withSession(c, &req, func(sess *session.Controller) error {
		sess.OnMouseMove(req.ClientX, req.ClientY)
		return nil
	})
}

func (s *Server) handleSetMouseLook(c *fiber.Ctx) error {
	var req struct {
		Enabled bool `json:"isMouseLookEnabled"`
	}
	return s.withSession(c, &req, func(sess *session.Controller) error {
		sess.SetMouseLookEnabled(req.Enabled)
		return nil
	})
}

func (s *Server) handleSetTorch(c *fiber.Ctx) error {
	var req struct {
		Enabled bool `json:"isTorchModeEnabled"`
	}
	return s.withSession(c, &req, func(sess *session.Controller) error {
		sess.SetTorchEnabled(req.Enabled)
		return nil
	})
}

func (s *Server) handleSetFreeplay(c *fiber.Ctx) error {
	var req struct {
		Enabled bool `json:"isFreeplayEnabled"`
	}
	return s.withSession(c, &req, func(sess *session.Controller) error {
		sess.SetFreeplayEnabled(req.Enabled)
		return nil
	})
}

func (s *Server) handleSetExplore(c *fiber.Ctx) error {
	var req struct {
		Enabled bool `json:"isExploreEnabled"`
	}
	return s.withSession(c, &req, func(sess *session.Controller) error {
		sess.SetExploreEnabled(req.Enabled)
		return nil
	})
}

func (s *Server) handleDropDownSelect(c *fiber.Ctx) error {
	var req DropDownRequest
	return s.withSession(c, &req, func(sess *session.Controller) error {
		suffix, ok := strings.CutPrefix(req.ItemName, animSelectorPrefix)
		if !ok {
			return nil
		}
		slot, err := strconv.Atoi(suffix)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid selector: "+req.ItemName)
		}
		if err := sess.SetAnimationBinding(slot, req.SelectedIndex); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return nil
	})
}

func (s *Server) handleSayText(c *fiber.Ctx) error {
	var req struct {
		Text string `json:"textEntered"`
	}
	return s.withSession(c, &req, func(sess *session.Controller) error {
		sess.SetTextToSay(req.Text)
		return nil
	})
}

// handleUpdate runs one session tick and returns the pending queue as HTML.
func (s *Server) handleUpdate(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return c.SendString("")
	}
	return c.SendString(renderQueue(s.session.Tick()))
}

func renderQueue(entries []session.QueueEntry) string {
	var b strings.Builder
	b.WriteString("Action Queue:<br>")
	for _, e := range entries {
		b.WriteString(e.String())
		b.WriteString("<br>")
	}
	b.WriteString("\n")
	return b.String()
}

// handleAnimSelectors renders one dropdown per animation key, in keyboard
// order 1..9 then 0.
func (s *Server) handleAnimSelectors(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c.Type("html")
	if s.session == nil {
		return c.SendString("")
	}
	return c.SendString(renderAnimSelectors(s.session.Catalog(), s.session.Bindings()))
}

func renderAnimSelectors(catalog *session.Catalog, bindings session.Bindings) string {
	names := catalog.Names()

	var b strings.Builder
	for i := 0; i < session.NumSlots; i++ {
		key := (i + 1) % session.NumSlots
		fmt.Fprintf(&b, `%d: <select onchange="handleDropDownSelect(this)" name="%s%d">`, key, animSelectorPrefix, key)
		for idx, name := range names {
			selected := ""
			if idx == bindings[key] {
				selected = ` selected="selected"`
			}
			fmt.Fprintf(&b, `<option value=%d%s>%s</option>`, idx, selected, html.EscapeString(name))
		}
		b.WriteString("</select><br>")
	}
	return b.String()
}

// hudFace is the per-face HUD entry, keyed "face<id>".
type hudFace struct {
	Name            string          `json:"name"`
	IsVisible       bool            `json:"isVisible"`
	ID              int             `json:"id"`
	UpdatedID       int             `json:"updated id"`
	Pose            hudPose         `json:"pose"`
	Expression      string          `json:"expression"`
	ExpressionScore []int           `json:"expression_score"`
	ImageRect       robot.ImageRect `json:"image_rect"`
}

type hudPose struct {
	Position robot.Vec3 `json:"position"`
}

// HUD is the /updateVectorHud response.
type HUD struct {
	LeftWheel       float64            `json:"leftWheel"`
	RightWheel      float64            `json:"rightWheel"`
	BatteryLevel    int                `json:"batteryLevel"`
	BatteryCharging bool               `json:"batteryCharging"`
	HeadAngleRad    float64            `json:"headAngleRad"`
	LiftHeightMM    float64            `json:"liftHeightmm"`
	Faces           map[string]hudFace `json:"faces"`
}

func newHUD(st robot.State) HUD {
	h := HUD{
		LeftWheel:       st.LeftWheelSpeedMMPS,
		RightWheel:      st.RightWheelSpeedMMPS,
		BatteryLevel:    st.BatteryLevel,
		BatteryCharging: st.BatteryCharging,
		HeadAngleRad:    st.HeadAngleRad,
		LiftHeightMM:    st.LiftHeightMM,
		Faces:           make(map[string]hudFace, len(st.Faces)),
	}
	for _, f := range st.Faces {
		h.Faces["face"+strconv.Itoa(f.ID)] = hudFace{
			Name:            f.Name,
			IsVisible:       f.IsVisible,
			ID:              f.ID,
			UpdatedID:       f.UpdatedID,
			Pose:            hudPose{Position: f.Position},
			Expression:      f.Expression,
			ExpressionScore: f.ExpressionScore,
			ImageRect:       f.ImageRect,
		}
	}
	return h
}

func (s *Server) handleHud(c *fiber.Ctx) error {
	if s.telemetry == nil {
		return fiber.ErrServiceUnavailable
	}
	return c.JSON(newHUD(s.telemetry.State()))
}

func (s *Server) handleStats(c *fiber.Ctx) error {
	if s.telemetry == nil {
		return fiber.ErrServiceUnavailable
	}
	return c.JSON(s.telemetry.State().Status)
}

// handleImage serves a multipart stream to browsers that can show one and
// a single frame to the rest.
func (s *Server) handleImage(c *fiber.Ctx) error {
	if !camera.StreamCapable(c.Get(fiber.HeaderUserAgent)) {
		data, contentType, err := s.feed.Snapshot()
		if err != nil {
			return err
		}
		c.Set(fiber.HeaderCacheControl, "no-cache")
		c.Set(fiber.HeaderContentType, contentType)
		return c.Send(data)
	}

	c.Set(fiber.HeaderContentType, camera.StreamContentType)
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		ctx, cancel := context.WithCancel(s.ctx)
		defer cancel()
		for part := range s.feed.Stream(ctx) {
			if _, err := w.Write(part); err != nil {
				return
			}
			// Flush fails once the viewer has gone away.
			if err := w.Flush(); err != nil {
				return
			}
		}
	})
	return nil
}

func (s *Server) handleGetCameraConfig(c *fiber.Ctx) error {
	return c.JSON(s.settings.ConfigJSON())
}

func (s *Server) handleSetCameraConfig(c *fiber.Ctx) error {
	var params map[string]any
	if err := json.Unmarshal(c.Body(), &params); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid JSON body: "+err.Error())
	}
	if err := s.settings.UpdateConfig(params); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(s.settings.ConfigJSON())
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	s.mu.Lock()
	attached := s.session != nil
	s.mu.Unlock()

	return c.JSON(fiber.Map{
		"status":         "ok",
		"version":        s.cfg.Version,
		"session":        attached,
		"camera_streams": s.feed.Streams(),
		"camera_clients": s.cameraHub.ClientCount(),
	})
}

func (s *Server) handleMetrics(c *fiber.Ctx) error {
	s.mu.Lock()
	pending := 0
	if s.session != nil {
		pending = len(s.session.Pending())
	}
	s.mu.Unlock()

	return c.SendString(fmt.Sprintf(`# HELP vectorrc_action_queue_depth Actions waiting in the session queue
# TYPE vectorrc_action_queue_depth gauge
vectorrc_action_queue_depth %d

# HELP vectorrc_camera_frames_published Total camera frames published
# TYPE vectorrc_camera_frames_published counter
vectorrc_camera_frames_published %d

# HELP vectorrc_camera_streams Open camera streams
# TYPE vectorrc_camera_streams gauge
vectorrc_camera_streams %d

# HELP vectorrc_camera_relays Camera frame sources feeding websocket viewers
# TYPE vectorrc_camera_relays gauge
vectorrc_camera_relays %d

# HELP vectorrc_camera_clients Connected camera websocket clients
# TYPE vectorrc_camera_clients gauge
vectorrc_camera_clients %d

# HELP vectorrc_camera_broadcasts_dropped Camera broadcasts dropped on a full buffer
# TYPE vectorrc_camera_broadcasts_dropped counter
vectorrc_camera_broadcasts_dropped %d
`, pending, s.feed.Published(), s.feed.Streams(), s.feed.Relays(), s.cameraHub.ClientCount(), s.cameraHub.Dropped()))
}
