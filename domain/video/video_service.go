package video

import (
	"bytes"
	"image"
	"image/png"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	customlog "github.com/open-teleop/console/pkg/log"
)

// VideoService keeps the latest camera frame and motion diff raster for the
// operator console.
type VideoService struct {
	logger customlog.Logger

	mu          sync.RWMutex
	format      string
	frame       []byte
	frameAt     time.Time
	frameCount  uint64
	diff        []byte
	diffAt      time.Time
	diffPending *image.RGBA
}

// NewVideoService creates a new video service instance
func NewVideoService(logger customlog.Logger) *VideoService {
	return &VideoService{logger: logger.WithField("component", "video")}
}

// SetFrame stores the latest compressed camera frame.
func (s *VideoService) SetFrame(format string, data []byte, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.format = format
	s.frame = data
	s.frameAt = at
	s.frameCount++
}

// SetDiff stores the latest diff raster. PNG encoding is deferred until the
// raster is requested.
func (s *VideoService) SetDiff(diff *image.RGBA, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.diffPending = diff
	s.diff = nil
	s.diffAt = at
}

// Frame returns the latest frame, its content type and receive time.
func (s *VideoService) Frame() ([]byte, string, time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.frame == nil {
		return nil, "", time.Time{}, false
	}
	return s.frame, contentType(s.format, s.frame), s.frameAt, true
}

// DiffPNG returns the latest diff raster encoded as PNG.
func (s *VideoService) DiffPNG() ([]byte, time.Time, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.diffPending != nil {
		var buf bytes.Buffer
		if err := png.Encode(&buf, s.diffPending); err != nil {
			return nil, time.Time{}, false, err
		}
		s.diff = buf.Bytes()
		s.diffPending = nil
	}
	if s.diff == nil {
		return nil, time.Time{}, false, nil
	}
	return s.diff, s.diffAt, true, nil
}

// Status summarizes the camera feed.
type Status struct {
	Format     string    `json:"format"`
	Frames     uint64    `json:"frames"`
	LastFrame  time.Time `json:"last_frame"`
	LastDiff   time.Time `json:"last_diff"`
	HasDiff    bool      `json:"has_diff"`
	FrameBytes int       `json:"frame_bytes"`
}

// GetStatus returns the feed status.
func (s *VideoService) GetStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Status{
		Format:     s.format,
		Frames:     s.frameCount,
		LastFrame:  s.frameAt,
		LastDiff:   s.diffAt,
		HasDiff:    s.diff != nil || s.diffPending != nil,
		FrameBytes: len(s.frame),
	}
}

// FrameHandler serves the latest camera frame.
func (s *VideoService) FrameHandler(c *fiber.Ctx) error {
	data, ct, at, ok := s.Frame()
	if !ok {
		return fiber.NewError(http.StatusNotFound, "no camera frame received yet")
	}
	c.Set(fiber.HeaderContentType, ct)
	c.Set(fiber.HeaderCacheControl, "no-store")
	c.Set(fiber.HeaderLastModified, at.UTC().Format(http.TimeFormat))
	return c.Send(data)
}

// DiffHandler serves the latest motion diff raster as PNG.
func (s *VideoService) DiffHandler(c *fiber.Ctx) error {
	data, at, ok, err := s.DiffPNG()
	if err != nil {
		s.logger.Errorf("Failed to encode diff raster: %v", err)
		return err
	}
	if !ok {
		return fiber.NewError(http.StatusNotFound, "no motion diff available yet")
	}
	c.Set(fiber.HeaderContentType, "image/png")
	c.Set(fiber.HeaderCacheControl, "no-store")
	c.Set(fiber.HeaderLastModified, at.UTC().Format(http.TimeFormat))
	return c.Send(data)
}

// StatusHandler serves the feed status.
func (s *VideoService) StatusHandler(c *fiber.Ctx) error {
	return c.JSON(s.GetStatus())
}

// contentType maps a sensor_msgs/CompressedImage format string to a MIME
// type, sniffing the payload when the format is not recognized.
func contentType(format string, data []byte) string {
	f := strings.ToLower(format)
	switch {
	case strings.Contains(f, "png"):
		return "image/png"
	case strings.Contains(f, "jpeg"), strings.Contains(f, "jpg"):
		return "image/jpeg"
	case strings.Contains(f, "bmp"):
		return "image/bmp"
	case strings.Contains(f, "tiff"):
		return "image/tiff"
	case strings.Contains(f, "webp"):
		return "image/webp"
	}
	return http.DetectContentType(data)
}
