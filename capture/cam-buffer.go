package capture

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/blackjack/webcam"
	"github.com/pkg/errors"
)

// device is the part of *webcam.Webcam the buffer drives.
type device interface {
	WaitForFrame(timeout uint32) error
	ReadFrame() ([]byte, error)
	StopStreaming() error
	Close() error
}

type camBuffer struct {
	frame    chan []byte
	stopChan chan bool
	err      error

	cam     device
	format  PixelFormat
	timeout uint32
	warmup  int
	log     *slog.Logger

	stopped  atomic.Bool
	stopOnce sync.Once
}

func newCamBuffer(cam device, opt *Option) *camBuffer {
	return &camBuffer{
		frame:    make(chan []byte, 1),
		stopChan: make(chan bool, 1),
		cam:      cam,
		format:   opt.Format,
		timeout:  opt.Timeout,
		warmup:   opt.WarmupFrames,
		log:      opt.Logger,
	}
}

func (c *camBuffer) start() {
	go func() {
		err := c._start()
		if err != nil {
			c.err = err
		}
		c.stopChan <- true
		close(c.stopChan)
	}()
}

func (c *camBuffer) _start() error {
	defer c.cam.Close()
	defer c.cam.StopStreaming()

	skipped := 0
	for !c.isStopped() {
		err := c.cam.WaitForFrame(c.timeout)
		switch err.(type) {
		case nil:
		case *webcam.Timeout:
			c.log.Warn("Timed out waiting for frame", "error", err)
			continue
		default:
			return errors.Wrap(err, "Frame wait failed")
		}

		if c.isStopped() {
			break
		}

		frame, err := c.cam.ReadFrame()
		if err != nil {
			return errors.Wrap(err, "Read frame failed")
		}
		if len(frame) == 0 {
			continue
		}

		if skipped < c.warmup {
			skipped++
			if c.format != YUYV || !hasGoodBlackLevel(luma(frame)) {
				continue
			}
			skipped = c.warmup
		}

		latest := append([]byte(nil), frame...)
		// keep only the newest frame
		select {
		case <-c.frame:
		default:
		}
		c.frame <- latest
	}

	return nil
}

func (c *camBuffer) isStopped() bool {
	return c.stopped.Load()
}

// stop asks the capture goroutine to finish and waits until the device has
// been released.
func (c *camBuffer) stop() {
	c.stopOnce.Do(func() {
		c.stopped.Store(true)
		<-c.stopChan
	})
}
