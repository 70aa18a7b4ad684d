package stream

import (
	"bufio"
	"time"

	"github.com/valyala/fasthttp"
)

const HeartbeatInterval = 15 * time.Second

// Serve turns ctx into an event stream fed by sub. The subscription is
// closed when the client goes away or the hub shuts down.
func Serve(ctx *fasthttp.RequestCtx, sub *Subscription, heartbeat time.Duration) {
	ctx.SetContentType("text/event-stream")
	ctx.Response.Header.Set("Cache-Control", "no-cache")
	ctx.Response.Header.Set("Connection", "keep-alive")
	ctx.Response.Header.Set("X-Accel-Buffering", "no")
	ctx.SetStatusCode(fasthttp.StatusOK)
	ctx.SetBodyStreamWriter(func(w *bufio.Writer) {
		defer sub.Close()
		_ = Write(w, sub, heartbeat)
	})
}

// Write copies frames from sub to w as SSE data lines, with a comment line
// every heartbeat. It returns nil when sub.C is closed and the write error
// when the peer is gone.
func Write(w *bufio.Writer, sub *Subscription, heartbeat time.Duration) error {
	if heartbeat <= 0 {
		heartbeat = HeartbeatInterval
	}
	ticker := time.NewTicker(heartbeat)
	defer ticker.Stop()

	for {
		select {
		case payload, ok := <-sub.C:
			if !ok {
				return nil
			}
			if _, err := w.WriteString("data: "); err != nil {
				return err
			}
			if _, err := w.Write(payload); err != nil {
				return err
			}
			if _, err := w.WriteString("\n\n"); err != nil {
				return err
			}
		case <-ticker.C:
			if _, err := w.WriteString(": heartbeat\n\n"); err != nil {
				return err
			}
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}
}
