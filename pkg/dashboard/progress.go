package dashboard

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"f1telemetryhub/pkg/caster"
	"f1telemetryhub/pkg/loader"
)

const writeWait = 5 * time.Second

var upgrader = websocket.Upgrader{}

var progressCaster caster.ChannelCaster[loader.Progress] = caster.JSONChannelCaster[loader.Progress]{}

// progressHandler streams the load progress of the caller's view until the
// browser closes the socket. The page must have been opened first: the
// upgrade response cannot carry a new cookie.
func (d *Dashboard) progressHandler(w http.ResponseWriter, r *http.Request) {
	v, ok := d.views.FromRequest(r)
	if !ok {
		http.Error(w, "no view for this browser, open the dashboard first", http.StatusConflict)
		return
	}

	c, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logrus.WithError(err).Warn("websocket upgrade failed")
		return
	}
	defer c.Close()

	ch := d.progress.Subscribe(v.ID)
	defer d.progress.Unsubscribe(v.ID, ch)

	// the client never sends anything; reading is how a close is noticed
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case p, ok := <-ch:
			if !ok {
				return
			}
			b, err := progressCaster.To(p)
			if err != nil {
				logrus.WithError(err).Error("could not encode progress")
				return
			}
			_ = c.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.WriteMessage(websocket.TextMessage, b); err != nil {
				logrus.WithError(err).Debug("progress socket write failed")
				return
			}
		case <-closed:
			return
		case <-r.Context().Done():
			return
		}
	}
}
