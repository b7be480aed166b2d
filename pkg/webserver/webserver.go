package webserver

import (
	"context"
	"io/fs"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const DefaultAddress = ":8080"

type Manager struct {
	r    *mux.Router
	addr string
}

func NewManager(addr string) *Manager {
	if addr == "" {
		addr = DefaultAddress
	}
	return &Manager{
		r:    mux.NewRouter(),
		addr: addr,
	}
}

func (m *Manager) Router() *mux.Router {
	return m.r
}

func (m *Manager) Addr() string {
	return m.addr
}

// Static serves fsys under prefix, e.g. "/static/".
func (m *Manager) Static(prefix string, fsys fs.FS) {
	fileServer := http.FileServer(http.FS(fsys))
	m.r.PathPrefix(prefix).Handler(http.StripPrefix(prefix, fileServer))
}

func (m *Manager) Debug() {
	_ = m.r.Walk(func(route *mux.Route, router *mux.Router, ancestors []*mux.Route) error {
		fields := logrus.Fields{}
		if pathTemplate, err := route.GetPathTemplate(); err == nil {
			fields["path"] = pathTemplate
		}
		if methods, err := route.GetMethods(); err == nil {
			fields["methods"] = strings.Join(methods, ",")
		}
		logrus.WithFields(fields).Debug("route")
		return nil
	})
}

// Serve listens on the manager address until ctx is done, then shuts down
// gracefully.
func (m *Manager) Serve(ctx context.Context) error {
	l, err := net.Listen("tcp", m.addr)
	if err != nil {
		return errors.Wrapf(err, "listening on %s", m.addr)
	}
	return m.ServeListener(ctx, l)
}

func (m *Manager) ServeListener(ctx context.Context, l net.Listener) error {
	srv := &http.Server{
		WriteTimeout: time.Second * 60,
		ReadTimeout:  time.Second * 15,
		IdleTimeout:  time.Second * 60,
		Handler:      m.r,
	}

	errs := make(chan error, 1)
	go func() {
		logrus.WithField("addr", l.Addr().String()).Info("webserver listening")
		errs <- srv.Serve(l)
	}()

	select {
	case err := <-errs:
		return errors.Wrap(err, "webserver stopped")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	// waits for open requests until the deadline
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutting down webserver")
	}
	logrus.Info("webserver shutting down")
	return nil
}
