package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"

	"github.com/datascopehq/datascope-cli/internal/appstate"
)

const (
	sessionHeader = "X-Session-ID"
	sessionCookie = "datascope_session"
	sessionKey    = "session"
)

// sonicSerializer plugs sonic into echo's JSON encode/decode hooks.
type sonicSerializer struct{}

func (sonicSerializer) Serialize(c echo.Context, v any, indent string) error {
	enc := sonic.ConfigDefault.NewEncoder(c.Response())
	if indent != "" {
		enc.SetIndent("", indent)
	}
	return enc.Encode(v)
}

// Deserialize reads the request body into v. Malformed JSON reports 400
// instead of surfacing as a 500.
func (sonicSerializer) Deserialize(c echo.Context, v any) error {
	if err := sonic.ConfigDefault.NewDecoder(c.Request().Body).Decode(v); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("malformed JSON body: %v", err)).SetInternal(err)
	}
	return nil
}

// requestLogger writes one zerolog line per request; 5xx and handler errors
// log at error level.
func requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogMethod:  true,
		LogURI:     true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil || v.Status >= http.StatusInternalServerError {
				ev = log.Error().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	})
}

// resolveSession finds the caller's session id in the header or cookie.
func resolveSession(c echo.Context) string {
	if id := c.Request().Header.Get(sessionHeader); id != "" {
		return id
	}
	if ck, err := c.Cookie(sessionCookie); err == nil && ck.Value != "" {
		return ck.Value
	}
	return ""
}

// withSession loads the caller's state, creating and persisting a fresh one
// when the id is absent or unknown. New sessions get a cookie so browsers
// stay attached; the session id always echoes back in the response header.
func (s *Server) withSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		var st *appstate.State
		if id := resolveSession(c); id != "" {
			got, err := s.store.GetSession(id)
			switch {
			case err == nil:
				st = got
			case errors.Is(err, appstate.ErrNotFound):
			default:
				return fmt.Errorf("load session: %w", err)
			}
		}
		if st == nil {
			st = appstate.NewState()
			if err := s.store.PutSession(st); err != nil {
				return fmt.Errorf("persist session: %w", err)
			}
			c.SetCookie(&http.Cookie{Name: sessionCookie, Value: st.SessionID, Path: "/"})
		}
		c.Set(sessionKey, st)
		c.Response().Header().Set(sessionHeader, st.SessionID)
		return next(c)
	}
}

// session returns the state stashed by withSession.
func session(c echo.Context) *appstate.State {
	st, _ := c.Get(sessionKey).(*appstate.State)
	return st
}

// saveSession persists session mutations; a store failure downgrades to a
// warning so the response still reaches the caller.
func (s *Server) saveSession(st *appstate.State) {
	if err := s.store.PutSession(st); err != nil {
		log.Warn().Err(err).Str("session", st.SessionID).Msg("persist session failed")
	}
}
