// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pdiddy/cite-engine/internal/apperr"
	"github.com/pdiddy/cite-engine/internal/easykey"
	"github.com/pdiddy/cite-engine/internal/format"
	"github.com/pdiddy/cite-engine/internal/library"
	"github.com/pdiddy/cite-engine/internal/response"
	"github.com/pdiddy/cite-engine/internal/selector"
	"github.com/pdiddy/cite-engine/pkg/types"
)

// Messages of the completion endpoint.
const (
	MsgEasyKeyRequired = "Option easykey is required."
	MsgEasyKeyForm     = "EasyKey must be of the form DoeTitle2000 or doe:2000title"
)

// maxBodyBytes caps bibliography request bodies.
const maxBodyBytes = 8 << 20

// MsgBodyTooLarge rejects bibliography bodies over maxBodyBytes.
var MsgBodyTooLarge = fmt.Sprintf("Request body exceeds %d MiB.", maxBodyBytes>>20)

type handlerFunc func(c *gin.Context) (response.Response, error)

// handle adapts h to gin. Errors become plain-text responses; 500s are
// logged with the request id.
func (s *Server) handle(route string, h handlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp, err := h(c)
		if err != nil {
			resp = response.FromError(err)
			if resp.Status >= http.StatusInternalServerError {
				s.logger.Error("request failed",
					"route", route,
					"request_id", c.GetString(requestIDKey),
					"error", err)
			}
		}
		apiResponses.WithLabelValues(route, statusClass(resp.Status)).Inc()
		c.Data(resp.Status, resp.ContentType, resp.Body)
	}
}

// GET /items
func (s *Server) handleItems(c *gin.Context) (response.Response, error) {
	q := c.Request.URL.Query()
	return s.render(c.Request.Context(), selector.ParamsFromValues(q), formatOptions(c))
}

// GET /search
func (s *Server) handleSearch(c *gin.Context) (response.Response, error) {
	q := c.Request.URL.Query()
	query := q.Get("q")
	if strings.TrimSpace(query) == "" {
		return response.Response{}, apperr.UserInput(selector.MsgQueryRequired)
	}
	p := selector.Params{HasQuery: true, Query: query, Method: library.ParseSearchMethod(q.Get("method"))}
	return s.render(c.Request.Context(), p, formatOptions(c))
}

// GET /complete
func (s *Server) handleComplete(c *gin.Context) (response.Response, error) {
	raw := strings.TrimSpace(c.Query("easykey"))
	if raw == "" {
		return response.Response{}, apperr.UserInput(MsgEasyKeyRequired)
	}
	prefix, err := easykey.ParsePrefix(raw)
	if err != nil {
		return response.Response{}, apperr.UserInput(MsgEasyKeyForm)
	}

	ctx := c.Request.Context()
	hs, err := s.store.CompleteEasyKey(ctx, prefix)
	if err != nil {
		return response.Response{}, apperr.Unexpected(fmt.Errorf("completing %s: %w", raw, err))
	}
	items, err := s.items(ctx, hs)
	if err != nil {
		return response.Response{}, err
	}
	return s.formatter.Format(ctx, items, format.Options{Format: format.FormatEasyKey})
}

// POST /bibliography
func (s *Server) handleBibliography(c *gin.Context) (response.Response, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)
	var req types.BibliographyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return response.Response{}, apperr.UserInput(MsgBodyTooLarge)
		}
		return response.Response{}, apperr.UserInput("Invalid JSON body: " + err.Error())
	}

	res, err := s.citations.Bibliography(c.Request.Context(), req)
	if err != nil {
		return response.Response{}, err
	}
	return response.JSON(res)
}

// GET /select
func (s *Server) handleSelect(c *gin.Context) (response.Response, error) {
	p := selector.ParamsFromValues(c.Request.URL.Query())
	if _, err := s.dispatcher.Select(c.Request.Context(), p); err != nil {
		return response.Response{}, err
	}
	return response.JSON("success")
}

// GET /version
func (s *Server) handleVersion(_ *gin.Context) (response.Response, error) {
	return response.JSON(map[string]string{"version": s.version})
}

// GET /locales
func (s *Server) handleLocales(_ *gin.Context) (response.Response, error) {
	return response.JSON(s.styles.Locales())
}

// GET /styles
func (s *Server) handleStyles(_ *gin.Context) (response.Response, error) {
	return response.JSON(s.styles.Styles())
}

// render dispatches p and formats the selected items.
func (s *Server) render(ctx context.Context, p selector.Params, opt format.Options) (response.Response, error) {
	hs, err := s.dispatcher.Dispatch(ctx, p)
	if err != nil {
		return response.Response{}, err
	}
	items, err := s.items(ctx, hs)
	if err != nil {
		return response.Response{}, err
	}
	return s.formatter.Format(ctx, items, opt)
}

func (s *Server) items(ctx context.Context, hs []types.ItemHandle) ([]types.Item, error) {
	if len(hs) == 0 {
		return nil, nil
	}
	items, err := s.store.Items(ctx, hs)
	if err != nil {
		return nil, apperr.Unexpected(fmt.Errorf("loading items: %w", err))
	}
	return items, nil
}

func formatOptions(c *gin.Context) format.Options {
	return format.Options{
		Format: c.Query("format"),
		Style:  c.Query("style"),
		Locale: c.Query("locale"),
	}
}

func statusClass(status int) string {
	return fmt.Sprintf("%dxx", status/100)
}
