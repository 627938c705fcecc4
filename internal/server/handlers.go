package server

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/gofiber/fiber/v2"

	"github.com/storebridge/market-gateway/pkg/gateway"
	"github.com/storebridge/market-gateway/pkg/upstream"
)

// Gateway is the request coordinator behind the HTTP handlers.
type Gateway interface {
	Search(ctx context.Context, q upstream.Query) (*gateway.Result, error)
	Product(ctx context.Context, id string) (*gateway.Result, error)
}

// envelope is the uniform success response shape.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
}

// errorEnvelope is the uniform failure response shape. Message is a generic
// client-safe string; upstream details stay in the logs.
type errorEnvelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (s *Server) handleSearch(gw Gateway) fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := upstream.ParseQuery(queryValues(c))

		res, err := gw.Search(c.UserContext(), q)
		if err != nil {
			return s.writeError(c, err)
		}
		return writeResult(c, res)
	}
}

func (s *Server) handleProduct(gw Gateway) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return c.Status(fiber.StatusBadRequest).JSON(errorEnvelope{
				Error:   "bad_request",
				Message: "product id is required",
			})
		}

		res, err := gw.Product(c.UserContext(), id)
		if err != nil {
			return s.writeError(c, err)
		}
		return writeResult(c, res)
	}
}

// queryValues converts Fiber's query args into url.Values, keeping repeated
// keys.
func queryValues(c *fiber.Ctx) url.Values {
	values := url.Values{}
	c.Context().QueryArgs().VisitAll(func(key, value []byte) {
		values.Add(string(key), string(value))
	})
	return values
}

// writeResult sends a coordinator result in the success envelope. Stale
// results are flagged via the X-Cache header, not the body.
func writeResult(c *fiber.Ctx, res *gateway.Result) error {
	if res.Stale {
		c.Set("X-Cache", "stale")
	} else {
		c.Set("X-Cache", "hit")
	}
	c.Set("Content-Type", "application/json; charset=utf-8")
	return c.Send(mustEnvelope(res.Data))
}

func mustEnvelope(data json.RawMessage) []byte {
	b, err := json.Marshal(envelope{Success: true, Data: data})
	if err != nil {
		// Data came from json.Marshal upstream; this cannot fail.
		panic(err)
	}
	return b
}

// writeError maps coordinator errors to the failure envelope. Upstream error
// bodies are never echoed to clients; the full error is logged instead.
func (s *Server) writeError(c *fiber.Ctx, err error) error {
	if upstream.IsNotFound(err) {
		return c.Status(fiber.StatusNotFound).JSON(errorEnvelope{
			Error:   "not_found",
			Message: "product not found",
		})
	}

	s.logger.Error().
		Err(err).
		Str("path", c.Path()).
		Msg("Request failed")

	return c.Status(fiber.StatusBadGateway).JSON(errorEnvelope{
		Error:   "upstream_unavailable",
		Message: "the marketplace could not be reached",
	})
}
