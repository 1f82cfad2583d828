package cmd

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// publicRoute is a method and path pattern reachable without basic auth.
// ":param" matches one segment and a trailing "*" matches the rest of the path.
type publicRoute struct {
	method  string
	pattern string
}

// Routes called by the embedded widget from visitors' browsers. Listing,
// editing and agent management stay behind basic auth.
var publicRoutes = []publicRoute{
	{"*", "/widget/*"},
	{"*", "/conversation/*"},
	{fiber.MethodGet, "/ws"},
	{fiber.MethodGet, "/health"},
	{fiber.MethodPost, "/leads"},
	{fiber.MethodPost, "/leads/:id/conversation"},
	{fiber.MethodPost, "/appointments"},
	{fiber.MethodGet, "/appointments/agent/:id/availability"},
	{fiber.MethodGet, "/avatars/*"},
	{fiber.MethodPost, "/avatars/lipsync"},
}

// skipBasicAuth reports whether a request under apiPrefix bypasses basic auth.
// CORS preflights are never challenged.
func skipBasicAuth(apiPrefix string) func(c *fiber.Ctx) bool {
	return func(c *fiber.Ctx) bool {
		if c.Method() == fiber.MethodOptions {
			return true
		}
		return isPublicRoute(c.Method(), strings.TrimPrefix(c.Path(), apiPrefix))
	}
}

func isPublicRoute(method, path string) bool {
	if path != "/" {
		path = strings.TrimSuffix(path, "/")
	}
	for _, route := range publicRoutes {
		if route.method != "*" && route.method != method {
			continue
		}
		if matchRoute(route.pattern, path) {
			return true
		}
	}
	return false
}

func matchRoute(pattern, path string) bool {
	want := strings.Split(strings.Trim(pattern, "/"), "/")
	got := strings.Split(strings.Trim(path, "/"), "/")
	for i, seg := range want {
		if seg == "*" {
			return i < len(got) && got[i] != ""
		}
		if i >= len(got) {
			return false
		}
		switch {
		case strings.HasPrefix(seg, ":"):
			if got[i] == "" {
				return false
			}
		case seg != got[i]:
			return false
		}
	}
	return len(got) == len(want)
}
