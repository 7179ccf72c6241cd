// Package router builds the gateway's HTTP mux: the catch-all forward
// route plus the small set of operational endpoints, with a startup-time
// route table printed the way the teacher prints its own.
package router

import (
	"fmt"
	"net/http"
	"sort"

	"github.com/pterm/pterm"

	"github.com/lynn4am/gatekeeper/internal/logger"
)

type RouteInfo struct {
	Handler     http.HandlerFunc
	Description string
	Method      string
	Order       int
}

type RouteRegistry struct {
	routes   map[string]RouteInfo
	logger   *logger.StyledLogger
	orderSeq int
}

func NewRouteRegistry(styled *logger.StyledLogger) *RouteRegistry {
	return &RouteRegistry{
		routes: make(map[string]RouteInfo),
		logger: styled,
	}
}

func (r *RouteRegistry) Register(route string, handler http.HandlerFunc, description string) {
	r.RegisterWithMethod(route, handler, description, http.MethodGet)
}

func (r *RouteRegistry) RegisterWithMethod(route string, handler http.HandlerFunc, description, method string) {
	r.routes[route] = RouteInfo{
		Handler:     handler,
		Description: description,
		Method:      method,
		Order:       r.orderSeq,
	}
	r.orderSeq++
}

// WireUp attaches every registered route to mux and prints the route
// table once at startup.
func (r *RouteRegistry) WireUp(mux *http.ServeMux) {
	for route, info := range r.routes {
		mux.HandleFunc(route, info.Handler)
	}
	r.logRoutesTable()
}

func (r *RouteRegistry) logRoutesTable() {
	if len(r.routes) == 0 {
		return
	}

	type routeEntry struct {
		path   string
		method string
		desc   string
		order  int
	}

	entries := make([]routeEntry, 0, len(r.routes))
	for route, info := range r.routes {
		entries = append(entries, routeEntry{
			path:   route,
			method: info.Method,
			desc:   info.Description,
			order:  info.Order,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].order < entries[j].order
	})

	tableData := [][]string{{"ROUTE", "METHOD", "DESCRIPTION"}}
	for _, entry := range entries {
		tableData = append(tableData, []string{entry.path, entry.method, entry.desc})
	}

	r.logger.Info("registered routes", "count", len(entries))
	tableString, _ := pterm.DefaultTable.WithHasHeader().WithData(tableData).Srender()
	fmt.Print(tableString)
}

func (r *RouteRegistry) GetRoutes() map[string]RouteInfo {
	return r.routes
}
