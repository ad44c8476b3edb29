package models

import (
	"fmt"
)

//=======================================
// Component models
//=======================================

// Component type names used by the engine's component tree.
const (
	RouteType  = "ROUTE"
	FilterType = "FILTER"
)

// Component ...
type Component struct {
	UUID   string `json:"uuid,omitempty"`
	ID     string `json:"id"`
	Name   string `json:"name"`
	Type   string `json:"type,omitempty"`
	Folder string `json:"folder"`
}

func (c Component) String() string {
	return fmt.Sprintf("Component{uuid=%s, id=%s, name=%s, type=%s, folder=%s}", c.UUID, c.ID, c.Name, c.Type, c.Folder)
}

// Route is a top-level, independently addressable pipeline.
type Route struct {
	Component
	Filters []Filter
}

func (r Route) String() string {
	return fmt.Sprintf("Route{%s}", r.Component)
}

// Filter belongs to exactly one Route of a Tree, referenced by index.
type Filter struct {
	Component
	RouteIndex int
}

func (f Filter) String() string {
	return fmt.Sprintf("Filter{%s, route=%d}", f.Component, f.RouteIndex)
}

// Tree owns every Route and, through them, every Filter.
type Tree struct {
	Routes []Route
}

// AddRoute appends a route together with its filters and returns its index.
// Filters inherit the route's folder.
func (t *Tree) AddRoute(route Component, filters ...Component) int {
	idx := len(t.Routes)
	r := Route{Component: route}
	for _, f := range filters {
		f.Folder = route.Folder
		r.Filters = append(r.Filters, Filter{Component: f, RouteIndex: idx})
	}
	t.Routes = append(t.Routes, r)
	return idx
}

// Route returns the route owning the given filter.
func (t Tree) Route(filter Filter) (Route, error) {
	if filter.RouteIndex < 0 || filter.RouteIndex >= len(t.Routes) {
		return Route{}, fmt.Errorf("filter %s references unknown route %d", filter.Name, filter.RouteIndex)
	}
	return t.Routes[filter.RouteIndex], nil
}

//=======================================
// Testable components
//=======================================

// Kind ...
type Kind int

// Testable kinds ...
const (
	RouteKind Kind = iota
	FilterKind
)

func (k Kind) String() string {
	if k == FilterKind {
		return "filter"
	}
	return "route"
}

// Testable is a Route or a Filter selected for testing.
type Testable struct {
	Kind       Kind
	Component  Component
	RouteIndex int
}

// NewRouteTestable ...
func NewRouteTestable(t Tree, routeIndex int) Testable {
	return Testable{Kind: RouteKind, Component: t.Routes[routeIndex].Component, RouteIndex: routeIndex}
}

// NewFilterTestable ...
func NewFilterTestable(f Filter) Testable {
	return Testable{Kind: FilterKind, Component: f.Component, RouteIndex: f.RouteIndex}
}

// Owner returns the route all results of this testable roll up to.
func (t Testable) Owner(tree Tree) (Route, error) {
	if t.RouteIndex < 0 || t.RouteIndex >= len(tree.Routes) {
		return Route{}, fmt.Errorf("%s %s references unknown route %d", t.Kind, t.Component.Name, t.RouteIndex)
	}
	return tree.Routes[t.RouteIndex], nil
}

func (t Testable) String() string {
	return fmt.Sprintf("%s %s (%s)", t.Kind, t.Component.Name, t.Component.ID)
}
