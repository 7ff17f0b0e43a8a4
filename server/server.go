// Package server contains route table plumbing and JSON payload types
// shared by the HTTP wrappers.
package server

import (
	"encoding/json"
	"net/http"

	"goji.io"
)

// RouteTable maps URL patterns to handlers.
type RouteTable map[goji.Pattern]http.HandlerFunc

// HTTPer is an object which exposes its functionality through a route table.
type HTTPer interface {
	RT() RouteTable
}

// Bind attaches every route in the table to the mux.
func (rt RouteTable) Bind(mux *goji.Mux) {
	for p, h := range rt {
		mux.HandleFunc(p, h)
	}
}

// BoolT is a strongly typed boolean JSON payload, {"bool": ...}
type BoolT struct {
	Bool bool `json:"bool"`
}

// IntT is a strongly typed integer JSON payload, {"int": ...}
type IntT struct {
	Int int `json:"int"`
}

// FloatT is a strongly typed float JSON payload, {"f64": ...}
type FloatT struct {
	F64 float64 `json:"f64"`
}

// StrT is a strongly typed string JSON payload, {"str": ...}
type StrT struct {
	Str string `json:"str"`
}

// EncodeJSON writes v to the response as JSON with a 200, converting an
// encode failure into a 500.
func EncodeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
