package synth

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/synthlab/rfsynth/server"

	"github.com/go-chi/chi"
	"goji.io/pat"
)

// HTTPWrapper exposes a Board's operations over HTTP.
type HTTPWrapper struct {
	// Board is the wrapped driver instance
	Board *Board

	// RouteTable holds the map of patterns and routes
	RouteTable server.RouteTable
}

// NewHTTPWrapper creates a new HTTP wrapper and populates the route table
func NewHTTPWrapper(urlStem string, b *Board) *HTTPWrapper {
	w := &HTTPWrapper{Board: b}
	rt := server.RouteTable{
		pat.Post(urlStem + "init"):              w.Init,
		pat.Get(urlStem + "variant"):            w.Variant,
		pat.Get(urlStem + "attenuation/:ch"):    w.GetAttenuation,
		pat.Post(urlStem + "attenuation/:ch"):   w.SetAttenuation,
		pat.Post(urlStem + "enable-generation"): w.EnableGeneration,
		pat.Post(urlStem + "configure-mod"):     w.ConfigureMod,
		pat.Get(urlStem + "alarms"):             w.Alarms,
		pat.Get(urlStem + "lock-status"):        w.LockStatus,
	}
	w.RouteTable = rt
	return w
}

// RT satisfies server.HTTPer
func (h *HTTPWrapper) RT() server.RouteTable {
	return h.RouteTable
}

// Init runs the board bring-up sequence.
func (h *HTTPWrapper) Init(w http.ResponseWriter, r *http.Request) {
	if err := h.Board.Init(); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// Variant reports the board's assembly variant.
func (h *HTTPWrapper) Variant(w http.ResponseWriter, r *http.Request) {
	server.EncodeJSON(w, server.StrT{Str: h.Board.Variant().String()})
}

func attChannel(r *http.Request) (int, error) {
	return strconv.Atoi(pat.Param(r, "ch"))
}

// GetAttenuation returns the shadow copy of the channel's step code.
func (h *HTTPWrapper) GetAttenuation(w http.ResponseWriter, r *http.Request) {
	ch, err := attChannel(r)
	if err != nil || ch < 0 || ch > 1 {
		http.Error(w, "channel must be 0 or 1", http.StatusBadRequest)
		return
	}
	server.EncodeJSON(w, server.IntT{Int: int(h.Board.AttMU(ch))})
}

// SetAttenuation sets a channel's attenuation in machine units from an
// {"int": ...} body.
func (h *HTTPWrapper) SetAttenuation(w http.ResponseWriter, r *http.Request) {
	ch, err := attChannel(r)
	if err != nil || ch < 0 || ch > 1 {
		http.Error(w, "channel must be 0 or 1", http.StatusBadRequest)
		return
	}
	v := server.IntT{}
	err = json.NewDecoder(r.Body).Decode(&v)
	defer r.Body.Close()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if v.Int < 0 || v.Int > 0xff {
		http.Error(w, "attenuation must be an 8-bit machine unit value", http.StatusBadRequest)
		return
	}
	if err := h.Board.SetAttMU(ch, uint8(v.Int)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// EnableGeneration runs the DAC provisioning script and returns the alarm
// snapshot.
func (h *HTTPWrapper) EnableGeneration(w http.ResponseWriter, r *http.Request) {
	alarms, err := h.Board.EnableGeneration()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	server.EncodeJSON(w, alarms)
}

type modTableT struct {
	Table []uint32 `json:"table"`
}

// ConfigureMod programs a coefficient table from a {"table": [...]} body
// and returns readbacks and lock status.
func (h *HTTPWrapper) ConfigureMod(w http.ResponseWriter, r *http.Request) {
	t := modTableT{}
	err := json.NewDecoder(r.Body).Decode(&t)
	defer r.Body.Close()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	res, err := h.Board.ConfigureMod(t.Table)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	server.EncodeJSON(w, res)
}

// Alarms returns the decoded DAC alarm register.
func (h *HTTPWrapper) Alarms(w http.ResponseWriter, r *http.Request) {
	alarms, err := h.Board.ReadAlarms()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	server.EncodeJSON(w, alarms)
}

type lockStatusT struct {
	Locked0 bool `json:"locked0"`
	Locked1 bool `json:"locked1"`
}

// LockStatus returns both modulator lock-detect bits.
func (h *HTTPWrapper) LockStatus(w http.ResponseWriter, r *http.Request) {
	l0, l1, err := h.Board.LockStatus()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	server.EncodeJSON(w, lockStatusT{Locked0: l0, Locked1: l1})
}

// DebugRouter exposes raw register access with chi URL parameters, for
// bench debugging.  Mount it behind the throttle middleware; unpaced pokes
// at the bus can starve real sequences.
func DebugRouter(b *Board) http.Handler {
	r := chi.NewRouter()
	r.Get("/reg/{addr}", func(w http.ResponseWriter, req *http.Request) {
		addr, err := parseAddr(req, "addr", 0x7f)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		v, err := b.ReadReg(addr)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		server.EncodeJSON(w, server.IntT{Int: int(v)})
	})
	r.Post("/reg/{addr}", func(w http.ResponseWriter, req *http.Request) {
		addr, err := parseAddr(req, "addr", 0x7f)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		v := server.IntT{}
		err = json.NewDecoder(req.Body).Decode(&v)
		defer req.Body.Close()
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := b.WriteReg(addr, uint16(v.Int)); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	r.Get("/dac/{addr}", func(w http.ResponseWriter, req *http.Request) {
		addr, err := parseAddr(req, "addr", 0x7f)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		v, err := b.ReadDAC(addr)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		server.EncodeJSON(w, server.IntT{Int: int(v)})
	})
	r.Post("/dac/{addr}", func(w http.ResponseWriter, req *http.Request) {
		addr, err := parseAddr(req, "addr", 0x7f)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		v := server.IntT{}
		err = json.NewDecoder(req.Body).Decode(&v)
		defer req.Body.Close()
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := b.WriteDAC(addr, uint16(v.Int)); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	r.Get("/mod/{mod}/{addr}", func(w http.ResponseWriter, req *http.Request) {
		mod, err := parseAddr(req, "mod", 1)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		addr, err := parseAddr(req, "addr", 0x7)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		v, err := b.ReadMod(mod, addr)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		server.EncodeJSON(w, server.IntT{Int: int(v)})
	})
	r.Post("/mod/{mod}/{addr}", func(w http.ResponseWriter, req *http.Request) {
		mod, err := parseAddr(req, "mod", 1)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		addr, err := parseAddr(req, "addr", 0x7)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		v := server.IntT{}
		err = json.NewDecoder(req.Body).Decode(&v)
		defer req.Body.Close()
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := b.WriteMod(mod, addr, uint32(v.Int)); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	return r
}

// parseAddr reads a URL parameter as a number, accepting 0x prefixes, and
// bounds checks it.
func parseAddr(r *http.Request, name string, max uint64) (int, error) {
	v, err := strconv.ParseUint(chi.URLParam(r, name), 0, 32)
	if err != nil {
		return 0, err
	}
	if v > max {
		return 0, strconv.ErrRange
	}
	return int(v), nil
}
