package synth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"goji.io"
)

func newHTTPServer(t *testing.T) (*httptest.Server, *Sim) {
	t.Helper()
	sim := NewSim()
	b, err := New(sim, Upconverter)
	if err != nil {
		t.Fatal(err)
	}
	mux := goji.NewMux()
	NewHTTPWrapper("/", b).RT().Bind(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, sim
}

func TestHTTPInit(t *testing.T) {
	srv, _ := newHTTPServer(t)
	resp, err := http.Post(srv.URL+"/init", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("init returned %d, want 200", resp.StatusCode)
	}
}

func TestHTTPInitSurfacesFailure(t *testing.T) {
	srv, sim := newHTTPServer(t)
	sim.SetStatusField(FieldHWRev, 2)
	resp, err := http.Post(srv.URL+"/init", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("init against a wrong-revision board returned %d, want 500", resp.StatusCode)
	}
}

func TestHTTPAttenuationRoundTrip(t *testing.T) {
	srv, sim := newHTTPServer(t)
	resp, err := http.Post(srv.URL+"/attenuation/1", "application/json",
		strings.NewReader(`{"int": 42}`))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("set attenuation returned %d", resp.StatusCode)
	}
	if sim.Att(1) != 42 {
		t.Errorf("attenuator holds %d, want 42", sim.Att(1))
	}

	resp, err = http.Get(srv.URL + "/attenuation/1")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var v struct {
		Int int `json:"int"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatal(err)
	}
	if v.Int != 42 {
		t.Errorf("readback %d, want 42", v.Int)
	}
}

func TestHTTPAttenuationValidation(t *testing.T) {
	srv, _ := newHTTPServer(t)
	for _, tc := range []struct {
		path, body string
	}{
		{"/attenuation/7", `{"int": 1}`},
		{"/attenuation/0", `{"int": 300}`},
		{"/attenuation/0", `not json`},
	} {
		resp, err := http.Post(srv.URL+tc.path, "application/json",
			strings.NewReader(tc.body))
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("POST %s %q returned %d, want 400", tc.path, tc.body, resp.StatusCode)
		}
	}
}

func TestHTTPConfigureMod(t *testing.T) {
	srv, _ := newHTTPServer(t)
	resp, err := http.Post(srv.URL+"/configure-mod", "application/json",
		strings.NewReader(`{"table": [257, 514]}`))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("configure-mod returned %d", resp.StatusCode)
	}
	var res ModConfigResult
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		t.Fatal(err)
	}
	if len(res.Readbacks) != 2 {
		t.Errorf("expected 2 readbacks, got %d", len(res.Readbacks))
	}
	if !res.Locked0 || !res.Locked1 {
		t.Errorf("expected both PLLs locked, got %v/%v", res.Locked0, res.Locked1)
	}
}

func TestHTTPDebugRegister(t *testing.T) {
	sim := NewSim()
	b, err := New(sim, Upconverter)
	if err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(DebugRouter(b))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/reg/0x04", "application/json",
		strings.NewReader(`{"int": 4660}`))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("debug write returned %d", resp.StatusCode)
	}
	if sim.Reg(4) != 0x1234 {
		t.Errorf("register holds 0x%04X, want 0x1234", sim.Reg(4))
	}

	resp, err = http.Get(srv.URL + "/reg/0x04")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var v struct {
		Int int `json:"int"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatal(err)
	}
	if v.Int != 0x1234 {
		t.Errorf("debug read returned 0x%04X, want 0x1234", v.Int)
	}
}
