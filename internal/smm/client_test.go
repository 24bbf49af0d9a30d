package smm

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func panelServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if r.PostForm.Get("key") != "k" {
			_, _ = w.Write([]byte(`{"error":"Invalid API key"}`))
			return
		}
		switch r.PostForm.Get("action") {
		case "services":
			_, _ = w.Write([]byte(`[{"service":1,"name":"Followers","type":"Default","category":"Instagram","rate":"0.90","min":"50","max":"10000","refill":true,"cancel":false},{"service":"2","name":"Likes","rate":1.5,"min":10,"max":500}]`))
		case "add":
			if r.PostForm.Get("quantity") != "100" || r.PostForm.Get("link") == "" {
				_, _ = w.Write([]byte(`{"error":"Incorrect request"}`))
				return
			}
			_, _ = w.Write([]byte(`{"order":23501}`))
		case "status":
			_, _ = w.Write([]byte(`{"charge":"0.27819","start_count":"3572","status":"Partial","remains":"157","currency":"USD"}`))
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	}))
}

func TestClientServicesDecodesMixedTypes(t *testing.T) {
	srv := panelServer(t)
	defer srv.Close()

	list, err := NewClient(srv.URL, "k").Services(context.Background())
	if err != nil {
		t.Fatalf("services: %v", err)
	}
	if len(list) != 2 || list[0].ID.String() != "1" || list[1].ID.String() != "2" {
		t.Fatalf("unexpected services %+v", list)
	}
	if list[0].Rate.String() != "0.90" || list[1].Rate.String() != "1.5" {
		t.Fatalf("unexpected rates %q %q", list[0].Rate, list[1].Rate)
	}
}

func TestClientAddOrderAndStatus(t *testing.T) {
	srv := panelServer(t)
	defer srv.Close()
	c := NewClient(srv.URL, "k")

	id, err := c.AddOrder(context.Background(), "1", "https://instagram.com/brandbuzz", 100)
	if err != nil || id != "23501" {
		t.Fatalf("expected order 23501, got %q err=%v", id, err)
	}
	st, err := c.Status(context.Background(), id)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if normalizeStatus(st.Status) != OrderStatusPartial || st.Remains.String() != "157" {
		t.Fatalf("unexpected status %+v", st)
	}
}

func TestClientSurfacesPanelErrors(t *testing.T) {
	srv := panelServer(t)
	defer srv.Close()

	_, err := NewClient(srv.URL, "wrong").Services(context.Background())
	if !errors.Is(err, ErrPanel) {
		t.Fatalf("expected ErrPanel, got %v", err)
	}
	if _, err := NewClient("", "").Services(context.Background()); !errors.Is(err, ErrPanel) {
		t.Fatalf("expected ErrPanel for unconfigured client, got %v", err)
	}
}
