package panel

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// fakeMarzban serves the subset of the Marzban API the client touches.
func fakeMarzban(t *testing.T, createStatus int, createBody map[string]interface{}) (*httptest.Server, *map[string]interface{}) {
	t.Helper()
	var lastCreate map[string]interface{}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/admin/token", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if r.FormValue("username") != "admin" || r.FormValue("password") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"access_token": "tok123"})
	})
	mux.HandleFunc("/api/user", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok123" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewDecoder(r.Body).Decode(&lastCreate)
		w.WriteHeader(createStatus)
		json.NewEncoder(w).Encode(createBody)
	})
	mux.HandleFunc("/api/user/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok123" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch r.Method {
		case http.MethodDelete:
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("{}"))
		default:
			json.NewEncoder(w).Encode(map[string]interface{}{
				"username":         "u1",
				"used_traffic":     123,
				"data_limit":       1 << 30,
				"expire":           0,
				"subscription_url": "/sub/abc",
			})
		}
	})

	return httptest.NewServer(mux), &lastCreate
}

func TestMarzbanCreateUserExpiry(t *testing.T) {
	srv, lastCreate := fakeMarzban(t, http.StatusOK, map[string]interface{}{
		"username":         "user_1_ab12",
		"subscription_url": "/sub/xyz",
		"links":            []string{"vless://one", "vmess://two"},
	})
	defer srv.Close()

	c := NewMarzbanClient(srv.URL, "secret")
	before := time.Now().Unix()
	user, err := c.CreateUser(context.Background(), CreateUserRequest{
		Username:     "user_1_ab12",
		DataLimitGB:  10,
		DurationDays: 30,
	})
	after := time.Now().Unix()
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	// expire = now + 30*86400, within request latency.
	expire := int64((*lastCreate)["expire"].(float64))
	if expire < before+30*86400 || expire > after+30*86400 {
		t.Errorf("expire = %d, want now+2592000", expire)
	}
	// data_limit = 10 GiB in bytes.
	if got := int64((*lastCreate)["data_limit"].(float64)); got != 10<<30 {
		t.Errorf("data_limit = %d, want %d", got, int64(10)<<30)
	}

	// Relative subscription URL must be absolutized.
	if user.SubLink != srv.URL+"/sub/xyz" {
		t.Errorf("SubLink = %q, want %q", user.SubLink, srv.URL+"/sub/xyz")
	}
	if len(user.Links) != 2 {
		t.Errorf("Links = %v, want 2 entries", user.Links)
	}
}

func TestMarzbanCreateUserZeroDaysUnlimited(t *testing.T) {
	srv, lastCreate := fakeMarzban(t, http.StatusOK, map[string]interface{}{"username": "u"})
	defer srv.Close()

	c := NewMarzbanClient(srv.URL, "secret")
	if _, err := c.CreateUser(context.Background(), CreateUserRequest{Username: "u", DataLimitGB: 5}); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if got := int64((*lastCreate)["expire"].(float64)); got != 0 {
		t.Errorf("expire = %d, want 0 for unlimited duration", got)
	}
}

func TestMarzbanCreateUserConflict(t *testing.T) {
	srv, _ := fakeMarzban(t, http.StatusConflict, map[string]interface{}{"detail": "User already exists"})
	defer srv.Close()

	c := NewMarzbanClient(srv.URL, "secret")
	_, err := c.CreateUser(context.Background(), CreateUserRequest{Username: "dupe"})
	if !errors.Is(err, ErrUserExists) {
		t.Errorf("err = %v, want ErrUserExists", err)
	}
}

func TestMarzbanGetUser(t *testing.T) {
	srv, _ := fakeMarzban(t, http.StatusOK, nil)
	defer srv.Close()

	c := NewMarzbanClient(srv.URL, "secret")
	user, err := c.GetUser(context.Background(), "u1")
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if user.UsedTraffic != 123 || user.DataLimit != 1<<30 {
		t.Errorf("user = %+v", user)
	}
	if user.SubLink != srv.URL+"/sub/abc" {
		t.Errorf("SubLink = %q not absolutized", user.SubLink)
	}
}

func TestMarzbanAuthFailure(t *testing.T) {
	srv, _ := fakeMarzban(t, http.StatusOK, nil)
	defer srv.Close()

	c := NewMarzbanClient(srv.URL, "wrong-password")
	if _, err := c.GetUser(context.Background(), "u1"); err == nil {
		t.Error("expected auth failure, got nil")
	}
}

func TestMarzbanModifyUnsupported(t *testing.T) {
	c := NewMarzbanClient("http://unused", "secret")
	if err := c.ModifyUser(context.Background(), "u", ModifyUserRequest{}); !errors.Is(err, ErrNotSupported) {
		t.Errorf("err = %v, want ErrNotSupported", err)
	}
}
