package panel

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
)

func TestSanaeiGetUserRemap(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		fmt.Fprint(w, `{"ok":true,"result":{"name":"u1","usage":500,"traffic":1000,"expire":0,"sub":"https://x","vless":"vless://y"}}`)
	}))
	defer srv.Close()

	c := NewSanaeiClient(srv.URL, "tok")
	user, err := c.GetUser(context.Background(), "u1")
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}

	if gotPath != "/tok/user/format/json/name/u1" {
		t.Errorf("path = %q", gotPath)
	}

	want := &PanelUser{
		Username:    "u1",
		UsedTraffic: 500,
		DataLimit:   1000,
		ExpireTime:  0,
		SubLink:     "https://x",
		Links:       []string{"vless://y"},
	}
	if !reflect.DeepEqual(user, want) {
		t.Errorf("user = %+v, want %+v", user, want)
	}
}

func TestSanaeiCreateUser(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		fmt.Fprint(w, `{"ok":true,"result":{"sub":"https://sub/u2","vless":"vless://z"}}`)
	}))
	defer srv.Close()

	c := NewSanaeiClient(srv.URL, "tok")
	user, err := c.CreateUser(context.Background(), CreateUserRequest{
		Username:     "u2",
		DataLimitGB:  10,
		DurationDays: 30,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	if gotPath != "/tok/add/format/json/name/u2/traffic/10/day/30" {
		t.Errorf("path = %q", gotPath)
	}
	// Vendor omitted the name; the requested username is kept.
	if user.Username != "u2" {
		t.Errorf("Username = %q, want u2", user.Username)
	}
	if user.SubLink != "https://sub/u2" || len(user.Links) != 1 {
		t.Errorf("user = %+v", user)
	}
}

func TestSanaeiNotOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"ok":false}`)
	}))
	defer srv.Close()

	c := NewSanaeiClient(srv.URL, "tok")
	if _, err := c.CreateUser(context.Background(), CreateUserRequest{Username: "u"}); err == nil {
		t.Error("expected error for ok:false create")
	}
	if _, err := c.GetUser(context.Background(), "u"); err == nil {
		t.Error("expected error for ok:false lookup")
	}
	if err := c.DeleteUser(context.Background(), "u"); err == nil {
		t.Error("expected error for ok:false delete")
	}
}

func TestSanaeiDeleteUser(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		fmt.Fprint(w, `{"ok":true,"result":{}}`)
	}))
	defer srv.Close()

	c := NewSanaeiClient(srv.URL, "tok")
	if err := c.DeleteUser(context.Background(), "u3"); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	if gotPath != "/tok/delete/format/json/name/u3" {
		t.Errorf("path = %q", gotPath)
	}
}

func TestSanaeiTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewSanaeiClient(srv.URL, "tok")
	if _, err := c.GetUser(context.Background(), "u"); err == nil {
		t.Error("expected error for non-2xx response")
	}
}

func TestSanaeiModifyUnsupported(t *testing.T) {
	c := NewSanaeiClient("http://unused", "tok")
	if err := c.ModifyUser(context.Background(), "u", ModifyUserRequest{}); !errors.Is(err, ErrNotSupported) {
		t.Errorf("err = %v, want ErrNotSupported", err)
	}
}
