package api

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/micom7/graph/internal/audit"
)

type fakeHistory struct {
	got    audit.Filter
	result *audit.ListResult
	err    error
}

func (f *fakeHistory) List(_ context.Context, filter audit.Filter) (*audit.ListResult, error) {
	f.got = filter
	return f.result, f.err
}

func TestListHistory(t *testing.T) {
	hist := &fakeHistory{result: &audit.ListResult{
		Entries: []audit.Entry{{ID: "cmt-1", Op: "device.add", Subject: "A", Outcome: "applied"}},
		Total:   1,
		Limit:   5,
		Offset:  2,
	}}
	srv := testServerWithDeps(t, func(d *Deps) { d.History = hist })
	router := srv.buildRouter()

	w := do(t, router, http.MethodGet, "/api/v1/history?op=device.add&outcome=applied&subject=A&limit=5&offset=2", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	want := audit.Filter{Op: "device.add", Outcome: "applied", Subject: "A", Limit: 5, Offset: 2}
	if hist.got != want {
		t.Errorf("filter = %+v, want %+v", hist.got, want)
	}

	var resp audit.ListResult
	decode(t, w, &resp)
	if resp.Total != 1 || len(resp.Entries) != 1 || resp.Entries[0].ID != "cmt-1" {
		t.Errorf("response = %+v", resp)
	}
}

func TestListHistory_BadPaging(t *testing.T) {
	srv := testServerWithDeps(t, func(d *Deps) { d.History = &fakeHistory{} })
	router := srv.buildRouter()

	for _, q := range []string{"limit=abc", "offset=-1"} {
		w := do(t, router, http.MethodGet, "/api/v1/history?"+q, "")
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", q, w.Code)
		}
	}
}

func TestListHistory_Disabled(t *testing.T) {
	router := testServer(t).buildRouter()

	w := do(t, router, http.MethodGet, "/api/v1/history", "")
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
}

func TestListHistory_StoreError(t *testing.T) {
	srv := testServerWithDeps(t, func(d *Deps) { d.History = &fakeHistory{err: errors.New("locked")} })
	router := srv.buildRouter()

	w := do(t, router, http.MethodGet, "/api/v1/history", "")
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}
