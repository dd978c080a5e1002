package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"rehabinv-cli/internal/apiclient"
	"rehabinv-cli/internal/editstore"
	"rehabinv-cli/internal/model"
	"rehabinv-cli/internal/store"
)

func newTestServer(t *testing.T) (*httptest.Server, store.Store) {
	t.Helper()
	repo := store.Store{Dir: t.TempDir()}
	ts := httptest.NewServer(New(repo, nil).Router())
	t.Cleanup(ts.Close)
	return ts, repo
}

func TestServer_Healthz(t *testing.T) {
	t.Parallel()

	ts, _ := newTestServer(t)
	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: %d", resp.StatusCode)
	}
	if resp.Header.Get(requestIDHeader) == "" {
		t.Fatalf("expected request id header")
	}
}

func TestServer_CreateValidatesAndSanitizes(t *testing.T) {
	t.Parallel()

	ts, _ := newTestServer(t)
	post := func(body string) (*http.Response, model.Envelope[model.Item]) {
		t.Helper()
		resp, err := http.Post(ts.URL+"/api/inventory", "application/json", strings.NewReader(body))
		if err != nil {
			t.Fatalf("POST: %v", err)
		}
		defer resp.Body.Close()
		var env model.Envelope[model.Item]
		if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
			t.Fatalf("decode: %v", err)
		}
		return resp, env
	}

	resp, env := post(`{"name":"<b>Salt</b> & Pepper","type":"qty","value":3,"notes":"<script>x</script>shelf"}`)
	if resp.StatusCode != http.StatusCreated || !env.Success {
		t.Fatalf("create: status=%d env=%+v", resp.StatusCode, env)
	}
	if env.Data.Name != "Salt & Pepper" {
		t.Fatalf("expected tags stripped, got %q", env.Data.Name)
	}
	if env.Data.Notes != "shelf" {
		t.Fatalf("expected script stripped, got %q", env.Data.Notes)
	}

	resp, env = post(`{"name":"salt & pepper","type":"qty","value":1}`)
	if resp.StatusCode != http.StatusBadRequest || env.Success || env.Field != "name" {
		t.Fatalf("expected duplicate 400, got %d %+v", resp.StatusCode, env)
	}
	if env.Error != "an item with this name already exists" {
		t.Fatalf("unexpected error message: %q", env.Error)
	}

	resp, env = post(`{"name":"Cream","type":"pct","value":101}`)
	if resp.StatusCode != http.StatusBadRequest || env.Field != "value" {
		t.Fatalf("expected range 400, got %d %+v", resp.StatusCode, env)
	}

	resp, _ = post(`{"name":"Cream","type":"ml","value":1}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected type 400, got %d", resp.StatusCode)
	}
}

func TestServer_ClientRoundTrip(t *testing.T) {
	t.Parallel()

	ts, repo := newTestServer(t)
	ctx := context.Background()
	c := apiclient.New(ts.URL + "/api")

	if err := c.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}

	a, err := c.AddItem(ctx, model.ItemDraft{Name: "Gauze", Type: model.ItemTypeQuantity, Value: 10})
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if _, err := c.AddItem(ctx, model.ItemDraft{Name: "Lotion", Type: model.ItemTypePercentage, Value: 60}); err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	v := 99999
	got, err := c.UpdateItem(ctx, a.ID, model.ItemPatch{Value: &v})
	if err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}
	if got.Value != 9999 {
		t.Fatalf("expected server-side clamp, got %d", got.Value)
	}

	_, err = c.UpdateItem(ctx, "item-missing", model.ItemPatch{Value: &v})
	var apiErr *apiclient.APIError
	if !errors.As(err, &apiErr) || !apiErr.NotFound() {
		t.Fatalf("expected 404 APIError, got %v", err)
	}

	_, err = c.AddItem(ctx, model.ItemDraft{Name: "GAUZE", Type: model.ItemTypeQuantity, Value: 1})
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusBadRequest || apiErr.Field != "name" {
		t.Fatalf("expected 400 on duplicate, got %v", err)
	}

	up, err := c.UpsertAll(ctx, []model.Item{
		{ID: a.ID, Name: "Gauze", Type: model.ItemTypeQuantity, Value: 1},
		{Name: "Tape", Type: model.ItemTypeQuantity, Value: 7},
	})
	if err != nil {
		t.Fatalf("UpsertAll: %v", err)
	}
	if len(up) != 2 || up[1].ID == "" {
		t.Fatalf("unexpected upsert result: %+v", up)
	}

	items, err := c.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	if len(items) != 3 || items[0].Value != 1 || items[2].Name != "Tape" {
		t.Fatalf("unexpected items: %+v", items)
	}

	if err := c.DeleteItem(ctx, a.ID); err != nil {
		t.Fatalf("DeleteItem: %v", err)
	}
	local, _ := repo.GetAll(ctx)
	if len(local) != 2 {
		t.Fatalf("delete did not reach storage: %+v", local)
	}

	if err := c.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if items, _ := c.GetAll(ctx); len(items) != 0 {
		t.Fatalf("expected empty after clear, got %+v", items)
	}
}

func TestServer_EditStoreOverNetwork(t *testing.T) {
	t.Parallel()

	ts, _ := newTestServer(t)
	ctx := context.Background()
	c := apiclient.New(ts.URL + "/api")
	es := editstore.New(c)

	for _, name := range []string{"A", "B", "C"} {
		if _, err := es.AddItem(ctx, name, model.ItemTypePercentage, 50, ""); err != nil {
			t.Fatalf("AddItem: %v", err)
		}
	}
	for _, it := range es.Items() {
		es.Mutate(it.ID, 10)
	}
	n, err := es.Save(ctx)
	if err != nil || n != 3 {
		t.Fatalf("Save: n=%d err=%v", n, err)
	}

	fresh := editstore.New(c)
	if err := fresh.Reload(ctx); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	for _, it := range fresh.Items() {
		if it.Value != 10 {
			t.Fatalf("value not persisted over the network: %+v", it)
		}
	}
}
