package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"mealledger/internal/models"
	"mealledger/internal/storage/sqlite"
)

func newTestHandler(t *testing.T) *httptest.Server {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	ctx := t.Context()
	for _, upn := range []string{"alice", "bob"} {
		if err := store.CreateUser(ctx, upn); err != nil {
			t.Fatalf("CreateUser(%q) failed: %v", upn, err)
		}
	}

	mux := http.NewServeMux()
	New(store).Register(mux)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestGetData(t *testing.T) {
	server := newTestHandler(t)

	resp, err := http.Get(server.URL + "/api/get-data")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}

	// The receipts field must keep its historical wire spelling.
	if !strings.Contains(string(body), `"Reciepts"`) {
		t.Errorf("payload %s does not carry the legacy Reciepts field", body)
	}

	var led models.Ledger
	if err := json.Unmarshal(body, &led); err != nil {
		t.Fatalf("failed to decode payload: %v", err)
	}
	if len(led.Users) != 2 {
		t.Errorf("users = %d, want 2", len(led.Users))
	}
}

func TestEditMeal(t *testing.T) {
	server := newTestHandler(t)

	post := func(t *testing.T, path string) *http.Response {
		t.Helper()
		resp, err := http.Post(server.URL+path, "application/json", nil)
		if err != nil {
			t.Fatal(err)
		}
		t.Cleanup(func() { resp.Body.Close() })
		return resp
	}

	fetchLedger := func(t *testing.T) models.Ledger {
		t.Helper()
		resp, err := http.Get(server.URL + "/api/get-data")
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		var led models.Ledger
		if err := json.NewDecoder(resp.Body).Decode(&led); err != nil {
			t.Fatal(err)
		}
		return led
	}

	t.Run("positive count records payer to payee", func(t *testing.T) {
		if resp := post(t, "/api/edit_meal/alice/bob/3"); resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want 200", resp.StatusCode)
		}

		led := fetchLedger(t)
		if len(led.Receipts) != 1 {
			t.Fatalf("receipts = %d, want 1", len(led.Receipts))
		}
		r := led.Receipts[0]
		if r.Payer != led.Users[0].ID || r.Payee != led.Users[1].ID || r.NumMeals != 3 {
			t.Errorf("receipt = %+v, want alice paying bob 3", r)
		}
	})

	t.Run("negative count swaps the direction", func(t *testing.T) {
		if resp := post(t, "/api/edit_meal/alice/bob/-2"); resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want 200", resp.StatusCode)
		}

		led := fetchLedger(t)
		r := led.Receipts[len(led.Receipts)-1]
		if r.Payer != led.Users[1].ID || r.Payee != led.Users[0].ID || r.NumMeals != 2 {
			t.Errorf("receipt = %+v, want bob paying alice 2", r)
		}
	})

	t.Run("unknown user is a 400 with debug header", func(t *testing.T) {
		resp := post(t, "/api/edit_meal/ghost/bob/1")
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", resp.StatusCode)
		}
		if resp.Header.Get(dbgHeader) != dbgNoSuchUser {
			t.Errorf("%s = %q, want %q", dbgHeader, resp.Header.Get(dbgHeader), dbgNoSuchUser)
		}
	})

	t.Run("malformed count is a 400", func(t *testing.T) {
		resp := post(t, "/api/edit_meal/alice/bob/lots")
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", resp.StatusCode)
		}
		if resp.Header.Get(dbgHeader) != dbgInvalidParameter {
			t.Errorf("%s = %q, want %q", dbgHeader, resp.Header.Get(dbgHeader), dbgInvalidParameter)
		}
	})
}

func TestWhoami(t *testing.T) {
	server := newTestHandler(t)

	var led models.Ledger
	resp, err := http.Get(server.URL + "/api/get-data")
	if err != nil {
		t.Fatal(err)
	}
	if err := json.NewDecoder(resp.Body).Decode(&led); err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	resp, err = http.Get(server.URL + "/api/whoami/" + led.Users[1].UPN)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("whoami with non-numeric id: status = %d, want 400", resp.StatusCode)
	}

	resp, err = http.Get(server.URL + "/api/whoami/" + strconv.FormatUint(uint64(led.Users[1].ID), 10))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "bob" {
		t.Errorf("whoami = %q, want bob", body)
	}
}

func TestEcho(t *testing.T) {
	server := newTestHandler(t)

	resp, err := http.Post(server.URL+"/api/echo", "application/json", strings.NewReader(`{"ping":true}`))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if string(body) != `{"ping":true}` {
		t.Errorf("echo = %q", body)
	}
}

func TestRecords(t *testing.T) {
	server := newTestHandler(t)

	for _, path := range []string{
		"/api/edit_meal/alice/bob/1",
		"/api/edit_meal/alice/bob/2",
		"/api/edit_meal/bob/alice/3",
	} {
		resp, err := http.Post(server.URL+path, "application/json", nil)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
	}

	fetch := func(t *testing.T, query string) []models.Receipt {
		t.Helper()
		resp, err := http.Get(server.URL + "/api/records" + query)
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want 200", resp.StatusCode)
		}
		var records []models.Receipt
		if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
			t.Fatal(err)
		}
		return records
	}

	t.Run("default limit returns all recent records", func(t *testing.T) {
		records := fetch(t, "")
		if len(records) != 3 {
			t.Fatalf("records = %d, want 3", len(records))
		}
	})

	t.Run("limit bounds the result", func(t *testing.T) {
		records := fetch(t, "?limit=2")
		if len(records) != 2 {
			t.Fatalf("records = %d, want 2", len(records))
		}
		if records[0].NumMeals != 2 || records[1].NumMeals != 3 {
			t.Errorf("records meals = %d,%d, want 2,3 (newest two, oldest first)",
				records[0].NumMeals, records[1].NumMeals)
		}
	})

	t.Run("malformed limit is a 400", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/api/records?limit=lots")
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", resp.StatusCode)
		}
		if resp.Header.Get(dbgHeader) != dbgInvalidParameter {
			t.Errorf("%s = %q, want %q", dbgHeader, resp.Header.Get(dbgHeader), dbgInvalidParameter)
		}
	})
}

func TestSummaryAndCreateUser(t *testing.T) {
	server := newTestHandler(t)

	resp, err := http.Post(server.URL+"/api/user", "application/json", strings.NewReader(`{"User":"carol"}`))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("create user status = %d, want 200", resp.StatusCode)
	}

	if resp, err = http.Post(server.URL+"/api/edit_meal/carol/alice/4", "application/json", nil); err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	resp, err = http.Get(server.URL + "/api/summary")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var summary map[string]map[string]models.SummaryRecord
	if err := json.NewDecoder(resp.Body).Decode(&summary); err != nil {
		t.Fatal(err)
	}
	if got := summary["carol"]["alice"].OutgoingCredits; got != 4 {
		t.Errorf("carol outgoing to alice = %d, want 4", got)
	}
	if got := summary["alice"]["carol"].IncomingCredits; got != 4 {
		t.Errorf("alice incoming from carol = %d, want 4", got)
	}
}
