package httpapi_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	squadledger "github.com/vitaly-rudenko/squadledger"
	"github.com/vitaly-rudenko/squadledger/httpapi"
	"github.com/vitaly-rudenko/squadledger/id"
	"github.com/vitaly-rudenko/squadledger/store/memory"
)

func newServer(t *testing.T) (*squadledger.Ledger, *httptest.Server) {
	t.Helper()

	engine := squadledger.New(memory.New())
	srv := httptest.NewServer(httpapi.New(engine).Routes())
	t.Cleanup(srv.Close)
	t.Cleanup(func() { _ = engine.Stop() })
	return engine, srv
}

func postJSON(t *testing.T, url, body string) (*http.Response, map[string]any) {
	t.Helper()

	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	defer resp.Body.Close()

	var out map[string]any
	if resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
	return resp, out
}

func getJSON(t *testing.T, url string, out any) *http.Response {
	t.Helper()

	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
	return resp
}

func del(t *testing.T, url string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(http.MethodDelete, url, nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE %s: %v", url, err)
	}
	resp.Body.Close()
	return resp
}

func TestHealth(t *testing.T) {
	_, srv := newServer(t)

	var out map[string]string
	resp := getJSON(t, srv.URL+"/health", &out)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: got %d, want 200", resp.StatusCode)
	}
	if out["status"] != "ok" {
		t.Errorf("status body: got %q, want %q", out["status"], "ok")
	}
}

func TestReceiptLifecycle(t *testing.T) {
	_, srv := newServer(t)

	resp, created := postJSON(t, srv.URL+"/receipts", `{
		"editorId": "user-1",
		"payerId": "user-1",
		"amount": 30000,
		"description": "dinner",
		"debts": [
			{"debtorId": "user-2", "amount": 15000},
			{"debtorId": "user-3", "amount": 15000}
		]
	}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status: got %d, want 201", resp.StatusCode)
	}
	receiptID, _ := created["id"].(string)
	if !strings.HasPrefix(receiptID, "rcpt_") {
		t.Fatalf("receipt id: got %q, want rcpt_ prefix", receiptID)
	}

	var fetched map[string]any
	resp = getJSON(t, srv.URL+"/receipts/"+receiptID, &fetched)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get status: got %d, want 200", resp.StatusCode)
	}
	if fetched["payerId"] != "user-1" {
		t.Errorf("payerId: got %v, want user-1", fetched["payerId"])
	}
	debts, _ := fetched["debts"].([]any)
	if len(debts) != 2 {
		t.Fatalf("got %d debts, want 2", len(debts))
	}

	resp = del(t, srv.URL+"/receipts/"+receiptID+"?editor_id=user-2")
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status: got %d, want 204", resp.StatusCode)
	}

	resp = getJSON(t, srv.URL+"/receipts/"+receiptID, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("get after delete: got %d, want 404", resp.StatusCode)
	}
}

func TestSaveReceiptValidationErrors(t *testing.T) {
	_, srv := newServer(t)

	// Sum mismatch with all shares resolved.
	resp, _ := postJSON(t, srv.URL+"/receipts", `{
		"editorId": "user-1",
		"payerId": "user-1",
		"amount": 30000,
		"debts": [{"debtorId": "user-2", "amount": 10000}]
	}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("sum mismatch: got %d, want 400", resp.StatusCode)
	}

	// Editor is neither the payer nor a debtor.
	resp, _ = postJSON(t, srv.URL+"/receipts", `{
		"editorId": "stranger",
		"payerId": "user-1",
		"amount": 30000,
		"debts": [{"debtorId": "user-2", "amount": 30000}]
	}`)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("stranger edit: got %d, want 403", resp.StatusCode)
	}

	resp, _ = postJSON(t, srv.URL+"/receipts", `not json`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad body: got %d, want 400", resp.StatusCode)
	}
}

func TestUnresolvedShareRoundTrip(t *testing.T) {
	_, srv := newServer(t)

	// An unresolved share rides as JSON null and disables the sum check.
	resp, created := postJSON(t, srv.URL+"/receipts", `{
		"editorId": "user-1",
		"payerId": "user-1",
		"amount": 30000,
		"debts": [
			{"debtorId": "user-2", "amount": 10000},
			{"debtorId": "user-3", "amount": null}
		]
	}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status: got %d, want 201", resp.StatusCode)
	}
	receiptID, _ := created["id"].(string)

	var fetched struct {
		Debts []struct {
			DebtorID string `json:"debtorId"`
			Amount   *int64 `json:"amount"`
		} `json:"debts"`
	}
	getJSON(t, srv.URL+"/receipts/"+receiptID, &fetched)
	if len(fetched.Debts) != 2 {
		t.Fatalf("got %d debts, want 2", len(fetched.Debts))
	}
	if fetched.Debts[1].Amount != nil {
		t.Errorf("unresolved share: got %v, want null", *fetched.Debts[1].Amount)
	}
}

func TestGetDebtsWireShape(t *testing.T) {
	_, srv := newServer(t)

	// user-1 paid 300.00, split evenly with user-2 and user-3; user-3's
	// share is still unresolved.
	resp, _ := postJSON(t, srv.URL+"/receipts", `{
		"editorId": "user-1",
		"payerId": "user-1",
		"amount": 30000,
		"debts": [
			{"debtorId": "user-2", "amount": 10000},
			{"debtorId": "user-3", "amount": null}
		]
	}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create receipt: got %d", resp.StatusCode)
	}

	// user-2 settles part of their debt directly.
	resp, _ = postJSON(t, srv.URL+"/payments", `{
		"fromUserId": "user-2",
		"toUserId": "user-1",
		"amount": 2500
	}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create payment: got %d", resp.StatusCode)
	}

	var out struct {
		IngoingDebts []struct {
			UserID       string `json:"userId"`
			Amount       int64  `json:"amount"`
			IsIncomplete bool   `json:"isIncomplete"`
		} `json:"ingoingDebts"`
		OutgoingDebts        []json.RawMessage `json:"outgoingDebts"`
		IncompleteReceiptIDs []string          `json:"incompleteReceiptIds"`
	}
	getJSON(t, srv.URL+"/debts?user_id=user-1", &out)

	if len(out.IngoingDebts) != 2 {
		t.Fatalf("ingoing: got %d entries, want 2: %+v", len(out.IngoingDebts), out.IngoingDebts)
	}
	if out.IngoingDebts[0].UserID != "user-2" || out.IngoingDebts[0].Amount != 7500 {
		t.Errorf("user-2 entry: got %+v, want 7500 owed", out.IngoingDebts[0])
	}
	if out.IngoingDebts[0].IsIncomplete {
		t.Error("user-2 entry should be complete")
	}
	// user-3 owes an unresolved amount: zero balance but flagged.
	if out.IngoingDebts[1].UserID != "user-3" || out.IngoingDebts[1].Amount != 0 {
		t.Errorf("user-3 entry: got %+v, want zero amount", out.IngoingDebts[1])
	}
	if !out.IngoingDebts[1].IsIncomplete {
		t.Error("user-3 entry should be incomplete")
	}
	if len(out.OutgoingDebts) != 0 {
		t.Errorf("outgoing should be empty, got %v", out.OutgoingDebts)
	}
	if len(out.IncompleteReceiptIDs) != 1 {
		t.Errorf("incomplete receipt ids: got %v, want one id", out.IncompleteReceiptIDs)
	}
}

func TestGetDebtsSettledPairOmitted(t *testing.T) {
	_, srv := newServer(t)

	postJSON(t, srv.URL+"/receipts", `{
		"editorId": "user-1",
		"payerId": "user-1",
		"amount": 10000,
		"debts": [{"debtorId": "user-2", "amount": 10000}]
	}`)
	postJSON(t, srv.URL+"/payments", `{
		"fromUserId": "user-2",
		"toUserId": "user-1",
		"amount": 10000
	}`)

	var out struct {
		IngoingDebts  []json.RawMessage `json:"ingoingDebts"`
		OutgoingDebts []json.RawMessage `json:"outgoingDebts"`
	}
	getJSON(t, srv.URL+"/debts?user_id=user-1", &out)

	// Fully settled complete pairs drop out of the response.
	if len(out.IngoingDebts) != 0 || len(out.OutgoingDebts) != 0 {
		t.Errorf("settled pair should be omitted, got in=%v out=%v",
			out.IngoingDebts, out.OutgoingDebts)
	}
}

func TestGetDebtsRequiresUserID(t *testing.T) {
	_, srv := newServer(t)

	resp := getJSON(t, srv.URL+"/debts", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", resp.StatusCode)
	}
}

func TestPaymentLifecycle(t *testing.T) {
	_, srv := newServer(t)

	resp, created := postJSON(t, srv.URL+"/payments", `{
		"fromUserId": "user-2",
		"toUserId": "user-1",
		"amount": 5000
	}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status: got %d, want 201", resp.StatusCode)
	}
	paymentID, _ := created["id"].(string)
	if !strings.HasPrefix(paymentID, "pay_") {
		t.Fatalf("payment id: got %q, want pay_ prefix", paymentID)
	}

	var fetched map[string]any
	resp = getJSON(t, srv.URL+"/payments/"+paymentID, &fetched)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get status: got %d, want 200", resp.StatusCode)
	}
	if fetched["fromUserId"] != "user-2" {
		t.Errorf("fromUserId: got %v, want user-2", fetched["fromUserId"])
	}

	var listed []map[string]any
	resp = getJSON(t, srv.URL+"/payments?user_id=user-1", &listed)
	if resp.StatusCode != http.StatusOK || len(listed) != 1 {
		t.Fatalf("list: status %d, %d payments", resp.StatusCode, len(listed))
	}

	// A third party cannot delete the payment.
	resp = del(t, srv.URL+"/payments/"+paymentID+"?editor_id=stranger")
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("stranger delete: got %d, want 403", resp.StatusCode)
	}

	resp = del(t, srv.URL+"/payments/"+paymentID+"?editor_id=user-2")
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status: got %d, want 204", resp.StatusCode)
	}
}

func TestSelfPaymentRejected(t *testing.T) {
	_, srv := newServer(t)

	resp, _ := postJSON(t, srv.URL+"/payments", `{
		"fromUserId": "user-1",
		"toUserId": "user-1",
		"amount": 5000
	}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", resp.StatusCode)
	}
}

func TestUnknownIDsReturn404(t *testing.T) {
	_, srv := newServer(t)

	resp := getJSON(t, srv.URL+"/receipts/"+id.NewReceiptID().String(), nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown receipt: got %d, want 404", resp.StatusCode)
	}

	resp = getJSON(t, srv.URL+"/payments/"+id.NewPaymentID().String(), nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown payment: got %d, want 404", resp.StatusCode)
	}

	resp = getJSON(t, srv.URL+"/receipts/not-a-typeid", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("malformed id: got %d, want 400", resp.StatusCode)
	}
}
