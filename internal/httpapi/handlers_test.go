package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"brandbuzz/internal/auth"
	"brandbuzz/internal/automation"
	"brandbuzz/internal/calls"
	"brandbuzz/internal/campaigns"
	"brandbuzz/internal/config"
	"brandbuzz/internal/contacts"
	"brandbuzz/internal/dispatch"
	"brandbuzz/internal/events"
	"brandbuzz/internal/pricing"
	"brandbuzz/internal/providers"
	"brandbuzz/internal/rbac"
	"brandbuzz/internal/reporting"
	"brandbuzz/internal/users"
	"brandbuzz/internal/wallet"

	"github.com/gin-gonic/gin"
)

type fakeAdapter struct {
	ch     providers.Channel
	prefix string
	fail   bool

	mu   sync.Mutex
	sent []providers.Message
}

func (f *fakeAdapter) Channel() providers.Channel { return f.ch }

func (f *fakeAdapter) Send(ctx context.Context, m providers.Message) (providers.SendResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, m)
	if f.fail {
		return providers.SendResult{}, errors.New("vendor rejected number")
	}
	return providers.SendResult{ProviderID: fmt.Sprintf("%s%d", f.prefix, len(f.sent))}, nil
}

type nopQueue struct{}

func (nopQueue) Enqueue(ctx context.Context, jobID string) error { return nil }

type stack struct {
	r         *gin.Engine
	wallet    *wallet.MemoryRepo
	campaigns *campaigns.MemoryRepo
	calls     *calls.MemoryRepo
	sms       *fakeAdapter
	voice     *fakeAdapter
	auth      *auth.Manager
}

func newStack(t *testing.T) stack {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s := stack{
		wallet:    wallet.NewMemoryRepo(),
		campaigns: campaigns.NewMemoryRepo(),
		calls:     calls.NewMemoryRepo(),
		sms:       &fakeAdapter{ch: providers.ChannelSMS, prefix: "SM"},
		voice:     &fakeAdapter{ch: providers.ChannelVoice, prefix: "CA"},
	}
	s.wallet.Seed("u1", 1000)
	s.wallet.Seed("u2", 10)
	s.wallet.Seed("u3", 0)

	mgr, err := auth.NewManager(config.AuthConfig{JWTSecret: "test-secret", AccessTokenTTL: time.Minute, RefreshTokenTTL: time.Hour})
	if err != nil {
		t.Fatalf("auth manager: %v", err)
	}
	s.auth = mgr

	pub := &events.Memory{}
	pricer := pricing.NewService(pricing.RateCard{
		Currency: "INR",
		Channels: map[providers.Channel]pricing.ChannelRate{
			providers.ChannelSMS:   {UnitMinor: 25, Policy: pricing.ChargeAttempted},
			providers.ChannelVoice: {UnitMinor: 100, Policy: pricing.ChargeSucceeded},
		},
		VoiceMinuteMinor: 100,
	})
	walletSvc := wallet.NewService(s.wallet, "INR", nil)
	contactsSvc := contacts.NewService(contacts.NewMemoryRepo(), nil)
	campaignsSvc := campaigns.NewService(s.campaigns, nil)
	callsSvc := calls.NewService(s.calls, pricer, walletSvc, campaignsSvc, pub)

	h := Handlers{
		Auth:      mgr,
		Users:     users.NewService(users.NewMemoryRepo(), "INR"),
		Contacts:  contactsSvc,
		Campaigns: campaignsSvc,
		Wallet:    walletSvc,
		Dispatcher: dispatch.New(dispatch.Deps{
			Contacts:  contactsSvc,
			Adapters:  providers.NewRegistry(s.sms, s.voice),
			Pricer:    pricer,
			Ledger:    walletSvc,
			Campaigns: campaignsSvc,
			Calls:     callsSvc,
			Limiter:   dispatch.NewMemoryLimiter(2),
			Events:    pub,
		}),
		Calls:      callsSvc,
		Automation: automation.NewService(automation.NewMemoryRepo(), nopQueue{}, 10),
		Reports:    reporting.NewService(reporting.Sources{Campaigns: campaignsSvc, Calls: callsSvc, Wallet: walletSvc}),
	}

	s.r = gin.New()
	h.Register(s.r, Guards{
		Paid:  wallet.RequirePositiveBalance(walletSvc, UserIDFromRequest),
		Admin: []gin.HandlerFunc{auth.RequireAccessToken(mgr), rbac.RequireAnyRole(rbac.RoleAdmin)},
	})
	return s
}

func (s stack) do(t *testing.T, method, path string, body any) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.r.ServeHTTP(w, req)
	var out map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w.Code, out
}

func (s stack) form(t *testing.T, path string, vals url.Values) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(vals.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	s.r.ServeHTTP(w, req)
	var out map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w.Code, out
}

func (s stack) createContact(t *testing.T, body map[string]any) string {
	t.Helper()
	code, out := s.do(t, http.MethodPost, "/api/contacts", body)
	if code != http.StatusCreated {
		t.Fatalf("create contact: %d %v", code, out)
	}
	ct, _ := out["contact"].(map[string]any)
	id, _ := ct["id"].(string)
	if id == "" {
		t.Fatalf("expected contact id in %v", out)
	}
	return id
}

func TestContactThenSMSSendRecordsOneLog(t *testing.T) {
	s := newStack(t)
	id := s.createContact(t, map[string]any{"name": "A", "phone": "9876543210", "userId": "u1"})

	code, out := s.do(t, http.MethodPost, "/api/sms/send", map[string]any{"recipients": []string{id}, "message": "hi", "userId": "u1"})
	if code != http.StatusOK || out["success"] != true {
		t.Fatalf("send: %d %v", code, out)
	}
	if s.campaigns.Count() != 1 {
		t.Fatalf("expected one campaign, got %d", s.campaigns.Count())
	}
	logs := s.campaigns.Logs()
	if len(logs) != 1 || logs[0].Status != campaigns.LogStatusSent {
		t.Fatalf("expected one sent log, got %+v", logs)
	}
	cp, err := s.campaigns.FindByID(context.Background(), "u1", logs[0].CampaignID)
	if err != nil {
		t.Fatalf("find campaign: %v", err)
	}
	if cp.RecipientCount != len(logs) {
		t.Fatalf("recipientCount %d != logs %d", cp.RecipientCount, len(logs))
	}
}

func TestFailedProviderSendIsLoggedAsFailed(t *testing.T) {
	s := newStack(t)
	s.sms.fail = true
	id := s.createContact(t, map[string]any{"name": "A", "phone": "9876543210", "userId": "u1"})

	code, out := s.do(t, http.MethodPost, "/api/sms/send", map[string]any{"recipients": []string{id}, "message": "hi", "userId": "u1"})
	if code != http.StatusOK || out["success"] != false {
		t.Fatalf("expected 200 with success false, got %d %v", code, out)
	}
	logs := s.campaigns.Logs()
	if len(logs) != 1 || logs[0].Status != campaigns.LogStatusFailed || logs[0].Error == "" {
		t.Fatalf("expected one failed log with error, got %+v", logs)
	}
}

func TestSendWithoutAddressableContactsCreatesNoCampaign(t *testing.T) {
	s := newStack(t)
	id := s.createContact(t, map[string]any{"name": "Mail only", "email": "a@example.com", "userId": "u1"})

	code, out := s.do(t, http.MethodPost, "/api/sms/send", map[string]any{"recipients": []string{id}, "message": "hi", "userId": "u1"})
	if code != http.StatusBadRequest || out["success"] != false {
		t.Fatalf("expected 400 success false, got %d %v", code, out)
	}
	if s.campaigns.Count() != 0 {
		t.Fatalf("expected no campaign, got %d", s.campaigns.Count())
	}
}

func TestSendRejectedBeforeSendingWhenBalanceTooLow(t *testing.T) {
	s := newStack(t)
	for _, user := range []string{"u2", "u3"} {
		id := s.createContact(t, map[string]any{"name": "A", "phone": "9876543210", "userId": user})
		code, out := s.do(t, http.MethodPost, "/api/sms/send", map[string]any{"recipients": []string{id}, "message": "hi", "userId": user})
		if code != http.StatusPaymentRequired || out["success"] != false {
			t.Fatalf("%s: expected 402, got %d %v", user, code, out)
		}
	}
	if len(s.sms.sent) != 0 {
		t.Fatalf("expected no sends, got %d", len(s.sms.sent))
	}
	if s.campaigns.Count() != 0 {
		t.Fatalf("expected no campaigns")
	}
}

func TestTransactionsKeepBalanceIdentity(t *testing.T) {
	s := newStack(t)
	id := s.createContact(t, map[string]any{"name": "A", "phone": "9876543210", "userId": "u1"})
	s.do(t, http.MethodPost, "/api/sms/send", map[string]any{"recipients": []string{id}, "message": "hi", "userId": "u1"})
	code, out := s.do(t, http.MethodPost, "/api/billing", map[string]any{"userId": "u1", "amount": 500, "idempotencyKey": "topup-1"})
	if code != http.StatusOK {
		t.Fatalf("top up: %d %v", code, out)
	}
	// Same key again must not move money.
	s.do(t, http.MethodPost, "/api/billing", map[string]any{"userId": "u1", "amount": 500, "idempotencyKey": "topup-1"})

	txs := s.wallet.Transactions()
	if len(txs) == 0 {
		t.Fatalf("expected transactions")
	}
	for _, tx := range txs {
		if tx.BalanceAfter != tx.BalanceBefore+tx.Amount {
			t.Fatalf("balance identity broken: %+v", tx)
		}
	}
	code, out = s.do(t, http.MethodGet, "/api/billing?userId=u1", nil)
	if code != http.StatusOK || out["balance"] != float64(1000-25+500) {
		t.Fatalf("unexpected billing: %d %v", code, out)
	}
}

func TestDuplicateVoiceStatusWebhookKeepsCost(t *testing.T) {
	s := newStack(t)
	id := s.createContact(t, map[string]any{"name": "A", "phone": "+919876543210", "userId": "u1"})
	code, out := s.do(t, http.MethodPost, "/api/voice/send", map[string]any{"recipients": []string{id}, "message": "hello", "userId": "u1"})
	if code != http.StatusOK || out["success"] != true {
		t.Fatalf("voice send: %d %v", code, out)
	}

	cb := url.Values{"CallSid": {"CA1"}, "CallStatus": {"completed"}, "CallDuration": {"125"}}
	for i := 0; i < 2; i++ {
		if code, out := s.form(t, "/api/voice/webhook", cb); code != http.StatusOK {
			t.Fatalf("webhook %d: %d %v", i, code, out)
		}
	}
	call, err := s.calls.FindBySid(context.Background(), "CA1")
	if err != nil {
		t.Fatalf("find call: %v", err)
	}
	if call.Cost != 300 {
		t.Fatalf("expected cost 300 after duplicate, got %d", call.Cost)
	}
	var overage int
	for _, tx := range s.wallet.Transactions() {
		if tx.IdempotencyKey == "call-overage:CA1" {
			overage++
		}
	}
	if overage != 1 {
		t.Fatalf("expected one overage debit, got %d", overage)
	}
}

func TestStaleStatusCallbackIsAcknowledged(t *testing.T) {
	s := newStack(t)
	id := s.createContact(t, map[string]any{"name": "A", "phone": "+919876543210", "userId": "u1"})
	s.do(t, http.MethodPost, "/api/voice/send", map[string]any{"recipients": []string{id}, "message": "hello", "userId": "u1"})

	s.form(t, "/api/calling/status-webhook", url.Values{"CallSid": {"CA1"}, "CallStatus": {"completed"}, "CallDuration": {"30"}, "SequenceNumber": {"3"}})
	code, out := s.form(t, "/api/calling/status-webhook", url.Values{"CallSid": {"CA1"}, "CallStatus": {"ringing"}, "SequenceNumber": {"1"}})
	if code != http.StatusOK || out["message"] != "ignored" {
		t.Fatalf("expected ignored ack, got %d %v", code, out)
	}
	call, _ := s.calls.FindBySid(context.Background(), "CA1")
	if call.Status != calls.CallStatusCompleted {
		t.Fatalf("stale event overwrote status: %s", call.Status)
	}
}

func TestDeletedContactHiddenButLogsKept(t *testing.T) {
	s := newStack(t)
	id := s.createContact(t, map[string]any{"name": "A", "phone": "9876543210", "userId": "u1"})
	s.do(t, http.MethodPost, "/api/sms/send", map[string]any{"recipients": []string{id}, "message": "hi", "userId": "u1"})

	if code, out := s.do(t, http.MethodDelete, "/api/contacts?userId=u1&id="+id, nil); code != http.StatusOK {
		t.Fatalf("delete: %d %v", code, out)
	}
	code, out := s.do(t, http.MethodGet, "/api/contacts?userId=u1", nil)
	if code != http.StatusOK {
		t.Fatalf("list: %d %v", code, out)
	}
	if cs, _ := out["contacts"].([]any); len(cs) != 0 {
		t.Fatalf("expected deleted contact hidden, got %v", cs)
	}
	if logs := s.campaigns.Logs(); len(logs) != 1 || logs[0].ContactID != id {
		t.Fatalf("expected log kept, got %+v", logs)
	}
}

func TestCampaignNotOwnedIsNotFound(t *testing.T) {
	s := newStack(t)
	code, out := s.do(t, http.MethodPost, "/api/campaigns", map[string]any{"userId": "u1", "name": "Launch", "type": "sms", "message": "hi"})
	if code != http.StatusCreated {
		t.Fatalf("create: %d %v", code, out)
	}
	cp, _ := out["campaign"].(map[string]any)
	id, _ := cp["id"].(string)

	if code, _ := s.do(t, http.MethodGet, "/api/campaigns?userId=u2&id="+id, nil); code != http.StatusNotFound {
		t.Fatalf("expected 404 for other user, got %d", code)
	}
	if code, _ := s.do(t, http.MethodGet, "/api/campaigns?userId=u1&id="+id, nil); code != http.StatusOK {
		t.Fatalf("expected 200 for owner, got %d", code)
	}
}

func TestSignupLoginAndAdminCredit(t *testing.T) {
	s := newStack(t)
	code, out := s.do(t, http.MethodPost, "/api/auth/signup", map[string]any{"name": "Asha", "email": "asha@example.com", "password": "correct-horse"})
	if code != http.StatusCreated {
		t.Fatalf("signup: %d %v", code, out)
	}
	if code, _ := s.do(t, http.MethodPost, "/api/auth/login", map[string]any{"email": "asha@example.com", "password": "wrong-password"}); code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong password, got %d", code)
	}
	code, out = s.do(t, http.MethodPost, "/api/auth/login", map[string]any{"email": "asha@example.com", "password": "correct-horse"})
	if code != http.StatusOK {
		t.Fatalf("login: %d %v", code, out)
	}
	tokens, _ := out["tokens"].(map[string]any)
	userToken, _ := tokens["accessToken"].(string)
	refreshToken, _ := tokens["refreshToken"].(string)

	code, out = s.do(t, http.MethodPost, "/api/auth/refresh", map[string]any{"refreshToken": refreshToken})
	if code != http.StatusOK {
		t.Fatalf("refresh: %d %v", code, out)
	}
	if fresh, _ := out["tokens"].(map[string]any); fresh["accessToken"] == "" || fresh["accessToken"] == nil {
		t.Fatalf("expected a new access token, got %v", out)
	}
	if code, _ := s.do(t, http.MethodPost, "/api/auth/refresh", map[string]any{"refreshToken": userToken}); code != http.StatusUnauthorized {
		t.Fatalf("expected 401 when refreshing with an access token, got %d", code)
	}
	if code, _ := s.do(t, http.MethodPost, "/api/auth/refresh", map[string]any{}); code != http.StatusBadRequest {
		t.Fatalf("expected 400 without a refresh token, got %d", code)
	}

	body := map[string]any{"userId": "u1", "amount": 100, "reason": "goodwill", "idempotencyKey": "adm-1"}
	if code, _ := s.do(t, http.MethodPost, "/api/admin/credit", body); code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", code)
	}

	post := func(token string) int {
		var buf bytes.Buffer
		_ = json.NewEncoder(&buf).Encode(body)
		req := httptest.NewRequest(http.MethodPost, "/api/admin/credit", &buf)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		s.r.ServeHTTP(w, req)
		return w.Code
	}
	if code := post(userToken); code != http.StatusForbidden {
		t.Fatalf("expected 403 for plain user, got %d", code)
	}
	pair, err := s.auth.IssuePair(time.Now(), "admin1", "ops@example.com", rbac.RoleAdmin)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if code := post(pair.AccessToken); code != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d", code)
	}
	if bal, _ := s.wallet.Balance(context.Background(), "u1"); bal != 1100 {
		t.Fatalf("expected 1100 after admin credit, got %d", bal)
	}
}

func TestAutomationJobLifecycleOverHTTP(t *testing.T) {
	s := newStack(t)
	code, out := s.do(t, http.MethodPost, "/api/automation/jobs", map[string]any{"userId": "u1", "platform": "instagram", "action": "follow", "target": "@brand", "steps": 3})
	if code != http.StatusAccepted {
		t.Fatalf("create job: %d %v", code, out)
	}
	job, _ := out["job"].(map[string]any)
	id, _ := job["id"].(string)
	code, out = s.do(t, http.MethodGet, "/api/automation/jobs/"+id+"?userId=u1", nil)
	if code != http.StatusOK {
		t.Fatalf("get job: %d %v", code, out)
	}
	if job, _ := out["job"].(map[string]any); job["status"] != "queued" {
		t.Fatalf("expected queued job, got %v", job)
	}
}

func TestReportSummaryValidatesRange(t *testing.T) {
	s := newStack(t)
	if code, _ := s.do(t, http.MethodGet, "/api/reports/summary?userId=u1&from=yesterday", nil); code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad time, got %d", code)
	}
	if code, _ := s.do(t, http.MethodGet, "/api/reports/summary?userId=u1", nil); code != http.StatusOK {
		t.Fatalf("expected 200 with default range, got %d", code)
	}
}
