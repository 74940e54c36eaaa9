package contact

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/foliokit/contactd/internal/app/relay"
	"github.com/foliokit/contactd/internal/app/resources"
	"github.com/foliokit/contactd/internal/app/store"
	"github.com/foliokit/contactd/internal/app/visitor"
	"github.com/foliokit/contactd/internal/domain/models"
	"github.com/foliokit/contactd/templates"
	"github.com/go-chi/chi/v5"
)

const testVisitor = "0b6f7c1e-3f55-4c77-9f0e-6a3d1f0a9b21"

type fixture struct {
	router http.Handler
	relay  *relay.Memory
	reg    *store.MemoryRegistry
}

func newFixture(t *testing.T, mem *relay.Memory) *fixture {
	t.Helper()
	engine := templates.New(nil, nil)
	if err := engine.Boot(resources.SharedSet(), TemplateSet()); err != nil {
		t.Fatalf("Boot: %v", err)
	}
	reg := store.NewMemoryRegistry(time.Hour)
	holders := HolderSourceFunc(func(id string) Holder { return reg.Holder(id) })
	sub := NewSubmitter(mem, testTemplate, testOwner, nil).WithObserver(&recorder{})
	h := NewHandler(holders, sub, engine, DefaultMotion, "Contact", nil)

	r := chi.NewRouter()
	r.Use(visitor.Middleware(time.Hour, false))
	r.Mount("/contact", Routes(h))
	r.Mount("/api/contact", APIRoutes(h, func(next http.Handler) http.Handler { return next }))
	return &fixture{router: r, relay: mem, reg: reg}
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	req.AddCookie(&http.Cookie{Name: visitor.CookieName, Value: testVisitor})
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func formRequest(path string, vals url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(vals.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func jsonRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/contact", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestServePage(t *testing.T) {
	f := newFixture(t, relay.NewMemory())
	rec := f.do(httptest.NewRequest(http.MethodGet, "/contact", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		"<!doctype html>", "Get in touch", "Contact.",
		"What&#39;s your good name?", `rows="7"`, ">Send</button>",
		"slide-from-left", "slide-from-right", "--motion-delay: 0.2s", "--motion-delay: 0.4s",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q", want)
		}
	}
}

func TestServeField(t *testing.T) {
	f := newFixture(t, relay.NewMemory())

	rec := f.do(formRequest("/contact/field", url.Values{"field": {"name"}, "value": {"Ada"}}))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rec.Code)
	}
	rec = f.do(formRequest("/contact/field", url.Values{"field": {"phone"}, "value": {"1"}}))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown field status = %d, want 400", rec.Code)
	}

	got, _ := f.reg.Holder(testVisitor).Form(context.Background())
	if want := (models.FormRecord{Name: "Ada"}); got != want {
		t.Errorf("form = %+v, want %+v", got, want)
	}

	page := f.do(httptest.NewRequest(http.MethodGet, "/contact", nil)).Body.String()
	if !strings.Contains(page, `value="Ada"`) {
		t.Error("page does not show the stored name")
	}
}

func TestServeSubmit_Success(t *testing.T) {
	f := newFixture(t, relay.NewMemory())
	vals := url.Values{"name": {"Ada"}, "email": {"ada@x.io"}, "message": {"Hi"}}

	rec := f.do(formRequest("/contact", vals))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Message sent!") || !strings.Contains(body, "toast-success") {
		t.Error("success toast missing")
	}
	if strings.Contains(body, `value="Ada"`) {
		t.Error("form should be empty after a successful send")
	}
	if len(f.relay.Sent()) != 2 {
		t.Errorf("relay sends = %d, want 2", len(f.relay.Sent()))
	}
}

func TestServeSubmit_HTMXGetsPanel(t *testing.T) {
	f := newFixture(t, relay.NewMemory())
	req := formRequest("/contact", url.Values{"name": {"Ada"}, "email": {"not-an-email"}, "message": {"Hi"}})
	req.Header.Set("HX-Request", "true")
	req.Header.Set("HX-Target", "contact-panel")

	body := f.do(req).Body.String()
	if strings.Contains(body, "<html") {
		t.Error("htmx request got the full page")
	}
	if !strings.Contains(body, `id="contact-panel"`) {
		t.Error("panel missing")
	}
	if !strings.Contains(body, "Please enter a valid email address.") {
		t.Error("validation toast missing")
	}
	if !strings.Contains(body, `value="not-an-email"`) {
		t.Error("rejected input should be kept")
	}
	if f.relay.Calls() != 0 {
		t.Errorf("relay calls = %d, want 0", f.relay.Calls())
	}
}

func TestServeAPI(t *testing.T) {
	tests := []struct {
		name        string
		mem         *relay.Memory
		body        string
		busy        bool
		stored      models.FormRecord
		wantStatus  int
		wantOutcome Outcome
		wantToast   string
		wantForm    models.FormRecord
	}{
		{
			name: "sent", mem: relay.NewMemory(),
			body:       `{"name":"Ada","email":"ada@x.io","message":"Hi"}`,
			wantStatus: http.StatusOK, wantOutcome: OutcomeSent, wantToast: MsgSent,
		},
		{
			name: "rejected", mem: relay.NewMemory(),
			body:       `{"name":"Ada","email":"","message":"Hi"}`,
			wantStatus: http.StatusUnprocessableEntity, wantOutcome: OutcomeRejected, wantToast: MsgMissingField,
			wantForm: models.FormRecord{Name: "Ada", Message: "Hi"},
		},
		{
			name: "acknowledgment fails", mem: relay.NewMemory().FailOn(2, errors.New("down")),
			body:       `{"name":"Ada","email":"ada@x.io","message":"Hi"}`,
			wantStatus: http.StatusBadGateway, wantOutcome: OutcomeFailed, wantToast: MsgSendFailed,
			wantForm: adaForm,
		},
		{
			name: "busy keeps the running form", mem: relay.NewMemory(), busy: true, stored: adaForm,
			body:       `{"name":"Eve","email":"eve@x.io","message":"second"}`,
			wantStatus: http.StatusConflict, wantOutcome: OutcomeBusy,
			wantForm: adaForm,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.mem)
			holder := f.reg.Holder(testVisitor)
			if err := ApplyForm(context.Background(), holder, tt.stored); err != nil {
				t.Fatalf("ApplyForm: %v", err)
			}
			if tt.busy {
				_, _ = holder.Acquire(context.Background())
			}

			rec := f.do(jsonRequest(tt.body))
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			var resp APIResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Outcome != tt.wantOutcome {
				t.Errorf("outcome = %q, want %q", resp.Outcome, tt.wantOutcome)
			}
			if tt.wantToast == "" && len(resp.Toasts) != 0 {
				t.Errorf("toasts = %+v, want none", resp.Toasts)
			}
			if tt.wantToast != "" && (len(resp.Toasts) != 1 || resp.Toasts[0].Message != tt.wantToast) {
				t.Errorf("toasts = %+v, want %q", resp.Toasts, tt.wantToast)
			}
			if resp.Form != tt.wantForm {
				t.Errorf("form = %+v, want %+v", resp.Form, tt.wantForm)
			}
			if resp.InFlight != tt.busy {
				t.Errorf("in_flight = %v, want %v", resp.InFlight, tt.busy)
			}
		})
	}
}

func TestServeAPI_RequiresJSON(t *testing.T) {
	f := newFixture(t, relay.NewMemory())
	req := httptest.NewRequest(http.MethodPost, "/api/contact", strings.NewReader("name=Ada"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	if rec := f.do(req); rec.Code != http.StatusUnsupportedMediaType {
		t.Errorf("status = %d, want 415", rec.Code)
	}
}

func TestServeAPI_RejectsUnknownFields(t *testing.T) {
	f := newFixture(t, relay.NewMemory())
	if rec := f.do(jsonRequest(`{"name":"Ada","phone":"1"}`)); rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
