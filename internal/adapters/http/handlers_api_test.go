package web

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"gymdesk/internal/adapters/http/middleware"
	accountStorePkg "gymdesk/internal/adapters/storage/account"
	auditStore "gymdesk/internal/adapters/storage/audit"
	exerciseStorePkg "gymdesk/internal/adapters/storage/exercise"
	leadStorePkg "gymdesk/internal/adapters/storage/lead"
	memberStorePkg "gymdesk/internal/adapters/storage/member"
	shopStorePkg "gymdesk/internal/adapters/storage/shop"
	"gymdesk/internal/application/engine"
	accountDomain "gymdesk/internal/domain/account"
	auditDomain "gymdesk/internal/domain/audit"
	exerciseDomain "gymdesk/internal/domain/exercise"
	leadDomain "gymdesk/internal/domain/lead"
	memberDomain "gymdesk/internal/domain/member"
	outboxDomain "gymdesk/internal/domain/outbox"
	shopDomain "gymdesk/internal/domain/shop"
	"gymdesk/internal/domain/workout"
)

// --- mock stores ---

type mockAccountStore struct {
	accounts map[string]accountDomain.Account
}

func (m *mockAccountStore) GetByID(_ context.Context, id string) (accountDomain.Account, error) {
	if a, ok := m.accounts[id]; ok {
		return a, nil
	}
	return accountDomain.Account{}, sql.ErrNoRows
}

func (m *mockAccountStore) GetByEmail(_ context.Context, email string) (accountDomain.Account, error) {
	for _, a := range m.accounts {
		if a.Email == email {
			return a, nil
		}
	}
	return accountDomain.Account{}, sql.ErrNoRows
}

func (m *mockAccountStore) Save(_ context.Context, a accountDomain.Account) error {
	m.accounts[a.ID] = a
	return nil
}

func (m *mockAccountStore) Delete(_ context.Context, id string) error {
	delete(m.accounts, id)
	return nil
}

func (m *mockAccountStore) List(_ context.Context, _ accountStorePkg.ListFilter) ([]accountDomain.Account, error) {
	var list []accountDomain.Account
	for _, a := range m.accounts {
		list = append(list, a)
	}
	return list, nil
}

func (m *mockAccountStore) Count(_ context.Context) (int, error) {
	return len(m.accounts), nil
}

type mockMemberStore struct {
	members map[string]memberDomain.Member
}

func (m *mockMemberStore) GetByID(_ context.Context, id string) (memberDomain.Member, error) {
	if mem, ok := m.members[id]; ok {
		return mem, nil
	}
	return memberDomain.Member{}, sql.ErrNoRows
}

func (m *mockMemberStore) GetByEmail(_ context.Context, email string) (memberDomain.Member, error) {
	for _, mem := range m.members {
		if mem.Email == email {
			return mem, nil
		}
	}
	return memberDomain.Member{}, sql.ErrNoRows
}

func (m *mockMemberStore) GetByAccountID(_ context.Context, accountID string) (memberDomain.Member, error) {
	for _, mem := range m.members {
		if mem.AccountID == accountID {
			return mem, nil
		}
	}
	return memberDomain.Member{}, sql.ErrNoRows
}

func (m *mockMemberStore) Save(_ context.Context, mem memberDomain.Member) error {
	m.members[mem.ID] = mem
	return nil
}

func (m *mockMemberStore) Delete(_ context.Context, id string) error {
	delete(m.members, id)
	return nil
}

func (m *mockMemberStore) List(_ context.Context, filter memberStorePkg.ListFilter) ([]memberDomain.Member, error) {
	var list []memberDomain.Member
	for _, mem := range m.members {
		if filter.GymID != "" && mem.GymID != filter.GymID {
			continue
		}
		list = append(list, mem)
	}
	return list, nil
}

func (m *mockMemberStore) Count(_ context.Context, filter memberStorePkg.ListFilter) (int, error) {
	list, _ := m.List(context.Background(), filter)
	return len(list), nil
}

func (m *mockMemberStore) SearchByName(_ context.Context, gymID, query string, limit int) ([]memberDomain.Member, error) {
	var list []memberDomain.Member
	for _, mem := range m.members {
		if mem.GymID == gymID && strings.Contains(mem.Name, query) && len(list) < limit {
			list = append(list, mem)
		}
	}
	return list, nil
}

type mockLeadStore struct {
	leads map[string]leadDomain.Lead
}

func (m *mockLeadStore) GetByID(_ context.Context, id string) (leadDomain.Lead, error) {
	if l, ok := m.leads[id]; ok {
		return l, nil
	}
	return leadDomain.Lead{}, sql.ErrNoRows
}

func (m *mockLeadStore) Save(_ context.Context, l leadDomain.Lead) error {
	m.leads[l.ID] = l
	return nil
}

func (m *mockLeadStore) Delete(_ context.Context, id string) error {
	delete(m.leads, id)
	return nil
}

func (m *mockLeadStore) List(_ context.Context, filter leadStorePkg.ListFilter) ([]leadDomain.Lead, error) {
	var list []leadDomain.Lead
	for _, l := range m.leads {
		if filter.GymID != "" && l.GymID != filter.GymID {
			continue
		}
		if filter.Status != "" && l.Status != filter.Status {
			continue
		}
		list = append(list, l)
	}
	return list, nil
}

func (m *mockLeadStore) Count(_ context.Context, filter leadStorePkg.ListFilter) (int, error) {
	list, _ := m.List(context.Background(), filter)
	return len(list), nil
}

func (m *mockLeadStore) CountByStatus(_ context.Context, gymID string) (map[string]int, error) {
	counts := make(map[string]int)
	for _, l := range m.leads {
		if l.GymID == gymID {
			counts[l.Status]++
		}
	}
	return counts, nil
}

type mockShopStore struct {
	products map[string]shopDomain.Product
	orders   map[string]shopDomain.Order
}

func (m *mockShopStore) GetByID(_ context.Context, id string) (shopDomain.Product, error) {
	if p, ok := m.products[id]; ok {
		return p, nil
	}
	return shopDomain.Product{}, sql.ErrNoRows
}

func (m *mockShopStore) Save(_ context.Context, p shopDomain.Product) error {
	m.products[p.ID] = p
	return nil
}

func (m *mockShopStore) Delete(_ context.Context, id string) error {
	delete(m.products, id)
	return nil
}

func (m *mockShopStore) List(_ context.Context, gymID string, includeArchived bool) ([]shopDomain.Product, error) {
	var list []shopDomain.Product
	for _, p := range m.products {
		if p.GymID != gymID || (p.Archived && !includeArchived) {
			continue
		}
		list = append(list, p)
	}
	return list, nil
}

func (m *mockShopStore) GetOrderByID(_ context.Context, id string) (shopDomain.Order, error) {
	if o, ok := m.orders[id]; ok {
		return o, nil
	}
	return shopDomain.Order{}, sql.ErrNoRows
}

func (m *mockShopStore) SaveOrder(_ context.Context, o shopDomain.Order) error {
	m.orders[o.ID] = o
	return nil
}

func (m *mockShopStore) ListOrders(_ context.Context, filter shopStorePkg.OrderFilter) ([]shopDomain.Order, error) {
	var list []shopDomain.Order
	for _, o := range m.orders {
		if filter.GymID != "" && o.GymID != filter.GymID {
			continue
		}
		if filter.MemberID != "" && o.MemberID != filter.MemberID {
			continue
		}
		list = append(list, o)
	}
	return list, nil
}

type mockExerciseStore struct {
	exercises map[string]exerciseDomain.Exercise
}

func (m *mockExerciseStore) GetByID(_ context.Context, id string) (exerciseDomain.Exercise, error) {
	if e, ok := m.exercises[id]; ok {
		return e, nil
	}
	return exerciseDomain.Exercise{}, sql.ErrNoRows
}

func (m *mockExerciseStore) Save(_ context.Context, e exerciseDomain.Exercise) error {
	m.exercises[e.ID] = e
	return nil
}

func (m *mockExerciseStore) Delete(_ context.Context, id string) error {
	delete(m.exercises, id)
	return nil
}

func (m *mockExerciseStore) List(_ context.Context, _ exerciseStorePkg.ListFilter) ([]exerciseDomain.Exercise, error) {
	var list []exerciseDomain.Exercise
	for _, e := range m.exercises {
		list = append(list, e)
	}
	return list, nil
}

type mockAuditStore struct {
	events []auditDomain.Event
}

func (m *mockAuditStore) Save(_ context.Context, e auditDomain.Event) error {
	m.events = append(m.events, e)
	return nil
}

func (m *mockAuditStore) List(_ context.Context, _ auditStore.Filter, _ int) ([]auditDomain.Event, error) {
	return m.events, nil
}

func (m *mockAuditStore) GetByID(_ context.Context, id string) (auditDomain.Event, error) {
	for _, e := range m.events {
		if e.ID == id {
			return e, nil
		}
	}
	return auditDomain.Event{}, sql.ErrNoRows
}

type mockOutboxStore struct {
	entries map[string]outboxDomain.Entry
}

func (m *mockOutboxStore) GetByID(_ context.Context, id string) (outboxDomain.Entry, error) {
	if e, ok := m.entries[id]; ok {
		return e, nil
	}
	return outboxDomain.Entry{}, sql.ErrNoRows
}

func (m *mockOutboxStore) Save(_ context.Context, e outboxDomain.Entry) error {
	m.entries[e.ID] = e
	return nil
}

func (m *mockOutboxStore) ListPending(_ context.Context, _ int) ([]outboxDomain.Entry, error) {
	var list []outboxDomain.Entry
	for _, e := range m.entries {
		if e.Status == outboxDomain.StatusPending || e.Status == outboxDomain.StatusRetrying {
			list = append(list, e)
		}
	}
	return list, nil
}

func (m *mockOutboxStore) ListFailed(_ context.Context, _ int) ([]outboxDomain.Entry, error) {
	var list []outboxDomain.Entry
	for _, e := range m.entries {
		if e.Status == outboxDomain.StatusFailed {
			list = append(list, e)
		}
	}
	return list, nil
}

func (m *mockOutboxStore) ListByActionType(_ context.Context, actionType, status string, _ int) ([]outboxDomain.Entry, error) {
	var list []outboxDomain.Entry
	for _, e := range m.entries {
		if e.ActionType == actionType && (status == "" || e.Status == status) {
			list = append(list, e)
		}
	}
	return list, nil
}

func (m *mockOutboxStore) Delete(_ context.Context, id string) error {
	delete(m.entries, id)
	return nil
}

type mockHistoryStore struct {
	sessions []engine.ActiveSession
}

func (m *mockHistoryStore) ListCompleted(_ context.Context, _ string, _, _ int) ([]engine.ActiveSession, error) {
	return m.sessions, nil
}

// --- fake workout engine collaborators ---

// fakeWorkoutStore is an in-memory engine.SessionStore that starts every
// session with two pending exercises.
type fakeWorkoutStore struct {
	active *engine.ActiveSession
}

func (f *fakeWorkoutStore) GetActiveSession(_ context.Context, _ string) (*engine.ActiveSession, error) {
	if f.active == nil || f.active.Session.Completed {
		return nil, nil
	}
	return f.active, nil
}

func (f *fakeWorkoutStore) StartSession(_ context.Context, gymID, memberID, planID, dayID string) (engine.ActiveSession, error) {
	active := engine.ActiveSession{
		Session: workout.Session{
			ID: "sess-1", GymID: gymID, MemberID: memberID, PlanID: planID, DayID: dayID,
			StartTime: time.Now(),
		},
		Logs: []workout.ExerciseLog{
			{ID: "log-0", SessionID: "sess-1", ExerciseID: "ex-a", Position: 0, Status: workout.StatusPending},
			{ID: "log-1", SessionID: "sess-1", ExerciseID: "ex-b", Position: 1, Status: workout.StatusPending},
		},
	}
	f.active = &active
	return active, nil
}

func (f *fakeWorkoutStore) StartExercise(_ context.Context, logID string, at time.Time) error {
	for i := range f.active.Logs {
		if f.active.Logs[i].ID == logID {
			f.active.Logs[i].StartTime = at
			return nil
		}
	}
	return sql.ErrNoRows
}

func (f *fakeWorkoutStore) CompleteExercise(_ context.Context, logID, status string, at time.Time, durationSeconds int) error {
	for i := range f.active.Logs {
		if f.active.Logs[i].ID == logID {
			f.active.Logs[i].Status = status
			f.active.Logs[i].EndTime = at
			f.active.Logs[i].DurationSeconds = durationSeconds
			return nil
		}
	}
	return sql.ErrNoRows
}

func (f *fakeWorkoutStore) CompleteSession(_ context.Context, sessionID string, totalSeconds int) (workout.Report, error) {
	f.active.Session.Completed = true
	f.active.Session.TotalSeconds = totalSeconds
	return workout.BuildReport(f.active.Session, f.active.Logs), nil
}

func (f *fakeWorkoutStore) CancelSession(_ context.Context, _ string) error {
	f.active = nil
	return nil
}

type fakeTimerCache struct {
	snaps map[string]workout.TimerSnapshot
}

func (f *fakeTimerCache) Save(_ context.Context, snap workout.TimerSnapshot) error {
	f.snaps[snap.DeviceID] = snap
	return nil
}

func (f *fakeTimerCache) Load(_ context.Context, deviceID, sessionID string) (*workout.TimerSnapshot, error) {
	snap, ok := f.snaps[deviceID]
	if !ok || snap.SessionID != sessionID {
		return nil, nil
	}
	return &snap, nil
}

func (f *fakeTimerCache) Clear(_ context.Context, deviceID string) error {
	delete(f.snaps, deviceID)
	return nil
}

// noopTicker never fires on its own; tests drive time explicitly.
type noopTicker struct{}

func (noopTicker) Start(func()) {}
func (noopTicker) Stop()        {}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

// --- harness ---

var (
	adminSession   = middleware.Session{AccountID: "acct-admin", GymID: "g1", Email: "admin@x.test", Role: accountDomain.RoleAdmin}
	trainerSession = middleware.Session{AccountID: "acct-trainer", GymID: "g1", Email: "trainer@x.test", Role: accountDomain.RoleTrainer}
	memberSession  = middleware.Session{AccountID: "acct-member", GymID: "g1", Email: "member@x.test", Role: accountDomain.RoleMember}
)

func newTestEnv() (*Stores, *fakeWorkoutStore) {
	acct := accountDomain.Account{ID: "acct-1", GymID: "g1", Email: "admin@x.test", Role: accountDomain.RoleAdmin}
	acct.SetPassword("Secret+123")

	s := &Stores{
		AccountStore: &mockAccountStore{accounts: map[string]accountDomain.Account{acct.ID: acct}},
		MemberStore: &mockMemberStore{members: map[string]memberDomain.Member{
			"m1": {ID: "m1", GymID: "g1", AccountID: "acct-member", Email: "member@x.test", Name: "Demo Member", Status: memberDomain.StatusActive},
		}},
		LeadStore:     &mockLeadStore{leads: make(map[string]leadDomain.Lead)},
		ProductStore:  nil,
		ExerciseStore: &mockExerciseStore{exercises: make(map[string]exerciseDomain.Exercise)},
		AuditStore:    &mockAuditStore{},
		OutboxStore:   &mockOutboxStore{entries: make(map[string]outboxDomain.Entry)},
		SessionStore:  &mockHistoryStore{},
	}
	shop := &mockShopStore{products: make(map[string]shopDomain.Product), orders: make(map[string]shopDomain.Order)}
	s.ProductStore = shop
	s.OrderStore = shop

	stores = s
	sessions = middleware.NewSessionStore()

	workoutStore := &fakeWorkoutStore{}
	cache := &fakeTimerCache{snaps: make(map[string]workout.TimerSnapshot)}
	workouts = engine.NewRegistry(workoutStore, cache, fixedClock{t: time.Now()}, func() engine.Ticker {
		return noopTicker{}
	})
	return s, workoutStore
}

func authRequest(method, path, body string, sess middleware.Session) *http.Request {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if sess.AccountID != "" {
		req = req.WithContext(middleware.ContextWithSession(req.Context(), sess))
	}
	return req
}

func withDevice(req *http.Request, deviceID string) *http.Request {
	req.AddCookie(&http.Cookie{Name: deviceCookieName, Value: deviceID})
	return req
}

// --- auth ---

func TestHandleLogin_Success(t *testing.T) {
	newTestEnv()

	req := authRequest("POST", "/api/login", `{"Email":"admin@x.test","Password":"Secret+123"}`, middleware.Session{})
	rec := httptest.NewRecorder()
	handleLogin(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("got %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	var resp map[string]any
	json.NewDecoder(rec.Body).Decode(&resp)
	if resp["role"] != accountDomain.RoleAdmin {
		t.Errorf("role = %v", resp["role"])
	}
	cookies := rec.Result().Cookies()
	if len(cookies) == 0 || cookies[0].Value == "" {
		t.Error("expected a session cookie")
	}
}

func TestHandleLogin_WrongPassword(t *testing.T) {
	newTestEnv()

	req := authRequest("POST", "/api/login", `{"Email":"admin@x.test","Password":"nope"}`, middleware.Session{})
	rec := httptest.NewRecorder()
	handleLogin(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("got %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

// --- leads ---

func TestHandleLeadCreate_Valid(t *testing.T) {
	s, _ := newTestEnv()

	req := authRequest("POST", "/api/leads", `{"name":"Walk In","phone":"021555123","source":"walk_in"}`, trainerSession)
	rec := httptest.NewRecorder()
	handleLeadCreate(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("got %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}
	var created leadDomain.Lead
	json.NewDecoder(rec.Body).Decode(&created)
	if created.Status != leadDomain.StatusNew || created.GymID != "g1" {
		t.Errorf("created = %+v", created)
	}
	audits := s.AuditStore.(*mockAuditStore).events
	if len(audits) != 1 || audits[0].Category != auditDomain.CategoryLead {
		t.Errorf("expected one lead audit event, got %+v", audits)
	}
}

func TestHandleLeadCreate_MemberForbidden(t *testing.T) {
	newTestEnv()

	req := authRequest("POST", "/api/leads", `{"name":"X","phone":"1"}`, memberSession)
	rec := httptest.NewRecorder()
	handleLeadCreate(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("got %d, want %d", rec.Code, http.StatusForbidden)
	}
}

func TestHandleLeadCreate_Unauthenticated(t *testing.T) {
	newTestEnv()

	req := authRequest("POST", "/api/leads", `{"name":"X","phone":"1"}`, middleware.Session{})
	rec := httptest.NewRecorder()
	handleLeadCreate(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("got %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestHandleLeadAdvance_ForwardOnly(t *testing.T) {
	s, _ := newTestEnv()
	s.LeadStore.Save(context.Background(), leadDomain.Lead{
		ID: "l1", GymID: "g1", Name: "Trial Tim", Phone: "021", Status: leadDomain.StatusTrial,
	})

	req := authRequest("POST", "/api/leads/l1/advance", `{"status":"contacted"}`, trainerSession)
	req.SetPathValue("id", "l1")
	rec := httptest.NewRecorder()
	handleLeadAdvance(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("backward move: got %d, want %d", rec.Code, http.StatusBadRequest)
	}

	req = authRequest("POST", "/api/leads/l1/advance", `{"status":"lost"}`, trainerSession)
	req.SetPathValue("id", "l1")
	rec = httptest.NewRecorder()
	handleLeadAdvance(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("forward move: got %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
}

func TestHandleLeadConvert_CreatesMember(t *testing.T) {
	s, _ := newTestEnv()
	s.LeadStore.Save(context.Background(), leadDomain.Lead{
		ID: "l1", GymID: "g1", Name: "Trial Tim", Email: "tim@x.test", Phone: "021", Status: leadDomain.StatusTrial,
	})

	req := authRequest("POST", "/api/leads/l1/convert", `{"plan_id":"mplan-1"}`, trainerSession)
	req.SetPathValue("id", "l1")
	rec := httptest.NewRecorder()
	handleLeadConvert(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("got %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}
	var resp map[string]string
	json.NewDecoder(rec.Body).Decode(&resp)
	m, err := s.MemberStore.GetByID(context.Background(), resp["member_id"])
	if err != nil {
		t.Fatalf("member not created: %v", err)
	}
	if m.Email != "tim@x.test" || m.LeadID != "l1" {
		t.Errorf("member = %+v", m)
	}
	l, _ := s.LeadStore.GetByID(context.Background(), "l1")
	if l.Status != leadDomain.StatusConverted {
		t.Errorf("lead status = %s, want converted", l.Status)
	}
}

// --- shop ---

func TestHandleOrderPlace_MemberBuysOwn(t *testing.T) {
	s, _ := newTestEnv()
	s.ProductStore.Save(context.Background(), shopDomain.Product{
		ID: "p1", GymID: "g1", Name: "Shaker", PriceCents: 1500, Stock: 5,
	})

	req := authRequest("POST", "/api/orders", `{"lines":[{"ProductID":"p1","Quantity":2}]}`, memberSession)
	rec := httptest.NewRecorder()
	handleOrderPlace(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("got %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}
	var order shopDomain.Order
	json.NewDecoder(rec.Body).Decode(&order)
	if order.TotalCents != 3000 || order.MemberID != "m1" {
		t.Errorf("order = %+v", order)
	}

	p, _ := s.ProductStore.GetByID(context.Background(), "p1")
	if p.Stock != 3 {
		t.Errorf("stock = %d, want 3", p.Stock)
	}
	pending, _ := s.OutboxStore.ListPending(context.Background(), 10)
	if len(pending) != 1 {
		t.Errorf("expected a queued receipt email, got %d entries", len(pending))
	}
}

func TestHandleOrderPlace_InsufficientStock(t *testing.T) {
	s, _ := newTestEnv()
	s.ProductStore.Save(context.Background(), shopDomain.Product{
		ID: "p1", GymID: "g1", Name: "Shaker", PriceCents: 1500, Stock: 1,
	})

	req := authRequest("POST", "/api/orders", `{"lines":[{"ProductID":"p1","Quantity":2}]}`, memberSession)
	rec := httptest.NewRecorder()
	handleOrderPlace(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("got %d, want %d", rec.Code, http.StatusConflict)
	}
	p, _ := s.ProductStore.GetByID(context.Background(), "p1")
	if p.Stock != 1 {
		t.Errorf("stock must be untouched, got %d", p.Stock)
	}
}

// --- exercise detail ---

func TestHandleExerciseGet_RendersMarkdown(t *testing.T) {
	s, _ := newTestEnv()
	s.ExerciseStore.Save(context.Background(), exerciseDomain.Exercise{
		ID: "ex1", GymID: "g1", Name: "Squat", MuscleGroup: "legs",
		Instructions: "**Keep your back straight.**",
	})

	req := authRequest("GET", "/api/exercises/ex1", "", memberSession)
	req.SetPathValue("id", "ex1")
	rec := httptest.NewRecorder()
	handleExerciseGet(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("got %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	var detail struct {
		InstructionsHTML string
	}
	json.NewDecoder(rec.Body).Decode(&detail)
	if !strings.Contains(detail.InstructionsHTML, "<strong>Keep your back straight.</strong>") {
		t.Errorf("instructions not rendered: %s", detail.InstructionsHTML)
	}
}

// --- admin ---

func TestHandleAdminAudit_ForbiddenForTrainer(t *testing.T) {
	newTestEnv()

	req := authRequest("GET", "/api/admin/audit", "", trainerSession)
	rec := httptest.NewRecorder()
	handleAdminAuditTrail(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("got %d, want %d", rec.Code, http.StatusForbidden)
	}
}

// --- workout engine ---

func TestWorkoutLifecycle(t *testing.T) {
	newTestEnv()

	post := func(path, body string) *httptest.ResponseRecorder {
		req := withDevice(authRequest("POST", path, body, memberSession), "dev-1")
		rec := httptest.NewRecorder()
		switch path {
		case "/api/workout/start":
			handleWorkoutStart(rec, req)
		case "/api/workout/exercise/start":
			handleWorkoutExerciseStart(rec, req)
		case "/api/workout/exercise/complete":
			handleWorkoutExerciseComplete(rec, req)
		case "/api/workout/exercise/skip":
			handleWorkoutExerciseSkip(rec, req)
		}
		return rec
	}

	rec := post("/api/workout/start", `{"plan_id":"p1","day_id":"d1"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("start: got %d: %s", rec.Code, rec.Body.String())
	}
	var view engine.ViewState
	json.NewDecoder(rec.Body).Decode(&view)
	if view.Mode != engine.ViewExecuting || len(view.Executing.Logs) != 2 {
		t.Fatalf("view = %+v", view)
	}

	if rec = post("/api/workout/exercise/start", `{"log_id":"log-0"}`); rec.Code != http.StatusOK {
		t.Fatalf("start log-0: got %d: %s", rec.Code, rec.Body.String())
	}
	if rec = post("/api/workout/exercise/complete", `{"log_id":"log-0"}`); rec.Code != http.StatusOK {
		t.Fatalf("complete log-0: got %d: %s", rec.Code, rec.Body.String())
	}
	if rec = post("/api/workout/exercise/start", `{"log_id":"log-1"}`); rec.Code != http.StatusOK {
		t.Fatalf("start log-1: got %d: %s", rec.Code, rec.Body.String())
	}
	// Resolving the last exercise completes the session.
	if rec = post("/api/workout/exercise/skip", `{"log_id":"log-1"}`); rec.Code != http.StatusOK {
		t.Fatalf("skip log-1: got %d: %s", rec.Code, rec.Body.String())
	}

	req := withDevice(authRequest("GET", "/api/workout/state", "", memberSession), "dev-1")
	stateRec := httptest.NewRecorder()
	handleWorkoutState(stateRec, req)
	json.NewDecoder(stateRec.Body).Decode(&view)
	if view.Mode != engine.ViewSummary {
		t.Fatalf("mode = %s, want summary", view.Mode)
	}
	if view.Summary.Report.CompletedCount != 1 || view.Summary.Report.SkippedCount != 1 {
		t.Errorf("report = %+v", view.Summary.Report)
	}
}

func TestWorkoutStart_SecondStartConflicts(t *testing.T) {
	newTestEnv()

	req := withDevice(authRequest("POST", "/api/workout/start", `{"plan_id":"p1","day_id":"d1"}`, memberSession), "dev-1")
	rec := httptest.NewRecorder()
	handleWorkoutStart(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("first start: got %d: %s", rec.Code, rec.Body.String())
	}

	req = withDevice(authRequest("POST", "/api/workout/start", `{"plan_id":"p1","day_id":"d1"}`, memberSession), "dev-1")
	rec = httptest.NewRecorder()
	handleWorkoutStart(rec, req)
	if rec.Code != http.StatusConflict {
		t.Errorf("second start: got %d, want %d", rec.Code, http.StatusConflict)
	}
}

func TestWorkoutState_RequiresMemberRecord(t *testing.T) {
	newTestEnv()

	req := authRequest("GET", "/api/workout/state", "", trainerSession)
	rec := httptest.NewRecorder()
	handleWorkoutState(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("got %d, want %d", rec.Code, http.StatusForbidden)
	}
}
