package orchestrators

import (
	"context"
	"fmt"
	"testing"

	"gymdesk/internal/domain/account"
	"gymdesk/internal/domain/exercise"
	"gymdesk/internal/domain/gym"
	"gymdesk/internal/domain/member"
	"gymdesk/internal/domain/membership"
	"gymdesk/internal/domain/plan"
	"gymdesk/internal/domain/shop"
)

// --- in-memory test doubles ---

type memSeedStore struct {
	gyms      map[string]gym.Gym
	accounts  map[string]account.Account // keyed by email
	members   map[string]member.Member   // keyed by email
	exercises map[string]exercise.Exercise
	plans     map[string]plan.Plan
	mplans    map[string]membership.Plan
	products  map[string]shop.Product

	planSaves int
}

func newMemSeedStore() *memSeedStore {
	return &memSeedStore{
		gyms:      make(map[string]gym.Gym),
		accounts:  make(map[string]account.Account),
		members:   make(map[string]member.Member),
		exercises: make(map[string]exercise.Exercise),
		plans:     make(map[string]plan.Plan),
		mplans:    make(map[string]membership.Plan),
		products:  make(map[string]shop.Product),
	}
}

func (s *memSeedStore) GetByID(_ context.Context, id string) (gym.Gym, error) {
	g, ok := s.gyms[id]
	if !ok {
		return gym.Gym{}, fmt.Errorf("not found")
	}
	return g, nil
}
func (s *memSeedStore) Save(_ context.Context, g gym.Gym) error { s.gyms[g.ID] = g; return nil }

type seedAcctDouble struct{ s *memSeedStore }

func (d seedAcctDouble) Save(_ context.Context, a account.Account) error {
	d.s.accounts[a.Email] = a
	return nil
}
func (d seedAcctDouble) GetByEmail(_ context.Context, email string) (account.Account, error) {
	a, ok := d.s.accounts[email]
	if !ok {
		return account.Account{}, fmt.Errorf("not found")
	}
	return a, nil
}

type seedMemberDouble struct{ s *memSeedStore }

func (d seedMemberDouble) Save(_ context.Context, m member.Member) error {
	d.s.members[m.Email] = m
	return nil
}
func (d seedMemberDouble) GetByEmail(_ context.Context, email string) (member.Member, error) {
	m, ok := d.s.members[email]
	if !ok {
		return member.Member{}, fmt.Errorf("not found")
	}
	return m, nil
}

type seedExerciseDouble struct{ s *memSeedStore }

func (d seedExerciseDouble) GetByID(_ context.Context, id string) (exercise.Exercise, error) {
	e, ok := d.s.exercises[id]
	if !ok {
		return exercise.Exercise{}, fmt.Errorf("not found")
	}
	return e, nil
}
func (d seedExerciseDouble) Save(_ context.Context, e exercise.Exercise) error {
	d.s.exercises[e.ID] = e
	return nil
}

type seedPlanDouble struct{ s *memSeedStore }

func (d seedPlanDouble) GetByID(_ context.Context, id string) (plan.Plan, error) {
	p, ok := d.s.plans[id]
	if !ok {
		return plan.Plan{}, fmt.Errorf("not found")
	}
	return p, nil
}
func (d seedPlanDouble) Save(_ context.Context, p plan.Plan) error {
	d.s.plans[p.ID] = p
	d.s.planSaves++
	return nil
}

type seedMembershipDouble struct{ s *memSeedStore }

func (d seedMembershipDouble) GetByID(_ context.Context, id string) (membership.Plan, error) {
	p, ok := d.s.mplans[id]
	if !ok {
		return membership.Plan{}, fmt.Errorf("not found")
	}
	return p, nil
}
func (d seedMembershipDouble) Save(_ context.Context, p membership.Plan) error {
	d.s.mplans[p.ID] = p
	return nil
}

type seedProductDouble struct{ s *memSeedStore }

func (d seedProductDouble) GetByID(_ context.Context, id string) (shop.Product, error) {
	p, ok := d.s.products[id]
	if !ok {
		return shop.Product{}, fmt.Errorf("not found")
	}
	return p, nil
}
func (d seedProductDouble) Save(_ context.Context, p shop.Product) error {
	d.s.products[p.ID] = p
	return nil
}

func seedDeps(s *memSeedStore) SeedDemoDeps {
	return SeedDemoDeps{
		GymStore:        s,
		AccountStore:    seedAcctDouble{s},
		MemberStore:     seedMemberDouble{s},
		ExerciseStore:   seedExerciseDouble{s},
		PlanStore:       seedPlanDouble{s},
		MembershipStore: seedMembershipDouble{s},
		ProductStore:    seedProductDouble{s},
	}
}

// --- tests ---

// TestSeedDemo_CreatesEverything verifies the full demo data set is created.
func TestSeedDemo_CreatesEverything(t *testing.T) {
	s := newMemSeedStore()

	if err := ExecuteSeedDemo(context.Background(), seedDeps(s)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, ok := s.gyms[DemoGymID]; !ok {
		t.Error("demo gym not created")
	}
	if len(s.accounts) != 3 {
		t.Errorf("expected 3 accounts, got %d", len(s.accounts))
	}
	if len(s.members) != 1 {
		t.Errorf("expected 1 member record, got %d", len(s.members))
	}
	if len(s.exercises) != 6 {
		t.Errorf("expected 6 exercises, got %d", len(s.exercises))
	}
	if len(s.mplans) != 2 {
		t.Errorf("expected 2 membership plans, got %d", len(s.mplans))
	}
	if len(s.products) != 1 {
		t.Errorf("expected 1 product, got %d", len(s.products))
	}

	p, ok := s.plans["plan-starter"]
	if !ok {
		t.Fatal("starter plan not created")
	}
	if err := p.Validate(); err != nil {
		t.Errorf("seeded plan invalid: %v", err)
	}
	for _, d := range p.Days {
		for _, sl := range d.Slots {
			if _, ok := s.exercises[sl.ExerciseID]; !ok {
				t.Errorf("slot references missing exercise %s", sl.ExerciseID)
			}
		}
	}
}

// TestSeedDemo_Idempotent verifies running seed twice creates no duplicates.
func TestSeedDemo_Idempotent(t *testing.T) {
	s := newMemSeedStore()
	deps := seedDeps(s)

	if err := ExecuteSeedDemo(context.Background(), deps); err != nil {
		t.Fatalf("first seed: %v", err)
	}
	if err := ExecuteSeedDemo(context.Background(), deps); err != nil {
		t.Fatalf("second seed: %v", err)
	}

	if len(s.accounts) != 3 {
		t.Errorf("expected 3 accounts after double seed, got %d", len(s.accounts))
	}
	if len(s.members) != 1 {
		t.Errorf("expected 1 member after double seed, got %d", len(s.members))
	}
	if s.planSaves != 1 {
		t.Errorf("plan saved %d times, want 1", s.planSaves)
	}
}

// TestSeedDemo_PasswordsValidate verifies each demo account's password is correct.
func TestSeedDemo_PasswordsValidate(t *testing.T) {
	s := newMemSeedStore()

	if err := ExecuteSeedDemo(context.Background(), seedDeps(s)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, def := range demoAccounts() {
		acct, ok := s.accounts[def.Email]
		if !ok {
			t.Errorf("account %s not found", def.Email)
			continue
		}
		if acct.Role != def.Role {
			t.Errorf("account %s: expected role %s, got %s", def.Email, def.Role, acct.Role)
		}
		if err := acct.CheckPassword(def.Password); err != nil {
			t.Errorf("account %s: password check failed: %v", def.Email, err)
		}
	}
}
