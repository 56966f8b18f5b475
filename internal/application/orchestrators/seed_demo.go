package orchestrators

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gymdesk/internal/domain/account"
	"gymdesk/internal/domain/exercise"
	"gymdesk/internal/domain/gym"
	"gymdesk/internal/domain/member"
	"gymdesk/internal/domain/membership"
	"gymdesk/internal/domain/plan"
	"gymdesk/internal/domain/shop"

	"github.com/google/uuid"
)

// SeedDemoDeps holds stores needed for demo seeding.
type SeedDemoDeps struct {
	GymStore        seedGymStore
	AccountStore    seedAccountStore
	MemberStore     seedMemberStore
	ExerciseStore   seedExerciseStore
	PlanStore       seedPlanStore
	MembershipStore seedMembershipStore
	ProductStore    seedProductStore
}

type seedGymStore interface {
	GetByID(ctx context.Context, id string) (gym.Gym, error)
	Save(ctx context.Context, g gym.Gym) error
}

type seedAccountStore interface {
	Save(ctx context.Context, a account.Account) error
	GetByEmail(ctx context.Context, email string) (account.Account, error)
}

type seedMemberStore interface {
	Save(ctx context.Context, m member.Member) error
	GetByEmail(ctx context.Context, email string) (member.Member, error)
}

type seedExerciseStore interface {
	GetByID(ctx context.Context, id string) (exercise.Exercise, error)
	Save(ctx context.Context, e exercise.Exercise) error
}

type seedPlanStore interface {
	GetByID(ctx context.Context, id string) (plan.Plan, error)
	Save(ctx context.Context, p plan.Plan) error
}

type seedMembershipStore interface {
	GetByID(ctx context.Context, id string) (membership.Plan, error)
	Save(ctx context.Context, p membership.Plan) error
}

type seedProductStore interface {
	GetByID(ctx context.Context, id string) (shop.Product, error)
	Save(ctx context.Context, p shop.Product) error
}

// DemoGymID is the fixed id of the seeded demo gym. Fixed ids keep the
// whole seed idempotent across restarts.
const DemoGymID = "gym-demo"

// demoAccountDef defines a single demo account to seed.
type demoAccountDef struct {
	Email      string
	Password   string
	Role       string
	MemberName string
}

// demoAccounts returns the list of demo accounts to seed.
func demoAccounts() []demoAccountDef {
	return []demoAccountDef{
		{
			Email:      "demo+admin@gymdesk.example",
			Password:   "Kettlebell+admin!",
			Role:       account.RoleAdmin,
			MemberName: "", // admin doesn't need a member record
		},
		{
			Email:      "demo+trainer@gymdesk.example",
			Password:   "Kettlebell+trainer!",
			Role:       account.RoleTrainer,
			MemberName: "",
		},
		{
			Email:      "demo+member@gymdesk.example",
			Password:   "Kettlebell+member!",
			Role:       account.RoleMember,
			MemberName: "Demo Member",
		},
	}
}

// sharedExercises is the default exercise library available to every gym
// (empty gym_id). Ids are fixed so re-seeding updates in place.
func sharedExercises() []exercise.Exercise {
	return []exercise.Exercise{
		{ID: "ex-squat", Name: "Back Squat", MuscleGroup: exercise.GroupLegs, Equipment: exercise.EquipmentBarbell,
			Instructions: "Bar on the upper back.\n\n1. Brace and sit down between the hips.\n2. Drive up through mid-foot."},
		{ID: "ex-bench", Name: "Bench Press", MuscleGroup: exercise.GroupChest, Equipment: exercise.EquipmentBarbell,
			Instructions: "Feet planted, shoulder blades pinned.\n\nLower to the sternum, press to lockout."},
		{ID: "ex-deadlift", Name: "Deadlift", MuscleGroup: exercise.GroupBack, Equipment: exercise.EquipmentBarbell,
			Instructions: "Hinge, don't squat. Keep the bar against the legs."},
		{ID: "ex-ohp", Name: "Overhead Press", MuscleGroup: exercise.GroupShoulders, Equipment: exercise.EquipmentBarbell,
			Instructions: "Press overhead without leaning back. Squeeze the glutes."},
		{ID: "ex-row", Name: "Dumbbell Row", MuscleGroup: exercise.GroupBack, Equipment: exercise.EquipmentDumbbell,
			Instructions: "One knee on the bench. Pull the elbow to the hip."},
		{ID: "ex-plank", Name: "Plank", MuscleGroup: exercise.GroupCore, Equipment: exercise.EquipmentNone,
			Instructions: "Straight line from head to heels. Breathe."},
	}
}

// starterPlan builds the seeded beginner plan from the shared library.
func starterPlan() plan.Plan {
	return plan.Plan{
		ID:         "plan-starter",
		GymID:      DemoGymID,
		Name:       "Starter Strength",
		Difficulty: plan.DifficultyBeginner,
		Days: []plan.Day{
			{
				ID: "plan-starter-d1", PlanID: "plan-starter", Name: "Day 1 — Lower", Position: 0,
				Slots: []plan.Slot{
					{ID: "plan-starter-d1-s1", DayID: "plan-starter-d1", ExerciseID: "ex-squat", Position: 0, TargetSets: 3, TargetReps: 5, RestSeconds: 180},
					{ID: "plan-starter-d1-s2", DayID: "plan-starter-d1", ExerciseID: "ex-deadlift", Position: 1, TargetSets: 1, TargetReps: 5, RestSeconds: 180},
					{ID: "plan-starter-d1-s3", DayID: "plan-starter-d1", ExerciseID: "ex-plank", Position: 2, TargetSets: 3, TargetReps: 1, RestSeconds: 60},
				},
			},
			{
				ID: "plan-starter-d2", PlanID: "plan-starter", Name: "Day 2 — Upper", Position: 1,
				Slots: []plan.Slot{
					{ID: "plan-starter-d2-s1", DayID: "plan-starter-d2", ExerciseID: "ex-bench", Position: 0, TargetSets: 3, TargetReps: 5, RestSeconds: 180},
					{ID: "plan-starter-d2-s2", DayID: "plan-starter-d2", ExerciseID: "ex-ohp", Position: 1, TargetSets: 3, TargetReps: 8, RestSeconds: 120},
					{ID: "plan-starter-d2-s3", DayID: "plan-starter-d2", ExerciseID: "ex-row", Position: 2, TargetSets: 3, TargetReps: 10, RestSeconds: 90},
				},
			},
		},
	}
}

// ExecuteSeedDemo creates the demo gym with accounts, the shared exercise
// library, a starter workout plan, membership plans and one shop product.
// It is idempotent — existing rows are skipped or updated in place.
// PRE: Database is migrated.
// POST: Demo data exists; running twice changes nothing.
func ExecuteSeedDemo(ctx context.Context, deps SeedDemoDeps) error {
	if _, err := deps.GymStore.GetByID(ctx, DemoGymID); err != nil {
		g := gym.Gym{ID: DemoGymID, Name: "GymDesk Demo", Timezone: "Pacific/Auckland", CreatedAt: time.Now()}
		if err := g.Validate(); err != nil {
			return fmt.Errorf("seed gym: %w", err)
		}
		if err := deps.GymStore.Save(ctx, g); err != nil {
			return fmt.Errorf("seed gym: save: %w", err)
		}
		slog.Info("seed_event", "event", "gym_seeded", "gym_id", DemoGymID)
	}

	for _, e := range sharedExercises() {
		if _, err := deps.ExerciseStore.GetByID(ctx, e.ID); err == nil {
			continue
		}
		if err := e.Validate(); err != nil {
			return fmt.Errorf("seed exercise %s: %w", e.Name, err)
		}
		if err := deps.ExerciseStore.Save(ctx, e); err != nil {
			return fmt.Errorf("seed exercise %s: save: %w", e.Name, err)
		}
	}

	p := starterPlan()
	if _, err := deps.PlanStore.GetByID(ctx, p.ID); err != nil {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("seed plan: %w", err)
		}
		if err := deps.PlanStore.Save(ctx, p); err != nil {
			return fmt.Errorf("seed plan: save: %w", err)
		}
		slog.Info("seed_event", "event", "starter_plan_seeded", "plan_id", p.ID)
	}

	plans := []membership.Plan{
		{ID: "mplan-casual", GymID: DemoGymID, Name: "Casual", FeeCents: 2500, BillingPeriod: membership.PeriodWeekly, ClassAllowance: 2},
		{ID: "mplan-unlimited", GymID: DemoGymID, Name: "Unlimited", FeeCents: 8900, BillingPeriod: membership.PeriodMonthly, ClassAllowance: membership.UnlimitedClasses},
	}
	for _, mp := range plans {
		if _, err := deps.MembershipStore.GetByID(ctx, mp.ID); err == nil {
			continue
		}
		if err := mp.Validate(); err != nil {
			return fmt.Errorf("seed membership plan %s: %w", mp.Name, err)
		}
		if err := deps.MembershipStore.Save(ctx, mp); err != nil {
			return fmt.Errorf("seed membership plan %s: save: %w", mp.Name, err)
		}
	}

	product := shop.Product{ID: "prod-shaker", GymID: DemoGymID, Name: "Shaker Bottle", PriceCents: 1500, Stock: 25}
	if _, err := deps.ProductStore.GetByID(ctx, product.ID); err != nil {
		if err := product.Validate(); err != nil {
			return fmt.Errorf("seed product: %w", err)
		}
		if err := deps.ProductStore.Save(ctx, product); err != nil {
			return fmt.Errorf("seed product: save: %w", err)
		}
	}

	created := 0
	for _, def := range demoAccounts() {
		// Check if account already exists
		if _, err := deps.AccountStore.GetByEmail(ctx, def.Email); err == nil {
			continue
		}

		acct := account.Account{
			ID:    uuid.New().String(),
			GymID: DemoGymID,
			Email: def.Email,
			Role:  def.Role,
		}
		if err := acct.SetPassword(def.Password); err != nil {
			return fmt.Errorf("seed demo account %s: set password: %w", def.Email, err)
		}
		if err := deps.AccountStore.Save(ctx, acct); err != nil {
			return fmt.Errorf("seed demo account %s: save: %w", def.Email, err)
		}

		// Create member record for member accounts
		if def.MemberName != "" {
			m := member.Member{
				ID:        uuid.New().String(),
				GymID:     DemoGymID,
				AccountID: acct.ID,
				PlanID:    "mplan-unlimited",
				Email:     def.Email,
				Name:      def.MemberName,
				Status:    member.StatusActive,
				JoinedAt:  time.Now(),
			}
			if err := deps.MemberStore.Save(ctx, m); err != nil {
				return fmt.Errorf("seed demo member %s: save: %w", def.MemberName, err)
			}
		}

		created++
		slog.Info("seed_event", "event", "demo_account_created", "email", def.Email, "role", def.Role)
	}

	if created > 0 {
		slog.Info("seed_event", "event", "demo_seeded", "accounts_created", created)
	}
	return nil
}
