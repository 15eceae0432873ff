package seed

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/rezkam/tally/internal/domain"
)

var (
	verbs = []string{
		"Draft", "Review", "Ship", "Plan", "Audit", "Refactor", "Prepare",
		"Negotiate", "Design", "Migrate", "Publish", "Analyze",
	}
	subjects = []string{
		"pricing page", "client proposal", "Q3 forecast", "onboarding flow",
		"billing export", "partner contract", "release notes", "support macros",
		"sales playbook", "customer survey", "analytics dashboard", "ad campaign",
	}
)

// Generator produces plausible synthetic tasks with unique titles.
type Generator struct {
	rng *rand.Rand
	now func() time.Time
}

// GeneratorOption customizes a Generator.
type GeneratorOption func(*Generator)

// WithSeed makes the output deterministic.
func WithSeed(seed uint64) GeneratorOption {
	return func(g *Generator) { g.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)) }
}

// WithNow overrides the reference time used for createdAt.
func WithNow(now func() time.Time) GeneratorOption {
	return func(g *Generator) { g.now = now }
}

// NewGenerator creates a generator seeded from the runtime source.
func NewGenerator(opts ...GeneratorOption) *Generator {
	g := &Generator{
		rng: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		now: func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate returns count tasks. Revenue is in [50, 5000), timeTaken in
// [0.5, 12] hours and createdAt within the last 30 days; Done tasks complete
// after they were created and never in the future.
func (g *Generator) Generate(count int) []domain.Task {
	if count <= 0 {
		return []domain.Task{}
	}

	now := g.now()
	titles := g.titles(count)
	tasks := make([]domain.Task, count)
	for i := range tasks {
		status := domain.TaskStatuses[g.rng.IntN(len(domain.TaskStatuses))]
		created := now.Add(-time.Duration(g.rng.Int64N(int64(30 * 24 * time.Hour))))

		task := domain.Task{
			ID:        newID(),
			Title:     titles[i],
			Revenue:   roundTo(50+g.rng.Float64()*4950, 2),
			TimeTaken: roundTo(0.5+g.rng.Float64()*11.5, 1),
			Priority:  domain.TaskPriorities[g.rng.IntN(len(domain.TaskPriorities))],
			Status:    status,
			CreatedAt: created,
		}
		if status == domain.TaskStatusDone {
			completed := created.Add(time.Duration(g.rng.Int64N(int64(now.Sub(created)) + 1)))
			task.CompletedAt = &completed
		}
		tasks[i] = task
	}
	return tasks
}

// titles picks count distinct verb/subject pairs, adding a numeric suffix once
// the combinations run out.
func (g *Generator) titles(count int) []string {
	combos := len(verbs) * len(subjects)
	order := g.rng.Perm(combos)

	out := make([]string, count)
	for i := range out {
		k := order[i%combos]
		title := fmt.Sprintf("%s %s", verbs[k/len(subjects)], subjects[k%len(subjects)])
		if round := i / combos; round > 0 {
			title = fmt.Sprintf("%s (%d)", title, round+1)
		}
		out[i] = title
	}
	return out
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
