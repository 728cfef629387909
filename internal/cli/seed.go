package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"lead-crm/internal/auth"
	"lead-crm/internal/cache"
	"lead-crm/internal/models"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

const seedPassword = "senha123"

var (
	seedCourses = []struct{ Name, Type string }{
		{"Administração", "Presencial"},
		{"Direito", "Presencial"},
		{"Pedagogia", "EAD"},
		{"Gestão de Recursos Humanos", "EAD"},
		{"MBA em Gestão de Projetos", "Pós-graduação"},
		{"Psicopedagogia Clínica", "Pós-graduação"},
	}
	seedOrigins = []string{"Instagram", "Google", "Indicação", "Site", "Evento", "WhatsApp"}
	seedSellers = []struct{ Name, Email, Role string }{
		{"Ana Souza", "ana.souza@instituicao.test", models.RoleSales},
		{"Bruno Lima", "bruno.lima@instituicao.test", models.RoleSales},
		{"Carla Mendes", "carla.mendes@instituicao.test", models.RoleSales},
		{"Diego Rocha", "diego.rocha@instituicao.test", models.RoleHQ},
	}
	firstNames = []string{"João", "Maria", "José", "Ana", "Pedro", "Juliana", "Lucas", "Fernanda", "Rafael", "Camila", "Gabriel", "Beatriz", "Mateus", "Larissa"}
	lastNames  = []string{"Silva", "Santos", "Oliveira", "Souza", "Pereira", "Costa", "Rodrigues", "Almeida", "Nascimento", "Araújo"}
)

func newSeedCommand() *cobra.Command {
	var (
		count   int
		confirm bool
		seed    int64
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Populate demo courses, origins, salespeople and leads",
		Long: `Inserts demo data for local development.

Only runs when APP_ENV=development and --confirm is given. Salespeople are
created through the local sign-in provider with the password "` + seedPassword + `".`,
		Example: `  APP_ENV=development crm seed --count 80 --confirm`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := appFrom(cmd)
			if !a.cfg.IsDevelopment() {
				return errors.New("seeder can only run in development environment (set APP_ENV=development)")
			}
			if !confirm {
				return fmt.Errorf("--confirm flag is required to run seeder (crm seed --count %d --confirm)", count)
			}

			conn, store, err := a.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer conn.Close()

			s := &seeder{
				store:  store,
				local:  auth.NewLocal(store, a.logger),
				rng:    rand.New(rand.NewSource(seed)),
				now:    time.Now(),
				report: func(format string, args ...interface{}) { fmt.Fprintf(cmd.OutOrStdout(), format+"\n", args...) },
			}
			if err := s.run(cmd.Context(), count); err != nil {
				return err
			}
			a.invalidate(cmd.Context(), cache.NamespaceCatalog, cache.NamespaceDashboard, cache.NamespaceConversions)
			return nil
		},
	}

	cmd.Flags().IntVar(&count, "count", 60, "number of leads to create")
	cmd.Flags().BoolVar(&confirm, "confirm", false, "confirm seeding (required)")
	cmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed for reproducible data")
	return cmd
}

type seeder struct {
	store  *models.Store
	local  *auth.Local
	rng    *rand.Rand
	now    time.Time
	report func(format string, args ...interface{})
}

func (s *seeder) run(ctx context.Context, count int) error {
	courseIDs, err := s.courses(ctx)
	if err != nil {
		return err
	}
	originIDs, err := s.origins(ctx)
	if err != nil {
		return err
	}
	sellerIDs, err := s.sellers(ctx)
	if err != nil {
		return err
	}

	created := 0
	for i := 0; i < count; i++ {
		if err := s.lead(ctx, courseIDs, originIDs, sellerIDs); err != nil {
			return fmt.Errorf("lead %d: %w", i+1, err)
		}
		created++
	}
	s.report("seeded %d courses, %d origins, %d salespeople, %d leads", len(courseIDs), len(originIDs), len(sellerIDs), created)
	return nil
}

func (s *seeder) courses(ctx context.Context) ([]uuid.UUID, error) {
	existing, err := s.store.ListCourses(ctx)
	if err != nil {
		return nil, err
	}
	byName := map[string]uuid.UUID{}
	for _, c := range existing {
		byName[c.Name] = c.ID
	}

	ids := make([]uuid.UUID, 0, len(seedCourses))
	for _, c := range seedCourses {
		id, ok := byName[c.Name]
		if !ok {
			if id, err = s.store.CreateCourse(ctx, c.Name, c.Type); err != nil {
				return nil, err
			}
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *seeder) origins(ctx context.Context) ([]uuid.UUID, error) {
	existing, err := s.store.ListOrigins(ctx)
	if err != nil {
		return nil, err
	}
	byName := map[string]uuid.UUID{}
	for _, o := range existing {
		byName[o.Name] = o.ID
	}

	ids := make([]uuid.UUID, 0, len(seedOrigins))
	for _, name := range seedOrigins {
		id, ok := byName[name]
		if !ok {
			if id, err = s.store.CreateOrigin(ctx, name); err != nil {
				return nil, err
			}
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *seeder) sellers(ctx context.Context) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(seedSellers))
	for _, p := range seedSellers {
		var id uuid.UUID
		u, err := s.store.GetLocalUserByEmail(ctx, p.Email)
		switch {
		case err == nil:
			id = u.ID
		case errors.Is(err, models.ErrNotFound):
			session, err := s.local.SignUp(ctx, p.Email, seedPassword, p.Name)
			if err != nil {
				return nil, fmt.Errorf("failed to create %s: %w", p.Email, err)
			}
			id = session.User.ID
		default:
			return nil, err
		}
		if p.Role != models.RoleSales {
			if err := s.store.UpdateProfileRole(ctx, id, p.Role); err != nil {
				return nil, err
			}
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// lead creates one lead somewhere in the last 90 days. Later stages are less
// likely, and about half the leads at the last stage are enrolled.
func (s *seeder) lead(ctx context.Context, courses, origins, sellers []uuid.UUID) error {
	stage := models.Stages[weighted(s.rng, []int{45, 30, 15, 10})]
	status := models.Statuses[s.rng.Intn(3)]
	if s.rng.Intn(10) == 0 {
		status = models.StatusLost
	}
	if stage == models.StageEnrolment && s.rng.Intn(2) == 0 {
		status = models.StatusEnrolled
	}

	name := firstNames[s.rng.Intn(len(firstNames))] + " " + lastNames[s.rng.Intn(len(lastNames))]
	id, err := s.store.CreateLeadWithInteraction(ctx, models.NewLead{
		Name:        name,
		Phone:       fmt.Sprintf("(11) 9%04d-%04d", s.rng.Intn(10000), s.rng.Intn(10000)),
		CourseID:    courses[s.rng.Intn(len(courses))],
		OriginID:    origins[s.rng.Intn(len(origins))],
		Status:      status,
		Stage:       stage,
		OwnerID:     uuid.NullUUID{UUID: sellers[s.rng.Intn(len(sellers))], Valid: true},
		Description: "Lead de demonstração",
	})
	if err != nil {
		return err
	}

	createdAt := s.now.Add(-time.Duration(s.rng.Intn(90*24)) * time.Hour)
	lastContact := sql.NullTime{}
	if s.rng.Intn(4) > 0 {
		lastContact = sql.NullTime{Time: between(s.rng, createdAt, s.now), Valid: true}
	}
	convertedAt := sql.NullTime{}
	if status == models.StatusEnrolled {
		convertedAt = sql.NullTime{Time: between(s.rng, createdAt, s.now), Valid: true}
	}
	return s.store.BackdateLead(ctx, id, createdAt, lastContact, convertedAt)
}

func between(rng *rand.Rand, from, to time.Time) time.Time {
	span := to.Sub(from)
	if span <= 0 {
		return from
	}
	return from.Add(time.Duration(rng.Int63n(int64(span))))
}

// weighted picks an index with probability proportional to its weight.
func weighted(rng *rand.Rand, weights []int) int {
	total := 0
	for _, w := range weights {
		total += w
	}
	n := rng.Intn(total)
	for i, w := range weights {
		if n < w {
			return i
		}
		n -= w
	}
	return len(weights) - 1
}
