package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"lead-crm/internal/cache"
	"lead-crm/internal/middleware"
	"lead-crm/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingCache stores nothing and remembers every Invalidate call.
type recordingCache struct {
	cache.Noop
	invalidated [][]string
}

func (c *recordingCache) Invalidate(_ context.Context, namespaces ...string) error {
	c.invalidated = append(c.invalidated, namespaces)
	return nil
}

func withRecordingCache(env *testEnv) *recordingCache {
	c := &recordingCache{}
	env.deps.Cache = c
	return c
}

var leadDetailCols = []string{
	"id", "name", "phone", "email", "course_id", "origin_id", "status", "stage",
	"owner_id", "created_at", "last_contact_at", "converted_at",
	"course_name", "origin_name", "stage_name",
}

var interactionCols = []string{"id", "lead_id", "user_id", "type", "description", "created_at", "author_name", "lead_name"}

func TestLeadDetail(t *testing.T) {
	userID, leadID, courseID := uuid.New(), uuid.New(), uuid.New()

	t.Run("renders the lead and its timeline", func(t *testing.T) {
		env := newTestEnv(t)
		cookies := env.signIn(t, middleware.Identity{UserID: userID, Role: models.RoleSales})
		expectProfile(env.mock, userID, models.RoleSales)
		env.mock.ExpectQuery(`FROM leads l .* WHERE l.id = \$1`).
			WithArgs(leadID).
			WillReturnRows(sqlmock.NewRows(leadDetailCols).
				AddRow(leadID.String(), "João Pereira", "11999990000", nil, courseID.String(), nil,
					"quente", "prova", userID.String(), testNow, nil, nil, "Direito", nil, "Prova"))
		expectProfile(env.mock, userID, models.RoleSales)
		env.mock.ExpectQuery(`FROM interactions i`).
			WithArgs(leadID).
			WillReturnRows(sqlmock.NewRows(interactionCols).
				AddRow(uuid.New().String(), leadID.String(), userID.String(), "ligacao", "Pediu o **edital**", testNow, "Usuária Teste", nil))

		rec := env.do(httptest.NewRequest(http.MethodGet, "/leads/"+leadID.String(), nil), cookies)

		require.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		assert.Contains(t, body, "João Pereira")
		assert.Contains(t, body, "Direito")
		assert.Contains(t, body, "Etapa: Prova")
		assert.Contains(t, body, "<strong>edital</strong>")
		assert.Contains(t, body, `action="/leads/`+leadID.String()+`/interactions"`)
		assert.NoError(t, env.mock.ExpectationsWereMet())
	})

	t.Run("unknown lead is 404", func(t *testing.T) {
		env := newTestEnv(t)
		cookies := env.signIn(t, middleware.Identity{UserID: userID, Role: models.RoleSales})
		expectProfile(env.mock, userID, models.RoleSales)
		env.mock.ExpectQuery(`FROM leads l`).WithArgs(leadID).WillReturnError(sql.ErrNoRows)

		rec := env.do(httptest.NewRequest(http.MethodGet, "/leads/"+leadID.String(), nil), cookies)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("malformed id is 404", func(t *testing.T) {
		env := newTestEnv(t)
		cookies := env.signIn(t, middleware.Identity{UserID: userID, Role: models.RoleSales})
		expectProfile(env.mock, userID, models.RoleSales)

		rec := env.do(httptest.NewRequest(http.MethodGet, "/leads/nope", nil), cookies)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.NoError(t, env.mock.ExpectationsWereMet())
	})
}

func TestUpdateLead(t *testing.T) {
	userID, leadID, courseID, originID := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	form := url.Values{
		"name":      {"Maria Souza"},
		"course_id": {courseID.String()},
		"origin_id": {originID.String()},
		"status":    {models.StatusEnrolled},
		"stage":     {models.StageEnrolment},
	}

	t.Run("saves and invalidates the aggregates", func(t *testing.T) {
		env := newTestEnv(t)
		c := withRecordingCache(env)
		cookies := env.signIn(t, middleware.Identity{UserID: userID, Role: models.RoleSales})
		expectProfile(env.mock, userID, models.RoleSales)
		env.mock.ExpectBegin()
		expectClaims(env.mock)
		env.mock.ExpectExec(`UPDATE leads\s+SET name = \$1`).
			WithArgs("Maria Souza", sqlmock.AnyArg(), sqlmock.AnyArg(), courseID, originID,
				models.StatusEnrolled, models.StageEnrolment, leadID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		env.mock.ExpectCommit()

		rec := env.do(postForm("/leads/"+leadID.String()+"/edit", form), cookies)

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/leads/"+leadID.String(), rec.Header().Get("Location"))
		assert.Equal(t, [][]string{{cache.NamespaceDashboard, cache.NamespaceConversions}}, c.invalidated)
		assert.NoError(t, env.mock.ExpectationsWereMet())
	})

	t.Run("missing lead flashes and leaves the cache alone", func(t *testing.T) {
		env := newTestEnv(t)
		c := withRecordingCache(env)
		cookies := env.signIn(t, middleware.Identity{UserID: userID, Role: models.RoleSales})
		expectProfile(env.mock, userID, models.RoleSales)
		env.mock.ExpectBegin()
		expectClaims(env.mock)
		env.mock.ExpectExec(`UPDATE leads`).WillReturnResult(sqlmock.NewResult(0, 0))
		env.mock.ExpectRollback()

		rec := env.do(postForm("/leads/"+leadID.String()+"/edit", form), cookies)

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/leads/"+leadID.String()+"/edit", rec.Header().Get("Location"))
		assert.Empty(t, c.invalidated)
	})
}

func TestDeleteLead(t *testing.T) {
	env := newTestEnv(t)
	c := withRecordingCache(env)
	userID, leadID := uuid.New(), uuid.New()
	cookies := env.signIn(t, middleware.Identity{UserID: userID, Role: models.RoleSales})
	expectProfile(env.mock, userID, models.RoleSales)
	env.mock.ExpectBegin()
	expectClaims(env.mock)
	env.mock.ExpectExec(`DELETE FROM leads WHERE id = \$1`).
		WithArgs(leadID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	env.mock.ExpectCommit()

	rec := env.do(httptest.NewRequest(http.MethodPost, "/leads/"+leadID.String()+"/delete", nil), cookies)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/leads", rec.Header().Get("Location"))
	assert.Equal(t, [][]string{{cache.NamespaceDashboard, cache.NamespaceConversions}}, c.invalidated)
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestAddInteractionRecordsAuthor(t *testing.T) {
	env := newTestEnv(t)
	c := withRecordingCache(env)
	userID, leadID := uuid.New(), uuid.New()
	cookies := env.signIn(t, middleware.Identity{UserID: userID, Role: models.RoleSales})
	expectProfile(env.mock, userID, models.RoleSales)
	env.mock.ExpectBegin()
	expectClaims(env.mock)
	env.mock.ExpectQuery(`INSERT INTO interactions`).
		WithArgs(leadID, uuid.NullUUID{UUID: userID, Valid: true}, "whatsapp", "Enviou documentos").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New().String()))
	env.mock.ExpectExec(`UPDATE leads SET last_contact_at = now\(\) WHERE id = \$1`).
		WithArgs(leadID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	env.mock.ExpectCommit()

	rec := env.do(postForm("/leads/"+leadID.String()+"/interactions", url.Values{
		"type":        {"whatsapp"},
		"description": {"Enviou documentos"},
	}), cookies)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/leads/"+leadID.String(), rec.Header().Get("Location"))
	// a contact moves last_contact_at, which only the dashboard reads
	assert.Equal(t, [][]string{{cache.NamespaceDashboard}}, c.invalidated)
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestCreateLeadInvalidatesAggregates(t *testing.T) {
	env := newTestEnv(t)
	c := withRecordingCache(env)
	userID, courseID, originID := uuid.New(), uuid.New(), uuid.New()
	cookies := env.signIn(t, middleware.Identity{UserID: userID, Role: models.RoleSales})
	expectProfile(env.mock, userID, models.RoleSales)
	env.mock.ExpectBegin()
	expectClaims(env.mock)
	env.mock.ExpectQuery(`SELECT create_lead_with_interaction`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New().String()))
	env.mock.ExpectCommit()

	rec := env.do(postForm("/leads/new", url.Values{
		"name":      {"Pedro"},
		"course_id": {courseID.String()},
		"origin_id": {originID.String()},
	}), cookies)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, [][]string{{cache.NamespaceDashboard, cache.NamespaceConversions}}, c.invalidated)
}

func TestCatalogMutationInvalidatesCatalog(t *testing.T) {
	env := newTestEnv(t)
	c := withRecordingCache(env)
	userID := uuid.New()
	cookies := env.signIn(t, middleware.Identity{UserID: userID, Role: models.RoleAdmin})
	expectProfile(env.mock, userID, models.RoleAdmin)
	env.mock.ExpectBegin()
	expectClaims(env.mock)
	env.mock.ExpectQuery(`INSERT INTO origins \(name\) VALUES \(\$1\) RETURNING id`).
		WithArgs("Feira").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New().String()))
	env.mock.ExpectCommit()

	rec := env.do(postForm("/origins", url.Values{"name": {"Feira"}}), cookies)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, [][]string{{cache.NamespaceCatalog, cache.NamespaceDashboard, cache.NamespaceConversions}}, c.invalidated)
	assert.NoError(t, env.mock.ExpectationsWereMet())
}
