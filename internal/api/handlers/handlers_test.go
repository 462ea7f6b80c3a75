package handlers_test

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/clinicaltriage/internal/adapters/classifier"
	"github.com/zatekoja/clinicaltriage/internal/adapters/events"
	"github.com/zatekoja/clinicaltriage/internal/adapters/registry"
	"github.com/zatekoja/clinicaltriage/internal/api/handlers"
	"github.com/zatekoja/clinicaltriage/internal/application/services"
	"github.com/zatekoja/clinicaltriage/internal/domain/entities"
	"github.com/zatekoja/clinicaltriage/internal/domain/providers"
	"github.com/zatekoja/clinicaltriage/internal/domain/repositories"
	"github.com/zatekoja/clinicaltriage/internal/domain/triage"
)

const adminKey = "vvv"

type testServer struct {
	mux      *http.ServeMux
	registry repositories.PatientRepository
	bus      providers.EventBus
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	catalog := entities.NewCatalog(
		entities.CategoryQuestions{Category: "respiratorio", Questions: []entities.Question{
			{Key: "disnea", Prompt: "¿Dificultad para respirar?", Priority: entities.PriorityImmediate},
		}},
		entities.CategoryQuestions{Category: "trauma", Questions: []entities.Question{
			{Key: "fractura", Prompt: "¿Deformidad visible?", Priority: entities.PriorityVeryUrgent},
		}},
	)

	reg := registry.NewMemoryRegistry()
	bus := events.NewMemoryEventBus()
	t.Cleanup(func() { _ = bus.Close() })
	model := classifier.NewKeywordClassifier(classifier.DefaultKeywordRules)

	triageSvc := services.NewTriageService(triage.NewEngine(catalog), model, reg, services.WithEventBus(bus))
	patientSvc := services.NewPatientService(reg, bus, adminKey)

	triageHandler := handlers.NewTriageHandler(triageSvc, services.NewExplainService(model, time.Second))
	catalogHandler := handlers.NewCatalogHandler(services.NewCatalogService(catalog))
	patientHandler := handlers.NewPatientHandler(patientSvc)
	sseHandler := handlers.NewSSEHandler(patientSvc)
	healthHandler := handlers.NewHealthHandler(nil)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", healthHandler.Health)
	mux.HandleFunc("GET /categorias", catalogHandler.ListCategories)
	mux.HandleFunc("GET /preguntas/{categoria}", catalogHandler.ListQuestions)
	mux.HandleFunc("POST /triaje", triageHandler.Triage)
	mux.HandleFunc("POST /explicar", triageHandler.Explain)
	mux.HandleFunc("GET /pacientes", patientHandler.ListPatients)
	mux.HandleFunc("DELETE /pacientes", patientHandler.ClearPatients)
	mux.HandleFunc("GET /pacientes/stream", sseHandler.StreamPatients)

	return &testServer{mux: mux, registry: reg, bus: bus}
}

func (s *testServer) do(method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, req)
	return rec
}

const stableBody = `{
	"nombre": "Ana", "edad": 40,
	"temp": 36.8, "pas": 120, "pad": 85, "frecuencia_cardiaca": 75, "oxigeno": 98,
	"descripcion": "resfriado con mocos"
}`

func TestCatalogEndpoints(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/categorias", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `["respiratorio","trauma"]`, rec.Body.String())

	rec = s.do(http.MethodGet, "/preguntas/respiratorio", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"clave":"disnea","pregunta":"¿Dificultad para respirar?","prioridad":1}]`, rec.Body.String())

	rec = s.do(http.MethodGet, "/preguntas/oftalmologia", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestTriage_StablePatient(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/triaje", stableBody, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, entities.PriorityNonUrgent.Label(), resp["prioridad"])
	assert.Equal(t, entities.PriorityNonUrgent.Label(), resp["prioridad_ia"])
	assert.Equal(t, false, resp["detener"])
}

func TestTriage_EmergencyWithAnswers(t *testing.T) {
	s := newTestServer(t)

	body := `{
		"nombre": "Luis", "edad": 70,
		"temp": 36.5, "pas": 120, "pad": 85, "frecuencia_cardiaca": 75, "oxigeno": 70,
		"descripcion": "le cuesta respirar",
		"categoria": "respiratorio", "respuestas": {"disnea": "si"}
	}`
	rec := s.do(http.MethodPost, "/triaje", body, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, entities.PriorityImmediate.Label(), resp["prioridad"])
	assert.Equal(t, true, resp["detener"])

	records, err := s.registry.List(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Luis_70", records[0].Key)
	assert.Equal(t, []string{"¿Dificultad para respirar?"}, records[0].AffirmativeQuestions)
}

func TestTriage_ValidationErrorsListEveryProblem(t *testing.T) {
	s := newTestServer(t)

	body := `{"nombre": "", "edad": 200, "temp": 36.8, "pas": 120, "pad": 85, "frecuencia_cardiaca": 75, "oxigeno": 98}`
	rec := s.do(http.MethodPost, "/triaje", body, nil)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var resp struct {
		Detail []string `json:"detail"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.ElementsMatch(t, []string{triage.MsgInvalidName, triage.MsgAgeOutOfRange}, resp.Detail)

	records, _ := s.registry.List(context.Background())
	assert.Empty(t, records)
}

func TestTriage_MalformedJSON(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/triaje", `{"nombre": "Ana",`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTriage_WrongFieldType(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/triaje", `{"nombre": "Ana", "edad": "cuarenta"}`, nil)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "edad")
}

func TestPatients_ListAfterTriage(t *testing.T) {
	s := newTestServer(t)

	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/triaje", stableBody, nil).Code)

	rec := s.do(http.MethodGet, "/pacientes", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Patients []map[string]interface{} `json:"pacientes"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Patients, 1)

	p := resp.Patients[0]
	assert.Equal(t, "Ana", p["nombre"])
	assert.Equal(t, "120/85", p["presion_arterial"])
	assert.Equal(t, "Prioridad 5", p["prioridad_ia_str"])
	assert.Equal(t, entities.EmergencyCategory, p["categoria"])
}

func TestPatients_ListEmpty(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/pacientes", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"pacientes":[]}`, rec.Body.String())
}

func TestPatients_Clear(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/triaje", stableBody, nil).Code)

	rec := s.do(http.MethodDelete, "/pacientes", "", map[string]string{handlers.APIKeyHeader: "wrong"})
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"detail":"Clave no válida"}`, rec.Body.String())

	rec = s.do(http.MethodDelete, "/pacientes", "", nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	records, _ := s.registry.List(context.Background())
	assert.Len(t, records, 1)

	rec = s.do(http.MethodDelete, "/pacientes", "", map[string]string{handlers.APIKeyHeader: adminKey})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"mensaje":"Todos los pacientes han sido eliminados"}`, rec.Body.String())

	records, _ = s.registry.List(context.Background())
	assert.Empty(t, records)
}

func TestExplain(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/explicar", `{"descripcion": "dolor en el pecho"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Description string `json:"descripcion"`
		Prediction  int    `json:"prediccion"`
		Tokens      []struct {
			Token string  `json:"token"`
			Shap  float64 `json:"shap"`
		} `json:"shap_texto"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "dolor en el pecho", resp.Description)
	assert.Equal(t, 1, resp.Prediction)
	require.Len(t, resp.Tokens, 4)
	assert.Equal(t, "pecho", resp.Tokens[3].Token)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","dependencies":{}}`, rec.Body.String())
}

func TestHealth_Degraded(t *testing.T) {
	h := handlers.NewHealthHandler(map[string]handlers.Pinger{
		"redis": handlers.PingFunc(func(ctx context.Context) error { return errors.New("refused") }),
	})

	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"degraded","dependencies":{"redis":"unavailable"}}`, rec.Body.String())
}

func TestStreamPatients_ReceivesUpserts(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.mux)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/pacientes/stream", nil)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := make(chan string, 16)
	go func() {
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	waitFor := func(prefix string) string {
		t.Helper()
		timeout := time.After(2 * time.Second)
		for {
			select {
			case line, ok := <-lines:
				require.True(t, ok, "stream closed before %q", prefix)
				if strings.HasPrefix(line, prefix) {
					return line
				}
			case <-timeout:
				t.Fatalf("timed out waiting for %q", prefix)
			}
		}
	}

	waitFor("event: connected")

	post, err := http.Post(srv.URL+"/triaje", "application/json", strings.NewReader(stableBody))
	require.NoError(t, err)
	post.Body.Close()
	require.Equal(t, http.StatusOK, post.StatusCode)

	waitFor("event: " + string(entities.TriageEventPatientUpserted))
	data := waitFor("data: ")
	assert.Contains(t, data, `"clave":"Ana_40"`)
}
