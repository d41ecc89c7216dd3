package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"

	"intake/internal/platform/metrics"
	"intake/internal/submission/formconfig"
	"intake/internal/submission/models"
	dErrors "intake/pkg/domain-errors"
	"intake/pkg/testutil"
)

const configsYAML = `
configs:
  - id: household-registration
    templateId: household-reg
    planDefinitions: [anc]
  - id: household-edit
    templateId: household-reg
    type: edit
`

type fakeFinder struct {
	resp *models.FormResponse
}

func (f fakeFinder) LatestResponse(_ context.Context, subject models.Reference, templateID string) (*models.FormResponse, error) {
	if subject == "" || templateID == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "subject and template are required")
	}
	if f.resp == nil || f.resp.Subject != subject {
		return nil, dErrors.New(dErrors.CodeNotFound, "no completed response")
	}
	return f.resp, nil
}

type OpsSuite struct {
	suite.Suite
	checks map[string]Pinger
	router http.Handler
}

func TestOpsSuite(t *testing.T) {
	suite.Run(t, new(OpsSuite))
}

func (s *OpsSuite) SetupTest() {
	configs, err := formconfig.Load(strings.NewReader(configsYAML))
	s.Require().NoError(err)

	resp := models.NewFormResponse("r1")
	resp.Subject = "Person/p1"
	resp.Status = models.StatusCompleted

	s.checks = map[string]Pinger{
		"store": PingFunc(func(context.Context) error { return nil }),
	}
	h := &opsHandler{
		configs:   configs,
		responses: fakeFinder{resp: resp},
		checks:    s.checks,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	s.router = newOpsRouter(h, metrics.New("test").Handler())
}

// =============================================================================
// Health and readiness
// =============================================================================

func (s *OpsSuite) TestHealth() {
	rr := testutil.DoRequest(s.router, http.MethodGet, "/healthz")
	s.Equal(http.StatusOK, rr.Code)
	s.NotEmpty(rr.Header().Get("X-Request-ID"))
}

func (s *OpsSuite) TestReadiness() {
	s.Run("all dependencies up", func() {
		rr := testutil.DoRequest(s.router, http.MethodGet, "/readyz")
		s.Equal(http.StatusOK, rr.Code)
		s.Equal(map[string]string{"store": "ok"}, testutil.UnmarshalResponse[map[string]string](s.T(), rr))
	})

	s.Run("one dependency down", func() {
		s.checks["kafka"] = PingFunc(func(context.Context) error { return errors.New("broker unreachable") })
		defer delete(s.checks, "kafka")

		rr := testutil.DoRequest(s.router, http.MethodGet, "/readyz")
		s.Equal(http.StatusServiceUnavailable, rr.Code)
		s.Equal(map[string]string{"store": "ok", "kafka": "unavailable"}, testutil.UnmarshalResponse[map[string]string](s.T(), rr))
	})
}

func (s *OpsSuite) TestMetricsEndpoint() {
	rr := testutil.DoRequest(s.router, http.MethodGet, "/metrics")
	s.Equal(http.StatusOK, rr.Code)
	s.Contains(rr.Body.String(), "intake_build_info")
}

// =============================================================================
// Introspection
// =============================================================================

func (s *OpsSuite) TestConfigs() {
	s.Run("lists ids", func() {
		rr := testutil.DoRequest(s.router, http.MethodGet, "/configs")
		s.Equal(http.StatusOK, rr.Code)
		got := testutil.UnmarshalResponse[map[string][]string](s.T(), rr)
		s.Equal([]string{"household-edit", "household-registration"}, got["configs"])
	})

	s.Run("returns one config", func() {
		rr := testutil.DoRequest(s.router, http.MethodGet, "/configs/household-registration")
		s.Equal(http.StatusOK, rr.Code)
		got := testutil.UnmarshalResponse[models.SubmissionConfig](s.T(), rr)
		s.Equal("household-reg", got.TemplateID)
		s.Equal(models.FormDefault, got.Type)
		s.Equal([]string{"anc"}, got.PlanDefinitions)
	})

	s.Run("unknown config is not found", func() {
		rr := testutil.DoRequest(s.router, http.MethodGet, "/configs/nope")
		testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, "not_found")
	})
}

func (s *OpsSuite) TestLatestResponse() {
	s.Run("found", func() {
		rr := testutil.DoRequest(s.router, http.MethodGet, "/responses/latest?subject=Person/p1&template=household-reg")
		s.Equal(http.StatusOK, rr.Code)
		got := testutil.UnmarshalResponse[models.FormResponse](s.T(), rr)
		s.Equal("r1", got.ID)
	})

	s.Run("missing parameters", func() {
		rr := testutil.DoRequest(s.router, http.MethodGet, "/responses/latest?subject=Person/p1")
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
	})

	s.Run("no completed response", func() {
		rr := testutil.DoRequest(s.router, http.MethodGet, "/responses/latest?subject=Person/p2&template=household-reg")
		testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, "not_found")
	})
}
