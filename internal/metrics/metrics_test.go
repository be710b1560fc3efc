package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, op, outcome string) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, LoanOperations.WithLabelValues(op, outcome).Write(&m))
	return m.GetCounter().GetValue()
}

func TestRecordLoanOp(t *testing.T) {
	before := counterValue(t, "borrow", "ok")
	RecordLoanOp("borrow", "ok")
	RecordLoanOp("borrow", "ok")
	assert.Equal(t, before+2, counterValue(t, "borrow", "ok"))
}

func TestHandler_ExposesLoanMetrics(t *testing.T) {
	RecordLoanOp("return", "ok")
	FinesAssessed.Observe(1.5)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "bookbuddy_loan_operations_total"))
	assert.True(t, strings.Contains(body, "bookbuddy_fines_assessed_dollars_bucket"))
}
