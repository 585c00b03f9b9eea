package journey

import (
	"os"
	"testing"

	"github.com/FACorreiaa/go-family-journey/app/observability/metrics"
)

func TestMain(m *testing.M) {
	// Instruments come from the global no-op meter provider here.
	metrics.InitAppMetrics()
	os.Exit(m.Run())
}
