package metrics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProvider(t *testing.T) {
	provider, err := NewProvider("roleguard")
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, provider.Shutdown(context.Background()))
	}()

	assert.Equal(t, "roleguard", provider.Namespace())
	assert.NotNil(t, provider.MeterProvider())

	output := scrape(t, provider)
	assert.Contains(t, output, "go_goroutines")
	assert.Contains(t, output, "process_")
}

func TestProvider_Isolation(t *testing.T) {
	first, err := NewProvider("first")
	require.NoError(t, err)
	second, err := NewProvider("second")
	require.NoError(t, err)

	bm, err := NewBusinessMetrics(first.MeterProvider(), "first")
	require.NoError(t, err)
	bm.RecordOperation(context.Background(), "rbac", "authorize", "success")

	assert.Contains(t, scrape(t, first), "first_operations_total")
	assert.NotContains(t, scrape(t, second), "first_operations_total")
}

func TestProvider_Shutdown(t *testing.T) {
	provider, err := NewProvider("roleguard")
	require.NoError(t, err)
	assert.NoError(t, provider.Shutdown(context.Background()))

	assert.NoError(t, (&Provider{}).Shutdown(context.Background()))
}
