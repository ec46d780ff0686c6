package steps

import (
	"strings"
	"time"
)

const _feedTimeout = 5 * time.Second

func timeoutFromNow() time.Time {
	return time.Now().Add(_feedTimeout)
}

func (fc *FeatureContext) iCallTheHealthzEndpoint() error {
	return fc.keep(fc.apiDriver.GetHealthz())
}

func (fc *FeatureContext) theResponseShouldContainStatusInformation() error {
	data := fc.decodeJSON()

	fc.require.Contains(data, "status", "Status should be present")
	fc.require.Contains(data, "VERSION", "VERSION should be present")
	fc.require.Contains(data, "COMMIT_HASH", "COMMIT_HASH should be present")
	fc.require.Contains(data, "NODE_ID", "NODE_ID should be present")
	fc.require.Equal("success", data["status"], "Status should be 'success'")

	return nil
}

func (fc *FeatureContext) iScrapeTheMetricsEndpoint() error {
	return fc.keep(fc.apiDriver.GetMetrics())
}

func (fc *FeatureContext) theMetricsShouldInclude(name string) error {
	fc.require.True(strings.Contains(string(fc.responseBody), name), "metric %s should be exported", name)
	return nil
}
