package steps

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"telemetry-server/test/functional/driver"

	"github.com/cucumber/godog"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

type FeatureContext struct {
	apiDriver    *driver.APIDriver
	response     *http.Response
	responseBody []byte
	responseData map[string]any
	wsConn       *websocket.Conn
	require      *require.Assertions
	t            godog.TestingT
}

func NewFeatureContext(baseURL string) *FeatureContext {
	return &FeatureContext{
		apiDriver: driver.NewAPIDriver(baseURL),
	}
}

func (fc *FeatureContext) RegisterSteps(ctx *godog.ScenarioContext) {
	// Generic steps
	ctx.Step(`^wait for (.*)$`, fc.waitForDuration)
	ctx.Then(`^the response status code should be (\d+)$`, fc.theResponseStatusCodeShouldBe)
	ctx.Then(`^the response detail should be "([^"]*)"$`, fc.theResponseDetailShouldBe)
	ctx.Then(`^the response errors should contain "([^"]*)"$`, fc.theResponseErrorsShouldContain)

	// Readings steps
	ctx.Given(`^the device has sent the reading:$`, fc.theDeviceHasSentTheReading)
	ctx.When(`^the device sends the reading:$`, fc.theDeviceSendsTheReading)
	ctx.When(`^the device sends an empty body$`, fc.theDeviceSendsAnEmptyBody)
	ctx.When(`^I open the readings page$`, fc.iOpenTheReadingsPage)
	ctx.When(`^I request the current readings$`, fc.iRequestTheCurrentReadings)
	ctx.Then(`^the page should show "([^"]*)" as "([^"]*)"$`, fc.thePageShouldShowAs)
	ctx.Then(`^the current readings should be:$`, fc.theCurrentReadingsShouldBe)

	// Live feed steps
	ctx.When(`^I connect to the readings feed$`, fc.iConnectToTheReadingsFeed)
	ctx.Then(`^the feed should deliver a reading with "([^"]*)" equal to ([-0-9.]+)$`, fc.theFeedShouldDeliverAReadingWith)

	// Health steps
	ctx.When(`^I call the healthz endpoint$`, fc.iCallTheHealthzEndpoint)
	ctx.Then(`^the response should contain status information$`, fc.theResponseShouldContainStatusInformation)
	ctx.When(`^I scrape the metrics endpoint$`, fc.iScrapeTheMetricsEndpoint)
	ctx.Then(`^the metrics should include "([^"]*)"$`, fc.theMetricsShouldInclude)

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		fc.t = godog.T(ctx)
		fc.require = require.New(fc.t)

		fc.reset()
		return ctx, nil
	})

	ctx.After(func(ctx context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		fc.cleanupWebSocket()
		return ctx, err
	})
}

func (fc *FeatureContext) reset() {
	fc.response = nil
	fc.responseBody = nil
	fc.responseData = nil
}

// keep reads and closes the response so later steps can inspect the body
// more than once.
func (fc *FeatureContext) keep(response *http.Response, err error) error {
	if err != nil {
		return err
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return err
	}

	fc.response = response
	fc.responseBody = body
	fc.responseData = nil
	return nil
}

func (fc *FeatureContext) decodeJSON() map[string]any {
	if fc.responseData == nil {
		fc.require.NoError(json.Unmarshal(fc.responseBody, &fc.responseData), "response should be a JSON object")
	}
	return fc.responseData
}

func (fc *FeatureContext) cleanupWebSocket() {
	if fc.wsConn != nil {
		fc.wsConn.Close()
		fc.wsConn = nil
	}
}
