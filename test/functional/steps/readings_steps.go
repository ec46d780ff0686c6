package steps

import (
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/cucumber/godog"
)

func (fc *FeatureContext) theDeviceHasSentTheReading(body *godog.DocString) error {
	if err := fc.theDeviceSendsTheReading(body); err != nil {
		return err
	}
	fc.require.Equal(200, fc.response.StatusCode, "reading should be accepted, body: %s", fc.responseBody)
	return nil
}

func (fc *FeatureContext) theDeviceSendsTheReading(body *godog.DocString) error {
	return fc.keep(fc.apiDriver.UpdateReadings(body.Content))
}

func (fc *FeatureContext) theDeviceSendsAnEmptyBody() error {
	return fc.keep(fc.apiDriver.UpdateReadings(""))
}

func (fc *FeatureContext) iOpenTheReadingsPage() error {
	return fc.keep(fc.apiDriver.GetHome())
}

func (fc *FeatureContext) iRequestTheCurrentReadings() error {
	return fc.keep(fc.apiDriver.GetReadings())
}

func (fc *FeatureContext) thePageShouldShowAs(field, value string) error {
	pattern := regexp.MustCompile(fmt.Sprintf(`id="%s"[^>]*>%s<`, regexp.QuoteMeta(field), regexp.QuoteMeta(value)))
	fc.require.Regexp(pattern, string(fc.responseBody))
	return nil
}

func (fc *FeatureContext) theCurrentReadingsShouldBe(expected *godog.DocString) error {
	if err := fc.iRequestTheCurrentReadings(); err != nil {
		return err
	}
	fc.require.Equal(200, fc.response.StatusCode)
	fc.require.JSONEq(expected.Content, string(fc.responseBody))
	return nil
}

type feedMessage struct {
	Type string             `json:"type"`
	Data map[string]float64 `json:"data"`
}

func (fc *FeatureContext) iConnectToTheReadingsFeed() error {
	conn, err := fc.apiDriver.ConnectReadingsFeed()
	if err != nil {
		return err
	}
	fc.wsConn = conn
	return nil
}

// theFeedShouldDeliverAReadingWith reads feed messages until one matches or
// the read deadline passes.
func (fc *FeatureContext) theFeedShouldDeliverAReadingWith(field string, value float64) error {
	fc.require.NotNil(fc.wsConn, "websocket connection not established")
	fc.wsConn.SetReadDeadline(timeoutFromNow())

	for {
		_, raw, err := fc.wsConn.ReadMessage()
		if err != nil {
			return fmt.Errorf("no reading with %s=%v received: %w", field, value, err)
		}

		var message feedMessage
		if err := json.Unmarshal(raw, &message); err != nil {
			continue
		}
		if message.Type == "sensor_readings" && message.Data[field] == value {
			return nil
		}
	}
}
