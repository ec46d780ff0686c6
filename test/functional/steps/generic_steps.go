package steps

import (
	"time"
)

func (fc *FeatureContext) waitForDuration(duration string) error {
	d, err := time.ParseDuration(duration)
	if err != nil {
		return err
	}

	time.Sleep(d)
	return nil
}

func (fc *FeatureContext) theResponseStatusCodeShouldBe(code int) error {
	fc.require.Equal(code, fc.response.StatusCode, "Unexpected status code, body: %s", fc.responseBody)
	return nil
}

func (fc *FeatureContext) theResponseDetailShouldBe(detail string) error {
	fc.require.Equal(detail, fc.decodeJSON()["detail"])
	return nil
}

func (fc *FeatureContext) theResponseErrorsShouldContain(message string) error {
	errs, ok := fc.decodeJSON()["errors"].([]any)
	fc.require.True(ok, "errors should be a list")
	fc.require.Contains(errs, message)
	return nil
}
