package config

import (
	"fmt"

	"github.com/AlecAivazis/survey/v2"
)

// Wizard runs a step by step prompt sequence to build a Config for
// first-time connection setup, the way the teacher's WizardSurvey
// builds an FMSConfig: one focused survey.AskOne per field, defaults
// pulled from whatever base config is passed in.
func Wizard(base Config) (Config, error) {
	c := base
	if c.MatchDurations == (MatchDurations{}) {
		c.MatchDurations = DefaultMatchDurations()
	}
	if c.WatchdogTimeout == 0 {
		c.WatchdogTimeout = DefaultConfig().WatchdogTimeout
	}
	if c.DiscoveryWindow == 0 {
		c.DiscoveryWindow = DefaultConfig().DiscoveryWindow
	}
	if c.SendInterval == 0 {
		c.SendInterval = DefaultConfig().SendInterval
	}
	if c.BatteryCriticalVolts == 0 && c.BatteryWarningVolts == 0 {
		d := DefaultConfig()
		c.BatteryCriticalVolts = d.BatteryCriticalVolts
		c.BatteryWarningVolts = d.BatteryWarningVolts
		c.AutoDisableOnCriticalBattery = d.AutoDisableOnCriticalBattery
	}

	mode := "Team number"
	if c.Mode == ModeDirect {
		mode = "Direct IP address"
	}
	modePrompt := &survey.Select{
		Message: "How is the robot addressed?",
		Options: []string{"Team number", "Direct IP address"},
		Default: mode,
	}
	if err := survey.AskOne(modePrompt, &mode); err != nil {
		return c, err
	}

	if mode == "Team number" {
		c.Mode = ModeTeam
		teamPrompt := &survey.Input{
			Message: "Team number",
			Default: fmt.Sprintf("%d", c.Team),
		}
		var teamStr string
		if err := survey.AskOne(teamPrompt, &teamStr, survey.WithValidator(survey.Required)); err != nil {
			return c, err
		}
		if _, err := fmt.Sscanf(teamStr, "%d", &c.Team); err != nil {
			return c, fmt.Errorf("bad team number: %s", teamStr)
		}
	} else {
		c.Mode = ModeDirect
		addrPrompt := &survey.Input{
			Message: "Robot IPv4 address",
			Default: c.DirectAddress,
		}
		if err := survey.AskOne(addrPrompt, &c.DirectAddress, survey.WithValidator(survey.Required)); err != nil {
			return c, err
		}
	}

	alliance := "Red"
	if c.Station.Alliance == 1 {
		alliance = "Blue"
	}
	alliancePrompt := &survey.Select{
		Message: "Alliance",
		Options: []string{"Red", "Blue"},
		Default: alliance,
	}
	if err := survey.AskOne(alliancePrompt, &alliance); err != nil {
		return c, err
	}
	if alliance == "Blue" {
		c.Station.Alliance = 1
	} else {
		c.Station.Alliance = 0
	}

	position := "1"
	if c.Station.Position != 0 {
		position = fmt.Sprintf("%d", c.Station.Position)
	}
	positionPrompt := &survey.Select{
		Message: "Station position",
		Options: []string{"1", "2", "3"},
		Default: position,
	}
	if err := survey.AskOne(positionPrompt, &position); err != nil {
		return c, err
	}
	fmt.Sscanf(position, "%d", &c.Station.Position)

	standalone := true
	standalonePrompt := &survey.Confirm{
		Message: "Run standalone (no field controller, use the built-in match clock)?",
		Default: c.FieldFeedBroker == "",
	}
	if err := survey.AskOne(standalonePrompt, &standalone); err != nil {
		return c, err
	}

	if standalone {
		c.FieldFeedBroker = ""
		c.MatchClockEnabled = true
	} else {
		brokerPrompt := &survey.Input{
			Message: "Field-control MQTT broker URL",
			Default: c.FieldFeedBroker,
		}
		if err := survey.AskOne(brokerPrompt, &c.FieldFeedBroker, survey.WithValidator(survey.Required)); err != nil {
			return c, err
		}
		c.MatchClockEnabled = false
	}

	if err := c.Validate(); err != nil {
		return c, err
	}
	return c, nil
}
