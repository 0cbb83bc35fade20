package config

import (
	"errors"
	"testing"

	"github.com/gizmo-platform/dstation/pkg/dserr"
)

func TestValidateTeamMode(t *testing.T) {
	cases := []struct {
		team    int
		wantErr error
	}{
		{0, dserr.ErrInvalidTeam},
		{1, nil},
		{9999, nil},
		{10000, dserr.ErrInvalidTeam},
		{-1, dserr.ErrInvalidTeam},
	}

	for _, c := range cases {
		cfg := Config{Mode: ModeTeam, Team: c.team}
		err := cfg.Validate()
		if !errors.Is(err, c.wantErr) && err != c.wantErr {
			t.Errorf("team=%d: got %v, want %v", c.team, err, c.wantErr)
		}
	}
}

func TestValidateDirectMode(t *testing.T) {
	cases := []struct {
		addr    string
		wantErr bool
	}{
		{"", true},
		{"not-an-ip", true},
		{"10.9.99.2", false},
		{"::1", true}, // IPv6 not accepted
	}

	for _, c := range cases {
		cfg := Config{Mode: ModeDirect, DirectAddress: c.addr}
		err := cfg.Validate()
		if (err != nil) != c.wantErr {
			t.Errorf("addr=%q: got err=%v, wantErr=%v", c.addr, err, c.wantErr)
		}
	}
}

func TestStationEncode(t *testing.T) {
	cases := []struct {
		s    Station
		want uint8
	}{
		{Station{Alliance: 0, Position: 1}, 0},
		{Station{Alliance: 0, Position: 3}, 2},
		{Station{Alliance: 1, Position: 1}, 3},
		{Station{Alliance: 1, Position: 3}, 5},
		{Station{}, 0},
	}
	for _, c := range cases {
		if got := c.s.Encode(); got != c.want {
			t.Errorf("Station%+v.Encode() = %d, want %d", c.s, got, c.want)
		}
	}
}
