package model

import "testing"

func TestRegistrationStatus_Transitions(t *testing.T) {
	cases := []struct {
		from, to RegistrationStatus
		want     bool
	}{
		{RegistrationActive, RegistrationDispatched, true},
		{RegistrationActive, RegistrationRemoved, true},
		{RegistrationDispatched, RegistrationActive, true}, // 返回名册
		{RegistrationDispatched, RegistrationRemoved, true},
		{RegistrationRemoved, RegistrationActive, false}, // 除名后不可复活
		{RegistrationRemoved, RegistrationDispatched, false},
		{RegistrationActive, RegistrationActive, false},
	}
	for _, c := range cases {
		if got := c.from.CanTransitionTo(c.to); got != c.want {
			t.Errorf("%s→%s 期望 %v，实际 %v", c.from, c.to, c.want, got)
		}
	}
}

func TestRequestStatus_TerminalStatesAreClosed(t *testing.T) {
	terminals := []RequestStatus{RequestFilled, RequestCancelled, RequestExpired}
	all := []RequestStatus{RequestOpen, RequestFilled, RequestCancelled, RequestExpired}

	for _, from := range terminals {
		if !from.Terminal() {
			t.Errorf("%s 应为终态", from)
		}
		for _, to := range all {
			if from.CanTransitionTo(to) {
				t.Errorf("终态 %s 不应允许流转到 %s", from, to)
			}
		}
	}
	if RequestOpen.Terminal() {
		t.Error("open 不应为终态")
	}
}

func TestDispatchStatus_Transitions(t *testing.T) {
	outcomes := []DispatchStatus{DispatchCompleted, DispatchQuit, DispatchDischarged, DispatchLaidOff}

	for _, to := range outcomes {
		if !DispatchActive.CanTransitionTo(to) {
			t.Errorf("active 应允许流转到 %s", to)
		}
	}

	// 任何终态之间不可互转，也不可回到 active
	for _, from := range outcomes {
		if !from.Terminal() {
			t.Errorf("%s 应为终态", from)
		}
		if from.CanTransitionTo(DispatchActive) {
			t.Errorf("终态 %s 不应回到 active", from)
		}
	}
}

func TestStatus_Valid(t *testing.T) {
	if RegistrationStatus("on_hold").Valid() {
		t.Error("未知登记状态不应通过校验")
	}
	if RequestStatus("pending").Valid() {
		t.Error("未知申请状态不应通过校验")
	}
	if DispatchStatus("paused").Valid() {
		t.Error("未知派工状态不应通过校验")
	}
	if DispatchType("temp").Valid() {
		t.Error("未知派工类型不应通过校验")
	}
}
