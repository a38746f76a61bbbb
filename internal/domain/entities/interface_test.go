package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenameTarget_Validate(t *testing.T) {
	tests := []struct {
		name      string
		target    RenameTarget
		wantError error
	}{
		{
			name:      "유효한 대상",
			target:    RenameTarget{Mac: "fa:16:3e:00:be:63", Name: "eth0"},
			wantError: nil,
		},
		{
			name:      "드라이버와 디바이스 ID까지 지정된 유효한 대상",
			target:    RenameTarget{Mac: "FA:16:3E:00:BE:63", Name: "ens3", Driver: "virtio_net", DeviceID: "0x0001"},
			wantError: nil,
		},
		{
			name:      "잘못된 MAC 형식",
			target:    RenameTarget{Mac: "not-a-mac", Name: "eth0"},
			wantError: ErrInvalidMacAddress,
		},
		{
			name:      "빈 MAC",
			target:    RenameTarget{Mac: "", Name: "eth0"},
			wantError: ErrInvalidMacAddress,
		},
		{
			name:      "빈 인터페이스 이름",
			target:    RenameTarget{Mac: "fa:16:3e:00:be:63", Name: ""},
			wantError: ErrInvalidInterfaceName,
		},
		{
			name:      "15자를 넘는 인터페이스 이름",
			target:    RenameTarget{Mac: "fa:16:3e:00:be:63", Name: "verylongname0123"},
			wantError: ErrInvalidInterfaceName,
		},
		{
			name:      "공백이 포함된 인터페이스 이름",
			target:    RenameTarget{Mac: "fa:16:3e:00:be:63", Name: "eth 0"},
			wantError: ErrInvalidInterfaceName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.target.Validate()
			if tt.wantError != nil {
				assert.ErrorIs(t, err, tt.wantError)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRenameTarget_NormalizedMac(t *testing.T) {
	target := RenameTarget{Mac: "FA:16:3E:00:BE:63", Name: "eth0"}
	assert.Equal(t, "fa:16:3e:00:be:63", target.NormalizedMac())
}

func TestDeviceState_CanDown(t *testing.T) {
	boolPtr := func(v bool) *bool { return &v }

	tests := []struct {
		name     string
		downable *bool
		expected bool
	}{
		{name: "내릴 수 있음", downable: boolPtr(true), expected: true},
		{name: "내릴 수 없음", downable: boolPtr(false), expected: false},
		{name: "판단 불가는 불가로 간주", downable: nil, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := DeviceState{Downable: tt.downable}
			assert.Equal(t, tt.expected, state.CanDown())
		})
	}
}
