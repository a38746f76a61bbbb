package entities

import (
	"errors"
	"regexp"
	"strings"
)

// InterfaceRecord는 스냅샷 시점의 물리 네트워크 인터페이스를 나타내는 도메인 엔티티입니다.
// 새 스냅샷은 기존 스냅샷을 대체하며, 레코드 자체는 수정되지 않습니다
type InterfaceRecord struct {
	Name     string
	Mac      string // 소문자로 정규화된 MAC 주소
	Driver   string
	DeviceID string
}

// DeviceState는 이름 변경 계획 수립에 필요한 인터페이스의 라이브 상태입니다
type DeviceState struct {
	InterfaceRecord
	Up bool
	// Downable은 인터페이스가 자동 할당 주소만 가지고 있어 잠시 내려도 안전한지 여부입니다.
	// nil이면 판단할 수 없었음을 의미합니다
	Downable *bool
}

// CanDown은 인터페이스를 안전하게 내릴 수 있는지 확인합니다 (판단 불가는 불가로 간주)
func (d *DeviceState) CanDown() bool {
	return d.Downable != nil && *d.Downable
}

// RenameTarget은 하나의 물리 인터페이스가 도달해야 할 이름 상태입니다.
// 매칭은 MAC이 필수이며, Driver와 DeviceID는 지정된 경우에만 매칭을 좁힙니다
type RenameTarget struct {
	Mac      string
	Name     string
	Driver   string
	DeviceID string
}

var (
	ErrInvalidMacAddress    = errors.New("유효하지 않은 MAC 주소 형식")
	ErrInvalidInterfaceName = errors.New("유효하지 않은 인터페이스 이름")
)

// Validate는 RenameTarget의 유효성을 검증합니다
func (t *RenameTarget) Validate() error {
	if !isValidMacAddress(t.Mac) {
		return ErrInvalidMacAddress
	}
	if !isValidInterfaceName(t.Name) {
		return ErrInvalidInterfaceName
	}
	return nil
}

// NormalizedMac은 소문자로 정규화된 MAC 주소를 반환합니다
func (t *RenameTarget) NormalizedMac() string {
	return strings.ToLower(t.Mac)
}

// RenameOpKind는 이름 변경 연산의 종류를 나타냅니다
type RenameOpKind string

const (
	OpDown   RenameOpKind = "down"
	OpRename RenameOpKind = "rename"
	OpUp     RenameOpKind = "up"
)

// RenameOp는 이름 변경 계획의 단일 연산입니다.
// Mac과 TargetName은 연산을 만들어낸 대상의 정보로, 실패 메시지 작성에 사용됩니다
type RenameOp struct {
	Kind       RenameOpKind
	Mac        string
	TargetName string
	// Current는 연산이 조작할 현재 이름입니다 (down/up은 대상 이름, rename은 변경 전 이름)
	Current string
	// NewName은 rename 연산의 변경 후 이름입니다
	NewName string
}

// isValidMacAddress는 MAC 주소의 유효성을 검증합니다
func isValidMacAddress(mac string) bool {
	macRegex := regexp.MustCompile(`^([0-9A-Fa-f]{2}[:-]){5}([0-9A-Fa-f]{2})$`)
	return macRegex.MatchString(mac)
}

// isValidInterfaceName은 커널 규칙(IFNAMSIZ, 금지 문자)에 따라 이름을 검증합니다
func isValidInterfaceName(name string) bool {
	if name == "" || len(name) > 15 || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, "/ \t\n")
}
