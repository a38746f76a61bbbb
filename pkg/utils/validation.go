package utils

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	// MAC 주소 패턴: 콜론 또는 하이픈 구분 6옥텟
	macPattern = regexp.MustCompile(`^([0-9A-Fa-f]{2}[:-]){5}([0-9A-Fa-f]{2})$`)
)

// ValidateMacAddress는 MAC 주소가 유효한지 검증
func ValidateMacAddress(mac string) error {
	if mac == "" {
		return fmt.Errorf("MAC 주소가 비어있음")
	}

	if !macPattern.MatchString(mac) {
		return fmt.Errorf("잘못된 MAC 주소 형식: %s", mac)
	}

	return nil
}

// ValidateInterfaceName은 인터페이스 이름이 커널 규칙에 맞는지 검증
func ValidateInterfaceName(name string) error {
	if name == "" {
		return fmt.Errorf("인터페이스 이름이 비어있음")
	}

	if len(name) > 15 {
		return fmt.Errorf("인터페이스 이름이 너무 김: %d자 (최대 15자)", len(name))
	}

	if name == "." || name == ".." || strings.ContainsAny(name, "/ \t\n") {
		return fmt.Errorf("잘못된 인터페이스 이름 형식: %s", name)
	}

	return nil
}

// NormalizeMac은 MAC 주소를 소문자 콜론 표기로 정규화
func NormalizeMac(mac string) string {
	return strings.ToLower(strings.ReplaceAll(mac, "-", ":"))
}
