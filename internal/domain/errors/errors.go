package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType은 에러의 종류를 나타냅니다
type ErrorType string

const (
	// ErrorTypeValidation은 유효성 검증 실패를 나타냅니다
	ErrorTypeValidation ErrorType = "VALIDATION"

	// ErrorTypeNotFound는 리소스를 찾을 수 없음을 나타냅니다
	ErrorTypeNotFound ErrorType = "NOT_FOUND"

	// ErrorTypeConflict는 충돌이 발생했음을 나타냅니다 (예: 중복 MAC)
	ErrorTypeConflict ErrorType = "CONFLICT"

	// ErrorTypeAmbiguous는 매칭 결과가 하나로 좁혀지지 않음을 나타냅니다
	ErrorTypeAmbiguous ErrorType = "AMBIGUOUS"

	// ErrorTypeBusy는 디바이스가 사용 중이어서 안전하게 내릴 수 없음을 나타냅니다
	ErrorTypeBusy ErrorType = "BUSY"

	// ErrorTypeSystem은 시스템 레벨 에러를 나타냅니다
	ErrorTypeSystem ErrorType = "SYSTEM"

	// ErrorTypeNetwork는 네트워크 관련 에러를 나타냅니다
	ErrorTypeNetwork ErrorType = "NETWORK"

	// ErrorTypeTimeout은 타임아웃 에러를 나타냅니다
	ErrorTypeTimeout ErrorType = "TIMEOUT"
)

// DomainError는 도메인 레벨의 에러를 나타냅니다
type DomainError struct {
	Type    ErrorType
	Message string
	Cause   error
}

// Error는 error 인터페이스를 구현합니다
func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap은 내부 에러를 반환합니다
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is는 에러 비교를 위한 메서드입니다
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// 생성자 함수들

// NewValidationError는 유효성 검증 에러를 생성합니다
func NewValidationError(message string, cause error) *DomainError {
	return &DomainError{
		Type:    ErrorTypeValidation,
		Message: message,
		Cause:   cause,
	}
}

// NewNotFoundError는 리소스를 찾을 수 없는 에러를 생성합니다
func NewNotFoundError(message string) *DomainError {
	return &DomainError{
		Type:    ErrorTypeNotFound,
		Message: message,
	}
}

// NewConflictError는 충돌 에러를 생성합니다
func NewConflictError(message string) *DomainError {
	return &DomainError{
		Type:    ErrorTypeConflict,
		Message: message,
	}
}

// NewAmbiguousError는 매칭 모호성 에러를 생성합니다
func NewAmbiguousError(message string) *DomainError {
	return &DomainError{
		Type:    ErrorTypeAmbiguous,
		Message: message,
	}
}

// NewBusyError는 디바이스 사용 중 에러를 생성합니다
func NewBusyError(message string) *DomainError {
	return &DomainError{
		Type:    ErrorTypeBusy,
		Message: message,
	}
}

// NewSystemError는 시스템 에러를 생성합니다
func NewSystemError(message string, cause error) *DomainError {
	return &DomainError{
		Type:    ErrorTypeSystem,
		Message: message,
		Cause:   cause,
	}
}

// NewNetworkError는 네트워크 관련 에러를 생성합니다
func NewNetworkError(message string, cause error) *DomainError {
	return &DomainError{
		Type:    ErrorTypeNetwork,
		Message: message,
		Cause:   cause,
	}
}

// NewTimeoutError는 타임아웃 에러를 생성합니다
func NewTimeoutError(message string) *DomainError {
	return &DomainError{
		Type:    ErrorTypeTimeout,
		Message: message,
	}
}

// 에러 타입 확인 헬퍼 함수들

// IsValidationError는 유효성 검증 에러인지 확인합니다
func IsValidationError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == ErrorTypeValidation
	}
	return false
}

// IsNotFoundError는 리소스를 찾을 수 없는 에러인지 확인합니다
func IsNotFoundError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == ErrorTypeNotFound
	}
	return false
}

// IsConflictError는 충돌 에러인지 확인합니다
func IsConflictError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == ErrorTypeConflict
	}
	return false
}

// IsAmbiguousError는 매칭 모호성 에러인지 확인합니다
func IsAmbiguousError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == ErrorTypeAmbiguous
	}
	return false
}

// IsBusyError는 디바이스 사용 중 에러인지 확인합니다
func IsBusyError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == ErrorTypeBusy
	}
	return false
}

// IsSystemError는 시스템 에러인지 확인합니다
func IsSystemError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == ErrorTypeSystem
	}
	return false
}

// IsNetworkError는 네트워크 에러인지 확인합니다
func IsNetworkError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == ErrorTypeNetwork
	}
	return false
}

// IsTimeoutError는 타임아웃 에러인지 확인합니다
func IsTimeoutError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == ErrorTypeTimeout
	}
	return false
}

// DHCP 리스 획득 실패 계열 센티널 에러들.
// errors.Is(err, ErrNoLease)로 계열 전체를 판별할 수 있습니다.
var (
	ErrNoLease          = errors.New("DHCP 리스를 획득하지 못함")
	ErrNoInterface      = fmt.Errorf("%w: 대상 인터페이스 없음", ErrNoLease)
	ErrNoClientBinary   = fmt.Errorf("%w: dhclient 바이너리 없음", ErrNoLease)
	ErrInvalidLeaseFile = fmt.Errorf("%w: 리스 파일 파싱 불가", ErrNoLease)
	ErrLeaseTimeout     = fmt.Errorf("%w: 대기 시간 초과", ErrNoLease)
)

// IsNoLeaseError는 리스 획득 실패 계열 에러인지 확인합니다
func IsNoLeaseError(err error) bool {
	return errors.Is(err, ErrNoLease)
}

// PartialRenameError는 이름 변경 배치에서 누적된 대상별 실패를 담습니다.
// 배치는 중간에 멈추지 않으므로 메시지가 여러 개일 수 있습니다.
type PartialRenameError struct {
	Messages []string
}

// Error는 누적된 메시지를 한 줄씩 합쳐 반환합니다
func (e *PartialRenameError) Error() string {
	return strings.Join(e.Messages, "\n")
}

// NewPartialRenameError는 새로운 PartialRenameError를 생성합니다
func NewPartialRenameError(messages []string) *PartialRenameError {
	return &PartialRenameError{Messages: messages}
}
