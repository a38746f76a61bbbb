package usecases

import (
	"context"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/canonical/cloud-init-sub001/internal/domain/entities"
	domainErrors "github.com/canonical/cloud-init-sub001/internal/domain/errors"
	"github.com/canonical/cloud-init-sub001/internal/domain/services"
)

// Mock 구현체들

type MockDeviceInventory struct {
	mock.Mock
}

func (m *MockDeviceInventory) ListInterfaces(ctx context.Context) ([]entities.InterfaceRecord, error) {
	args := m.Called(ctx)
	return args.Get(0).([]entities.InterfaceRecord), args.Error(1)
}

func (m *MockDeviceInventory) InterfacesByMAC(ctx context.Context) (map[string]string, error) {
	args := m.Called(ctx)
	return args.Get(0).(map[string]string), args.Error(1)
}

func (m *MockDeviceInventory) IsUp(name string) bool {
	args := m.Called(name)
	return args.Bool(0)
}

type MockRenameTargetSource struct {
	mock.Mock
}

func (m *MockRenameTargetSource) Targets() ([]entities.RenameTarget, error) {
	args := m.Called()
	return args.Get(0).([]entities.RenameTarget), args.Error(1)
}

type MockLinkManager struct {
	mock.Mock
}

func (m *MockLinkManager) SetLinkUp(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}

func (m *MockLinkManager) SetLinkDown(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}

func (m *MockLinkManager) RenameLink(ctx context.Context, current, newName string) error {
	args := m.Called(ctx, current, newName)
	return args.Error(0)
}

func (m *MockLinkManager) AddressedInterfaceNames(ctx context.Context) (map[string]struct{}, error) {
	args := m.Called(ctx)
	return args.Get(0).(map[string]struct{}), args.Error(1)
}

func newApplyRenamesUseCaseForTest(
	inventory *MockDeviceInventory,
	source *MockRenameTargetSource,
	link *MockLinkManager,
) *ApplyRenamesUseCase {
	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel)
	return NewApplyRenamesUseCase(inventory, source, link, services.NewRenamePlanner(), logger)
}

func TestApplyRenamesUseCase_Execute(t *testing.T) {
	tests := []struct {
		name           string
		input          ApplyRenamesInput
		setupMocks     func(*MockDeviceInventory, *MockRenameTargetSource, *MockLinkManager)
		expectedOutput *ApplyRenamesOutput
	}{
		{
			name:  "이름 변경 대상이 없으면 아무것도 하지 않음",
			input: ApplyRenamesInput{},
			setupMocks: func(inventory *MockDeviceInventory, source *MockRenameTargetSource, link *MockLinkManager) {
				source.On("Targets").Return([]entities.RenameTarget{}, nil)
			},
			expectedOutput: &ApplyRenamesOutput{},
		},
		{
			name:  "내려간 인터페이스는 바로 이름 변경",
			input: ApplyRenamesInput{},
			setupMocks: func(inventory *MockDeviceInventory, source *MockRenameTargetSource, link *MockLinkManager) {
				source.On("Targets").Return([]entities.RenameTarget{
					{Mac: "00:11:22:33:44:aa", Name: "eth0"},
				}, nil)
				inventory.On("ListInterfaces", mock.Anything).Return([]entities.InterfaceRecord{
					{Name: "ens3", Mac: "00:11:22:33:44:aa"},
				}, nil)
				inventory.On("IsUp", "ens3").Return(false)
				link.On("AddressedInterfaceNames", mock.Anything).Return(map[string]struct{}{}, nil)
				link.On("RenameLink", mock.Anything, "ens3", "eth0").Return(nil)
			},
			expectedOutput: &ApplyRenamesOutput{
				TargetCount: 1,
				PlannedOps:  1,
				ExecutedOps: 1,
			},
		},
		{
			name:  "올라온 인터페이스는 내렸다가 새 이름으로 올림",
			input: ApplyRenamesInput{},
			setupMocks: func(inventory *MockDeviceInventory, source *MockRenameTargetSource, link *MockLinkManager) {
				source.On("Targets").Return([]entities.RenameTarget{
					{Mac: "00:11:22:33:44:aa", Name: "eth0"},
				}, nil)
				inventory.On("ListInterfaces", mock.Anything).Return([]entities.InterfaceRecord{
					{Name: "ens3", Mac: "00:11:22:33:44:aa"},
				}, nil)
				inventory.On("IsUp", "ens3").Return(true)
				// 영구 주소가 없으므로 내릴 수 있습니다
				link.On("AddressedInterfaceNames", mock.Anything).Return(map[string]struct{}{}, nil)
				link.On("SetLinkDown", mock.Anything, "ens3").Return(nil)
				link.On("RenameLink", mock.Anything, "ens3", "eth0").Return(nil)
				link.On("SetLinkUp", mock.Anything, "eth0").Return(nil)
			},
			expectedOutput: &ApplyRenamesOutput{
				TargetCount: 1,
				PlannedOps:  3,
				ExecutedOps: 3,
			},
		},
		{
			name:  "이미 원하는 이름이면 연산 없음",
			input: ApplyRenamesInput{},
			setupMocks: func(inventory *MockDeviceInventory, source *MockRenameTargetSource, link *MockLinkManager) {
				source.On("Targets").Return([]entities.RenameTarget{
					{Mac: "00:11:22:33:44:aa", Name: "eth0"},
				}, nil)
				inventory.On("ListInterfaces", mock.Anything).Return([]entities.InterfaceRecord{
					{Name: "eth0", Mac: "00:11:22:33:44:aa"},
				}, nil)
				inventory.On("IsUp", "eth0").Return(false)
				link.On("AddressedInterfaceNames", mock.Anything).Return(map[string]struct{}{}, nil)
			},
			expectedOutput: &ApplyRenamesOutput{
				TargetCount: 1,
			},
		},
		{
			name:  "점유된 이름은 임시 이름을 거쳐 해소",
			input: ApplyRenamesInput{},
			setupMocks: func(inventory *MockDeviceInventory, source *MockRenameTargetSource, link *MockLinkManager) {
				// eth0이 eth1로 가야 하는데 eth1 자리는 다른 디바이스가 점유 중이고,
				// 그 디바이스의 최종 이름은 eth2입니다
				source.On("Targets").Return([]entities.RenameTarget{
					{Mac: "00:11:22:33:44:aa", Name: "eth1"},
					{Mac: "00:11:22:33:44:bb", Name: "eth2"},
				}, nil)
				inventory.On("ListInterfaces", mock.Anything).Return([]entities.InterfaceRecord{
					{Name: "eth0", Mac: "00:11:22:33:44:aa"},
					{Name: "eth1", Mac: "00:11:22:33:44:bb"},
				}, nil)
				inventory.On("IsUp", "eth0").Return(false)
				inventory.On("IsUp", "eth1").Return(false)
				link.On("AddressedInterfaceNames", mock.Anything).Return(map[string]struct{}{}, nil)
				link.On("RenameLink", mock.Anything, "eth1", "cirename0").Return(nil)
				link.On("RenameLink", mock.Anything, "eth0", "eth1").Return(nil)
				link.On("RenameLink", mock.Anything, "cirename0", "eth2").Return(nil)
			},
			expectedOutput: &ApplyRenamesOutput{
				TargetCount: 2,
				PlannedOps:  3,
				ExecutedOps: 3,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockInventory := new(MockDeviceInventory)
			mockSource := new(MockRenameTargetSource)
			mockLink := new(MockLinkManager)
			tt.setupMocks(mockInventory, mockSource, mockLink)

			useCase := newApplyRenamesUseCaseForTest(mockInventory, mockSource, mockLink)
			result, err := useCase.Execute(context.Background(), tt.input)

			assert.NoError(t, err)
			require.NotNil(t, result)
			assert.Equal(t, tt.expectedOutput.TargetCount, result.TargetCount)
			assert.Equal(t, tt.expectedOutput.PlannedOps, result.PlannedOps)
			assert.Equal(t, tt.expectedOutput.ExecutedOps, result.ExecutedOps)
			assert.Equal(t, tt.expectedOutput.FailedOps, result.FailedOps)

			mockInventory.AssertExpectations(t)
			mockSource.AssertExpectations(t)
			mockLink.AssertExpectations(t)
		})
	}
}

func TestApplyRenamesUseCase_PartialFailures(t *testing.T) {
	tests := []struct {
		name            string
		input           ApplyRenamesInput
		setupMocks      func(*MockDeviceInventory, *MockRenameTargetSource, *MockLinkManager)
		expectedOutput  *ApplyRenamesOutput
		expectedMessage string
	}{
		{
			name:  "링크 연산 실패는 누적하고 계속 진행",
			input: ApplyRenamesInput{},
			setupMocks: func(inventory *MockDeviceInventory, source *MockRenameTargetSource, link *MockLinkManager) {
				source.On("Targets").Return([]entities.RenameTarget{
					{Mac: "00:11:22:33:44:aa", Name: "eth0"},
					{Mac: "00:11:22:33:44:bb", Name: "eth1"},
				}, nil)
				inventory.On("ListInterfaces", mock.Anything).Return([]entities.InterfaceRecord{
					{Name: "ens3", Mac: "00:11:22:33:44:aa"},
					{Name: "ens4", Mac: "00:11:22:33:44:bb"},
				}, nil)
				inventory.On("IsUp", "ens3").Return(false)
				inventory.On("IsUp", "ens4").Return(false)
				link.On("AddressedInterfaceNames", mock.Anything).Return(map[string]struct{}{}, nil)
				link.On("RenameLink", mock.Anything, "ens3", "eth0").Return(assert.AnError)
				link.On("RenameLink", mock.Anything, "ens4", "eth1").Return(nil)
			},
			expectedOutput: &ApplyRenamesOutput{
				TargetCount: 2,
				PlannedOps:  2,
				ExecutedOps: 1,
				FailedOps:   1,
			},
			expectedMessage: "[unknown] Error performing rename for mac=00:11:22:33:44:aa",
		},
		{
			name:  "없는 MAC은 strict 모드에서 보고",
			input: ApplyRenamesInput{StrictPresent: true},
			setupMocks: func(inventory *MockDeviceInventory, source *MockRenameTargetSource, link *MockLinkManager) {
				source.On("Targets").Return([]entities.RenameTarget{
					{Mac: "00:11:22:33:44:cc", Name: "eth5"},
				}, nil)
				inventory.On("ListInterfaces", mock.Anything).Return([]entities.InterfaceRecord{
					{Name: "ens3", Mac: "00:11:22:33:44:aa"},
				}, nil)
				inventory.On("IsUp", "ens3").Return(false)
				link.On("AddressedInterfaceNames", mock.Anything).Return(map[string]struct{}{}, nil)
			},
			expectedOutput: &ApplyRenamesOutput{
				TargetCount: 1,
			},
			expectedMessage: "[nic not present] Cannot rename mac=00:11:22:33:44:cc",
		},
		{
			name:  "영구 주소를 가진 디바이스는 strict 모드에서 보고",
			input: ApplyRenamesInput{StrictBusy: true},
			setupMocks: func(inventory *MockDeviceInventory, source *MockRenameTargetSource, link *MockLinkManager) {
				source.On("Targets").Return([]entities.RenameTarget{
					{Mac: "00:11:22:33:44:aa", Name: "eth0"},
				}, nil)
				inventory.On("ListInterfaces", mock.Anything).Return([]entities.InterfaceRecord{
					{Name: "ens3", Mac: "00:11:22:33:44:aa"},
				}, nil)
				inventory.On("IsUp", "ens3").Return(true)
				link.On("AddressedInterfaceNames", mock.Anything).Return(map[string]struct{}{
					"ens3": {},
				}, nil)
			},
			expectedOutput: &ApplyRenamesOutput{
				TargetCount: 1,
			},
			expectedMessage: "[busy] Error renaming mac=00:11:22:33:44:aa from ens3 to eth0",
		},
		{
			name:  "점유자가 사용 중이면 strict 모드에서 보고",
			input: ApplyRenamesInput{StrictBusy: true},
			setupMocks: func(inventory *MockDeviceInventory, source *MockRenameTargetSource, link *MockLinkManager) {
				source.On("Targets").Return([]entities.RenameTarget{
					{Mac: "00:11:22:33:44:aa", Name: "eth0"},
				}, nil)
				inventory.On("ListInterfaces", mock.Anything).Return([]entities.InterfaceRecord{
					{Name: "ens3", Mac: "00:11:22:33:44:aa"},
					{Name: "eth0", Mac: "00:11:22:33:44:bb"},
				}, nil)
				inventory.On("IsUp", "ens3").Return(false)
				inventory.On("IsUp", "eth0").Return(true)
				link.On("AddressedInterfaceNames", mock.Anything).Return(map[string]struct{}{
					"eth0": {},
				}, nil)
			},
			expectedOutput: &ApplyRenamesOutput{
				TargetCount: 1,
			},
			expectedMessage: "[busy target] Error renaming mac=00:11:22:33:44:aa from ens3 to eth0.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockInventory := new(MockDeviceInventory)
			mockSource := new(MockRenameTargetSource)
			mockLink := new(MockLinkManager)
			tt.setupMocks(mockInventory, mockSource, mockLink)

			useCase := newApplyRenamesUseCaseForTest(mockInventory, mockSource, mockLink)
			result, err := useCase.Execute(context.Background(), tt.input)

			require.NotNil(t, result)
			assert.Equal(t, tt.expectedOutput.TargetCount, result.TargetCount)
			assert.Equal(t, tt.expectedOutput.PlannedOps, result.PlannedOps)
			assert.Equal(t, tt.expectedOutput.ExecutedOps, result.ExecutedOps)
			assert.Equal(t, tt.expectedOutput.FailedOps, result.FailedOps)

			var partialErr *domainErrors.PartialRenameError
			require.ErrorAs(t, err, &partialErr)
			found := false
			for _, message := range partialErr.Messages {
				if strings.Contains(message, tt.expectedMessage) {
					found = true
				}
			}
			assert.True(t, found, "expected message %q in %v", tt.expectedMessage, partialErr.Messages)

			mockInventory.AssertExpectations(t)
			mockSource.AssertExpectations(t)
			mockLink.AssertExpectations(t)
		})
	}
}

func TestApplyRenamesUseCase_FatalErrors(t *testing.T) {
	tests := []struct {
		name       string
		setupMocks func(*MockDeviceInventory, *MockRenameTargetSource, *MockLinkManager)
		checkError func(*testing.T, error)
	}{
		{
			name: "매칭이 하나로 좁혀지지 않으면 전체 실패",
			setupMocks: func(inventory *MockDeviceInventory, source *MockRenameTargetSource, link *MockLinkManager) {
				source.On("Targets").Return([]entities.RenameTarget{
					{Mac: "00:11:22:33:44:aa", Name: "eth0"},
				}, nil)
				// 같은 MAC을 가진 디바이스가 둘이면 어떤 것을 바꿀지 결정할 수 없습니다
				inventory.On("ListInterfaces", mock.Anything).Return([]entities.InterfaceRecord{
					{Name: "ens3", Mac: "00:11:22:33:44:aa"},
					{Name: "ens4", Mac: "00:11:22:33:44:aa"},
				}, nil)
				inventory.On("IsUp", "ens3").Return(false)
				inventory.On("IsUp", "ens4").Return(false)
				link.On("AddressedInterfaceNames", mock.Anything).Return(map[string]struct{}{}, nil)
			},
			checkError: func(t *testing.T, err error) {
				assert.True(t, domainErrors.IsAmbiguousError(err))
			},
		},
		{
			name: "대상 조회 실패는 그대로 전파",
			setupMocks: func(inventory *MockDeviceInventory, source *MockRenameTargetSource, link *MockLinkManager) {
				source.On("Targets").Return([]entities.RenameTarget(nil),
					domainErrors.NewSystemError("네트워크 설정 파일 읽기 실패", assert.AnError))
			},
			checkError: func(t *testing.T, err error) {
				assert.True(t, domainErrors.IsSystemError(err))
			},
		},
		{
			name: "인벤토리 조회 실패는 그대로 전파",
			setupMocks: func(inventory *MockDeviceInventory, source *MockRenameTargetSource, link *MockLinkManager) {
				source.On("Targets").Return([]entities.RenameTarget{
					{Mac: "00:11:22:33:44:aa", Name: "eth0"},
				}, nil)
				inventory.On("ListInterfaces", mock.Anything).Return([]entities.InterfaceRecord(nil),
					domainErrors.NewSystemError("sysfs 조회 실패", assert.AnError))
			},
			checkError: func(t *testing.T, err error) {
				assert.True(t, domainErrors.IsSystemError(err))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockInventory := new(MockDeviceInventory)
			mockSource := new(MockRenameTargetSource)
			mockLink := new(MockLinkManager)
			tt.setupMocks(mockInventory, mockSource, mockLink)

			useCase := newApplyRenamesUseCaseForTest(mockInventory, mockSource, mockLink)
			result, err := useCase.Execute(context.Background(), ApplyRenamesInput{})

			assert.Nil(t, result)
			require.Error(t, err)
			tt.checkError(t, err)

			mockInventory.AssertExpectations(t)
			mockSource.AssertExpectations(t)
			mockLink.AssertExpectations(t)
		})
	}
}

// 주소 스크랩이 실패하면 올라온 디바이스의 downable을 판단할 수 없으므로
// 조용히 건너뛰어야 합니다 (strict 플래그가 없으면 메시지도 남기지 않음)
func TestApplyRenamesUseCase_AddressScrapeFailure(t *testing.T) {
	mockInventory := new(MockDeviceInventory)
	mockSource := new(MockRenameTargetSource)
	mockLink := new(MockLinkManager)

	mockSource.On("Targets").Return([]entities.RenameTarget{
		{Mac: "00:11:22:33:44:aa", Name: "eth0"},
	}, nil)
	mockInventory.On("ListInterfaces", mock.Anything).Return([]entities.InterfaceRecord{
		{Name: "ens3", Mac: "00:11:22:33:44:aa"},
	}, nil)
	mockInventory.On("IsUp", "ens3").Return(true)
	mockLink.On("AddressedInterfaceNames", mock.Anything).Return(map[string]struct{}(nil),
		domainErrors.NewNetworkError("ip 명령 실패", assert.AnError))

	useCase := newApplyRenamesUseCaseForTest(mockInventory, mockSource, mockLink)
	result, err := useCase.Execute(context.Background(), ApplyRenamesInput{})

	assert.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, 0, result.PlannedOps)
	mockLink.AssertNotCalled(t, "SetLinkDown", mock.Anything, mock.Anything)
	mockLink.AssertNotCalled(t, "RenameLink", mock.Anything, mock.Anything, mock.Anything)
}
