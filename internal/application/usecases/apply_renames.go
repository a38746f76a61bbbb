package usecases

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/canonical/cloud-init-sub001/internal/domain/entities"
	"github.com/canonical/cloud-init-sub001/internal/domain/errors"
	"github.com/canonical/cloud-init-sub001/internal/domain/interfaces"
	"github.com/canonical/cloud-init-sub001/internal/domain/services"
	"github.com/canonical/cloud-init-sub001/internal/infrastructure/metrics"
)

// ApplyRenamesUseCase는 선언된 이름 변경 대상을 현재 장치 상태에 적용하는 유스케이스입니다.
// 계획 수립은 순수 도메인 서비스에 위임하고, 여기서는 스냅샷 수집과 연산 실행만 담당합니다
type ApplyRenamesUseCase struct {
	inventory    interfaces.DeviceInventory
	targetSource interfaces.RenameTargetSource
	linkManager  interfaces.LinkManager
	planner      *services.RenamePlanner
	logger       *logrus.Logger
}

// NewApplyRenamesUseCase는 새로운 ApplyRenamesUseCase를 생성합니다
func NewApplyRenamesUseCase(
	inventory interfaces.DeviceInventory,
	targetSource interfaces.RenameTargetSource,
	linkManager interfaces.LinkManager,
	planner *services.RenamePlanner,
	logger *logrus.Logger,
) *ApplyRenamesUseCase {
	return &ApplyRenamesUseCase{
		inventory:    inventory,
		targetSource: targetSource,
		linkManager:  linkManager,
		planner:      planner,
		logger:       logger,
	}
}

// ApplyRenamesInput은 유스케이스의 입력 파라미터입니다
type ApplyRenamesInput struct {
	// StrictPresent가 켜져 있으면 대상 MAC이 장치 목록에 없을 때 부분 실패로 보고합니다
	StrictPresent bool
	// StrictBusy가 켜져 있으면 장치가 사용 중이라 건너뛴 대상을 부분 실패로 보고합니다
	StrictBusy bool
}

// ApplyRenamesOutput은 유스케이스의 출력 결과입니다
type ApplyRenamesOutput struct {
	TargetCount int
	PlannedOps  int
	ExecutedOps int
	FailedOps   int
}

// Execute는 이름 변경 유스케이스를 실행합니다.
// 개별 연산 실패는 메시지로 누적하고 계속 진행하며, 누적된 메시지가 있으면
// PartialRenameError로 묶어 반환합니다. 매칭이 모호한 대상만 전체 실패를 일으킵니다
func (uc *ApplyRenamesUseCase) Execute(ctx context.Context, input ApplyRenamesInput) (*ApplyRenamesOutput, error) {
	// 1. 선언된 이름 변경 대상 로드
	targets, err := uc.targetSource.Targets()
	if err != nil {
		return nil, err
	}
	if len(targets) == 0 {
		uc.logger.Debug("이름 변경 대상 없음, 건너뜀")
		return &ApplyRenamesOutput{}, nil
	}

	uc.logger.WithField("target_count", len(targets)).Info("이름 변경 대상 발견")

	// 2. 현재 장치 상태 스냅샷 수집
	states, err := uc.snapshotDevices(ctx)
	if err != nil {
		return nil, err
	}

	// 3. 실행 계획 수립 (순수 계산, OS 접근 없음)
	plan, err := uc.planner.Plan(states, targets, input.StrictPresent, input.StrictBusy)
	if err != nil {
		metrics.RecordRename("failed")
		return nil, err
	}
	metrics.SetRenameOpsPlanned(float64(len(plan.Ops) + len(plan.Ups)))

	output := &ApplyRenamesOutput{
		TargetCount: len(targets),
		PlannedOps:  len(plan.Ops) + len(plan.Ups),
	}

	if plan.Empty() && len(plan.Messages) == 0 {
		uc.logger.Debug("모든 인터페이스가 이미 원하는 이름을 가짐")
		metrics.RecordRename("success")
		return output, nil
	}

	// 4. down/rename 연산을 생성 순서대로 먼저 실행하고, up 연산은 후행 배치로 실행
	messages := append([]string{}, plan.Messages...)
	for _, batch := range [][]entities.RenameOp{plan.Ops, plan.Ups} {
		for _, op := range batch {
			if err := uc.applyOp(ctx, op); err != nil {
				uc.logger.WithFields(logrus.Fields{
					"op":      string(op.Kind),
					"mac":     op.Mac,
					"current": op.Current,
					"error":   err,
				}).Error("링크 연산 실패")
				messages = append(messages, fmt.Sprintf(
					"[unknown] Error performing %s for mac=%s, %s: %v",
					op.Kind, op.Mac, op.TargetName, err))
				output.FailedOps++
				continue
			}
			output.ExecutedOps++
		}
	}

	// 5. 계획과 실행 중 누적된 메시지가 있으면 부분 실패로 보고
	if len(messages) > 0 {
		metrics.RecordRename("partial")
		return output, errors.NewPartialRenameError(messages)
	}

	uc.logger.WithField("executed_ops", output.ExecutedOps).Info("이름 변경 배치 완료")
	metrics.RecordRename("success")
	return output, nil
}

// snapshotDevices는 계획 수립에 필요한 장치별 라이브 상태를 수집합니다.
// 주소 스크랩이 실패하면 downable을 판단 불가(nil)로 남기고 계속 진행합니다
func (uc *ApplyRenamesUseCase) snapshotDevices(ctx context.Context) ([]entities.DeviceState, error) {
	records, err := uc.inventory.ListInterfaces(ctx)
	if err != nil {
		return nil, err
	}

	addressed, err := uc.linkManager.AddressedInterfaceNames(ctx)
	if err != nil {
		uc.logger.WithError(err).Warn("주소 보유 인터페이스 조회 실패, downable 판단 보류")
		addressed = nil
	}

	states := make([]entities.DeviceState, 0, len(records))
	for _, record := range records {
		state := entities.DeviceState{
			InterfaceRecord: record,
			Up:              uc.inventory.IsUp(record.Name),
		}
		if !state.Up {
			// 내려가 있는 링크는 언제나 안전하게 내릴 수 있습니다
			downable := true
			state.Downable = &downable
		} else if addressed != nil {
			// 영구 주소가 없는 링크만 잠시 내려도 연결을 잃지 않습니다
			_, hasAddress := addressed[record.Name]
			downable := !hasAddress
			state.Downable = &downable
		}
		states = append(states, state)
	}
	return states, nil
}

// applyOp는 단일 링크 연산을 ip 어댑터로 실행합니다
func (uc *ApplyRenamesUseCase) applyOp(ctx context.Context, op entities.RenameOp) error {
	switch op.Kind {
	case entities.OpDown:
		return uc.linkManager.SetLinkDown(ctx, op.Current)
	case entities.OpUp:
		return uc.linkManager.SetLinkUp(ctx, op.Current)
	case entities.OpRename:
		return uc.linkManager.RenameLink(ctx, op.Current, op.NewName)
	default:
		return errors.NewValidationError(fmt.Sprintf("알 수 없는 연산 종류: %s", op.Kind), nil)
	}
}
