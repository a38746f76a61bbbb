package services

import (
	"fmt"
	"strings"

	"github.com/canonical/cloud-init-sub001/internal/domain/constants"
	"github.com/canonical/cloud-init-sub001/internal/domain/entities"
	"github.com/canonical/cloud-init-sub001/internal/domain/errors"
)

// RenamePlan은 이름 변경 배치의 실행 계획입니다.
// Ops(모든 down/rename)가 생성 순서대로 먼저 실행되고, Ups가 후행 배치로 실행됩니다.
// 배치 전체의 down/rename이 끝나기 전에는 어떤 up도 실행되지 않습니다
type RenamePlan struct {
	Ops      []entities.RenameOp
	Ups      []entities.RenameOp
	Messages []string
}

// Empty는 실행할 연산이 없는지 확인합니다
func (p *RenamePlan) Empty() bool {
	return len(p.Ops) == 0 && len(p.Ups) == 0
}

// RenamePlanner는 현재 디바이스 상태와 대상 목록으로부터 충돌 없는
// 연산 목록을 계산하는 순수 도메인 서비스입니다. OS에 접근하지 않습니다
type RenamePlanner struct{}

// NewRenamePlanner는 새로운 RenamePlanner를 생성합니다
func NewRenamePlanner() *RenamePlanner {
	return &RenamePlanner{}
}

// deviceMirror는 계획 수립 중 유지되는 현재 상태의 인메모리 미러입니다.
// 앞선 대상의 효과를 반영하여 뒤의 대상이 관찰할 수 있게 합니다
type deviceMirror struct {
	name     string
	mac      string
	driver   string
	deviceID string
	up       bool
	downable *bool
}

func (d *deviceMirror) canDown() bool {
	return d.downable != nil && *d.downable
}

// Plan은 대상들을 호출 순서대로 처리하여 실행 계획을 만듭니다.
// 매칭이 하나로 좁혀지지 않는 대상이 있으면 즉시 AMBIGUOUS 에러로 실패합니다.
// NotPresent/Busy는 메시지로만 누적되며, strict 플래그가 꺼진 경우 메시지도 남기지 않습니다
func (p *RenamePlanner) Plan(
	current []entities.DeviceState,
	targets []entities.RenameTarget,
	strictPresent bool,
	strictBusy bool,
) (*RenamePlan, error) {
	plan := &RenamePlan{}

	mirror := make([]*deviceMirror, 0, len(current))
	for _, state := range current {
		mirror = append(mirror, &deviceMirror{
			name:     state.Name,
			mac:      strings.ToLower(state.Mac),
			driver:   state.Driver,
			deviceID: state.DeviceID,
			up:       state.Up,
			downable: state.Downable,
		})
	}

	byName := func(name string) *deviceMirror {
		for _, d := range mirror {
			if d.name == name {
				return d
			}
		}
		return nil
	}

	// 임시 이름은 현재 이름과 이미 재배치된 이름 전부에 대해 유일해야 합니다
	tmpIndex := -1
	nextTempName := func() string {
		for {
			tmpIndex++
			candidate := fmt.Sprintf("%s%d", constants.TempNamePrefix, tmpIndex)
			if byName(candidate) == nil {
				return candidate
			}
		}
	}

	for _, target := range targets {
		mac := target.NormalizedMac()
		newName := target.Name

		cur, err := findEntry(mirror, mac, target.Driver, target.DeviceID)
		if err != nil {
			return nil, err
		}
		if cur == nil {
			if strictPresent {
				plan.Messages = append(plan.Messages, fmt.Sprintf(
					"[nic not present] Cannot rename mac=%s to %s, not available.", mac, newName))
			}
			continue
		}

		curName := cur.name
		if curName == newName {
			continue
		}

		// 대상 디바이스가 올라와 있으면 안전하게 내릴 수 있어야 합니다
		if cur.up && !cur.canDown() {
			if strictBusy {
				plan.Messages = append(plan.Messages, fmt.Sprintf(
					"[busy] Error renaming mac=%s from %s to %s", mac, curName, newName))
			}
			continue
		}

		// 원하는 이름을 점유한 디바이스도 내릴 수 있어야 합니다
		occupant := byName(newName)
		if occupant != nil && occupant.up && !occupant.canDown() {
			if strictBusy {
				plan.Messages = append(plan.Messages, fmt.Sprintf(
					"[busy target] Error renaming mac=%s from %s to %s.", mac, curName, newName))
			}
			continue
		}

		// 여기서부터는 대상 처리가 확정된 것이므로 미러를 갱신해도 됩니다
		if cur.up {
			plan.Ops = append(plan.Ops, entities.RenameOp{
				Kind: entities.OpDown, Mac: mac, TargetName: newName, Current: curName,
			})
			plan.Ups = append(plan.Ups, entities.RenameOp{
				Kind: entities.OpUp, Mac: mac, TargetName: newName, Current: newName,
			})
			cur.up = false
		}

		if occupant != nil {
			if occupant.up {
				plan.Ops = append(plan.Ops, entities.RenameOp{
					Kind: entities.OpDown, Mac: mac, TargetName: newName, Current: newName,
				})
			}

			tmpName := nextTempName()
			plan.Ops = append(plan.Ops, entities.RenameOp{
				Kind: entities.OpRename, Mac: mac, TargetName: newName, Current: newName, NewName: tmpName,
			})
			occupant.name = tmpName
			if occupant.up {
				plan.Ups = append(plan.Ups, entities.RenameOp{
					Kind: entities.OpUp, Mac: mac, TargetName: newName, Current: tmpName,
				})
			}
		}

		plan.Ops = append(plan.Ops, entities.RenameOp{
			Kind: entities.OpRename, Mac: mac, TargetName: newName, Current: curName, NewName: newName,
		})
		cur.name = newName
	}

	return plan, nil
}

// findEntry는 MAC(지정 시 드라이버/디바이스 ID 포함)으로 미러에서 유일한
// 디바이스를 찾습니다. 둘 이상 매칭되면 AMBIGUOUS 에러를 반환합니다
func findEntry(mirror []*deviceMirror, mac, driver, deviceID string) (*deviceMirror, error) {
	var matches []*deviceMirror
	for _, d := range mirror {
		if entryMatch(d, mac, driver, deviceID) {
			matches = append(matches, d)
		}
	}

	if len(matches) > 1 {
		names := make([]string, 0, len(matches))
		for _, m := range matches {
			names = append(names, m.name)
		}
		return nil, errors.NewAmbiguousError(fmt.Sprintf(
			"failed to match a single device: matched %q with search values (mac:%s driver:%s device_id:%s)",
			names, mac, driver, deviceID))
	}
	if len(matches) == 1 {
		return matches[0], nil
	}
	return nil, nil
}

// entryMatch는 지정된 필드가 모두 일치하는지 확인합니다
func entryMatch(d *deviceMirror, mac, driver, deviceID string) bool {
	switch {
	case mac != "" && driver != "" && deviceID != "":
		return d.mac == mac && d.driver == driver && d.deviceID == deviceID
	case mac != "" && driver != "":
		return d.mac == mac && d.driver == driver
	case mac != "":
		return d.mac == mac
	}
	return false
}
