package utils

import (
	"context"
	"time"
)

// Sleeper는 폴링 대기가 필요로 하는 시계 동작 추상화
// 테스트에서 가짜 시계를 주입할 수 있습니다.
type Sleeper interface {
	Now() time.Time
	Sleep(d time.Duration)
}

// PollUntil은 조건이 참이 될 때까지 고정 간격으로 폴링
// 조건이 참이 되면 true, 제한 시간을 넘기면 false를 반환합니다.
// 조건 함수가 오류를 반환하면 즉시 중단하고 해당 오류를 돌려줍니다.
func PollUntil(ctx context.Context, clock Sleeper, interval, timeout time.Duration, condition func() (bool, error)) (bool, error) {
	deadline := clock.Now().Add(timeout)

	for {
		if err := ctx.Err(); err != nil {
			return false, err
		}

		done, err := condition()
		if err != nil {
			return false, err
		}
		if done {
			return true, nil
		}

		if !clock.Now().Before(deadline) {
			return false, nil
		}

		clock.Sleep(interval)
	}
}
