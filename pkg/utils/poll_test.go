package utils

import (
	"context"
	"errors"
	"testing"
	"time"
)

// fakeSleeper는 Sleep 호출마다 현재 시각을 전진시키는 가짜 시계
type fakeSleeper struct {
	now  time.Time
	naps int
}

func (f *fakeSleeper) Now() time.Time { return f.now }

func (f *fakeSleeper) Sleep(d time.Duration) {
	f.now = f.now.Add(d)
	f.naps++
}

func TestPollUntil(t *testing.T) {
	interval := 10 * time.Millisecond
	timeout := 50 * time.Millisecond

	t.Run("즉시 성공하면 대기하지 않음", func(t *testing.T) {
		clock := &fakeSleeper{now: time.Unix(0, 0)}

		ok, err := PollUntil(context.Background(), clock, interval, timeout, func() (bool, error) {
			return true, nil
		})

		if err != nil {
			t.Fatalf("PollUntil() error = %v", err)
		}
		if !ok {
			t.Error("PollUntil() = false, want true")
		}
		if clock.naps != 0 {
			t.Errorf("Sleep 호출 횟수 = %d, want 0", clock.naps)
		}
	})

	t.Run("여러 번 시도 후 성공", func(t *testing.T) {
		clock := &fakeSleeper{now: time.Unix(0, 0)}
		attempts := 0

		ok, err := PollUntil(context.Background(), clock, interval, timeout, func() (bool, error) {
			attempts++
			return attempts == 3, nil
		})

		if err != nil {
			t.Fatalf("PollUntil() error = %v", err)
		}
		if !ok {
			t.Error("PollUntil() = false, want true")
		}
		if attempts != 3 {
			t.Errorf("시도 횟수 = %d, want 3", attempts)
		}
		if clock.naps != 2 {
			t.Errorf("Sleep 호출 횟수 = %d, want 2", clock.naps)
		}
	})

	t.Run("제한 시간 초과 시 false 반환", func(t *testing.T) {
		clock := &fakeSleeper{now: time.Unix(0, 0)}
		attempts := 0

		ok, err := PollUntil(context.Background(), clock, interval, timeout, func() (bool, error) {
			attempts++
			return false, nil
		})

		if err != nil {
			t.Fatalf("PollUntil() error = %v", err)
		}
		if ok {
			t.Error("PollUntil() = true, want false")
		}
		// 0ms, 10ms, 20ms, 30ms, 40ms, 50ms 시점에서 각각 한 번씩 평가
		if attempts != 6 {
			t.Errorf("시도 횟수 = %d, want 6", attempts)
		}
	})

	t.Run("조건 함수 오류 시 즉시 중단", func(t *testing.T) {
		clock := &fakeSleeper{now: time.Unix(0, 0)}
		wantErr := errors.New("condition failed")

		ok, err := PollUntil(context.Background(), clock, interval, timeout, func() (bool, error) {
			return false, wantErr
		})

		if !errors.Is(err, wantErr) {
			t.Errorf("PollUntil() error = %v, want %v", err, wantErr)
		}
		if ok {
			t.Error("PollUntil() = true, want false")
		}
	})

	t.Run("컨텍스트 취소 시 중단", func(t *testing.T) {
		clock := &fakeSleeper{now: time.Unix(0, 0)}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := PollUntil(ctx, clock, interval, timeout, func() (bool, error) {
			return false, nil
		})

		if !errors.Is(err, context.Canceled) {
			t.Errorf("PollUntil() error = %v, want context.Canceled", err)
		}
	})
}
