package hooks

import (
	"sync"
	"testing"
	"time"
)

func TestEmitReachesAllHandlersInOrder(t *testing.T) {
	b := NewBus()
	var order []int
	b.On(EventTestStarted, func(Event, any) { order = append(order, 1) })
	b.On(EventTestStarted, func(Event, any) { order = append(order, 2) })

	b.Emit(EventTestStarted, nil)

	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Errorf("handler order = %v, want [1 2]", order)
	}
}

func TestEmitIgnoresUnregisteredEvents(t *testing.T) {
	b := NewBus()
	b.Emit(EventRunFinished, RunEventData{RunID: "r1"})
}

func TestOnTestFinishedFiltersPayloadType(t *testing.T) {
	b := NewBus()
	var got []TestEventData
	b.OnTestFinished(func(d TestEventData) { got = append(got, d) })

	b.Emit(EventTestFinished, TestEventData{Method: "testX", Status: "pass", Duration: time.Second})
	b.Emit(EventTestFinished, "not the right type")

	if len(got) != 1 {
		t.Fatalf("handler invoked %d times, want 1", len(got))
	}
	if got[0].Method != "testX" || got[0].Status != "pass" {
		t.Errorf("payload = %+v", got[0])
	}
}

func TestConcurrentSubscribeAndEmit(t *testing.T) {
	b := NewBus()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			b.On(EventTestFinished, func(Event, any) {})
		}()
		go func() {
			defer wg.Done()
			b.Emit(EventTestFinished, TestEventData{})
		}()
	}
	wg.Wait()
}
