package application

import (
	"fmt"
	"reflect"

	"rifa/domain/events"
)

// AssertEventType asserts event to T with a descriptive error on mismatch
func AssertEventType[T events.Event](event interface{}, expectedTypeName string) (T, error) {
	var zero T

	if e, ok := event.(T); ok {
		return e, nil
	}

	errMsg := fmt.Sprintf("event type assertion failed: expected %s, got %T", expectedTypeName, event)
	if e, ok := event.(events.Event); ok {
		errMsg += fmt.Sprintf(" (event.Type()=%s)", e.Type())
	}
	if v := reflect.ValueOf(event); v.Kind() == reflect.Ptr && v.IsNil() {
		errMsg += " (event is nil)"
	}

	return zero, fmt.Errorf("%s", errMsg)
}
