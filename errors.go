package easel

import "fmt"

// InitializationError reports a structural failure of Registry.Init.
type InitializationError struct {
	Reason string
	Err    error
}

func (e *InitializationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("easel: init: %s: %v", e.Reason, e.Err)
	}
	return "easel: init: " + e.Reason
}

func (e *InitializationError) Unwrap() error { return e.Err }

// InvalidStateError reports a registry operation invoked outside StateReady.
type InvalidStateError struct {
	Op    string
	State State
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("easel: %s: registry is %s, want %s", e.Op, e.State, StateReady)
}

// NodeResolutionError reports an event target that maps to no known element.
// The router treats it as a background event.
type NodeResolutionError struct {
	ElementID string
}

func (e *NodeResolutionError) Error() string {
	return fmt.Sprintf("easel: no registered node for element %q", e.ElementID)
}

// TransformNormalizationError reports a node whose scale could not be folded
// back into its element's geometry.
type TransformNormalizationError struct {
	ElementID string
	Type      ElementType
	Err       error
}

func (e *TransformNormalizationError) Error() string {
	return fmt.Sprintf("easel: normalize %s %q: %v", e.Type, e.ElementID, e.Err)
}

func (e *TransformNormalizationError) Unwrap() error { return e.Err }

// DrawError reports a failed layer repaint.
type DrawError struct {
	Layer LayerName
	Err   error
}

func (e *DrawError) Error() string {
	return fmt.Sprintf("easel: draw layer %s: %v", e.Layer, e.Err)
}

func (e *DrawError) Unwrap() error { return e.Err }

// AdapterError reports a failed call into the external ElementStore.
type AdapterError struct {
	Op  string
	Err error
}

func (e *AdapterError) Error() string {
	return fmt.Sprintf("easel: store %s: %v", e.Op, e.Err)
}

func (e *AdapterError) Unwrap() error { return e.Err }

// recovered converts a recovered panic value into an error.
func recovered(r any) error {
	if err, ok := r.(error); ok {
		return fmt.Errorf("panic: %w", err)
	}
	return fmt.Errorf("panic: %v", r)
}

// safely runs fn, converting a panic into an error.
func safely(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = recovered(r)
		}
	}()
	return fn()
}
