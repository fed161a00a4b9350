// Package request drives the money request creation flow.
package request

import (
	"errors"
	"strings"
)

// ErrUnknownIOUType is returned for request types the flow does not handle.
var ErrUnknownIOUType = errors.New("unknown iou type")

// ErrUnknownTab is returned for tabs the flow does not offer.
var ErrUnknownTab = errors.New("unknown request tab")

// IOUType selects what kind of money request is being created.
type IOUType int

const (
	IOURequest IOUType = iota + 1
	IOUSend
	IOUSplit
)

var iouTypeNames = map[IOUType]string{
	IOURequest: "request",
	IOUSend:    "send",
	IOUSplit:   "split",
}

var iouTypeTitles = map[IOUType]string{
	IOURequest: "Request money",
	IOUSend:    "Send money",
	IOUSplit:   "Split bill",
}

// ParseIOUType resolves the route discriminant once, at flow start.
func ParseIOUType(s string) (IOUType, error) {
	for t, name := range iouTypeNames {
		if name == strings.ToLower(strings.TrimSpace(s)) {
			return t, nil
		}
	}
	return 0, ErrUnknownIOUType
}

func (t IOUType) String() string {
	return iouTypeNames[t]
}

// Title is the header title of the start screen.
func (t IOUType) Title() string {
	return iouTypeTitles[t]
}

// MarshalText encodes the type by name.
func (t IOUType) MarshalText() ([]byte, error) {
	name, ok := iouTypeNames[t]
	if !ok {
		return nil, ErrUnknownIOUType
	}
	return []byte(name), nil
}

// UnmarshalText decodes a type name.
func (t *IOUType) UnmarshalText(b []byte) error {
	parsed, err := ParseIOUType(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Tab is a way of entering the request amount.
type Tab string

const (
	TabManual   Tab = "manual"
	TabScan     Tab = "scan"
	TabDistance Tab = "distance"
)

// DefaultTab is selected when the viewer has no remembered choice.
const DefaultTab = TabManual

// Tabs lists the tabs in display order.
func Tabs() []Tab {
	return []Tab{TabManual, TabScan, TabDistance}
}

// ParseTab validates a tab name.
func ParseTab(s string) (Tab, error) {
	switch t := Tab(strings.ToLower(strings.TrimSpace(s))); t {
	case TabManual, TabScan, TabDistance:
		return t, nil
	default:
		return "", ErrUnknownTab
	}
}

// Step names the screen each tab renders.
func (t Tab) Step() string {
	switch t {
	case TabScan:
		return "scan"
	case TabDistance:
		return "distance"
	default:
		return "amount"
	}
}
